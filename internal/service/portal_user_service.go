package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payops/internal/domain"
	"payops/internal/port"
	"payops/internal/portal"
)

// PortalUserListInput controls grouping and ordering of the credential list.
type PortalUserListInput struct {
	GroupBy string
	Sort    string
	Desc    bool
}

// PortalUserResult is a credential after a change, with the notification sent for it.
type PortalUserResult struct {
	User         *domain.PortalUser  `json:"user"`
	Notification domain.Notification `json:"notification"`
}

// PortalUserService defines the operations on buyer-portal credentials.
type PortalUserService interface {
	List(ctx context.Context, input PortalUserListInput) ([]portal.UserGroup, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalUser, error)
	Create(ctx context.Context, input portal.CredentialInput) (*PortalUserResult, error)
	Update(ctx context.Context, id uuid.UUID, input portal.CredentialInput) (*PortalUserResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Revalidate(ctx context.Context, id uuid.UUID) (*PortalUserResult, error)
	// RevalidateAll checks every credential and returns how many are disconnected.
	RevalidateAll(ctx context.Context) (int, error)
}

type portalUserService struct {
	users   port.PortalUserRepository
	checker port.ConnectivityChecker
	effects sideEffects
	log     logrus.FieldLogger
}

// NewPortalUserService creates a new PortalUserService implementation.
func NewPortalUserService(
	users port.PortalUserRepository,
	checker port.ConnectivityChecker,
	notifier port.Notifier,
	log logrus.FieldLogger,
) PortalUserService {
	log = log.WithField("component", "portalUserService")
	return &portalUserService{
		users:   users,
		checker: checker,
		effects: sideEffects{notifier: notifier, log: log},
		log:     log,
	}
}

func (s *portalUserService) List(ctx context.Context, input PortalUserListInput) ([]portal.UserGroup, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	portal.SortUsers(users, input.Sort, input.Desc)
	return portal.GroupUsers(users, input.GroupBy), nil
}

func (s *portalUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalUser, error) {
	return s.users.GetByID(ctx, id)
}

// Create stores a new External credential in Validating state and runs the connectivity
// check right away.
func (s *portalUserService) Create(ctx context.Context, input portal.CredentialInput) (*PortalUserResult, error) {
	if err := portal.ValidateCredentials(&input, true); err != nil {
		return nil, err
	}
	hash, err := portal.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.PortalUser{
		ID:           uuid.New(),
		Portal:       input.Portal,
		PortalURL:    strings.TrimSpace(input.PortalURL),
		Username:     input.Username,
		PasswordHash: hash,
		UserType:     domain.PortalUserExternal,
		Status:       domain.PortalUserValidating,
		TwoFactor:    input.TwoFactor.TwoFactorSettings(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "portal": u.Portal}).Info("portal user created")

	return s.validate(ctx, u, "Portal user added")
}

// Update changes an External credential. A blank password keeps the stored one; a new
// password or username puts the credential back through validation.
func (s *portalUserService) Update(ctx context.Context, id uuid.UUID, input portal.CredentialInput) (*PortalUserResult, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := portal.CheckWritable(u); err != nil {
		return nil, err
	}
	if err := portal.ValidateCredentials(&input, false); err != nil {
		return nil, err
	}

	recheck := input.Password != "" || !strings.EqualFold(input.Username, u.Username) ||
		!strings.EqualFold(input.Portal, u.Portal)
	if input.Password != "" {
		hash, err := portal.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = hash
	}
	u.Portal = input.Portal
	u.PortalURL = strings.TrimSpace(input.PortalURL)
	u.Username = input.Username
	u.TwoFactor = input.TwoFactor.TwoFactorSettings()
	u.UpdatedAt = time.Now().UTC()

	if !recheck {
		if err := s.users.Update(ctx, u); err != nil {
			return nil, err
		}
		n := domain.Notification{
			Title:       "Portal user updated",
			Description: fmt.Sprintf("%s on %s was updated.", u.Username, u.Portal),
			Variant:     domain.NotificationSuccess,
		}
		s.effects.notify(ctx, n)
		return &PortalUserResult{User: u, Notification: n}, nil
	}

	u.Status = domain.PortalUserValidating
	u.Issue = ""
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.validate(ctx, u, "Portal user updated")
}

func (s *portalUserService) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := portal.CheckWritable(u); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "portal": u.Portal}).Info("portal user deleted")
	return nil
}

func (s *portalUserService) Revalidate(ctx context.Context, id uuid.UUID) (*PortalUserResult, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.validate(ctx, u, "Portal user revalidated")
}

func (s *portalUserService) RevalidateAll(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}
	disconnected := 0
	for i := range users {
		if err := ctx.Err(); err != nil {
			return disconnected, err
		}
		u := &users[i]
		wasConnected := u.Status == domain.PortalUserConnected
		if err := s.check(ctx, u); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("portal user revalidation failed")
			continue
		}
		if u.Status == domain.PortalUserDisconnected {
			disconnected++
			if wasConnected {
				s.effects.notify(ctx, disconnectedNotification(u))
			}
		}
	}
	s.log.WithFields(logrus.Fields{"users": len(users), "disconnected": disconnected}).Info("portal users revalidated")
	return disconnected, nil
}

// validate runs the connectivity check on u, stores the outcome and notifies.
func (s *portalUserService) validate(ctx context.Context, u *domain.PortalUser, title string) (*PortalUserResult, error) {
	if err := s.check(ctx, u); err != nil {
		return nil, err
	}
	n := domain.Notification{
		Title:       title,
		Description: fmt.Sprintf("%s on %s is connected.", u.Username, u.Portal),
		Variant:     domain.NotificationSuccess,
	}
	if u.Status == domain.PortalUserDisconnected {
		n = disconnectedNotification(u)
	}
	s.effects.notify(ctx, n)
	return &PortalUserResult{User: u, Notification: n}, nil
}

func (s *portalUserService) check(ctx context.Context, u *domain.PortalUser) error {
	res, err := s.checker.Check(ctx, u)
	if err != nil {
		return fmt.Errorf("checking portal connectivity: %w", err)
	}
	portal.ApplyResult(u, res, time.Now())
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("saving portal user: %w", err)
	}
	return nil
}

func disconnectedNotification(u *domain.PortalUser) domain.Notification {
	desc := fmt.Sprintf("%s on %s could not connect.", u.Username, u.Portal)
	if u.Issue != "" {
		desc = fmt.Sprintf("%s on %s could not connect: %s", u.Username, u.Portal, u.Issue)
	}
	return domain.Notification{
		Title:       "Portal connection failed",
		Description: desc,
		Variant:     domain.NotificationDestructive,
	}
}
