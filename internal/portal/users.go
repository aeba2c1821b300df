package portal

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"payops/internal/domain"
)

// Grouping and sort keys accepted by GroupUsers and SortUsers.
const (
	GroupNone     = ""
	GroupPortal   = "portal"
	GroupStatus   = "status"
	GroupUserType = "user_type"

	SortUsername = "username"
	SortPortal   = "portal"
	SortStatus   = "status"
	SortUpdated  = "updated"
)

// MinPasswordLength is the shortest accepted portal password.
const MinPasswordLength = 8

// UserGroup is one bucket of a grouped user listing.
type UserGroup struct {
	Key   string              `json:"key"`
	Count int                 `json:"count"`
	Users []domain.PortalUser `json:"users"`
}

// GroupUsers buckets users by the given key. Groups are ordered by key and keep the input
// order of their members. GroupNone returns a single group with every user.
func GroupUsers(users []domain.PortalUser, by string) []UserGroup {
	keyOf := func(u *domain.PortalUser) string { return "all" }
	switch by {
	case GroupPortal:
		keyOf = func(u *domain.PortalUser) string { return u.Portal }
	case GroupStatus:
		keyOf = func(u *domain.PortalUser) string { return string(u.Status) }
	case GroupUserType:
		keyOf = func(u *domain.PortalUser) string { return string(u.UserType) }
	}

	index := make(map[string]int)
	var groups []UserGroup
	for i := range users {
		k := keyOf(&users[i])
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, UserGroup{Key: k})
		}
		groups[gi].Users = append(groups[gi].Users, users[i])
		groups[gi].Count++
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Key < groups[b].Key })
	return groups
}

// SortUsers sorts users in place by field. Unknown fields sort by username. Ties keep their
// input order.
func SortUsers(users []domain.PortalUser, field string, desc bool) {
	cmp := func(a, b *domain.PortalUser) int {
		return strings.Compare(strings.ToLower(a.Username), strings.ToLower(b.Username))
	}
	switch field {
	case SortPortal:
		cmp = func(a, b *domain.PortalUser) int { return strings.Compare(strings.ToLower(a.Portal), strings.ToLower(b.Portal)) }
	case SortStatus:
		cmp = func(a, b *domain.PortalUser) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case SortUpdated:
		cmp = func(a, b *domain.PortalUser) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	}
	sort.SliceStable(users, func(i, j int) bool {
		c := cmp(&users[i], &users[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// TwoFactorInput is the second-factor part of a credential form.
type TwoFactorInput struct {
	Method string `json:"method" validate:"omitempty,oneof=none email phone"`
	Email  string `json:"email" validate:"required_if=Method email,omitempty,email"`
	Phone  string `json:"phone" validate:"required_if=Method phone,omitempty,e164"`
}

// CredentialInput is the payload for creating or updating a portal user. Password is
// optional on update; a blank password keeps the stored hash.
type CredentialInput struct {
	Portal    string         `json:"portal" validate:"required,max=100"`
	PortalURL string         `json:"portal_url" validate:"omitempty,url"`
	Username  string         `json:"username" validate:"required,max=255"`
	Password  string         `json:"password" validate:"omitempty,min=8,max=128"`
	TwoFactor TwoFactorInput `json:"two_factor"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateCredentials checks a credential form. Second-factor problems are reported as
// ErrInvalidTwoFactor, everything else as ErrInvalidCredentials. requirePassword is set on
// create.
func ValidateCredentials(in *CredentialInput, requirePassword bool) error {
	in.Portal = strings.TrimSpace(in.Portal)
	in.Username = strings.TrimSpace(in.Username)
	in.TwoFactor.Email = strings.TrimSpace(in.TwoFactor.Email)
	in.TwoFactor.Phone = strings.TrimSpace(in.TwoFactor.Phone)

	if requirePassword && len(in.Password) < MinPasswordLength {
		return &ValidationError{Err: domain.ErrInvalidCredentials, Field: "password",
			Message: "Must be at least 8 characters"}
	}

	err := engine().Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	sentinel := domain.ErrInvalidCredentials
	if strings.Contains(fe.Namespace(), "two_factor") {
		sentinel = domain.ErrInvalidTwoFactor
	}
	return &ValidationError{Err: sentinel, Field: fe.Field(), Message: validationMessage(fe)}
}

// ValidationError reports the first invalid field of a credential form.
type ValidationError struct {
	Err     error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Err.Error() + ": " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "e164":
		return "Phone number must be in E.164 format, e.g. +14155550123"
	case "url":
		return "Invalid URL format"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	default:
		return "Invalid value"
	}
}

// TwoFactorSettings converts validated input into stored settings. Contact details not
// used by the chosen method are dropped.
func (t TwoFactorInput) TwoFactorSettings() domain.TwoFactorSettings {
	s := domain.TwoFactorSettings{Method: domain.TwoFactorMethod(t.Method)}
	switch s.Method {
	case domain.TwoFactorEmail:
		s.Email = t.Email
	case domain.TwoFactorPhone:
		s.Phone = t.Phone
	default:
		s.Method = domain.TwoFactorNone
	}
	return s
}

// HashPassword hashes a portal password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckWritable rejects changes to platform-managed credentials.
func CheckWritable(u *domain.PortalUser) error {
	if u.ReadOnly() {
		return domain.ErrPortalUserReadOnly
	}
	return nil
}
