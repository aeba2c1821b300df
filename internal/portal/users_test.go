package portal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"payops/internal/domain"
	"payops/internal/port"
	"payops/internal/portal"
)

func users() []domain.PortalUser {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.PortalUser{
		{Username: "carol", Portal: "Coupa", Status: domain.PortalUserConnected, UserType: domain.PortalUserExternal, UpdatedAt: base.Add(2 * time.Hour)},
		{Username: "alice", Portal: "Ariba", Status: domain.PortalUserDisconnected, UserType: domain.PortalUserMonto, UpdatedAt: base},
		{Username: "Bob", Portal: "Coupa", Status: domain.PortalUserValidating, UserType: domain.PortalUserExternal, UpdatedAt: base.Add(time.Hour)},
	}
}

func names(us []domain.PortalUser) []string {
	out := make([]string, len(us))
	for i := range us {
		out[i] = us[i].Username
	}
	return out
}

func TestGroupUsers(t *testing.T) {
	groups := portal.GroupUsers(users(), portal.GroupPortal)

	require.Len(t, groups, 2)
	assert.Equal(t, "Ariba", groups[0].Key)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, "Coupa", groups[1].Key)
	assert.Equal(t, []string{"carol", "Bob"}, names(groups[1].Users))

	all := portal.GroupUsers(users(), portal.GroupNone)
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].Count)
}

func TestSortUsers(t *testing.T) {
	us := users()
	portal.SortUsers(us, portal.SortUsername, false)
	assert.Equal(t, []string{"alice", "Bob", "carol"}, names(us))

	portal.SortUsers(us, portal.SortUpdated, true)
	assert.Equal(t, []string{"carol", "Bob", "alice"}, names(us))

	portal.SortUsers(us, portal.SortPortal, false)
	assert.Equal(t, []string{"alice", "carol", "Bob"}, names(us))
}

func TestValidateCredentials(t *testing.T) {
	valid := func() portal.CredentialInput {
		return portal.CredentialInput{
			Portal:    "Coupa",
			PortalURL: "https://supplier.coupahost.com",
			Username:  " ap@globex.com ",
			Password:  "s3cretpass",
			TwoFactor: portal.TwoFactorInput{Method: "email", Email: "ap@globex.com"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		in := valid()
		require.NoError(t, portal.ValidateCredentials(&in, true))
		assert.Equal(t, "ap@globex.com", in.Username)
	})

	tests := []struct {
		name    string
		mutate  func(*portal.CredentialInput)
		create  bool
		wantErr error
		field   string
	}{
		{"short password", func(in *portal.CredentialInput) { in.Password = "short" }, true, domain.ErrInvalidCredentials, "password"},
		{"missing password on create", func(in *portal.CredentialInput) { in.Password = "" }, true, domain.ErrInvalidCredentials, "password"},
		{"missing username", func(in *portal.CredentialInput) { in.Username = "  " }, false, domain.ErrInvalidCredentials, "username"},
		{"bad portal url", func(in *portal.CredentialInput) { in.PortalURL = "not a url" }, false, domain.ErrInvalidCredentials, "portal_url"},
		{"email method without email", func(in *portal.CredentialInput) { in.TwoFactor.Email = "" }, false, domain.ErrInvalidTwoFactor, "email"},
		{"invalid email", func(in *portal.CredentialInput) { in.TwoFactor.Email = "nope" }, false, domain.ErrInvalidTwoFactor, "email"},
		{"invalid phone", func(in *portal.CredentialInput) {
			in.TwoFactor = portal.TwoFactorInput{Method: "phone", Phone: "555-0123"}
		}, false, domain.ErrInvalidTwoFactor, "phone"},
		{"unknown method", func(in *portal.CredentialInput) { in.TwoFactor.Method = "sms" }, false, domain.ErrInvalidTwoFactor, "method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)

			err := portal.ValidateCredentials(&in, tt.create)

			require.ErrorIs(t, err, tt.wantErr)
			var verr *portal.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("blank password allowed on update", func(t *testing.T) {
		in := valid()
		in.Password = ""
		assert.NoError(t, portal.ValidateCredentials(&in, false))
	})
}

func TestTwoFactorSettings_DropsUnusedContact(t *testing.T) {
	s := portal.TwoFactorInput{Method: "phone", Phone: "+14155550123", Email: "x@y.z"}.TwoFactorSettings()
	assert.Equal(t, domain.TwoFactorSettings{Method: domain.TwoFactorPhone, Phone: "+14155550123"}, s)

	assert.Equal(t, domain.TwoFactorNone, portal.TwoFactorInput{}.TwoFactorSettings().Method)
}

func TestHashPassword(t *testing.T) {
	hash, err := portal.HashPassword("s3cretpass")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cretpass")))
}

func TestCheckWritable(t *testing.T) {
	assert.ErrorIs(t, portal.CheckWritable(&domain.PortalUser{UserType: domain.PortalUserMonto}), domain.ErrPortalUserReadOnly)
	assert.NoError(t, portal.CheckWritable(&domain.PortalUser{UserType: domain.PortalUserExternal}))
}

func TestStaticChecker(t *testing.T) {
	c := portal.NewStaticChecker(map[string]string{"bob": "Invalid password"})
	ctx := context.Background()

	res, err := c.Check(ctx, &domain.PortalUser{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, port.ConnectivityResult{Issue: "Invalid password"}, res)

	res, err = c.Check(ctx, &domain.PortalUser{Username: "alice"})
	require.NoError(t, err)
	assert.True(t, res.Connected)
}

func TestApplyResult(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	u := &domain.PortalUser{Status: domain.PortalUserValidating}

	portal.ApplyResult(u, port.ConnectivityResult{Issue: "Locked out"}, now)
	assert.Equal(t, domain.PortalUserDisconnected, u.Status)
	assert.Equal(t, "Locked out", u.Issue)
	require.NotNil(t, u.LastValidatedAt)

	portal.ApplyResult(u, port.ConnectivityResult{Connected: true}, now)
	assert.Equal(t, domain.PortalUserConnected, u.Status)
	assert.Empty(t, u.Issue)
}
