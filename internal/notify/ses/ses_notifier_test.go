package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/config"
	"payops/internal/domain"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	return &sesv2.SendEmailOutput{}, f.err
}

func TestNotify_BuildsMessage(t *testing.T) {
	fake := &fakeSES{}
	n := newNotifier(fake, &config.NotifyConfig{
		FromAddress: "noreply@payops.local",
		FromName:    "PayOps",
		Recipients:  []string{"ops@acme.example"},
	})

	err := n.Notify(context.Background(), domain.Notification{
		Title:       "Import failed",
		Description: "3 rows <skipped>",
		Variant:     domain.NotificationDestructive,
	})

	require.NoError(t, err)
	require.NotNil(t, fake.input)
	assert.Equal(t, "PayOps <noreply@payops.local>", *fake.input.FromEmailAddress)
	assert.Equal(t, []string{"ops@acme.example"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "[Action failed] Import failed", *fake.input.Content.Simple.Subject.Data)
	assert.Contains(t, *fake.input.Content.Simple.Body.Html.Data, "3 rows &lt;skipped&gt;")
	assert.Equal(t, "3 rows <skipped>", *fake.input.Content.Simple.Body.Text.Data)
}

func TestNotify_WrapsError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	n := newNotifier(fake, &config.NotifyConfig{Recipients: []string{"ops@acme.example"}})

	err := n.Notify(context.Background(), domain.Notification{Title: "x"})
	assert.ErrorContains(t, err, "throttled")
}
