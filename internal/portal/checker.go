package portal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"payops/internal/domain"
	"payops/internal/port"
)

// StaticChecker returns a fixed outcome for every credential. Issues maps a username to
// a failure reason; users not listed connect.
type StaticChecker struct {
	Issues map[string]string
}

// NewStaticChecker creates a checker with the given per-username failures.
func NewStaticChecker(issues map[string]string) *StaticChecker {
	return &StaticChecker{Issues: issues}
}

// Check implements port.ConnectivityChecker.
func (c *StaticChecker) Check(_ context.Context, user *domain.PortalUser) (port.ConnectivityResult, error) {
	if issue, ok := c.Issues[user.Username]; ok {
		return port.ConnectivityResult{Connected: false, Issue: issue}, nil
	}
	return port.ConnectivityResult{Connected: true}, nil
}

// HTTPChecker considers a credential connected when its portal login page answers with a
// non-5xx status. It does not submit the credential.
type HTTPChecker struct {
	client *http.Client
}

// NewHTTPChecker creates a checker with the given request timeout.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{client: &http.Client{Timeout: timeout}}
}

// Check implements port.ConnectivityChecker.
func (c *HTTPChecker) Check(ctx context.Context, user *domain.PortalUser) (port.ConnectivityResult, error) {
	if user.PortalURL == "" {
		return port.ConnectivityResult{Issue: "Portal URL is not configured"}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, user.PortalURL, http.NoBody)
	if err != nil {
		return port.ConnectivityResult{}, fmt.Errorf("building portal request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return port.ConnectivityResult{Issue: "Portal is unreachable"}, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return port.ConnectivityResult{Issue: fmt.Sprintf("Portal returned %d", resp.StatusCode)}, nil
	}
	return port.ConnectivityResult{Connected: true}, nil
}

// ApplyResult records a connectivity outcome on the user.
func ApplyResult(u *domain.PortalUser, res port.ConnectivityResult, now time.Time) {
	checked := now.UTC()
	u.LastValidatedAt = &checked
	u.UpdatedAt = checked
	if res.Connected {
		u.Status = domain.PortalUserConnected
		u.Issue = ""
		return
	}
	u.Status = domain.PortalUserDisconnected
	u.Issue = res.Issue
}
