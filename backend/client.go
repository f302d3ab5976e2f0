package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Seann-Moser/reportgate/session"
)

// Client is the opaque REST collaborator the bootstrap workflow consumes.
type Client interface {
	FetchAppInfo(ctx context.Context) (*AppInfo, error)
	FetchCurrentUser(ctx context.Context) (*session.UserInfo, error)
	FetchProjectByKey(ctx context.Context, key string) (*Project, error)
	FetchPlugins(ctx context.Context) ([]Plugin, error)
	FetchPublicPlugins(ctx context.Context) ([]Plugin, error)
	FetchGlobalIntegrations(ctx context.Context) ([]Integration, error)
}

// APIError carries the HTTP status of a failed backend call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether the error is an authentication/authorization
// failure (expired, invalid, or missing token).
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
