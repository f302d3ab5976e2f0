package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Seann-Moser/reportgate/session"
	"golang.org/x/oauth2"
)

var _ Client = &HTTPClient{}

// HTTPClient talks to the platform REST API with bearer-token auth. The token
// is read from the session on every request, so the same client follows the
// session through bootstrap, login, and logout.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client for the given API base URL, authenticating
// with the session's current token. The oauth2 transport is used directly:
// oauth2.NewClient would wrap the source in a ReuseTokenSource, which caches
// a token without an expiry forever and would pin the first token it saw.
func NewHTTPClient(baseURL string, s *session.Session) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Transport: &oauth2.Transport{Source: sessionTokenSource{s: s}}},
	}
}

// sessionTokenSource yields the session's current token. No caching: the
// oauth2 transport asks per request, which is exactly what we want when login
// and logout swap the token underneath us.
type sessionTokenSource struct {
	s *session.Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{
		AccessToken: ts.s.Token(),
		TokenType:   "Bearer",
	}, nil
}

func (c *HTTPClient) FetchAppInfo(ctx context.Context) (*AppInfo, error) {
	var info AppInfo
	if err := c.get(ctx, "/api/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *HTTPClient) FetchCurrentUser(ctx context.Context) (*session.UserInfo, error) {
	var user session.UserInfo
	if err := c.get(ctx, "/api/users/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *HTTPClient) FetchProjectByKey(ctx context.Context, key string) (*Project, error) {
	var project Project
	if err := c.get(ctx, "/api/projects/"+url.PathEscape(key), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *HTTPClient) FetchPlugins(ctx context.Context) ([]Plugin, error) {
	var plugins []Plugin
	if err := c.get(ctx, "/api/plugins", &plugins); err != nil {
		return nil, err
	}
	return plugins, nil
}

func (c *HTTPClient) FetchPublicPlugins(ctx context.Context) ([]Plugin, error) {
	var plugins []Plugin
	if err := c.get(ctx, "/api/plugins/public", &plugins); err != nil {
		return nil, err
	}
	return plugins, nil
}

func (c *HTTPClient) FetchGlobalIntegrations(ctx context.Context) ([]Integration, error) {
	var integrations []Integration
	if err := c.get(ctx, "/api/integrations/global/enabled", &integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &APIError{
			StatusCode: res.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
