package backend

import (
	"context"

	"github.com/Seann-Moser/reportgate/session"
)

// MockClient provides customizable hooks for testing Client behavior.
type MockClient struct {
	FetchAppInfoFunc            func(ctx context.Context) (*AppInfo, error)
	FetchCurrentUserFunc        func(ctx context.Context) (*session.UserInfo, error)
	FetchProjectByKeyFunc       func(ctx context.Context, key string) (*Project, error)
	FetchPluginsFunc            func(ctx context.Context) ([]Plugin, error)
	FetchPublicPluginsFunc      func(ctx context.Context) ([]Plugin, error)
	FetchGlobalIntegrationsFunc func(ctx context.Context) ([]Integration, error)
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)

// FetchAppInfo calls FetchAppInfoFunc if set, otherwise returns nil, nil
func (m *MockClient) FetchAppInfo(ctx context.Context) (*AppInfo, error) {
	if m.FetchAppInfoFunc != nil {
		return m.FetchAppInfoFunc(ctx)
	}
	return nil, nil
}

// FetchCurrentUser calls FetchCurrentUserFunc if set, otherwise returns nil, nil
func (m *MockClient) FetchCurrentUser(ctx context.Context) (*session.UserInfo, error) {
	if m.FetchCurrentUserFunc != nil {
		return m.FetchCurrentUserFunc(ctx)
	}
	return nil, nil
}

// FetchProjectByKey calls FetchProjectByKeyFunc if set, otherwise returns nil, nil
func (m *MockClient) FetchProjectByKey(ctx context.Context, key string) (*Project, error) {
	if m.FetchProjectByKeyFunc != nil {
		return m.FetchProjectByKeyFunc(ctx, key)
	}
	return nil, nil
}

// FetchPlugins calls FetchPluginsFunc if set, otherwise returns nil, nil
func (m *MockClient) FetchPlugins(ctx context.Context) ([]Plugin, error) {
	if m.FetchPluginsFunc != nil {
		return m.FetchPluginsFunc(ctx)
	}
	return nil, nil
}

// FetchPublicPlugins calls FetchPublicPluginsFunc if set, otherwise returns nil, nil
func (m *MockClient) FetchPublicPlugins(ctx context.Context) ([]Plugin, error) {
	if m.FetchPublicPluginsFunc != nil {
		return m.FetchPublicPluginsFunc(ctx)
	}
	return nil, nil
}

// FetchGlobalIntegrations calls FetchGlobalIntegrationsFunc if set, otherwise returns nil, nil
func (m *MockClient) FetchGlobalIntegrations(ctx context.Context) ([]Integration, error) {
	if m.FetchGlobalIntegrationsFunc != nil {
		return m.FetchGlobalIntegrationsFunc(ctx)
	}
	return nil, nil
}
