package backend

// Instance deployment flavors reported by the app info endpoint.
const (
	InstanceTypeEPAM      = "EPAM"
	InstanceTypeSaaS      = "SaaS"
	InstanceTypeDedicated = "Dedicated"
)

// AppInfo describes the server instance the UI is talking to.
type AppInfo struct {
	Version            string `json:"version" bson:"version"`
	InstanceType       string `json:"instance_type" bson:"instance_type"`
	AnalyticsEnabled   bool   `json:"analytics_enabled" bson:"analytics_enabled"`
	AllowDeleteAccount bool   `json:"allow_delete_account" bson:"allow_delete_account"`
}

// Project is the project record loaded once the active project is known.
type Project struct {
	Key              string `json:"key" bson:"key"`
	Name             string `json:"name" bson:"name"`
	Slug             string `json:"slug" bson:"slug"`
	OrganizationID   string `json:"organization_id" bson:"organization_id"`
	OrganizationSlug string `json:"organization_slug" bson:"organization_slug"`
}

// Plugin is an installed (or publicly discoverable) server plugin.
type Plugin struct {
	ID      string                 `json:"id" bson:"id"`
	Name    string                 `json:"name" bson:"name"`
	Type    string                 `json:"type" bson:"type"`
	Enabled bool                   `json:"enabled" bson:"enabled"`
	Public  bool                   `json:"public" bson:"public"`
	Details map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
}

// Integration is a configured global integration of an installed plugin.
type Integration struct {
	ID              string `json:"id" bson:"id"`
	Name            string `json:"name" bson:"name"`
	IntegrationType string `json:"integration_type" bson:"integration_type"`
	Enabled         bool   `json:"enabled" bson:"enabled"`
}
