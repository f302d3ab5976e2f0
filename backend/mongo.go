package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Seann-Moser/reportgate/session"
)

var _ Client = &MongoDirectory{}

// MongoDirectory is a MongoDB-backed Client for instance-local deployments:
// the gate reads users, projects, plugins, and integrations straight from the
// platform database instead of going through the REST API. It also exposes
// the write operations the platform needs to maintain that data.
type MongoDirectory struct {
	db               *mongo.Database
	usersColl        *mongo.Collection
	tokensColl       *mongo.Collection
	projectsColl     *mongo.Collection
	pluginsColl      *mongo.Collection
	integrationsColl *mongo.Collection
	appInfoColl      *mongo.Collection

	token string
}

// NewMongoDirectory creates a new MongoDirectory. Expects a connected
// mongo.Database.
func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{
		db:               db,
		usersColl:        db.Collection("users"),
		tokensColl:       db.Collection("user_tokens"),
		projectsColl:     db.Collection("projects"),
		pluginsColl:      db.Collection("plugins"),
		integrationsColl: db.Collection("integrations"),
		appInfoColl:      db.Collection("app_info"),
	}
}

// WithToken returns a directory view authenticated as the holder of the given
// token. The receiving directory is not modified.
func (d *MongoDirectory) WithToken(token string) *MongoDirectory {
	view := *d
	view.token = token
	return &view
}

// ForSession returns a Client whose current-user lookups authenticate with
// the session's token at call time.
func (d *MongoDirectory) ForSession(s *session.Session) Client {
	return sessionDirectory{dir: d, session: s}
}

type sessionDirectory struct {
	dir     *MongoDirectory
	session *session.Session
}

func (c sessionDirectory) FetchAppInfo(ctx context.Context) (*AppInfo, error) {
	return c.dir.FetchAppInfo(ctx)
}

func (c sessionDirectory) FetchCurrentUser(ctx context.Context) (*session.UserInfo, error) {
	return c.dir.WithToken(c.session.Token()).FetchCurrentUser(ctx)
}

func (c sessionDirectory) FetchProjectByKey(ctx context.Context, key string) (*Project, error) {
	return c.dir.FetchProjectByKey(ctx, key)
}

func (c sessionDirectory) FetchPlugins(ctx context.Context) ([]Plugin, error) {
	return c.dir.FetchPlugins(ctx)
}

func (c sessionDirectory) FetchPublicPlugins(ctx context.Context) ([]Plugin, error) {
	return c.dir.FetchPublicPlugins(ctx)
}

func (c sessionDirectory) FetchGlobalIntegrations(ctx context.Context) ([]Integration, error) {
	return c.dir.FetchGlobalIntegrations(ctx)
}

func (d *MongoDirectory) FetchAppInfo(ctx context.Context) (*AppInfo, error) {
	var info AppInfo
	err := d.appInfoColl.FindOne(ctx, bson.M{}).Decode(&info)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New("app info not configured")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get app info: %w", err)
	}
	return &info, nil
}

func (d *MongoDirectory) FetchCurrentUser(ctx context.Context) (*session.UserInfo, error) {
	if d.token == "" || d.token == session.DefaultToken {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "missing auth token"}
	}
	var record struct {
		UserID string `bson:"user_id"`
	}
	err := d.tokensColl.FindOne(ctx, bson.M{"token": d.token}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "invalid auth token"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	var user session.UserInfo
	err = d.usersColl.FindOne(ctx, bson.M{"id": record.UserID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "user not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", record.UserID, err)
	}
	return &user, nil
}

func (d *MongoDirectory) FetchProjectByKey(ctx context.Context, key string) (*Project, error) {
	var project Project
	err := d.projectsColl.FindOne(ctx, bson.M{"key": key}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", key, err)
	}
	return &project, nil
}

func (d *MongoDirectory) FetchPlugins(ctx context.Context) ([]Plugin, error) {
	return d.findPlugins(ctx, bson.M{})
}

func (d *MongoDirectory) FetchPublicPlugins(ctx context.Context) ([]Plugin, error) {
	return d.findPlugins(ctx, bson.M{"public": true})
}

func (d *MongoDirectory) findPlugins(ctx context.Context, filter bson.M) ([]Plugin, error) {
	cur, err := d.pluginsColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugins: %w", err)
	}
	defer cur.Close(ctx)
	var plugins []Plugin
	if err := cur.All(ctx, &plugins); err != nil {
		return nil, fmt.Errorf("failed to decode plugins: %w", err)
	}
	return plugins, nil
}

func (d *MongoDirectory) FetchGlobalIntegrations(ctx context.Context) ([]Integration, error) {
	cur, err := d.integrationsColl.Find(ctx, bson.M{"enabled": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer cur.Close(ctx)
	var integrations []Integration
	if err := cur.All(ctx, &integrations); err != nil {
		return nil, fmt.Errorf("failed to decode integrations: %w", err)
	}
	return integrations, nil
}

// ----- directory maintenance -----

// UpsertUser stores or replaces a user record, keyed by its ID. A missing ID
// gets generated.
func (d *MongoDirectory) UpsertUser(ctx context.Context, user *session.UserInfo) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := d.usersColl.ReplaceOne(ctx, bson.M{"id": user.ID}, user, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// SaveUserToken binds an auth token to a user so FetchCurrentUser can resolve
// it later.
func (d *MongoDirectory) SaveUserToken(ctx context.Context, token, userID string) error {
	opts := options.Replace().SetUpsert(true)
	doc := bson.M{"token": token, "user_id": userID}
	_, err := d.tokensColl.ReplaceOne(ctx, bson.M{"token": token}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save user token: %w", err)
	}
	return nil
}

// DeleteUserToken revokes an auth token.
func (d *MongoDirectory) DeleteUserToken(ctx context.Context, token string) error {
	_, err := d.tokensColl.DeleteOne(ctx, bson.M{"token": token})
	if err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}
	return nil
}

// AssignProject records a project assignment on a user.
func (d *MongoDirectory) AssignProject(ctx context.Context, userID string, assignment session.ProjectAssignment) error {
	if assignment.ProjectKey == "" {
		return errors.New("assignment is missing a project key")
	}
	update := bson.M{
		"$set": bson.M{"assigned_projects." + assignment.ProjectKey: assignment},
	}
	res, err := d.usersColl.UpdateOne(ctx, bson.M{"id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to assign project: %w", err)
	}
	if res.MatchedCount == 0 {
		return errors.New("user not found")
	}
	return nil
}

// UnassignProject removes a project assignment from a user.
func (d *MongoDirectory) UnassignProject(ctx context.Context, userID, projectKey string) error {
	update := bson.M{
		"$unset": bson.M{"assigned_projects." + projectKey: ""},
	}
	res, err := d.usersColl.UpdateOne(ctx, bson.M{"id": userID}, update)
	if err != nil {
		return fmt.Errorf("failed to unassign project: %w", err)
	}
	if res.MatchedCount == 0 {
		return errors.New("user not found")
	}
	return nil
}

// SaveProject stores or replaces a project record, keyed by its project key.
func (d *MongoDirectory) SaveProject(ctx context.Context, project *Project) error {
	if project.Key == "" {
		return errors.New("project is missing a key")
	}
	opts := options.Replace().SetUpsert(true)
	_, err := d.projectsColl.ReplaceOne(ctx, bson.M{"key": project.Key}, project, opts)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// SavePlugin stores or replaces a plugin record. A missing ID gets generated.
func (d *MongoDirectory) SavePlugin(ctx context.Context, plugin *Plugin) error {
	if plugin.ID == "" {
		plugin.ID = uuid.New().String()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := d.pluginsColl.ReplaceOne(ctx, bson.M{"id": plugin.ID}, plugin, opts)
	if err != nil {
		return fmt.Errorf("failed to save plugin: %w", err)
	}
	return nil
}

// SaveIntegration stores or replaces an integration record. A missing ID gets
// generated.
func (d *MongoDirectory) SaveIntegration(ctx context.Context, integration *Integration) error {
	if integration.ID == "" {
		integration.ID = uuid.New().String()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := d.integrationsColl.ReplaceOne(ctx, bson.M{"id": integration.ID}, integration, opts)
	if err != nil {
		return fmt.Errorf("failed to save integration: %w", err)
	}
	return nil
}

// SetAppInfo stores the singleton app info document.
func (d *MongoDirectory) SetAppInfo(ctx context.Context, info *AppInfo) error {
	opts := options.Replace().SetUpsert(true)
	_, err := d.appInfoColl.ReplaceOne(ctx, bson.M{}, info, opts)
	if err != nil {
		return fmt.Errorf("failed to set app info: %w", err)
	}
	return nil
}
