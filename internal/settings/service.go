// Package settings retrieves per-project settings documents stored in Google Cloud Storage.
package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"aishell/internal/auth"
	"aishell/internal/config"
	"aishell/internal/logger"
	"aishell/pkg/shelltypes"
)

// Storage location of the settings document.
const (
	storageBaseURL = "https://storage.googleapis.com/storage/v1"
	BucketSuffix   = "-gemini-cli-settings"
	ObjectName     = "settings.json"
)

// Document is a project settings document: an arbitrary JSON object.
type Document map[string]any

// ClientProvider obtains authenticated request clients.
type ClientProvider interface {
	GetClient(ctx context.Context, authType shelltypes.AuthType, sess auth.SessionConfig) (auth.Requester, error)
}

// SettingsURL returns the media download URL of the settings object for project.
func SettingsURL(project string) string {
	bucket := url.PathEscape(project + BucketSuffix)
	return fmt.Sprintf("%s/b/%s/o/%s?alt=media", storageBaseURL, bucket, ObjectName)
}

// CloudSettingsService fetches the settings document of the configured cloud project.
// It keeps no cached settings; every LoadSettings call performs a fresh round trip.
type CloudSettingsService struct {
	clients     ClientProvider
	getenv      func(string) string
	log         *log.Logger
	initialized bool
}

// Option configures a CloudSettingsService.
type Option func(*CloudSettingsService)

// WithClientProvider sets the source of authenticated request clients.
func WithClientProvider(p ClientProvider) Option {
	return func(s *CloudSettingsService) { s.clients = p }
}

// WithGetenv overrides environment lookup.
func WithGetenv(getenv func(string) string) Option {
	return func(s *CloudSettingsService) { s.getenv = getenv }
}

// WithLogger sets the component logger.
func WithLogger(l *log.Logger) Option {
	return func(s *CloudSettingsService) { s.log = l }
}

// NewCloudSettingsService creates a service. Consumers that share one instance
// per process should construct it once and pass the handle around, or use Default.
func NewCloudSettingsService(opts ...Option) *CloudSettingsService {
	s := &CloudSettingsService{getenv: os.Getenv}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewStyledLogger("CloudSettings")
	}
	return s
}

// Name returns the service name "cloud_settings" for registration.
func (s *CloudSettingsService) Name() string {
	return "cloud_settings"
}

// Initialize marks the service ready.
func (s *CloudSettingsService) Initialize() error {
	s.initialized = true
	s.log.Debug("CloudSettingsService initialized", "has_client_provider", s.clients != nil)
	return nil
}

// LoadSettings fetches the settings document for the current project.
// It returns nil when no project is configured, when the document is absent or
// inaccessible, or when the response is not a JSON object. It never fails.
func (s *CloudSettingsService) LoadSettings(ctx context.Context, sess auth.SessionConfig, authType shelltypes.AuthType) Document {
	project := config.ProjectID(s.getenv)
	if project == "" {
		s.log.Debug("No cloud project configured, skipping remote settings")
		return nil
	}
	if s.clients == nil {
		s.log.Debug("No OAuth client provider configured, skipping remote settings", "project", project)
		return nil
	}

	client, err := s.clients.GetClient(ctx, authType, sess)
	if err != nil {
		s.log.Debug("Could not obtain OAuth client for remote settings", "project", project, "error", err)
		return nil
	}

	settingsURL := SettingsURL(project)
	resp, err := client.Request(ctx, auth.RequestOptions{URL: settingsURL, Method: http.MethodGet})
	if err != nil {
		var reqErr *auth.RequestError
		if errors.As(err, &reqErr) && isExpectedAbsence(reqErr) {
			s.log.Debug("No remote settings for project", "project", project, "code", reqErr.Code, "status", reqErr.ResponseStatus)
		} else {
			s.log.Debug("Failed to fetch remote settings", "project", project, "error", err)
		}
		return nil
	}

	if resp.Status != http.StatusOK {
		s.log.Debug("Unexpected status fetching remote settings", "project", project, "status", resp.Status)
		return nil
	}

	doc, ok := resp.Data.(map[string]any)
	if !ok {
		s.log.Error("Failed to parse settings.json: expected a JSON object", "project", project, "type", fmt.Sprintf("%T", resp.Data))
		return nil
	}

	s.log.Debug("Loaded remote settings", "project", project, "keys", len(doc))
	return Document(doc)
}

// isExpectedAbsence reports a denied or missing settings object. A 403 usually
// arrives as a top-level code and a 404 as a response status, but either field
// is accepted for both.
func isExpectedAbsence(err *auth.RequestError) bool {
	return err.HasStatus(http.StatusForbidden) || err.HasStatus(http.StatusNotFound)
}

var (
	defaultMu      sync.Mutex
	defaultService *CloudSettingsService
)

// Default returns the process-wide service, creating it on first use with opts.
// Later calls return the same instance and ignore their options.
func Default(opts ...Option) *CloudSettingsService {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultService == nil {
		defaultService = NewCloudSettingsService(opts...)
	}
	return defaultService
}

// ResetDefault discards the process-wide service so the next Default call creates a new one.
// This is primarily for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultService = nil
}
