package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/genai"

	"aishell/internal/config"
	"aishell/internal/logger"
	"aishell/pkg/shelltypes"
)

// Environment variables consulted by the key-based strategies.
const (
	EnvGeminiAPIKey        = "GEMINI_API_KEY"
	EnvGoogleAPIKey        = "GOOGLE_API_KEY"
	EnvGoogleCloudLocation = "GOOGLE_CLOUD_LOCATION"
)

// Scopes requested for OAuth-based strategies.
var Scopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// CodePrompter shows the consent URL and returns the authorization code the user pasted.
type CodePrompter interface {
	PromptCode(ctx context.Context, authURL string) (string, error)
}

// GoogleAuthProvider authenticates against Google for every supported strategy.
// It remembers the token source of the last successful OAuth login so that
// request clients can be built without prompting again.
type GoogleAuthProvider struct {
	oauthConfig *oauth2.Config
	store       *CredentialStore
	prompter    CodePrompter
	getenv      func(string) string
	newClient   func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error)
	findADC     func(ctx context.Context, scopes ...string) (*google.Credentials, error)
	log         *log.Logger

	mu           sync.Mutex
	tokenSources map[shelltypes.AuthType]oauth2.TokenSource
	genaiClient  *genai.Client
}

// ProviderOption configures a GoogleAuthProvider.
type ProviderOption func(*GoogleAuthProvider)

// WithOAuthConfig sets the OAuth client used for login with Google.
func WithOAuthConfig(cfg *oauth2.Config) ProviderOption {
	return func(p *GoogleAuthProvider) { p.oauthConfig = cfg }
}

// WithCredentialStore sets the cache for login-with-Google tokens.
func WithCredentialStore(store *CredentialStore) ProviderOption {
	return func(p *GoogleAuthProvider) { p.store = store }
}

// WithPrompter sets how the authorization code is collected interactively.
func WithPrompter(prompter CodePrompter) ProviderOption {
	return func(p *GoogleAuthProvider) { p.prompter = prompter }
}

// WithGetenv overrides environment lookup.
func WithGetenv(getenv func(string) string) ProviderOption {
	return func(p *GoogleAuthProvider) { p.getenv = getenv }
}

// WithGenAIClientFactory overrides how Gemini clients are created.
func WithGenAIClientFactory(f func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error)) ProviderOption {
	return func(p *GoogleAuthProvider) { p.newClient = f }
}

// WithDefaultCredentialsFinder overrides Application Default Credentials lookup.
func WithDefaultCredentialsFinder(f func(ctx context.Context, scopes ...string) (*google.Credentials, error)) ProviderOption {
	return func(p *GoogleAuthProvider) { p.findADC = f }
}

// WithProviderLogger sets the component logger.
func WithProviderLogger(l *log.Logger) ProviderOption {
	return func(p *GoogleAuthProvider) { p.log = l }
}

// GoogleOAuthConfig returns the installed-application OAuth configuration for login with Google.
func GoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
	}
}

// NewGoogleAuthProvider creates a provider with process defaults.
func NewGoogleAuthProvider(opts ...ProviderOption) *GoogleAuthProvider {
	p := &GoogleAuthProvider{
		getenv:       os.Getenv,
		newClient:    genai.NewClient,
		findADC:      google.FindDefaultCredentials,
		tokenSources: make(map[shelltypes.AuthType]oauth2.TokenSource),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.NewStyledLogger("Auth")
	}
	return p
}

// RefreshAuth performs one authentication attempt for authType.
func (p *GoogleAuthProvider) RefreshAuth(ctx context.Context, authType shelltypes.AuthType, opts shelltypes.RefreshOptions) error {
	p.log.Debug("Refreshing credentials", "auth_type", authType, "silent", opts.SilentOnly)

	switch authType {
	case shelltypes.AuthTypeLoginWithGoogle:
		return p.loginWithGoogle(ctx, opts.SilentOnly)
	case shelltypes.AuthTypeGeminiAPIKey:
		return p.useGeminiAPIKey(ctx)
	case shelltypes.AuthTypeVertexAI:
		return p.useVertexAI(ctx)
	case shelltypes.AuthTypeCloudShell, shelltypes.AuthTypeComputeADC:
		return p.useDefaultCredentials(ctx, authType)
	default:
		return fmt.Errorf("unsupported auth type %q", authType)
	}
}

// TokenSource returns the OAuth token source for authType, silently logging in
// first when no source has been established yet.
func (p *GoogleAuthProvider) TokenSource(ctx context.Context, authType shelltypes.AuthType) (oauth2.TokenSource, error) {
	if !authType.UsesOAuth() {
		return nil, fmt.Errorf("auth type %q does not use OAuth", authType)
	}

	if ts := p.tokenSource(authType); ts != nil {
		return ts, nil
	}
	if err := p.RefreshAuth(ctx, authType, shelltypes.RefreshOptions{SilentOnly: true}); err != nil {
		return nil, err
	}
	if ts := p.tokenSource(authType); ts != nil {
		return ts, nil
	}
	return nil, fmt.Errorf("no token source established for %q", authType)
}

// GenAIClient returns the Gemini client created by the last key-based refresh, if any.
func (p *GoogleAuthProvider) GenAIClient() *genai.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.genaiClient
}

func (p *GoogleAuthProvider) tokenSource(authType shelltypes.AuthType) oauth2.TokenSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenSources[authType]
}

func (p *GoogleAuthProvider) setTokenSource(authType shelltypes.AuthType, ts oauth2.TokenSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenSources[authType] = ts
}

func (p *GoogleAuthProvider) loginWithGoogle(ctx context.Context, silentOnly bool) error {
	if p.oauthConfig == nil {
		return fmt.Errorf("OAuth client is not configured for %s", shelltypes.AuthTypeLoginWithGoogle)
	}

	if ts, ok := p.cachedTokenSource(); ok {
		p.setTokenSource(shelltypes.AuthTypeLoginWithGoogle, ts)
		return nil
	}

	if silentOnly {
		return fmt.Errorf("%w: no usable cached credentials", ErrInteractionRequired)
	}
	if p.prompter == nil {
		return fmt.Errorf("%w: no terminal available for login", ErrInteractionRequired)
	}

	state := uuid.New().String()
	authURL := p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))

	code, err := p.prompter.PromptCode(ctx, authURL)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return &FatalCancellationError{Reason: "login was not completed"}
		}
		return fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return &FatalCancellationError{Reason: "no authorization code entered"}
	}

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if p.store != nil {
		if err := p.store.Save(token); err != nil {
			p.log.Warn("Could not cache credentials", "error", err)
		}
	}
	p.setTokenSource(shelltypes.AuthTypeLoginWithGoogle, p.oauthConfig.TokenSource(context.Background(), token))
	p.log.Debug("Login with Google completed")
	return nil
}

// cachedTokenSource returns a token source for stored credentials that still yields a token.
func (p *GoogleAuthProvider) cachedTokenSource() (oauth2.TokenSource, bool) {
	if p.store == nil {
		return nil, false
	}

	cached, err := p.store.Load()
	if err != nil {
		p.log.Debug("Cached credentials unreadable", "error", err)
		return nil, false
	}
	if cached == nil {
		return nil, false
	}

	ts := p.oauthConfig.TokenSource(context.Background(), cached)
	fresh, err := ts.Token()
	if err != nil {
		p.log.Debug("Cached credentials could not be refreshed", "error", err)
		return nil, false
	}
	if fresh.AccessToken != cached.AccessToken {
		if err := p.store.Save(fresh); err != nil {
			p.log.Warn("Could not cache refreshed credentials", "error", err)
		}
	}
	return oauth2.ReuseTokenSource(fresh, ts), true
}

func (p *GoogleAuthProvider) useGeminiAPIKey(ctx context.Context) error {
	apiKey := strings.TrimSpace(p.getenv(EnvGeminiAPIKey))
	if apiKey == "" {
		return fmt.Errorf("%s environment variable not found", EnvGeminiAPIKey)
	}
	return p.createGenAIClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (p *GoogleAuthProvider) useVertexAI(ctx context.Context) error {
	project := config.ProjectID(p.getenv)
	location := strings.TrimSpace(p.getenv(EnvGoogleCloudLocation))
	apiKey := strings.TrimSpace(p.getenv(EnvGoogleAPIKey))

	switch {
	case apiKey != "":
		return p.createGenAIClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendVertexAI,
		})
	case project != "" && location != "":
		return p.createGenAIClient(ctx, &genai.ClientConfig{
			Project:  project,
			Location: location,
			Backend:  genai.BackendVertexAI,
		})
	default:
		return fmt.Errorf("vertex AI requires %s and %s, or %s",
			config.EnvCloudProject, EnvGoogleCloudLocation, EnvGoogleAPIKey)
	}
}

func (p *GoogleAuthProvider) createGenAIClient(ctx context.Context, cfg *genai.ClientConfig) error {
	client, err := p.newClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p.mu.Lock()
	p.genaiClient = client
	p.mu.Unlock()
	return nil
}

func (p *GoogleAuthProvider) useDefaultCredentials(ctx context.Context, authType shelltypes.AuthType) error {
	creds, err := p.findADC(ctx, Scopes...)
	if err != nil {
		return fmt.Errorf("loading application default credentials: %w", err)
	}
	if _, err := creds.TokenSource.Token(); err != nil {
		return fmt.Errorf("obtaining access token: %w", err)
	}
	p.setTokenSource(authType, creds.TokenSource)
	return nil
}
