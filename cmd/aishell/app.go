package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/term"

	"aishell/internal/auth"
	"aishell/internal/config"
	"aishell/internal/logger"
	"aishell/internal/services"
	"aishell/internal/session"
	"aishell/internal/settings"
	"aishell/internal/skills"
	"aishell/internal/tools"
	"aishell/pkg/shelltypes"
)

// OAuth client registration for login with Google.
const (
	envOAuthClientID     = "AISHELL_OAUTH_CLIENT_ID"
	envOAuthClientSecret = "AISHELL_OAUTH_CLIENT_SECRET"
	envOAuthRedirectURL  = "AISHELL_OAUTH_REDIRECT_URL"
)

// Registry names of the services commands look up.
const (
	settingsServiceName = "cloud_settings"
	skillsServiceName   = "skills"
	markdownServiceName = "markdown"
)

// app holds the session and the registry shared by every command.
type app struct {
	cfg      *config.Config
	provider *auth.GoogleAuthProvider
	session  *session.Session
	registry *services.Registry
	tool     *tools.ActivateSkillTool
}

// oauthConfigFromEnv builds the login-with-Google client registration. It
// returns nil when no client id is set. The redirect URL has no default: it
// must be one registered for the client, such as a hosted auth-code page.
func oauthConfigFromEnv(getenv func(string) string) (*oauth2.Config, error) {
	clientID := strings.TrimSpace(getenv(envOAuthClientID))
	if clientID == "" {
		return nil, nil
	}
	redirect := strings.TrimSpace(getenv(envOAuthRedirectURL))
	if redirect == "" {
		return nil, fmt.Errorf("%s is set but %s is not; set it to a redirect URL registered for the OAuth client",
			envOAuthClientID, envOAuthRedirectURL)
	}
	return auth.GoogleOAuthConfig(clientID, getenv(envOAuthClientSecret), redirect), nil
}

// newApp wires the services for cfg and initializes them through the registry.
func newApp(cfg *config.Config) (*app, error) {
	providerOpts := []auth.ProviderOption{
		auth.WithCredentialStore(auth.NewCredentialStore(cfg.CredentialsFile)),
	}
	oauthConfig, err := oauthConfigFromEnv(os.Getenv)
	switch {
	case err != nil && cfg.AuthType == shelltypes.AuthTypeLoginWithGoogle:
		return nil, err
	case err != nil:
		logger.Debug("Ignoring incomplete OAuth client configuration", "error", err)
	case oauthConfig != nil:
		providerOpts = append(providerOpts, auth.WithOAuthConfig(oauthConfig))
	}
	if !cfg.SilentAuth && term.IsTerminal(int(os.Stdin.Fd())) {
		providerOpts = append(providerOpts, auth.WithPrompter(&auth.TerminalPrompter{In: os.Stdin, Out: os.Stderr}))
	}
	provider := auth.NewGoogleAuthProvider(providerOpts...)

	sess := session.New(session.WithReauthenticator(provider))
	skillManager := skills.NewManager(cfg.SkillsDirs)

	style := ""
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		style = "notty"
	}

	a := &app{
		cfg:      cfg,
		provider: provider,
		session:  sess,
		registry: services.NewRegistry(),
		tool:     tools.NewActivateSkillTool(skillManager, sess),
	}

	for _, svc := range []shelltypes.Service{
		settings.Default(settings.WithClientProvider(auth.NewOAuthClientProvider(provider))),
		skillManager,
		services.NewMarkdownService(style),
	} {
		if err := a.registry.RegisterService(svc); err != nil {
			return nil, err
		}
	}
	if err := a.registry.InitializeAll(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return a, nil
}

func (a *app) settingsService() (*settings.CloudSettingsService, error) {
	return services.GetTypedService[*settings.CloudSettingsService](a.registry, settingsServiceName)
}

func (a *app) skillsService() (*skills.Manager, error) {
	return services.GetTypedService[*skills.Manager](a.registry, skillsServiceName)
}

func (a *app) markdownService() (*services.MarkdownService, error) {
	return services.GetTypedService[*services.MarkdownService](a.registry, markdownServiceName)
}
