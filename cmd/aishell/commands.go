package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"aishell/internal/auth"
	"aishell/internal/logger"
	"aishell/internal/tools"
	"aishell/internal/version"
	"aishell/pkg/shelltypes"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	showSkill       bool
	skillWidth      int
	detailedVersion bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with the configured strategy",
	Long: `Run one startup authentication attempt using --auth-type.
With --silent-auth, a login that needs user interaction is reported instead of prompting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		outcome := authenticate(cmd, a)
		if outcome.Kind == auth.OutcomeFailed {
			return fmt.Errorf("authentication failed")
		}
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the remote settings of the current cloud project",
	Long: `Authenticate, then download settings.json from the project's settings bucket.
The project is read from GOOGLE_CLOUD_PROJECT or GOOGLE_CLOUD_PROJECT_ID.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		return showSettings(cmd, a)
	},
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List and activate skills",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discoverable skills",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		manager, err := a.skillsService()
		if err != nil {
			return err
		}
		found, err := manager.ListSkills(cmd.Context())
		if err != nil {
			return err
		}
		if len(found) == 0 {
			cmd.Println(faintStyle.Render(fmt.Sprintf("No skills found in %v", manager.Dirs())))
			return nil
		}
		for _, s := range found {
			cmd.Printf("%s  %s\n", nameStyle.Render(s.Name), s.Description)
			cmd.Println(faintStyle.Render("  " + s.Location))
		}
		return nil
	},
}

var skillsActivateCmd = &cobra.Command{
	Use:   "activate <name>",
	Short: "Activate a skill for the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		inv, err := a.tool.Build(tools.ActivateSkillParams{Name: args[0]})
		if err != nil {
			return err
		}
		result, err := inv.Execute(cmd.Context())
		if err != nil {
			return err
		}

		if !a.session.IsSkillActive(args[0]) {
			cmd.Println(errorStyle.Render(result.ReturnDisplay))
			logger.Debug("Activation result", "content", result.LLMContent)
			return fmt.Errorf("skill %q was not activated", args[0])
		}

		cmd.Println(nameStyle.Render(result.ReturnDisplay))
		if showSkill {
			return renderSkill(cmd, a, result.LLMContent)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if detailedVersion {
			cmd.Println(version.GetDetailedVersion())
			return
		}
		cmd.Println(version.GetFormattedVersion())
	},
}

func init() {
	skillsActivateCmd.Flags().BoolVar(&showSkill, "show", false, "Render the activated skill instructions")
	skillsActivateCmd.Flags().IntVar(&skillWidth, "width", 0, "Wrap rendered instructions at this column [default: 80]")
	versionCmd.Flags().BoolVar(&detailedVersion, "detailed", false, "Show detailed build information")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsActivateCmd)
}

// authenticate runs the startup authentication and reports the outcome.
func authenticate(cmd *cobra.Command, a *app) auth.Outcome {
	outcome := auth.PerformInitialAuth(cmd.Context(), a.session, cfg.AuthType, auth.Options{SilentOnly: cfg.SilentAuth})

	switch outcome.Kind {
	case auth.OutcomeSuccess:
		if cfg.AuthType == "" {
			logger.Debug("No authentication strategy configured")
		} else {
			logger.Info("Authenticated", "auth_type", cfg.AuthType)
		}
	case auth.OutcomeInteractionRequired:
		cmd.PrintErrln(errorStyle.Render("Interactive login required. Run without --silent-auth to sign in."))
	case auth.OutcomeCancelled:
		logger.Debug("Authentication cancelled")
	case auth.OutcomeFailed:
		cmd.PrintErrln(errorStyle.Render(outcome.Message))
	}
	return outcome
}

// showSettings prints the remote settings document of the current project.
// Remote settings are only reachable with an OAuth-based strategy.
func showSettings(cmd *cobra.Command, a *app) error {
	if !cfg.AuthType.UsesOAuth() {
		cmd.Println(faintStyle.Render(fmt.Sprintf(
			"Remote settings require an OAuth-based auth type (%s, %s or %s); current auth type is %q.",
			shelltypes.AuthTypeLoginWithGoogle, shelltypes.AuthTypeCloudShell, shelltypes.AuthTypeComputeADC, cfg.AuthType)))
		return nil
	}

	svc, err := a.settingsService()
	if err != nil {
		return err
	}
	if outcome := authenticate(cmd, a); outcome.Kind != auth.OutcomeSuccess {
		return fmt.Errorf("cannot load settings without authentication")
	}

	doc := svc.LoadSettings(cmd.Context(), a.session, cfg.AuthType)
	if doc == nil {
		cmd.Println(faintStyle.Render("No remote settings found."))
		return nil
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format settings: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

// renderSkill prints activated skill content through the markdown service.
func renderSkill(cmd *cobra.Command, a *app, content string) error {
	md, err := a.markdownService()
	if err != nil {
		return err
	}
	if skillWidth > 0 {
		if err := md.SetWordWrap(skillWidth); err != nil {
			return err
		}
	}
	rendered, err := md.Render(content)
	if err != nil {
		return err
	}
	cmd.Print(rendered)
	return nil
}
