// Package tools provides the model-callable tools exposed by aishell.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"

	"aishell/internal/logger"
	"aishell/pkg/shelltypes"
)

// ActivateSkillToolName is the function name advertised to the model.
const ActivateSkillToolName = "activate_skill"

// ValidationError reports parameters rejected before a tool invocation is created.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ActivateSkillParams are the arguments of the activate_skill tool.
type ActivateSkillParams struct {
	Name string `json:"name"`
}

// ActivateSkillTool loads a skill's instructions and marks it active for the session.
type ActivateSkillTool struct {
	discovery shelltypes.SkillDiscovery
	activator shelltypes.SkillActivator
	log       *log.Logger
}

// ToolOption configures an ActivateSkillTool.
type ToolOption func(*ActivateSkillTool)

// WithLogger sets the component logger.
func WithLogger(l *log.Logger) ToolOption {
	return func(t *ActivateSkillTool) { t.log = l }
}

// NewActivateSkillTool creates the tool over a discovery service and the session activator.
func NewActivateSkillTool(discovery shelltypes.SkillDiscovery, activator shelltypes.SkillActivator, opts ...ToolOption) *ActivateSkillTool {
	t := &ActivateSkillTool{discovery: discovery, activator: activator}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.NewStyledLogger("ActivateSkill")
	}
	return t
}

// Name returns the tool name.
func (t *ActivateSkillTool) Name() string {
	return ActivateSkillToolName
}

// Description describes the tool, listing the currently discoverable skills.
func (t *ActivateSkillTool) Description(ctx context.Context) string {
	var sb strings.Builder
	sb.WriteString("Activates a specialized skill by name. The skill's instructions are loaded into the conversation and take priority for the rest of the session.")

	skills, err := t.discovery.ListSkills(ctx)
	if err != nil || len(skills) == 0 {
		sb.WriteString(" No skills are currently available.")
		return sb.String()
	}

	sb.WriteString("\n\nAvailable skills:")
	for _, s := range skills {
		if s.Description != "" {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", s.Name, s.Description))
		} else {
			sb.WriteString("\n- " + s.Name)
		}
	}
	return sb.String()
}

// Declaration returns the function-calling schema offered to Gemini models.
func (t *ActivateSkillTool) Declaration(ctx context.Context) *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        ActivateSkillToolName,
		Description: t.Description(ctx),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name": {
					Type:        genai.TypeString,
					Description: "The name of the skill to activate.",
				},
			},
			Required: []string{"name"},
		},
	}
}

// Build validates params and returns an invocation ready to execute.
// It performs no I/O.
func (t *ActivateSkillTool) Build(params ActivateSkillParams) (*ActivateSkillInvocation, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, &ValidationError{Param: "name", Message: "The 'name' parameter must be non-empty"}
	}
	return &ActivateSkillInvocation{tool: t, name: params.Name}, nil
}

// BuildJSON decodes model-provided arguments and builds an invocation.
func (t *ActivateSkillTool) BuildJSON(raw json.RawMessage) (*ActivateSkillInvocation, error) {
	var params ActivateSkillParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &ValidationError{Param: "name", Message: fmt.Sprintf("Invalid parameters: %v", err)}
	}
	return t.Build(params)
}

// ActivateSkillInvocation is a validated activation request.
type ActivateSkillInvocation struct {
	tool *ActivateSkillTool
	name string
}

// SkillName returns the requested skill name.
func (inv *ActivateSkillInvocation) SkillName() string {
	return inv.name
}

// Execute activates the skill. Lookup failures are reported in the result; the
// only error returned is the context's when it is cancelled.
func (inv *ActivateSkillInvocation) Execute(ctx context.Context) (shelltypes.SkillActivationResult, error) {
	t := inv.tool

	skills, err := t.discovery.ListSkills(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return shelltypes.SkillActivationResult{}, ctxErr
	}
	if err != nil {
		t.log.Debug("Skill discovery failed", "skill", inv.name, "error", err)
	}

	var found *shelltypes.Skill
	for i := range skills {
		if skills[i].Name == inv.name {
			found = &skills[i]
			break
		}
	}
	if found == nil {
		t.log.Debug("Skill not found", "skill", inv.name)
		return shelltypes.SkillActivationResult{
			LLMContent:    fmt.Sprintf("Error: Skill %q not found. Available skills: %s", inv.name, availableNames(skills)),
			ReturnDisplay: fmt.Sprintf("Skill %q not found.", inv.name),
		}, nil
	}

	content, err := t.discovery.GetSkillContent(ctx, found.Location)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return shelltypes.SkillActivationResult{}, ctxErr
	}
	if err != nil || content == nil {
		t.log.Debug("Skill content unavailable", "skill", inv.name, "location", found.Location, "error", err)
		return shelltypes.SkillActivationResult{
			LLMContent:    fmt.Sprintf("Error: Could not read content for skill %q at %s.", inv.name, found.Location),
			ReturnDisplay: fmt.Sprintf("Could not read content for skill %q.", inv.name),
		}, nil
	}

	t.activator.ActivateSkill(inv.name)
	t.log.Info("Skill activated", "skill", inv.name)

	return shelltypes.SkillActivationResult{
		LLMContent:    activationMessage(inv.name, found.Location, content.Body),
		ReturnDisplay: fmt.Sprintf("Skill %q activated.", inv.name),
	}, nil
}

func availableNames(skills []shelltypes.Skill) string {
	if len(skills) == 0 {
		return "none"
	}
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

func activationMessage(name, location, body string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Skill %q activated successfully. ", name))
	sb.WriteString("Follow the instructions below; they take priority over general guidance for the rest of the session.\n\n")
	sb.WriteString(fmt.Sprintf("<ACTIVATED_SKILL name=%q location=%q>\n", name, location))
	sb.WriteString(body)
	sb.WriteString("\n</ACTIVATED_SKILL>")
	return sb.String()
}
