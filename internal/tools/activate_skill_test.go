package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"aishell/pkg/shelltypes"
)

const testSkillLocation = "/path/to/test-skill/SKILL.md"

type fakeDiscovery struct {
	skills      []shelltypes.Skill
	listErr     error
	content     *shelltypes.Skill
	contentErr  error
	listCalls   int
	contentLocs []string
}

func (f *fakeDiscovery) ListSkills(_ context.Context) ([]shelltypes.Skill, error) {
	f.listCalls++
	return f.skills, f.listErr
}

func (f *fakeDiscovery) GetSkillContent(_ context.Context, location string) (*shelltypes.Skill, error) {
	f.contentLocs = append(f.contentLocs, location)
	return f.content, f.contentErr
}

type fakeActivator struct {
	activated []string
}

func (f *fakeActivator) ActivateSkill(name string) {
	f.activated = append(f.activated, name)
}

func newTestTool() (*ActivateSkillTool, *fakeDiscovery, *fakeActivator) {
	discovery := &fakeDiscovery{
		skills: []shelltypes.Skill{
			{Name: "test-skill", Description: "A test skill", Location: testSkillLocation},
		},
		content: &shelltypes.Skill{
			Name:        "test-skill",
			Description: "A test skill",
			Location:    testSkillLocation,
			Body:        "Skill instructions content.",
		},
	}
	activator := &fakeActivator{}
	tool := NewActivateSkillTool(discovery, activator, WithLogger(log.NewWithOptions(&bytes.Buffer{}, log.Options{})))
	return tool, discovery, activator
}

func TestExecute_ActivatesKnownSkill(t *testing.T) {
	tool, discovery, activator := newTestTool()

	inv, err := tool.Build(ActivateSkillParams{Name: "test-skill"})
	require.NoError(t, err)
	result, err := inv.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"test-skill"}, activator.activated)
	assert.Equal(t, []string{testSkillLocation}, discovery.contentLocs)
	assert.Contains(t, result.LLMContent, `Skill "test-skill" activated successfully`)
	assert.Contains(t, result.LLMContent, "Skill instructions content.")
	assert.Contains(t, result.LLMContent, "<ACTIVATED_SKILL")
	assert.Equal(t, `Skill "test-skill" activated.`, result.ReturnDisplay)
}

func TestExecute_UnknownSkill(t *testing.T) {
	tool, discovery, activator := newTestTool()

	inv, err := tool.Build(ActivateSkillParams{Name: "non-existent"})
	require.NoError(t, err)
	result, err := inv.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.LLMContent, `Error: Skill "non-existent" not found`)
	assert.Contains(t, result.LLMContent, "test-skill")
	assert.Equal(t, `Skill "non-existent" not found.`, result.ReturnDisplay)
	assert.Empty(t, activator.activated)
	assert.Empty(t, discovery.contentLocs)
}

func TestExecute_NameMatchIsExact(t *testing.T) {
	tool, _, activator := newTestTool()

	inv, err := tool.Build(ActivateSkillParams{Name: "Test-Skill"})
	require.NoError(t, err)
	result, err := inv.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `Skill "Test-Skill" not found.`, result.ReturnDisplay)
	assert.Empty(t, activator.activated)
}

func TestExecute_UnreadableContent(t *testing.T) {
	tests := []struct {
		name       string
		contentErr error
	}{
		{name: "nil content"},
		{name: "load error", contentErr: errors.New("permission denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, discovery, activator := newTestTool()
			discovery.content = nil
			discovery.contentErr = tt.contentErr

			inv, err := tool.Build(ActivateSkillParams{Name: "test-skill"})
			require.NoError(t, err)
			result, err := inv.Execute(context.Background())
			require.NoError(t, err)

			assert.Contains(t, result.LLMContent, `Error: Could not read content for skill "test-skill"`)
			assert.Equal(t, `Could not read content for skill "test-skill".`, result.ReturnDisplay)
			assert.Empty(t, activator.activated)
		})
	}
}

func TestExecute_DiscoveryError(t *testing.T) {
	tool, discovery, activator := newTestTool()
	discovery.skills = nil
	discovery.listErr = errors.New("disk unavailable")

	inv, err := tool.Build(ActivateSkillParams{Name: "test-skill"})
	require.NoError(t, err)
	result, err := inv.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `Skill "test-skill" not found.`, result.ReturnDisplay)
	assert.Contains(t, result.LLMContent, "Available skills: none")
	assert.Empty(t, activator.activated)
}

func TestExecute_Cancelled(t *testing.T) {
	tool, discovery, activator := newTestTool()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv, err := tool.Build(ActivateSkillParams{Name: "test-skill"})
	require.NoError(t, err)
	_, err = inv.Execute(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, discovery.contentLocs)
	assert.Empty(t, activator.activated)
}

func TestBuild_RejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		tool, discovery, activator := newTestTool()

		inv, err := tool.Build(ActivateSkillParams{Name: name})

		assert.Nil(t, inv)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "name", vErr.Param)
		assert.EqualError(t, err, "The 'name' parameter must be non-empty")
		assert.Equal(t, 0, discovery.listCalls)
		assert.Empty(t, activator.activated)
	}
}

func TestBuildJSON(t *testing.T) {
	tool, _, _ := newTestTool()

	inv, err := tool.BuildJSON(json.RawMessage(`{"name":"test-skill"}`))
	require.NoError(t, err)
	assert.Equal(t, "test-skill", inv.SkillName())

	_, err = tool.BuildJSON(json.RawMessage(`{"name":""}`))
	assert.EqualError(t, err, "The 'name' parameter must be non-empty")

	_, err = tool.BuildJSON(json.RawMessage(`not json`))
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestDeclaration(t *testing.T) {
	tool, _, _ := newTestTool()

	decl := tool.Declaration(context.Background())

	assert.Equal(t, ActivateSkillToolName, decl.Name)
	assert.Contains(t, decl.Description, "test-skill: A test skill")
	require.NotNil(t, decl.Parameters)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Equal(t, []string{"name"}, decl.Parameters.Required)
	require.Contains(t, decl.Parameters.Properties, "name")
	assert.Equal(t, genai.TypeString, decl.Parameters.Properties["name"].Type)
}

func TestDescription_NoSkills(t *testing.T) {
	tool, discovery, _ := newTestTool()
	discovery.skills = nil

	assert.Contains(t, tool.Description(context.Background()), "No skills are currently available.")
}
