package skills

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// parseSkillFile splits a SKILL.md document into its YAML frontmatter and body.
func parseSkillFile(content []byte) (frontmatter, string, error) {
	var meta frontmatter

	trimmed := bytes.TrimLeft(content, " \t\r\n\ufeff")
	if !bytes.HasPrefix(trimmed, []byte("---")) {
		return meta, "", fmt.Errorf("missing frontmatter delimiter")
	}

	lines := strings.Split(string(trimmed), "\n")
	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closing = i
			break
		}
	}
	if closing < 0 {
		return meta, "", fmt.Errorf("missing closing frontmatter delimiter")
	}

	header := strings.Join(lines[1:closing], "\n")
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return meta, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	meta.Name = strings.TrimSpace(meta.Name)
	meta.Description = strings.TrimSpace(meta.Description)

	body := strings.TrimSpace(strings.Join(lines[closing+1:], "\n"))
	return meta, body, nil
}
