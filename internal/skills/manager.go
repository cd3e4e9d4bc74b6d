// Package skills discovers skills stored as markdown files with YAML frontmatter.
//
// Two layouts are recognised inside every skills directory:
//   - <dir>/<skill>/SKILL.md
//   - <dir>/<skill>.md
//
// Directories are searched in order and the first skill with a given name wins.
package skills

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"aishell/internal/logger"
	"aishell/pkg/shelltypes"
)

// skillFileName is the entry file of a directory-layout skill.
const skillFileName = "SKILL.md"

// maxSkillFileSize bounds the size of a skill file (1 MiB).
const maxSkillFileSize = 1 << 20

// Manager implements shelltypes.SkillDiscovery over a list of directories.
type Manager struct {
	dirs        []string
	log         *log.Logger
	initialized bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the component logger.
func WithLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a discovery service over dirs, highest precedence first.
func NewManager(dirs []string, opts ...ManagerOption) *Manager {
	m := &Manager{dirs: append([]string(nil), dirs...)}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.NewStyledLogger("Skills")
	}
	return m
}

// Name returns the service name "skills" for registration.
func (m *Manager) Name() string {
	return "skills"
}

// Initialize marks the manager ready.
func (m *Manager) Initialize() error {
	m.initialized = true
	m.log.Debug("Skill manager initialized", "dirs", m.dirs)
	return nil
}

// Dirs returns the searched directories.
func (m *Manager) Dirs() []string {
	return append([]string(nil), m.dirs...)
}

// ListSkills scans every directory and returns the discovered skills sorted by name.
// Bodies are not loaded. Missing directories and malformed files are skipped.
func (m *Manager) ListSkills(ctx context.Context) ([]shelltypes.Skill, error) {
	seen := make(map[string]shelltypes.Skill)

	for _, dir := range m.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, path := range candidateFiles(dir) {
			skill, _, ok := m.readSkill(path)
			if !ok {
				continue
			}
			if existing, dup := seen[skill.Name]; dup {
				m.log.Debug("Skill shadowed", "skill", skill.Name, "winner", existing.Location, "ignored", path)
				continue
			}
			seen[skill.Name] = skill
		}
	}

	result := make([]shelltypes.Skill, 0, len(seen))
	for _, skill := range seen {
		result = append(result, skill)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// GetSkillContent loads the skill at location including its body.
// It returns nil without error when the file cannot be read or parsed.
func (m *Manager) GetSkillContent(ctx context.Context, location string) (*shelltypes.Skill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	skill, body, ok := m.readSkill(location)
	if !ok {
		return nil, nil
	}
	skill.Body = body
	return &skill, nil
}

// readSkill parses the file at path. The name falls back to the directory name
// (SKILL.md layout) or the file stem.
func (m *Manager) readSkill(path string) (shelltypes.Skill, string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		m.log.Debug("Skill file unavailable", "path", path, "error", err)
		return shelltypes.Skill{}, "", false
	}
	if info.Size() > maxSkillFileSize {
		m.log.Warn("Skill file too large", "path", path, "size", info.Size())
		return shelltypes.Skill{}, "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		m.log.Debug("Skill file unreadable", "path", path, "error", err)
		return shelltypes.Skill{}, "", false
	}

	meta, body, err := parseSkillFile(data)
	if err != nil {
		m.log.Debug("Skill file skipped", "path", path, "error", err)
		return shelltypes.Skill{}, "", false
	}

	name := meta.Name
	if name == "" {
		name = defaultName(path)
	}
	return shelltypes.Skill{
		Name:        name,
		Description: meta.Description,
		Location:    path,
	}, body, true
}

// candidateFiles lists skill files in dir in a stable order. Hidden and
// underscore-prefixed entries are ignored.
func candidateFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		if entry.IsDir() {
			candidate := filepath.Join(dir, name, skillFileName)
			if _, err := os.Stat(candidate); err == nil {
				files = append(files, candidate)
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".md") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files
}

func defaultName(path string) string {
	if filepath.Base(path) == skillFileName {
		return filepath.Base(filepath.Dir(path))
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
