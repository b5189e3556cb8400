package skills

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// scaffoldFrontmatter is the frontmatter written by Scaffold. Field order
// matters for readability of the generated file, hence an explicit struct
// rather than a map.
type scaffoldFrontmatter struct {
	Name         string   `yaml:"name"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Keywords     []string `yaml:"keywords"`
	Version      string   `yaml:"version"`
	AutoActivate bool     `yaml:"auto_activate"`
}

const scaffoldBody = `# %s

Describe the knowledge this skill provides. The body of this file is what
gets loaded into the caller's context, so keep it focused: reference
material, examples, and instructions the agent can act on.

## Usage notes

- Keep the description and keywords in the frontmatter accurate; they
  drive search ranking.
- Supporting files can live next to SKILL.md but are never loaded
  automatically.
`

// Scaffold creates a starter skill directory under root. It refuses to
// overwrite an existing skill.
func Scaffold(root, name, description string, keywords []string) (string, error) {
	if name == "" {
		return "", errors.New("skill name is required")
	}

	dir := filepath.Join(root, name)
	skillPath := filepath.Join(dir, skillFileName)
	if _, err := os.Stat(skillPath); err == nil {
		return "", errors.Errorf("skill %q already exists at %s", name, skillPath)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create skill directory")
	}

	fm := scaffoldFrontmatter{
		Name:         name,
		Title:        titleFromName(name),
		Description:  description,
		Keywords:     keywords,
		Version:      defaultVersion,
		AutoActivate: true,
	}
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal frontmatter")
	}

	content := fmt.Sprintf("---\n%s---\n\n"+scaffoldBody, fmBytes, fm.Title)
	if err := os.WriteFile(skillPath, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write SKILL.md")
	}

	return skillPath, nil
}
