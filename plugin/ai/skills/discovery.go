package skills

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const skillFileName = "SKILL.md"

// Discovery finds installed skills under a list of directories.
type Discovery struct {
	dirs []string
	md   goldmark.Markdown
}

// Option configures a Discovery.
type Option func(*Discovery) error

// WithSkillDirs sets the directories to scan, highest precedence first.
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.dirs = dirs
		return nil
	}
}

// WithDefaultDirs scans the repo-local and user-global skill directories.
func WithDefaultDirs() Option {
	return func(d *Discovery) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		d.dirs = []string{
			filepath.Join(".", ".openclaw", "skills"),
			filepath.Join(home, ".openclaw", "skills"),
		}
		return nil
	}
}

// NewDiscovery creates a skill discovery instance. With no options the default dirs are used.
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{
		md: goldmark.New(goldmark.WithExtensions(meta.Meta)),
	}
	if len(opts) == 0 {
		opts = []Option{WithDefaultDirs()}
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Dirs returns the configured scan directories.
func (d *Discovery) Dirs() []string {
	return d.dirs
}

// Discover returns every valid skill keyed by name. Earlier directories win on name clashes;
// unreadable directories and malformed SKILL.md files are skipped.
func (d *Discovery) Discover() map[string]*Skill {
	found := make(map[string]*Skill)
	for _, dir := range d.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			entryPath := filepath.Join(dir, entry.Name())
			info, err := os.Stat(entryPath)
			if err != nil || !info.IsDir() {
				continue
			}

			skill, err := d.load(filepath.Join(entryPath, skillFileName))
			if err != nil {
				slog.Debug("skipping skill directory", "path", entryPath, "error", err)
				continue
			}
			if _, exists := found[skill.Name]; exists {
				continue
			}
			skill.Directory = entryPath
			found[skill.Name] = skill
		}
	}
	return found
}

// Registry discovers skills and wraps them in a StaticRegistry.
func (d *Discovery) Registry() *StaticRegistry {
	return NewRegistryFromSkills(d.Discover())
}

func (d *Discovery) load(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := d.md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	fm := meta.Get(pctx)
	if fm == nil {
		return nil, errors.New("missing frontmatter")
	}

	name, _ := fm["name"].(string)
	if name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	description, _ := fm["description"].(string)

	return &Skill{
		Name:          name,
		Description:   description,
		RequiredTools: stringList(fm["required_tools"]),
	}, nil
}

// stringList accepts a YAML sequence or a single scalar.
func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := fmt.Sprint(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
