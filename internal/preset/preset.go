package preset

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"memchess/internal/session"
)

//go:embed difficulties.yaml
var defaultFiles embed.FS

// Difficulty is one named training preset.
type Difficulty struct {
	Label           string  `yaml:"label"`
	PieceCount      int     `yaml:"piece_count"`
	MemorizeSeconds float64 `yaml:"memorize_seconds"`
}

type catalogFile struct {
	Presets map[string]Difficulty `yaml:"presets"`
}

// Catalog holds difficulty presets loaded from the embedded defaults plus an
// optional override directory (later files win; keys are lowercased).
type Catalog struct {
	presets map[string]Difficulty
}

func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{presets: make(map[string]Difficulty)}

	raw, err := fs.ReadFile(defaultFiles, "difficulties.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded presets: %w", err)
	}
	if err := c.applyYAML(raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read preset dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := c.applyYAML(b); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return nil
}

func (c *Catalog) applyYAML(b []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}
	for name, d := range f.Presets {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if d.PieceCount < 2 || d.PieceCount > 32 {
			return fmt.Errorf("preset %s: piece_count %d out of range", key, d.PieceCount)
		}
		if d.MemorizeSeconds < 1 || d.MemorizeSeconds > 60 {
			return fmt.Errorf("preset %s: memorize_seconds %v out of range", key, d.MemorizeSeconds)
		}
		c.presets[key] = d
	}
	return nil
}

// Config resolves a preset name into a session config.
func (c *Catalog) Config(name string) (session.Config, bool) {
	d, ok := c.presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return session.Config{}, false
	}
	return session.Config{
		PieceCount:      d.PieceCount,
		MemorizeSeconds: d.MemorizeSeconds,
		Difficulty:      d.Label,
	}, true
}

// Names lists preset names sorted by piece count, easiest first.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.presets))
	for n := range c.presets {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := c.presets[names[i]], c.presets[names[j]]
		if a.PieceCount != b.PieceCount {
			return a.PieceCount < b.PieceCount
		}
		return names[i] < names[j]
	})
	return names
}
