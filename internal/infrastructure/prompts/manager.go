package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed templates
var templateFS embed.FS

//go:embed profiles.yaml
var defaultProfiles []byte

type templateFile struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type promptTemplate struct {
	system *template.Template
	user   *template.Template
}

// Rendered carries the rendered system and user prompts for one call.
type Rendered struct {
	System string
	User   string
}

// Manager holds parsed prompt templates keyed by their relative path without
// extension, e.g. "video_summary/v1".
type Manager struct {
	templates map[string]promptTemplate
}

// NewManager loads the embedded template set.
func NewManager() (*Manager, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	return newManagerFromFS(sub)
}

func newManagerFromFS(fsys fs.FS) (*Manager, error) {
	m := &Manager{templates: map[string]promptTemplate{}}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		var file templateFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			log.Error().Err(err).Str("template", p).Msg("failed to parse prompt template")
			return nil
		}

		key := strings.TrimSuffix(p, ext)
		systemTmpl, err := template.New(key + ":system").Parse(file.System)
		if err != nil {
			log.Error().Err(err).Str("template", p).Msg("invalid system template")
			return nil
		}
		userTmpl, err := template.New(key + ":user").Parse(file.User)
		if err != nil {
			log.Error().Err(err).Str("template", p).Msg("invalid user template")
			return nil
		}

		m.templates[key] = promptTemplate{system: systemTmpl, user: userTmpl}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Has reports whether a template key is loaded.
func (m *Manager) Has(key string) bool {
	_, ok := m.templates[key]
	return ok
}

// Render renders the system and user prompts for a template key.
func (m *Manager) Render(key string, data map[string]interface{}) (*Rendered, error) {
	tmpl, ok := m.templates[key]
	if !ok {
		return nil, fmt.Errorf("prompt template not found: %s", key)
	}

	var system, user bytes.Buffer
	if err := tmpl.system.Execute(&system, data); err != nil {
		return nil, fmt.Errorf("failed to render system prompt %s: %w", key, err)
	}
	if err := tmpl.user.Execute(&user, data); err != nil {
		return nil, fmt.Errorf("failed to render user prompt %s: %w", key, err)
	}

	return &Rendered{System: system.String(), User: user.String()}, nil
}
