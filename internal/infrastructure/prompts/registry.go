package prompts

import (
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// profileEntry is either a bare key string or a mapping with a "key" field.
type profileEntry struct {
	Key string
}

func (e *profileEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Key = value.Value
		return nil
	}
	var obj struct {
		Key string `yaml:"key"`
	}
	if err := value.Decode(&obj); err != nil {
		return err
	}
	e.Key = obj.Key
	return nil
}

type profilesFile struct {
	Profiles struct {
		Common    map[string]profileEntry            `yaml:"common"`
		Overrides map[string]map[string]profileEntry `yaml:"overrides"`
	} `yaml:"profiles"`
}

// Registry resolves (task, content type) pairs to prompt template keys from a
// declarative profiles file. A missing or unreadable file yields an empty
// registry; resolution then returns "" and callers use their own defaults.
type Registry struct {
	common    map[string]profileEntry
	overrides map[string]map[string]profileEntry
}

// NewRegistry loads the profile registry from path. An empty path loads the
// embedded default profiles.
func NewRegistry(path string) *Registry {
	r := &Registry{
		common:    map[string]profileEntry{},
		overrides: map[string]map[string]profileEntry{},
	}

	var raw []byte
	var err error
	if path == "" {
		raw = defaultProfiles
	} else {
		raw, err = os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("prompt profiles not found")
			return r
		}
	}

	var file profilesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to parse prompt profiles")
		return r
	}

	if file.Profiles.Common != nil {
		r.common = file.Profiles.Common
	}
	if file.Profiles.Overrides != nil {
		r.overrides = file.Profiles.Overrides
	}
	return r
}

// GetPromptKey resolves the template key for a task and content type.
//
// With requireOverride the lookup walks overrides[contentType][task], then
// overrides["generic"][task], and returns "" when neither is configured so the
// caller can apply its hard-coded default. Without requireOverride only the
// shared common mapping is consulted.
func (r *Registry) GetPromptKey(taskType, contentType string, requireOverride bool) string {
	if contentType == "" {
		contentType = "generic"
	}

	if requireOverride {
		if block, ok := r.overrides[contentType]; ok {
			if entry, ok := block[taskType]; ok && entry.Key != "" {
				return entry.Key
			}
		}
		if block, ok := r.overrides["generic"]; ok {
			if entry, ok := block[taskType]; ok && entry.Key != "" {
				return entry.Key
			}
		}
		return ""
	}

	if entry, ok := r.common[taskType]; ok {
		return entry.Key
	}
	return ""
}
