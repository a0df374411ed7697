package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistry_EmbeddedDefaults(t *testing.T) {
	r := NewRegistry("")

	assert.Equal(t, "video_summary/v1", r.GetPromptKey("summary.single", "generic", true))
	assert.Equal(t, "video_summary/v2", r.GetPromptKey("summary.single", "mindset", true))
	assert.Equal(t, "common/classify_v1", r.GetPromptKey("classify.content_type", "", false))
}

func TestRegistry_ContentTypeFallsBackToGeneric(t *testing.T) {
	r := NewRegistry("")

	// An unconfigured content type resolves through the generic block.
	assert.Equal(t, "video_summary/v1", r.GetPromptKey("summary.single", "finance", true))
}

func TestRegistry_UnknownTaskReturnsEmpty(t *testing.T) {
	r := NewRegistry("")

	assert.Empty(t, r.GetPromptKey("summary.batch", "generic", true))
	assert.Empty(t, r.GetPromptKey("summary.single", "generic", false))
}

func TestRegistry_MissingFileYieldsEmptyRegistry(t *testing.T) {
	r := NewRegistry("/nonexistent/profiles.yaml")

	assert.Empty(t, r.GetPromptKey("summary.single", "generic", true))
}

func TestRegistry_EntryAsMapping(t *testing.T) {
	path := writeProfiles(t, `
profiles:
  common:
    classify.content_type:
      key: common/classify_v2
      temperature: 0.1
  overrides:
    generic:
      summary.single:
        key: video_summary/v3
`)
	r := NewRegistry(path)

	// Scalar and mapping entry forms are interchangeable.
	assert.Equal(t, "common/classify_v2", r.GetPromptKey("classify.content_type", "", false))
	assert.Equal(t, "video_summary/v3", r.GetPromptKey("summary.single", "generic", true))
}

func TestRegistry_MalformedFileYieldsEmptyRegistry(t *testing.T) {
	path := writeProfiles(t, "profiles: [not, a, mapping")
	r := NewRegistry(path)

	assert.Empty(t, r.GetPromptKey("summary.single", "generic", true))
}
