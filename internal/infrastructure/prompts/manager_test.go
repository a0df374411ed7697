package prompts

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LoadsEmbeddedTemplates(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	for _, key := range []string{
		"video_summary/v1",
		"video_summary/v2",
		"author_report/v1",
		"rag_chat/rerank_v1",
		"rag_chat/answer_v1",
		"common/classify_v1",
	} {
		assert.True(t, m.Has(key), "missing template %s", key)
	}
	assert.False(t, m.Has("video_summary/v99"))
}

func TestManager_RenderSummaryPrompt(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	rendered, err := m.Render("video_summary/v1", map[string]interface{}{
		"text": "这是转写文本",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rendered.System)
	assert.Contains(t, rendered.User, "这是转写文本")
}

func TestManager_RenderUnknownKey(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	_, err = m.Render("nope/v1", nil)
	assert.Error(t, err)
}

func TestManager_SkipsMalformedTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"good/v1.yaml": &fstest.MapFile{Data: []byte("system: s\nuser: \"{{.q}}\"\n")},
		"bad/v1.yaml":  &fstest.MapFile{Data: []byte("system: [broken")},
		"skip/raw.txt": &fstest.MapFile{Data: []byte("not a template")},
	}

	m, err := newManagerFromFS(fsys)
	require.NoError(t, err)

	assert.True(t, m.Has("good/v1"))
	assert.False(t, m.Has("bad/v1"))
	assert.False(t, m.Has("skip/raw"))

	rendered, err := m.Render("good/v1", map[string]interface{}{"q": "问题"})
	require.NoError(t, err)
	assert.Equal(t, "问题", rendered.User)
}
