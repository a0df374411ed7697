package routing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
providers:
  siliconflow:
    base_url: https://api.siliconflow.cn/v1
    api_key_env: TEST_ROUTING_KEY
  openai:
    base_url: https://api.openai.com/v1
    api_key_env: TEST_ROUTING_OTHER_KEY
models:
  - id: qwen-72b
    provider: siliconflow
    model_name: Qwen/Qwen2.5-72B-Instruct
  - id: qwen-7b
    provider: siliconflow
    model_name: Qwen/Qwen2.5-7B-Instruct
  - id: gpt
    provider: openai
    model_name: gpt-4o-mini
scenes:
  summary.single: qwen-72b
  rag.rerank: qwen-7b
  rag.answer: gpt
  classify.content_type: missing-model
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func TestRegistry_SceneModelID(t *testing.T) {
	r := NewRegistry(writeConfig(t))

	assert.Equal(t, "qwen-72b", r.SceneModelID("summary.single"))
	assert.Empty(t, r.SceneModelID("report.author"))
}

func TestClientForScene_MissingCredential(t *testing.T) {
	t.Setenv("TEST_ROUTING_KEY", "")
	r := NewRegistry(writeConfig(t))

	_, err := r.ClientForScene("summary.single")
	assert.ErrorIs(t, err, ErrSceneUnavailable)
}

func TestClientForScene_UnmappedScene(t *testing.T) {
	r := NewRegistry(writeConfig(t))

	_, err := r.ClientForScene("report.author")
	assert.ErrorIs(t, err, ErrSceneUnavailable)
}

func TestClientForScene_UnknownModel(t *testing.T) {
	r := NewRegistry(writeConfig(t))

	_, err := r.ClientForScene("classify.content_type")
	assert.ErrorIs(t, err, ErrSceneUnavailable)
}

func TestClientForScene_CachesClient(t *testing.T) {
	t.Setenv("TEST_ROUTING_KEY", "sk-test")
	r := NewRegistry(writeConfig(t))

	first, err := r.ClientForScene("summary.single")
	require.NoError(t, err)
	second, err := r.ClientForScene("summary.single")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "Qwen/Qwen2.5-72B-Instruct", first.Model())
	assert.Equal(t, "siliconflow", first.Provider())
}

func TestClientForScene_SharesConnectionAcrossModels(t *testing.T) {
	t.Setenv("TEST_ROUTING_KEY", "sk-test")
	r := NewRegistry(writeConfig(t))

	big, err := r.ClientForScene("summary.single")
	require.NoError(t, err)
	small, err := r.ClientForScene("rag.rerank")
	require.NoError(t, err)

	// Two models on the same provider endpoint get distinct clients over one
	// shared connection.
	assert.NotSame(t, big, small)
	assert.Len(t, r.connections, 1)
	assert.Len(t, r.clients, 2)
}

func TestNewRegistry_MissingFileDegradesEverything(t *testing.T) {
	r := NewRegistry("/nonexistent/models.yaml")

	_, err := r.ClientForScene("summary.single")
	assert.ErrorIs(t, err, ErrSceneUnavailable)
}
