package routing

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mindreel/backend/internal/infrastructure/clients/llm"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrSceneUnavailable marks a scene whose backend cannot be used, typically
// because the provider credential is not set. Callers must degrade to a
// configured fallback response instead of failing.
var ErrSceneUnavailable = errors.New("scene unavailable")

type providerConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type modelConfig struct {
	ID        string `yaml:"id"`
	Provider  string `yaml:"provider"`
	ModelName string `yaml:"model_name"`
}

type registryFile struct {
	Providers map[string]providerConfig `yaml:"providers"`
	Models    []modelConfig             `yaml:"models"`
	Scenes    map[string]string         `yaml:"scenes"`
}

// Registry maps scenes to concrete chat clients. Configuration is loaded once;
// clients are cached by (provider, base_url, credential env) so scenes sharing
// a backend reuse one connection object.
type Registry struct {
	providers map[string]providerConfig
	models    map[string]modelConfig
	scenes    map[string]string

	mu          sync.RWMutex
	clients     map[string]*llm.Client
	connections map[string]*http.Client
}

// NewRegistry loads the routing registry from path. A missing or empty config
// produces a registry where every scene is unavailable.
func NewRegistry(path string) *Registry {
	r := &Registry{
		providers:   map[string]providerConfig{},
		models:      map[string]modelConfig{},
		scenes:      map[string]string{},
		clients:     map[string]*llm.Client{},
		connections: map[string]*http.Client{},
	}

	if path == "" {
		log.Warn().Msg("model config path not set")
		return r
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("model config not found")
		return r
	}

	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to parse model config")
		return r
	}

	if file.Providers != nil {
		r.providers = file.Providers
	}
	for _, m := range file.Models {
		if m.ID != "" {
			r.models[m.ID] = m
		}
	}
	if file.Scenes != nil {
		r.scenes = file.Scenes
	}
	return r
}

// SceneModelID returns the model id a scene routes to, "" when unmapped.
func (r *Registry) SceneModelID(scene string) string {
	return r.scenes[scene]
}

// ClientForScene resolves a scene to its cached chat client. It returns
// ErrSceneUnavailable when the scene is unmapped, the model or provider is
// unknown, or the provider credential env var is unset.
func (r *Registry) ClientForScene(scene string) (*llm.Client, error) {
	modelID := r.scenes[scene]
	if modelID == "" {
		return nil, fmt.Errorf("%w: no model mapped for scene %s", ErrSceneUnavailable, scene)
	}

	model, ok := r.models[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model id %s", ErrSceneUnavailable, modelID)
	}

	provider, ok := r.providers[model.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %s", ErrSceneUnavailable, model.Provider)
	}

	apiKey := os.Getenv(provider.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: credential %s not set for provider %s",
			ErrSceneUnavailable, provider.APIKeyEnv, model.Provider)
	}

	// Connection objects are shared per provider endpoint; clients wrap a
	// shared connection with the scene's model.
	connKey := model.Provider + "|" + provider.BaseURL + "|" + provider.APIKeyEnv
	cacheKey := connKey + "|" + model.ModelName

	r.mu.RLock()
	client, ok := r.clients[cacheKey]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[cacheKey]; ok {
		return client, nil
	}

	conn, ok := r.connections[connKey]
	if !ok {
		conn = &http.Client{Timeout: 120 * time.Second}
		r.connections[connKey] = conn
	}

	client, err := llm.NewClient(llm.Options{
		BaseURL:    provider.BaseURL,
		APIKey:     apiKey,
		Model:      model.ModelName,
		Provider:   model.Provider,
		HTTPClient: conn,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSceneUnavailable, err)
	}

	r.clients[cacheKey] = client
	return client, nil
}
