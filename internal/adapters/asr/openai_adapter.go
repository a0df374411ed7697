package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/pkg/config"
)

// OpenAIAdapter implements SpeechRecognizer against an OpenAI-compatible
// transcription endpoint. The verbose_json response format is requested so
// timestamped segments come back when the backend supports them.
type OpenAIAdapter struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Ensure OpenAIAdapter implements SpeechRecognizer
var _ providers.SpeechRecognizer = (*OpenAIAdapter)(nil)

// NewOpenAIAdapter creates a speech recognition adapter
func NewOpenAIAdapter(cfg *config.ASRConfig) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("asr api key is required")
	}

	return &OpenAIAdapter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads a local audio file and returns the recognized text with
// timestamped segments when available
func (a *OpenAIAdapter) Transcribe(ctx context.Context, localPath string) (*providers.Transcription, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if err := writer.WriteField("model", a.model); err != nil {
		return nil, err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transcription failed with status %d", resp.StatusCode)
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	result := &providers.Transcription{Text: parsed.Text}
	for _, seg := range parsed.Segments {
		result.Segments = append(result.Segments, providers.TranscriptSegment{
			StartSec: seg.Start,
			EndSec:   seg.End,
			Text:     seg.Text,
		})
	}

	return result, nil
}
