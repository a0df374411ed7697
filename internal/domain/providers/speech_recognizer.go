package providers

import (
	"context"
)

// TranscriptSegment is one timestamped span of recognized speech.
type TranscriptSegment struct {
	StartSec float64
	EndSec   float64
	Text     string
}

// Transcription is the result of recognizing one audio file. Segments may be
// empty when the recognizer returns only plain text.
type Transcription struct {
	Text     string
	Segments []TranscriptSegment
}

// SpeechRecognizer transcribes a local audio file to text.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, localPath string) (*Transcription, error)
}
