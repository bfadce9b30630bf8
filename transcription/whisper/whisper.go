// Package whisper talks to a faster-whisper style HTTP sidecar that loads
// checkpoints and transcribes on its own hardware.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/provider"
	"github.com/kbukum/audioreport/transcription"
	"github.com/kbukum/audioreport/version"
)

const (
	// BackendName is the registered name for the Whisper sidecar backend.
	BackendName = "whisper"

	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperTimeout = 120 * time.Second

	maxErrorBody = 4 << 10
)

// compile-time assertion
var _ transcription.Backend = (*Backend)(nil)

// Config holds configuration for the Whisper sidecar backend.
type Config struct {
	URL         string        `json:"url" yaml:"url" mapstructure:"url"`
	Language    string        `json:"language,omitempty" yaml:"language" mapstructure:"language"`
	ComputeType string        `json:"compute_type,omitempty" yaml:"compute_type" mapstructure:"compute_type"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Backend implements transcription.Backend using a Whisper HTTP sidecar.
type Backend struct {
	cfg    Config
	client *http.Client
}

// NewBackend creates a new Whisper sidecar backend.
func NewBackend(cfg Config) *Backend {
	if cfg.URL == "" {
		cfg.URL = defaultWhisperURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultWhisperTimeout
	}
	return &Backend{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Factory returns a provider.Factory that creates Whisper backends from a
// generic config map.
func Factory() provider.Factory[transcription.Backend] {
	return func(cfg map[string]any) (transcription.Backend, error) {
		wc := Config{}
		if v, ok := cfg["url"].(string); ok {
			wc.URL = v
		}
		if v, ok := cfg["language"].(string); ok {
			wc.Language = v
		}
		if v, ok := cfg["compute_type"].(string); ok {
			wc.ComputeType = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			wc.Timeout = v
		}
		return NewBackend(wc), nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string { return BackendName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (b *Backend) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Execute sends an audio file to the sidecar and returns the transcription.
// The weights file, when set, is uploaded alongside the audio.
func (b *Backend) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	lang := b.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := attachFile(writer, "audio", req.AudioPath); err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	if req.WeightsPath != "" {
		if err := attachFile(writer, "weights", req.WeightsPath); err != nil {
			return nil, apperrors.ModelLoad(req.Model, err)
		}
	}

	_ = writer.WriteField("model", req.Model)
	_ = writer.WriteField("strict", strconv.FormatBool(req.Strict))
	if req.Device != "" {
		_ = writer.WriteField("device", req.Device)
	}
	if b.cfg.ComputeType != "" {
		_ = writer.WriteField("compute_type", b.cfg.ComputeType)
	}
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.URL+"/transcribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Timeout("whisper request").WithCause(err)
		}
		return nil, apperrors.ServiceUnavailable(BackendName).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(req.Model, resp.StatusCode, string(bytes.TrimSpace(body)))
	}

	var result whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}

	return toResponse(&result), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

// statusError maps sidecar status codes: 5xx is retryable, 422 means the
// sidecar could not load the model, anything else is a transcription error.
func statusError(model string, status int, body string) error {
	cause := fmt.Errorf("whisper error (status %d): %s", status, body)
	switch {
	case status >= http.StatusInternalServerError:
		return apperrors.ServiceUnavailable(BackendName).WithCause(cause)
	case status == http.StatusUnprocessableEntity:
		return apperrors.ModelLoad(model, cause)
	default:
		return cause
	}
}

// --- internal Whisper API response types ---

type whisperResponse struct {
	Text     *string          `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toResponse(resp *whisperResponse) *transcription.Response {
	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
	}

	return &transcription.Response{
		Text:     resp.Text,
		Segments: segments,
		Duration: transcription.DurationFromSegments(segments),
		Language: resp.Language,
	}
}
