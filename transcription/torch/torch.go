// Package torch runs Whisper checkpoints through a local Python helper
// (openai-whisper on PyTorch).
package torch

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/process"
	"github.com/kbukum/audioreport/provider"
	"github.com/kbukum/audioreport/transcription"
)

//go:embed assets/whisper_runner.py
var runnerScript []byte

const (
	// BackendName is the registered name for the torch backend.
	BackendName = "torch"

	defaultPython  = "python3"
	defaultTimeout = 30 * time.Minute

	scriptName = "whisper_runner.py"

	// Helper exit codes.
	exitLoadFailed       = 2
	exitTranscribeFailed = 3
)

// compile-time assertions
var (
	_ transcription.Backend   = (*Backend)(nil)
	_ transcription.Preloader = (*Backend)(nil)
)

// Config holds configuration for the torch backend.
type Config struct {
	// Python is the interpreter used to run the helper.
	Python string `yaml:"python" mapstructure:"python"`
	// Timeout bounds the model load and each transcription separately.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// ScriptDir is where the helper is written. Defaults to os.TempDir.
	ScriptDir string `yaml:"script_dir" mapstructure:"script_dir"`
	// Env is extra environment passed to the helper (KEY=value).
	Env []string `yaml:"env" mapstructure:"env"`
}

// Backend implements transcription.Backend by shelling out to Python.
type Backend struct {
	cfg Config
}

// NewBackend creates a torch backend.
func NewBackend(cfg Config) *Backend {
	if cfg.Python == "" {
		cfg.Python = defaultPython
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Backend{cfg: cfg}
}

// Factory returns a provider.Factory that creates torch backends from a
// generic config map.
func Factory() provider.Factory[transcription.Backend] {
	return func(cfg map[string]any) (transcription.Backend, error) {
		c := Config{}
		if v, ok := cfg["python"].(string); ok {
			c.Python = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			c.Timeout = v
		}
		if v, ok := cfg["script_dir"].(string); ok {
			c.ScriptDir = v
		}
		if v, ok := cfg["env"].([]string); ok {
			c.Env = v
		}
		return NewBackend(c), nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string { return BackendName }

// IsAvailable reports whether the Python interpreter can be found.
func (b *Backend) IsAvailable(_ context.Context) bool {
	_, err := process.LookPath(b.cfg.Python)
	return err == nil
}

// Preload starts the helper in serve mode and waits until it has built the
// architecture, applied the weights and placed the model on the device. The
// returned session answers Execute calls that carry it.
func (b *Backend) Preload(ctx context.Context, req transcription.Request) (transcription.Session, error) {
	script, err := process.WriteScript(b.cfg.ScriptDir, scriptName, runnerScript)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	proc, err := process.Start(process.Command{
		Binary: b.cfg.Python,
		Args:   append(b.helperArgs(script, req), "--serve"),
		Env:    b.cfg.Env,
	})
	if err != nil {
		return nil, apperrors.ModelLoad(req.Model, err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	msg, err := readMessage(loadCtx, proc)
	if err == nil && !msg.Ready {
		err = errors.New("unexpected helper output before ready")
	}
	if err != nil {
		_ = proc.Kill()
		return nil, loadFailure(req.Model, err)
	}
	return &session{proc: proc, model: req.Model, timeout: b.cfg.Timeout}, nil
}

// Execute transcribes req.AudioPath. With a session from Preload only the
// transcription runs; otherwise the helper loads the model and transcribes
// in one run.
func (b *Backend) Execute(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	if s, ok := req.Session.(*session); ok {
		return s.transcribe(ctx, req.AudioPath)
	}

	script, err := process.WriteScript(b.cfg.ScriptDir, scriptName, runnerScript)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	args := append(b.helperArgs(script, req), "--audio", req.AudioPath)

	result, err := process.Run(ctx, process.Command{
		Binary:  b.cfg.Python,
		Args:    args,
		Env:     b.cfg.Env,
		Timeout: b.cfg.Timeout,
	})
	if err != nil {
		return nil, classify(req, err)
	}
	return parseOutput(result.Stdout)
}

func (b *Backend) helperArgs(script string, req transcription.Request) []string {
	device := req.Device
	if device == "" {
		device = "cpu"
	}
	args := []string{script,
		"--model", req.Model,
		"--device", device,
		"--strict", strconv.FormatBool(req.Strict),
	}
	if req.WeightsPath != "" {
		args = append(args, "--weights", req.WeightsPath)
	}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	return args
}

// loadFailure maps anything that stopped the helper before it was ready.
func loadFailure(model string, err error) error {
	var exitErr *process.ExitError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ModelLoad(model, apperrors.Timeout("torch model load").WithCause(err))
	case errors.As(err, &exitErr) && exitErr.Stderr != "":
		return apperrors.ModelLoad(model, errors.New(exitErr.Stderr))
	default:
		return apperrors.ModelLoad(model, err)
	}
}

func classify(req transcription.Request, err error) error {
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) {
		return apperrors.ServiceUnavailable(BackendName).WithCause(err)
	}
	switch {
	case exitErr.Killed:
		return apperrors.Timeout("torch transcription").WithCause(err)
	case exitErr.ExitCode == exitLoadFailed:
		return apperrors.ModelLoad(req.Model, errors.New(exitErr.Stderr))
	case exitErr.ExitCode == exitTranscribeFailed && exitErr.Stderr != "":
		return errors.New(exitErr.Stderr)
	default:
		return err
	}
}

// session is a helper process in serve mode holding one loaded model.
type session struct {
	mu      sync.Mutex
	proc    *process.Session
	model   string
	timeout time.Duration
}

func (s *session) Close() error { return s.proc.Close() }

// transcribe sends one audio path and waits for its answer. A timed-out
// exchange leaves the helper out of step, so the session is closed.
func (s *session) transcribe(ctx context.Context, audioPath string) (*transcription.Response, error) {
	if strings.ContainsAny(audioPath, "\r\n") {
		return nil, fmt.Errorf("audio path contains a line break: %q", audioPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.proc.WriteLine(audioPath); err != nil {
		return nil, fmt.Errorf("torch helper for %s: %w", s.model, err)
	}
	msg, err := readMessage(ctx, s.proc)
	if err != nil {
		_ = s.proc.Kill()
		if ctx.Err() != nil {
			return nil, apperrors.Timeout("torch transcription").WithCause(err)
		}
		return nil, fmt.Errorf("torch helper for %s: %w", s.model, err)
	}
	if msg.Error != "" {
		return nil, errors.New(msg.Error)
	}
	return msg.toResponse(), nil
}

// readMessage returns the next JSON line from the helper, skipping anything
// else a library printed.
func readMessage(ctx context.Context, proc *process.Session) (*helperOutput, error) {
	for {
		line, err := proc.ReadLine(ctx)
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var out helperOutput
		if err := json.Unmarshal([]byte(line), &out); err != nil {
			return nil, fmt.Errorf("parse helper output: %w", err)
		}
		return &out, nil
	}
}

type helperOutput struct {
	Ready    bool    `json:"ready"`
	Error    string  `json:"error"`
	Text     *string `json:"text"`
	Language string  `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// parseOutput decodes the JSON object on the last non-empty stdout line;
// libraries may print progress above it.
func parseOutput(stdout []byte) (*transcription.Response, error) {
	lines := bytes.Split(bytes.TrimSpace(stdout), []byte("\n"))
	last := lines[len(lines)-1]
	if len(last) == 0 {
		return nil, fmt.Errorf("torch helper produced no output")
	}

	var out helperOutput
	if err := json.Unmarshal(last, &out); err != nil {
		return nil, fmt.Errorf("parse helper output: %w", err)
	}
	return out.toResponse(), nil
}

func (o *helperOutput) toResponse() *transcription.Response {
	segments := make([]transcription.Segment, len(o.Segments))
	for i, seg := range o.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return &transcription.Response{
		Text:     o.Text,
		Segments: segments,
		Duration: transcription.DurationFromSegments(segments),
		Language: o.Language,
	}
}
