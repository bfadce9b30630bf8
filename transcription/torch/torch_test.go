package torch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/kbukum/audioreport/errors"
	"github.com/kbukum/audioreport/transcription"
)

// fakePython writes an executable shell script standing in for the
// interpreter. It records its arguments to args.txt next to itself.
func fakePython(t *testing.T, body string) (bin, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	bin = filepath.Join(dir, "python")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\n" + body + "\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, argsFile
}

func newTestBackend(t *testing.T, body string) (*Backend, string) {
	bin, argsFile := fakePython(t, body)
	return NewBackend(Config{Python: bin, ScriptDir: t.TempDir(), Timeout: 5 * time.Second}), argsFile
}

func TestExecute_ParsesOutput(t *testing.T) {
	b, argsFile := newTestBackend(t, `echo "Loading model..."; echo '{"text":" hello world","language":"en","segments":[{"start":0,"end":1.5,"text":" hello world"}]}'`)

	resp, err := b.Execute(context.Background(), transcription.Request{
		AudioPath:   "sample.wav",
		Model:       "tiny",
		WeightsPath: "models/whisper_tiny.pth",
		Device:      "cpu",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TextOr("") != " hello world" {
		t.Errorf("unexpected text %q", resp.TextOr(""))
	}
	if resp.Language != "en" || resp.Duration != 1.5 || len(resp.Segments) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--audio sample.wav", "--model tiny", "--device cpu", "--strict false", "--weights models/whisper_tiny.pth"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("expected %q in helper args %q", want, args)
		}
	}
}

func TestExecute_MissingTextField(t *testing.T) {
	b, _ := newTestBackend(t, `echo '{"language":"en","segments":[]}'`)
	resp, err := b.Execute(context.Background(), transcription.Request{AudioPath: "a.wav", Model: "tiny"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != nil {
		t.Errorf("expected nil text, got %q", *resp.Text)
	}
}

func TestExecute_StrictFlag(t *testing.T) {
	b, argsFile := newTestBackend(t, `echo '{"text":""}'`)
	if _, err := b.Execute(context.Background(), transcription.Request{AudioPath: "a.wav", Model: "tiny", Strict: true}); err != nil {
		t.Fatal(err)
	}
	args, _ := os.ReadFile(argsFile)
	if !strings.Contains(string(args), "--strict true") {
		t.Errorf("expected strict flag in %q", args)
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode apperrors.ErrorCode
		wantMsg  string
	}{
		{"load failure", `echo "load tiny: size mismatch" >&2; exit 2`, apperrors.ErrCodeModelLoad, "size mismatch"},
		{"transcribe failure", `echo "transcribe a.wav: unsupported codec" >&2; exit 3`, "", "unsupported codec"},
		{"garbage output", `echo "not json"`, "", "parse helper output"},
		{"empty output", `true`, "", "no output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBackend(t, tt.body)
			_, err := b.Execute(context.Background(), transcription.Request{AudioPath: "a.wav", Model: "tiny"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantCode != "" && !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected code %s, got %v", tt.wantCode, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected %q in %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestExecute_Timeout(t *testing.T) {
	bin, _ := fakePython(t, "sleep 10")
	b := NewBackend(Config{Python: bin, ScriptDir: t.TempDir(), Timeout: 100 * time.Millisecond})

	_, err := b.Execute(context.Background(), transcription.Request{AudioPath: "a.wav", Model: "tiny"})
	if !apperrors.HasCode(err, apperrors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
}

func TestIsAvailable(t *testing.T) {
	b, _ := newTestBackend(t, "true")
	if !b.IsAvailable(context.Background()) {
		t.Error("expected fake interpreter to be available")
	}
	missing := NewBackend(Config{Python: "/nonexistent/python3"})
	if missing.IsAvailable(context.Background()) {
		t.Error("expected missing interpreter to be unavailable")
	}
}

func TestFactory(t *testing.T) {
	b, err := Factory()(map[string]any{"python": "python3.11", "timeout": time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	tb := b.(*Backend)
	if tb.cfg.Python != "python3.11" || tb.cfg.Timeout != time.Minute {
		t.Errorf("unexpected config %+v", tb.cfg)
	}
	if b.Name() != BackendName {
		t.Errorf("expected name %q, got %q", BackendName, b.Name())
	}
}

const serveBody = `echo "Loading weights..."
echo '{"ready":true}'
while read audio; do
  case "$audio" in
    *bad*) echo "{\"error\":\"transcribe $audio: unsupported codec\"}" ;;
    *) echo "{\"text\":\"heard $audio\",\"language\":\"en\"}" ;;
  esac
done`

func TestPreload_SessionTranscribesWithoutReloading(t *testing.T) {
	b, argsFile := newTestBackend(t, serveBody)
	ctx := context.Background()

	sess, err := b.Preload(ctx, transcription.Request{Model: "tiny", WeightsPath: "models/whisper_tiny.pth", Device: "cpu"})
	if err != nil {
		t.Fatalf("Preload: %v", err)
	}
	defer sess.Close()

	args, _ := os.ReadFile(argsFile)
	for _, want := range []string{"--serve", "--model tiny", "--weights models/whisper_tiny.pth"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("expected %q in helper args %q", want, args)
		}
	}
	if strings.Contains(string(args), "--audio") {
		t.Errorf("serve mode must not receive --audio: %q", args)
	}

	for _, audio := range []string{"one.wav", "two.wav"} {
		resp, err := b.Execute(ctx, transcription.Request{AudioPath: audio, Model: "tiny", Session: sess})
		if err != nil {
			t.Fatalf("Execute(%s): %v", audio, err)
		}
		if got := resp.TextOr(""); got != "heard "+audio {
			t.Errorf("text = %q", got)
		}
	}

	_, err = b.Execute(ctx, transcription.Request{AudioPath: "bad.wav", Model: "tiny", Session: sess})
	if err == nil || !strings.Contains(err.Error(), "unsupported codec") {
		t.Errorf("expected codec error, got %v", err)
	}
	if apperrors.HasCode(err, apperrors.ErrCodeModelLoad) {
		t.Errorf("transcription error must not be a load error: %v", err)
	}
}

func TestPreload_LoadFailure(t *testing.T) {
	b, _ := newTestBackend(t, `sleep 0.2; echo "load tiny: size mismatch" >&2; exit 2`)

	sess, err := b.Preload(context.Background(), transcription.Request{Model: "tiny", WeightsPath: "w.pth"})
	if sess != nil {
		t.Fatal("expected no session")
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeModelLoad) {
		t.Fatalf("expected MODEL_LOAD_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "size mismatch") {
		t.Errorf("expected helper stderr in %v", err)
	}
}

func TestPreload_MissingInterpreter(t *testing.T) {
	b := NewBackend(Config{Python: filepath.Join(t.TempDir(), "no-python"), ScriptDir: t.TempDir()})
	_, err := b.Preload(context.Background(), transcription.Request{Model: "tiny"})
	if !apperrors.HasCode(err, apperrors.ErrCodeModelLoad) {
		t.Fatalf("expected MODEL_LOAD_FAILED, got %v", err)
	}
}

func TestPreload_LoadTimeout(t *testing.T) {
	bin, _ := fakePython(t, `exec sleep 5`)
	b := NewBackend(Config{Python: bin, ScriptDir: t.TempDir(), Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := b.Preload(context.Background(), transcription.Request{Model: "tiny"})
	if !apperrors.HasCode(err, apperrors.ErrCodeModelLoad) {
		t.Fatalf("expected MODEL_LOAD_FAILED, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("Preload took %v after timeout", time.Since(start))
	}
}

func TestSession_HelperExitMidway(t *testing.T) {
	b, _ := newTestBackend(t, `echo '{"ready":true}'; read audio; echo "CUDA out of memory" >&2; exit 1`)
	ctx := context.Background()

	sess, err := b.Preload(ctx, transcription.Request{Model: "tiny"})
	if err != nil {
		t.Fatalf("Preload: %v", err)
	}
	defer sess.Close()

	_, err = b.Execute(ctx, transcription.Request{AudioPath: "a.wav", Model: "tiny", Session: sess})
	if err == nil || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Errorf("expected helper stderr in error, got %v", err)
	}
}

func TestSession_RejectsLineBreaks(t *testing.T) {
	b, _ := newTestBackend(t, serveBody)
	sess, err := b.Preload(context.Background(), transcription.Request{Model: "tiny"})
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	if _, err := b.Execute(context.Background(), transcription.Request{AudioPath: "a.wav\nb.wav", Model: "tiny", Session: sess}); err == nil {
		t.Error("expected error for a path with a line break")
	}
}
