package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/audioreport/process"
)

func TestSessionLineExchange(t *testing.T) {
	s, err := process.Start(process.Command{Binary: "cat"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for _, msg := range []string{"first", "second"} {
		if err := s.WriteLine(msg); err != nil {
			t.Fatal(err)
		}
		got, err := s.ReadLine(ctx)
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if got != msg {
			t.Errorf("expected %q, got %q", msg, got)
		}
	}
}

func TestSessionExitReportsStderr(t *testing.T) {
	s, err := process.Start(process.Command{Binary: "sh", Args: []string{"-c", "echo boom >&2; exit 2"}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Close()

	_, err = s.ReadLine(context.Background())
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.ExitCode != 2 || !strings.Contains(exitErr.Stderr, "boom") {
		t.Errorf("unexpected exit error %+v", exitErr)
	}
}

func TestSessionReadLineHonoursContext(t *testing.T) {
	s, err := process.Start(process.Command{Binary: "sleep", Args: []string{"5"}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Kill()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.ReadLine(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestSessionCloseEndsProcess(t *testing.T) {
	s, err := process.Start(process.Command{Binary: "sleep", Args: []string{"30"}, GracePeriod: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Close took %v", time.Since(start))
	}
	if _, err := s.ReadLine(context.Background()); err == nil {
		t.Error("expected an error reading from a closed session")
	}
}

func TestStartRequiresBinary(t *testing.T) {
	if _, err := process.Start(process.Command{}); !errors.Is(err, process.ErrBinaryRequired) {
		t.Errorf("expected ErrBinaryRequired, got %v", err)
	}
}
