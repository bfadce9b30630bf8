package process

import (
	"fmt"
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// StderrTail returns the last n non-empty lines of stderr joined by "; ".
func (r *Result) StderrTail(n int) string {
	if r == nil {
		return ""
	}
	return tail(string(r.Stderr), n)
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "; ")
}

// ExitError reports a subprocess that did not finish cleanly.
type ExitError struct {
	Binary   string
	ExitCode int
	// Stderr is the tail of the process's standard error.
	Stderr string
	// Killed is set when the context ended the process.
	Killed bool
	Err    error
}

func (e *ExitError) Error() string {
	switch {
	case e.Killed:
		return fmt.Sprintf("process %s: killed: %v", e.Binary, e.Err)
	case e.Stderr != "":
		return fmt.Sprintf("process %s: exit code %d: %s", e.Binary, e.ExitCode, e.Stderr)
	default:
		return fmt.Sprintf("process %s: exit code %d: %v", e.Binary, e.ExitCode, e.Err)
	}
}

func (e *ExitError) Unwrap() error { return e.Err }
