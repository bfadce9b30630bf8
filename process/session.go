package process

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const maxLineSize = 16 << 20

// Session is a long-running subprocess spoken to one line at a time over
// stdin and stdout. It lives until Close, independent of any request context.
type Session struct {
	binary string
	grace  time.Duration
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *lockedBuffer

	lines chan string
	done  chan struct{}
	// exitCode and waitErr are set before done is closed.
	exitCode int
	waitErr  error

	closeOnce sync.Once
	killed    atomic.Bool
}

// Start launches cmd and returns once the process is running. cmd.Timeout is
// ignored; bound each exchange with the context passed to ReadLine.
func Start(cmd Command) (*Session, error) {
	if cmd.Binary == "" {
		return nil, ErrBinaryRequired
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // helper scripts take dynamic args
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdin pipe: %w", err)
	}
	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("process: stdout pipe: %w", err)
	}
	s := &Session{
		binary:   cmd.Binary,
		grace:    cmd.GracePeriod,
		cmd:      c,
		stdin:    stdin,
		stderr:   &lockedBuffer{},
		lines:    make(chan string, 16),
		done:     make(chan struct{}),
		exitCode: -1,
	}
	if s.grace == 0 {
		s.grace = 5 * time.Second
	}
	c.Stderr = s.stderr

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}
	go s.pump(stdout)
	return s, nil
}

// pump forwards stdout lines until EOF, then reaps the process.
func (s *Session) pump(stdout io.Reader) {
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64<<10), maxLineSize)
	for sc.Scan() {
		s.lines <- sc.Text()
	}
	close(s.lines)

	s.waitErr = s.cmd.Wait()
	if s.cmd.ProcessState != nil {
		s.exitCode = s.cmd.ProcessState.ExitCode()
	}
	close(s.done)
}

// WriteLine sends line followed by a newline to the process's stdin.
func (s *Session) WriteLine(line string) error {
	if _, err := io.WriteString(s.stdin, line+"\n"); err != nil {
		return fmt.Errorf("process: write to %s: %w", s.binary, err)
	}
	return nil
}

// ReadLine returns the next stdout line. When the process has exited it
// returns an *ExitError carrying the exit code and stderr tail.
func (s *Session) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-s.lines:
		if ok {
			return line, nil
		}
		<-s.done
		return "", s.exitError()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) exitError() *ExitError {
	err := s.waitErr
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return &ExitError{
		Binary:   s.binary,
		ExitCode: s.exitCode,
		Stderr:   tail(s.stderr.String(), stderrTailLines),
		Killed:   s.killed.Load(),
		Err:      err,
	}
}

// Close ends the session: stdin is closed so the process can exit on its
// own, then SIGTERM and finally SIGKILL are sent to its process group.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stdin.Close()
		if s.wait(s.grace) {
			return
		}
		s.killed.Store(true)
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGTERM)
		if s.wait(s.grace) {
			return
		}
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGKILL)
		s.wait(s.grace)
	})
	return nil
}

// Kill ends the process group immediately.
func (s *Session) Kill() error {
	s.closeOnce.Do(func() {
		_ = s.stdin.Close()
		s.killed.Store(true)
		_ = syscall.Kill(-s.cmd.Process.Pid, syscall.SIGKILL)
		s.wait(s.grace)
	})
	return nil
}

// wait drains stdout so the process is never blocked writing, and reports
// whether it exited within d.
func (s *Session) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	lines := s.lines
	for {
		select {
		case <-s.done:
			return true
		case _, ok := <-lines:
			if !ok {
				lines = nil
			}
		case <-timer.C:
			return false
		}
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
