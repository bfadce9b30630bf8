// Package process runs inference helper subprocesses.
//
// Run executes a Command with an optional timeout and graceful termination:
// on cancellation the whole process group receives SIGTERM and, after the
// grace period, SIGKILL. Failures come back as *ExitError carrying the exit
// code and the tail of stderr, which is usually where a Python traceback
// ends up.
//
// WriteScript materializes an embedded helper script on disk so it can be
// passed to an interpreter.
package process
