package db

import "fmt"

// ConnectionError reports an unreachable server, rejected credentials, or
// a failure to check a session out of the pool. It is never retried here;
// retry policy belongs to the caller.
type ConnectionError struct {
	Addr  string
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// PolicyError reports a statement rejected by the read-only guard before
// it ever reached the server.
type PolicyError struct {
	Statement string
}

func (e *PolicyError) Error() string {
	return "only read-only queries (SELECT, SHOW, DESCRIBE, EXPLAIN) are allowed"
}

// ExecError reports a driver or server-side failure while executing a
// statement that passed the guard.
type ExecError struct {
	Statement string
	Cause     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execute: %v", e.Cause)
}

func (e *ExecError) Unwrap() error { return e.Cause }

// ResourceError reports a timeout or cancellation while fetching a result
// set. The session involved is still returned to the pool.
type ResourceError struct {
	Statement string
	Cause     error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("fetch: %v", e.Cause)
}

func (e *ResourceError) Unwrap() error { return e.Cause }
