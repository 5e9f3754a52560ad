package queue

import "errors"

var (
	// ErrJobNotFound is returned when the server has no job for a jid.
	ErrJobNotFound = errors.New("reqless: job not found")

	// ErrInvalidArgument is returned before a command is sent when an
	// argument is malformed.
	ErrInvalidArgument = errors.New("reqless: invalid argument")

	// ErrUnexpectedReply is returned when the executor reply is not the
	// scalar type a command produces.
	ErrUnexpectedReply = errors.New("reqless: unexpected reply")

	// ErrNoHandler is recorded as the failure of a job whose class has no
	// registered handler.
	ErrNoHandler = errors.New("reqless: no handler registered")
)
