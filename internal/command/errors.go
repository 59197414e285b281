package command

import "errors"

var (
	// ErrUnknownCommand is returned when no command is registered under a name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrSignatureMismatch is returned when the arguments do not fit the
	// registered handler. The handler is not invoked.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrParseFailure is returned when a numeric-looking token fails to convert.
	ErrParseFailure = errors.New("parse failure")

	ErrEmptyName        = errors.New("empty command name")
	ErrDuplicateCommand = errors.New("command already registered")
	ErrHandlerPanic     = errors.New("command handler panicked")
)
