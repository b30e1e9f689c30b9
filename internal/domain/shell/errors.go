package shell

import (
	"errors"
	"fmt"
)

var (
	ErrMissingOperand     = errors.New("missing operand")
	ErrCommandNotFound    = errors.New("command not found")
	ErrInvalidRedirection = errors.New("invalid redirection syntax")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrSessionOwner       = errors.New("session belongs to another user")
)

// InternalError is the text shown for failures whose detail stays in the logs.
const InternalError = "Internal server error"

// CommandError is a user input error with terminal-ready text.
type CommandError struct {
	Kind    error
	Message string
}

func (e *CommandError) Error() string { return e.Message }

func (e *CommandError) Unwrap() error { return e.Kind }

func missingOperand(cmd string) error {
	return &CommandError{Kind: ErrMissingOperand, Message: cmd + ": missing operand"}
}

func commandNotFound(name string) error {
	return &CommandError{
		Kind:    ErrCommandNotFound,
		Message: fmt.Sprintf("Command not found: %s. Type 'help' for available commands.", name),
	}
}

func syntaxError(token string) error {
	return &CommandError{
		Kind:    ErrInvalidRedirection,
		Message: fmt.Sprintf("syntax error near unexpected token `%s'", token),
	}
}

func ambiguousRedirect(target string) error {
	return &CommandError{
		Kind:    ErrInvalidRedirection,
		Message: fmt.Sprintf("%s: ambiguous redirect", target),
	}
}

func userError(format string, args ...any) error {
	return &CommandError{Message: fmt.Sprintf(format, args...)}
}
