package xtb

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when a command is issued without a session.
var ErrNotConnected = errors.New("xtb: not connected")

// CommandError is a command the gateway rejected: invalid session, market
// closed, invalid order parameters. It is an expected condition callers
// branch on, not a transport failure.
type CommandError struct {
	Command     string
	Code        string
	Description string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("xtb: command %s rejected: %s (%s)", e.Command, e.Description, e.Code)
}

// IsCommandError reports whether err is a gateway rejection, unwrapping as
// needed.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}
