package protocol

import "fmt"

// ValidationError reports a command submission rejected before persistence.
// It enables typed error discrimination via errors.As.
type ValidationError struct {
	Field string // missing or malformed field name
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command: missing %s", e.Field)
}

// TerminalNotFoundError reports a terminal identity lookup failure.
type TerminalNotFoundError struct {
	IMSI string
}

func (e *TerminalNotFoundError) Error() string {
	return fmt.Sprintf("terminal %s not found", e.IMSI)
}

// NoRouteError reports that no connected terminal could accept a command.
type NoRouteError struct {
	Address string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no terminal can route to %s", e.Address)
}

// TerminalUnreachableError reports a delivery failure to a terminal whose
// connection is gone or rejected the write.
type TerminalUnreachableError struct {
	IMSI   string
	Hash   string
	Reason string
}

func (e *TerminalUnreachableError) Error() string {
	return fmt.Sprintf("terminal %s unreachable (command %s): %s", e.IMSI, e.Hash, e.Reason)
}
