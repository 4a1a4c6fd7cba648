package bt

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrSharedNode    = errors.New("node already has a parent")
	ErrNotStarted    = errors.New("tree has not been started")
	ErrInvalidPolicy = errors.New("invalid parallel policy")

	// ErrContractViolation is the cause of every panic raised by the scheduler
	// when a node breaks the lifecycle protocol.
	ErrContractViolation = errors.New("behavior contract violation")
)

func violation(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...)))
}
