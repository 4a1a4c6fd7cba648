package bt

import (
	"fmt"
	"strings"
)

// Status is the result vocabulary shared by every node.
type Status uint8

const (
	// StatusInvalid marks a node that has not been started.
	StatusInvalid Status = iota
	StatusRunning
	StatusSuccess
	StatusFailure
	// StatusAborted marks a node cancelled from the outside. It is final.
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "Invalid"
	case StatusRunning:
		return "Running"
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// IsTerminal reports whether s is Success, Failure or Aborted.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusAborted
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses a case-insensitive status name.
func ParseStatus(name string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "invalid":
		return StatusInvalid, nil
	case "running":
		return StatusRunning, nil
	case "success":
		return StatusSuccess, nil
	case "failure":
		return StatusFailure, nil
	case "aborted":
		return StatusAborted, nil
	default:
		return StatusInvalid, fmt.Errorf("unknown status %q", name)
	}
}
