package dbconn

import "fmt"

// MalformedConnectionStringError is returned for connection strings that
// cannot be parsed or classified. They are never repaired.
type MalformedConnectionStringError struct {
	Raw    string
	Reason string
}

func (e *MalformedConnectionStringError) Error() string {
	return fmt.Sprintf("malformed connection string %s: %s", Redact(e.Raw), e.Reason)
}

func malformed(raw, reason string) error {
	return &MalformedConnectionStringError{Raw: raw, Reason: reason}
}

// UnknownTargetError is returned when a symbolic target or saved profile does
// not exist.
type UnknownTargetError struct {
	Name string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown connection target: %s", e.Name)
}
