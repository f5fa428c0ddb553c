package reaper

import "fmt"

// StartupError is returned when a managed resource fails to start.
// The run never begins; nothing has been scanned or removed.
type StartupError struct {
	Resource string
	Err      error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("reaper: start %s: %v", e.Resource, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// ScanError is returned when the metadata scan fails. Removals that were
// already in flight complete and are tallied, but the run as a whole fails
// because an unknown number of candidates was never produced.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("reaper: scan: %v", e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// TeardownError describes a managed resource that failed to stop. It is
// logged, never returned: by teardown time the run's outcome is already
// decided.
type TeardownError struct {
	Resource string
	Err      error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("reaper: stop %s: %v", e.Resource, e.Err)
}

func (e *TeardownError) Unwrap() error {
	return e.Err
}
