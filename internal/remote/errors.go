package remote

import "fmt"

// CallError describes a failed controller API call. Status is set for
// non-2xx responses, Err for transport, timeout and decode failures.
type CallError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
