package client

import (
	"fmt"
	"net/http"
)

// NetworkError is a transport failure: the request never got a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError means a response arrived but was not what the contract promises.
type ProtocolError struct {
	Op     string
	Status int
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 && e.Status != http.StatusOK {
		return fmt.Sprintf("%s: unexpected response (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// DeleteRejected is returned when the backend answers a delete with a
// non-success status. The link may or may not still exist.
type DeleteRejected struct {
	LinkID string
	Status int
}

func (e *DeleteRejected) Error() string {
	return fmt.Sprintf("delete link %s: rejected with status %d", e.LinkID, e.Status)
}
