package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPaginationRunaway is returned when a paged collection does not end within MaxPages.
	ErrPaginationRunaway = errors.New("pagination did not terminate")
	// ErrUnexpectedShape is returned when a response lacks the items or total of the query.
	ErrUnexpectedShape = errors.New("unexpected response shape")
)

// StatusError is a non-success response of the remote API.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of the response.
func (e *StatusError) StatusCode() int { return e.Status }

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// FetchError reports that the collection of a module could not be retrieved.
type FetchError struct {
	Path string
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("fetch %s page %d: %v", e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DetailFetchError reports that the detail record of one object could not be retrieved.
type DetailFetchError struct {
	ID   string
	Path string
	Err  error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("fetch detail %s (%s): %v", e.ID, e.Path, e.Err)
}

func (e *DetailFetchError) Unwrap() error { return e.Err }

// transient reports whether a failed request is worth retrying.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	status := StatusOf(err)
	switch {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	default:
		return status >= 500
	}
}
