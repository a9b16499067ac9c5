package jamf

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned when the token endpoint answers without a token.
var ErrNoToken = errors.New("token response carried no token")

// APIError is a non-success response.
type APIError struct {
	Method  string
	URL     string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, msg)
}

// StatusCode returns the HTTP status of the response.
func (e *APIError) StatusCode() int { return e.Status }
