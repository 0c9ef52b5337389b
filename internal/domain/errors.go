package domain

import "fmt"

// APIError is returned when a remote service answers with an error instead of data.
// Anything else coming out of an adapter is a transport failure.
type APIError struct {
	Source     string
	StatusCode int // 0 when the error did not come with an HTTP status
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s API error: %s", e.Source, e.Body)
}
