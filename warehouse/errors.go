package warehouse

import (
	"errors"
	"fmt"
)

// ErrEmptyScope means no entity scope could be resolved for the query; a
// query is never issued against an unbounded scope.
var ErrEmptyScope = errors.New("no entities in resolved scope")

// AuthError reports a failed token exchange with the OAuth endpoint.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.Status, e.Body)
}

// RequestError reports a non-success response from the warehouse query API.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("warehouse returned %d: %s", e.Status, e.Body)
}
