package dto

import "time"

// ErrorResponse is the JSON body of every non-2xx API reply.
type ErrorResponse struct {
	Message      string    `json:"message"`
	ErrorDetails string    `json:"error,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewErrorResponse builds an ErrorResponse; err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	e := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		e.ErrorDetails = err.Error()
	}
	return e
}

// WithKind tags the response with a machine-readable error kind.
func (e ErrorResponse) WithKind(kind string) ErrorResponse {
	e.Kind = kind
	return e
}

func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
