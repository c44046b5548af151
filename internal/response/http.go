package response

// APIResponse is the envelope of every successful JSON body.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](message string, data T) *APIResponse[T] {
	return &APIResponse[T]{Success: true, Message: message, Data: data}
}

// ErrorResponse is the body of every failed request. Details lists one entry
// per rejected request field.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func Error(message string, details ...string) *ErrorResponse {
	return &ErrorResponse{Error: message, Details: details}
}
