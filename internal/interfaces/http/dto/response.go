package dto

// ErrorResponse is the body of every failed request.
// "error" and "message" carry the same text.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error body
func NewErrorResponse(code, message, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     message,
		Message:   message,
		Code:      NormalizeErrorCode(code),
		RequestID: requestID,
	}
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
