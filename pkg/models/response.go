package models

// APIResponse is the envelope on every backend response. Callers must check
// Success before trusting Data.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data}
}

// OKMessage wraps a success with a human-readable message and no data.
func OKMessage(message string) APIResponse {
	return APIResponse{Success: true, Message: message}
}

// Fail wraps a failure message.
func Fail(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}
