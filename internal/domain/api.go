package domain

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ClearResponse is returned after clearing completed todos
type ClearResponse struct {
	Removed int `json:"removed"`
}
