package models

// ErrorCode distinguishes failure classes in API error payloads
type ErrorCode string

const (
	CodeValidation ErrorCode = "validation"
	CodeNotFound   ErrorCode = "not_found"
	CodeInternal   ErrorCode = "internal"
)

// ErrorResponse is the JSON body returned by every failing endpoint
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   ErrorCode         `json:"code"`
	Fields map[string]string `json:"fields,omitempty"` // Per-field messages for validation failures
}

// ImportResult is returned by the bus stop import endpoint
type ImportResult struct {
	Message       string `json:"message"`
	ImportedCount int    `json:"importedCount"`
	SkippedRows   []int  `json:"skippedRows,omitempty"`
}
