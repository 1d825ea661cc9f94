package entity

// ValidationResult is the structured outcome of a credential probe.
type ValidationResult struct {
	IsValid bool           `json:"is_valid"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
