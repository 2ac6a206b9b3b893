package ai

// TripResult captures the structured output from the AI model.
type TripResult struct {
	// Pickup is the start address as the user wrote it, without expansion.
	Pickup string `json:"pickup"`

	// Destination is the end address as the user wrote it.
	Destination string `json:"destination"`
}

// Complete reports whether both legs were found.
func (r *TripResult) Complete() bool {
	return r != nil && r.Pickup != "" && r.Destination != ""
}
