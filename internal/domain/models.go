package domain

// VisionModelOption describes one remote vision-language model the
// detection service can run.
type VisionModelOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Selected    bool   `json:"selected"`
}
