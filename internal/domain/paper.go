package domain

// Paper is a normalized bibliographic record. The ID is the provider's stable
// external identifier and is the only join key between an inline citation in
// the answer and its source record.
type Paper struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Year         int      `json:"year"`
	Journal      string   `json:"journal,omitempty"`
	URL          string   `json:"url"`
	Abstract     string   `json:"abstract,omitempty"`
	CitedByCount int      `json:"citedByCount"`
}
