package domain

// SearchRequest is the body of the streaming search endpoint.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// FollowUpRequest is the body of the follow-up questions endpoint. AIResponse
// is the completed answer text the questions should build on.
type FollowUpRequest struct {
	Query      string `json:"query" binding:"required"`
	AIResponse string `json:"aiResponse" binding:"required"`
}

// FollowUpResponse carries the generated follow-up questions.
type FollowUpResponse struct {
	Questions []string `json:"questions"`
}

// SuggestResponse carries autocomplete suggestions for a partial query.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}
