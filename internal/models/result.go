package models

// RecommendResponse is the response for a recommend request.
type RecommendResponse struct {
	Query         string            `json:"query"`
	K             int               `json:"k"`
	CorpusVersion string            `json:"corpus_version"`
	Results       []*Recommendation `json:"results"`
	Total         int               `json:"total"`
	QueryTime     int64             `json:"query_time_ms"`
}

// TitleMatch is a title search hit used for item selection and "did you mean" suggestions.
type TitleMatch struct {
	Title string  `json:"title"`
	Index int     `json:"index"`
	Score float64 `json:"score,omitempty"`
}
