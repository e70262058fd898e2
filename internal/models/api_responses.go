package models

// StatusResponse summarizes the monitor state for the admin API.
type StatusResponse struct {
	Watermark     int64     `json:"watermark"`
	IndexKeywords int       `json:"index_keywords"`
	IndexEntries  int       `json:"index_recipient_entries"`
	APITier       string    `json:"api_tier"`
	RecentRuns    []PollRun `json:"recent_runs"`
}

// RefreshResponse is returned after an on-demand index refresh.
type RefreshResponse struct {
	Keywords int `json:"keywords"`
}
