package models

import "time"

// Keyword is a literal phrase watched in the content stream.
type Keyword struct {
	ID        int64     `json:"id"`
	Text      string    `json:"keyword_text"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recipient is an X account that receives direct messages for mapped keywords.
type Recipient struct {
	ID             int64     `json:"id"`
	ExternalUserID int64     `json:"twitter_user_id"`
	ScreenName     string    `json:"twitter_screen_name"`
	Description    string    `json:"description"`
	Active         bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Handle returns the screen name prefixed with @.
func (r *Recipient) Handle() string {
	return "@" + r.ScreenName
}

// Mapping links a keyword to a recipient.
type Mapping struct {
	KeywordID   int64     `json:"keyword_id"`
	RecipientID int64     `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// KeywordRecipient is one row of the keyword/mapping/recipient join.
type KeywordRecipient struct {
	KeywordID       int64  `json:"keyword_id"`
	KeywordText     string `json:"keyword_text"`
	KeywordActive   bool   `json:"keyword_is_active"`
	RecipientID     int64  `json:"recipient_id"`
	ExternalUserID  int64  `json:"recipient_twitter_user_id"`
	ScreenName      string `json:"recipient_twitter_screen_name"`
	RecipientActive bool   `json:"recipient_is_active"`
}

// KeywordClaimCount is the number of processed items recorded for a keyword.
type KeywordClaimCount struct {
	KeywordID   int64
	KeywordText string
	Count       int64
}

// MappingGroup is every mapping of one keyword, for the dashboard.
type MappingGroup struct {
	KeywordText string
	Mappings    []KeywordRecipient
}
