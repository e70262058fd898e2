package models

import "errors"

// Store errors shared by the PostgreSQL and SQLite backends.
var (
	ErrKeywordNotFound   = errors.New("keyword not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrMappingNotFound   = errors.New("mapping not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrInvalidReference  = errors.New("referenced keyword or recipient does not exist")
)
