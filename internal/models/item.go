package models

import (
	"fmt"
	"strings"
)

// CanonicalHost is the host used for item links when the source does not supply one.
const CanonicalHost = "https://x.com"

// Item is a single post returned by the content source.
type Item struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	AuthorHandle string `json:"author_handle"`
	URL          string `json:"url,omitempty"`
}

// Link returns the canonical URL of the item.
func (i *Item) Link() string {
	if i.URL != "" {
		return i.URL
	}
	handle := strings.TrimPrefix(i.AuthorHandle, "@")
	if handle == "" {
		handle = "i/web"
	}
	return fmt.Sprintf("%s/%s/status/%d", CanonicalHost, handle, i.ID)
}
