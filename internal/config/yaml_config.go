package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is the optional YAML file listing keywords, recipients and the
// mappings between them. It is applied idempotently at startup.
type Seed struct {
	Keywords   []SeedKeyword   `yaml:"keywords"`
	Recipients []SeedRecipient `yaml:"recipients"`
	Mappings   []SeedMapping   `yaml:"mappings"`
}

// SeedKeyword defines a watched keyword.
type SeedKeyword struct {
	Text   string `yaml:"text"`
	Active *bool  `yaml:"active,omitempty"` // Defaults to true
}

// SeedRecipient defines a direct message recipient.
type SeedRecipient struct {
	TwitterUserID int64  `yaml:"twitter_user_id"`
	ScreenName    string `yaml:"screen_name"`
	Description   string `yaml:"description,omitempty"`
	Active        *bool  `yaml:"active,omitempty"` // Defaults to true
}

// SeedMapping links a keyword (by text) to a recipient (by X user id).
type SeedMapping struct {
	Keyword       string `yaml:"keyword"`
	TwitterUserID int64  `yaml:"twitter_user_id"`
}

// IsActive reports the keyword's active flag, true when unset.
func (k SeedKeyword) IsActive() bool {
	return k.Active == nil || *k.Active
}

// IsActive reports the recipient's active flag, true when unset.
func (r SeedRecipient) IsActive() bool {
	return r.Active == nil || *r.Active
}

// LoadSeed loads the seed file at path.
// Returns nil without error if the file doesn't exist.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Seed file is optional
			return nil, nil
		}
		return nil, err
	}
	return ParseSeed(data)
}

// ParseSeed decodes and checks a seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	for i := range seed.Keywords {
		seed.Keywords[i].Text = strings.TrimSpace(seed.Keywords[i].Text)
		if seed.Keywords[i].Text == "" {
			return nil, fmt.Errorf("seed keyword %d has empty text", i)
		}
	}
	for i := range seed.Recipients {
		r := &seed.Recipients[i]
		r.ScreenName = strings.TrimPrefix(strings.TrimSpace(r.ScreenName), "@")
		if r.TwitterUserID <= 0 {
			return nil, fmt.Errorf("seed recipient %q has no twitter_user_id", r.ScreenName)
		}
	}
	for i, m := range seed.Mappings {
		if strings.TrimSpace(m.Keyword) == "" || m.TwitterUserID <= 0 {
			return nil, fmt.Errorf("seed mapping %d needs keyword and twitter_user_id", i)
		}
		seed.Mappings[i].Keyword = strings.TrimSpace(m.Keyword)
	}
	return &seed, nil
}
