// Package manage implements keyword, recipient and mapping administration.
// Every successful mutation refreshes the keyword index before returning.
package manage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"tweetwatch/internal/config"
	"tweetwatch/internal/index"
	"tweetwatch/internal/models"
	"tweetwatch/internal/validation"
)

// Store is the persistence used by the management surface.
type Store interface {
	ListKeywords(ctx context.Context) ([]models.Keyword, error)
	GetKeyword(ctx context.Context, id int64) (*models.Keyword, error)
	GetKeywordByText(ctx context.Context, text string) (*models.Keyword, error)
	CreateKeyword(ctx context.Context, k *models.Keyword) error
	UpdateKeyword(ctx context.Context, k *models.Keyword) error
	DeleteKeyword(ctx context.Context, id int64) error

	ListRecipients(ctx context.Context) ([]models.Recipient, error)
	GetRecipient(ctx context.Context, id int64) (*models.Recipient, error)
	GetRecipientByExternalID(ctx context.Context, externalID int64) (*models.Recipient, error)
	CreateRecipient(ctx context.Context, r *models.Recipient) error
	UpdateRecipient(ctx context.Context, r *models.Recipient) error
	DeleteRecipient(ctx context.Context, id int64) error

	ListMappings(ctx context.Context) ([]models.KeywordRecipient, error)
	CreateMapping(ctx context.Context, keywordID, recipientID int64) error
	DeleteMapping(ctx context.Context, keywordID, recipientID int64) error

	Watermark(ctx context.Context) (int64, error)
	RecentRuns(ctx context.Context, limit int) ([]models.PollRun, error)
}

// Indexer is the keyword index the service keeps current.
type Indexer interface {
	Refresh(ctx context.Context) error
	Current() index.View
}

// ValidationError is returned for rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// KeywordInput is the writable part of a keyword.
type KeywordInput struct {
	Text   string `json:"keyword_text"`
	Active *bool  `json:"is_active"`
}

// RecipientInput is the writable part of a recipient.
type RecipientInput struct {
	TwitterUserID int64   `json:"twitter_user_id"`
	ScreenName    string  `json:"twitter_screen_name"`
	Description   *string `json:"description"`
	Active        *bool   `json:"is_active"`
}

// Service administers keywords, recipients and mappings.
type Service struct {
	store   Store
	index   Indexer
	apiTier string
	log     zerolog.Logger
}

// New returns a Service.
func New(store Store, ix Indexer, apiTier string, log zerolog.Logger) *Service {
	return &Service{store: store, index: ix, apiTier: apiTier, log: log}
}

// refresh rebuilds the index after a committed mutation. A failure is logged
// only; the interval refresh catches up.
func (s *Service) refresh(ctx context.Context, reason string) {
	if err := s.index.Refresh(ctx); err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("index refresh after mutation failed")
	}
}

// RefreshIndex rebuilds the index on demand and returns its keyword count.
func (s *Service) RefreshIndex(ctx context.Context) (int, error) {
	if err := s.index.Refresh(ctx); err != nil {
		return 0, err
	}
	return s.index.Current().Len(), nil
}

// ListKeywords returns every keyword.
func (s *Service) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	return s.store.ListKeywords(ctx)
}

// CreateKeyword adds a keyword. It is active unless in.Active says otherwise.
func (s *Service) CreateKeyword(ctx context.Context, in KeywordInput) (*models.Keyword, error) {
	text := validation.NormalizeKeyword(in.Text)
	if ok, msg := validation.ValidateKeyword(text); !ok {
		return nil, invalid(msg)
	}
	k := &models.Keyword{Text: text, Active: in.Active == nil || *in.Active}
	if err := s.store.CreateKeyword(ctx, k); err != nil {
		return nil, err
	}
	s.log.Info().Int64("keyword_id", k.ID).Str("keyword", k.Text).Msg("keyword created")
	s.refresh(ctx, "keyword created")
	return k, nil
}

// UpdateKeyword changes a keyword's text and/or active flag.
func (s *Service) UpdateKeyword(ctx context.Context, id int64, in KeywordInput) (*models.Keyword, error) {
	k, err := s.store.GetKeyword(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Text != "" {
		text := validation.NormalizeKeyword(in.Text)
		if ok, msg := validation.ValidateKeyword(text); !ok {
			return nil, invalid(msg)
		}
		k.Text = text
	}
	if in.Active != nil {
		k.Active = *in.Active
	}
	if err := s.store.UpdateKeyword(ctx, k); err != nil {
		return nil, err
	}
	s.log.Info().Int64("keyword_id", k.ID).Str("keyword", k.Text).Bool("active", k.Active).Msg("keyword updated")
	s.refresh(ctx, "keyword updated")
	return k, nil
}

// DeleteKeyword removes a keyword with its mappings and processed records.
func (s *Service) DeleteKeyword(ctx context.Context, id int64) error {
	if err := s.store.DeleteKeyword(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("keyword_id", id).Msg("keyword deleted")
	s.refresh(ctx, "keyword deleted")
	return nil
}

// ListRecipients returns every recipient.
func (s *Service) ListRecipients(ctx context.Context) ([]models.Recipient, error) {
	return s.store.ListRecipients(ctx)
}

// CreateRecipient adds a recipient. It is active unless in.Active says otherwise.
func (s *Service) CreateRecipient(ctx context.Context, in RecipientInput) (*models.Recipient, error) {
	if ok, msg := validation.ValidateUserID(in.TwitterUserID); !ok {
		return nil, invalid(msg)
	}
	name := validation.NormalizeScreenName(in.ScreenName)
	if ok, msg := validation.ValidateScreenName(name); !ok {
		return nil, invalid(msg)
	}
	r := &models.Recipient{
		ExternalUserID: in.TwitterUserID,
		ScreenName:     name,
		Active:         in.Active == nil || *in.Active,
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if err := s.store.CreateRecipient(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info().Int64("recipient_id", r.ID).Str("screen_name", r.ScreenName).Msg("recipient created")
	s.refresh(ctx, "recipient created")
	return r, nil
}

// UpdateRecipient changes the fields set in in.
func (s *Service) UpdateRecipient(ctx context.Context, id int64, in RecipientInput) (*models.Recipient, error) {
	r, err := s.store.GetRecipient(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.TwitterUserID != 0 {
		if ok, msg := validation.ValidateUserID(in.TwitterUserID); !ok {
			return nil, invalid(msg)
		}
		r.ExternalUserID = in.TwitterUserID
	}
	if in.ScreenName != "" {
		name := validation.NormalizeScreenName(in.ScreenName)
		if ok, msg := validation.ValidateScreenName(name); !ok {
			return nil, invalid(msg)
		}
		r.ScreenName = name
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Active != nil {
		r.Active = *in.Active
	}
	if err := s.store.UpdateRecipient(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info().Int64("recipient_id", r.ID).Bool("active", r.Active).Msg("recipient updated")
	s.refresh(ctx, "recipient updated")
	return r, nil
}

// DeleteRecipient removes a recipient and its mappings.
func (s *Service) DeleteRecipient(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecipient(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("recipient_id", id).Msg("recipient deleted")
	s.refresh(ctx, "recipient deleted")
	return nil
}

// ListMappings returns every keyword/recipient mapping.
func (s *Service) ListMappings(ctx context.Context) ([]models.KeywordRecipient, error) {
	return s.store.ListMappings(ctx)
}

// GroupedMappings returns the mappings grouped by keyword text, ordered by
// keyword text.
func (s *Service) GroupedMappings(ctx context.Context) ([]models.MappingGroup, error) {
	mappings, err := s.store.ListMappings(ctx)
	if err != nil {
		return nil, err
	}

	var groups []models.MappingGroup
	pos := make(map[string]int)
	for _, m := range mappings {
		i, ok := pos[m.KeywordText]
		if !ok {
			i = len(groups)
			pos[m.KeywordText] = i
			groups = append(groups, models.MappingGroup{KeywordText: m.KeywordText})
		}
		groups[i].Mappings = append(groups[i].Mappings, m)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].KeywordText < groups[j].KeywordText })
	return groups, nil
}

// CreateMapping maps a keyword to a recipient.
func (s *Service) CreateMapping(ctx context.Context, keywordID, recipientID int64) error {
	if keywordID <= 0 || recipientID <= 0 {
		return invalid("keyword_id and recipient_id are required")
	}
	if err := s.store.CreateMapping(ctx, keywordID, recipientID); err != nil {
		return err
	}
	s.log.Info().Int64("keyword_id", keywordID).Int64("recipient_id", recipientID).Msg("mapping created")
	s.refresh(ctx, "mapping created")
	return nil
}

// DeleteMapping removes a mapping.
func (s *Service) DeleteMapping(ctx context.Context, keywordID, recipientID int64) error {
	if err := s.store.DeleteMapping(ctx, keywordID, recipientID); err != nil {
		return err
	}
	s.log.Info().Int64("keyword_id", keywordID).Int64("recipient_id", recipientID).Msg("mapping deleted")
	s.refresh(ctx, "mapping deleted")
	return nil
}

// Status reports the watermark, index size and the latest poll runs.
func (s *Service) Status(ctx context.Context, recentRuns int) (*models.StatusResponse, error) {
	wm, err := s.store.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading watermark: %w", err)
	}
	runs, err := s.store.RecentRuns(ctx, recentRuns)
	if err != nil {
		return nil, fmt.Errorf("reading poll runs: %w", err)
	}
	if runs == nil {
		runs = []models.PollRun{}
	}

	view := s.index.Current()
	entries := 0
	for _, kw := range view.Keywords() {
		entries += len(view.RecipientsFor(kw))
	}
	return &models.StatusResponse{
		Watermark:     wm,
		IndexKeywords: view.Len(),
		IndexEntries:  entries,
		APITier:       s.apiTier,
		RecentRuns:    runs,
	}, nil
}

// ApplySeed creates the keywords, recipients and mappings of seed that do
// not exist yet, then refreshes the index once. Existing rows are left as is.
func (s *Service) ApplySeed(ctx context.Context, seed *config.Seed) error {
	if seed == nil {
		return nil
	}
	var created int

	keywordIDs := make(map[string]int64, len(seed.Keywords))
	for _, sk := range seed.Keywords {
		text := validation.NormalizeKeyword(sk.Text)
		if ok, msg := validation.ValidateKeyword(text); !ok {
			return fmt.Errorf("seed keyword %q: %s", sk.Text, msg)
		}
		k, err := s.store.GetKeywordByText(ctx, text)
		if errors.Is(err, models.ErrKeywordNotFound) {
			k = &models.Keyword{Text: text, Active: sk.IsActive()}
			err = s.store.CreateKeyword(ctx, k)
			created++
		}
		if err != nil {
			return fmt.Errorf("seeding keyword %q: %w", text, err)
		}
		keywordIDs[text] = k.ID
	}

	recipientIDs := make(map[int64]int64, len(seed.Recipients))
	for _, sr := range seed.Recipients {
		if ok, msg := validation.ValidateUserID(sr.TwitterUserID); !ok {
			return fmt.Errorf("seed recipient %q: %s", sr.ScreenName, msg)
		}
		name := validation.NormalizeScreenName(sr.ScreenName)
		if ok, msg := validation.ValidateScreenName(name); !ok {
			return fmt.Errorf("seed recipient %d: %s", sr.TwitterUserID, msg)
		}
		r, err := s.store.GetRecipientByExternalID(ctx, sr.TwitterUserID)
		if errors.Is(err, models.ErrRecipientNotFound) {
			r = &models.Recipient{
				ExternalUserID: sr.TwitterUserID,
				ScreenName:     name,
				Description:    sr.Description,
				Active:         sr.IsActive(),
			}
			err = s.store.CreateRecipient(ctx, r)
			created++
		}
		if err != nil {
			return fmt.Errorf("seeding recipient %d: %w", sr.TwitterUserID, err)
		}
		recipientIDs[sr.TwitterUserID] = r.ID
	}

	for _, sm := range seed.Mappings {
		text := validation.NormalizeKeyword(sm.Keyword)
		kid, ok := keywordIDs[text]
		if !ok {
			k, err := s.store.GetKeywordByText(ctx, text)
			if err != nil {
				return fmt.Errorf("seed mapping keyword %q: %w", sm.Keyword, err)
			}
			kid = k.ID
		}
		rid, ok := recipientIDs[sm.TwitterUserID]
		if !ok {
			r, err := s.store.GetRecipientByExternalID(ctx, sm.TwitterUserID)
			if err != nil {
				return fmt.Errorf("seed mapping recipient %d: %w", sm.TwitterUserID, err)
			}
			rid = r.ID
		}
		err := s.store.CreateMapping(ctx, kid, rid)
		switch {
		case errors.Is(err, models.ErrDuplicate):
		case err != nil:
			return fmt.Errorf("seeding mapping %q -> %d: %w", text, sm.TwitterUserID, err)
		default:
			created++
		}
	}

	s.log.Info().Int("created", created).Msg("seed applied")
	s.refresh(ctx, "seed applied")
	return nil
}
