// Package index holds the in-memory keyword snapshot the poll cycle matches against.
//
// A Snapshot is immutable once published. Refresh builds a new one from the
// store and swaps it in atomically, so readers holding an older snapshot are
// never affected by a concurrent refresh.
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"tweetwatch/internal/models"
)

// Loader reads the active keyword/recipient join.
type Loader interface {
	ActiveKeywordRecipients(ctx context.Context) ([]models.KeywordRecipient, error)
}

// View is the read side of a snapshot.
type View interface {
	Keywords() []string
	Lookup(text string) (int64, bool)
	RecipientsFor(text string) []int64
	Len() int
}

// Entry is one watched keyword with the X user ids to notify.
type Entry struct {
	ID         int64
	Text       string
	Recipients []int64
}

// Snapshot is a point-in-time view of the watched keywords.
type Snapshot struct {
	entries map[string]Entry
	texts   []string
}

var empty = &Snapshot{entries: map[string]Entry{}}

// Build assembles a snapshot from join rows. Rows for inactive keywords or
// recipients are ignored; duplicate recipients are collapsed.
func Build(rows []models.KeywordRecipient) *Snapshot {
	s := &Snapshot{entries: make(map[string]Entry)}
	seen := make(map[string]map[int64]bool)
	for _, r := range rows {
		if !r.KeywordActive || !r.RecipientActive {
			continue
		}
		e, ok := s.entries[r.KeywordText]
		if !ok {
			e = Entry{ID: r.KeywordID, Text: r.KeywordText}
			seen[r.KeywordText] = make(map[int64]bool)
			s.texts = append(s.texts, r.KeywordText)
		}
		if !seen[r.KeywordText][r.ExternalUserID] {
			seen[r.KeywordText][r.ExternalUserID] = true
			e.Recipients = append(e.Recipients, r.ExternalUserID)
		}
		s.entries[r.KeywordText] = e
	}
	sort.Strings(s.texts)
	return s
}

// Len returns the number of keywords.
func (s *Snapshot) Len() int {
	return len(s.texts)
}

// Empty reports whether the snapshot has no keywords.
func (s *Snapshot) Empty() bool {
	return len(s.texts) == 0
}

// Keywords returns the keyword texts in sorted order.
func (s *Snapshot) Keywords() []string {
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

// Lookup returns the id of a keyword.
func (s *Snapshot) Lookup(text string) (int64, bool) {
	e, ok := s.entries[text]
	return e.ID, ok
}

// RecipientsFor returns the X user ids mapped to a keyword.
func (s *Snapshot) RecipientsFor(text string) []int64 {
	e, ok := s.entries[text]
	if !ok {
		return nil
	}
	out := make([]int64, len(e.Recipients))
	copy(out, e.Recipients)
	return out
}

// RecipientCount returns the total number of keyword/recipient pairs.
func (s *Snapshot) RecipientCount() int {
	n := 0
	for _, e := range s.entries {
		n += len(e.Recipients)
	}
	return n
}

// Index publishes the current snapshot.
type Index struct {
	loader Loader
	log    zerolog.Logger

	mu      sync.Mutex // serializes Refresh
	current atomic.Pointer[Snapshot]

	onRefresh func(*Snapshot)
}

// New returns an index with an empty snapshot. Call Refresh to populate it.
func New(loader Loader, log zerolog.Logger) *Index {
	ix := &Index{loader: loader, log: log}
	ix.current.Store(empty)
	return ix
}

// OnRefresh registers fn to be called with every newly published snapshot.
// It must be set before the index is shared.
func (ix *Index) OnRefresh(fn func(*Snapshot)) {
	ix.onRefresh = fn
}

// Snapshot returns the current snapshot. It never returns nil.
func (ix *Index) Snapshot() *Snapshot {
	return ix.current.Load()
}

// Current returns the current snapshot as a View.
func (ix *Index) Current() View {
	return ix.current.Load()
}

// Refresh rebuilds the snapshot from the store and publishes it. On error the
// previous snapshot stays in place.
func (ix *Index) Refresh(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rows, err := ix.loader.ActiveKeywordRecipients(ctx)
	if err != nil {
		ix.log.Error().Err(err).Msg("keyword index refresh failed; keeping previous snapshot")
		return fmt.Errorf("loading keyword index: %w", err)
	}

	snap := Build(rows)
	ix.current.Store(snap)
	ix.log.Info().Int("keywords", snap.Len()).Int("recipients", snap.RecipientCount()).Msg("keyword index refreshed")
	if ix.onRefresh != nil {
		ix.onRefresh(snap)
	}
	return nil
}
