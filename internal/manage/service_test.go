package manage

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"tweetwatch/internal/config"
	"tweetwatch/internal/index"
	"tweetwatch/internal/models"
	"tweetwatch/internal/sqlitestore"
	"tweetwatch/internal/testutil"
)

// countingIndex wraps an index and counts refreshes.
type countingIndex struct {
	*index.Index
	refreshes int
	fail      error
}

func (c *countingIndex) Refresh(ctx context.Context) error {
	c.refreshes++
	if c.fail != nil {
		return c.fail
	}
	return c.Index.Refresh(ctx)
}

func setup(t *testing.T) (*Service, *countingIndex, *sqlitestore.Store) {
	t.Helper()
	store := testutil.SQLiteStore(t)
	ix := &countingIndex{Index: index.New(store, zerolog.Nop())}
	return New(store, ix, "free", zerolog.Nop()), ix, store
}

func boolPtr(b bool) *bool { return &b }

func TestCreateKeyword_RefreshesIndex(t *testing.T) {
	svc, ix, _ := setup(t)
	ctx := context.Background()

	k, err := svc.CreateKeyword(ctx, KeywordInput{Text: "  golang  "})
	if err != nil {
		t.Fatalf("CreateKeyword() error = %v", err)
	}
	if k.Text != "golang" || !k.Active {
		t.Errorf("CreateKeyword() = %+v, want active golang", k)
	}
	if ix.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", ix.refreshes)
	}

	r, err := svc.CreateRecipient(ctx, RecipientInput{TwitterUserID: 1001, ScreenName: "@alice"})
	if err != nil {
		t.Fatalf("CreateRecipient() error = %v", err)
	}
	if err := svc.CreateMapping(ctx, k.ID, r.ID); err != nil {
		t.Fatalf("CreateMapping() error = %v", err)
	}

	// The mapping is visible without waiting for the interval refresh.
	if id, ok := ix.Current().Lookup("golang"); !ok || id != k.ID {
		t.Errorf("Lookup(golang) = %d, %v, want %d, true", id, ok, k.ID)
	}
	if got := ix.Current().RecipientsFor("golang"); len(got) != 1 || got[0] != 1001 {
		t.Errorf("RecipientsFor(golang) = %v, want [1001]", got)
	}
	if ix.refreshes != 3 {
		t.Errorf("refreshes = %d, want 3", ix.refreshes)
	}
}

func TestCreateKeyword_Invalid(t *testing.T) {
	svc, ix, _ := setup(t)

	tests := []struct {
		name string
		text string
	}{
		{"empty", "   "},
		{"quote", `say "hi"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateKeyword(context.Background(), KeywordInput{Text: tt.text})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("CreateKeyword(%q) error = %v, want ValidationError", tt.text, err)
			}
		})
	}
	if ix.refreshes != 0 {
		t.Errorf("refreshes after rejected input = %d, want 0", ix.refreshes)
	}
}

func TestCreateKeyword_DuplicateDoesNotRefresh(t *testing.T) {
	svc, ix, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.CreateKeyword(ctx, KeywordInput{Text: "golang"}); err != nil {
		t.Fatalf("CreateKeyword() error = %v", err)
	}
	if _, err := svc.CreateKeyword(ctx, KeywordInput{Text: "golang"}); !errors.Is(err, models.ErrDuplicate) {
		t.Errorf("CreateKeyword() duplicate error = %v, want %v", err, models.ErrDuplicate)
	}
	if ix.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", ix.refreshes)
	}
}

func TestMutation_RefreshFailureDoesNotFailRequest(t *testing.T) {
	svc, ix, store := setup(t)
	ix.fail = errors.New("index unavailable")

	k, err := svc.CreateKeyword(context.Background(), KeywordInput{Text: "golang"})
	if err != nil {
		t.Fatalf("CreateKeyword() error = %v, want nil", err)
	}
	if _, err := store.GetKeyword(context.Background(), k.ID); err != nil {
		t.Errorf("keyword not committed: %v", err)
	}
}

func TestUpdateAndDeleteKeyword(t *testing.T) {
	svc, ix, _ := setup(t)
	ctx := context.Background()

	k, _ := svc.CreateKeyword(ctx, KeywordInput{Text: "golang"})
	r, _ := svc.CreateRecipient(ctx, RecipientInput{TwitterUserID: 1001, ScreenName: "alice"})
	_ = svc.CreateMapping(ctx, k.ID, r.ID)

	updated, err := svc.UpdateKeyword(ctx, k.ID, KeywordInput{Active: boolPtr(false)})
	if err != nil {
		t.Fatalf("UpdateKeyword() error = %v", err)
	}
	if updated.Active || updated.Text != "golang" {
		t.Errorf("UpdateKeyword() = %+v", updated)
	}
	if _, ok := ix.Current().Lookup("golang"); ok {
		t.Error("deactivated keyword still in index")
	}

	if _, err := svc.UpdateKeyword(ctx, 9999, KeywordInput{Text: "x"}); !errors.Is(err, models.ErrKeywordNotFound) {
		t.Errorf("UpdateKeyword() missing error = %v, want %v", err, models.ErrKeywordNotFound)
	}

	if err := svc.DeleteKeyword(ctx, k.ID); err != nil {
		t.Fatalf("DeleteKeyword() error = %v", err)
	}
	mappings, _ := svc.ListMappings(ctx)
	if len(mappings) != 0 {
		t.Errorf("mappings after keyword delete = %d, want 0", len(mappings))
	}
}

func TestUpdateRecipient(t *testing.T) {
	svc, ix, _ := setup(t)
	ctx := context.Background()

	k, _ := svc.CreateKeyword(ctx, KeywordInput{Text: "golang"})
	r, _ := svc.CreateRecipient(ctx, RecipientInput{TwitterUserID: 1001, ScreenName: "alice"})
	_ = svc.CreateMapping(ctx, k.ID, r.ID)

	desc := "on call"
	got, err := svc.UpdateRecipient(ctx, r.ID, RecipientInput{Description: &desc, Active: boolPtr(false)})
	if err != nil {
		t.Fatalf("UpdateRecipient() error = %v", err)
	}
	if got.Description != desc || got.Active || got.ScreenName != "alice" {
		t.Errorf("UpdateRecipient() = %+v", got)
	}
	if ix.Current().Len() != 0 {
		t.Errorf("index Len() = %d, want 0 after deactivating only recipient", ix.Current().Len())
	}

	if _, err := svc.UpdateRecipient(ctx, r.ID, RecipientInput{ScreenName: "bad name"}); err == nil {
		t.Error("UpdateRecipient() with invalid screen name error = nil")
	}
}

func TestCreateRecipient_Invalid(t *testing.T) {
	svc, _, _ := setup(t)

	tests := []struct {
		name string
		in   RecipientInput
	}{
		{"missing id", RecipientInput{ScreenName: "alice"}},
		{"bad name", RecipientInput{TwitterUserID: 1, ScreenName: "not valid!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRecipient(context.Background(), tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("CreateRecipient() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestMappingErrors(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	k, _ := svc.CreateKeyword(ctx, KeywordInput{Text: "golang"})

	if err := svc.CreateMapping(ctx, k.ID, 0); err == nil {
		t.Error("CreateMapping() with zero recipient error = nil")
	}
	if err := svc.CreateMapping(ctx, k.ID, 4242); !errors.Is(err, models.ErrInvalidReference) {
		t.Errorf("CreateMapping() dangling error = %v, want %v", err, models.ErrInvalidReference)
	}
	if err := svc.DeleteMapping(ctx, k.ID, 4242); !errors.Is(err, models.ErrMappingNotFound) {
		t.Errorf("DeleteMapping() error = %v, want %v", err, models.ErrMappingNotFound)
	}
}

func TestStatus(t *testing.T) {
	svc, _, store := setup(t)
	ctx := context.Background()

	k, _ := svc.CreateKeyword(ctx, KeywordInput{Text: "golang"})
	r1, _ := svc.CreateRecipient(ctx, RecipientInput{TwitterUserID: 1001, ScreenName: "alice"})
	r2, _ := svc.CreateRecipient(ctx, RecipientInput{TwitterUserID: 1002, ScreenName: "bob"})
	_ = svc.CreateMapping(ctx, k.ID, r1.ID)
	_ = svc.CreateMapping(ctx, k.ID, r2.ID)
	_ = store.EnsureWatermark(ctx)

	st, err := svc.Status(ctx, 5)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.IndexKeywords != 1 || st.IndexEntries != 2 || st.APITier != "free" || st.Watermark != 0 {
		t.Errorf("Status() = %+v", st)
	}
	if st.RecentRuns == nil {
		t.Error("Status().RecentRuns = nil, want empty slice")
	}
}

func TestRefreshIndex(t *testing.T) {
	svc, _, store := setup(t)
	ctx := context.Background()

	// Rows written behind the service's back show up after an explicit refresh.
	k := testutil.CreateTestKeyword(t, store, "golang")
	r := testutil.CreateTestRecipient(t, store, 1001, "alice")
	testutil.MapTestKeyword(t, store, k, r)

	n, err := svc.RefreshIndex(ctx)
	if err != nil {
		t.Fatalf("RefreshIndex() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RefreshIndex() = %d, want 1", n)
	}
}

func TestApplySeed_Idempotent(t *testing.T) {
	svc, ix, _ := setup(t)
	ctx := context.Background()

	seed, err := config.ParseSeed([]byte(`
keywords:
  - text: golang
  - text: rust
    active: false
recipients:
  - twitter_user_id: 1001
    screen_name: alice
mappings:
  - keyword: golang
    twitter_user_id: 1001
  - keyword: rust
    twitter_user_id: 1001
`))
	if err != nil {
		t.Fatalf("ParseSeed() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.ApplySeed(ctx, seed); err != nil {
			t.Fatalf("ApplySeed() pass %d error = %v", i+1, err)
		}
	}

	keywords, _ := svc.ListKeywords(ctx)
	recipients, _ := svc.ListRecipients(ctx)
	mappings, _ := svc.ListMappings(ctx)
	if len(keywords) != 2 || len(recipients) != 1 || len(mappings) != 2 {
		t.Errorf("after seeding: %d keywords, %d recipients, %d mappings; want 2, 1, 2",
			len(keywords), len(recipients), len(mappings))
	}
	if ix.refreshes != 2 {
		t.Errorf("refreshes = %d, want one per ApplySeed", ix.refreshes)
	}
	if got := ix.Current().Keywords(); len(got) != 1 || got[0] != "golang" {
		t.Errorf("index keywords = %v, want [golang]", got)
	}
}

func TestApplySeed_UnknownMappingTarget(t *testing.T) {
	svc, _, _ := setup(t)
	seed := &config.Seed{Mappings: []config.SeedMapping{{Keyword: "nope", TwitterUserID: 1}}}
	if err := svc.ApplySeed(context.Background(), seed); !errors.Is(err, models.ErrKeywordNotFound) {
		t.Errorf("ApplySeed() error = %v, want %v", err, models.ErrKeywordNotFound)
	}
}

func TestApplySeed_NormalizesMappingKeyword(t *testing.T) {
	svc, ix, _ := setup(t)
	ctx := context.Background()

	seed := &config.Seed{
		Keywords:   []config.SeedKeyword{{Text: " golang "}},
		Recipients: []config.SeedRecipient{{TwitterUserID: 1001, ScreenName: "alice"}},
		Mappings:   []config.SeedMapping{{Keyword: " golang ", TwitterUserID: 1001}},
	}
	if err := svc.ApplySeed(ctx, seed); err != nil {
		t.Fatalf("ApplySeed() error = %v", err)
	}

	mappings, _ := svc.ListMappings(ctx)
	if len(mappings) != 1 || mappings[0].KeywordText != "golang" {
		t.Errorf("mappings = %+v, want one mapping for golang", mappings)
	}
	if got := ix.Current().RecipientsFor("golang"); len(got) != 1 || got[0] != 1001 {
		t.Errorf("RecipientsFor(golang) = %v, want [1001]", got)
	}
}

func TestApplySeed_InvalidRecipientID(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	seed := &config.Seed{Recipients: []config.SeedRecipient{{TwitterUserID: 0, ScreenName: "alice"}}}
	if err := svc.ApplySeed(ctx, seed); err == nil {
		t.Fatal("ApplySeed() error = nil, want invalid user id error")
	}
	if recipients, _ := svc.ListRecipients(ctx); len(recipients) != 0 {
		t.Errorf("recipients = %d, want 0", len(recipients))
	}
}

func TestGroupedMappings(t *testing.T) {
	svc, _, store := setup(t)
	ctx := context.Background()

	rust := testutil.CreateTestKeyword(t, store, "rust")
	golang := testutil.CreateTestKeyword(t, store, "golang")
	testutil.CreateTestKeyword(t, store, "zig")
	alice := testutil.CreateTestRecipient(t, store, 1001, "alice")
	bob := testutil.CreateTestRecipient(t, store, 1002, "bob")
	testutil.MapTestKeyword(t, store, rust, alice)
	testutil.MapTestKeyword(t, store, golang, alice)
	testutil.MapTestKeyword(t, store, golang, bob)

	groups, err := svc.GroupedMappings(ctx)
	if err != nil {
		t.Fatalf("GroupedMappings() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("GroupedMappings() returned %d groups, want 2", len(groups))
	}
	if groups[0].KeywordText != "golang" || len(groups[0].Mappings) != 2 {
		t.Errorf("groups[0] = %+v, want golang with 2 mappings", groups[0])
	}
	if groups[1].KeywordText != "rust" || len(groups[1].Mappings) != 1 {
		t.Errorf("groups[1] = %+v, want rust with 1 mapping", groups[1])
	}
}
