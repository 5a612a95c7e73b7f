package editor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
)

// fakeStore is an in-memory blob store that records writes.
type fakeStore struct {
	files   map[string][]byte
	puts    int
	failPut error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}}
}

func (f *fakeStore) key(folder, filename string) string { return folder + "/" + filename }

func (f *fakeStore) Get(ctx context.Context, folder, filename string) ([]byte, error) {
	data, ok := f.files[f.key(folder, filename)]
	if !ok {
		return nil, recordstore.ErrNotFound
	}
	return data, nil
}

func (f *fakeStore) Put(ctx context.Context, folder, filename string, content []byte) error {
	f.puts++
	if f.failPut != nil {
		return f.failPut
	}
	f.files[f.key(folder, filename)] = content
	return nil
}

func (f *fakeStore) seedUser(t *testing.T, rec model.UserRecord) {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	f.files[f.key(recordstore.UsersFolder, recordstore.UserFilename(rec.Email))] = data
}

func baseRecord() model.UserRecord {
	return model.UserRecord{
		Email:             "john@example.com",
		Name:              "John Doe",
		Phone:             "+8801700000001",
		Coins:             1250,
		Diamonds:          40,
		Earnings:          decimal.RequireFromString("12.50"),
		Streak:            7,
		IsActive:          true,
		PreferredLanguage: model.LangEnglish,
		JoinDate:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func intp(v int64) *int64                     { return &v }
func boolp(v bool) *bool                      { return &v }
func strp(v string) *string                   { return &v }
func decp(v decimal.Decimal) *decimal.Decimal { return &v }

func TestFindUser(t *testing.T) {
	store := newFakeStore()
	store.seedUser(t, baseRecord())
	e := New(store, nil)

	rec, err := e.FindUser(context.Background(), "  John@Example.COM ")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if rec.Coins != 1250 {
		t.Errorf("coins = %d", rec.Coins)
	}
	if !rec.Earnings.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("earnings = %s", rec.Earnings)
	}
}

func TestFindUserAbsent(t *testing.T) {
	e := New(newFakeStore(), nil)

	_, err := e.FindUser(context.Background(), "ghost@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}

func TestProposeEditMonotonicity(t *testing.T) {
	store := newFakeStore()
	e := New(store, nil)
	orig := baseRecord()

	// Raising coins above the loaded value is rejected, and nothing is
	// written to the store.
	_, err := e.ProposeEdit(&orig, model.EditablePatch{Coins: intp(1300)}, "admin@example.com")
	if !errors.Is(err, ErrMonotonicityViolation) {
		t.Fatalf("got %v, want ErrMonotonicityViolation", err)
	}
	if store.puts != 0 {
		t.Errorf("store writes = %d, want 0", store.puts)
	}

	// Raising earnings is rejected the same way.
	_, err = e.ProposeEdit(&orig, model.EditablePatch{Earnings: decp(decimal.RequireFromString("13.00"))}, "admin@example.com")
	if !errors.Is(err, ErrMonotonicityViolation) {
		t.Fatalf("got %v, want ErrMonotonicityViolation", err)
	}

	// Lowering coins is accepted; untouched fields are preserved.
	merged, err := e.ProposeEdit(&orig, model.EditablePatch{Coins: intp(1000)}, "admin@example.com")
	if err != nil {
		t.Fatalf("ProposeEdit: %v", err)
	}
	if merged.Coins != 1000 {
		t.Errorf("coins = %d, want 1000", merged.Coins)
	}
	if !merged.Earnings.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("earnings = %s, want 12.50", merged.Earnings)
	}
	if merged.LastUpdatedBy != "admin@example.com" {
		t.Errorf("lastUpdatedBy = %q", merged.LastUpdatedBy)
	}
	if merged.LastUpdated.IsZero() {
		t.Error("lastUpdated not set")
	}
}

func TestProposeEditEqualValuesAllowed(t *testing.T) {
	e := New(newFakeStore(), nil)
	orig := baseRecord()

	// Monotonic-decrease means "not greater": equal is fine.
	_, err := e.ProposeEdit(&orig, model.EditablePatch{
		Coins:    intp(1250),
		Earnings: decp(decimal.RequireFromString("12.50")),
	}, "admin@example.com")
	if err != nil {
		t.Errorf("ProposeEdit: %v", err)
	}
}

func TestProposeEditDiamondsAndStreakMoveFreely(t *testing.T) {
	e := New(newFakeStore(), nil)
	orig := baseRecord()

	merged, err := e.ProposeEdit(&orig, model.EditablePatch{
		Diamonds: intp(500), // above the original 40: allowed
		Streak:   intp(0),   // reset: allowed
	}, "admin@example.com")
	if err != nil {
		t.Fatalf("ProposeEdit: %v", err)
	}
	if merged.Diamonds != 500 || merged.Streak != 0 {
		t.Errorf("diamonds = %d, streak = %d", merged.Diamonds, merged.Streak)
	}
}

func TestProposeEditRejectsNegatives(t *testing.T) {
	e := New(newFakeStore(), nil)
	orig := baseRecord()

	tests := []struct {
		name  string
		patch model.EditablePatch
	}{
		{"negative coins", model.EditablePatch{Coins: intp(-1)}},
		{"negative diamonds", model.EditablePatch{Diamonds: intp(-5)}},
		{"negative streak", model.EditablePatch{Streak: intp(-2)}},
		{"negative earnings", model.EditablePatch{Earnings: decp(decimal.RequireFromString("-0.01"))}},
		{"unknown language", model.EditablePatch{PreferredLanguage: strp("xx")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.ProposeEdit(&orig, tt.patch, "admin@example.com"); !errors.Is(err, ErrInvalidFieldValue) {
				t.Errorf("got %v, want ErrInvalidFieldValue", err)
			}
		})
	}
}

func TestProposeEditPreservesImmutableFields(t *testing.T) {
	e := New(newFakeStore(), nil)
	orig := baseRecord()

	merged, err := e.ProposeEdit(&orig, model.EditablePatch{
		Coins:               intp(100),
		IsActive:            boolp(false),
		PreferredLanguage:   strp(model.LangBengali),
		DailyUnlockedGames:  boolp(true),
		DailyUnlockedVideos: boolp(true),
	}, "admin@example.com")
	if err != nil {
		t.Fatalf("ProposeEdit: %v", err)
	}

	if merged.Email != orig.Email || merged.Name != orig.Name || merged.Phone != orig.Phone {
		t.Error("identity fields must not change through the editor")
	}
	if !merged.JoinDate.Equal(orig.JoinDate) {
		t.Error("joinDate must not change")
	}
	if merged.IsActive || merged.PreferredLanguage != model.LangBengali {
		t.Error("patched flags not applied")
	}
	if !merged.DailyUnlockedGames || !merged.DailyUnlockedVideos {
		t.Error("daily unlock flags not applied")
	}
}

func TestPersistRoundTrip(t *testing.T) {
	store := newFakeStore()
	store.seedUser(t, baseRecord())
	e := New(store, nil)
	ctx := context.Background()

	orig, err := e.FindUser(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}

	merged, err := e.ProposeEdit(orig, model.EditablePatch{Coins: intp(1000)}, "admin@example.com")
	if err != nil {
		t.Fatalf("ProposeEdit: %v", err)
	}
	if err := e.Persist(ctx, merged); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := e.FindUser(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("FindUser (after persist): %v", err)
	}
	if got.Coins != 1000 {
		t.Errorf("coins = %d, want 1000", got.Coins)
	}
	if !got.Earnings.Equal(merged.Earnings) {
		t.Errorf("earnings = %s, want %s", got.Earnings, merged.Earnings)
	}
	if got.LastUpdatedBy != "admin@example.com" {
		t.Errorf("lastUpdatedBy = %q", got.LastUpdatedBy)
	}
}

func TestPersistFailureNoRollback(t *testing.T) {
	store := newFakeStore()
	store.seedUser(t, baseRecord())
	store.failPut = errors.New("store down")
	e := New(store, nil)
	ctx := context.Background()

	orig, _ := e.FindUser(ctx, "john@example.com")
	merged, _ := e.ProposeEdit(orig, model.EditablePatch{Coins: intp(1)}, "admin@example.com")

	if err := e.Persist(ctx, merged); err == nil {
		t.Fatal("expected persist failure")
	}

	// The store still holds the original: the failed write changed nothing
	// remotely, and the caller is expected to re-fetch.
	got, err := e.FindUser(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if got.Coins != 1250 {
		t.Errorf("store coins = %d, want original 1250", got.Coins)
	}
}

func TestPersistStampsRevision(t *testing.T) {
	store := newFakeStore()
	e := New(store, nil)
	ctx := context.Background()

	// Unstamped records stay unstamped.
	plain := baseRecord()
	if err := e.Persist(ctx, &plain); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if plain.Revision != 0 {
		t.Errorf("revision = %d, want 0", plain.Revision)
	}

	// Stamped records count writes.
	stamped := baseRecord()
	stamped.Revision = 3
	if err := e.Persist(ctx, &stamped); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if stamped.Revision != 4 {
		t.Errorf("revision = %d, want 4", stamped.Revision)
	}
}

func TestPersistRetryIncrementsRevisionOnce(t *testing.T) {
	store := newFakeStore()
	e := New(store, nil)
	ctx := context.Background()

	rec := baseRecord()
	rec.Revision = 3

	// A failed write must not advance the stamp.
	store.failPut = errors.New("store down")
	if err := e.Persist(ctx, &rec); err == nil {
		t.Fatal("expected persist failure")
	}
	if rec.Revision != 3 {
		t.Errorf("revision after failed persist = %d, want 3", rec.Revision)
	}

	// The retry succeeds and counts exactly one write.
	store.failPut = nil
	if err := e.Persist(ctx, &rec); err != nil {
		t.Fatalf("Persist (retry): %v", err)
	}
	if rec.Revision != 4 {
		t.Errorf("revision after retry = %d, want 4", rec.Revision)
	}

	got, err := e.FindUser(ctx, "john@example.com")
	if err != nil {
		t.Fatalf("FindUser: %v", err)
	}
	if got.Revision != 4 {
		t.Errorf("stored revision = %d, want 4", got.Revision)
	}
}

func TestEditSessionStateMachine(t *testing.T) {
	store := newFakeStore()
	store.seedUser(t, baseRecord())
	e := New(store, nil)
	ctx := context.Background()

	s := e.NewSession()
	if s.State() != StateIdle {
		t.Fatalf("state = %s, want idle", s.State())
	}

	// Proposing without a loaded record is refused.
	if _, err := s.Propose(model.EditablePatch{Coins: intp(10)}, "admin@example.com"); !errors.Is(err, ErrNoUserLoaded) {
		t.Fatalf("got %v, want ErrNoUserLoaded", err)
	}

	if _, err := s.Load(ctx, "john@example.com"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != StateUserLoaded {
		t.Fatalf("state = %s, want user_loaded", s.State())
	}

	// A rejected proposal falls back to the loaded record.
	if _, err := s.Propose(model.EditablePatch{Coins: intp(9999)}, "admin@example.com"); !errors.Is(err, ErrMonotonicityViolation) {
		t.Fatalf("got %v, want ErrMonotonicityViolation", err)
	}
	if s.State() != StateUserLoaded {
		t.Fatalf("state after rejection = %s, want user_loaded", s.State())
	}

	// A valid proposal moves to edit_proposed, and a confirmed save resets
	// the session to idle.
	if _, err := s.Propose(model.EditablePatch{Coins: intp(1000)}, "admin@example.com"); err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if s.State() != StateEditProposed {
		t.Fatalf("state = %s, want edit_proposed", s.State())
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state after save = %s, want idle", s.State())
	}

	// Saving again with nothing proposed is refused.
	if err := s.Save(ctx); !errors.Is(err, ErrNothingProposed) {
		t.Errorf("got %v, want ErrNothingProposed", err)
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{" 42 ", 42},
		{"12.9", 12},
		{"", 0},
		{"abc", 0},
		{"-3", -3},
	}
	for _, tt := range tests {
		if got := CoerceInt(tt.in); got != tt.want {
			t.Errorf("CoerceInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCoerceDecimal(t *testing.T) {
	if got := CoerceDecimal("12.50"); !got.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("CoerceDecimal(12.50) = %s", got)
	}
	if got := CoerceDecimal("oops"); !got.IsZero() {
		t.Errorf("CoerceDecimal(oops) = %s, want 0", got)
	}
	if got := CoerceDecimal(""); !got.IsZero() {
		t.Errorf("CoerceDecimal(\"\") = %s, want 0", got)
	}
}

func TestCoerceBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES", "on"} {
		if !CoerceBool(v) {
			t.Errorf("CoerceBool(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "false", "0", "maybe"} {
		if CoerceBool(v) {
			t.Errorf("CoerceBool(%q) = true, want false", v)
		}
	}
}
