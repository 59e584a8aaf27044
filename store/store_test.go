package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "results.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	key := Key{Digest: sha256.Sum256([]byte("program")), Target: 19690720, Policy: "skip"}
	rec := &Record{
		Key:      key,
		Found:    true,
		Noun:     64,
		Verb:     21,
		Trials:   6422,
		Faults:   3,
		Snapshot: []byte{0xa1, 0x01, 0x02},
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.RunID == "" {
		t.Error("Save did not assign a RunID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Save did not assign CreatedAt")
	}

	got, err := s.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Key != key {
		t.Errorf("Key = %+v, want %+v", got.Key, key)
	}
	if !got.Found || got.Noun != 64 || got.Verb != 21 {
		t.Errorf("outcome = found:%t noun:%d verb:%d", got.Found, got.Noun, got.Verb)
	}
	if got.Trials != 6422 || got.Faults != 3 {
		t.Errorf("counts = %d/%d, want 6422/3", got.Trials, got.Faults)
	}
	if got.RunID != rec.RunID {
		t.Errorf("RunID = %q, want %q", got.RunID, rec.RunID)
	}
	if string(got.Snapshot) != string(rec.Snapshot) {
		t.Errorf("Snapshot = %x, want %x", got.Snapshot, rec.Snapshot)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestLookupMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Lookup(context.Background(), Key{Target: 1, Policy: "skip"})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Lookup error = %v, want ErrRecordNotFound", err)
	}
}

func TestKeyIncludesSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	digest := sha256.Sum256([]byte("program"))

	if err := s.Save(ctx, &Record{Key: Key{Digest: digest, Target: 5, Policy: "skip"}, Found: true}); err != nil {
		t.Fatal(err)
	}

	for _, key := range []Key{
		{Digest: digest, Target: 5, Policy: "abort"},
		{Digest: digest, Target: 5, Policy: "skip", StepLimit: 10},
		{Digest: digest, Target: 6, Policy: "skip"},
	} {
		if _, err := s.Lookup(ctx, key); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Lookup(%+v) error = %v, want ErrRecordNotFound", key, err)
		}
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := Key{Digest: sha256.Sum256([]byte("p")), Target: 9, Policy: "skip"}

	if err := s.Save(ctx, &Record{Key: key, Found: false, Trials: 10000}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Record{Key: key, Found: true, Noun: 1, Verb: 8, Trials: 109}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !got.Found || got.Trials != 109 {
		t.Errorf("got found:%t trials:%d, want replaced record", got.Found, got.Trials)
	}
}

func TestLargeValuesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := Key{Target: ^uint64(0), StepLimit: 1 << 63, Policy: "skip"}

	if err := s.Save(ctx, &Record{Key: key}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Target != ^uint64(0) || got.StepLimit != 1<<63 {
		t.Errorf("Target/StepLimit = %d/%d", got.Target, got.StepLimit)
	}
}

func TestHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	digest := sha256.Sum256([]byte("history"))
	other := sha256.Sum256([]byte("other"))
	base := time.Unix(1700000000, 0)

	for i, target := range []uint64{30, 10, 20} {
		rec := &Record{
			Key:       Key{Digest: digest, Target: target, Policy: "skip"},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Save(ctx, &Record{Key: Key{Digest: other, Target: 1, Policy: "skip"}}); err != nil {
		t.Fatal(err)
	}

	records, err := s.History(ctx, digest)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("History returned %d records, want 3", len(records))
	}
	for i, want := range []uint64{30, 10, 20} {
		if records[i].Target != want {
			t.Errorf("records[%d].Target = %d, want %d", i, records[i].Target, want)
		}
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()
	key := Key{Digest: sha256.Sum256([]byte("p")), Target: 3, Policy: "skip"}

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Record{Key: key, Found: true, Noun: 1, Verb: 2}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path = %q, want %q", s.Path(), path)
	}
	if _, err := s.Lookup(ctx, key); err != nil {
		t.Errorf("Lookup after reopen failed: %v", err)
	}
}
