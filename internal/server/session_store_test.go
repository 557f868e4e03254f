package server

import (
	"context"
	"testing"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/engine"
	"resumelens/internal/errors"
	"resumelens/internal/scorer"
	"resumelens/internal/types"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()

	cfg := config.ScoringConfig{
		Provider: "rules",
		Weights: config.WeightsConfig{
			Keyword:      0.4,
			Grammar:      0.2,
			Format:       0.2,
			Quantitative: 0.2,
		},
		MaxSuggestions: 10,
	}

	sc, err := scorer.New(cfg, nil)
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}
	return engine.New(sc, cfg, nil)
}

func newStoreSession(t *testing.T, eng *engine.Engine) *engine.Session {
	t.Helper()

	sess, err := eng.NewSession(context.Background(), "Managed projects.", types.JobContext{
		Keywords: []string{"React"},
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

func TestSessionStorePutGetDelete(t *testing.T) {
	store := NewSessionStore(config.SessionsConfig{TTL: time.Hour, CleanupInterval: time.Hour}, nil)
	defer store.Close()

	eng := testEngine(t)
	sess := newStoreSession(t, eng)

	if err := store.Put(sess); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	got, err := store.Get(sess.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID() != sess.ID() {
		t.Errorf("expected session %s, got %s", sess.ID(), got.ID())
	}

	store.Delete(sess.ID())
	if _, err := store.Get(sess.ID()); errors.TypeOf(err) != errors.ErrorTypeNotFound {
		t.Errorf("expected notfound error after delete, got %v", err)
	}
}

func TestSessionStoreUnknownID(t *testing.T) {
	store := NewSessionStore(config.SessionsConfig{TTL: time.Hour, CleanupInterval: time.Hour}, nil)
	defer store.Close()

	_, err := store.Get("no-such-session")
	if errors.TypeOf(err) != errors.ErrorTypeNotFound {
		t.Errorf("expected notfound error, got %v", err)
	}
}

func TestSessionStoreCapacity(t *testing.T) {
	store := NewSessionStore(config.SessionsConfig{TTL: time.Hour, CleanupInterval: time.Hour, MaxSessions: 1}, nil)
	defer store.Close()

	eng := testEngine(t)

	if err := store.Put(newStoreSession(t, eng)); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	err := store.Put(newStoreSession(t, eng))
	if errors.TypeOf(err) != errors.ErrorTypeConflict {
		t.Fatalf("expected conflict error at capacity, got %v", err)
	}
}

func TestSessionStoreTTLEviction(t *testing.T) {
	store := NewSessionStore(config.SessionsConfig{
		TTL:             10 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	}, nil)
	defer store.Close()

	eng := testEngine(t)
	sess := newStoreSession(t, eng)
	if err := store.Put(sess); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if store.Len() != 0 {
		t.Fatal("expected idle session to be evicted")
	}
	if _, err := store.Get(sess.ID()); errors.TypeOf(err) != errors.ErrorTypeNotFound {
		t.Errorf("expected notfound error after eviction, got %v", err)
	}
}
