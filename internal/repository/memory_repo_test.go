package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"therapy-chat/internal/domain"
)

func TestMemoryStore_SessionLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Update(ctx, domain.Session{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	session := domain.Session{ID: "s1", CurrentState: domain.StateCalm, CreatedAt: time.Now().UTC()}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	session.CurrentState = domain.StateAnxious
	if err := store.Update(ctx, session); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentState != domain.StateAnxious {
		t.Fatalf("expected anxious, got %q", got.CurrentState)
	}
}

func TestMemoryStore_AppendAssignsSeqPerSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"s1", "s2"} {
		if err := store.Create(ctx, domain.Session{ID: id}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		msg, err := store.Append(ctx, domain.Message{ID: "a", SessionID: "s1", Content: "x"})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if msg.Seq != int64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, msg.Seq)
		}
	}
	other, _ := store.Append(ctx, domain.Message{ID: "b", SessionID: "s2"})
	if other.Seq != 1 {
		t.Fatalf("expected independent seq per session, got %d", other.Seq)
	}

	list, err := store.ListBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(list))
	}
	list[0].Content = "mutated"
	again, _ := store.ListBySessionID(ctx, "s1")
	if again[0].Content != "x" {
		t.Fatalf("expected list to be a copy")
	}
}

func TestMemoryStore_ListUnknownSessionEmpty(t *testing.T) {
	store := NewMemoryStore()
	list, err := store.ListBySessionID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func TestMemoryStore_AppendUnknownSession(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Append(context.Background(), domain.Message{SessionID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ExpiredSessionsAreEvicted(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("s%d", i)
		if err := store.Create(ctx, domain.Session{ID: id, ExpiresAt: start.Add(time.Minute)}); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := store.Append(ctx, domain.Message{SessionID: id, Content: "hola"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := store.Create(ctx, domain.Session{ID: "alive", ExpiresAt: start.Add(2 * time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	store.now = func() time.Time { return start.Add(time.Hour) }
	if n := store.SweepExpired(); n != 1000 {
		t.Fatalf("expected 1000 evicted, got %d", n)
	}
	if len(store.sessions) != 1 || len(store.messages) != 0 {
		t.Fatalf("expected only the live session left, got %d sessions %d transcripts", len(store.sessions), len(store.messages))
	}
	if _, err := store.GetByID(ctx, "alive"); err != nil {
		t.Fatalf("expected live session kept, got %v", err)
	}
}

func TestMemoryStore_ReadEvictsExpiredSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }

	if err := store.Create(ctx, domain.Session{ID: "s1", ExpiresAt: start.Add(time.Minute)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Append(ctx, domain.Message{SessionID: "s1", Content: "hola"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	store.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := store.GetByID(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired session, got %v", err)
	}
	if _, ok := store.messages["s1"]; ok {
		t.Fatalf("expected transcript dropped with the session")
	}
	if _, err := store.Append(ctx, domain.Message{SessionID: "s1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected late append rejected, got %v", err)
	}
}

func TestMemoryStore_RunJanitorStopsOnCancel(t *testing.T) {
	store := NewMemoryStore()
	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	if err := store.Create(context.Background(), domain.Session{ID: "old", ExpiresAt: time.Now()}); err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, 5*time.Millisecond, nil)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		n := len(store.sessions)
		store.mu.Unlock()
		if n == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("janitor did not evict expired session")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("janitor did not stop")
	}
}
