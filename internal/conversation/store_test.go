package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreEmptyHistory(t *testing.T) {
	store := NewMemoryStore(3)

	turns, err := store.History(context.Background(), "55119")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty history for new user, got %d turns", len(turns))
	}
}

func TestMemoryStoreAppendAndTrim(t *testing.T) {
	const maxPairs = 3
	store := NewMemoryStore(maxPairs)
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		userText := fmt.Sprintf("pergunta %d", n)
		assistantText := fmt.Sprintf("resposta %d", n)
		if err := store.AppendExchange(ctx, "55119", userText, assistantText); err != nil {
			t.Fatalf("append %d: %v", n, err)
		}

		turns, err := store.History(ctx, "55119")
		if err != nil {
			t.Fatalf("history: %v", err)
		}

		want := 2 * n
		if n > maxPairs {
			want = 2 * maxPairs
		}
		if len(turns) != want {
			t.Fatalf("after %d appends expected %d turns, got %d", n, want, len(turns))
		}
		if len(turns)%2 != 0 {
			t.Fatalf("history length must stay even, got %d", len(turns))
		}

		last := turns[len(turns)-1]
		if last.Role != RoleAssistant || last.Content != assistantText {
			t.Errorf("expected most recent assistant turn %q last, got %+v", assistantText, last)
		}
		if turns[len(turns)-2].Role != RoleUser || turns[len(turns)-2].Content != userText {
			t.Errorf("expected most recent user turn %q, got %+v", userText, turns[len(turns)-2])
		}
	}

	// Oldest pairs were evicted first.
	turns, _ := store.History(ctx, "55119")
	if turns[0].Content != "pergunta 3" {
		t.Errorf("expected oldest surviving pair to be exchange 3, got %q", turns[0].Content)
	}
}

func TestMemoryStoreHistoryIsACopy(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	if err := store.AppendExchange(ctx, "55119", "Oi", "Olá!"); err != nil {
		t.Fatalf("append: %v", err)
	}

	turns, _ := store.History(ctx, "55119")
	turns[0].Content = "mutated"

	again, _ := store.History(ctx, "55119")
	if again[0].Content != "Oi" {
		t.Error("History must return a copy, stored turns were mutated")
	}
}

func TestMemoryStoreConcurrentAppendsLoseNothing(t *testing.T) {
	const (
		maxPairs = 100
		writers  = 8
		appends  = 10
	)
	store := NewMemoryStore(maxPairs)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < appends; i++ {
				_ = store.AppendExchange(ctx, "55119", fmt.Sprintf("u%d-%d", w, i), fmt.Sprintf("a%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	turns, err := store.History(ctx, "55119")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 2*writers*appends {
		t.Errorf("expected %d turns after concurrent appends, got %d", 2*writers*appends, len(turns))
	}
	if len(turns)%2 != 0 {
		t.Errorf("history length must stay even, got %d", len(turns))
	}
}

func TestMemoryStoreUsersAreIsolated(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	_ = store.AppendExchange(ctx, "user-a", "Oi", "Olá A!")
	_ = store.AppendExchange(ctx, "user-b", "Oi", "Olá B!")

	a, _ := store.History(ctx, "user-a")
	b, _ := store.History(ctx, "user-b")

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 turns each, got %d and %d", len(a), len(b))
	}
	if a[1].Content == b[1].Content {
		t.Error("expected distinct conversation lineages per user")
	}
}

func TestTrimPairsNeverLeavesPartialPair(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "1"}, {Role: RoleAssistant, Content: "1"},
		{Role: RoleUser, Content: "2"}, {Role: RoleAssistant, Content: "2"},
	}
	trimmed := trimPairs(turns, 1)
	if len(trimmed) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(trimmed))
	}
	if trimmed[0].Role != RoleUser || trimmed[0].Content != "2" {
		t.Errorf("expected the newest pair to survive, got %+v", trimmed)
	}
}
