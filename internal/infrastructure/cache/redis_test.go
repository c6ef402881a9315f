package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/enxxi/v-board/internal/core/id"
)

func TestDisabledCache_AlwaysMisses(t *testing.T) {
	c := Disabled()
	ctx := context.Background()

	if err := c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("SetJSON on a disabled cache failed: %v", err)
	}

	var dest map[string]int
	found, err := c.GetJSON(ctx, "k", &dest)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if found {
		t.Error("disabled cache must never hit")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete on a disabled cache failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on a disabled cache failed: %v", err)
	}
}

func TestDisabledCache_AsideFetchesEveryTime(t *testing.T) {
	c := Disabled()
	ctx := context.Background()

	calls := 0
	fetch := func() error {
		calls++
		return nil
	}

	var dest int
	for i := 0; i < 2; i++ {
		if err := c.Aside(ctx, "k", &dest, time.Minute, fetch); err != nil {
			t.Fatalf("Aside failed: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("fetch calls: want 2, got %d", calls)
	}
}

func TestAside_PropagatesFetchError(t *testing.T) {
	c := Disabled()

	wantErr := errors.New("db down")
	var dest int
	err := c.Aside(context.Background(), "k", &dest, time.Minute, func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("want fetch error, got %v", err)
	}
}

func TestDisabledViewCounter(t *testing.T) {
	counter := NewViewCounter(Disabled())
	ctx := context.Background()

	counted, err := counter.Increment(ctx, id.New())
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if counted {
		t.Error("disabled counter must report fallthrough")
	}

	drained, err := counter.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(drained) != 0 {
		t.Errorf("disabled counter drain: want empty, got %v", drained)
	}
}
