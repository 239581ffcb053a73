package counters

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSeeder struct {
	tx, addr, bndl uint64
	err            error
}

func (f fakeSeeder) MaxTxID(context.Context) (uint64, error)      { return f.tx, f.err }
func (f fakeSeeder) MaxAddressID(context.Context) (uint64, error) { return f.addr, f.err }
func (f fakeSeeder) MaxBundleID(context.Context) (uint64, error)  { return f.bndl, f.err }

func TestNewSeedsFromHighWaterMarks(t *testing.T) {
	c, err := New(context.Background(), fakeSeeder{tx: 10, addr: 20, bndl: 30})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := c.NextTx(); got != 11 {
		t.Fatalf("expected next tx id 11, got %d", got)
	}
	if got := c.NextAddress(); got != 21 {
		t.Fatalf("expected next address id 21, got %d", got)
	}
	if got := c.NextBundle(); got != 31 {
		t.Fatalf("expected next bundle id 31, got %d", got)
	}
}

func TestNewPropagatesSeederError(t *testing.T) {
	wantErr := errors.New("boom")
	_, err := New(context.Background(), fakeSeeder{err: wantErr})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected seeder error to propagate, got %v", err)
	}
}

func TestNextTxIsMonotonicUnderConcurrency(t *testing.T) {
	c, err := New(context.Background(), fakeSeeder{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	const n = 200
	seen := make(chan uint64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			seen <- c.NextTx()
		}()
	}
	wg.Wait()
	close(seen)

	ids := make(map[uint64]bool, n)
	for id := range seen {
		if ids[id] {
			t.Fatalf("id %d allocated more than once", id)
		}
		ids[id] = true
	}
	if len(ids) != n {
		t.Fatalf("expected %d distinct ids, got %d", n, len(ids))
	}
}
