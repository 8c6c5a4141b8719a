package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func key(b byte) Key { return Key{b} }

func TestKeyBuilderFieldsDoNotAlias(t *testing.T) {
	a := NewKeyBuilder().Text("ab").Text("c").Sum()
	b := NewKeyBuilder().Text("a").Text("bc").Sum()
	if a == b {
		t.Error("length prefixes missing: adjacent strings alias")
	}
	c := NewKeyBuilder().Text("ab").Text("c").Sum()
	if a != c {
		t.Error("identical inputs produced different keys")
	}
	if NewKeyBuilder().Bool(true).Sum() == NewKeyBuilder().Bool(false).Sum() {
		t.Error("Bool ignored")
	}
	if a.IsZero() || !(Key{}).IsZero() {
		t.Error("IsZero mismatch")
	}
	if len(a.String()) != 16 {
		t.Errorf("String() = %q, want 16 hex digits", a.String())
	}
}

func TestLookupMissCommitHit(t *testing.T) {
	c := New[int](nil)

	res, _, hit := c.Lookup(key(1))
	if hit || res == nil {
		t.Fatal("first lookup should miss with a reservation")
	}
	if res.Key() != key(1) {
		t.Errorf("Key() = %v", res.Key())
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", c.Pending())
	}
	res.Commit(42)

	res, v, hit := c.Lookup(key(1))
	if !hit || res != nil || v != 42 {
		t.Fatalf("second lookup = (%v, %d, %v), want hit 42", res, v, hit)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d after commit", c.Pending())
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Commits != 1 || s.Len != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", s.HitRate)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Len != 1 {
		t.Errorf("Stats() after reset = %+v", s)
	}
}

func TestSettleTwiceIsNoop(t *testing.T) {
	c := New[int](nil)
	res, _, _ := c.Lookup(key(2))
	res.Commit(1)
	res.Abort()
	res.Commit(2)

	if v, _ := c.Peek(key(2)); v != 1 {
		t.Errorf("Peek() = %d, want first committed value", v)
	}
	if s := c.Stats(); s.Commits != 1 || s.Aborts != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAbortPassesReservationToWaiter(t *testing.T) {
	c := New[int](nil)
	first, _, _ := c.Lookup(key(3))

	got := make(chan *Reservation[int], 1)
	go func() {
		res, _, hit := c.Lookup(key(3))
		if hit {
			got <- nil
			return
		}
		got <- res
	}()
	waitFor(t, func() bool { return c.Stats().Waits == 1 })

	first.Abort()
	second := <-got
	if second == nil {
		t.Fatal("waiter did not receive a reservation after abort")
	}
	second.Commit(9)
	if v, ok := c.Peek(key(3)); !ok || v != 9 {
		t.Errorf("Peek() = (%d, %v), want 9", v, ok)
	}
	if s := c.Stats(); s.Aborts != 1 || s.Misses != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCommitWakesWaiters(t *testing.T) {
	c := New[string](nil)
	res, _, _ := c.Lookup(key(4))

	const waiters = 8
	var wg sync.WaitGroup
	var hits atomic.Int32
	for range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r, v, hit := c.Lookup(key(4)); hit && v == "done" {
				hits.Add(1)
			} else if r != nil {
				r.Abort()
			}
		}()
	}
	waitFor(t, func() bool { return c.Stats().Waits == waiters })
	res.Commit("done")
	wg.Wait()

	if hits.Load() != waiters {
		t.Errorf("%d of %d waiters saw the committed value", hits.Load(), waiters)
	}
}

func TestConcurrentLookupProducesOnce(t *testing.T) {
	c := New[int](NewLRUStore[int](64, nil))

	const goroutines = 32
	var produced [4]atomic.Int32
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := key(byte(i % len(produced)))
			res, v, hit := c.Lookup(k)
			if !hit {
				produced[i%len(produced)].Add(1)
				time.Sleep(time.Millisecond)
				v = i % len(produced)
				res.Commit(v)
			}
			if v != i%len(produced) {
				t.Errorf("key %d returned %d", i%len(produced), v)
			}
		}(i)
	}
	wg.Wait()

	for k := range produced {
		if n := produced[k].Load(); n != 1 {
			t.Errorf("key %d produced %d times", k, n)
		}
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d", c.Pending())
	}
}

func TestLRUStoreEvicts(t *testing.T) {
	var evicted []Key
	s := NewLRUStore(2, func(k Key, _ int) { evicted = append(evicted, k) })
	s.Put(key(1), 1)
	s.Put(key(2), 2)
	s.Get(key(1))
	s.Put(key(3), 3)

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if len(evicted) != 1 || evicted[0] != key(2) {
		t.Errorf("evicted %v, want key 2", evicted)
	}
	if s.Evictions() != 1 {
		t.Errorf("Evictions() = %d", s.Evictions())
	}
	if _, ok := s.Get(key(2)); ok {
		t.Error("evicted entry still present")
	}

	s.Purge()
	if s.Len() != 0 || s.Evictions() != 3 {
		t.Errorf("after Purge: Len %d, Evictions %d", s.Len(), s.Evictions())
	}
}

func TestEvictedEntryIsReserved(t *testing.T) {
	c := New[int](NewLRUStore[int](1, nil))
	for _, b := range []byte{1, 2} {
		res, _, _ := c.Lookup(key(b))
		res.Commit(int(b))
	}
	res, _, hit := c.Lookup(key(1))
	if hit || res == nil {
		t.Fatal("evicted key should miss")
	}
	res.Abort()
	if s := c.Stats(); s.Evictions != 1 || s.Len != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestShardIndexInRange(t *testing.T) {
	for i := range 256 {
		k := NewKeyBuilder().Uint32(uint32(i)).Sum()
		if idx := k.shardIndex(); idx >= DefaultShardCount {
			t.Fatalf("shardIndex() = %d", idx)
		}
	}
}
