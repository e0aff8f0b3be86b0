package observe

import (
	"math/rand"
	"testing"
)

func TestVersionStartsAtZero(t *testing.T) {
	obs := New(42)
	if obs.Version() != 0 {
		t.Errorf("version starts at 0, got %d", obs.Version())
	}
}

func TestVersionIncrementsOnChange(t *testing.T) {
	obs := New(1)
	obs.Set(2)
	if obs.Version() != 1 {
		t.Errorf("one change bumps to 1, got %d", obs.Version())
	}
	if obs.Get() != 2 {
		t.Errorf("get after set: %d", obs.Get())
	}
}

func TestSetSameValueIsNoop(t *testing.T) {
	obs := New("x")
	obs.Set("x")
	if obs.Version() != 0 {
		t.Error("setting an equal value must not bump the version")
	}
	notified := false
	h := obs.Subscribe(func(string, uint64) { notified = true })
	defer h.Close()
	obs.Set("x")
	if notified {
		t.Error("no-op sets must not notify")
	}
}

func TestVersionAccumulates(t *testing.T) {
	obs := New(0)
	for i := 1; i <= 25; i++ {
		obs.Set(i)
	}
	if obs.Version() != 25 {
		t.Errorf("25 distinct sets accumulate version 25, got %d", obs.Version())
	}
}

func TestVersionMonotonicUnderRandomSets(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	obs := New(0)
	last := obs.Version()
	for i := 0; i < 1000; i++ {
		obs.Set(rng.Intn(4))
		v := obs.Version()
		if v < last {
			t.Fatalf("version regressed: %d -> %d", last, v)
		}
		if v > last+1 {
			t.Fatalf("version jumped: %d -> %d", last, v)
		}
		last = v
	}
}

func TestUpdateNoopClosure(t *testing.T) {
	obs := New(7)
	obs.Update(func(v int) int { return v })
	if obs.Version() != 0 {
		t.Error("identity update is a no-op")
	}
	obs.Update(func(v int) int { return v + 1 })
	if obs.Get() != 8 || obs.Version() != 1 {
		t.Errorf("update applies: %d v%d", obs.Get(), obs.Version())
	}
}

func TestCloneSharesState(t *testing.T) {
	obs := New(1)
	clone := obs.Clone()
	obs.Set(2)
	if clone.Get() != 2 {
		t.Error("clones share the value")
	}
	if clone.Version() != obs.Version() {
		t.Error("clones share the version history")
	}
	clone.Set(3)
	if obs.Get() != 3 || obs.Version() != 2 {
		t.Error("writes through a clone are visible on the original")
	}
}

func TestSubscribeNotifies(t *testing.T) {
	obs := New(0)
	var got []int
	var versions []uint64
	h := obs.Subscribe(func(v int, version uint64) {
		got = append(got, v)
		versions = append(versions, version)
	})
	defer h.Close()

	obs.Set(1)
	obs.Set(1)
	obs.Set(2)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("notifications: %v", got)
	}
	if versions[0] != 1 || versions[1] != 2 {
		t.Errorf("versions: %v", versions)
	}
}

func TestHandleCloseUnsubscribes(t *testing.T) {
	obs := New(0)
	calls := 0
	h := obs.Subscribe(func(int, uint64) { calls++ })
	obs.Set(1)
	h.Close()
	obs.Set(2)
	if calls != 1 {
		t.Errorf("closed handles receive nothing: %d calls", calls)
	}
	h.Close() // idempotent
}

func TestSubscriberCountPrunesDeadSlots(t *testing.T) {
	obs := New(0)
	h1 := obs.Subscribe(func(int, uint64) {})
	h2 := obs.Subscribe(func(int, uint64) {})
	h3 := obs.Subscribe(func(int, uint64) {})
	if obs.SubscriberCount() != 3 {
		t.Fatalf("three live subscribers, got %d", obs.SubscriberCount())
	}
	h2.Close()
	if obs.SubscriberCount() != 2 {
		t.Errorf("dead slots are excluded: %d", obs.SubscriberCount())
	}
	h1.Close()
	h3.Close()
	if obs.SubscriberCount() != 0 {
		t.Errorf("all closed: %d", obs.SubscriberCount())
	}
}

func TestCustomEquality(t *testing.T) {
	type point struct{ x, y int }
	obs := NewWithEquals(point{1, 2}, func(a, b point) bool { return a == b })
	obs.Set(point{1, 2})
	if obs.Version() != 0 {
		t.Error("custom equality suppresses no-op sets")
	}
	obs.Set(point{3, 4})
	if obs.Version() != 1 {
		t.Error("custom equality admits real changes")
	}
}

func TestNilEqualityTreatsEverySetAsChange(t *testing.T) {
	obs := NewWithEquals([]int{1}, nil)
	obs.Set([]int{1})
	if obs.Version() != 1 {
		t.Error("nil equality bumps on every set")
	}
}

func TestNoPanicOnArbitrarySequences(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	obs := New(0)
	var handles []*Handle
	for i := 0; i < 500; i++ {
		switch rng.Intn(5) {
		case 0:
			obs.Set(rng.Intn(10))
		case 1:
			_ = obs.Get()
		case 2:
			handles = append(handles, obs.Subscribe(func(int, uint64) {}))
		case 3:
			if len(handles) > 0 {
				idx := rng.Intn(len(handles))
				handles[idx].Close()
			}
		case 4:
			_ = obs.SubscriberCount()
		}
	}
}
