package journal

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"lob-engine/src/engine"
)

func newJournal(capacity int) *Journal {
	return New(engine.NewOrderbook(), capacity, zerolog.Nop())
}

func TestAddOutcomes(t *testing.T) {
	j := newJournal(16)

	out := j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 1, engine.SideSell, 100, 5))
	if !out.Admitted || !out.Resting || len(out.Trades) != 0 {
		t.Errorf("Expected resting admission, got: %+v", out)
	}

	out = j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 1, engine.SideBuy, 100, 5))
	if !out.Found || out.Admitted || out.Resting || len(out.Trades) != 0 {
		t.Errorf("Expected duplicate rejection, got: %+v", out)
	}

	out = j.Add(engine.NewOrder(engine.TypeFillAndKill, 2, engine.SideBuy, 99, 5))
	if out.Admitted {
		t.Errorf("Expected non-crossing fill and kill rejection, got: %+v", out)
	}

	out = j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 3, engine.SideBuy, 100, 2))
	if !out.Admitted || out.Resting || len(out.Trades) != 1 {
		t.Errorf("Expected filled admission, got: %+v", out)
	}

	out = j.Add(engine.NewMarketOrder(4, engine.SideSell, 1))
	if out.Admitted {
		t.Errorf("Expected market sell with no bids rejected, got: %+v", out)
	}

	if j.Len() != 5 {
		t.Errorf("Expected 5 entries, got: %d", j.Len())
	}
}

func TestCancelAndModifyOutcomes(t *testing.T) {
	j := newJournal(16)
	j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 1, engine.SideBuy, 100, 5))

	if out := j.Modify(engine.OrderModify{ID: 1, Side: engine.SideBuy, Price: 101, Quantity: 6}); !out.Admitted || !out.Resting {
		t.Errorf("Expected modify to rest, got: %+v", out)
	}
	if out := j.Modify(engine.OrderModify{ID: 9, Side: engine.SideBuy, Price: 101, Quantity: 6}); out.Found || out.Admitted {
		t.Errorf("Expected modify of unknown id to do nothing, got: %+v", out)
	}
	if out := j.Cancel(1); !out.Found {
		t.Errorf("Expected cancel to remove order, got: %+v", out)
	}
	if out := j.Cancel(1); out.Found {
		t.Errorf("Expected second cancel to be a no-op, got: %+v", out)
	}
	if j.Book().Size() != 0 {
		t.Errorf("Expected empty book, got: %d", j.Book().Size())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	j := newJournal(3)
	for id := engine.OrderID(1); id <= 5; id++ {
		j.Add(engine.NewOrder(engine.TypeGoodTillCancel, id, engine.SideBuy, 100, 1))
	}

	if j.Len() != 3 {
		t.Fatalf("Expected 3 retained entries, got: %d", j.Len())
	}
	if j.Dropped() != 2 {
		t.Errorf("Expected 2 dropped entries, got: %d", j.Dropped())
	}

	recent := j.Recent(2)
	if len(recent) != 2 || recent[0].OrderID != 5 || recent[1].OrderID != 4 {
		t.Errorf("Expected newest first [5 4], got: %+v", recent)
	}

	snapshot := j.Snapshot()
	if len(snapshot) != 3 || snapshot[0].Sequence != 3 || snapshot[2].Sequence != 5 {
		t.Errorf("Expected oldest first sequences 3..5, got: %+v", snapshot)
	}
	if got := len(j.Recent(0)); got != 3 {
		t.Errorf("Expected all 3 entries, got: %d", got)
	}
}

// Replaying a complete journal into an empty book rebuilds the same book.
func TestReplayRebuildsBook(t *testing.T) {
	j := newJournal(10000)
	rng := rand.New(rand.NewSource(3))

	for i := 1; i <= 500; i++ {
		id := engine.OrderID(i)
		side := engine.Side(rng.Intn(2))
		switch rng.Intn(6) {
		case 0:
			j.Cancel(engine.OrderID(rng.Intn(i) + 1))
		case 1:
			j.Modify(engine.OrderModify{ID: engine.OrderID(rng.Intn(i) + 1), Side: side, Price: engine.Price(95 + rng.Intn(10)), Quantity: 4})
		case 2:
			j.Add(engine.NewMarketOrder(id, side, engine.Quantity(rng.Intn(10)+1)))
		case 3:
			j.Add(engine.NewOrder(engine.TypeFillAndKill, id, side, engine.Price(95+rng.Intn(10)), engine.Quantity(rng.Intn(10)+1)))
		default:
			j.Add(engine.NewOrder(engine.TypeGoodTillCancel, id, side, engine.Price(95+rng.Intn(10)), engine.Quantity(rng.Intn(10)+1)))
		}
	}

	rebuilt := engine.NewOrderbook()
	if _, err := Replay(j.Snapshot(), rebuilt); err != nil {
		t.Fatalf("Expected clean replay, got: %v", err)
	}

	if rebuilt.Size() != j.Book().Size() {
		t.Fatalf("Expected size %d, got: %d", j.Book().Size(), rebuilt.Size())
	}
	want, got := j.Book().GetOrderInfos(), rebuilt.GetOrderInfos()
	if len(want.Bids()) != len(got.Bids()) || len(want.Asks()) != len(got.Asks()) {
		t.Fatalf("Level counts differ: want %v got %v", want, got)
	}
	for i := range want.Bids() {
		if want.Bids()[i] != got.Bids()[i] {
			t.Errorf("Bid level %d differs: %+v vs %+v", i, want.Bids()[i], got.Bids()[i])
		}
	}
	for i := range want.Asks() {
		if want.Asks()[i] != got.Asks()[i] {
			t.Errorf("Ask level %d differs: %+v vs %+v", i, want.Asks()[i], got.Asks()[i])
		}
	}
}

func TestReplayDetectsGap(t *testing.T) {
	j := newJournal(2)
	for id := engine.OrderID(1); id <= 3; id++ {
		j.Add(engine.NewOrder(engine.TypeGoodTillCancel, id, engine.SideBuy, 100, 1))
	}
	entries := j.Snapshot()
	entries = []Entry{entries[1], entries[0]}

	if _, err := Replay(entries, engine.NewOrderbook()); !errors.Is(err, ErrSequenceGap) {
		t.Errorf("Expected ErrSequenceGap, got: %v", err)
	}
}

// A journal that lost its head no longer describes the book it came from.
func TestReplayDetectsDivergence(t *testing.T) {
	j := newJournal(1)
	j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 1, engine.SideSell, 100, 5))
	j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 2, engine.SideBuy, 100, 5))

	if _, err := Replay(j.Snapshot(), engine.NewOrderbook()); !errors.Is(err, ErrDiverged) {
		t.Errorf("Expected ErrDiverged, got: %v", err)
	}
}
