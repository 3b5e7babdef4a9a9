// Package journal records the commands applied to an order book together with
// their results. It lives outside the engine: the book itself keeps no log.
// The journal is an in-memory ring of the most recent commands and is not a
// durable store.
package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/rs/zerolog"

	"lob-engine/src/engine"
)

type Kind string

const (
	KindAdd    Kind = "ADD"
	KindCancel Kind = "CANCEL"
	KindModify Kind = "MODIFY"
)

type Entry struct {
	Sequence uint64
	Kind     Kind
	At       time.Time
	OrderID  engine.OrderID
	Order    engine.Order       // KindAdd: the order as submitted
	Modify   engine.OrderModify // KindModify: the replacement request
	Trades   engine.Trades
	Found    bool
	Admitted bool
	Resting  bool
}

// Outcome tells an adapter what a command did, which the engine's bare trade
// list cannot. Found means the id was resting before the command ran (for an
// add that makes it a duplicate). Admitted means the submitted or
// replacement order entered the book, even if it then filled or was killed.
type Outcome struct {
	Trades   engine.Trades
	Found    bool
	Admitted bool
	Resting  bool
}

// Journal serialises commands to one book through its own lock so that the
// recorded order is the order in which the book applied them.
type Journal struct {
	book     *engine.Orderbook
	log      zerolog.Logger
	capacity int

	mu      sync.Mutex
	entries deque.Deque[Entry]
	seq     uint64
	dropped uint64
}

func New(book *engine.Orderbook, capacity int, logger zerolog.Logger) *Journal {
	if capacity <= 0 {
		capacity = 1
	}
	return &Journal{
		book:     book,
		log:      logger,
		capacity: capacity,
	}
}

func (j *Journal) Book() *engine.Orderbook {
	return j.book
}

func (j *Journal) Add(order *engine.Order) Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()

	existed := j.book.Contains(order.ID)
	trades := j.book.AddOrder(order)
	resting := j.book.Contains(order.ID)

	out := Outcome{
		Trades:   trades,
		Found:    existed,
		Admitted: !existed && (len(trades) > 0 || resting),
		Resting:  resting && !existed,
	}
	j.record(Entry{
		Kind:     KindAdd,
		OrderID:  order.ID,
		Order:    *order,
		Trades:   trades,
		Found:    out.Found,
		Admitted: out.Admitted,
		Resting:  out.Resting,
	})
	return out
}

func (j *Journal) Cancel(id engine.OrderID) Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()

	existed := j.book.Contains(id)
	j.book.CancelOrder(id)

	out := Outcome{Found: existed}
	j.record(Entry{
		Kind:    KindCancel,
		OrderID: id,
		Found:   existed,
	})
	return out
}

func (j *Journal) Modify(modify engine.OrderModify) Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()

	existed := j.book.Contains(modify.ID)
	trades := j.book.ModifyOrder(modify)
	resting := j.book.Contains(modify.ID)

	out := Outcome{
		Trades:   trades,
		Found:    existed,
		Admitted: existed && (len(trades) > 0 || resting),
		Resting:  resting,
	}
	j.record(Entry{
		Kind:     KindModify,
		OrderID:  modify.ID,
		Modify:   modify,
		Trades:   trades,
		Found:    out.Found,
		Admitted: out.Admitted,
		Resting:  out.Resting,
	})
	return out
}

func (j *Journal) record(entry Entry) {
	j.seq++
	entry.Sequence = j.seq
	entry.At = time.Now()

	j.entries.PushBack(entry)
	for j.entries.Len() > j.capacity {
		j.entries.PopFront()
		j.dropped++
	}

	j.log.Debug().
		Uint64("seq", entry.Sequence).
		Str("kind", string(entry.Kind)).
		Uint64("order_id", uint64(entry.OrderID)).
		Int("trades", len(entry.Trades)).
		Bool("found", entry.Found).
		Bool("admitted", entry.Admitted).
		Msg("Journal entry recorded")
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all
// retained entries.
func (j *Journal) Recent(limit int) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := j.entries.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := j.entries.Len() - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.entries.At(i))
	}
	return out
}

// Snapshot returns every retained entry, oldest first.
func (j *Journal) Snapshot() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Entry, j.entries.Len())
	for i := range out {
		out[i] = j.entries.At(i)
	}
	return out
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.entries.Len()
}

// Dropped is how many entries were evicted to stay within capacity.
func (j *Journal) Dropped() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.dropped
}

var (
	ErrSequenceGap = errors.New("journal entries are not contiguous")
	ErrDiverged    = errors.New("replay produced different trades than recorded")
)

// Replay applies entries, oldest first, to book and returns every trade it
// produced. The entries must form a contiguous run starting from an empty
// book for the result to match the original. A mismatch between recorded
// and replayed trades is reported as ErrDiverged.
func Replay(entries []Entry, book *engine.Orderbook) (engine.Trades, error) {
	var all engine.Trades

	for i, entry := range entries {
		if i > 0 && entry.Sequence != entries[i-1].Sequence+1 {
			return all, fmt.Errorf("%w: %d follows %d", ErrSequenceGap, entry.Sequence, entries[i-1].Sequence)
		}

		var trades engine.Trades
		switch entry.Kind {
		case KindAdd:
			order := entry.Order
			trades = book.AddOrder(&order)
		case KindCancel:
			book.CancelOrder(entry.OrderID)
		case KindModify:
			trades = book.ModifyOrder(entry.Modify)
		default:
			return all, fmt.Errorf("entry %d: unknown kind %q", entry.Sequence, entry.Kind)
		}

		if !sameFills(trades, entry.Trades) {
			return all, fmt.Errorf("%w at entry %d", ErrDiverged, entry.Sequence)
		}
		all = append(all, trades...)
	}
	return all, nil
}

// sameFills compares trades ignoring sequence numbers, which depend on the
// history of the book they were produced by.
func sameFills(a, b engine.Trades) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Bid != b[i].Bid || a[i].Ask != b[i].Ask || a[i].Price != b[i].Price || a[i].Quantity != b[i].Quantity {
			return false
		}
	}
	return true
}
