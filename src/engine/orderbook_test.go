package engine

import (
	"testing"
)

// checkInvariants walks both price indices and the arena and fails the test
// on any inconsistency between them.
func checkInvariants(t *testing.T, ob *Orderbook) {
	t.Helper()

	ob.mu.Lock()
	defer ob.mu.Unlock()
	b := ob.book

	seen := make(map[OrderID]bool)
	for _, side := range [...]Side{SideBuy, SideSell} {
		var prev *PriceLevel
		for _, info := range b.sideInfos(side, 0) {
			level := b.level(side, info.Price)
			if level == nil {
				t.Fatalf("%s level %d listed but not found", side, info.Price)
			}
			if level.Empty() {
				t.Fatalf("%s level %d is empty but still indexed", side, level.Price)
			}
			if prev != nil {
				if side == SideBuy && prev.Price <= level.Price {
					t.Fatalf("bids out of order: %d before %d", prev.Price, level.Price)
				}
				if side == SideSell && prev.Price >= level.Price {
					t.Fatalf("asks out of order: %d before %d", prev.Price, level.Price)
				}
			}
			prev = level

			var total Quantity
			count := 0
			lastArrival := uint64(0)
			for ref := level.head; ref.valid; {
				entry, ok := b.orders[ref.id]
				if !ok {
					t.Fatalf("order %d queued at %d but missing from identity index", ref.id, level.Price)
				}
				if seen[ref.id] {
					t.Fatalf("order %d queued twice", ref.id)
				}
				seen[ref.id] = true
				if entry.order.Side != side || entry.order.Price != level.Price {
					t.Fatalf("order %d queued on wrong level", ref.id)
				}
				if entry.order.RemainingQuantity == 0 || entry.order.RemainingQuantity > entry.order.InitialQuantity {
					t.Fatalf("order %d has bad remaining quantity %d/%d", ref.id,
						entry.order.RemainingQuantity, entry.order.InitialQuantity)
				}
				if entry.order.Type == TypeMarket || entry.order.Price == InvalidPrice {
					t.Fatalf("order %d rests unpriced", ref.id)
				}
				if entry.arrival <= lastArrival {
					t.Fatalf("order %d breaks FIFO arrival order", ref.id)
				}
				lastArrival = entry.arrival
				total += entry.order.RemainingQuantity
				count++
				ref = entry.next
			}
			if count != level.Len() {
				t.Fatalf("level %d count %d, walked %d", level.Price, level.Len(), count)
			}
			if total != level.Quantity {
				t.Fatalf("level %d quantity %d, walked %d", level.Price, level.Quantity, total)
			}
		}
	}

	if len(seen) != len(b.orders) {
		t.Fatalf("identity index has %d orders, price levels hold %d", len(b.orders), len(seen))
	}

	bid, ask := b.bestLevel(SideBuy), b.bestLevel(SideSell)
	if bid != nil && ask != nil && bid.Price >= ask.Price {
		t.Fatalf("book rests crossed: bid %d ask %d", bid.Price, ask.Price)
	}
}

func TestOrderbookBestBidAsk(t *testing.T) {
	ob := NewOrderbook()

	ob.AddOrder(NewOrder(TypeGoodTillCancel, 1, SideBuy, 150, 100))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 2, SideBuy, 160, 200))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 3, SideBuy, 140, 300))

	price, qty, ok := ob.GetBestBid()
	if !ok {
		t.Fatal("Should have best bid")
	}
	if price != 160 || qty != 200 {
		t.Errorf("Expected best bid 200@160, got: %d@%d", qty, price)
	}

	ob.AddOrder(NewOrder(TypeGoodTillCancel, 4, SideSell, 180, 100))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 5, SideSell, 170, 50))

	price, qty, ok = ob.GetBestAsk()
	if !ok {
		t.Fatal("Should have best ask")
	}
	if price != 170 || qty != 50 {
		t.Errorf("Expected best ask 50@170, got: %d@%d", qty, price)
	}

	checkInvariants(t, ob)
}

func TestOrderbookBestBidAskEmpty(t *testing.T) {
	ob := NewOrderbook()

	if _, _, ok := ob.GetBestBid(); ok {
		t.Error("Empty book should have no best bid")
	}
	if _, _, ok := ob.GetBestAsk(); ok {
		t.Error("Empty book should have no best ask")
	}
}

// Bids come back highest first, asks lowest first, with quantities summed
// per price.
func TestGetOrderInfos(t *testing.T) {
	ob := NewOrderbook()

	ob.AddOrder(NewOrder(TypeGoodTillCancel, 1, SideBuy, 99, 10))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 2, SideBuy, 98, 5))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 3, SideBuy, 99, 7))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 4, SideSell, 101, 3))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 5, SideSell, 103, 4))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 6, SideSell, 102, 6))

	infos := ob.GetOrderInfos()

	wantBids := LevelInfos{{Price: 99, Quantity: 17}, {Price: 98, Quantity: 5}}
	wantAsks := LevelInfos{{Price: 101, Quantity: 3}, {Price: 102, Quantity: 6}, {Price: 103, Quantity: 4}}

	assertLevels(t, "bids", infos.Bids(), wantBids)
	assertLevels(t, "asks", infos.Asks(), wantAsks)
}

func TestGetOrderInfosAfterPartialFill(t *testing.T) {
	ob := NewOrderbook()

	ob.AddOrder(NewOrder(TypeGoodTillCancel, 1, SideSell, 100, 10))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 2, SideSell, 100, 10))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 3, SideBuy, 100, 4))

	assertLevels(t, "asks", ob.GetOrderInfos().Asks(), LevelInfos{{Price: 100, Quantity: 16}})
	checkInvariants(t, ob)
}

func TestDepth(t *testing.T) {
	ob := NewOrderbook()
	for i := 0; i < 10; i++ {
		ob.AddOrder(NewOrder(TypeGoodTillCancel, OrderID(i+1), SideBuy, Price(90-i), 1))
		ob.AddOrder(NewOrder(TypeGoodTillCancel, OrderID(i+101), SideSell, Price(110+i), 1))
	}

	infos := ob.Depth(3)
	assertLevels(t, "bids", infos.Bids(), LevelInfos{{90, 1}, {89, 1}, {88, 1}})
	assertLevels(t, "asks", infos.Asks(), LevelInfos{{110, 1}, {111, 1}, {112, 1}})

	if got := len(ob.Depth(0).Bids()); got != 10 {
		t.Errorf("Expected all 10 bid levels, got: %d", got)
	}
	if got := len(ob.Depth(50).Asks()); got != 10 {
		t.Errorf("Expected all 10 ask levels, got: %d", got)
	}
}

func TestEmptyPriceLevelRemoval(t *testing.T) {
	ob := NewOrderbook()

	ob.AddOrder(NewOrder(TypeGoodTillCancel, 1, SideBuy, 100, 10))
	ob.AddOrder(NewOrder(TypeGoodTillCancel, 2, SideBuy, 100, 10))
	ob.CancelOrder(1)

	if got := len(ob.GetOrderInfos().Bids()); got != 1 {
		t.Fatalf("Expected level to survive while one order rests, got %d levels", got)
	}

	ob.CancelOrder(2)
	if got := len(ob.GetOrderInfos().Bids()); got != 0 {
		t.Errorf("Expected empty level to be removed, got %d levels", got)
	}
	checkInvariants(t, ob)
}

// Cancelling from the middle, head and tail of a queue keeps the remaining
// orders in arrival order.
func TestCancelKeepsFIFOLinks(t *testing.T) {
	ob := NewOrderbook()
	for id := OrderID(1); id <= 5; id++ {
		ob.AddOrder(NewOrder(TypeGoodTillCancel, id, SideSell, 100, 1))
	}

	ob.CancelOrder(3)
	ob.CancelOrder(1)
	ob.CancelOrder(5)
	checkInvariants(t, ob)

	trades := ob.AddOrder(NewOrder(TypeGoodTillCancel, 10, SideBuy, 100, 2))
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got: %d", len(trades))
	}
	if trades[0].Ask.OrderID != 2 || trades[1].Ask.OrderID != 4 {
		t.Errorf("Expected to match 2 then 4, got %d then %d", trades[0].Ask.OrderID, trades[1].Ask.OrderID)
	}
	if ob.Size() != 0 {
		t.Errorf("Expected empty book, got size %d", ob.Size())
	}
}

func TestOrderSnapshotIsCopy(t *testing.T) {
	ob := NewOrderbook()
	submitted := NewOrder(TypeGoodTillCancel, 1, SideBuy, 100, 10)
	ob.AddOrder(submitted)

	// the caller's struct is not aliased by the book
	submitted.RemainingQuantity = 1
	submitted.Price = 1

	got, ok := ob.Order(1)
	if !ok {
		t.Fatal("Order should rest")
	}
	if got.Price != 100 || got.RemainingQuantity != 10 {
		t.Errorf("Book state changed through caller alias: %+v", got)
	}

	got.RemainingQuantity = 3
	again, _ := ob.Order(1)
	if again.RemainingQuantity != 10 {
		t.Errorf("Book state changed through snapshot: %+v", again)
	}

	if _, ok := ob.Order(2); ok {
		t.Error("Unknown order should not be found")
	}
}

func assertLevels(t *testing.T, name string, got, want LevelInfos) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d levels, got %d (%v)", name, len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d]: expected %d@%d, got %d@%d", name, i,
				want[i].Quantity, want[i].Price, got[i].Quantity, got[i].Price)
		}
	}
}
