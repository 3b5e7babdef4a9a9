package engine

import (
	"github.com/google/btree"
)

// book holds the two price indices and the order arena. It has no locking of
// its own; Orderbook serialises every call into it.
type book struct {
	Bids   *btree.BTree // sorted descending (highest first)
	Asks   *btree.BTree // sorted ascending (lowest first)
	orders map[OrderID]*orderEntry

	arrivals  uint64
	tradeSeqs uint64
}

func newBook() *book {
	return &book{
		Bids:   btree.New(32),
		Asks:   btree.New(32),
		orders: make(map[OrderID]*orderEntry),
	}
}

func (b *book) tree(side Side) *btree.BTree {
	if side == SideBuy {
		return b.Bids
	}
	return b.Asks
}

func levelItem(side Side, level *PriceLevel) btree.Item {
	if side == SideBuy {
		return &PriceLevelItem{PriceLevel: level}
	}
	return &PriceLevelItemAscending{PriceLevel: level}
}

func levelOf(item btree.Item) *PriceLevel {
	switch it := item.(type) {
	case *PriceLevelItem:
		return it.PriceLevel
	case *PriceLevelItemAscending:
		return it.PriceLevel
	default:
		return nil
	}
}

func (b *book) level(side Side, price Price) *PriceLevel {
	item := b.tree(side).Get(levelItem(side, &PriceLevel{Price: price}))
	if item == nil {
		return nil
	}
	return levelOf(item)
}

func (b *book) bestLevel(side Side) *PriceLevel {
	item := b.tree(side).Min()
	if item == nil {
		return nil
	}
	return levelOf(item)
}

// worstLevel is the level furthest from the touch on a side.
func (b *book) worstLevel(side Side) *PriceLevel {
	item := b.tree(side).Max()
	if item == nil {
		return nil
	}
	return levelOf(item)
}

func (b *book) contains(id OrderID) bool {
	_, ok := b.orders[id]
	return ok
}

// canMatch reports whether an order on side at price would cross the best
// opposite level.
func (b *book) canMatch(side Side, price Price) bool {
	if side == SideBuy {
		best := b.bestLevel(SideSell)
		return best != nil && price >= best.Price
	}
	best := b.bestLevel(SideBuy)
	return best != nil && price <= best.Price
}

// insert appends the order to the back of its level, creating the level if
// needed, and records it in the arena.
func (b *book) insert(order Order) {
	level := b.level(order.Side, order.Price)
	if level == nil {
		level = &PriceLevel{Price: order.Price}
		b.tree(order.Side).ReplaceOrInsert(levelItem(order.Side, level))
	}

	b.arrivals++
	entry := &orderEntry{order: order, arrival: b.arrivals}
	b.orders[order.ID] = entry
	level.pushBack(b.orders, entry)
}

func (b *book) remove(id OrderID) bool {
	entry, exists := b.orders[id]
	if !exists {
		return false
	}

	side, price := entry.order.Side, entry.order.Price
	level := b.level(side, price)
	if level != nil {
		level.unlink(b.orders, entry)
		// edge case: remove empty price level
		if level.Empty() {
			b.tree(side).Delete(levelItem(side, &PriceLevel{Price: price}))
		}
	}

	delete(b.orders, id)
	return true
}

func (b *book) fill(entry *orderEntry, level *PriceLevel, quantity Quantity) {
	if err := entry.order.Fill(quantity); err != nil {
		panic(err)
	}
	level.Quantity -= quantity
}

func (b *book) levelInfos(depth int) OrderbookLevelInfos {
	return NewOrderbookLevelInfos(b.sideInfos(SideBuy, depth), b.sideInfos(SideSell, depth))
}

// sideInfos walks one side best to worst. depth <= 0 means every level.
func (b *book) sideInfos(side Side, depth int) LevelInfos {
	tree := b.tree(side)
	size := tree.Len()
	if depth > 0 && depth < size {
		size = depth
	}

	infos := make(LevelInfos, 0, size)
	tree.Ascend(func(item btree.Item) bool {
		if depth > 0 && len(infos) >= depth {
			return false
		}
		level := levelOf(item)
		infos = append(infos, LevelInfo{Price: level.Price, Quantity: level.Quantity})
		return true
	})
	return infos
}
