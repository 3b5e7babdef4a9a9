package engine

import (
	"github.com/google/btree"
)

type orderRef struct {
	id    OrderID
	valid bool
}

func refTo(id OrderID) orderRef {
	return orderRef{id: id, valid: true}
}

// orderEntry is the single owned record of a resting order. The price level
// threads its FIFO through prev/next by id.
type orderEntry struct {
	order   Order
	arrival uint64
	prev    orderRef
	next    orderRef
}

// PriceLevel is the FIFO of resting orders at one price, oldest at head.
type PriceLevel struct {
	Price    Price
	Quantity Quantity // sum of remaining quantity
	count    int
	head     orderRef
	tail     orderRef
}

func (p *PriceLevel) Len() int {
	return p.count
}

func (p *PriceLevel) Empty() bool {
	return p.count == 0
}

func (p *PriceLevel) pushBack(arena map[OrderID]*orderEntry, e *orderEntry) {
	e.prev = p.tail
	e.next = orderRef{}
	if p.tail.valid {
		arena[p.tail.id].next = refTo(e.order.ID)
	} else {
		p.head = refTo(e.order.ID)
	}
	p.tail = refTo(e.order.ID)
	p.Quantity += e.order.RemainingQuantity
	p.count++
}

func (p *PriceLevel) unlink(arena map[OrderID]*orderEntry, e *orderEntry) {
	if e.prev.valid {
		arena[e.prev.id].next = e.next
	} else {
		p.head = e.next
	}
	if e.next.valid {
		arena[e.next.id].prev = e.prev
	} else {
		p.tail = e.prev
	}
	e.prev, e.next = orderRef{}, orderRef{}
	p.Quantity -= e.order.RemainingQuantity
	p.count--
}

func (p *PriceLevel) front(arena map[OrderID]*orderEntry) *orderEntry {
	if !p.head.valid {
		return nil
	}
	return arena[p.head.id]
}

type PriceLevelItem struct {
	PriceLevel *PriceLevel
}

// bids: highest price sorts first
func (p *PriceLevelItem) Less(than btree.Item) bool {
	other := than.(*PriceLevelItem)
	return p.PriceLevel.Price > other.PriceLevel.Price
}

type PriceLevelItemAscending struct {
	PriceLevel *PriceLevel
}

// asks: lowest price sorts first
func (p *PriceLevelItemAscending) Less(than btree.Item) bool {
	other := than.(*PriceLevelItemAscending)
	return p.PriceLevel.Price < other.PriceLevel.Price
}
