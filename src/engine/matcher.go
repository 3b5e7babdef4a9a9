package engine

import (
	"sync"

	"github.com/rs/zerolog"
)

type rejectReason string

const (
	rejectNone        rejectReason = ""
	rejectDuplicateID rejectReason = "duplicate order id"
	rejectNoContra    rejectReason = "market order has no contra liquidity"
	rejectCannotCross rejectReason = "fill and kill order cannot cross"
	rejectInvalid     rejectReason = "order fails ingress checks"
)

// Orderbook matches orders for a single instrument with price-time
// priority. All methods are safe for concurrent use; each one runs under a
// single exclusive lock and never blocks while holding it.
type Orderbook struct {
	book *book
	log  zerolog.Logger
	mu   sync.Mutex
}

type Option func(*Orderbook)

// WithLogger sets where rejected submissions are reported. Logging happens
// after the book lock is released.
func WithLogger(logger zerolog.Logger) Option {
	return func(ob *Orderbook) {
		ob.log = logger
	}
}

func NewOrderbook(opts ...Option) *Orderbook {
	ob := &Orderbook{
		book: newBook(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

// AddOrder admits an order and matches it. The order is copied; later changes
// to it by the caller are not seen by the book. A rejected order yields no
// trades and leaves the book unchanged.
func (ob *Orderbook) AddOrder(order *Order) Trades {
	if order == nil {
		return nil
	}

	ob.mu.Lock()
	trades, reason := ob.book.addOrder(*order)
	ob.mu.Unlock()

	ob.logReject(order, reason)
	return trades
}

// CancelOrder removes a resting order. Unknown ids are ignored.
func (ob *Orderbook) CancelOrder(id OrderID) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.book.remove(id)
}

// ModifyOrder cancels the resting order and submits the replacement with the
// original order type, all under one lock hold. The replacement always loses
// its time priority. Unknown ids yield no trades.
func (ob *Orderbook) ModifyOrder(modify OrderModify) Trades {
	ob.mu.Lock()
	entry, exists := ob.book.orders[modify.ID]
	if !exists {
		ob.mu.Unlock()
		return nil
	}
	replacement := modify.ToOrder(entry.order.Type)
	ob.book.remove(modify.ID)
	trades, reason := ob.book.addOrder(*replacement)
	ob.mu.Unlock()

	ob.logReject(replacement, reason)
	return trades
}

func (ob *Orderbook) Size() int {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return len(ob.book.orders)
}

// GetOrderInfos returns every level of both sides at one point in time.
func (ob *Orderbook) GetOrderInfos() OrderbookLevelInfos {
	return ob.Depth(0)
}

// Depth returns the best depth levels of each side; depth <= 0 returns all.
func (ob *Orderbook) Depth(depth int) OrderbookLevelInfos {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.book.levelInfos(depth)
}

// Order returns a copy of a resting order.
func (ob *Orderbook) Order(id OrderID) (Order, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	entry, exists := ob.book.orders[id]
	if !exists {
		return Order{}, false
	}
	return entry.order, true
}

func (ob *Orderbook) Contains(id OrderID) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	return ob.book.contains(id)
}

func (ob *Orderbook) GetBestBid() (price Price, quantity Quantity, ok bool) {
	return ob.best(SideBuy)
}

func (ob *Orderbook) GetBestAsk() (price Price, quantity Quantity, ok bool) {
	return ob.best(SideSell)
}

func (ob *Orderbook) best(side Side) (Price, Quantity, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	level := ob.book.bestLevel(side)
	if level == nil {
		return 0, 0, false
	}
	return level.Price, level.Quantity, true
}

func (ob *Orderbook) logReject(order *Order, reason rejectReason) {
	if reason == rejectNone {
		return
	}
	ob.log.Debug().
		Uint64("order_id", uint64(order.ID)).
		Str("side", order.Side.String()).
		Str("type", order.Type.String()).
		Uint64("quantity", uint64(order.InitialQuantity)).
		Str("reason", string(reason)).
		Msg("Order rejected")
}

func (b *book) addOrder(order Order) (Trades, rejectReason) {
	if b.contains(order.ID) {
		return nil, rejectDuplicateID
	}

	if !order.admissible() {
		return nil, rejectInvalid
	}

	if order.Type == TypeMarket {
		worst := b.worstLevel(order.Side.Opposite())
		if worst == nil {
			return nil, rejectNoContra
		}
		if err := order.ToGoodTillCancel(worst.Price); err != nil {
			panic(err)
		}
	}

	if order.Type == TypeFillAndKill && !b.canMatch(order.Side, order.Price) {
		return nil, rejectCannotCross
	}

	b.insert(order)
	return b.matchOrders(), rejectNone
}

// matchOrders trades the best bid level against the best ask level until the
// book no longer crosses, then drops any fill and kill remainder left at the
// front of either side.
func (b *book) matchOrders() Trades {
	var trades Trades

	for {
		bids := b.bestLevel(SideBuy)
		asks := b.bestLevel(SideSell)
		if bids == nil || asks == nil {
			break
		}
		if bids.Price < asks.Price {
			break
		}

		for !bids.Empty() && !asks.Empty() {
			bid := bids.front(b.orders)
			ask := asks.front(b.orders)

			quantity := min(bid.order.RemainingQuantity, ask.order.RemainingQuantity)
			b.fill(bid, bids, quantity)
			b.fill(ask, asks, quantity)

			price := ask.order.Price
			if bid.arrival < ask.arrival {
				price = bid.order.Price
			}

			b.tradeSeqs++
			trades = append(trades, Trade{
				Sequence: b.tradeSeqs,
				Bid:      TradeInfo{OrderID: bid.order.ID, Price: bid.order.Price, Quantity: quantity},
				Ask:      TradeInfo{OrderID: ask.order.ID, Price: ask.order.Price, Quantity: quantity},
				Price:    price,
				Quantity: quantity,
			})

			if bid.order.IsFilled() {
				b.remove(bid.order.ID)
			}
			if ask.order.IsFilled() {
				b.remove(ask.order.ID)
			}
		}
	}

	for _, side := range [...]Side{SideBuy, SideSell} {
		level := b.bestLevel(side)
		if level == nil {
			continue
		}
		// edge case: fill and kill never rests, even partially filled
		if front := level.front(b.orders); front != nil && front.order.Type == TypeFillAndKill {
			b.remove(front.order.ID)
		}
	}

	return trades
}
