package engine

import (
	"fmt"
	"math"
)

type OrderID uint64

type Price int64

type Quantity uint64

// InvalidPrice marks a market order that has not been priced yet.
const InvalidPrice Price = math.MinInt64

type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderType uint8

const (
	// rests until matched or cancelled
	TypeGoodTillCancel OrderType = iota
	// matches what it can on arrival, the remainder is dropped
	TypeFillAndKill
	// priced at the worst contra level on arrival, then treated as GoodTillCancel
	TypeMarket
)

func (t OrderType) String() string {
	switch t {
	case TypeGoodTillCancel:
		return "GOOD_TILL_CANCEL"
	case TypeFillAndKill:
		return "FILL_AND_KILL"
	case TypeMarket:
		return "MARKET"
	default:
		return fmt.Sprintf("OrderType(%d)", uint8(t))
	}
}

// Order is the fill state of one order. Orders handed to the book belong to
// it; readers get copies through Orderbook.Order.
type Order struct {
	ID                OrderID
	Side              Side
	Type              OrderType
	Price             Price
	InitialQuantity   Quantity
	RemainingQuantity Quantity
}

func NewOrder(orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) *Order {
	return &Order{
		ID:                id,
		Side:              side,
		Type:              orderType,
		Price:             price,
		InitialQuantity:   quantity,
		RemainingQuantity: quantity,
	}
}

func NewMarketOrder(id OrderID, side Side, quantity Quantity) *Order {
	return NewOrder(TypeMarket, id, side, InvalidPrice, quantity)
}

func (o *Order) FilledQuantity() Quantity {
	return o.InitialQuantity - o.RemainingQuantity
}

func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

// Fill takes quantity off the remainder. Asking for more than remains is a
// matching bug and is reported, never clamped.
func (o *Order) Fill(quantity Quantity) error {
	if quantity > o.RemainingQuantity {
		return &OverfillError{
			OrderID:   o.ID,
			Requested: quantity,
			Remaining: o.RemainingQuantity,
		}
	}
	o.RemainingQuantity -= quantity
	return nil
}

// ToGoodTillCancel prices a market order and reclassifies it.
func (o *Order) ToGoodTillCancel(price Price) error {
	if o.Type != TypeMarket {
		return fmt.Errorf("order %d: %w", o.ID, ErrNotMarketOrder)
	}
	o.Price = price
	o.Type = TypeGoodTillCancel
	return nil
}

// admissible reports whether the order satisfies the ingress contract.
func (o *Order) admissible() bool {
	if o.InitialQuantity == 0 || o.RemainingQuantity != o.InitialQuantity {
		return false
	}
	if o.Type == TypeMarket {
		return true
	}
	return o.Price != InvalidPrice && o.Price >= 0
}
