package engine

// TradeInfo is one side of a match, taken from that side's own order.
type TradeInfo struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

type Trade struct {
	Sequence uint64
	Bid      TradeInfo
	Ask      TradeInfo
	Price    Price // execution price, the earlier resting order's price
	Quantity Quantity
}

type Trades []Trade

// Volume is the total matched quantity.
func (ts Trades) Volume() Quantity {
	var total Quantity
	for _, t := range ts {
		total += t.Quantity
	}
	return total
}
