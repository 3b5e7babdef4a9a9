package engine

// OrderModify replaces a resting order. The replacement keeps the id and the
// order type of the original and joins the back of its new level.
type OrderModify struct {
	ID       OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

func (m OrderModify) ToOrder(orderType OrderType) *Order {
	return NewOrder(orderType, m.ID, m.Side, m.Price, m.Quantity)
}
