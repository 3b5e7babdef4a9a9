package engine

import (
	"errors"
	"fmt"
)

var ErrNotMarketOrder = errors.New("only market orders can be converted to good till cancel")

// OverfillError means the matching loop asked an order for more than it had
// left. It is never a caller mistake.
type OverfillError struct {
	OrderID   OrderID
	Requested Quantity
	Remaining Quantity
}

func (e *OverfillError) Error() string {
	return fmt.Sprintf("order %d cannot be filled for more than its remaining quantity (requested %d, remaining %d)",
		e.OrderID, e.Requested, e.Remaining)
}
