package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"lob-engine/src/engine"
	"lob-engine/src/models"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func parseSide(side string) (engine.Side, error) {
	switch side {
	case "BUY":
		return engine.SideBuy, nil
	case "SELL":
		return engine.SideSell, nil
	default:
		return 0, &ValidationError{Message: "Invalid order: side must be BUY or SELL"}
	}
}

func parseType(orderType string) (engine.OrderType, error) {
	switch orderType {
	case "GOOD_TILL_CANCEL", "LIMIT":
		return engine.TypeGoodTillCancel, nil
	case "FILL_AND_KILL":
		return engine.TypeFillAndKill, nil
	case "MARKET":
		return engine.TypeMarket, nil
	default:
		return 0, &ValidationError{Message: "Invalid order: type must be GOOD_TILL_CANCEL, FILL_AND_KILL or MARKET"}
	}
}

func orderFromRequest(req *models.SubmitOrderRequest) (*engine.Order, error) {
	if req.OrderID == 0 {
		return nil, &ValidationError{Message: "Invalid order: order_id is required"}
	}

	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}

	orderType, err := parseType(req.Type)
	if err != nil {
		return nil, err
	}

	if req.Quantity == 0 {
		return nil, &ValidationError{Message: "Invalid order: quantity must be positive"}
	}

	if orderType == engine.TypeMarket {
		return engine.NewMarketOrder(engine.OrderID(req.OrderID), side, engine.Quantity(req.Quantity)), nil
	}

	// edge case: price required for priced orders
	if req.Price <= 0 {
		return nil, &ValidationError{Message: "Invalid order: price must be positive for GOOD_TILL_CANCEL and FILL_AND_KILL orders"}
	}

	return engine.NewOrder(orderType, engine.OrderID(req.OrderID), side, engine.Price(req.Price), engine.Quantity(req.Quantity)), nil
}

func modifyFromRequest(id engine.OrderID, req *models.ModifyOrderRequest) (engine.OrderModify, error) {
	side, err := parseSide(req.Side)
	if err != nil {
		return engine.OrderModify{}, err
	}
	if req.Quantity == 0 {
		return engine.OrderModify{}, &ValidationError{Message: "Invalid order: quantity must be positive"}
	}
	if req.Price <= 0 {
		return engine.OrderModify{}, &ValidationError{Message: "Invalid order: price must be positive"}
	}

	return engine.OrderModify{
		ID:       id,
		Side:     side,
		Price:    engine.Price(req.Price),
		Quantity: engine.Quantity(req.Quantity),
	}, nil
}

func orderIDParam(c *fiber.Ctx) (engine.OrderID, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &ValidationError{Message: "Invalid order id"}
	}
	return engine.OrderID(id), nil
}
