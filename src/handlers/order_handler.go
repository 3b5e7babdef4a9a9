package handlers

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"lob-engine/src/config"
	"lob-engine/src/engine"
	"lob-engine/src/journal"
	"lob-engine/src/middleware"
	"lob-engine/src/models"
)

const (
	StatusAccepted    = "ACCEPTED"
	StatusPartialFill = "PARTIAL_FILL"
	StatusFilled      = "FILLED"
	StatusKilled      = "KILLED"
	StatusRejected    = "REJECTED"
	StatusCancelled   = "CANCELLED"
	StatusNotResting  = "NOT_RESTING"
	StatusResting     = "RESTING"
)

type OrderHandler struct {
	Journal   *journal.Journal
	Book      *engine.Orderbook
	StartTime time.Time

	OrdersReceived  int64
	OrdersRejected  int64
	OrdersMatched   int64
	OrdersCancelled int64
	OrdersModified  int64
	TradesExecuted  int64

	defaultDepth int
	maxDepth     int

	latencies    []time.Duration
	latenciesMu  sync.RWMutex
	maxLatencies int
}

func NewOrderHandler(j *journal.Journal, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		Journal:      j,
		Book:         j.Book(),
		StartTime:    time.Now(),
		defaultDepth: cfg.Orderbook.DefaultDepth,
		maxDepth:     cfg.Orderbook.MaxDepth,
		latencies:    make([]time.Duration, 0, cfg.Metrics.MaxLatencies),
		maxLatencies: cfg.Metrics.MaxLatencies,
	}
}

func (h *OrderHandler) SubmitOrder(c *fiber.Ctx) error {
	var req models.SubmitOrderRequest

	if err := c.BodyParser(&req); err != nil {
		log.Warn().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("ip", c.IP()).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	order, err := orderFromRequest(&req)
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Uint64("order_id", req.OrderID).
			Str("side", req.Side).
			Str("type", req.Type).
			Msg("Invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	log.Info().
		Str("request_id", middleware.RequestIDFrom(c)).
		Uint64("order_id", req.OrderID).
		Str("side", order.Side.String()).
		Str("type", order.Type.String()).
		Int64("price", int64(order.Price)).
		Uint64("quantity", req.Quantity).
		Msg("Order submitted")

	atomic.AddInt64(&h.OrdersReceived, 1)

	startTime := time.Now()
	outcome := h.Journal.Add(order)
	h.recordLatency(time.Since(startTime))

	if !outcome.Admitted {
		atomic.AddInt64(&h.OrdersRejected, 1)
		message := "Order rejected: no contra liquidity or fill and kill could not cross"
		if outcome.Found {
			message = "Order rejected: order id already resting"
		}
		log.Info().
			Str("request_id", middleware.RequestIDFrom(c)).
			Uint64("order_id", req.OrderID).
			Bool("duplicate", outcome.Found).
			Msg("Order rejected")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.SubmitOrderResponse{
			OrderID:           req.OrderID,
			Status:            StatusRejected,
			Message:           message,
			RemainingQuantity: req.Quantity,
		})
	}

	response := h.fillResponse(req.OrderID, req.Quantity, outcome)

	log.Info().
		Str("request_id", middleware.RequestIDFrom(c)).
		Uint64("order_id", req.OrderID).
		Str("status", response.Status).
		Uint64("filled_quantity", response.FilledQuantity).
		Uint64("remaining_quantity", response.RemainingQuantity).
		Int("trades_count", len(outcome.Trades)).
		Msg("Order processed")

	return c.Status(statusCode(response.Status)).JSON(response)
}

func (h *OrderHandler) ModifyOrder(c *fiber.Ctx) error {
	id, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	var req models.ModifyOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	modify, err := modifyFromRequest(id, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	startTime := time.Now()
	outcome := h.Journal.Modify(modify)
	h.recordLatency(time.Since(startTime))

	if !outcome.Found {
		log.Warn().
			Str("request_id", middleware.RequestIDFrom(c)).
			Uint64("order_id", uint64(id)).
			Msg("Modify order: order not resting")
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order not found",
		})
	}

	atomic.AddInt64(&h.OrdersModified, 1)

	// edge case: the original is gone even when its replacement is rejected
	if !outcome.Admitted {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.SubmitOrderResponse{
			OrderID:           uint64(id),
			Status:            StatusRejected,
			Message:           "Original order cancelled; replacement could not be admitted",
			RemainingQuantity: req.Quantity,
		})
	}

	response := h.fillResponse(uint64(id), req.Quantity, outcome)

	log.Info().
		Str("request_id", middleware.RequestIDFrom(c)).
		Uint64("order_id", uint64(id)).
		Str("status", response.Status).
		Int("trades_count", len(outcome.Trades)).
		Msg("Order modified")

	return c.Status(statusCode(response.Status)).JSON(response)
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	outcome := h.Journal.Cancel(id)

	// cancelling an unknown or finished order is not an error
	if !outcome.Found {
		return c.Status(fiber.StatusOK).JSON(models.CancelOrderResponse{
			OrderID: uint64(id),
			Status:  StatusNotResting,
		})
	}

	atomic.AddInt64(&h.OrdersCancelled, 1)

	log.Info().
		Str("request_id", middleware.RequestIDFrom(c)).
		Uint64("order_id", uint64(id)).
		Msg("Order cancelled")

	return c.Status(fiber.StatusOK).JSON(models.CancelOrderResponse{
		OrderID: uint64(id),
		Status:  StatusCancelled,
	})
}

func (h *OrderHandler) GetOrderStatus(c *fiber.Ctx) error {
	id, err := orderIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	order, ok := h.Book.Order(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order not found",
		})
	}

	status := StatusResting
	if order.FilledQuantity() > 0 {
		status = StatusPartialFill
	}

	return c.Status(fiber.StatusOK).JSON(models.OrderStatusResponse{
		OrderID:           uint64(order.ID),
		Side:              order.Side.String(),
		Type:              order.Type.String(),
		Price:             int64(order.Price),
		InitialQuantity:   uint64(order.InitialQuantity),
		RemainingQuantity: uint64(order.RemainingQuantity),
		FilledQuantity:    uint64(order.FilledQuantity()),
		Status:            status,
	})
}

func (h *OrderHandler) GetOrderBook(c *fiber.Ctx) error {
	depth, err := strconv.Atoi(c.Query("depth", strconv.Itoa(h.defaultDepth)))
	if err != nil || depth <= 0 {
		depth = h.defaultDepth
	}

	// edge case: enforce maximum depth limit
	if depth > h.maxDepth {
		depth = h.maxDepth
	}

	infos := h.Book.Depth(depth)

	return c.Status(fiber.StatusOK).JSON(models.OrderBookResponse{
		Timestamp: time.Now().UnixMilli(),
		Orders:    h.Book.Size(),
		Bids:      levelInfos(infos.Bids()),
		Asks:      levelInfos(infos.Asks()),
	})
}

func (h *OrderHandler) GetJournal(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	entries := h.Journal.Recent(limit)
	infos := make([]models.JournalEntryInfo, 0, len(entries))
	for _, entry := range entries {
		infos = append(infos, models.JournalEntryInfo{
			Sequence:  entry.Sequence,
			Kind:      string(entry.Kind),
			OrderID:   uint64(entry.OrderID),
			Timestamp: entry.At.UnixMilli(),
			Admitted:  entry.Admitted,
			Resting:   entry.Resting,
			Trades:    tradeInfos(entry.Trades),
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.JournalResponse{
		Retained: h.Journal.Len(),
		Dropped:  h.Journal.Dropped(),
		Entries:  infos,
	})
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	uptime := time.Since(h.StartTime).Seconds()

	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(uptime),
		OrdersInBook:  h.Book.Size(),
	})
}

func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	p50, p99, p999 := h.calculateLatencyPercentiles()

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersReceived:         atomic.LoadInt64(&h.OrdersReceived),
		OrdersRejected:         atomic.LoadInt64(&h.OrdersRejected),
		OrdersMatched:          atomic.LoadInt64(&h.OrdersMatched),
		OrdersCancelled:        atomic.LoadInt64(&h.OrdersCancelled),
		OrdersModified:         atomic.LoadInt64(&h.OrdersModified),
		OrdersInBook:           int64(h.Book.Size()),
		TradesExecuted:         atomic.LoadInt64(&h.TradesExecuted),
		LatencyP50Ms:           p50,
		LatencyP99Ms:           p99,
		LatencyP999Ms:          p999,
		ThroughputOrdersPerSec: h.calculateThroughput(),
	})
}

func (h *OrderHandler) fillResponse(id, quantity uint64, outcome journal.Outcome) models.SubmitOrderResponse {
	filled := uint64(outcome.Trades.Volume())

	var status string
	switch {
	case outcome.Resting && filled == 0:
		status = StatusAccepted
	case outcome.Resting:
		status = StatusPartialFill
	case filled >= quantity:
		status = StatusFilled
	default:
		status = StatusKilled
	}

	if filled > 0 {
		atomic.AddInt64(&h.OrdersMatched, 1)
	}
	atomic.AddInt64(&h.TradesExecuted, int64(len(outcome.Trades)))

	response := models.SubmitOrderResponse{
		OrderID:        id,
		Status:         status,
		FilledQuantity: filled,
		Trades:         tradeInfos(outcome.Trades),
	}
	if outcome.Resting {
		response.RemainingQuantity = quantity - filled
	}
	switch status {
	case StatusAccepted:
		response.Message = "Order added to book"
	case StatusKilled:
		response.Message = "Unfilled remainder discarded"
	}
	return response
}

func statusCode(status string) int {
	switch status {
	case StatusAccepted:
		return fiber.StatusCreated
	case StatusPartialFill:
		return fiber.StatusAccepted
	default:
		return fiber.StatusOK
	}
}

func tradeInfos(trades engine.Trades) []models.TradeInfo {
	if len(trades) == 0 {
		return nil
	}
	infos := make([]models.TradeInfo, 0, len(trades))
	for _, trade := range trades {
		infos = append(infos, models.TradeInfo{
			Sequence: trade.Sequence,
			Price:    int64(trade.Price),
			Quantity: uint64(trade.Quantity),
			Bid:      tradeLeg(trade.Bid),
			Ask:      tradeLeg(trade.Ask),
		})
	}
	return infos
}

func tradeLeg(info engine.TradeInfo) models.TradeLeg {
	return models.TradeLeg{
		OrderID:  uint64(info.OrderID),
		Price:    int64(info.Price),
		Quantity: uint64(info.Quantity),
	}
}

func levelInfos(levels engine.LevelInfos) []models.PriceLevelInfo {
	infos := make([]models.PriceLevelInfo, 0, len(levels))
	for _, level := range levels {
		infos = append(infos, models.PriceLevelInfo{
			Price:    int64(level.Price),
			Quantity: uint64(level.Quantity),
		})
	}
	return infos
}

func (h *OrderHandler) recordLatency(latency time.Duration) {
	h.latenciesMu.Lock()
	defer h.latenciesMu.Unlock()

	h.latencies = append(h.latencies, latency)

	// edge case: maintain rolling window by removing oldest measurements
	if len(h.latencies) > h.maxLatencies {
		removeCount := len(h.latencies) - h.maxLatencies
		h.latencies = h.latencies[removeCount:]
	}
}

func (h *OrderHandler) calculateLatencyPercentiles() (p50, p99, p999 float64) {
	h.latenciesMu.RLock()
	latenciesCopy := make([]time.Duration, len(h.latencies))
	copy(latenciesCopy, h.latencies)
	h.latenciesMu.RUnlock()

	if len(latenciesCopy) == 0 {
		return 0, 0, 0
	}

	sort.Slice(latenciesCopy, func(i, j int) bool {
		return latenciesCopy[i] < latenciesCopy[j]
	})

	percentile := func(p float64) float64 {
		idx := int(float64(len(latenciesCopy)) * p)
		// edge case: ensure index is within bounds
		if idx >= len(latenciesCopy) {
			idx = len(latenciesCopy) - 1
		}
		return float64(latenciesCopy[idx].Nanoseconds()) / 1e6
	}

	return percentile(0.50), percentile(0.99), percentile(0.999)
}

func (h *OrderHandler) calculateThroughput() float64 {
	uptime := time.Since(h.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}

	ordersReceived := atomic.LoadInt64(&h.OrdersReceived)
	return float64(ordersReceived) / uptime
}
