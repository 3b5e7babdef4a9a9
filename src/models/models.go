package models

type SubmitOrderRequest struct {
	OrderID  uint64 `json:"order_id"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    int64  `json:"price"` // ignored for MARKET
	Quantity uint64 `json:"quantity"`
}

type ModifyOrderRequest struct {
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type SubmitOrderResponse struct {
	OrderID           uint64      `json:"order_id"`
	Status            string      `json:"status"`
	Message           string      `json:"message,omitempty"`
	FilledQuantity    uint64      `json:"filled_quantity"`
	RemainingQuantity uint64      `json:"remaining_quantity"`
	Trades            []TradeInfo `json:"trades,omitempty"`
}

type TradeLeg struct {
	OrderID  uint64 `json:"order_id"`
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type TradeInfo struct {
	Sequence uint64   `json:"sequence"`
	Price    int64    `json:"price"`
	Quantity uint64   `json:"quantity"`
	Bid      TradeLeg `json:"bid"`
	Ask      TradeLeg `json:"ask"`
}

type CancelOrderResponse struct {
	OrderID uint64 `json:"order_id"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderBookResponse struct {
	Timestamp int64            `json:"timestamp"` // unix timestamp in milliseconds
	Orders    int              `json:"orders"`
	Bids      []PriceLevelInfo `json:"bids"` // sorted descending (highest first)
	Asks      []PriceLevelInfo `json:"asks"` // sorted ascending (lowest first)
}

type PriceLevelInfo struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"` // aggregated remaining quantity at this price
}

type OrderStatusResponse struct {
	OrderID           uint64 `json:"order_id"`
	Side              string `json:"side"`
	Type              string `json:"type"`
	Price             int64  `json:"price"`
	InitialQuantity   uint64 `json:"initial_quantity"`
	RemainingQuantity uint64 `json:"remaining_quantity"`
	FilledQuantity    uint64 `json:"filled_quantity"`
	Status            string `json:"status"`
}

type JournalEntryInfo struct {
	Sequence  uint64      `json:"sequence"`
	Kind      string      `json:"kind"`
	OrderID   uint64      `json:"order_id"`
	Timestamp int64       `json:"timestamp"` // unix timestamp in milliseconds
	Admitted  bool        `json:"admitted"`
	Resting   bool        `json:"resting"`
	Trades    []TradeInfo `json:"trades,omitempty"`
}

type JournalResponse struct {
	Retained int                `json:"retained"`
	Dropped  uint64             `json:"dropped"`
	Entries  []JournalEntryInfo `json:"entries"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	OrdersInBook  int    `json:"orders_in_book"`
}

type MetricsResponse struct {
	OrdersReceived         int64   `json:"orders_received"`
	OrdersRejected         int64   `json:"orders_rejected"`
	OrdersMatched          int64   `json:"orders_matched"`
	OrdersCancelled        int64   `json:"orders_cancelled"`
	OrdersModified         int64   `json:"orders_modified"`
	OrdersInBook           int64   `json:"orders_in_book"`
	TradesExecuted         int64   `json:"trades_executed"`
	LatencyP50Ms           float64 `json:"latency_p50_ms"`
	LatencyP99Ms           float64 `json:"latency_p99_ms"`
	LatencyP999Ms          float64 `json:"latency_p999_ms"`
	ThroughputOrdersPerSec float64 `json:"throughput_orders_per_sec"`
}
