package engine

// LevelInfo is the aggregated remaining quantity resting at one price.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

type LevelInfos []LevelInfo

// OrderbookLevelInfos is a point-in-time view of both sides, each in
// priority order (best level first).
type OrderbookLevelInfos struct {
	bids LevelInfos
	asks LevelInfos
}

func NewOrderbookLevelInfos(bids, asks LevelInfos) OrderbookLevelInfos {
	return OrderbookLevelInfos{bids: bids, asks: asks}
}

func (l OrderbookLevelInfos) Bids() LevelInfos {
	return l.bids
}

func (l OrderbookLevelInfos) Asks() LevelInfos {
	return l.asks
}
