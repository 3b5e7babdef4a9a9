package main

import (
	"github.com/rs/zerolog"

	"lob-engine/src/engine"
	"lob-engine/src/journal"
)

// runDemo drives a short session through the journal and logs what the book
// looks like afterwards.
func runDemo(j *journal.Journal, log zerolog.Logger) {
	steps := []struct {
		name  string
		apply func() journal.Outcome
	}{
		{"rest ask 5@100", func() journal.Outcome {
			return j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 1, engine.SideSell, 100, 5))
		}},
		{"rest ask 5@101", func() journal.Outcome {
			return j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 2, engine.SideSell, 101, 5))
		}},
		{"rest bid 10@98", func() journal.Outcome {
			return j.Add(engine.NewOrder(engine.TypeGoodTillCancel, 3, engine.SideBuy, 98, 10))
		}},
		{"fill and kill buy 7@100", func() journal.Outcome {
			return j.Add(engine.NewOrder(engine.TypeFillAndKill, 4, engine.SideBuy, 100, 7))
		}},
		{"market buy 2", func() journal.Outcome {
			return j.Add(engine.NewMarketOrder(5, engine.SideBuy, 2))
		}},
		{"modify bid to 4@99", func() journal.Outcome {
			return j.Modify(engine.OrderModify{ID: 3, Side: engine.SideBuy, Price: 99, Quantity: 4})
		}},
		{"cancel unknown order", func() journal.Outcome {
			return j.Cancel(42)
		}},
	}

	for _, step := range steps {
		out := step.apply()
		event := log.Info().
			Str("step", step.name).
			Bool("admitted", out.Admitted).
			Bool("resting", out.Resting).
			Int("trades", len(out.Trades))
		for _, trade := range out.Trades {
			event = event.Uint64("bid_order", uint64(trade.Bid.OrderID)).
				Uint64("ask_order", uint64(trade.Ask.OrderID)).
				Int64("price", int64(trade.Price)).
				Uint64("quantity", uint64(trade.Quantity))
		}
		event.Msg("Demo step")
	}

	book := j.Book()
	infos := book.GetOrderInfos()
	for _, level := range infos.Bids() {
		log.Info().Int64("price", int64(level.Price)).Uint64("quantity", uint64(level.Quantity)).Msg("Bid level")
	}
	for _, level := range infos.Asks() {
		log.Info().Int64("price", int64(level.Price)).Uint64("quantity", uint64(level.Quantity)).Msg("Ask level")
	}
	log.Info().Int("orders", book.Size()).Int("journal_entries", j.Len()).Msg("Demo complete")
}
