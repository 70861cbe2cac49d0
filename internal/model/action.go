package model

// Action is a human-friendly label for what happened on a processed date.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionBuy     Action = "BUY"
	ActionHold    Action = "HOLD"
	ActionSell    Action = "SELL"
	ActionBuySell Action = "BUY_SELL"
)

func ActionFromTrade(invested, soldFraction float64) Action {
	switch {
	case invested > 0 && soldFraction > 0:
		return ActionBuySell
	case soldFraction > 0:
		return ActionSell
	case invested > 0:
		return ActionBuy
	default:
		return ActionHold
	}
}
