package model

// Action is what a signal tells the trader to do with a position.
type Action int

const (
	ActionOpen  Action = 1
	ActionStay  Action = 0
	ActionClose Action = -1
)

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "OPEN"
	case ActionClose:
		return "CLOSE"
	default:
		return "STAY"
	}
}

// Direction is the trade leg a signal refers to. The numeric values are the
// PnL sign multipliers: +1 for BUY, -1 for SELL.
type Direction int

const (
	DirBuy  Direction = 1
	DirNone Direction = 0
	DirSell Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirBuy:
		return "BUY"
	case DirSell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Opposite returns the opposing direction (NONE stays NONE).
func (d Direction) Opposite() Direction {
	return -d
}

// Signal is the classification of one evaluated bar.
type Signal struct {
	Ctm       int64     `json:"ctm"` // bar timestamp, Unix ms
	Action    Action    `json:"action"`
	Direction Direction `json:"direction"`
	Price     float64   `json:"price"` // bar close, decimal
}
