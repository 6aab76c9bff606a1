package model

// Op names for replay scripts.
const (
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap            = "swap"
)

// OpRecord is one scripted pool operation in a replay input file. Fields are
// a union over the three op kinds; unused fields are left zero.
type OpRecord struct {
	Op             string  `json:"op"`
	Owner          string  `json:"owner,omitempty"`
	Capital        float64 `json:"capital,omitempty"`
	DepegTolerance float64 `json:"depeg_tolerance,omitempty"`
	FeeBps         uint32  `json:"fee_bps,omitempty"`
	TickID         int64   `json:"tick_id,omitempty"`
	Fraction       float64 `json:"fraction,omitempty"`
	TokenIn        string  `json:"token_in,omitempty"`
	TokenOut       string  `json:"token_out,omitempty"`
	AmountIn       float64 `json:"amount_in,omitempty"`
}
