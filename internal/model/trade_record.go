package model

import "github.com/shopspring/decimal"

// TradeRecord is one executed swap, as journaled by the replay pipeline.
// Amounts are decimal strings to keep files and DB rows exact.
type TradeRecord struct {
	Run            string `json:"run"`
	Sequence       uint64 `json:"sequence"`
	TokenIn        string `json:"token_in"`
	TokenOut       string `json:"token_out"`
	InputAmount    string `json:"input_amount"`
	InputAmountNet string `json:"input_amount_net"`
	OutputAmount   string `json:"output_amount"`
	FeePaid        string `json:"fee_paid"`
	EffectivePrice string `json:"effective_price"`
	Segments       int    `json:"segments"`
	Transitions    int    `json:"transitions"`
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ExecutedAt     string `json:"executed_at"`
}

// amountScale fixes the fractional digits for journaled amounts.
const amountScale = 9

// FormatAmount renders a float amount as an exact fixed-scale decimal string.
func FormatAmount(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(amountScale)
}
