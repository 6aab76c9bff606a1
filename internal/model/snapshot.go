package model

// TickSnapshot captures one liquidity position inside a PoolSnapshot.
type TickSnapshot struct {
	TickID    int64    `json:"tick_id"`
	Owner     string   `json:"owner"`
	State     string   `json:"state"`
	Radius    string   `json:"radius"`
	K         string   `json:"k"`
	Alpha     string   `json:"alpha"`
	Liquidity string   `json:"liquidity"`
	FeeBps    uint32   `json:"fee_bps"`
	Reserves  []string `json:"reserves"`
}

// PoolSnapshot captures the consolidated pool state after an operation.
type PoolSnapshot struct {
	Run            string         `json:"run"`
	Sequence       uint64         `json:"sequence"`
	TokenSymbols   []string       `json:"token_symbols"`
	TotalTicks     int            `json:"total_ticks"`
	InteriorTicks  int            `json:"interior_ticks"`
	BoundaryTicks  int            `json:"boundary_ticks"`
	TotalReserves  []string       `json:"total_reserves"`
	TotalLiquidity string         `json:"total_liquidity"`
	Ticks          []TickSnapshot `json:"ticks,omitempty"`
	TakenAt        string         `json:"taken_at"`
}
