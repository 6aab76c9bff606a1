package engine

import "errors"

// Error taxonomy. User-input errors are returned wrapped with context and
// mirrored in the Success/Message fields of the structured results, so
// callers can branch with errors.Is or inspect the result directly.
// ErrInternalInconsistency is different: it marks a defect, poisons the pool,
// and every later mutation fails with it.
var (
	ErrInvalidConfiguration  = errors.New("invalid configuration")
	ErrInvalidTickParameters = errors.New("invalid tick parameters")
	ErrInvalidTrade          = errors.New("invalid trade")
	ErrTickNotFound          = errors.New("tick not found")
	ErrInvalidFraction       = errors.New("invalid fraction")
	ErrUnknownToken          = errors.New("unknown token")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)
