package storage

import "orbitalPool/internal/model"

// Journal defines a sink for replay artifacts.
type Journal interface {
	PutTradeBatch(trades []model.TradeRecord) error
	PutSnapshot(snapshot model.PoolSnapshot) error
}
