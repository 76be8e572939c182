package event

import "github.com/google/uuid"

type CollateralWithdrawn struct {
	WithdrawalID uuid.UUID
	UserID       uuid.UUID
	AssetID      string
	Amount       int64
	Version      int64
	Sequence     int64
	Timestamp    int64
}

func (w *CollateralWithdrawn) IdempotencyKey() string {
	return w.WithdrawalID.String()
}

func (w *CollateralWithdrawn) EventType() EventType {
	return EventTypeCollateralWithdrawn
}

func (w *CollateralWithdrawn) Asset() *string {
	return &w.AssetID
}

func (w *CollateralWithdrawn) SourceSequence() int64 {
	return w.Sequence
}

func (w *CollateralWithdrawn) EventTimestamp() int64 {
	return w.Timestamp
}
