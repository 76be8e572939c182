package event

import "github.com/google/uuid"

type CollateralDeposited struct {
	DepositID uuid.UUID
	UserID    uuid.UUID
	AssetID   string
	Amount    int64 // Fixed-point, 1e9
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (d *CollateralDeposited) IdempotencyKey() string {
	return d.DepositID.String()
}

func (d *CollateralDeposited) EventType() EventType {
	return EventTypeCollateralDeposited
}

func (d *CollateralDeposited) Asset() *string {
	return &d.AssetID
}

func (d *CollateralDeposited) SourceSequence() int64 {
	return d.Sequence
}

func (d *CollateralDeposited) EventTimestamp() int64 {
	return d.Timestamp
}
