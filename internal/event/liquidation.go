package event

import "github.com/google/uuid"

// Liquidated is one soft-liquidation step submitted by a liquidator.
// SeizeAssetID is the caller's explicit collateral choice; MaxRepay caps
// how much debt the step may settle.
type Liquidated struct {
	LiquidationID uuid.UUID
	ObligationID  uuid.UUID
	LiquidatorID  uuid.UUID
	SeizeAssetID  string
	MaxRepay      int64
	Version       int64
	Sequence      int64
	Timestamp     int64
}

func (l *Liquidated) IdempotencyKey() string {
	return l.LiquidationID.String()
}

func (l *Liquidated) EventType() EventType {
	return EventTypeLiquidated
}

func (l *Liquidated) Asset() *string {
	return &l.SeizeAssetID
}

func (l *Liquidated) SourceSequence() int64 {
	return l.Sequence
}

func (l *Liquidated) EventTimestamp() int64 {
	return l.Timestamp
}
