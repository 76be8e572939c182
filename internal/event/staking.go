package event

import "github.com/google/uuid"

// ReserveStaked converts reserve units into both derivative tokens at
// the fixed ratio.
type ReserveStaked struct {
	StakeID   uuid.UUID
	UserID    uuid.UUID
	Amount    int64
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (s *ReserveStaked) IdempotencyKey() string {
	return s.StakeID.String()
}

func (s *ReserveStaked) EventType() EventType {
	return EventTypeReserveStaked
}

func (s *ReserveStaked) Asset() *string {
	return nil
}

func (s *ReserveStaked) SourceSequence() int64 {
	return s.Sequence
}

func (s *ReserveStaked) EventTimestamp() int64 {
	return s.Timestamp
}
