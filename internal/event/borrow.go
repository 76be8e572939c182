package event

import "github.com/google/uuid"

type Borrowed struct {
	BorrowID  uuid.UUID
	UserID    uuid.UUID
	AssetID   string
	Amount    int64
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (b *Borrowed) IdempotencyKey() string {
	return b.BorrowID.String()
}

func (b *Borrowed) EventType() EventType {
	return EventTypeBorrowed
}

func (b *Borrowed) Asset() *string {
	return &b.AssetID
}

func (b *Borrowed) SourceSequence() int64 {
	return b.Sequence
}

func (b *Borrowed) EventTimestamp() int64 {
	return b.Timestamp
}

type Repaid struct {
	RepayID   uuid.UUID
	UserID    uuid.UUID
	AssetID   string
	Amount    int64
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (r *Repaid) IdempotencyKey() string {
	return r.RepayID.String()
}

func (r *Repaid) EventType() EventType {
	return EventTypeRepaid
}

func (r *Repaid) Asset() *string {
	return &r.AssetID
}

func (r *Repaid) SourceSequence() int64 {
	return r.Sequence
}

func (r *Repaid) EventTimestamp() int64 {
	return r.Timestamp
}
