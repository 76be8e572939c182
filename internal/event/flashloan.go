package event

import "github.com/google/uuid"

// FlashLoanExecuted carries a complete borrow-and-repay cycle: the whole
// unit of work settles atomically or not at all, so the wire event holds
// both legs.
type FlashLoanExecuted struct {
	LoanID      uuid.UUID
	BorrowerID  uuid.UUID
	AssetID     string
	Amount      int64
	RepayAmount int64
	Version     int64
	Sequence    int64
	Timestamp   int64
}

func (f *FlashLoanExecuted) IdempotencyKey() string {
	return f.LoanID.String()
}

func (f *FlashLoanExecuted) EventType() EventType {
	return EventTypeFlashLoanExecuted
}

func (f *FlashLoanExecuted) Asset() *string {
	return &f.AssetID
}

func (f *FlashLoanExecuted) SourceSequence() int64 {
	return f.Sequence
}

func (f *FlashLoanExecuted) EventTimestamp() int64 {
	return f.Timestamp
}
