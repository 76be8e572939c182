package event

import "fmt"

// PriceUpdate carries one primary sample and an optional secondary
// sample for cross-validation. Values are integers at 10^Exponent.
type PriceUpdate struct {
	AssetID   string
	Source    string
	Value     int64
	Exponent  int32
	Negative  bool
	SampledAt int64

	// Secondary source, present when the feed is dual-sourced.
	SecondarySource   string
	SecondaryValue    int64
	SecondaryExponent int32
	SecondaryNegative bool
	HasSecondary      bool

	Sequence  int64
	Timestamp int64
}

func (p *PriceUpdate) IdempotencyKey() string {
	// Price updates dedup on asset + upstream sequence.
	return fmt.Sprintf("price:%s:%d", p.AssetID, p.Sequence)
}

func (p *PriceUpdate) EventType() EventType {
	return EventTypePriceUpdate
}

func (p *PriceUpdate) Asset() *string {
	return &p.AssetID
}

func (p *PriceUpdate) SourceSequence() int64 {
	return p.Sequence
}

func (p *PriceUpdate) EventTimestamp() int64 {
	return p.Timestamp
}
