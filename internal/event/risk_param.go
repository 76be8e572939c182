package event

import "fmt"

// RiskParamProposed stages a governance parameter update for an asset.
type RiskParamProposed struct {
	AssetID            string
	CollateralFactor   int64
	LiquidationFactor  int64
	LiquidationPenalty int64
	Isolated           bool
	Version            int64
	Sequence           int64
	Timestamp          int64
}

func (r *RiskParamProposed) IdempotencyKey() string {
	return fmt.Sprintf("risk-propose:%s:%d", r.AssetID, r.Sequence)
}

func (r *RiskParamProposed) EventType() EventType {
	return EventTypeRiskParamProposed
}

func (r *RiskParamProposed) Asset() *string {
	return &r.AssetID
}

func (r *RiskParamProposed) SourceSequence() int64 {
	return r.Sequence
}

func (r *RiskParamProposed) EventTimestamp() int64 {
	return r.Timestamp
}

// RiskParamApplied promotes a due pending update explicitly.
type RiskParamApplied struct {
	AssetID   string
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (r *RiskParamApplied) IdempotencyKey() string {
	return fmt.Sprintf("risk-apply:%s:%d", r.AssetID, r.Sequence)
}

func (r *RiskParamApplied) EventType() EventType {
	return EventTypeRiskParamApplied
}

func (r *RiskParamApplied) Asset() *string {
	return &r.AssetID
}

func (r *RiskParamApplied) SourceSequence() int64 {
	return r.Sequence
}

func (r *RiskParamApplied) EventTimestamp() int64 {
	return r.Timestamp
}

// InterestParamsSet replaces an asset's rate curve.
type InterestParamsSet struct {
	AssetID   string
	Base      int64
	Slope1    int64
	Slope2    int64
	Kink      int64
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (i *InterestParamsSet) IdempotencyKey() string {
	return fmt.Sprintf("interest-set:%s:%d", i.AssetID, i.Sequence)
}

func (i *InterestParamsSet) EventType() EventType {
	return EventTypeInterestParamsSet
}

func (i *InterestParamsSet) Asset() *string {
	return &i.AssetID
}

func (i *InterestParamsSet) SourceSequence() int64 {
	return i.Sequence
}

func (i *InterestParamsSet) EventTimestamp() int64 {
	return i.Timestamp
}
