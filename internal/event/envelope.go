package event

import (
	"time"
)

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeCollateralDeposited
	EventTypeCollateralWithdrawn
	EventTypeBorrowed
	EventTypeRepaid
	EventTypeLiquidated
	EventTypeFlashLoanExecuted
	EventTypePriceUpdate
	EventTypeRiskParamProposed
	EventTypeRiskParamApplied
	EventTypeInterestParamsSet
	EventTypeEpochTick
	EventTypePauseSet
	EventTypeReservesSeeded
	EventTypeReserveStaked
	EventTypeObligationForceUnlocked
)

// EventEnvelope wraps every event in the log
type EventEnvelope struct {
	// Global monotonic sequence assigned by core
	Sequence int64

	// Stable idempotency key from upstream
	IdempotencyKey string

	// Event type discriminator
	EventType EventType

	// Asset context (nullable for global events)
	Asset *string

	// Versioned input timestamp (NOT wall-clock)
	Timestamp time.Time

	// Upstream sequence for ordering validation
	SourceSequence int64

	// JSON-encoded event-specific data
	Payload []byte

	// SHA-256 of state AFTER applying this event
	StateHash [32]byte

	// Previous event's state hash (chain integrity)
	PrevHash [32]byte
}

// Event is the interface all event payloads must implement
type Event interface {
	// IdempotencyKey returns the stable dedup key
	IdempotencyKey() string

	// EventType returns the discriminator
	EventType() EventType

	// Asset returns the asset context (nil for global events)
	Asset() *string

	// SourceSequence returns upstream ordering key
	SourceSequence() int64

	// EventTimestamp is the versioned input time the core operates at
	EventTimestamp() int64
}

func (et EventType) String() string {
	switch et {
	case EventTypeCollateralDeposited:
		return "CollateralDeposited"
	case EventTypeCollateralWithdrawn:
		return "CollateralWithdrawn"
	case EventTypeBorrowed:
		return "Borrowed"
	case EventTypeRepaid:
		return "Repaid"
	case EventTypeLiquidated:
		return "Liquidated"
	case EventTypeFlashLoanExecuted:
		return "FlashLoanExecuted"
	case EventTypePriceUpdate:
		return "PriceUpdate"
	case EventTypeRiskParamProposed:
		return "RiskParamProposed"
	case EventTypeRiskParamApplied:
		return "RiskParamApplied"
	case EventTypeInterestParamsSet:
		return "InterestParamsSet"
	case EventTypeEpochTick:
		return "EpochTick"
	case EventTypePauseSet:
		return "PauseSet"
	case EventTypeReservesSeeded:
		return "ReservesSeeded"
	case EventTypeReserveStaked:
		return "ReserveStaked"
	case EventTypeObligationForceUnlocked:
		return "ObligationForceUnlocked"
	default:
		return "Unknown"
	}
}
