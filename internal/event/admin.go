package event

import (
	"fmt"

	"github.com/google/uuid"
)

// EpochTick advances the governance epoch clock.
type EpochTick struct {
	Epoch     int64
	Sequence  int64
	Timestamp int64
}

func (e *EpochTick) IdempotencyKey() string {
	return fmt.Sprintf("epoch:%d", e.Epoch)
}

func (e *EpochTick) EventType() EventType {
	return EventTypeEpochTick
}

func (e *EpochTick) Asset() *string {
	return nil // Global event
}

func (e *EpochTick) SourceSequence() int64 {
	return e.Sequence
}

func (e *EpochTick) EventTimestamp() int64 {
	return e.Timestamp
}

// PauseSet flips the global pause flag.
type PauseSet struct {
	Paused    bool
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (p *PauseSet) IdempotencyKey() string {
	return fmt.Sprintf("pause:%d:%t", p.Sequence, p.Paused)
}

func (p *PauseSet) EventType() EventType {
	return EventTypePauseSet
}

func (p *PauseSet) Asset() *string {
	return nil
}

func (p *PauseSet) SourceSequence() int64 {
	return p.Sequence
}

func (p *PauseSet) EventTimestamp() int64 {
	return p.Timestamp
}

// ReservesSeeded adds lendable cash to a pool (admin funding).
type ReservesSeeded struct {
	SeedID    uuid.UUID
	AssetID   string
	Amount    int64
	Version   int64
	Sequence  int64
	Timestamp int64
}

func (r *ReservesSeeded) IdempotencyKey() string {
	return r.SeedID.String()
}

func (r *ReservesSeeded) EventType() EventType {
	return EventTypeReservesSeeded
}

func (r *ReservesSeeded) Asset() *string {
	return &r.AssetID
}

func (r *ReservesSeeded) SourceSequence() int64 {
	return r.Sequence
}

func (r *ReservesSeeded) EventTimestamp() int64 {
	return r.Timestamp
}

// ObligationForceUnlocked is the admin override for an expired lock.
type ObligationForceUnlocked struct {
	ObligationID uuid.UUID
	Version      int64
	Sequence     int64
	Timestamp    int64
}

func (o *ObligationForceUnlocked) IdempotencyKey() string {
	return fmt.Sprintf("force-unlock:%s:%d", o.ObligationID, o.Sequence)
}

func (o *ObligationForceUnlocked) EventType() EventType {
	return EventTypeObligationForceUnlocked
}

func (o *ObligationForceUnlocked) Asset() *string {
	return nil
}

func (o *ObligationForceUnlocked) SourceSequence() int64 {
	return o.Sequence
}

func (o *ObligationForceUnlocked) EventTimestamp() int64 {
	return o.Timestamp
}
