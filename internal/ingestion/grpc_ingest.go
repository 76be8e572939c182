package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Creek-Finance/lendcore/internal/event"
	"github.com/Creek-Finance/lendcore/internal/market"
)

// GRPCIngestService provides admin/manual event injection via gRPC.
// gRPC ingest is for admin operations and manual event injection,
// not for high-throughput ingestion (use NATS for that).
type GRPCIngestService struct {
	eventChan chan<- event.Event
}

func NewGRPCIngestService(eventChan chan<- event.Event) *GRPCIngestService {
	return &GRPCIngestService{eventChan: eventChan}
}

// Submit queues an already-parsed event for the core.
func (s *GRPCIngestService) Submit(ctx context.Context, evt event.Event) error {
	select {
	case s.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectDeposit manually injects a CollateralDeposited event.
func (s *GRPCIngestService) InjectDeposit(
	ctx context.Context,
	userID uuid.UUID,
	asset string,
	amount int64,
	sequence int64,
) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	evt := &event.CollateralDeposited{
		DepositID: uuid.New(),
		UserID:    userID,
		AssetID:   asset,
		Amount:    amount,
		Version:   market.CurrentVersion,
		Sequence:  sequence,
		Timestamp: time.Now().Unix(),
	}

	select {
	case s.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectWithdrawal manually injects a CollateralWithdrawn event.
func (s *GRPCIngestService) InjectWithdrawal(
	ctx context.Context,
	userID uuid.UUID,
	asset string,
	amount int64,
	sequence int64,
) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	evt := &event.CollateralWithdrawn{
		WithdrawalID: uuid.New(),
		UserID:       userID,
		AssetID:      asset,
		Amount:       amount,
		Version:      market.CurrentVersion,
		Sequence:     sequence,
		Timestamp:    time.Now().Unix(),
	}

	select {
	case s.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectPrice manually injects a PriceUpdate event with a single source.
func (s *GRPCIngestService) InjectPrice(
	ctx context.Context,
	asset string,
	source string,
	value int64,
	exponent int32,
	priceSequence int64,
) error {
	if value <= 0 {
		return fmt.Errorf("price value must be positive")
	}

	now := time.Now().Unix()
	evt := &event.PriceUpdate{
		AssetID:   asset,
		Source:    source,
		Value:     value,
		Exponent:  exponent,
		SampledAt: now,
		Sequence:  priceSequence,
		Timestamp: now,
	}

	select {
	case s.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectPause manually injects a PauseSet event.
func (s *GRPCIngestService) InjectPause(
	ctx context.Context,
	paused bool,
	sequence int64,
) error {
	evt := &event.PauseSet{
		Paused:    paused,
		Version:   market.CurrentVersion,
		Sequence:  sequence,
		Timestamp: time.Now().Unix(),
	}

	select {
	case s.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectReserveSeed manually injects a ReservesSeeded event.
func (s *GRPCIngestService) InjectReserveSeed(
	ctx context.Context,
	asset string,
	amount int64,
	sequence int64,
) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	evt := &event.ReservesSeeded{
		SeedID:    uuid.New(),
		AssetID:   asset,
		Amount:    amount,
		Version:   market.CurrentVersion,
		Sequence:  sequence,
		Timestamp: time.Now().Unix(),
	}

	select {
	case s.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectForceUnlock manually injects an ObligationForceUnlocked event.
func (s *GRPCIngestService) InjectForceUnlock(
	ctx context.Context,
	obligationID uuid.UUID,
	sequence int64,
) error {
	evt := &event.ObligationForceUnlocked{
		ObligationID: obligationID,
		Version:      market.CurrentVersion,
		Sequence:     sequence,
		Timestamp:    time.Now().Unix(),
	}

	select {
	case s.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
