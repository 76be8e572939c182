package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// NATSSubscriber subscribes to NATS JetStream subjects and feeds events
// into the deterministic core via the eventChan. NATS JetStream is the
// primary high-throughput ingestion surface; each subject maps to one
// event type so consumers can scale independently.
type NATSSubscriber struct {
	js        jetstream.JetStream
	eventChan chan<- RawEvent
	consumers []jetstream.ConsumeContext
	logger    zerolog.Logger
}

// RawEvent is the parsed-but-untyped event from NATS, ready for the shell
// to validate and convert into a typed event.Event before sending to the core.
type RawEvent struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // Call to ACK the NATS message after successful processing
	NakFunc   func() // Call to NAK on failure (will be redelivered)
}

// SubjectConfig maps NATS subjects to event types.
type SubjectConfig struct {
	Subject      string
	EventType    string
	ConsumerName string
	StreamName   string
}

// DefaultSubjects returns the standard subject configuration.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "lend.collateral.deposited.>", EventType: "CollateralDeposited", ConsumerName: "lend-deposit", StreamName: "LEND_COLLATERAL"},
		{Subject: "lend.collateral.withdrawn.>", EventType: "CollateralWithdrawn", ConsumerName: "lend-withdraw", StreamName: "LEND_COLLATERAL"},
		{Subject: "lend.debt.borrowed.>", EventType: "Borrowed", ConsumerName: "lend-borrow", StreamName: "LEND_DEBT"},
		{Subject: "lend.debt.repaid.>", EventType: "Repaid", ConsumerName: "lend-repay", StreamName: "LEND_DEBT"},
		{Subject: "lend.liquidation.>", EventType: "Liquidated", ConsumerName: "lend-liquidation", StreamName: "LEND_LIQUIDATION"},
		{Subject: "lend.flashloan.>", EventType: "FlashLoanExecuted", ConsumerName: "lend-flashloan", StreamName: "LEND_FLASHLOAN"},
		{Subject: "lend.prices.>", EventType: "PriceUpdate", ConsumerName: "lend-prices", StreamName: "LEND_PRICES"},
		{Subject: "lend.risk.proposed.>", EventType: "RiskParamProposed", ConsumerName: "lend-risk-propose", StreamName: "LEND_GOVERNANCE"},
		{Subject: "lend.risk.applied.>", EventType: "RiskParamApplied", ConsumerName: "lend-risk-apply", StreamName: "LEND_GOVERNANCE"},
		{Subject: "lend.interest.params.>", EventType: "InterestParamsSet", ConsumerName: "lend-interest-params", StreamName: "LEND_GOVERNANCE"},
		{Subject: "lend.epoch.tick.>", EventType: "EpochTick", ConsumerName: "lend-epoch", StreamName: "LEND_GOVERNANCE"},
		{Subject: "lend.admin.pause.>", EventType: "PauseSet", ConsumerName: "lend-pause", StreamName: "LEND_GOVERNANCE"},
		{Subject: "lend.admin.seed.>", EventType: "ReservesSeeded", ConsumerName: "lend-seed", StreamName: "LEND_GOVERNANCE"},
		{Subject: "lend.staking.>", EventType: "ReserveStaked", ConsumerName: "lend-stake", StreamName: "LEND_STAKING"},
		{Subject: "lend.admin.unlock.>", EventType: "ObligationForceUnlocked", ConsumerName: "lend-unlock", StreamName: "LEND_GOVERNANCE"},
	}
}

func NewNATSSubscriber(js jetstream.JetStream, eventChan chan<- RawEvent, logger zerolog.Logger) *NATSSubscriber {
	return &NATSSubscriber{
		js:        js,
		eventChan: eventChan,
		logger:    logger,
	}
}

// Subscribe creates JetStream consumers for all configured subjects.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
			raw := RawEvent{
				Subject:   msg.Subject(),
				Data:      msg.Data(),
				Timestamp: time.Now(),
				AckFunc:   func() { msg.Ack() },
				NakFunc:   func() { msg.Nak() },
			}

			select {
			case ns.eventChan <- raw:
				// Successfully queued for processing
			case <-ctx.Done():
				msg.Nak()
			}
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		ns.consumers = append(ns.consumers, consumerContext)
		ns.logger.Info().
			Str("subject", cfg.Subject).
			Str("consumer", cfg.ConsumerName).
			Msg("subscribed")
	}

	return nil
}

// EnsureStreams creates the required JetStream streams if they don't exist.
// Streams use FileStorage, retention=Limits, max_age=72h.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, logger zerolog.Logger) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      "LEND_COLLATERAL",
			Subjects:  []string{"lend.collateral.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "LEND_DEBT",
			Subjects:  []string{"lend.debt.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "LEND_LIQUIDATION",
			Subjects:  []string{"lend.liquidation.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "LEND_FLASHLOAN",
			Subjects:  []string{"lend.flashloan.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "LEND_PRICES",
			Subjects:  []string{"lend.prices.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "LEND_GOVERNANCE",
			Subjects:  []string{"lend.risk.>", "lend.interest.>", "lend.epoch.>", "lend.admin.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
		{
			Name:      "LEND_STAKING",
			Subjects:  []string{"lend.staking.>"},
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Replicas:  1,
		},
	}

	for _, cfg := range streams {
		if _, err := js.CreateOrUpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		logger.Info().Str("stream", cfg.Name).Msg("ensured stream")
	}

	return nil
}

// Stop gracefully stops all consumers.
func (ns *NATSSubscriber) Stop() {
	for _, cc := range ns.consumers {
		cc.Stop()
	}
	ns.logger.Info().Msg("NATS subscribers stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
