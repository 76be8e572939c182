package oracle

import (
	"errors"
	"fmt"

	"github.com/Creek-Finance/lendcore/internal/math"
)

var (
	ErrPriceNotFound  = errors.New("oracle: price not found")
	ErrStale          = errors.New("oracle: price stale")
	ErrZeroPrice      = errors.New("oracle: zero price")
	ErrSourceMismatch = errors.New("oracle: source mismatch")
)

// Sample is one already-fetched quote from a price provider.
// Value is an integer at 10^Exponent units; Negative flags feed garbage
// that must be dropped without failing the surrounding event.
type Sample struct {
	Source    string
	Value     int64
	Exponent  int32
	Timestamp int64
	Negative  bool
}

// PriceRecord is the last validated price for an asset, 9-decimal scale.
type PriceRecord struct {
	Price     int64
	UpdatedAt int64
	Sources   []string
}

// Config tunes validation. DivergenceToleranceBps defaults to 100 (1%).
type Config struct {
	StaleAfterSeconds      int64
	DivergenceToleranceBps int64
	ReserveAsset           string
	EMAPeriods             int64
}

// Aggregator merges primary/secondary samples into one trusted price per
// asset and maintains the smoothed reference price for the reserve asset.
// Not safe for concurrent use; the deterministic core owns it.
type Aggregator struct {
	cfg     Config
	records map[string]*PriceRecord

	// EMA state for the reserve asset, kept in wad for step precision.
	ema       int64
	emaSeeded bool
}

func NewAggregator(cfg Config) *Aggregator {
	if cfg.DivergenceToleranceBps <= 0 {
		cfg.DivergenceToleranceBps = 100
	}
	if cfg.EMAPeriods <= 0 {
		cfg.EMAPeriods = 120
	}
	return &Aggregator{
		cfg:     cfg,
		records: make(map[string]*PriceRecord),
	}
}

// Submit validates a primary sample (and a secondary one when the feed
// provides it) and stores the accepted PriceRecord. Returns true when a
// record was written. Negative raw prices are dropped silently.
func (a *Aggregator) Submit(asset string, primary Sample, secondary *Sample, now int64) (bool, error) {
	if primary.Negative || primary.Value < 0 {
		return false, nil
	}
	if primary.Value == 0 {
		return false, fmt.Errorf("%w: asset %s source %s", ErrZeroPrice, asset, primary.Source)
	}
	if a.cfg.StaleAfterSeconds > 0 && now-primary.Timestamp > a.cfg.StaleAfterSeconds {
		return false, fmt.Errorf("%w: asset %s sampled at %d, now %d", ErrStale, asset, primary.Timestamp, now)
	}

	primWad := math.NormalizeSample(primary.Value, primary.Exponent)
	sources := []string{primary.Source}

	if secondary != nil {
		if secondary.Negative || secondary.Value < 0 {
			return false, nil
		}
		if secondary.Value == 0 {
			return false, fmt.Errorf("%w: asset %s source %s", ErrZeroPrice, asset, secondary.Source)
		}
		secWad := math.NormalizeSample(secondary.Value, secondary.Exponent)
		if diverged(primWad, secWad, a.cfg.DivergenceToleranceBps) {
			return false, fmt.Errorf("%w: asset %s primary %d secondary %d", ErrSourceMismatch, asset, primWad, secWad)
		}
		sources = append(sources, secondary.Source)
	}

	a.records[asset] = &PriceRecord{
		Price:     math.FromWad(primWad),
		UpdatedAt: now,
		Sources:   sources,
	}

	if asset == a.cfg.ReserveAsset {
		if !a.emaSeeded {
			a.ema = primWad
			a.emaSeeded = true
		} else {
			a.ema = math.EMAStep(a.ema, primWad, a.cfg.EMAPeriods)
		}
	}

	return true, nil
}

// diverged reports whether two wad prices differ by more than the
// tolerance, relative to the smaller of the two.
func diverged(p, s, toleranceBps int64) bool {
	diff := p - s
	if diff < 0 {
		diff = -diff
	}
	base := p
	if s < base {
		base = s
	}
	if base == 0 {
		return diff != 0
	}
	return math.MulDiv(diff, 10_000, base, math.RoundDown) > toleranceBps
}

// ValidatedPrice returns the trusted 9-decimal price for an asset,
// failing when no record exists or the record has gone stale.
func (a *Aggregator) ValidatedPrice(asset string, now int64) (int64, error) {
	rec, ok := a.records[asset]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPriceNotFound, asset)
	}
	if a.cfg.StaleAfterSeconds > 0 && now-rec.UpdatedAt > a.cfg.StaleAfterSeconds {
		return 0, fmt.Errorf("%w: asset %s last update %d, now %d", ErrStale, asset, rec.UpdatedAt, now)
	}
	return rec.Price, nil
}

// Record returns the stored PriceRecord without staleness checks.
// Projection and query paths use it; valuation paths use ValidatedPrice.
func (a *Aggregator) Record(asset string) (PriceRecord, bool) {
	rec, ok := a.records[asset]
	if !ok {
		return PriceRecord{}, false
	}
	return *rec, true
}

// ReserveEMA returns the 9-decimal EMA-120 of the reserve asset.
// The derivative asset prices off this rather than the raw sample.
func (a *Aggregator) ReserveEMA() (int64, error) {
	if !a.emaSeeded {
		return 0, fmt.Errorf("%w: reserve EMA not seeded", ErrPriceNotFound)
	}
	return math.FromWad(a.ema), nil
}

// Snapshot captures aggregator state for persistence.
type Snapshot struct {
	Records   map[string]PriceRecord `json:"records"`
	EMA       int64                  `json:"ema"`
	EMASeeded bool                   `json:"ema_seeded"`
}

func (a *Aggregator) Snapshot() Snapshot {
	recs := make(map[string]PriceRecord, len(a.records))
	for k, v := range a.records {
		recs[k] = *v
	}
	return Snapshot{Records: recs, EMA: a.ema, EMASeeded: a.emaSeeded}
}

func (a *Aggregator) Restore(s Snapshot) {
	a.records = make(map[string]*PriceRecord, len(s.Records))
	for k, v := range s.Records {
		rec := v
		a.records[k] = &rec
	}
	a.ema = s.EMA
	a.emaSeeded = s.EMASeeded
}
