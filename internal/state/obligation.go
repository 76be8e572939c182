package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MaxCollateralTypes bounds the distinct collateral assets one
// obligation may hold.
const MaxCollateralTypes = 5

// LockInfo is the exclusive-access capability on an obligation. The key
// is unforgeable; only the holder can release before expiry.
type LockInfo struct {
	Key       uuid.UUID `json:"key"`
	ExpiresAt int64     `json:"expires_at"`
}

// Obligation is one user position: collateral balances, a single debt
// asset with its index-scaled amount, and an optional lock.
type Obligation struct {
	ID          uuid.UUID        `json:"id"`
	Owner       uuid.UUID        `json:"owner"`
	Collaterals map[string]int64 `json:"collaterals"`
	DebtAsset   string           `json:"debt_asset"`
	DebtScaled  int64            `json:"debt_scaled"`
	Lock        *LockInfo        `json:"lock,omitempty"`
	Version     int64            `json:"version"`
}

func (o *Obligation) Locked() bool {
	return o.Lock != nil
}

// AcquireLock hands out the capability key. Fails while another lock is
// held, expired or not; expired locks are cleared only by ForceUnlock.
func (o *Obligation) AcquireLock(now, ttlSeconds int64) (uuid.UUID, error) {
	if o.Lock != nil {
		return uuid.Nil, fmt.Errorf("%w: obligation %s", ErrAlreadyLocked, o.ID)
	}
	key := uuid.New()
	o.Lock = &LockInfo{Key: key, ExpiresAt: now + ttlSeconds}
	return key, nil
}

// ReleaseLock consumes the capability. A mismatched key fails without
// touching the lock.
func (o *Obligation) ReleaseLock(key uuid.UUID) error {
	if o.Lock == nil {
		return fmt.Errorf("%w: obligation %s not locked", ErrUnlockWithWrongKey, o.ID)
	}
	if o.Lock.Key != key {
		return fmt.Errorf("%w: obligation %s", ErrUnlockWithWrongKey, o.ID)
	}
	o.Lock = nil
	return nil
}

// ForceUnlock is the admin override. Only an expired lock qualifies.
func (o *Obligation) ForceUnlock(now int64) error {
	if o.Lock == nil {
		return nil
	}
	if now < o.Lock.ExpiresAt {
		return fmt.Errorf("%w: obligation %s lock expires at %d, now %d", ErrCantForcelyUnlocked, o.ID, o.Lock.ExpiresAt, now)
	}
	o.Lock = nil
	return nil
}

// CollateralAssets returns held collateral asset IDs in deterministic order.
func (o *Obligation) CollateralAssets() []string {
	out := make([]string, 0, len(o.Collaterals))
	for k, v := range o.Collaterals {
		if v > 0 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (o *Obligation) CollateralBalance(asset string) int64 {
	return o.Collaterals[asset]
}

// HasDebt reports whether any scaled debt is outstanding.
func (o *Obligation) HasDebt() bool {
	return o.DebtScaled > 0
}

// CanonicalBytes produces a deterministic encoding for state hashing.
func (o *Obligation) CanonicalBytes() []byte {
	var buf bytes.Buffer
	buf.Write(o.ID[:])
	buf.Write(o.Owner[:])
	for _, asset := range o.CollateralAssets() {
		buf.WriteString(asset)
		binary.Write(&buf, binary.BigEndian, o.Collaterals[asset])
	}
	buf.WriteString(o.DebtAsset)
	binary.Write(&buf, binary.BigEndian, o.DebtScaled)
	binary.Write(&buf, binary.BigEndian, o.Version)
	return buf.Bytes()
}

// ObligationManager owns all obligations, keyed by obligation ID.
type ObligationManager struct {
	obligations map[uuid.UUID]*Obligation
	byOwner     map[uuid.UUID]uuid.UUID
}

func NewObligationManager() *ObligationManager {
	return &ObligationManager{
		obligations: make(map[uuid.UUID]*Obligation),
		byOwner:     make(map[uuid.UUID]uuid.UUID),
	}
}

func (om *ObligationManager) Get(id uuid.UUID) (*Obligation, bool) {
	o, ok := om.obligations[id]
	return o, ok
}

// Lookup finds the owner's obligation without creating one.
func (om *ObligationManager) Lookup(owner uuid.UUID) (*Obligation, bool) {
	id, ok := om.byOwner[owner]
	if !ok {
		return nil, false
	}
	return om.obligations[id], true
}

// obligationIDNamespace seeds version-5 obligation IDs.
var obligationIDNamespace = uuid.MustParse("8c1f4a2e-0d5b-4f83-9a67-2e91c3b7d640")

// ObligationIDFor derives the obligation ID for an owner. The ID must
// be a pure function of the owner: liquidation and force-unlock events
// are keyed by it, and a cold replay of the event log has to reproduce
// the IDs the live run handed out.
func ObligationIDFor(owner uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(obligationIDNamespace, owner[:])
}

// GetOrCreate returns the owner's obligation, creating it on first use.
// One obligation per owner in this deployment.
func (om *ObligationManager) GetOrCreate(owner uuid.UUID) *Obligation {
	if id, ok := om.byOwner[owner]; ok {
		return om.obligations[id]
	}
	o := &Obligation{
		ID:          ObligationIDFor(owner),
		Owner:       owner,
		Collaterals: make(map[string]int64),
	}
	om.obligations[o.ID] = o
	om.byOwner[owner] = o.ID
	return o
}

// All returns obligations in deterministic ID order.
func (om *ObligationManager) All() []*Obligation {
	out := make([]*Obligation, 0, len(om.obligations))
	for _, o := range om.obligations {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// ObligationSnapshot captures manager state for persistence.
type ObligationSnapshot struct {
	Obligations []Obligation `json:"obligations"`
}

func (om *ObligationManager) Snapshot() ObligationSnapshot {
	s := ObligationSnapshot{Obligations: make([]Obligation, 0, len(om.obligations))}
	for _, o := range om.All() {
		cp := *o
		cp.Collaterals = make(map[string]int64, len(o.Collaterals))
		for k, v := range o.Collaterals {
			cp.Collaterals[k] = v
		}
		if o.Lock != nil {
			l := *o.Lock
			cp.Lock = &l
		}
		s.Obligations = append(s.Obligations, cp)
	}
	return s
}

func (om *ObligationManager) Restore(s ObligationSnapshot) {
	om.obligations = make(map[uuid.UUID]*Obligation, len(s.Obligations))
	om.byOwner = make(map[uuid.UUID]uuid.UUID, len(s.Obligations))
	for _, o := range s.Obligations {
		cp := o
		om.obligations[cp.ID] = &cp
		om.byOwner[cp.Owner] = cp.ID
	}
}
