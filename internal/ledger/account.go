package ledger

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// AccountScope represents the top-level account namespace
type AccountScope uint8

const (
	AccountScopeUser AccountScope = iota
	AccountScopeSystem
	AccountScopeExternal
)

// AccountSubType represents the account purpose
type AccountSubType uint8

const (
	// User sub-types
	SubTypeCollateral AccountSubType = iota
	SubTypeDebt

	// System sub-types
	SubTypeSystemPoolCash
	SubTypeSystemFees

	// External sub-types
	SubTypeExternalDeposits
	SubTypeExternalWithdrawals
	SubTypeExternalBorrows
	SubTypeExternalRepayments
	SubTypeExternalSeized
)

// AssetID maps asset strings to numeric IDs for performance
type AssetID uint16

var (
	assetMu   sync.RWMutex
	assetToID = map[string]AssetID{
		"USDC":   1,
		"BTC":    2,
		"ETH":    3,
		"CREEK":  4,
		"sCREEK": 5,
		"gCREEK": 6,
	}
	idToAsset = map[AssetID]string{
		1: "USDC",
		2: "BTC",
		3: "ETH",
		4: "CREEK",
		5: "sCREEK",
		6: "gCREEK",
	}
	nextAssetID AssetID = 7
)

func GetAssetID(asset string) (AssetID, bool) {
	assetMu.RLock()
	defer assetMu.RUnlock()
	id, ok := assetToID[asset]
	return id, ok
}

func GetAssetName(id AssetID) (string, bool) {
	assetMu.RLock()
	defer assetMu.RUnlock()
	name, ok := idToAsset[id]
	return name, ok
}

// RegisterAsset assigns an ID to a newly listed asset. Idempotent.
func RegisterAsset(asset string) AssetID {
	assetMu.Lock()
	defer assetMu.Unlock()
	if id, ok := assetToID[asset]; ok {
		return id
	}
	id := nextAssetID
	nextAssetID++
	assetToID[asset] = id
	idToAsset[id] = asset
	return id
}

// AccountKey is the in-memory key for balance tracking (20 bytes, cache-friendly)
type AccountKey struct {
	Scope    AccountScope
	EntityID [16]byte // UUID for users, name bytes for system accounts
	SubType  AccountSubType
	AssetID  AssetID
}

// NewUserAccountKey creates a key for user accounts
func NewUserAccountKey(userID uuid.UUID, subType AccountSubType, assetID AssetID) AccountKey {
	return AccountKey{
		Scope:    AccountScopeUser,
		EntityID: userID,
		SubType:  subType,
		AssetID:  assetID,
	}
}

// NewSystemAccountKey creates a key for system accounts
func NewSystemAccountKey(name string, subType AccountSubType, assetID AssetID) AccountKey {
	var entityID [16]byte
	copy(entityID[:], []byte(name))
	return AccountKey{
		Scope:    AccountScopeSystem,
		EntityID: entityID,
		SubType:  subType,
		AssetID:  assetID,
	}
}

// NewExternalAccountKey creates a key for external boundary accounts
func NewExternalAccountKey(subType AccountSubType, assetID AssetID) AccountKey {
	return AccountKey{
		Scope:   AccountScopeExternal,
		SubType: subType,
		AssetID: assetID,
	}
}

// Bytes returns the fixed 20-byte encoding of the key:
// scope(1) || entity(16) || subtype(1) || asset_id(2 BE).
func (k AccountKey) Bytes() [20]byte {
	var out [20]byte
	out[0] = byte(k.Scope)
	copy(out[1:17], k.EntityID[:])
	out[17] = byte(k.SubType)
	binary.BigEndian.PutUint16(out[18:20], uint16(k.AssetID))
	return out
}

// AccountKeyFromBytes decodes a key produced by Bytes.
func AccountKeyFromBytes(raw []byte) (AccountKey, error) {
	if len(raw) != 20 {
		return AccountKey{}, fmt.Errorf("account key must be 20 bytes, got %d", len(raw))
	}
	var k AccountKey
	k.Scope = AccountScope(raw[0])
	copy(k.EntityID[:], raw[1:17])
	k.SubType = AccountSubType(raw[17])
	k.AssetID = AssetID(binary.BigEndian.Uint16(raw[18:20]))
	return k, nil
}

// AccountPath returns the string representation for storage/logging
func (k AccountKey) AccountPath() string {
	assetName, _ := GetAssetName(k.AssetID)

	switch k.Scope {
	case AccountScopeUser:
		uid := uuid.UUID(k.EntityID)
		return fmt.Sprintf("user:%s:%s:%s", uid.String(), k.subTypeName(), assetName)
	case AccountScopeSystem:
		return fmt.Sprintf("system:%s:%s", k.subTypeName(), assetName)
	case AccountScopeExternal:
		return fmt.Sprintf("external:%s:%s", k.subTypeName(), assetName)
	}
	return "unknown"
}

func (k AccountKey) subTypeName() string {
	switch k.SubType {
	case SubTypeCollateral:
		return "collateral"
	case SubTypeDebt:
		return "debt"
	case SubTypeSystemPoolCash:
		return "pool_cash"
	case SubTypeSystemFees:
		return "fees"
	case SubTypeExternalDeposits:
		return "deposits"
	case SubTypeExternalWithdrawals:
		return "withdrawals"
	case SubTypeExternalBorrows:
		return "borrows"
	case SubTypeExternalRepayments:
		return "repayments"
	case SubTypeExternalSeized:
		return "seized"
	default:
		return "unknown"
	}
}
