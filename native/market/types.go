package market

import (
	"math/big"
	"strings"
)

// Roles consumed through the injected authorizer capability. The engine never
// stores role membership itself.
const (
	RoleAdmin    = "ROLE_ADMIN"
	RoleOperator = "ROLE_OPERATOR"
	RoleOracle   = "ROLE_ORACLE"
)

// PoolStatus is derived at read time from the stored resolved/cancelled flags
// and the pool deadline against current ledger time. Only the terminal flags
// are persisted, so clock-gated state can never desynchronise from storage.
type PoolStatus uint8

const (
	PoolActive PoolStatus = iota
	PoolAwaitingResolution
	PoolResolved
	PoolCancelled
)

// String returns the canonical lowercase status name used in events.
func (s PoolStatus) String() string {
	switch s {
	case PoolActive:
		return "active"
	case PoolAwaitingResolution:
		return "awaiting_resolution"
	case PoolResolved:
		return "resolved"
	case PoolCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PoolConfig carries the per-pool settlement parameters fixed at creation.
type PoolConfig struct {
	// MinStake is the smallest accepted prediction amount. Zero disables the
	// bound.
	MinStake *big.Int
	// MaxStake is the largest accepted prediction amount. Zero means
	// unbounded.
	MaxStake *big.Int
	// FeeBps is the protocol fee in basis points deducted from each winning
	// share at claim time.
	FeeBps uint32
	// ResolutionDeadline is the optional time after which resolution becomes
	// mandatory. Zero means none.
	ResolutionDeadline int64
	// AllowEarlyResolution permits operators to resolve before the end time.
	AllowEarlyResolution bool
}

// Pool is a single market round.
type Pool struct {
	ID           uint64
	Token        string
	EndTime      int64
	OptionsCount uint32
	TotalStake   *big.Int
	Resolved     bool
	Cancelled    bool
	// Outcome is meaningful only once Resolved is true.
	Outcome   uint32
	CreatedAt int64
	Config    PoolConfig
}

// Clone returns a deep copy so callers can mutate the result without touching
// the stored instance.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.TotalStake = cloneBigInt(p.TotalStake)
	clone.Config.MinStake = cloneBigInt(p.Config.MinStake)
	clone.Config.MaxStake = cloneBigInt(p.Config.MaxStake)
	return &clone
}

// Status derives the lifecycle state for the supplied ledger time.
func (p *Pool) Status(now int64) PoolStatus {
	if p == nil {
		return PoolActive
	}
	switch {
	case p.Cancelled:
		return PoolCancelled
	case p.Resolved:
		return PoolResolved
	case now >= p.EndTime:
		return PoolAwaitingResolution
	default:
		return PoolActive
	}
}

// AcceptingPredictions reports whether a prediction may still be placed.
func (p *Pool) AcceptingPredictions(now int64) bool {
	return p.Status(now) == PoolActive
}

// Prediction is one user's stake-and-outcome choice in one pool, keyed by the
// (user, pool) pair. It is immutable after placement.
type Prediction struct {
	Amount   *big.Int
	Outcome  uint32
	PlacedAt int64
}

// Clone returns a deep copy of the prediction.
func (p *Prediction) Clone() *Prediction {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Amount = cloneBigInt(p.Amount)
	return &clone
}

// PredictionDetail joins a prediction with the state of its pool for the
// paginated user listing consumed by the query layer.
type PredictionDetail struct {
	PoolID      uint64
	Amount      *big.Int
	UserOutcome uint32
	PoolEndTime int64
	PoolStatus  PoolStatus
	PoolOutcome uint32
}

// PriceFeed is the latest validated oracle snapshot for an asset pair.
type PriceFeed struct {
	Pair       string
	Price      *big.Int
	Confidence *big.Int
	Timestamp  int64
	ExpiresAt  int64
}

// Clone returns a deep copy of the feed snapshot.
func (f *PriceFeed) Clone() *PriceFeed {
	if f == nil {
		return nil
	}
	clone := *f
	clone.Price = cloneBigInt(f.Price)
	clone.Confidence = cloneBigInt(f.Confidence)
	return &clone
}

// PriceOperator selects how a feed price is compared against a target.
type PriceOperator uint8

const (
	PriceEqual PriceOperator = iota
	PriceGreaterThan
	PriceLessThan
)

// Valid reports whether the operator value is within the supported range.
func (op PriceOperator) Valid() bool {
	switch op {
	case PriceEqual, PriceGreaterThan, PriceLessThan:
		return true
	default:
		return false
	}
}

// PriceCondition is the resolution rule associated with a pool when outcome
// selection is driven by a price feed instead of a manual operator decision.
type PriceCondition struct {
	Pair         string
	TargetPrice  *big.Int
	Operator     PriceOperator
	ToleranceBps uint32
}

// Clone returns a deep copy of the condition.
func (c *PriceCondition) Clone() *PriceCondition {
	if c == nil {
		return nil
	}
	clone := *c
	clone.TargetPrice = cloneBigInt(c.TargetPrice)
	return &clone
}

// OracleConfig bounds the freshness and confidence of accepted price data.
type OracleConfig struct {
	// MaxPriceAge is the maximum accepted age of a snapshot in seconds.
	MaxPriceAge int64
	// MinConfidenceRatioBps rejects snapshots whose confidence interval
	// relative to price, in basis points, exceeds this bound.
	MinConfidenceRatioBps int64
}

// NormalizePair canonicalises an asset pair symbol such as "ETH/USD".
func NormalizePair(pair string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(pair))
	if trimmed == "" {
		return "", ErrInvalidData
	}
	return trimmed, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
