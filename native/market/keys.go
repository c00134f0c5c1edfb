package market

import (
	"fmt"
	"math/big"
)

// Storage key layout. Every composite key is a tagged string prefix plus its
// identifying fields; the state manager hashes keys before they reach the
// backing store.
const (
	keyConfig        = "market/config"
	keyPoolCounter   = "market/pool-counter"
	keyOracleConfig  = "market/oracle-config"
	keyFeedPairs     = "market/feed-pairs"
	prefixPool       = "market/pool/"
	prefixPrediction = "market/prediction/"
	prefixOutcome    = "market/outcome-stake/"
	prefixClaimed    = "market/claimed/"
	prefixPaid       = "market/distributed/"
	prefixPredCount  = "market/user-pred-count/"
	prefixPredIndex  = "market/user-pred-index/"
	prefixFeed       = "market/feed/"
	prefixCondition  = "market/condition/"
)

func poolKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", prefixPool, id))
}

func predictionKey(user [20]byte, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", prefixPrediction, user, id))
}

func outcomeStakeKey(id uint64, outcome uint32) []byte {
	return []byte(fmt.Sprintf("%s%d/%d", prefixOutcome, id, outcome))
}

func claimedKey(user [20]byte, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", prefixClaimed, user, id))
}

func distributedKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", prefixPaid, id))
}

func predictionCountKey(user [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", prefixPredCount, user))
}

func predictionIndexKey(user [20]byte, n uint32) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", prefixPredIndex, user, n))
}

func feedKey(pair string) []byte {
	return []byte(prefixFeed + pair)
}

func conditionKey(id uint64) []byte {
	return []byte(prefixCondition + fmt.Sprintf("%d", id))
}

// Stored forms. RLP has no signed integers, so timestamps persist as uint64;
// all stored big.Ints are non-negative by construction.

type storedConfig struct {
	Treasury      [20]byte
	DefaultFeeBps uint32
	Paused        bool
}

type storedPool struct {
	ID                   uint64
	Token                string
	EndTime              uint64
	OptionsCount         uint32
	TotalStake           *big.Int
	Resolved             bool
	Cancelled            bool
	Outcome              uint32
	CreatedAt            uint64
	MinStake             *big.Int
	MaxStake             *big.Int
	FeeBps               uint32
	ResolutionDeadline   uint64
	AllowEarlyResolution bool
}

func (s *storedPool) toPool() *Pool {
	if s == nil {
		return nil
	}
	return &Pool{
		ID:           s.ID,
		Token:        s.Token,
		EndTime:      int64(s.EndTime),
		OptionsCount: s.OptionsCount,
		TotalStake:   cloneBigInt(s.TotalStake),
		Resolved:     s.Resolved,
		Cancelled:    s.Cancelled,
		Outcome:      s.Outcome,
		CreatedAt:    int64(s.CreatedAt),
		Config: PoolConfig{
			MinStake:             cloneBigInt(s.MinStake),
			MaxStake:             cloneBigInt(s.MaxStake),
			FeeBps:               s.FeeBps,
			ResolutionDeadline:   int64(s.ResolutionDeadline),
			AllowEarlyResolution: s.AllowEarlyResolution,
		},
	}
}

func poolToStored(p *Pool) *storedPool {
	if p == nil {
		return nil
	}
	return &storedPool{
		ID:                   p.ID,
		Token:                p.Token,
		EndTime:              uint64(p.EndTime),
		OptionsCount:         p.OptionsCount,
		TotalStake:           cloneBigInt(p.TotalStake),
		Resolved:             p.Resolved,
		Cancelled:            p.Cancelled,
		Outcome:              p.Outcome,
		CreatedAt:            uint64(p.CreatedAt),
		MinStake:             cloneBigInt(p.Config.MinStake),
		MaxStake:             cloneBigInt(p.Config.MaxStake),
		FeeBps:               p.Config.FeeBps,
		ResolutionDeadline:   uint64(p.Config.ResolutionDeadline),
		AllowEarlyResolution: p.Config.AllowEarlyResolution,
	}
}

type storedPrediction struct {
	Amount   *big.Int
	Outcome  uint32
	PlacedAt uint64
}

func (s *storedPrediction) toPrediction() *Prediction {
	if s == nil {
		return nil
	}
	return &Prediction{
		Amount:   cloneBigInt(s.Amount),
		Outcome:  s.Outcome,
		PlacedAt: int64(s.PlacedAt),
	}
}

type storedFeed struct {
	Pair       string
	Price      *big.Int
	Confidence *big.Int
	Timestamp  uint64
	ExpiresAt  uint64
}

func (s *storedFeed) toFeed() *PriceFeed {
	if s == nil {
		return nil
	}
	return &PriceFeed{
		Pair:       s.Pair,
		Price:      cloneBigInt(s.Price),
		Confidence: cloneBigInt(s.Confidence),
		Timestamp:  int64(s.Timestamp),
		ExpiresAt:  int64(s.ExpiresAt),
	}
}

type storedCondition struct {
	Pair         string
	TargetPrice  *big.Int
	Operator     uint8
	ToleranceBps uint32
}

func (s *storedCondition) toCondition() *PriceCondition {
	if s == nil {
		return nil
	}
	return &PriceCondition{
		Pair:         s.Pair,
		TargetPrice:  cloneBigInt(s.TargetPrice),
		Operator:     PriceOperator(s.Operator),
		ToleranceBps: s.ToleranceBps,
	}
}

type storedOracleConfig struct {
	MaxPriceAge           uint64
	MinConfidenceRatioBps uint64
}
