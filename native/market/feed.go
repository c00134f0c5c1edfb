package market

import (
	"math/big"

	"predifi/state"
)

// PriceFeedUpdate is one snapshot in a feed update, single or batched.
type PriceFeedUpdate struct {
	Pair       string
	Price      *big.Int
	Confidence *big.Int
	Timestamp  int64
	ExpiresAt  int64
}

// SetOracleConfig stores the freshness and confidence bounds applied when
// validating price snapshots. Admin role required.
func (e *Engine) SetOracleConfig(admin [20]byte, cfg OracleConfig) error {
	if _, err := e.requireReady(); err != nil {
		return err
	}
	if err := e.requireRole(admin, RoleAdmin); err != nil {
		return err
	}
	if cfg.MaxPriceAge <= 0 || cfg.MinConfidenceRatioBps < 0 {
		return ErrInvalidData
	}
	stored := storedOracleConfig{
		MaxPriceAge:           uint64(cfg.MaxPriceAge),
		MinConfidenceRatioBps: uint64(cfg.MinConfidenceRatioBps),
	}
	if err := e.state.KVPut([]byte(keyOracleConfig), &stored); err != nil {
		return ErrStorage
	}
	return nil
}

// SeedOracleConfig stores the validation bounds only when none exist yet.
// Used by startup wiring; later changes go through SetOracleConfig.
func (e *Engine) SeedOracleConfig(cfg OracleConfig) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if cfg.MaxPriceAge <= 0 || cfg.MinConfidenceRatioBps < 0 {
		return ErrInvalidData
	}
	ok, err := e.state.KVHas([]byte(keyOracleConfig))
	if err != nil {
		return ErrStorage
	}
	if ok {
		return nil
	}
	stored := storedOracleConfig{
		MaxPriceAge:           uint64(cfg.MaxPriceAge),
		MinConfidenceRatioBps: uint64(cfg.MinConfidenceRatioBps),
	}
	if err := e.state.KVPut([]byte(keyOracleConfig), &stored); err != nil {
		return ErrStorage
	}
	return nil
}

// OracleConfig returns the configured price validation bounds.
func (e *Engine) OracleConfig() (OracleConfig, error) {
	if err := e.requireState(); err != nil {
		return OracleConfig{}, err
	}
	var stored storedOracleConfig
	ok, err := e.state.KVGet([]byte(keyOracleConfig), &stored)
	if err != nil {
		return OracleConfig{}, ErrStorage
	}
	if !ok {
		return OracleConfig{}, ErrNotInitialized
	}
	return OracleConfig{
		MaxPriceAge:           int64(stored.MaxPriceAge),
		MinConfidenceRatioBps: int64(stored.MinConfidenceRatioBps),
	}, nil
}

func (e *Engine) feedPairs() ([]string, error) {
	var pairs []string
	if _, err := e.state.KVGet([]byte(keyFeedPairs), &pairs); err != nil {
		return nil, ErrStorage
	}
	return pairs, nil
}

// validateFeedUpdate normalises and checks one snapshot against the current
// clock, returning its stored form.
func (e *Engine) validateFeedUpdate(upd PriceFeedUpdate, now int64) (*storedFeed, error) {
	normalized, err := NormalizePair(upd.Pair)
	if err != nil {
		return nil, err
	}
	if upd.Price == nil || upd.Price.Sign() <= 0 || !fitsInt128(upd.Price) {
		return nil, ErrInvalidAmount
	}
	if upd.Confidence == nil || upd.Confidence.Sign() < 0 || !fitsInt128(upd.Confidence) {
		return nil, ErrInvalidAmount
	}
	if upd.Timestamp > now || upd.ExpiresAt <= upd.Timestamp {
		return nil, ErrInvalidTimestamp
	}
	return &storedFeed{
		Pair:       normalized,
		Price:      cloneBigInt(upd.Price),
		Confidence: cloneBigInt(upd.Confidence),
		Timestamp:  uint64(upd.Timestamp),
		ExpiresAt:  uint64(upd.ExpiresAt),
	}, nil
}

// UpdatePriceFeed replaces the stored snapshot for the pair. Oracle role
// required. Only the latest snapshot per pair is kept.
func (e *Engine) UpdatePriceFeed(oracle [20]byte, pair string, price, confidence *big.Int, timestamp, expiresAt int64) error {
	return e.BatchUpdatePriceFeeds(oracle, []PriceFeedUpdate{{
		Pair:       pair,
		Price:      price,
		Confidence: confidence,
		Timestamp:  timestamp,
		ExpiresAt:  expiresAt,
	}})
}

// BatchUpdatePriceFeeds validates every snapshot first and then commits them
// together with the pair index, so one bad entry rejects the whole batch.
// Oracle role required.
func (e *Engine) BatchUpdatePriceFeeds(oracle [20]byte, updates []PriceFeedUpdate) error {
	if _, err := e.requireReady(); err != nil {
		return err
	}
	if err := e.requireRole(oracle, RoleOracle); err != nil {
		return err
	}
	if len(updates) == 0 {
		return ErrInvalidData
	}
	now := e.now()
	feeds := make([]*storedFeed, 0, len(updates))
	for _, upd := range updates {
		feed, err := e.validateFeedUpdate(upd, now)
		if err != nil {
			return err
		}
		feeds = append(feeds, feed)
	}
	pairs, err := e.feedPairs()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		known[pair] = true
	}
	writes := make([]state.KVWrite, 0, len(feeds)+1)
	indexChanged := false
	for _, feed := range feeds {
		writes = append(writes, state.KVWrite{Key: feedKey(feed.Pair), Value: feed})
		if !known[feed.Pair] {
			known[feed.Pair] = true
			pairs = append(pairs, feed.Pair)
			indexChanged = true
		}
	}
	if indexChanged {
		writes = append(writes, state.KVWrite{Key: []byte(keyFeedPairs), Value: pairs})
	}
	if err := e.commit(writes, nil); err != nil {
		return err
	}
	for _, feed := range feeds {
		e.emit(newPriceFeedUpdatedEvent(feed.toFeed(), oracle))
	}
	return nil
}

// PriceFeed returns the latest stored snapshot for the pair.
func (e *Engine) PriceFeed(pair string) (*PriceFeed, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	normalized, err := NormalizePair(pair)
	if err != nil {
		return nil, err
	}
	var stored storedFeed
	ok, err := e.state.KVGet(feedKey(normalized), &stored)
	if err != nil {
		return nil, ErrStorage
	}
	if !ok {
		return nil, ErrPriceFeedNotFound
	}
	return stored.toFeed(), nil
}

// AvailableFeeds lists the pairs with a stored snapshot, in first-seen order.
func (e *Engine) AvailableFeeds() ([]string, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	pairs, err := e.feedPairs()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(pairs))
	copy(out, pairs)
	return out, nil
}

// CleanupExpiredFeeds removes every snapshot past its expiry and reports how
// many were dropped. Oracle role required.
func (e *Engine) CleanupExpiredFeeds(oracle [20]byte) (int, error) {
	if _, err := e.requireReady(); err != nil {
		return 0, err
	}
	if err := e.requireRole(oracle, RoleOracle); err != nil {
		return 0, err
	}
	pairs, err := e.feedPairs()
	if err != nil {
		return 0, err
	}
	now := e.now()
	kept := make([]string, 0, len(pairs))
	removed := make([]string, 0)
	writes := make([]state.KVWrite, 0)
	for _, pair := range pairs {
		var stored storedFeed
		ok, err := e.state.KVGet(feedKey(pair), &stored)
		if err != nil {
			return 0, ErrStorage
		}
		if ok && now <= int64(stored.ExpiresAt) {
			kept = append(kept, pair)
			continue
		}
		if ok {
			writes = append(writes, state.KVWrite{Key: feedKey(pair), Delete: true})
		}
		removed = append(removed, pair)
	}
	if len(removed) == 0 {
		return 0, nil
	}
	writes = append(writes, state.KVWrite{Key: []byte(keyFeedPairs), Value: kept})
	if err := e.commit(writes, nil); err != nil {
		return 0, err
	}
	for _, pair := range removed {
		e.emit(newPriceFeedRemovedEvent(pair))
	}
	return len(removed), nil
}

// IsPriceValid reports whether the snapshot satisfies the configured
// freshness and confidence bounds at the current ledger time. A snapshot is
// invalid once it expires, once it exceeds the maximum age, or when its
// confidence interval relative to price is wider than the configured bound.
func (e *Engine) IsPriceValid(feed *PriceFeed) bool {
	if feed == nil || feed.Price == nil || feed.Price.Sign() <= 0 {
		return false
	}
	cfg, err := e.OracleConfig()
	if err != nil {
		return false
	}
	now := e.now()
	if now > feed.ExpiresAt {
		return false
	}
	if now > feed.Timestamp+cfg.MaxPriceAge {
		return false
	}
	if feed.Confidence != nil && feed.Confidence.Sign() > 0 {
		ratio := new(big.Int).Mul(feed.Confidence, big.NewInt(int64(MaxBps)))
		ratio.Quo(ratio, feed.Price)
		if ratio.Cmp(big.NewInt(cfg.MinConfidenceRatioBps)) > 0 {
			return false
		}
	}
	return true
}

// SetPriceCondition attaches or replaces the resolution rule for a pool.
// Operator role required; the latest write wins until the pool resolves.
func (e *Engine) SetPriceCondition(caller [20]byte, poolID uint64, cond PriceCondition) error {
	if _, err := e.requireReady(); err != nil {
		return err
	}
	if err := e.requireRole(caller, RoleOperator); err != nil {
		return err
	}
	pool, err := e.loadPool(poolID)
	if err != nil {
		return err
	}
	if pool.Resolved || pool.Cancelled {
		return ErrInvalidPoolState
	}
	normalized, err := NormalizePair(cond.Pair)
	if err != nil {
		return err
	}
	if cond.TargetPrice == nil || cond.TargetPrice.Sign() <= 0 || !fitsInt128(cond.TargetPrice) {
		return ErrInvalidAmount
	}
	if !cond.Operator.Valid() || cond.ToleranceBps > MaxBps {
		return ErrInvalidData
	}
	cond.Pair = normalized
	stored := &storedCondition{
		Pair:         normalized,
		TargetPrice:  cloneBigInt(cond.TargetPrice),
		Operator:     uint8(cond.Operator),
		ToleranceBps: cond.ToleranceBps,
	}
	if err := e.state.KVPut(conditionKey(poolID), stored); err != nil {
		return ErrStorage
	}
	e.emit(newPriceConditionSetEvent(poolID, caller, &cond))
	return nil
}

// PriceCondition returns the resolution rule attached to the pool, if any.
func (e *Engine) PriceCondition(poolID uint64) (*PriceCondition, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	var stored storedCondition
	ok, err := e.state.KVGet(conditionKey(poolID), &stored)
	if err != nil {
		return nil, ErrStorage
	}
	if !ok {
		return nil, ErrPriceFeedNotFound
	}
	return stored.toCondition(), nil
}

// EvaluatePriceCondition checks the condition against the current snapshot
// for its pair. Equality holds within the symmetric tolerance band around the
// target; greater-than and less-than hold strictly outside it.
func (e *Engine) EvaluatePriceCondition(cond *PriceCondition) (bool, error) {
	if cond == nil {
		return false, ErrInvalidData
	}
	feed, err := e.PriceFeed(cond.Pair)
	if err != nil {
		return false, err
	}
	if !e.IsPriceValid(feed) {
		return false, ErrPriceDataInvalid
	}
	tolerance, err := Percentage(cond.TargetPrice, int64(cond.ToleranceBps), ProtocolFavor)
	if err != nil {
		return false, err
	}
	upper := new(big.Int).Add(cond.TargetPrice, tolerance)
	lower := new(big.Int).Sub(cond.TargetPrice, tolerance)
	switch cond.Operator {
	case PriceEqual:
		return feed.Price.Cmp(lower) >= 0 && feed.Price.Cmp(upper) <= 0, nil
	case PriceGreaterThan:
		return feed.Price.Cmp(upper) > 0, nil
	case PriceLessThan:
		return feed.Price.Cmp(lower) < 0, nil
	default:
		return false, ErrInvalidData
	}
}

// ResolvePoolFromPrice resolves the pool using its attached price condition:
// outcome 1 when the condition is met, outcome 0 otherwise. Operator role
// required, enforced by the underlying resolution.
func (e *Engine) ResolvePoolFromPrice(caller [20]byte, poolID uint64) (uint32, error) {
	cond, err := e.PriceCondition(poolID)
	if err != nil {
		return 0, err
	}
	met, err := e.EvaluatePriceCondition(cond)
	if err != nil {
		return 0, err
	}
	var outcome uint32
	if met {
		outcome = 1
	}
	if err := e.ResolvePool(caller, poolID, outcome); err != nil {
		return 0, err
	}
	return outcome, nil
}
