package market

import (
	"log/slog"
	"math/big"
	"strings"
	"time"

	"predifi/events"
	"predifi/observability/metrics"
	"predifi/state"
)

// EngineState is the subset of state manager functionality the settlement
// engine depends on. Mutating entry points stage every write and flush them
// through a single Commit, so a failed call leaves persistent state
// untouched; the engine holds no state between calls.
type EngineState interface {
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
	KVHas(key []byte) (bool, error)
	Commit(kv []state.KVWrite, balances []state.BalanceWrite) error
	TokenExists(symbol string) bool
	BalanceGet(token string, addr [20]byte) (*big.Int, error)
	VaultAddress(token string) ([20]byte, error)
}

// Authorizer is the injected role-check capability. Role storage and admin
// transfer live in an external subsystem; the engine only ever asks this one
// question.
type Authorizer interface {
	IsAuthorized(addr [20]byte, role string) bool
}

// Engine wires pool lifecycle, prediction placement and claim settlement with
// external state, authorization and event emission. Each entry point runs to
// completion against a consistent snapshot; all time-gated logic is evaluated
// lazily against the configured clock.
type Engine struct {
	state   EngineState
	auth    Authorizer
	emitter events.Emitter
	metrics *metrics.MarketMetrics
	logger  *slog.Logger
	nowFn   func() int64
}

// NewEngine creates an engine with a no-op emitter and wall-clock time.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state EngineState) { e.state = state }

// SetAuthorizer configures the role-check capability.
func (e *Engine) SetAuthorizer(auth Authorizer) { e.auth = auth }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetMetrics wires the prometheus registry. The engine tolerates a nil
// registry so tests can run without one.
func (e *Engine) SetMetrics(m *metrics.MarketMetrics) { e.metrics = m }

// SetLogger overrides the logger used for critical invariant reports.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		e.logger = slog.Default()
		return
	}
	e.logger = logger
}

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) requireState() error {
	if e == nil || e.state == nil {
		return ErrNotInitialized
	}
	return nil
}

func (e *Engine) loadConfig() (*storedConfig, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	var cfg storedConfig
	ok, err := e.state.KVGet([]byte(keyConfig), &cfg)
	if err != nil {
		return nil, ErrStorage
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return &cfg, nil
}

// requireReady returns the engine config for a mutating entry point, failing
// when the engine is uninitialised or paused.
func (e *Engine) requireReady() (*storedConfig, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, ErrPaused
	}
	return cfg, nil
}

func (e *Engine) requireRole(addr [20]byte, role string) error {
	if e.auth == nil || !e.auth.IsAuthorized(addr, role) {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) loadPool(id uint64) (*Pool, error) {
	var stored storedPool
	ok, err := e.state.KVGet(poolKey(id), &stored)
	if err != nil {
		return nil, ErrStorage
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	return stored.toPool(), nil
}

func (e *Engine) storePool(p *Pool) error {
	if err := e.state.KVPut(poolKey(p.ID), poolToStored(p)); err != nil {
		return ErrStorage
	}
	return nil
}

func (e *Engine) commit(kv []state.KVWrite, balances []state.BalanceWrite) error {
	if err := e.state.Commit(kv, balances); err != nil {
		return ErrStorage
	}
	return nil
}

func (e *Engine) outcomeStake(id uint64, outcome uint32) (*big.Int, error) {
	stake := new(big.Int)
	ok, err := e.state.KVGet(outcomeStakeKey(id, outcome), stake)
	if err != nil {
		return nil, ErrStorage
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return stake, nil
}

// balanceLedger stages custody balance movements for one token. Transfers
// mutate only the in-memory view; the caller folds writes() into the entry
// point's single commit.
type balanceLedger struct {
	engine  *Engine
	token   string
	pending map[[20]byte]*big.Int
	order   [][20]byte
}

func (e *Engine) newLedger(token string) *balanceLedger {
	return &balanceLedger{
		engine:  e,
		token:   token,
		pending: make(map[[20]byte]*big.Int),
	}
}

func (l *balanceLedger) balance(addr [20]byte) (*big.Int, error) {
	if staged, ok := l.pending[addr]; ok {
		return staged, nil
	}
	stored, err := l.engine.state.BalanceGet(l.token, addr)
	if err != nil {
		return nil, ErrStorage
	}
	return stored, nil
}

func (l *balanceLedger) set(addr [20]byte, amount *big.Int) {
	if _, ok := l.pending[addr]; !ok {
		l.order = append(l.order, addr)
	}
	l.pending[addr] = amount
}

// transfer rejects shortfalls before staging anything.
func (l *balanceLedger) transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := l.balance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.balance(to)
	if err != nil {
		return err
	}
	l.set(from, new(big.Int).Sub(fromBalance, amount))
	l.set(to, new(big.Int).Add(toBalance, amount))
	return nil
}

func (l *balanceLedger) writes() []state.BalanceWrite {
	out := make([]state.BalanceWrite, 0, len(l.order))
	for _, addr := range l.order {
		out = append(out, state.BalanceWrite{Token: l.token, Addr: addr, Amount: l.pending[addr]})
	}
	return out
}

// Init stores the engine configuration and seeds the pool counter. The call
// is idempotent; repeat invocations leave existing configuration untouched.
func (e *Engine) Init(treasury [20]byte, feeBps uint32) error {
	if err := e.requireState(); err != nil {
		return err
	}
	if feeBps > MaxBps {
		return ErrInvalidFeeBps
	}
	ok, err := e.state.KVHas([]byte(keyConfig))
	if err != nil {
		return ErrStorage
	}
	if ok {
		return nil
	}
	cfg := storedConfig{Treasury: treasury, DefaultFeeBps: feeBps}
	err = e.commit([]state.KVWrite{
		{Key: []byte(keyConfig), Value: &cfg},
		{Key: []byte(keyPoolCounter), Value: uint64(0)},
	}, nil)
	if err != nil {
		return err
	}
	e.emit(newInitializedEvent(treasury, feeBps))
	return nil
}

// Pause halts all mutating entry points. Admin role required.
func (e *Engine) Pause(admin [20]byte) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := e.requireRole(admin, RoleAdmin); err != nil {
		return err
	}
	cfg.Paused = true
	if err := e.state.KVPut([]byte(keyConfig), cfg); err != nil {
		return ErrStorage
	}
	e.emit(newPausedEvent(EventTypePaused, admin))
	return nil
}

// Unpause resumes operation. Admin role required.
func (e *Engine) Unpause(admin [20]byte) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := e.requireRole(admin, RoleAdmin); err != nil {
		return err
	}
	cfg.Paused = false
	if err := e.state.KVPut([]byte(keyConfig), cfg); err != nil {
		return ErrStorage
	}
	e.emit(newPausedEvent(EventTypeUnpaused, admin))
	return nil
}

// SetDefaultFeeBps updates the fee applied to pools created without an
// explicit fee. Admin role required.
func (e *Engine) SetDefaultFeeBps(admin [20]byte, feeBps uint32) error {
	cfg, err := e.requireReady()
	if err != nil {
		return err
	}
	if err := e.requireRole(admin, RoleAdmin); err != nil {
		return err
	}
	if feeBps > MaxBps {
		return ErrInvalidFeeBps
	}
	cfg.DefaultFeeBps = feeBps
	if err := e.state.KVPut([]byte(keyConfig), cfg); err != nil {
		return ErrStorage
	}
	e.emit(newFeeUpdatedEvent(admin, feeBps))
	return nil
}

// SetTreasury updates the fee revenue destination. Admin role required.
func (e *Engine) SetTreasury(admin, treasury [20]byte) error {
	cfg, err := e.requireReady()
	if err != nil {
		return err
	}
	if err := e.requireRole(admin, RoleAdmin); err != nil {
		return err
	}
	if treasury == ([20]byte{}) {
		return ErrInvalidData
	}
	cfg.Treasury = treasury
	if err := e.state.KVPut([]byte(keyConfig), cfg); err != nil {
		return ErrStorage
	}
	e.emit(newTreasuryUpdatedEvent(admin, treasury))
	return nil
}

// Treasury returns the configured fee destination.
func (e *Engine) Treasury() ([20]byte, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return [20]byte{}, err
	}
	return cfg.Treasury, nil
}

// DefaultFeeBps returns the fee applied to new pools without an explicit fee.
func (e *Engine) DefaultFeeBps() (uint32, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.DefaultFeeBps, nil
}

// Paused reports whether the engine is currently halted.
func (e *Engine) Paused() (bool, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return false, err
	}
	return cfg.Paused, nil
}

// CreatePool validates and persists a new market round, returning its id.
// The counter advance and the pool record commit together, so ids are handed
// out exactly once and never reused.
func (e *Engine) CreatePool(creator [20]byte, token string, endTime int64, optionsCount uint32, cfg PoolConfig) (uint64, error) {
	engineCfg, err := e.requireReady()
	if err != nil {
		return 0, err
	}
	now := e.now()
	if endTime <= now {
		return 0, ErrEndTimeNotFuture
	}
	if optionsCount < 2 {
		return 0, ErrInvalidOptionsCount
	}
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if normalized == "" || !e.state.TokenExists(normalized) {
		return 0, ErrInvalidToken
	}
	if cfg.FeeBps > MaxBps {
		return 0, ErrInvalidFeeBps
	}
	if cfg.FeeBps == 0 {
		cfg.FeeBps = engineCfg.DefaultFeeBps
	}
	minStake := cloneBigInt(cfg.MinStake)
	maxStake := cloneBigInt(cfg.MaxStake)
	if minStake.Sign() < 0 || maxStake.Sign() < 0 || !fitsInt128(minStake) || !fitsInt128(maxStake) {
		return 0, ErrInvalidData
	}
	if maxStake.Sign() > 0 && maxStake.Cmp(minStake) < 0 {
		return 0, ErrInvalidData
	}
	if cfg.ResolutionDeadline != 0 && cfg.ResolutionDeadline <= endTime {
		return 0, ErrInvalidTimestamp
	}
	cfg.MinStake = minStake
	cfg.MaxStake = maxStake

	var counter uint64
	if _, err := e.state.KVGet([]byte(keyPoolCounter), &counter); err != nil {
		return 0, ErrStorage
	}
	pool := &Pool{
		ID:           counter,
		Token:        normalized,
		EndTime:      endTime,
		OptionsCount: optionsCount,
		TotalStake:   big.NewInt(0),
		CreatedAt:    now,
		Config:       cfg,
	}
	err = e.commit([]state.KVWrite{
		{Key: []byte(keyPoolCounter), Value: counter + 1},
		{Key: poolKey(pool.ID), Value: poolToStored(pool)},
	}, nil)
	if err != nil {
		return 0, err
	}
	e.emit(newPoolCreatedEvent(pool, creator))
	e.metrics.ObservePoolCreated()
	return counter, nil
}

// PlacePrediction stakes amount on an outcome of the pool for the user. A
// user holds at most one prediction per pool; re-staking is rejected, not
// merged. All writes, balances included, land in one commit so a failure at
// any point leaves no partial state.
func (e *Engine) PlacePrediction(user [20]byte, poolID uint64, amount *big.Int, outcome uint32) error {
	if _, err := e.requireReady(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 || !fitsInt128(amount) {
		return ErrInvalidAmount
	}
	pool, err := e.loadPool(poolID)
	if err != nil {
		return err
	}
	if pool.Resolved || pool.Cancelled {
		return ErrInvalidPoolState
	}
	if e.now() >= pool.EndTime {
		return ErrPredictionTooLate
	}
	if outcome >= pool.OptionsCount {
		return ErrInvalidOutcome
	}
	exists, err := e.state.KVHas(predictionKey(user, poolID))
	if err != nil {
		return ErrStorage
	}
	if exists {
		return ErrPredictionExists
	}
	if pool.Config.MinStake.Sign() > 0 && amount.Cmp(pool.Config.MinStake) < 0 {
		return ErrMinStakeNotMet
	}
	if pool.Config.MaxStake.Sign() > 0 && amount.Cmp(pool.Config.MaxStake) > 0 {
		return ErrMaxStakeExceeded
	}
	newTotal, err := SafeAdd(pool.TotalStake, amount)
	if err != nil {
		return err
	}
	currentOutcomeStake, err := e.outcomeStake(poolID, outcome)
	if err != nil {
		return err
	}
	newOutcomeStake, err := SafeAdd(currentOutcomeStake, amount)
	if err != nil {
		return err
	}
	var count uint32
	if _, err := e.state.KVGet(predictionCountKey(user), &count); err != nil {
		return ErrStorage
	}
	vault, err := e.state.VaultAddress(pool.Token)
	if err != nil {
		return ErrInvalidToken
	}
	ledger := e.newLedger(pool.Token)
	if err := ledger.transfer(user, vault, amount); err != nil {
		return err
	}
	pool.TotalStake = newTotal
	stored := &storedPrediction{Amount: cloneBigInt(amount), Outcome: outcome, PlacedAt: uint64(e.now())}
	err = e.commit([]state.KVWrite{
		{Key: predictionKey(user, poolID), Value: stored},
		{Key: poolKey(pool.ID), Value: poolToStored(pool)},
		{Key: outcomeStakeKey(poolID, outcome), Value: newOutcomeStake},
		{Key: predictionIndexKey(user, count), Value: poolID},
		{Key: predictionCountKey(user), Value: count + 1},
	}, ledger.writes())
	if err != nil {
		return err
	}
	e.emit(newPredictionPlacedEvent(poolID, user, amount, outcome))
	e.metrics.ObservePredictionPlaced()
	return nil
}

// ResolvePool sets the winning outcome. Operator role required. The resolved
// flag and outcome land in a single pool write, so no claim can ever observe
// one without the other.
func (e *Engine) ResolvePool(caller [20]byte, poolID uint64, outcome uint32) error {
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
	if pool.Cancelled {
		return ErrInvalidPoolState
	}
	if pool.Resolved {
		return ErrPoolAlreadyResolved
	}
	if outcome >= pool.OptionsCount {
		return ErrInvalidOutcome
	}
	if e.now() < pool.EndTime && !pool.Config.AllowEarlyResolution {
		return ErrPoolNotExpired
	}
	pool.Resolved = true
	pool.Outcome = outcome
	if err := e.storePool(pool); err != nil {
		return err
	}
	e.emit(newPoolResolvedEvent(poolID, caller, outcome))
	return nil
}

// CancelPool moves an unresolved pool to the terminal cancelled state;
// predictors reclaim their exact stakes through the regular claim path.
// Operator role required.
func (e *Engine) CancelPool(caller [20]byte, poolID uint64) error {
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
	if pool.Resolved {
		return ErrPoolAlreadyResolved
	}
	if pool.Cancelled {
		return ErrInvalidPoolState
	}
	pool.Cancelled = true
	if err := e.storePool(pool); err != nil {
		return err
	}
	e.emit(newPoolCancelledEvent(poolID, caller))
	return nil
}

// ClaimWinnings settles the caller's prediction on a terminal pool exactly
// once. Losers are marked claimed and receive zero without error. Transfers
// and the claim record commit atomically, so a crash can never both skip
// payment and block the retry.
func (e *Engine) ClaimWinnings(user [20]byte, poolID uint64) (*big.Int, error) {
	cfg, err := e.requireReady()
	if err != nil {
		return nil, err
	}
	pool, err := e.loadPool(poolID)
	if err != nil {
		return nil, err
	}
	if !pool.Resolved && !pool.Cancelled {
		return nil, ErrPoolNotResolved
	}
	claimed, err := e.state.KVHas(claimedKey(user, poolID))
	if err != nil {
		return nil, ErrStorage
	}
	if claimed {
		e.metrics.ObserveDoubleClaimRejected()
		return nil, ErrAlreadyClaimed
	}
	var storedPred storedPrediction
	ok, err := e.state.KVGet(predictionKey(user, poolID), &storedPred)
	if err != nil {
		return nil, ErrStorage
	}
	if !ok {
		return nil, ErrPredictionNotFound
	}
	pred := storedPred.toPrediction()
	vault, err := e.state.VaultAddress(pool.Token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if pool.Cancelled {
		ledger := e.newLedger(pool.Token)
		if err := ledger.transfer(vault, user, pred.Amount); err != nil {
			return nil, ErrTokenTransfer
		}
		err := e.commit([]state.KVWrite{
			{Key: claimedKey(user, poolID), Value: true},
		}, ledger.writes())
		if err != nil {
			return nil, err
		}
		e.emit(newWinningsClaimedEvent(poolID, user, pred.Amount, big.NewInt(0), "refund"))
		e.metrics.ObserveClaimSettled("refund")
		return pred.Amount, nil
	}

	if pred.Outcome != pool.Outcome {
		if err := e.state.KVPut(claimedKey(user, poolID), true); err != nil {
			return nil, ErrStorage
		}
		e.emit(newWinningsClaimedEvent(poolID, user, big.NewInt(0), big.NewInt(0), "lost"))
		e.metrics.ObserveClaimSettled("lost")
		return big.NewInt(0), nil
	}

	winningStake, err := e.outcomeStake(poolID, pool.Outcome)
	if err != nil {
		return nil, err
	}
	if winningStake.Sign() == 0 {
		// A winning prediction exists, so the aggregate can only be zero if
		// storage is corrupted. Surface loudly instead of paying nothing.
		e.logger.Error("winning outcome stake is zero despite winning prediction",
			"pool", poolID, "outcome", pool.Outcome, "user", attrAddress(user))
		e.metrics.ObserveInvariantViolation()
		return nil, ErrWinningStakeZero
	}
	share, err := Proportion(pred.Amount, winningStake, pool.TotalStake, ProtocolFavor)
	if err != nil {
		return nil, err
	}
	fee, err := Percentage(share, int64(pool.Config.FeeBps), ProtocolFavor)
	if err != nil {
		return nil, err
	}
	payout, err := SafeSub(share, fee)
	if err != nil {
		return nil, err
	}
	if payout.Sign() < 0 {
		return nil, ErrFeeExceedsAmount
	}

	distributed := new(big.Int)
	if _, err := e.state.KVGet(distributedKey(poolID), distributed); err != nil {
		return nil, ErrStorage
	}
	newDistributed, err := SafeAdd(distributed, share)
	if err != nil {
		return nil, err
	}
	if newDistributed.Cmp(pool.TotalStake) > 0 {
		e.logger.Error("claim would over-distribute pool",
			"pool", poolID, "distributed", newDistributed.String(), "totalStake", pool.TotalStake.String())
		e.metrics.ObserveInvariantViolation()
		return nil, ErrOverDistribution
	}

	ledger := e.newLedger(pool.Token)
	if fee.Sign() > 0 {
		if err := ledger.transfer(vault, cfg.Treasury, fee); err != nil {
			return nil, ErrTreasuryTransfer
		}
	}
	if payout.Sign() > 0 {
		if err := ledger.transfer(vault, user, payout); err != nil {
			return nil, ErrTokenTransfer
		}
	}
	err = e.commit([]state.KVWrite{
		{Key: claimedKey(user, poolID), Value: true},
		{Key: distributedKey(poolID), Value: newDistributed},
	}, ledger.writes())
	if err != nil {
		return nil, err
	}
	dust := new(big.Int).Sub(pool.TotalStake, newDistributed)
	e.metrics.SetRoundingDust(poolID, float64(dust.Int64()))
	e.emit(newWinningsClaimedEvent(poolID, user, payout, fee, "won"))
	e.metrics.ObserveClaimSettled("won")
	return payout, nil
}

// Pool returns a copy of the stored pool.
func (e *Engine) Pool(poolID uint64) (*Pool, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	return e.loadPool(poolID)
}

// Prediction returns the user's prediction on the pool.
func (e *Engine) Prediction(user [20]byte, poolID uint64) (*Prediction, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	var stored storedPrediction
	ok, err := e.state.KVGet(predictionKey(user, poolID), &stored)
	if err != nil {
		return nil, ErrStorage
	}
	if !ok {
		return nil, ErrPredictionNotFound
	}
	return stored.toPrediction(), nil
}

// OutcomeStake returns the aggregate stake placed on one outcome of a pool.
func (e *Engine) OutcomeStake(poolID uint64, outcome uint32) (*big.Int, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	return e.outcomeStake(poolID, outcome)
}

// HasClaimed reports whether the user already settled their claim on the
// pool.
func (e *Engine) HasClaimed(user [20]byte, poolID uint64) (bool, error) {
	if err := e.requireState(); err != nil {
		return false, err
	}
	ok, err := e.state.KVHas(claimedKey(user, poolID))
	if err != nil {
		return false, ErrStorage
	}
	return ok, nil
}

// DistributedTotal returns the gross amount settled from the pool so far.
func (e *Engine) DistributedTotal(poolID uint64) (*big.Int, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	total := new(big.Int)
	if _, err := e.state.KVGet(distributedKey(poolID), total); err != nil {
		return nil, ErrStorage
	}
	return total, nil
}

// UserPredictions returns a page of the user's predictions joined with their
// pool state, ordered by placement.
func (e *Engine) UserPredictions(user [20]byte, offset, limit uint32) ([]PredictionDetail, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if limit == 0 {
		return nil, ErrInvalidPagination
	}
	var count uint32
	if _, err := e.state.KVGet(predictionCountKey(user), &count); err != nil {
		return nil, ErrStorage
	}
	if offset >= count {
		return []PredictionDetail{}, nil
	}
	end := count
	if offset+limit < end && offset+limit > offset {
		end = offset + limit
	}
	now := e.now()
	details := make([]PredictionDetail, 0, end-offset)
	for i := offset; i < end; i++ {
		var poolID uint64
		ok, err := e.state.KVGet(predictionIndexKey(user, i), &poolID)
		if err != nil || !ok {
			return nil, ErrConsistency
		}
		var stored storedPrediction
		ok, err = e.state.KVGet(predictionKey(user, poolID), &stored)
		if err != nil || !ok {
			return nil, ErrConsistency
		}
		pool, err := e.loadPool(poolID)
		if err != nil {
			return nil, ErrConsistency
		}
		details = append(details, PredictionDetail{
			PoolID:      poolID,
			Amount:      cloneBigInt(stored.Amount),
			UserOutcome: stored.Outcome,
			PoolEndTime: pool.EndTime,
			PoolStatus:  pool.Status(now),
			PoolOutcome: pool.Outcome,
		})
	}
	return details, nil
}
