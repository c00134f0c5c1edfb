package market

import (
	"math/big"
	"testing"
)

func TestPoolStatusDerivation(t *testing.T) {
	pool := &Pool{EndTime: 1_000}
	if got := pool.Status(999); got != PoolActive {
		t.Fatalf("before end time: expected active, got %s", got)
	}
	if got := pool.Status(1_000); got != PoolAwaitingResolution {
		t.Fatalf("at end time: expected awaiting_resolution, got %s", got)
	}
	pool.Resolved = true
	if got := pool.Status(1_000); got != PoolResolved {
		t.Fatalf("resolved flag: expected resolved, got %s", got)
	}
	pool.Cancelled = true
	if got := pool.Status(500); got != PoolCancelled {
		t.Fatalf("cancelled wins over everything, got %s", got)
	}
	if pool.AcceptingPredictions(500) {
		t.Fatalf("terminal pool must not accept predictions")
	}
}

func TestPoolCloneIsDeep(t *testing.T) {
	pool := &Pool{TotalStake: big.NewInt(100), Config: PoolConfig{MinStake: big.NewInt(1), MaxStake: big.NewInt(9)}}
	clone := pool.Clone()
	clone.TotalStake.SetInt64(999)
	clone.Config.MinStake.SetInt64(5)
	if pool.TotalStake.Int64() != 100 || pool.Config.MinStake.Int64() != 1 {
		t.Fatalf("clone must not alias the original")
	}
}

func TestNormalizePair(t *testing.T) {
	pair, err := NormalizePair(" eth/usd ")
	if err != nil || pair != "ETH/USD" {
		t.Fatalf("normalize: %q %v", pair, err)
	}
	if _, err := NormalizePair("   "); err == nil {
		t.Fatalf("blank pair must be rejected")
	}
}
