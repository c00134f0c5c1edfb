package market

import (
	"errors"
	"testing"
)

func TestErrorCodesAndCategories(t *testing.T) {
	cases := []struct {
		err      *Error
		code     Code
		category string
	}{
		{ErrNotInitialized, CodeNotInitialized, "initialization"},
		{ErrUnauthorized, CodeUnauthorized, "authorization"},
		{ErrPoolNotFound, CodePoolNotFound, "pool_state"},
		{ErrPredictionExists, CodePredictionExists, "prediction"},
		{ErrAlreadyClaimed, CodeAlreadyClaimed, "claiming"},
		{ErrEndTimeNotFuture, CodeEndTimeNotFuture, "timestamp"},
		{ErrInvalidFeeBps, CodeInvalidFeeBps, "validation"},
		{ErrArithmetic, CodeArithmetic, "arithmetic"},
		{ErrStorage, CodeStorage, "storage"},
		{ErrTreasuryTransfer, CodeTreasuryTransfer, "token"},
		{ErrPriceFeedNotFound, CodePriceFeedNotFound, "oracle"},
		{ErrPaused, CodePaused, "admin"},
	}
	for _, tc := range cases {
		if tc.err.Code() != tc.code {
			t.Fatalf("%v: expected code %d, got %d", tc.err, tc.code, tc.err.Code())
		}
		if tc.err.Category() != tc.category {
			t.Fatalf("%v: expected category %q, got %q", tc.err, tc.category, tc.err.Category())
		}
	}
}

func TestErrorSeverity(t *testing.T) {
	for _, err := range []*Error{ErrWinningStakeZero, ErrStorage, ErrConsistency, ErrBalanceMismatch} {
		if !err.Critical() {
			t.Fatalf("%v must be critical", err)
		}
		if err.Recoverable() {
			t.Fatalf("%v must not be recoverable", err)
		}
	}
	for _, err := range []*Error{ErrPoolNotFound, ErrAlreadyClaimed, ErrInvalidAmount, ErrPaused} {
		if err.Critical() {
			t.Fatalf("%v must not be critical", err)
		}
		if !err.Recoverable() {
			t.Fatalf("%v must be recoverable", err)
		}
	}
}

func TestErrorsAreSentinels(t *testing.T) {
	if !errors.Is(ErrPoolNotFound, ErrPoolNotFound) {
		t.Fatalf("sentinel identity must hold")
	}
	if errors.Is(ErrPoolNotFound, ErrPoolNotResolved) {
		t.Fatalf("distinct sentinels must not match")
	}
}
