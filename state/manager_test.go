package state

import (
	"errors"
	"math/big"
	"testing"

	"predifi/storage"
)

func testAddr(b byte) [20]byte {
	var a [20]byte
	a[0] = b
	return a
}

func TestKVRoundTrip(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	type record struct {
		Name  string
		Value uint64
	}
	if err := m.KVPut([]byte("test/record"), &record{Name: "a", Value: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got record
	ok, err := m.KVGet([]byte("test/record"), &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Name != "a" || got.Value != 7 {
		t.Fatalf("unexpected record %+v", got)
	}
	ok, err = m.KVGet([]byte("test/missing"), &got)
	if err != nil || ok {
		t.Fatalf("missing key must report absent, ok=%v err=%v", ok, err)
	}
	has, err := m.KVHas([]byte("test/record"))
	if err != nil || !has {
		t.Fatalf("has: %v %v", has, err)
	}
}

func TestCommitAppliesAllWrites(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := m.RegisterToken("USDC"); err != nil {
		t.Fatalf("register: %v", err)
	}
	alice := testAddr(1)
	if err := m.KVPut([]byte("test/old"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	err := m.Commit([]KVWrite{
		{Key: []byte("test/counter"), Value: uint64(7)},
		{Key: []byte("test/old"), Delete: true},
	}, []BalanceWrite{
		{Token: "USDC", Addr: alice, Amount: big.NewInt(250)},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	var counter uint64
	ok, err := m.KVGet([]byte("test/counter"), &counter)
	if err != nil || !ok || counter != 7 {
		t.Fatalf("counter: %d %v %v", counter, ok, err)
	}
	ok, err = m.KVHas([]byte("test/old"))
	if err != nil || ok {
		t.Fatalf("deleted key must be gone: %v %v", ok, err)
	}
	balance, err := m.BalanceGet("USDC", alice)
	if err != nil || balance.Int64() != 250 {
		t.Fatalf("balance: %s %v", balance, err)
	}

	// a bad balance write rejects the whole commit before anything lands
	err = m.Commit([]KVWrite{
		{Key: []byte("test/counter"), Value: uint64(8)},
	}, []BalanceWrite{
		{Token: "USDC", Addr: alice, Amount: big.NewInt(-1)},
	})
	if err == nil {
		t.Fatalf("negative balance must reject the commit")
	}
	if _, err := m.KVGet([]byte("test/counter"), &counter); err != nil || counter != 7 {
		t.Fatalf("rejected commit must not apply kv writes: %d %v", counter, err)
	}
}

func TestKVDelete(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := m.KVPut([]byte("test/x"), uint64(1)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.KVDelete([]byte("test/x")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err := m.KVHas([]byte("test/x"))
	if err != nil || ok {
		t.Fatalf("deleted key must be gone: %v %v", ok, err)
	}
}

func TestTokenRegistry(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if m.TokenExists("USDC") {
		t.Fatalf("token must not exist before registration")
	}
	if err := m.RegisterToken(" usdc "); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !m.TokenExists("USDC") || !m.TokenExists("usdc") {
		t.Fatalf("lookup must be case-insensitive")
	}
	if err := m.RegisterToken("  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("blank symbol: expected ErrInvalidToken, got %v", err)
	}
}

func TestBalancesAndTransfer(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	if err := m.RegisterToken("USDC"); err != nil {
		t.Fatalf("register: %v", err)
	}
	alice, bob := testAddr(1), testAddr(2)

	balance, err := m.BalanceGet("USDC", alice)
	if err != nil || balance.Sign() != 0 {
		t.Fatalf("fresh account must hold zero, got %s err %v", balance, err)
	}
	if err := m.Mint("USDC", alice, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := m.Transfer("USDC", alice, bob, big.NewInt(200)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := m.Transfer("USDC", alice, bob, big.NewInt(1_000)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("short transfer: expected ErrInsufficientFunds, got %v", err)
	}
	balance, _ = m.BalanceGet("USDC", alice)
	if balance.Int64() != 300 {
		t.Fatalf("alice balance: expected 300, got %s", balance)
	}
	balance, _ = m.BalanceGet("USDC", bob)
	if balance.Int64() != 200 {
		t.Fatalf("bob balance: expected 200, got %s", balance)
	}
}

func TestVaultAddressDeterministic(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	first, err := m.VaultAddress("usdc")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	second, err := m.VaultAddress(" USDC ")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	if first != second {
		t.Fatalf("vault address must be deterministic per token")
	}
	other, err := m.VaultAddress("DAI")
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	if first == other {
		t.Fatalf("different tokens must map to different vaults")
	}
}

func TestRoles(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	operator := testAddr(3)
	if m.IsAuthorized(operator, "ROLE_OPERATOR") {
		t.Fatalf("role must not be held before grant")
	}
	if err := m.RoleGrant("ROLE_OPERATOR", operator); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := m.RoleGrant("ROLE_OPERATOR", operator); err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	if !m.IsAuthorized(operator, "ROLE_OPERATOR") {
		t.Fatalf("role must be held after grant")
	}
	if m.IsAuthorized(operator, "ROLE_ADMIN") {
		t.Fatalf("unrelated role must not be held")
	}
	if m.IsAuthorized(testAddr(4), "ROLE_OPERATOR") {
		t.Fatalf("other address must not hold the role")
	}
}
