package state

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"predifi/storage"
)

var (
	// ErrInvalidToken marks lookups against unregistered or malformed token
	// symbols.
	ErrInvalidToken = errors.New("state: invalid token symbol")
	// ErrInsufficientFunds marks transfers that exceed the sender balance.
	ErrInsufficientFunds = errors.New("state: insufficient funds")
)

const (
	tokenPrefix   = "token/registry/"
	balancePrefix = "balance/"
	rolePrefix    = "roles/"
	vaultPrefix   = "market/vault/"
)

// Manager mediates all persistent state access for the settlement engine. It
// encodes values with RLP and hashes every key with keccak256 before hitting
// the backing store, so key layout changes never collide with historic data.
//
// The execution model is serialized per entry-point call; the manager performs
// no caching between calls and every read goes straight to the database.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return reports whether the key
// existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: manager not initialised")
	}
	if len(key) == 0 {
		return false, fmt.Errorf("state: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under the supplied key.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	return m.db.Delete(kvKey(key))
}

// KVHas reports whether the supplied key exists in state.
func (m *Manager) KVHas(key []byte) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: manager not initialised")
	}
	if len(key) == 0 {
		return false, fmt.Errorf("state: key must not be empty")
	}
	return m.db.Has(kvKey(key))
}

// KVWrite is a staged put (or delete, when Delete is set) of one KV entry.
type KVWrite struct {
	Key    []byte
	Value  interface{}
	Delete bool
}

// BalanceWrite is a staged overwrite of one custody balance.
type BalanceWrite struct {
	Token  string
	Addr   [20]byte
	Amount *big.Int
}

// Commit encodes every staged write first and then applies them through a
// single database batch, so either all writes land or none do. A failed call
// leaves state untouched.
func (m *Manager) Commit(kv []KVWrite, balances []BalanceWrite) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	ops := make([]storage.BatchOp, 0, len(kv)+len(balances))
	for _, w := range kv {
		if len(w.Key) == 0 {
			return fmt.Errorf("state: key must not be empty")
		}
		if w.Delete {
			ops = append(ops, storage.BatchOp{Key: kvKey(w.Key), Delete: true})
			continue
		}
		encoded, err := rlp.EncodeToBytes(w.Value)
		if err != nil {
			return err
		}
		ops = append(ops, storage.BatchOp{Key: kvKey(w.Key), Value: encoded})
	}
	for _, b := range balances {
		normalized, err := NormalizeToken(b.Token)
		if err != nil {
			return err
		}
		if b.Amount == nil || b.Amount.Sign() < 0 {
			return fmt.Errorf("state: balance must be non-negative")
		}
		encoded, err := rlp.EncodeToBytes(b.Amount)
		if err != nil {
			return err
		}
		ops = append(ops, storage.BatchOp{Key: kvKey(balanceKey(normalized, b.Addr)), Value: encoded})
	}
	return m.db.WriteBatch(ops)
}

// NormalizeToken canonicalises a token symbol for registry and balance
// lookups. Symbols are upper-cased and must be non-empty.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", ErrInvalidToken
	}
	return trimmed, nil
}

// RegisterToken whitelists a settlement token symbol.
func (m *Manager) RegisterToken(symbol string) error {
	normalized, err := NormalizeToken(symbol)
	if err != nil {
		return err
	}
	return m.KVPut([]byte(tokenPrefix+normalized), true)
}

// TokenExists reports whether the provided token symbol is whitelisted.
func (m *Manager) TokenExists(symbol string) bool {
	normalized, err := NormalizeToken(symbol)
	if err != nil {
		return false
	}
	ok, err := m.KVHas([]byte(tokenPrefix + normalized))
	return err == nil && ok
}

func balanceKey(token string, addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%s/%x", balancePrefix, token, addr))
}

// BalanceGet returns the custody balance for the address in the given token.
// Missing accounts hold a zero balance.
func (m *Manager) BalanceGet(token string, addr [20]byte) (*big.Int, error) {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	ok, err := m.KVGet(balanceKey(normalized, addr), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// BalancePut overwrites the custody balance for the address in the given
// token. Negative balances are rejected.
func (m *Manager) BalancePut(token string, addr [20]byte, amount *big.Int) error {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: balance must be non-negative")
	}
	return m.KVPut(balanceKey(normalized, addr), amount)
}

// Mint credits freshly issued funds to the address. Used by genesis wiring
// and tests; the engine itself only moves existing balances.
func (m *Manager) Mint(token string, addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("state: mint amount must be positive")
	}
	balance, err := m.BalanceGet(token, addr)
	if err != nil {
		return err
	}
	return m.BalancePut(token, addr, new(big.Int).Add(balance, amount))
}

// Transfer moves amount between two accounts in the given token. The write is
// rejected with ErrInsufficientFunds when the sender balance is short.
func (m *Manager) Transfer(token string, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := m.BalanceGet(token, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toBalance, err := m.BalanceGet(token, to)
	if err != nil {
		return err
	}
	if err := m.BalancePut(token, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return m.BalancePut(token, to, new(big.Int).Add(toBalance, amount))
}

// VaultAddress derives the deterministic custody address holding staked funds
// for the given token. The address has no key material behind it; only the
// engine moves funds out of it.
func (m *Manager) VaultAddress(token string) ([20]byte, error) {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return [20]byte{}, err
	}
	digest := ethcrypto.Keccak256([]byte(vaultPrefix + normalized))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr, nil
}

func roleKey(role string) []byte {
	return []byte(rolePrefix + strings.TrimSpace(role))
}

// RoleGrant adds the address to the member list of the given role. Granting
// an already-held role is a no-op.
func (m *Manager) RoleGrant(role string, addr [20]byte) error {
	if strings.TrimSpace(role) == "" {
		return fmt.Errorf("state: role must not be empty")
	}
	var members [][]byte
	if _, err := m.KVGet(roleKey(role), &members); err != nil {
		return err
	}
	for _, member := range members {
		if len(member) == len(addr) && string(member) == string(addr[:]) {
			return nil
		}
	}
	members = append(members, append([]byte(nil), addr[:]...))
	return m.KVPut(roleKey(role), members)
}

// IsAuthorized reports whether the address holds the given role. It satisfies
// the engine's authorizer capability.
func (m *Manager) IsAuthorized(addr [20]byte, role string) bool {
	if strings.TrimSpace(role) == "" {
		return false
	}
	var members [][]byte
	ok, err := m.KVGet(roleKey(role), &members)
	if err != nil || !ok {
		return false
	}
	for _, member := range members {
		if len(member) == len(addr) && string(member) == string(addr[:]) {
			return true
		}
	}
	return false
}
