// Package identity models account addresses for auction participants.
// Addresses are bech32 strings derived from arbitrary key material via
// sha256 then ripemd160, the same chain used for payment addresses.
package identity

import (
	"crypto/sha256"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/ripemd160"
)

// DefaultHRP is the human-readable prefix for addresses minted by this
// service.
const DefaultHRP = "bdx"

var (
	ErrEmptyAddress   = errors.New("empty address")
	ErrInvalidAddress = errors.New("invalid bech32 address")
)

// Address is a validated bech32 account identifier. The zero value means
// "no account".
type Address string

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" }

// Parse validates s as a bech32 address and returns it.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyAddress
	}
	if _, _, err := bech32.Decode(s); err != nil {
		return "", ErrInvalidAddress
	}
	return Address(s), nil
}

// MustParse is Parse for known-good literals; it panics on bad input.
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic("identity: " + err.Error())
	}
	return addr
}

// FromKey derives a deterministic address from key material under the given
// prefix: sha256(key) -> ripemd160 -> bech32.
func FromKey(hrp string, key []byte) (Address, error) {
	if hrp == "" {
		hrp = DefaultHRP
	}
	sum := sha256.Sum256(key)
	h := ripemd160.New()
	h.Write(sum[:])
	payload := h.Sum(nil)

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	encoded, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", err
	}
	return Address(encoded), nil
}
