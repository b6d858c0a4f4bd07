package wormhole

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

var (
	// ErrSecretExhausted is returned when secret mining hits its attempt
	// budget without finding a secret satisfying the difficulty predicate.
	ErrSecretExhausted = errors.New("wormhole: secret generation attempt budget exhausted")
)

// Secret is the preimage of a deposit address. It is private: only the
// derived deposit address and nullifiers ever appear on chain.
type Secret []byte

// WellFormed reports whether the secret has the protocol-mandated length.
// Derivations are total over any byte string; the length check is applied at
// the input boundary, not here.
func (s Secret) WellFormed() bool {
	return len(s) == SecretSize
}

// PowHash returns sha256(MagicPoW || secret), the hash the proof-of-work
// gate is evaluated on.
func (s Secret) PowHash() common.Hash {
	h := sha256.New()
	h.Write([]byte{MagicPoW})
	h.Write(s)
	return common.Hash(h.Sum(nil))
}

// Valid reports whether the secret satisfies the proof-of-work gate at the
// default difficulty.
func (s Secret) Valid() bool {
	return CheckPoW(s, PowLogDifficulty)
}

// DepositAddress derives the deposit (burn) address:
// sha256(MagicAddress || secret)[12:].
func (s Secret) DepositAddress() common.Address {
	h := sha256.New()
	h.Write([]byte{MagicAddress})
	h.Write(s)
	return common.BytesToAddress(h.Sum(nil)[12:])
}

// Nullifier derives the nullifier for the given withdrawal index:
// sha256(MagicNullifier || secret || index), with the index encoded as the
// full 32-byte little-endian uint256.
func (s Secret) Nullifier(index *uint256.Int) common.Hash {
	le := indexLE(index)
	h := sha256.New()
	h.Write([]byte{MagicNullifier})
	h.Write(s)
	h.Write(le[:])
	return common.Hash(h.Sum(nil))
}

// MarshalText implements encoding.TextMarshaler; secrets serialize as 0x-hex.
func (s Secret) MarshalText() ([]byte, error) {
	return hexutil.Bytes(s).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Secret) UnmarshalText(input []byte) error {
	return (*hexutil.Bytes)(s).UnmarshalText(input)
}

// CheckPoW evaluates the proof-of-work predicate: the proof-of-work hash,
// read as a big-endian uint256, must be divisible by 2^logDifficulty. It is
// a single deterministic hash evaluation, cheap enough to run inside a
// proving environment.
func CheckPoW(secret Secret, logDifficulty uint) bool {
	if logDifficulty > 255 {
		return false
	}
	hash := secret.PowHash()
	v := new(uint256.Int).SetBytes(hash[:])
	modulus := new(uint256.Int).Lsh(uint256.NewInt(1), logDifficulty)
	return new(uint256.Int).Mod(v, modulus).IsZero()
}

// GenerateSecret mines a fresh secret: it samples SecretSize random bytes
// from crypto/rand until the proof-of-work predicate passes. The expected
// cost is 2^logDifficulty hash evaluations. maxAttempts bounds the search
// for diagnostics; zero means unbounded. The attempt count is returned
// alongside the secret.
func GenerateSecret(logDifficulty uint, maxAttempts uint64) (Secret, uint64, error) {
	buf := make([]byte, SecretSize)
	var attempts uint64
	for {
		attempts++
		if _, err := rand.Read(buf); err != nil {
			return nil, attempts, err
		}
		if CheckPoW(buf, logDifficulty) {
			secret := make(Secret, SecretSize)
			copy(secret, buf)
			return secret, attempts, nil
		}
		if maxAttempts > 0 && attempts >= maxAttempts {
			return nil, attempts, ErrSecretExhausted
		}
	}
}

// indexLE encodes a withdrawal index as 32 little-endian bytes. A nil index
// encodes as zero.
func indexLE(index *uint256.Int) [32]byte {
	var out [32]byte
	if index == nil {
		return out
	}
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], index[i])
	}
	return out
}
