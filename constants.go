// Package wormhole implements the core of a privacy-preserving withdrawal
// protocol. A depositor burns funds into an address derived from a secret and
// later withdraws them, in one or more installments, by proving in zero
// knowledge that it knows a secret whose derived address holds the deposit.
// Each withdrawal publishes a nullifier derived from the secret and the
// withdrawal index; a registry of spent nullifiers prevents replay.
package wormhole

import "github.com/holiman/uint256"

const (
	// MagicAddress is the salt byte for deriving the deposit (burn) address.
	MagicAddress = 0xfe

	// MagicNullifier is the salt byte for deriving per-withdrawal nullifiers.
	MagicNullifier = 0x01

	// MagicPoW is the salt byte for the proof-of-work condition on secrets.
	MagicPoW = 0x02

	// PowLogDifficulty is the default log2 difficulty of the proof-of-work
	// gate. A fresh secret requires 2^24 hash evaluations in expectation.
	PowLogDifficulty = 24

	// SecretSize is the length in bytes of a well-formed secret.
	SecretSize = 32

	// TxType is the EIP-2718 type of the withdrawal transaction.
	TxType = 0x05
)

// MaxDeposit is the maximum allowed value of a single deposit: 32 ether.
var MaxDeposit = uint256.MustFromHex("0x1bc16d674ec800000")
