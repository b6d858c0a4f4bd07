package program

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/ethwormhole/wormhole"
	"github.com/ethwormhole/wormhole/trie"
)

// testSecret satisfies the full difficulty-24 proof-of-work gate.
var testSecret = wormhole.Secret(common.FromHex(
	"0x00000000000000000000000000000000000000000000000000000000001ee804"))

var registryAddr = common.HexToAddress("0x5555555555555555555555555555555555555555")

func hashCum(v uint64) common.Hash {
	b := uint256.NewInt(v).Bytes32()
	return crypto.Keccak256Hash(b[:])
}

func toNodes(proof [][]byte) ProofNodes {
	out := make(ProofNodes, len(proof))
	for i, n := range proof {
		out[i] = n
	}
	return out
}

// buildInput assembles a consistent witness: a state trie holding the
// deposit account and the registry account, the registry's storage trie
// holding the given spent-nullifier slots, and proofs for everything the
// program checks.
func buildInput(t *testing.T, deposit, withdraw, cumulative, index uint64, slots map[common.Hash]common.Hash) *Input {
	t.Helper()

	storage := trie.NewTrie()
	for slot, value := range slots {
		storage.Update(crypto.Keccak256(slot.Bytes()), trie.EncodeStorageValue(value))
	}

	registryAcct := &trie.StateAccount{
		Nonce:    1,
		Balance:  new(uint256.Int),
		Root:     storage.Hash(),
		CodeHash: crypto.Keccak256([]byte("registry runtime")),
	}
	registryEnc, err := registryAcct.Encode()
	if err != nil {
		t.Fatalf("encoding registry account: %v", err)
	}
	depositEnc, err := trie.NewStateAccount(uint256.NewInt(deposit)).Encode()
	if err != nil {
		t.Fatalf("encoding deposit account: %v", err)
	}

	state := trie.NewTrie()
	state.Update(crypto.Keccak256(testSecret.DepositAddress().Bytes()), depositEnc)
	state.Update(crypto.Keccak256(registryAddr.Bytes()), registryEnc)
	for i := byte(0); i < 16; i++ {
		filler, err := trie.NewStateAccount(uint256.NewInt(uint64(i) + 1)).Encode()
		if err != nil {
			t.Fatalf("encoding filler account: %v", err)
		}
		state.Update(crypto.Keccak256(common.BytesToAddress([]byte{0x10, i}).Bytes()), filler)
	}

	depositProof, err := state.Prove(crypto.Keccak256(testSecret.DepositAddress().Bytes()))
	if err != nil {
		t.Fatalf("proving deposit account: %v", err)
	}
	registryProof, err := state.Prove(crypto.Keccak256(registryAddr.Bytes()))
	if err != nil {
		t.Fatalf("proving registry account: %v", err)
	}

	in := &Input{
		Secret:                    testSecret,
		DepositAmount:             uint256.NewInt(deposit),
		WithdrawAmount:            uint256.NewInt(withdraw),
		CumulativeWithdrawnAmount: uint256.NewInt(cumulative),
		WithdrawalIndex:           uint256.NewInt(index),
		StateRoot:                 state.Hash(),
		DepositAccountProof:       toNodes(depositProof),
		NullifierAddress:          registryAddr,
		NullifierAccountProof:     toNodes(registryProof),
	}
	if index > 0 {
		prev := testSecret.Nullifier(uint256.NewInt(index - 1))
		storageProof, err := storage.Prove(crypto.Keccak256(prev.Bytes()))
		if err != nil {
			t.Fatalf("proving storage slot: %v", err)
		}
		in.PreviousNullifierStorageProof = toNodes(storageProof)
	}
	return in
}

func TestExecute_FirstWithdrawal(t *testing.T) {
	in := buildInput(t, 100, 10, 0, 0, nil)
	out, err := Execute(in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Nullifier != testSecret.Nullifier(uint256.NewInt(0)) {
		t.Errorf("nullifier = %s", out.Nullifier)
	}
	if out.CumulativeWithdrawnHash != hashCum(0) {
		t.Errorf("cumulative hash = %s, want %s", out.CumulativeWithdrawnHash, hashCum(0))
	}
	if out.WithdrawAmount.Uint64() != 10 {
		t.Errorf("withdraw = %s", out.WithdrawAmount)
	}
	if out.StateRoot != in.StateRoot || out.NullifierAddress != registryAddr {
		t.Errorf("public bindings changed: %+v", out)
	}
}

func TestExecute_WithdrawalChain(t *testing.T) {
	null0 := testSecret.Nullifier(uint256.NewInt(0))
	null1 := testSecret.Nullifier(uint256.NewInt(1))

	// Second withdrawal: 50 after 10 spent at index 0.
	in := buildInput(t, 100, 50, 10, 1, map[common.Hash]common.Hash{null0: hashCum(10)})
	out, err := Execute(in)
	if err != nil {
		t.Fatalf("index 1: %v", err)
	}
	if out.Nullifier != null1 {
		t.Errorf("index 1 nullifier = %s", out.Nullifier)
	}
	if out.CumulativeWithdrawnHash != hashCum(10) {
		t.Errorf("index 1 cumulative hash = %s", out.CumulativeWithdrawnHash)
	}

	// Third withdrawal overdrawing the deposit: 60 + 41 > 100.
	slots := map[common.Hash]common.Hash{null0: hashCum(10), null1: hashCum(60)}
	in = buildInput(t, 100, 41, 60, 2, slots)
	if _, err := Execute(in); !errors.Is(err, ErrAccounting) {
		t.Fatalf("overdraw err = %v, want ErrAccounting", err)
	}

	// Draining exactly to the deposit is allowed.
	in = buildInput(t, 100, 40, 60, 2, slots)
	if _, err := Execute(in); err != nil {
		t.Fatalf("exact drain: %v", err)
	}
}

func TestExecute_ZeroWithdraw(t *testing.T) {
	in := buildInput(t, 100, 0, 0, 0, nil)
	if _, err := Execute(in); !errors.Is(err, ErrAccounting) {
		t.Fatalf("err = %v, want ErrAccounting", err)
	}
}

func TestExecute_CumulativeOverflow(t *testing.T) {
	in := buildInput(t, 100, 1, 0, 0, nil)
	in.CumulativeWithdrawnAmount = new(uint256.Int).Not(new(uint256.Int)) // 2^256-1
	if _, err := Execute(in); !errors.Is(err, ErrAccounting) {
		t.Fatalf("err = %v, want ErrAccounting", err)
	}
}

func TestExecute_FirstWithdrawalInvariants(t *testing.T) {
	in := buildInput(t, 100, 10, 0, 0, nil)
	in.CumulativeWithdrawnAmount = uint256.NewInt(5)
	if _, err := Execute(in); !errors.Is(err, ErrNullifierChain) {
		t.Fatalf("nonzero cumulative err = %v, want ErrNullifierChain", err)
	}

	in = buildInput(t, 100, 10, 0, 0, nil)
	in.PreviousNullifierStorageProof = ProofNodes{[]byte{0x80}}
	if _, err := Execute(in); !errors.Is(err, ErrNullifierChain) {
		t.Fatalf("stray storage proof err = %v, want ErrNullifierChain", err)
	}
}

func TestExecute_ProofOfWorkGate(t *testing.T) {
	in := buildInput(t, 100, 10, 0, 0, nil)
	bad := make(wormhole.Secret, len(testSecret))
	copy(bad, testSecret)
	bad[31] ^= 0x01
	in.Secret = bad
	if _, err := Execute(in); !errors.Is(err, ErrProofOfWork) {
		t.Fatalf("err = %v, want ErrProofOfWork", err)
	}
}

func TestExecute_WrongDepositAmount(t *testing.T) {
	in := buildInput(t, 100, 10, 0, 0, nil)
	in.DepositAmount = uint256.NewInt(200)
	if _, err := Execute(in); !errors.Is(err, ErrStateProof) {
		t.Fatalf("err = %v, want ErrStateProof", err)
	}
}

func TestExecute_WrongStateRoot(t *testing.T) {
	in := buildInput(t, 100, 10, 0, 0, nil)
	in.StateRoot = common.HexToHash("0x01")
	if _, err := Execute(in); !errors.Is(err, ErrStateProof) {
		t.Fatalf("err = %v, want ErrStateProof", err)
	}
}

func TestExecute_EmptyNullifierAccountProof(t *testing.T) {
	in := buildInput(t, 100, 10, 0, 0, nil)
	in.NullifierAccountProof = nil
	if _, err := Execute(in); !errors.Is(err, ErrStateProof) {
		t.Fatalf("err = %v, want ErrStateProof", err)
	}
}

func TestExecute_WrongCumulativeClaim(t *testing.T) {
	null0 := testSecret.Nullifier(uint256.NewInt(0))
	// Slot records hash(10) but the claim says 20.
	in := buildInput(t, 100, 5, 20, 1, map[common.Hash]common.Hash{null0: hashCum(10)})
	if _, err := Execute(in); !errors.Is(err, ErrNullifierChain) {
		t.Fatalf("err = %v, want ErrNullifierChain", err)
	}
}

func TestExecute_SkippedIndex(t *testing.T) {
	null0 := testSecret.Nullifier(uint256.NewInt(0))
	// Index 2 requires nullifier(1) spent; only nullifier(0) is.
	in := buildInput(t, 100, 5, 10, 2, map[common.Hash]common.Hash{null0: hashCum(10)})
	if _, err := Execute(in); !errors.Is(err, ErrNullifierChain) {
		t.Fatalf("err = %v, want ErrNullifierChain", err)
	}
}

func TestExecute_NilInput(t *testing.T) {
	if _, err := Execute(nil); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
}

func TestCheckAccounting(t *testing.T) {
	tests := []struct {
		name                          string
		withdraw, cumulative, deposit uint64
		wantErr                       bool
		wantNext                      uint64
	}{
		{"first", 10, 0, 100, false, 10},
		{"exact", 40, 60, 100, false, 100},
		{"over", 41, 60, 100, true, 0},
		{"zero", 0, 0, 100, true, 0},
	}
	for _, tt := range tests {
		next, err := CheckAccounting(uint256.NewInt(tt.withdraw), uint256.NewInt(tt.cumulative), uint256.NewInt(tt.deposit))
		if tt.wantErr {
			if !errors.Is(err, ErrAccounting) {
				t.Errorf("%s: err = %v, want ErrAccounting", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if next.Uint64() != tt.wantNext {
			t.Errorf("%s: next = %s, want %d", tt.name, next, tt.wantNext)
		}
	}
}
