package trie

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func buildStateTrie(t *testing.T, accounts map[common.Address]*StateAccount) *Trie {
	t.Helper()
	tr := NewTrie()
	for addr, acct := range accounts {
		enc, err := acct.Encode()
		if err != nil {
			t.Fatalf("encoding account %s: %v", addr, err)
		}
		tr.Update(keccak256(addr.Bytes()).Bytes(), enc)
	}
	return tr
}

func TestVerifyAccountProof_Inclusion(t *testing.T) {
	target := common.HexToAddress("0x82c1f8694809849773c2099ab234f97069595766")
	accounts := map[common.Address]*StateAccount{
		target: NewStateAccount(uint256.NewInt(100)),
		common.HexToAddress("0x0000000000000000000000000000000000000001"): {
			Nonce: 3, Balance: uint256.NewInt(5), Root: EmptyRootHash, CodeHash: EmptyCodeHash.Bytes(),
		},
		common.HexToAddress("0x0000000000000000000000000000000000000002"): {
			Nonce: 9, Balance: new(uint256.Int), Root: EmptyRootHash, CodeHash: EmptyCodeHash.Bytes(),
		},
	}
	tr := buildStateTrie(t, accounts)
	root := tr.Hash()
	proof, err := tr.Prove(keccak256(target.Bytes()).Bytes())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	if err := VerifyAccountProof(root, target, NewStateAccount(uint256.NewInt(100)), proof); err != nil {
		t.Fatalf("VerifyAccountProof: %v", err)
	}

	// Wrong balance must not verify.
	err = VerifyAccountProof(root, target, NewStateAccount(uint256.NewInt(101)), proof)
	if !errors.Is(err, ErrProofMismatch) {
		t.Fatalf("wrong balance err = %v, want ErrProofMismatch", err)
	}

	// Touched account shape (nonzero nonce) must not verify either.
	tampered := NewStateAccount(uint256.NewInt(100))
	tampered.Nonce = 1
	if err := VerifyAccountProof(root, target, tampered, proof); err == nil {
		t.Fatal("nonzero nonce verified against fresh-deposit account")
	}
}

func TestVerifyAccountProof_Absence(t *testing.T) {
	accounts := map[common.Address]*StateAccount{
		common.HexToAddress("0x0000000000000000000000000000000000000001"): NewStateAccount(uint256.NewInt(1)),
		common.HexToAddress("0x0000000000000000000000000000000000000002"): NewStateAccount(uint256.NewInt(2)),
	}
	tr := buildStateTrie(t, accounts)
	root := tr.Hash()

	missing := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	proof, err := tr.Prove(keccak256(missing.Bytes()).Bytes())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := VerifyAccountProof(root, missing, nil, proof); err != nil {
		t.Fatalf("absence proof: %v", err)
	}
	// Absence proof cannot back an inclusion claim.
	if err := VerifyAccountProof(root, missing, NewStateAccount(uint256.NewInt(1)), proof); err == nil {
		t.Fatal("absence proof verified an account")
	}
}

func TestVerifyStorageProof_InclusionAndZero(t *testing.T) {
	slotA := common.HexToHash("0x01")
	slotB := common.HexToHash("0x02")
	valueA := common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000aa")

	tr := NewTrie()
	tr.Update(keccak256(slotA.Bytes()).Bytes(), EncodeStorageValue(valueA))
	root := tr.Hash()

	proofA, err := tr.Prove(keccak256(slotA.Bytes()).Bytes())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := VerifyStorageProof(root, slotA, EncodeStorageValue(valueA), proofA); err != nil {
		t.Fatalf("inclusion: %v", err)
	}
	wrong := common.HexToHash("0xbb")
	if err := VerifyStorageProof(root, slotA, EncodeStorageValue(wrong), proofA); !errors.Is(err, ErrProofMismatch) {
		t.Fatalf("wrong value err = %v, want ErrProofMismatch", err)
	}

	proofB, err := tr.Prove(keccak256(slotB.Bytes()).Bytes())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := VerifyStorageProof(root, slotB, nil, proofB); err != nil {
		t.Fatalf("zero slot: %v", err)
	}
}

func TestDecodeLeafAccount(t *testing.T) {
	target := common.HexToAddress("0x3333333333333333333333333333333333333333")
	acct := &StateAccount{
		Nonce:    1,
		Balance:  uint256.NewInt(42),
		Root:     common.HexToHash("0x4444444444444444444444444444444444444444444444444444444444444444"),
		CodeHash: EmptyCodeHash.Bytes(),
	}
	accounts := map[common.Address]*StateAccount{target: acct}
	for i := byte(0); i < 8; i++ {
		accounts[common.BytesToAddress([]byte{i})] = NewStateAccount(uint256.NewInt(uint64(i)))
	}
	tr := buildStateTrie(t, accounts)
	proof, err := tr.Prove(keccak256(target.Bytes()).Bytes())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	decoded, raw, err := DecodeLeafAccount(proof[len(proof)-1])
	if err != nil {
		t.Fatalf("DecodeLeafAccount: %v", err)
	}
	if decoded.Nonce != acct.Nonce || decoded.Balance.Cmp(acct.Balance) != 0 || decoded.Root != acct.Root {
		t.Fatalf("decoded account = %+v", decoded)
	}
	enc, err := acct.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(raw, enc) {
		t.Error("raw leaf value differs from account encoding")
	}
}

func TestDecodeLeafAccount_NotLeaf(t *testing.T) {
	// Build a trie wide enough that the root is a branch node.
	tr := buildStateTrie(t, map[common.Address]*StateAccount{
		common.BytesToAddress([]byte{1}): NewStateAccount(uint256.NewInt(1)),
		common.BytesToAddress([]byte{2}): NewStateAccount(uint256.NewInt(2)),
		common.BytesToAddress([]byte{3}): NewStateAccount(uint256.NewInt(3)),
		common.BytesToAddress([]byte{4}): NewStateAccount(uint256.NewInt(4)),
	})
	addr := common.BytesToAddress([]byte{1})
	proof, err := tr.Prove(keccak256(addr.Bytes()).Bytes())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if len(proof) < 2 {
		t.Skip("trie too shallow for a branch root")
	}
	if _, _, err := DecodeLeafAccount(proof[0]); err == nil {
		t.Fatal("branch node decoded as leaf")
	}
}

func TestEncodeStorageValue_LeadingZeros(t *testing.T) {
	tests := []struct {
		value common.Hash
		want  []byte
	}{
		{common.HexToHash("0x01"), []byte{0x01}},
		{common.HexToHash("0x80"), []byte{0x81, 0x80}},
		{common.HexToHash("0xaabb"), []byte{0x82, 0xaa, 0xbb}},
	}
	for _, tt := range tests {
		if got := EncodeStorageValue(tt.value); !bytes.Equal(got, tt.want) {
			t.Errorf("EncodeStorageValue(%s) = %x, want %x", tt.value, got, tt.want)
		}
	}
}

func TestStateAccount_EncodeDecode(t *testing.T) {
	acct := &StateAccount{
		Nonce:    5,
		Balance:  uint256.NewInt(123456789),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
	enc, err := acct.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := DecodeStateAccount(enc)
	if err != nil {
		t.Fatalf("DecodeStateAccount: %v", err)
	}
	if back.Nonce != acct.Nonce || back.Balance.Cmp(acct.Balance) != 0 ||
		back.Root != acct.Root || !bytes.Equal(back.CodeHash, acct.CodeHash) {
		t.Fatalf("round trip changed account: %+v", back)
	}
}
