// Package witness assembles proving inputs for withdrawals: it derives the
// deposit address and nullifier chain from the secret, discovers the next
// unspent withdrawal index on chain, fetches the account and storage proofs
// for one block, and packages everything as a program input.
package witness

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/ethwormhole/wormhole"
	"github.com/ethwormhole/wormhole/program"
)

var (
	// ErrBadSecret is returned for a secret of the wrong length or one
	// failing the proof-of-work gate. Proving with such a secret can never
	// succeed, so it is rejected before any chain access.
	ErrBadSecret = errors.New("witness: unusable secret")

	// ErrCumulativeRequired is returned when the withdrawal index is
	// nonzero and no cumulative withdrawn amount was supplied. The chain
	// only records the hash of the running total, so the plain value must
	// come from the caller's own records.
	ErrCumulativeRequired = errors.New("witness: cumulative withdrawn amount required for index > 0")

	// ErrIndexExhausted is returned when index discovery hits the probe
	// limit without finding an unspent nullifier.
	ErrIndexExhausted = errors.New("witness: no unspent withdrawal index within probe limit")
)

// FetchError wraps a chain-read failure with the operation that failed.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("witness: fetching %s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// Config configures a Builder.
type Config struct {
	// NullifierAddress is the registry contract recording spent nullifiers.
	NullifierAddress common.Address

	// MaxProbe bounds index discovery. Zero selects DefaultMaxProbe.
	MaxProbe uint64

	Log log.Logger
}

// DefaultMaxProbe is the default index discovery bound. Withdrawal chains
// are short in practice; a deposit drained one wei at a time would still
// sit far below this.
const DefaultMaxProbe = 1024

// Request describes the withdrawal to build a witness for.
type Request struct {
	Secret         wormhole.Secret
	WithdrawAmount *uint256.Int

	// WithdrawalIndex overrides on-chain index discovery when set.
	WithdrawalIndex *uint256.Int

	// CumulativeWithdrawnAmount is the total withdrawn before this step.
	// Required when the index is nonzero; must be absent or zero otherwise.
	CumulativeWithdrawnAmount *uint256.Int

	// BlockNumber pins the state block; nil means latest.
	BlockNumber *big.Int
}

// Witness is a complete program input bound to the block it was built from.
type Witness struct {
	program.Input

	BlockNumber uint64
	BlockHash   common.Hash
}

// Builder builds witnesses from a chain source.
type Builder struct {
	src Source
	cfg Config
	log log.Logger
}

// NewBuilder creates a Builder reading from src.
func NewBuilder(src Source, cfg Config) *Builder {
	if cfg.MaxProbe == 0 {
		cfg.MaxProbe = DefaultMaxProbe
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.Root()
	}
	return &Builder{src: src, cfg: cfg, log: logger}
}

// Build assembles the witness for req.
func (b *Builder) Build(ctx context.Context, req Request) (*Witness, error) {
	if !req.Secret.WellFormed() {
		return nil, fmt.Errorf("%w: secret must be %d bytes", ErrBadSecret, wormhole.SecretSize)
	}
	if !wormhole.CheckPoW(req.Secret, wormhole.PowLogDifficulty) {
		return nil, fmt.Errorf("%w: proof-of-work gate not met", ErrBadSecret)
	}

	header, err := b.src.HeaderByNumber(ctx, req.BlockNumber)
	if err != nil {
		return nil, &FetchError{Op: "header", Err: err}
	}
	blockNumber := new(big.Int).Set(header.Number)

	index := req.WithdrawalIndex
	if index == nil {
		index, err = b.discoverIndex(ctx, req.Secret, blockNumber)
		if err != nil {
			return nil, err
		}
		b.log.Debug("Discovered withdrawal index", "index", index)
	}

	cumulative := req.CumulativeWithdrawnAmount
	if cumulative == nil {
		cumulative = new(uint256.Int)
	}
	if index.IsZero() && !cumulative.IsZero() {
		return nil, errors.New("witness: nonzero cumulative amount for first withdrawal")
	}
	if !index.IsZero() && cumulative.IsZero() {
		return nil, ErrCumulativeRequired
	}

	depositAddr := req.Secret.DepositAddress()
	var registryKeys []string
	if !index.IsZero() {
		prev := new(uint256.Int).SubUint64(index, 1)
		registryKeys = []string{req.Secret.Nullifier(prev).Hex()}
	}

	in := &program.Input{
		Secret:                    req.Secret,
		WithdrawAmount:            req.WithdrawAmount,
		CumulativeWithdrawnAmount: cumulative,
		WithdrawalIndex:           index,
		StateRoot:                 header.Root,
		NullifierAddress:          b.cfg.NullifierAddress,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := b.src.ProofAt(gctx, depositAddr, nil, blockNumber)
		if err != nil {
			return &FetchError{Op: "deposit account proof", Err: err}
		}
		balance, overflow := uint256.FromBig(res.Balance)
		if overflow {
			return fmt.Errorf("witness: deposit balance out of range")
		}
		in.DepositAmount = balance
		in.DepositAccountProof, err = decodeProof(res.AccountProof)
		if err != nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		res, err := b.src.ProofAt(gctx, b.cfg.NullifierAddress, registryKeys, blockNumber)
		if err != nil {
			return &FetchError{Op: "nullifier account proof", Err: err}
		}
		in.NullifierAccountProof, err = decodeProof(res.AccountProof)
		if err != nil {
			return err
		}
		if len(registryKeys) > 0 {
			if len(res.StorageProof) != 1 {
				return fmt.Errorf("witness: expected 1 storage proof, got %d", len(res.StorageProof))
			}
			in.PreviousNullifierStorageProof, err = decodeProof(res.StorageProof[0].Proof)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if req.WithdrawAmount != nil {
		spent, overflow := new(uint256.Int).AddOverflow(cumulative, req.WithdrawAmount)
		if overflow || spent.Gt(in.DepositAmount) {
			return nil, fmt.Errorf("witness: withdraw %s exceeds remaining balance (deposit %s, withdrawn %s)",
				req.WithdrawAmount, in.DepositAmount, cumulative)
		}
	}
	if in.DepositAmount.Gt(wormhole.MaxDeposit) {
		// Oversized deposits are provable but the excess is unspendable
		// once acceptance caps them. Surface it early.
		b.log.Warn("Deposit exceeds protocol maximum", "address", depositAddr,
			"balance", in.DepositAmount, "max", wormhole.MaxDeposit)
	}

	return &Witness{
		Input:       *in,
		BlockNumber: header.Number.Uint64(),
		BlockHash:   header.Hash(),
	}, nil
}

// discoverIndex scans the registry for the first nullifier of the chain
// whose slot is still zero.
func (b *Builder) discoverIndex(ctx context.Context, secret wormhole.Secret, blockNumber *big.Int) (*uint256.Int, error) {
	for i := uint64(0); i < b.cfg.MaxProbe; i++ {
		idx := uint256.NewInt(i)
		slot := secret.Nullifier(idx)
		value, err := b.src.StorageAt(ctx, b.cfg.NullifierAddress, slot, blockNumber)
		if err != nil {
			return nil, &FetchError{Op: "nullifier slot", Err: err}
		}
		if isZero(value) {
			return idx, nil
		}
	}
	return nil, ErrIndexExhausted
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func decodeProof(nodes []string) (program.ProofNodes, error) {
	out := make(program.ProofNodes, len(nodes))
	for i, n := range nodes {
		dec, err := hexutil.Decode(n)
		if err != nil {
			return nil, fmt.Errorf("witness: decoding proof node %d: %w", i, err)
		}
		out[i] = dec
	}
	return out, nil
}
