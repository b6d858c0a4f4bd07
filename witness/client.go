// client.go binds the witness builder to a live node over JSON-RPC. The
// Source interface is the seam for tests; Client is the production
// implementation on top of ethclient and the eth_getProof extension.
package witness

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Source provides the chain reads the builder needs. All methods follow
// ethclient conventions: a nil block number means the latest block.
type Source interface {
	// HeaderByNumber returns the header of the given block.
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	// ProofAt returns the eth_getProof result for account and the given
	// storage keys at the given block.
	ProofAt(ctx context.Context, account common.Address, keys []string, blockNumber *big.Int) (*gethclient.AccountResult, error)

	// StorageAt returns the raw 32-byte value of the given storage slot.
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// Client implements Source against a single RPC endpoint.
type Client struct {
	eth  *ethclient.Client
	geth *gethclient.Client
}

// Dial connects to the given JSON-RPC endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("witness: dialing %s: %w", url, err)
	}
	return NewClient(c), nil
}

// NewClient wraps an existing RPC connection.
func NewClient(c *rpc.Client) *Client {
	return &Client{eth: ethclient.NewClient(c), geth: gethclient.New(c)}
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.eth.HeaderByNumber(ctx, number)
}

func (c *Client) ProofAt(ctx context.Context, account common.Address, keys []string, blockNumber *big.Int) (*gethclient.AccountResult, error) {
	return c.geth.GetProof(ctx, account, keys, blockNumber)
}

func (c *Client) StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	return c.eth.StorageAt(ctx, account, key, blockNumber)
}
