package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrChainMismatch is returned when the node serves a different chain than the
// selected network profile declares.
var ErrChainMismatch = errors.New("chain id mismatch")

// ChainIDReader is implemented by ethclient.Client and the simulated client.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Dial connects to rpcURL and checks the node serves expectedChainID.
func Dial(ctx context.Context, rpcURL string, expectedChainID uint64) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, errors.New("rpc url is empty")
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}

	if err := VerifyChainID(ctx, client, expectedChainID); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// VerifyChainID fails with ErrChainMismatch when the node reports another chain.
func VerifyChainID(ctx context.Context, reader ChainIDReader, expected uint64) error {
	chainID, err := reader.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}

	if !chainID.IsUint64() || chainID.Uint64() != expected {
		return fmt.Errorf("%w: node reports %s, profile expects %d", ErrChainMismatch, chainID, expected)
	}

	return nil
}
