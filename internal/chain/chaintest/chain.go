// Package chaintest runs an in-process chain for tests and deploys tiny
// hand-assembled contracts on it.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/require"
)

// Chain is a funded account on a simulated chain.
type Chain struct {
	Backend *simulated.Backend
	Client  simulated.Client
	Key     *ecdsa.PrivateKey
	ChainID *big.Int
}

// New starts a simulated chain with one funded account. It is closed when the
// test ends.
func New(t *testing.T) *Chain {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	balance, _ := new(big.Int).SetString("1000000000000000000000", 10)
	backend := simulated.NewBackend(types.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: balance},
	})
	t.Cleanup(func() { _ = backend.Close() })

	client := backend.Client()
	chainID, err := client.ChainID(context.Background())
	require.NoError(t, err)

	return &Chain{
		Backend: backend,
		Client:  client,
		Key:     key,
		ChainID: chainID,
	}
}

// Address returns the funded account.
func (c *Chain) Address() common.Address {
	return crypto.PubkeyToAddress(c.Key.PublicKey)
}

// Transactor returns fresh signing options for the funded account.
func (c *Chain) Transactor(t *testing.T) *bind.TransactOpts {
	t.Helper()
	opts, err := bind.NewKeyedTransactorWithChainID(c.Key, c.ChainID)
	require.NoError(t, err)
	return opts
}

// Deploy deploys runtime code and mines the deployment.
func (c *Chain) Deploy(t *testing.T, runtime []byte) common.Address {
	t.Helper()

	addr, tx, _, err := bind.DeployContract(c.Transactor(t), abi.ABI{}, InitCode(runtime), c.Client)
	require.NoError(t, err)
	c.Backend.Commit()

	receipt, err := c.Client.TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	return addr
}

// AutoMine commits a block every interval until the test ends.
func (c *Chain) AutoMine(t *testing.T, interval time.Duration) {
	t.Helper()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.Backend.Commit()
			}
		}
	}()

	t.Cleanup(func() {
		close(done)
		wg.Wait()
	})
}
