package chain_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/chain/chaintest"
	"github.com/storyprotocol/sp-cli/internal/contracts"
)

const pingABI = `[
	{"type": "function", "name": "ping", "stateMutability": "nonpayable", "inputs": [{"name": "n", "type": "uint256"}], "outputs": []},
	{"type": "event", "name": "Pinged", "anonymous": false, "inputs": [{"name": "n", "type": "uint256", "indexed": false}]}
]`

func pingHandle(t *testing.T, addr common.Address) contracts.Handle {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(pingABI))
	require.NoError(t, err)
	return contracts.Handle{Name: "Ping", Address: addr, ABI: parsed}
}

func fastConfig() chain.Config {
	return chain.Config{
		WaitTimeout:  5 * time.Second,
		PollInterval: 20 * time.Millisecond,
	}
}

func TestSubmitWaitSuccess(t *testing.T) {
	c := chaintest.New(t)
	handle := pingHandle(t, common.Address{})
	event := handle.ABI.Events["Pinged"]
	data, err := event.Inputs.Pack(big.NewInt(7))
	require.NoError(t, err)
	handle.Address = c.Deploy(t, chaintest.EmitterRuntime([]common.Hash{event.ID}, data))

	exec := chain.NewExecutor(c.Client, c.Transactor(t), fastConfig())
	assert.Equal(t, c.Address(), exec.From())

	pending, err := exec.Submit(context.Background(), handle, "ping", big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, "ping", pending.Method)

	c.Backend.Commit()

	receipt, err := exec.Wait(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, chain.StatusSuccess, receipt.Status)
	assert.True(t, receipt.Mined())
	assert.Equal(t, pending.Tx.Hash(), receipt.TxHash)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, handle.Address, receipt.Logs[0].Address)
}

func TestExecuteWithAutoMine(t *testing.T) {
	c := chaintest.New(t)
	handle := pingHandle(t, common.Address{})
	handle.Address = c.Deploy(t, chaintest.EmitterRuntime(nil, nil))
	c.AutoMine(t, 50*time.Millisecond)

	exec := chain.NewExecutor(c.Client, c.Transactor(t), fastConfig())
	for i := 0; i < 3; i++ {
		receipt, err := exec.Execute(context.Background(), handle, "ping", big.NewInt(int64(i)))
		require.NoError(t, err)
		assert.Equal(t, chain.StatusSuccess, receipt.Status)
	}
}

func TestWaitRevertCarriesReason(t *testing.T) {
	c := chaintest.New(t)
	handle := pingHandle(t, c.Deploy(t, chaintest.ReverterRuntime("ping disabled")))

	cfg := fastConfig()
	cfg.GasLimit = 200_000
	exec := chain.NewExecutor(c.Client, c.Transactor(t), cfg)

	pending, err := exec.Submit(context.Background(), handle, "ping", big.NewInt(1))
	require.NoError(t, err)
	c.Backend.Commit()

	receipt, err := exec.Wait(context.Background(), pending)
	require.Error(t, err)
	assert.True(t, errors.Is(err, chain.ErrReverted))

	var revertErr *chain.RevertError
	require.ErrorAs(t, err, &revertErr)
	assert.Equal(t, pending.Tx.Hash(), revertErr.TxHash)
	assert.Equal(t, "Ping", revertErr.Contract)
	assert.Equal(t, "ping", revertErr.Method)
	assert.Contains(t, revertErr.Reason, "ping disabled")

	require.NotNil(t, receipt)
	assert.Equal(t, chain.StatusReverted, receipt.Status)

	hash, ok := chain.TxHashOf(err)
	assert.True(t, ok)
	assert.Equal(t, pending.Tx.Hash(), hash)
}

func TestSubmitRejectedByEstimation(t *testing.T) {
	c := chaintest.New(t)
	handle := pingHandle(t, c.Deploy(t, chaintest.ReverterRuntime("")))

	exec := chain.NewExecutor(c.Client, c.Transactor(t), fastConfig())
	pending, err := exec.Submit(context.Background(), handle, "ping", big.NewInt(1))
	require.Error(t, err)
	assert.Nil(t, pending)
	assert.True(t, errors.Is(err, chain.ErrSubmission))
	assert.False(t, errors.Is(err, chain.ErrReverted))
}

func TestSubmitUndeclaredMethod(t *testing.T) {
	c := chaintest.New(t)
	exec := chain.NewExecutor(c.Client, c.Transactor(t), fastConfig())

	_, err := exec.Submit(context.Background(), pingHandle(t, common.HexToAddress("0x01")), "pong")
	var subErr *chain.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "pong", subErr.Method)
}

func TestWaitTimeout(t *testing.T) {
	c := chaintest.New(t)
	handle := pingHandle(t, c.Deploy(t, chaintest.EmitterRuntime(nil, nil)))

	cfg := fastConfig()
	cfg.WaitTimeout = 150 * time.Millisecond
	exec := chain.NewExecutor(c.Client, c.Transactor(t), cfg)

	pending, err := exec.Submit(context.Background(), handle, "ping", big.NewInt(1))
	require.NoError(t, err)

	// nothing is mined
	receipt, err := exec.Wait(context.Background(), pending)
	assert.Nil(t, receipt)
	require.ErrorIs(t, err, chain.ErrTimeout)

	var timeoutErr *chain.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, pending.Tx.Hash(), timeoutErr.TxHash)

	// the transaction is still alive and can be found by hash once mined
	r, err := exec.Lookup(context.Background(), pending.Tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, chain.StatusPending, r.Status)
	assert.False(t, r.Mined())

	c.Backend.Commit()

	r, err = exec.Lookup(context.Background(), pending.Tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, chain.StatusSuccess, r.Status)
}

func TestWaitHonoursCallerDeadline(t *testing.T) {
	c := chaintest.New(t)
	handle := pingHandle(t, c.Deploy(t, chaintest.EmitterRuntime(nil, nil)))
	exec := chain.NewExecutor(c.Client, c.Transactor(t), fastConfig())

	pending, err := exec.Submit(context.Background(), handle, "ping", big.NewInt(1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = exec.Wait(ctx, pending)
	require.ErrorIs(t, err, chain.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestVerifyChainID(t *testing.T) {
	c := chaintest.New(t)

	require.NoError(t, chain.VerifyChainID(context.Background(), c.Client, c.ChainID.Uint64()))

	err := chain.VerifyChainID(context.Background(), c.Client, 1)
	require.ErrorIs(t, err, chain.ErrChainMismatch)
}
