package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/logger"
)

const (
	DefaultWaitTimeout  = 2 * time.Minute
	DefaultPollInterval = 2 * time.Second

	revertReplayTimeout = 10 * time.Second
)

type (
	// Backend is the node surface the executor needs.
	Backend interface {
		bind.ContractBackend
		TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	}

	// Config tunes submission and confirmation.
	Config struct {
		// WaitTimeout bounds Wait. The caller's context deadline applies as well.
		WaitTimeout time.Duration
		// PollInterval is the delay between receipt queries.
		PollInterval time.Duration
		// GasLimit skips estimation when non-zero.
		GasLimit uint64
	}

	// Pending is a submitted transaction whose inclusion has not been observed.
	Pending struct {
		Tx          *types.Transaction
		From        common.Address
		Handle      contracts.Handle
		Method      string
		SubmittedAt time.Time
	}

	// Executor submits contract calls through one signing identity and waits for
	// their receipts. It never resubmits a transaction.
	Executor struct {
		backend Backend
		signer  *bind.TransactOpts
		cfg     Config
		logger  *slog.Logger

		// Submissions from the same identity are serialized so each one observes
		// the pending nonce left by the previous one.
		submitMu sync.Mutex
	}
)

// NewExecutor creates an executor. Zero durations in cfg fall back to defaults.
func NewExecutor(backend Backend, signer *bind.TransactOpts, cfg Config) *Executor {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &Executor{
		backend: backend,
		signer:  signer,
		cfg:     cfg,
		logger:  logger.Named("tx_executor"),
	}
}

// From returns the address of the signing identity.
func (e *Executor) From() common.Address {
	return e.signer.From
}

// Execute submits one transaction and waits for its receipt.
func (e *Executor) Execute(ctx context.Context, handle contracts.Handle, method string, args ...any) (*Receipt, error) {
	pending, err := e.Submit(ctx, handle, method, args...)
	if err != nil {
		return nil, err
	}

	return e.Wait(ctx, pending)
}

// Submit packs, signs and sends exactly one transaction calling method on handle.
func (e *Executor) Submit(ctx context.Context, handle contracts.Handle, method string, args ...any) (*Pending, error) {
	if _, ok := handle.ABI.Methods[method]; !ok {
		return nil, &SubmissionError{
			Contract: handle.Name,
			Method:   method,
			Err:      fmt.Errorf("method '%s' is not declared in the interface of %s", method, handle.Name),
		}
	}

	opts := *e.signer
	opts.Context = ctx
	if e.cfg.GasLimit > 0 {
		opts.GasLimit = e.cfg.GasLimit
	}

	contract := bind.NewBoundContract(handle.Address, handle.ABI, e.backend, e.backend, e.backend)

	e.submitMu.Lock()
	tx, err := contract.Transact(&opts, method, args...)
	e.submitMu.Unlock()
	if err != nil {
		return nil, &SubmissionError{
			Contract: handle.Name,
			Method:   method,
			Reason:   revertReason(handle.ABI, err),
			Err:      err,
		}
	}

	e.logger.
		With("contract", handle.Name).
		With("method", method).
		With("tx_hash", tx.Hash().Hex()).
		With("nonce", tx.Nonce()).
		Info("transaction submitted")

	return &Pending{
		Tx:          tx,
		From:        opts.From,
		Handle:      handle,
		Method:      method,
		SubmittedAt: time.Now(),
	}, nil
}

// Wait blocks until the transaction is mined or the wait window elapses. A
// timeout does not cancel the transaction.
func (e *Executor) Wait(ctx context.Context, pending *Pending) (*Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.WaitTimeout)
	defer cancel()

	txHash := pending.Tx.Hash()
	logger := e.logger.With("tx_hash", txHash.Hex())
	logger.Debug("waiting for transaction to be mined")

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		receipt, err := e.backend.TransactionReceipt(waitCtx, txHash)
		switch {
		case err == nil:
			return e.settle(ctx, pending, receipt)
		case errors.Is(err, ethereum.NotFound):
		case waitCtx.Err() != nil:
		default:
			// the node may be briefly unavailable or still indexing
			lastErr = err
			logger.With("err", err.Error()).Debug("receipt query failed, retrying")
		}

		select {
		case <-waitCtx.Done():
			cause := waitCtx.Err()
			if lastErr != nil {
				cause = errors.Join(cause, lastErr)
			}
			logger.Warn("transaction not mined within the wait window")
			return nil, &TimeoutError{
				Contract: pending.Handle.Name,
				Method:   pending.Method,
				TxHash:   txHash,
				Waited:   time.Since(pending.SubmittedAt),
				Err:      cause,
			}
		case <-ticker.C:
		}
	}
}

// Lookup re-queries a transaction by hash. A transaction the node does not know
// as mined yields a pending receipt and no error.
func (e *Executor) Lookup(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	receipt, err := e.backend.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return PendingReceipt(txHash), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query receipt of %s: %w", txHash.Hex(), err)
	}

	r := NewReceipt(receipt)
	if r.Status == StatusReverted {
		return r, &RevertError{
			TxHash:      txHash,
			BlockNumber: r.Block(),
		}
	}

	return r, nil
}

func (e *Executor) settle(ctx context.Context, pending *Pending, receipt *types.Receipt) (*Receipt, error) {
	r := NewReceipt(receipt)
	logger := e.logger.
		With("tx_hash", r.TxHash.Hex()).
		With("block", r.Block()).
		With("gas_used", r.GasUsed)

	if r.Status == StatusSuccess {
		logger.Info("transaction mined")
		return r, nil
	}

	reason := e.replayRevert(ctx, pending, receipt.BlockNumber)
	logger.With("reason", reason).Warn("transaction reverted")

	return r, &RevertError{
		Contract:    pending.Handle.Name,
		Method:      pending.Method,
		TxHash:      r.TxHash,
		BlockNumber: r.Block(),
		Reason:      reason,
	}
}

// replayRevert re-executes a reverted call against the block it was mined in to
// recover the revert reason. Best effort: an empty string means none was found.
func (e *Executor) replayRevert(ctx context.Context, pending *Pending, block *big.Int) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revertReplayTimeout)
	defer cancel()

	msg := ethereum.CallMsg{
		From:  pending.From,
		To:    pending.Tx.To(),
		Gas:   pending.Tx.Gas(),
		Value: pending.Tx.Value(),
		Data:  pending.Tx.Data(),
	}

	_, err := e.backend.CallContract(ctx, msg, block)
	if err == nil {
		return ""
	}

	if reason := revertReason(pending.Handle.ABI, err); reason != "" {
		return reason
	}
	return err.Error()
}

// revertReason extracts a human-readable reason from a node error carrying revert
// data. Error(string) payloads and custom errors declared in contractABI are
// decoded; anything else falls back to the node's message.
func revertReason(contractABI abi.ABI, err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}

	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return dataErr.Error()
	}

	data, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil || len(data) < 4 {
		return dataErr.Error()
	}

	if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
		return reason
	}

	for name, customErr := range contractABI.Errors {
		if bytes.Equal(customErr.ID[:4], data[:4]) {
			args, unpackErr := customErr.Inputs.Unpack(data[4:])
			if unpackErr != nil || len(args) == 0 {
				return name
			}
			return fmt.Sprintf("%s%v", name, args)
		}
	}

	return dataErr.Error()
}
