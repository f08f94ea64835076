package chain

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrSubmission marks requests the node refused before they reached the pool.
	ErrSubmission = errors.New("transaction submission failed")
	// ErrReverted marks transactions that were mined with a failed status.
	ErrReverted = errors.New("transaction reverted")
	// ErrTimeout marks transactions whose inclusion was not observed in time. The
	// transaction may still be mined later.
	ErrTimeout = errors.New("timed out waiting for transaction")
)

type (
	// SubmissionError is returned when a call could not be packed, signed or
	// accepted by the node. Retrying requires correcting the request.
	SubmissionError struct {
		Contract string
		Method   string
		Reason   string
		Err      error
	}

	// RevertError is returned when a transaction was mined but its execution
	// reverted.
	RevertError struct {
		Contract    string
		Method      string
		TxHash      common.Hash
		BlockNumber uint64
		Reason      string
	}

	// TimeoutError is returned when no receipt was seen within the wait window.
	TimeoutError struct {
		Contract string
		Method   string
		TxHash   common.Hash
		Waited   time.Duration
		Err      error
	}
)

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrSubmission, call(e.Contract, e.Method))
	if e.Reason != "" {
		msg += fmt.Sprintf(" (reason: %s)", e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmission}
	}
	return []error{ErrSubmission, e.Err}
}

func (e *RevertError) Error() string {
	msg := fmt.Sprintf("%s: %s in tx %s (block %d)", ErrReverted, call(e.Contract, e.Method), e.TxHash.Hex(), e.BlockNumber)
	if e.Reason != "" {
		msg += fmt.Sprintf(": %s", e.Reason)
	}
	return msg
}

func (e *RevertError) Unwrap() error {
	return ErrReverted
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s tx %s not mined after %s; it may still be included, query it by hash later",
		ErrTimeout, call(e.Contract, e.Method), e.TxHash.Hex(), e.Waited.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Err}
}

func call(contract, method string) string {
	if contract == "" && method == "" {
		return "transaction"
	}
	return contract + "." + method
}

// TxHashOf extracts the transaction hash carried by a revert or timeout error.
func TxHashOf(err error) (common.Hash, bool) {
	var revertErr *RevertError
	if errors.As(err, &revertErr) {
		return revertErr.TxHash, true
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.TxHash, true
	}
	return common.Hash{}, false
}
