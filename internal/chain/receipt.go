package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Status is the inclusion state of a transaction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusReverted Status = "reverted"
)

// Receipt is the confirmation record of a transaction as seen by the tool.
// BlockNumber is nil while the transaction is pending.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber *uint64
	Status      Status
	GasUsed     uint64
	Logs        []*types.Log
}

// NewReceipt converts a node receipt.
func NewReceipt(r *types.Receipt) *Receipt {
	status := StatusReverted
	if r.Status == types.ReceiptStatusSuccessful {
		status = StatusSuccess
	}

	var block *uint64
	if r.BlockNumber != nil {
		n := r.BlockNumber.Uint64()
		block = &n
	}

	return &Receipt{
		TxHash:      r.TxHash,
		BlockNumber: block,
		Status:      status,
		GasUsed:     r.GasUsed,
		Logs:        r.Logs,
	}
}

// PendingReceipt describes a transaction that is not mined yet.
func PendingReceipt(txHash common.Hash) *Receipt {
	return &Receipt{
		TxHash: txHash,
		Status: StatusPending,
	}
}

// Mined reports whether the transaction has been included in a block.
func (r *Receipt) Mined() bool {
	return r.BlockNumber != nil && r.Status != StatusPending
}

// Block returns the block number, or zero while pending.
func (r *Receipt) Block() uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return *r.BlockNumber
}
