// Package batch drives many independent contract operations, records the
// outcome of each one and persists the run so it can be resumed.
package batch

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/storyprotocol/sp-cli/internal/events"
)

// State is the processing state of a record.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

type (
	// Outcome is the result of processing one record. TxHash is set whenever a
	// transaction reached the node, including reverts and timeouts. Logs holds
	// every log of the receipt when the action asked for them.
	Outcome struct {
		State  State                `json:"state"`
		TxHash *common.Hash         `json:"txHash,omitempty"`
		Event  *events.DecodedEvent `json:"event,omitempty"`
		Logs   []events.Entry       `json:"logs,omitempty"`
		Kind   Kind                 `json:"kind,omitempty"`
		Reason string               `json:"reason,omitempty"`
	}

	// Record is one unit of batch input.
	Record[P any] struct {
		Index       int         `json:"index"`
		Payload     P           `json:"payload"`
		PayloadHash common.Hash `json:"payloadHash"`
		Outcome     Outcome     `json:"outcome"`
		// PreviousTxHash is a transaction sent for this record in an earlier run
		// whose inclusion was never observed. It is looked up rather than resent
		// until ForgetPending clears it.
		PreviousTxHash *common.Hash `json:"previousTxHash,omitempty"`
	}
)

// NewRecords wraps payloads into pending records indexed by position.
func NewRecords[P any](payloads []P) ([]Record[P], error) {
	records := make([]Record[P], len(payloads))
	for i, payload := range payloads {
		hash, err := PayloadHash(payload)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records[i] = Record[P]{
			Index:       i,
			Payload:     payload,
			PayloadHash: hash,
			Outcome:     Outcome{State: StatePending},
		}
	}
	return records, nil
}

// PayloadHash is the keccak256 of the JSON encoding of payload.
func PayloadHash(payload any) (common.Hash, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	return crypto.Keccak256Hash(data), nil
}

// IsPending reports whether the record still needs processing.
func (r Record[P]) IsPending() bool {
	return r.Outcome.State == StatePending || r.Outcome.State == ""
}

func succeeded(txHash common.Hash, event *events.DecodedEvent) Outcome {
	return Outcome{
		State:  StateSucceeded,
		TxHash: &txHash,
		Event:  event,
	}
}

func failed(kind Kind, reason string, txHash *common.Hash) Outcome {
	return Outcome{
		State:  StateFailed,
		TxHash: txHash,
		Kind:   kind,
		Reason: reason,
	}
}
