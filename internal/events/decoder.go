// Package events decodes contract events out of transaction receipts using the
// interface description carried by a contract handle.
package events

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/contracts"
)

var (
	// ErrEventNotFound is returned when a mined transaction did not emit the
	// expected event from the expected contract.
	ErrEventNotFound = errors.New("event not found")
	// ErrDecode is returned when a matching log cannot be decoded with the
	// declared interface, which points at an address/interface mismatch.
	ErrDecode = errors.New("event decode failed")
)

// DecodedEvent is one event decoded from a log entry.
type DecodedEvent struct {
	Name        string         `json:"name"`
	Contract    string         `json:"contract"`
	Address     common.Address `json:"address"`
	Args        map[string]any `json:"args"`
	TxHash      common.Hash    `json:"txHash"`
	BlockNumber uint64         `json:"blockNumber"`
	LogIndex    uint           `json:"logIndex"`
	// Matches counts the log entries that matched. Only the first one is decoded.
	Matches int `json:"matches"`
}

// Decode finds the first log in receipt emitted by handle's contract with the
// signature of eventName and decodes it.
//
// A call is expected to emit the target event exactly once. When several entries
// match, the first in log order is returned and Matches tells the caller how many
// were seen.
func Decode(receipt *chain.Receipt, handle contracts.Handle, eventName string) (*DecodedEvent, error) {
	switch receipt.Status {
	case chain.StatusReverted:
		return nil, fmt.Errorf("%w: tx %s, no events to decode", chain.ErrReverted, receipt.TxHash.Hex())
	case chain.StatusPending:
		return nil, fmt.Errorf("%w: tx %s is not mined yet", ErrEventNotFound, receipt.TxHash.Hex())
	}

	event, ok := handle.Event(eventName)
	if !ok {
		return nil, fmt.Errorf("%w: event '%s' is not declared by %s", ErrDecode, eventName, handle.Name)
	}

	var first *types.Log
	matches := 0
	for _, log := range receipt.Logs {
		if !matchesEvent(log, handle.Address, event) {
			continue
		}
		if first == nil {
			first = log
		}
		matches++
	}

	if first == nil {
		return nil, fmt.Errorf("%w: %s not emitted by %s in tx %s", ErrEventNotFound, eventName, handle, receipt.TxHash.Hex())
	}

	args, err := UnpackLog(event, first)
	if err != nil {
		return nil, fmt.Errorf("%w: %s from %s in tx %s: %w", ErrDecode, eventName, handle, receipt.TxHash.Hex(), err)
	}

	return &DecodedEvent{
		Name:        event.Name,
		Contract:    handle.Name,
		Address:     first.Address,
		Args:        args,
		TxHash:      receipt.TxHash,
		BlockNumber: first.BlockNumber,
		LogIndex:    first.Index,
		Matches:     matches,
	}, nil
}

// UnpackLog decodes the indexed and non-indexed arguments of log as event.
// Arguments keep their Go types (common.Address, *big.Int, ...) except bytesN,
// which is returned as hexutil.Bytes.
func UnpackLog(event abi.Event, log *types.Log) (map[string]any, error) {
	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}

	topics := log.Topics
	if !event.Anonymous {
		if len(topics) == 0 {
			return nil, errors.New("log has no topics")
		}
		topics = topics[1:]
	}
	if len(topics) != len(indexed) {
		return nil, fmt.Errorf("expected %d indexed topics, got %d", len(indexed), len(topics))
	}

	args := make(map[string]any, len(event.Inputs))
	if len(log.Data) > 0 || len(event.Inputs.NonIndexed()) > 0 {
		if err := event.Inputs.UnpackIntoMap(args, log.Data); err != nil {
			return nil, fmt.Errorf("failed to unpack data: %w", err)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, topics); err != nil {
			return nil, fmt.Errorf("failed to parse topics: %w", err)
		}
	}

	for _, input := range event.Inputs {
		if input.Type.T != abi.FixedBytesTy {
			continue
		}
		if value, ok := args[input.Name]; ok {
			args[input.Name] = normalize(value)
		}
	}

	return args, nil
}

// normalize turns a bytesN value into hex so it prints readably.
func normalize(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Array || v.Type().Elem().Kind() != reflect.Uint8 {
		return value
	}

	b := make([]byte, v.Len())
	reflect.Copy(reflect.ValueOf(b), v)
	return hexutil.Bytes(b)
}

func matchesEvent(log *types.Log, address common.Address, event abi.Event) bool {
	if log == nil || log.Address != address || len(log.Topics) == 0 {
		return false
	}
	return log.Topics[0] == event.ID
}

// Entry is one log of a receipt. Event is nil when the log could not be
// attributed to a known event; the raw fields are always set.
type Entry struct {
	LogIndex uint           `json:"logIndex"`
	Address  common.Address `json:"address"`
	Topics   []common.Hash  `json:"topics"`
	Data     hexutil.Bytes  `json:"data"`
	Event    *DecodedEvent  `json:"event,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DecodeAll decodes every log of receipt whose emitter is one of handles. Logs
// from other contracts, or with undeclared signatures, are returned raw.
func DecodeAll(receipt *chain.Receipt, handles ...contracts.Handle) []Entry {
	byAddress := make(map[common.Address]contracts.Handle, len(handles))
	for _, h := range handles {
		byAddress[h.Address] = h
	}

	entries := make([]Entry, 0, len(receipt.Logs))
	for _, log := range receipt.Logs {
		if log == nil {
			continue
		}
		entry := Entry{
			LogIndex: log.Index,
			Address:  log.Address,
			Topics:   log.Topics,
			Data:     log.Data,
		}

		handle, known := byAddress[log.Address]
		if known && len(log.Topics) > 0 {
			if event, err := handle.ABI.EventByID(log.Topics[0]); err == nil {
				args, err := UnpackLog(*event, log)
				if err != nil {
					entry.Error = err.Error()
				} else {
					entry.Event = &DecodedEvent{
						Name:        event.Name,
						Contract:    handle.Name,
						Address:     log.Address,
						Args:        args,
						TxHash:      receipt.TxHash,
						BlockNumber: log.BlockNumber,
						LogIndex:    log.Index,
						Matches:     1,
					}
				}
			}
		}

		entries = append(entries, entry)
	}

	return entries
}
