// Package storagekey derives namespaced storage locations as defined by
// ERC-7201.
package storagekey

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// annotationPrefix is the formula tag of the @custom:storage-location annotation.
const annotationPrefix = "erc7201:"

var uint256Args = func() abi.Arguments {
	ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: ty}}
}()

// Derive returns keccak256(abi.encode(uint256(keccak256(namespace)) - 1)) with
// the last byte cleared. A leading "erc7201:" is accepted and ignored.
func Derive(namespace string) (common.Hash, error) {
	id := strings.TrimPrefix(strings.TrimSpace(namespace), annotationPrefix)
	if id == "" {
		return common.Hash{}, errors.New("namespace is empty")
	}

	slot := new(big.Int).SetBytes(crypto.Keccak256([]byte(id)))
	slot.Sub(slot, big.NewInt(1))
	if slot.Sign() < 0 {
		slot.Add(slot, new(big.Int).Lsh(big.NewInt(1), 256))
	}

	encoded, err := uint256Args.Pack(slot)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode slot: %w", err)
	}

	key := crypto.Keccak256Hash(encoded)
	key[common.HashLength-1] = 0

	return key, nil
}
