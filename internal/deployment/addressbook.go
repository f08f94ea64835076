// Package deployment loads the per-chain deployment manifest that tells the tool
// where each logical contract lives.
//
// The manifest is read once per invocation into an [AddressBook], an explicit
// validated mapping. Lookups never reach back into the raw JSON.
package deployment

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrManifestNotFound is returned when no manifest exists for a chain.
	ErrManifestNotFound = errors.New("deployment manifest not found")
	// ErrManifestMalformed is returned when the manifest is not a flat mapping of
	// names to hex addresses.
	ErrManifestMalformed = errors.New("deployment manifest malformed")
	// ErrMissingContract is returned by Require for names absent from the book.
	ErrMissingContract = errors.New("contract missing from address book")
)

// AddressBook maps logical contract names to deployed addresses on one chain.
// It is immutable once loaded.
type AddressBook struct {
	chainID   uint64
	source    string
	addresses map[string]common.Address
}

// NewAddressBook validates raw name/address pairs and builds an AddressBook.
func NewAddressBook(chainID uint64, source string, raw map[string]string) (*AddressBook, error) {
	var errs []error

	addresses := make(map[string]common.Address, len(raw))
	for name, value := range raw {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("empty contract name"))
			continue
		}
		if !common.IsHexAddress(value) {
			errs = append(errs, fmt.Errorf("'%s' has invalid address '%s'", name, value))
			continue
		}
		addresses[name] = common.HexToAddress(value)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestMalformed, source, errors.Join(errs...))
	}

	return &AddressBook{
		chainID:   chainID,
		source:    source,
		addresses: addresses,
	}, nil
}

// ChainID returns the chain the book was loaded for.
func (b *AddressBook) ChainID() uint64 {
	return b.chainID
}

// Source returns the manifest path the book was read from.
func (b *AddressBook) Source() string {
	return b.source
}

// Address returns the deployed address of a logical contract.
func (b *AddressBook) Address(name string) (common.Address, bool) {
	addr, ok := b.addresses[name]
	return addr, ok
}

// Names returns all contract names in lexical order.
func (b *AddressBook) Names() []string {
	names := make([]string, 0, len(b.addresses))
	for name := range b.addresses {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of entries in the book.
func (b *AddressBook) Len() int {
	return len(b.addresses)
}

// Require fails when any of the given names is absent. Every missing name is
// reported, not only the first.
func (b *AddressBook) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := b.addresses[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (chain %d, %s)", ErrMissingContract, strings.Join(missing, ", "), b.chainID, b.source)
	}
	return nil
}
