package contracts

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownContract is returned when a logical name is absent from the address
// book.
var ErrUnknownContract = errors.New("unknown contract")

type (
	// AddressBook resolves manifest keys to deployed addresses.
	AddressBook interface {
		Address(name string) (common.Address, bool)
		ChainID() uint64
	}

	// Handle binds a deployed address to its interface description. It holds no
	// mutable state and may be shared between goroutines.
	Handle struct {
		Name    string
		Address common.Address
		ABI     abi.ABI
	}
)

// Bind resolves logicalName in book and pairs it with contractABI.
func Bind(book AddressBook, logicalName string, contractABI abi.ABI) (Handle, error) {
	addr, ok := book.Address(logicalName)
	if !ok {
		return Handle{}, fmt.Errorf("%w: '%s' is not in the address book of chain %d", ErrUnknownContract, logicalName, book.ChainID())
	}

	return Handle{
		Name:    logicalName,
		Address: addr,
		ABI:     contractABI,
	}, nil
}

// Event returns the declared event with the given name.
func (h Handle) Event(name string) (abi.Event, bool) {
	event, ok := h.ABI.Events[name]
	return event, ok
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("%s(%s)", h.Name, h.Address.Hex())
}

// Factory binds the known contracts of one address book.
type Factory struct {
	book       AddressBook
	interfaces map[ContractName]abi.ABI
}

// NewFactory creates a factory over book using the embedded interfaces.
func NewFactory(book AddressBook) (*Factory, error) {
	interfaces, err := LoadInterfaces()
	if err != nil {
		return nil, err
	}

	return &Factory{
		book:       book,
		interfaces: interfaces,
	}, nil
}

// Bind returns the handle of a known contract.
func (f *Factory) Bind(name ContractName) (Handle, error) {
	def, ok := Contracts[name]
	if !ok {
		return Handle{}, fmt.Errorf("%w: no definition for '%s'", ErrUnknownContract, name)
	}

	return Bind(f.book, def.ManifestKey, f.interfaces[name])
}

// BindAll binds every named contract, failing if any of them cannot be bound.
// Commands call it before submitting anything.
func (f *Factory) BindAll(names ...ContractName) (map[ContractName]Handle, error) {
	handles := make(map[ContractName]Handle, len(names))

	var errs []error
	for _, name := range names {
		handle, err := f.Bind(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handles[name] = handle
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return handles, nil
}
