package contracts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/*.json
var interfacesFS embed.FS

var (
	interfacesOnce sync.Once
	interfaces     map[ContractName]abi.ABI
	interfacesErr  error
)

// LoadInterfaces parses the embedded interface descriptions of every known
// contract. The result is computed once and shared.
func LoadInterfaces() (map[ContractName]abi.ABI, error) {
	interfacesOnce.Do(func() {
		interfaces, interfacesErr = parseInterfaces(Contracts)
	})

	if interfacesErr != nil {
		return nil, interfacesErr
	}

	return interfaces, nil
}

func parseInterfaces(defs map[ContractName]Definition) (map[ContractName]abi.ABI, error) {
	parsed := make(map[ContractName]abi.ABI, len(defs))

	for name, def := range defs {
		data, err := interfacesFS.ReadFile(def.abiFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded ABI for %s: %w", name, err)
		}

		contractABI, err := abi.JSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
		}

		parsed[name] = contractABI
	}

	return parsed, nil
}
