package ipasset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	flagEvents      bool
	flagBatchSize   int
	flagConcurrency int
	flagState       string
	flagForget      bool
)

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s '%s' is not a hex address", name, value)
	}
	return common.HexToAddress(value), nil
}
