package chaintest

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/deployment"
)

// Bind binds the known contracts to the given manifest entries on c.
func (c *Chain) Bind(t *testing.T, manifest map[string]common.Address, names ...contracts.ContractName) map[contracts.ContractName]contracts.Handle {
	t.Helper()

	raw := make(map[string]string, len(manifest))
	for name, addr := range manifest {
		raw[name] = addr.Hex()
	}

	book, err := deployment.NewAddressBook(c.ChainID.Uint64(), "simulated", raw)
	require.NoError(t, err)

	factory, err := contracts.NewFactory(book)
	require.NoError(t, err)

	handles, err := factory.BindAll(names...)
	require.NoError(t, err)

	return handles
}

// Executor returns an executor for the funded account with short polling.
func (c *Chain) Executor(t *testing.T, waitTimeout time.Duration) *chain.Executor {
	t.Helper()
	return chain.NewExecutor(c.Client, c.Transactor(t), chain.Config{
		WaitTimeout:  waitTimeout,
		PollInterval: 20 * time.Millisecond,
	})
}

// Interface returns the embedded interface of a known contract.
func Interface(t *testing.T, name contracts.ContractName) contracts.Handle {
	t.Helper()
	interfaces, err := contracts.LoadInterfaces()
	require.NoError(t, err)
	return contracts.Handle{Name: string(name), ABI: interfaces[name]}
}
