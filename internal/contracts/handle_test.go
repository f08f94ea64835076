package contracts_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/deployment"
)

func newBook(t *testing.T, raw map[string]string) *deployment.AddressBook {
	t.Helper()
	book, err := deployment.NewAddressBook(31337, "memory", raw)
	require.NoError(t, err)
	return book
}

func TestLoadInterfaces(t *testing.T) {
	interfaces, err := contracts.LoadInterfaces()
	require.NoError(t, err)
	require.Len(t, interfaces, len(contracts.Contracts))

	sp := interfaces[contracts.ContractNameStoryProtocol]
	assert.Contains(t, sp.Methods, "registerIpOrg")
	assert.Contains(t, sp.Methods, "registerIPAsset")

	assert.Contains(t, interfaces[contracts.ContractNameIPOrgController].Events, "IPOrgRegistered")
	assert.Contains(t, interfaces[contracts.ContractNameRegistrationModule].Events, "IPAssetRegistered")
}

func TestBind(t *testing.T) {
	book := newBook(t, map[string]string{
		"StoryProtocol": "0xcb733fD57B99212e60696Fd6605154BeEBA11bDe",
	})
	interfaces, err := contracts.LoadInterfaces()
	require.NoError(t, err)

	handle, err := contracts.Bind(book, "StoryProtocol", interfaces[contracts.ContractNameStoryProtocol])
	require.NoError(t, err)
	assert.Equal(t, "StoryProtocol", handle.Name)
	assert.Equal(t, common.HexToAddress("0xcb733fD57B99212e60696Fd6605154BeEBA11bDe"), handle.Address)

	missing, err := contracts.Bind(book, "LicensingModule", interfaces[contracts.ContractNameStoryProtocol])
	require.ErrorIs(t, err, contracts.ErrUnknownContract)
	assert.Equal(t, contracts.Handle{}, missing, "no partial handle on failure")
}

func TestFactoryUsesProxyKey(t *testing.T) {
	book := newBook(t, map[string]string{
		"IPOrgController-Impl":  "0x54B146692C73DE6985D84A5c4a82F7187829a272",
		"IPOrgController-Proxy": "0x1498Ecc8a1cA7cCeAF1E1789F2f9Cf86Fe9CDBfB",
	})
	factory, err := contracts.NewFactory(book)
	require.NoError(t, err)

	handle, err := factory.Bind(contracts.ContractNameIPOrgController)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x1498Ecc8a1cA7cCeAF1E1789F2f9Cf86Fe9CDBfB"), handle.Address)

	_, ok := handle.Event("IPOrgRegistered")
	assert.True(t, ok)
}

func TestBindAllFailsBeforeAnyUse(t *testing.T) {
	book := newBook(t, map[string]string{
		"StoryProtocol": "0xcb733fD57B99212e60696Fd6605154BeEBA11bDe",
	})
	factory, err := contracts.NewFactory(book)
	require.NoError(t, err)

	handles, err := factory.BindAll(
		contracts.ContractNameStoryProtocol,
		contracts.ContractNameIPOrgController,
		contracts.ContractNameRegistrationModule,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrUnknownContract))
	assert.Nil(t, handles)
	assert.Contains(t, err.Error(), "IPOrgController-Proxy")
	assert.Contains(t, err.Error(), "RegistrationModule")

	_, err = factory.Bind(contracts.ContractName("Nope"))
	require.ErrorIs(t, err, contracts.ErrUnknownContract)
}
