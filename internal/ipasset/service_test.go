package ipasset

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyprotocol/sp-cli/internal/chain/chaintest"
	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/events"
)

var ipOrg = common.HexToAddress("0x00000000000000000000000000000000000000a1")

var hero = Entry{Name: "Hero", Description: "a tale", MediaURL: "https://media/hero.png", Type: "CHARACTER"}

// registryStandIn deploys a contract that accepts any call and emits a canned
// IPAssetRegistered event for org.
func registryStandIn(t *testing.T, c *chaintest.Chain, org common.Address) map[contracts.ContractName]contracts.Handle {
	t.Helper()

	event := chaintest.Interface(t, contracts.ContractNameRegistrationModule).ABI.Events[eventIPAssetRegistered]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(42), big.NewInt(7), hero.Name, [32]byte(ContentHash(hero.Description)), hero.MediaURL)
	require.NoError(t, err)

	topics := []common.Hash{
		event.ID,
		common.BytesToHash(org.Bytes()),
		common.BytesToHash(c.Address().Bytes()),
		common.BigToHash(big.NewInt(int64(AssetTypeCharacter))),
	}
	addr := c.Deploy(t, chaintest.EmitterRuntime(topics, data))

	return c.Bind(t, map[string]common.Address{
		"StoryProtocol":      addr,
		"RegistrationModule": addr,
	}, Contracts...)
}

func TestRegister(t *testing.T) {
	c := chaintest.New(t)
	handles := registryStandIn(t, c, ipOrg)
	c.AutoMine(t, 20*time.Millisecond)

	svc := NewService(c.Executor(t, 5*time.Second), handles)
	result, err := svc.Register(context.Background(), ipOrg, svc.Sender(), hero, true)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(42), result.IPAssetID)
	assert.Equal(t, big.NewInt(7), result.IPOrgAssetID)
	require.NotNil(t, result.Event)
	assert.Equal(t, ipOrg, result.Event.Args["ipOrg"])
	assert.Equal(t, uint8(AssetTypeCharacter), result.Event.Args["ipOrgAssetType"])
	assert.Equal(t, "Hero", result.Event.Args["name"])
	assert.Len(t, result.Logs, 1)

	again, err := svc.Resolve(context.Background(), ipOrg, result.TxHash)
	require.NoError(t, err)
	assert.Equal(t, result.IPAssetID, again.IPAssetID)
}

func TestRegisterInAnotherIPOrg(t *testing.T) {
	c := chaintest.New(t)
	handles := registryStandIn(t, c, common.HexToAddress("0x00000000000000000000000000000000000000b2"))
	c.AutoMine(t, 20*time.Millisecond)

	svc := NewService(c.Executor(t, 5*time.Second), handles)
	result, err := svc.Register(context.Background(), ipOrg, svc.Sender(), hero, false)
	require.ErrorIs(t, err, ErrIPOrgMismatch)
	require.ErrorIs(t, err, events.ErrDecode)
	require.NotNil(t, result)
	assert.NotEqual(t, common.Hash{}, result.TxHash)
}

func TestRegisterRejectsUnknownType(t *testing.T) {
	svc := NewService(nil, nil)
	entry := hero
	entry.Type = "VEHICLE"

	result, err := svc.Register(context.Background(), ipOrg, ipOrg, entry, false)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestRegistrationArgsMustBeTyped(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			"ipOrg":        ipOrg,
			"ipAssetId":    big.NewInt(42),
			"ipOrgAssetId": big.NewInt(7),
		}
	}

	tests := []struct {
		name   string
		mutate func(args map[string]any)
	}{
		{"ip org as raw bytes", func(args map[string]any) { args["ipOrg"] = hexutil.Bytes(ipOrg.Bytes()) }},
		{"ip org missing", func(args map[string]any) { delete(args, "ipOrg") }},
		{"asset id as string", func(args map[string]any) { args["ipAssetId"] = "42" }},
		{"org asset id missing", func(args map[string]any) { delete(args, "ipOrgAssetId") }},
	}

	svc := NewService(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := valid()
			tt.mutate(args)

			_, err := svc.checkRegistration(&events.DecodedEvent{Name: eventIPAssetRegistered, Args: args}, ipOrg)
			require.ErrorIs(t, err, events.ErrDecode)
			assert.NotErrorIs(t, err, ErrIPOrgMismatch)
		})
	}

	ids, err := svc.checkRegistration(&events.DecodedEvent{Name: eventIPAssetRegistered, Args: valid()}, ipOrg)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), ids.assetID)
	assert.Equal(t, big.NewInt(7), ids.orgAssetID)
}
