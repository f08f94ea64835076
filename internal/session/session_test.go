package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyprotocol/sp-cli/configs"
	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/deployment"
)

func testConfig(t *testing.T, manifest string) configs.Config {
	t.Helper()
	cfg := configs.MustDefaultConfig()
	cfg.DeploymentsDir = t.TempDir()
	if manifest != "" {
		path := filepath.Join(cfg.DeploymentsDir, deployment.ManifestFileName(31337))
		require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	}
	return cfg
}

func TestBind(t *testing.T) {
	cfg := testConfig(t, `{"main": {
		"StoryProtocol": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		"IPOrgController-Proxy": "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	}}`)

	book, handles, err := Bind(context.Background(), cfg, 31337,
		contracts.ContractNameStoryProtocol, contracts.ContractNameIPOrgController)
	require.NoError(t, err)

	assert.Equal(t, uint64(31337), book.ChainID())
	require.Len(t, handles, 2)
	assert.Equal(t, "IPOrgController-Proxy", handles[contracts.ContractNameIPOrgController].Name)
	assert.Contains(t, handles[contracts.ContractNameStoryProtocol].ABI.Methods, "registerIpOrg")
}

func TestBindFailsBeforeNetworkAccess(t *testing.T) {
	t.Run("no manifest", func(t *testing.T) {
		_, _, err := Bind(context.Background(), testConfig(t, ""), 31337, contracts.ContractNameStoryProtocol)
		require.ErrorIs(t, err, deployment.ErrManifestNotFound)
	})

	t.Run("contract missing", func(t *testing.T) {
		cfg := testConfig(t, `{"main": {"StoryProtocol": "0x5FbDB2315678afecb367f032d93F642f64180aa3"}}`)
		_, _, err := Bind(context.Background(), cfg, 31337,
			contracts.ContractNameStoryProtocol, contracts.ContractNameRegistrationModule, contracts.ContractNameIPOrgController)
		require.ErrorIs(t, err, deployment.ErrMissingContract)
		assert.Contains(t, err.Error(), "RegistrationModule")
		assert.Contains(t, err.Error(), "IPOrgController-Proxy")
	})

	t.Run("contract without definition", func(t *testing.T) {
		cfg := testConfig(t, `{"main": {"StoryProtocol": "0x5FbDB2315678afecb367f032d93F642f64180aa3"}}`)
		_, _, err := Bind(context.Background(), cfg, 31337, contracts.ContractName("LicenseRegistry"))
		require.ErrorIs(t, err, contracts.ErrUnknownContract)
	})
}

func TestOpenUnknownNetwork(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Network = "nowhere"

	_, err := Open(context.Background(), cfg, contracts.ContractNameStoryProtocol)
	require.ErrorContains(t, err, "unknown network 'nowhere'")
}
