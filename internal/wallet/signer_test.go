package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyprotocol/sp-cli/configs"
)

const devMnemonic = "test test test test test test test test test test test junk"

func TestFromMnemonic(t *testing.T) {
	tests := []struct {
		index uint32
		want  string
	}{
		{0, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
		{1, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"},
	}

	for _, tt := range tests {
		signer, err := FromMnemonic(devMnemonic, tt.index)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(tt.want), signer.Address())
	}
}

func TestFromMnemonicInvalid(t *testing.T) {
	_, err := FromMnemonic("test test junk", 0)
	require.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = FromMnemonic("  ", 0)
	require.ErrorIs(t, err, ErrNoKey)
}

func TestFromPrivateKey(t *testing.T) {
	signer, err := FromPrivateKey("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), signer.Address())

	opts, err := signer.Transactor(31337)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), opts.From)

	_, err = FromPrivateKey("0x1234")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = FromPrivateKey("")
	require.ErrorIs(t, err, ErrNoKey)
}

func TestFromProfilePrefersPrivateKey(t *testing.T) {
	signer, err := FromProfile(configs.ChainProfile{
		Name:            "local",
		PrivateKey:      "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
		Mnemonic:        devMnemonic,
		DerivationIndex: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), signer.Address())

	signer, err = FromProfile(configs.ChainProfile{Name: "local", Mnemonic: devMnemonic, DerivationIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), signer.Address())

	_, err = FromProfile(configs.ChainProfile{Name: "sepolia"})
	require.ErrorIs(t, err, ErrNoKey)
}

func TestList(t *testing.T) {
	accounts, err := List(configs.ChainProfile{Name: "local", Mnemonic: devMnemonic}, 3)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", accounts[0].Address)
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", accounts[1].Address)
	assert.Equal(t, "m/44'/60'/0'/0/2", *accounts[2].Path)

	accounts, err = List(configs.ChainProfile{Name: "local", Mnemonic: devMnemonic}, 1)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Nil(t, accounts[0].Path)
}
