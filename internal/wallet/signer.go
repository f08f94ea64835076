// Package wallet builds the signing identity used to send transactions.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/storyprotocol/sp-cli/configs"
)

var (
	ErrNoKey           = errors.New("no private key or mnemonic configured")
	ErrInvalidKey      = errors.New("invalid private key")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// Signer is a single secp256k1 identity.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromPrivateKey parses a hex encoded key, with or without 0x prefix.
func FromPrivateKey(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, ErrNoKey
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return newSigner(key), nil
}

// FromMnemonic derives the key at m/44'/60'/0'/0/<index> from a BIP-39 mnemonic.
func FromMnemonic(mnemonic string, index uint32) (*Signer, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if mnemonic == "" {
		return nil, ErrNoKey
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	path, err := DerivationPath(index)
	if err != nil {
		return nil, err
	}

	child := master
	for _, i := range path {
		child, err = child.Derive(i)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", path, err)
		}
	}

	privKey, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get private key: %w", err)
	}

	return newSigner(privKey.ToECDSA()), nil
}

// DerivationPath returns the standard Ethereum path for account index.
func DerivationPath(index uint32) (accounts.DerivationPath, error) {
	path, err := accounts.ParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", index))
	if err != nil {
		return nil, fmt.Errorf("invalid derivation index %d: %w", index, err)
	}
	return path, nil
}

func newSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (s *Signer) Address() common.Address {
	return s.address
}

// Transactor returns signing options bound to chainID.
func (s *Signer) Transactor(chainID uint64) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, new(big.Int).SetUint64(chainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	return opts, nil
}

// FromProfile picks the private key of profile, or derives one from its
// mnemonic when no key is set.
func FromProfile(profile configs.ChainProfile) (*Signer, error) {
	if profile.PrivateKey != "" {
		return FromPrivateKey(profile.PrivateKey)
	}
	if profile.Mnemonic != "" {
		return FromMnemonic(profile.Mnemonic, profile.DerivationIndex)
	}
	return nil, fmt.Errorf("%w for network '%s'", ErrNoKey, profile.Name)
}
