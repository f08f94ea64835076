// Package session assembles everything a command needs to talk to the selected
// network: address book, contract handles, signer and transaction executor.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storyprotocol/sp-cli/configs"
	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/deployment"
	"github.com/storyprotocol/sp-cli/internal/logger"
	"github.com/storyprotocol/sp-cli/internal/wallet"
)

type Session struct {
	Profile  configs.ChainProfile
	Handles  map[contracts.ContractName]contracts.Handle
	Executor *chain.Executor

	close  func()
	logger *slog.Logger
}

// Open loads the address book of the configured network, binds the named
// contracts and connects to the node. Nothing is sent to the chain.
func Open(ctx context.Context, cfg configs.Config, names ...contracts.ContractName) (*Session, error) {
	profile, err := cfg.Profile(cfg.Network)
	if err != nil {
		return nil, err
	}

	book, handles, err := Bind(ctx, cfg, profile.ChainID, names...)
	if err != nil {
		return nil, err
	}

	signer, err := wallet.FromProfile(profile)
	if err != nil {
		return nil, err
	}

	opts, err := signer.Transactor(profile.ChainID)
	if err != nil {
		return nil, err
	}

	client, err := chain.Dial(ctx, profile.RPCURL, profile.ChainID)
	if err != nil {
		return nil, err
	}

	s := New(profile, handles, chain.NewExecutor(client, opts, ExecutorConfig(cfg)))
	s.close = client.Close

	s.logger.
		With("network", profile.Name).
		With("chain_id", profile.ChainID).
		With("manifest", book.Source()).
		With("sender", signer.Address().Hex()).
		Info("session opened")

	return s, nil
}

// New assembles a session from parts that are already connected.
func New(profile configs.ChainProfile, handles map[contracts.ContractName]contracts.Handle, executor *chain.Executor) *Session {
	return &Session{
		Profile:  profile,
		Handles:  handles,
		Executor: executor,
		close:    func() {},
		logger:   logger.Named("session"),
	}
}

// Bind loads the manifest of chainID and binds names, failing before any
// network access when the manifest or a contract is missing.
func Bind(ctx context.Context, cfg configs.Config, chainID uint64, names ...contracts.ContractName) (*deployment.AddressBook, map[contracts.ContractName]contracts.Handle, error) {
	loader := deployment.NewLoader(cfg.DeploymentsDir, deployment.WithSection(cfg.ManifestSection))
	book, err := loader.Load(ctx, chainID)
	if err != nil {
		return nil, nil, err
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		if def, ok := contracts.Contracts[name]; ok {
			keys = append(keys, def.ManifestKey)
		}
	}
	if err := book.Require(keys...); err != nil {
		return nil, nil, err
	}

	factory, err := contracts.NewFactory(book)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load contract interfaces: %w", err)
	}

	handles, err := factory.BindAll(names...)
	if err != nil {
		return nil, nil, err
	}

	return book, handles, nil
}

func ExecutorConfig(cfg configs.Config) chain.Config {
	return chain.Config{
		WaitTimeout:  cfg.WaitTimeout,
		PollInterval: cfg.PollInterval,
		GasLimit:     cfg.GasLimit,
	}
}

func (s *Session) Close() {
	s.close()
}
