package ipasset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/events"
	"github.com/storyprotocol/sp-cli/internal/logger"
)

const (
	methodRegisterIPAsset  = "registerIPAsset"
	eventIPAssetRegistered = "IPAssetRegistered"
)

// Contracts lists the contracts the service binds.
var Contracts = []contracts.ContractName{
	contracts.ContractNameStoryProtocol,
	contracts.ContractNameRegistrationModule,
}

// ErrIPOrgMismatch is returned when a registration event belongs to another IP
// organisation than expected.
var ErrIPOrgMismatch = errors.New("ip org mismatch")

type (
	Service struct {
		executor      *chain.Executor
		storyProtocol contracts.Handle
		registration  contracts.Handle
		logger        *slog.Logger
	}

	RegisterResult struct {
		TxHash       common.Hash          `json:"txHash"`
		BlockNumber  uint64               `json:"blockNumber"`
		IPAssetID    *big.Int             `json:"ipAssetId,omitempty"`
		IPOrgAssetID *big.Int             `json:"ipOrgAssetId,omitempty"`
		Event        *events.DecodedEvent `json:"event,omitempty"`
		Logs         []events.Entry       `json:"logs,omitempty"`
	}

	// registrationParams mirrors the params_ tuple of registerIPAsset.
	registrationParams struct {
		Owner          common.Address
		IpOrgAssetType uint8
		Name           string
		Hash           [32]byte
		MediaUrl       string
	}
)

func NewService(executor *chain.Executor, handles map[contracts.ContractName]contracts.Handle) *Service {
	return &Service{
		executor:      executor,
		storyProtocol: handles[contracts.ContractNameStoryProtocol],
		registration:  handles[contracts.ContractNameRegistrationModule],
		logger:        logger.Named("ipasset_service"),
	}
}

// Sender returns the signing address.
func (s *Service) Sender() common.Address {
	return s.executor.From()
}

// ContentHash is the hash registered for an asset description.
func ContentHash(description string) common.Hash {
	return crypto.Keccak256Hash([]byte(description))
}

// Register registers entry in ipOrg for owner and decodes IPAssetRegistered.
// Once a transaction was sent the result carries its hash, even on error.
func (s *Service) Register(ctx context.Context, ipOrg, owner common.Address, entry Entry, verbose bool) (*RegisterResult, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	assetType, _ := ParseAssetType(entry.Type)

	params := registrationParams{
		Owner:          owner,
		IpOrgAssetType: uint8(assetType),
		Name:           entry.Name,
		Hash:           ContentHash(entry.Description),
		MediaUrl:       entry.MediaURL,
	}

	s.logger.
		With("ip_org", ipOrg.Hex()).
		With("owner", owner.Hex()).
		With("name", entry.Name).
		With("type", assetType.String()).
		Debug("registering ip asset")

	receipt, err := s.executor.Execute(ctx, s.storyProtocol, methodRegisterIPAsset,
		ipOrg, params, big.NewInt(0), [][]byte{}, [][]byte{})
	if err != nil {
		var result *RegisterResult
		if hash, ok := chain.TxHashOf(err); ok {
			result = &RegisterResult{TxHash: hash}
		}
		return result, fmt.Errorf("failed to register ip asset '%s': %w", entry.Name, err)
	}

	return s.decode(receipt, ipOrg, verbose)
}

// Resolve looks up a transaction sent earlier and decodes its registration
// without sending anything. A transaction that is still not mined yields an
// ErrTimeout error and a result carrying its hash.
func (s *Service) Resolve(ctx context.Context, ipOrg common.Address, txHash common.Hash) (*RegisterResult, error) {
	receipt, err := s.executor.Lookup(ctx, txHash)
	switch {
	case errors.Is(err, chain.ErrReverted):
		return &RegisterResult{TxHash: txHash, BlockNumber: receipt.Block()}, err
	case err != nil:
		// still unobserved, it must be looked up again rather than resent
		return &RegisterResult{TxHash: txHash}, fmt.Errorf("%w: %w", chain.ErrTimeout, err)
	}

	if !receipt.Mined() {
		return &RegisterResult{TxHash: txHash}, fmt.Errorf("%w: tx %s is still not mined", chain.ErrTimeout, txHash.Hex())
	}

	return s.decode(receipt, ipOrg, false)
}

func (s *Service) decode(receipt *chain.Receipt, ipOrg common.Address, verbose bool) (*RegisterResult, error) {
	result := &RegisterResult{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.Block(),
	}
	if verbose {
		result.Logs = events.DecodeAll(receipt, s.storyProtocol, s.registration)
	}

	event, err := events.Decode(receipt, s.registration, eventIPAssetRegistered)
	if err != nil {
		return result, err
	}
	if event.Matches > 1 {
		s.logger.
			With("tx_hash", receipt.TxHash.Hex()).
			With("matches", event.Matches).
			Warn("several IPAssetRegistered events in one receipt, using the first")
	}

	ids, err := s.checkRegistration(event, ipOrg)
	if err != nil {
		return result, err
	}

	result.Event = event
	result.IPAssetID = ids.assetID
	result.IPOrgAssetID = ids.orgAssetID

	return result, nil
}

type registeredIDs struct {
	assetID    *big.Int
	orgAssetID *big.Int
}

// checkRegistration verifies that event registered the asset in ipOrg and
// returns the ids it was given.
func (s *Service) checkRegistration(event *events.DecodedEvent, ipOrg common.Address) (registeredIDs, error) {
	org, err := arg[common.Address](event, "ipOrg")
	if err != nil {
		return registeredIDs{}, err
	}
	if org != ipOrg {
		return registeredIDs{}, fmt.Errorf("%w: %w: tx %s registered in %s, expected %s",
			events.ErrDecode, ErrIPOrgMismatch, event.TxHash.Hex(), org.Hex(), ipOrg.Hex())
	}

	assetID, err := arg[*big.Int](event, "ipAssetId")
	if err != nil {
		return registeredIDs{}, err
	}
	orgAssetID, err := arg[*big.Int](event, "ipOrgAssetId")
	if err != nil {
		return registeredIDs{}, err
	}

	return registeredIDs{assetID: assetID, orgAssetID: orgAssetID}, nil
}

// arg returns the named argument of event, failing with ErrDecode when it is
// absent or not a T.
func arg[T any](event *events.DecodedEvent, name string) (T, error) {
	var zero T
	value, found := event.Args[name]
	if !found {
		return zero, fmt.Errorf("%w: %s in tx %s has no %s", events.ErrDecode, event.Name, event.TxHash.Hex(), name)
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s of %s in tx %s is %T, expected %T",
			events.ErrDecode, name, event.Name, event.TxHash.Hex(), value, zero)
	}
	return typed, nil
}
