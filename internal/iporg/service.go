package iporg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/events"
	"github.com/storyprotocol/sp-cli/internal/logger"
)

const (
	methodRegisterIPOrg  = "registerIpOrg"
	eventIPOrgRegistered = "IPOrgRegistered"
)

// Contracts lists the contracts the service binds.
var Contracts = []contracts.ContractName{
	contracts.ContractNameStoryProtocol,
	contracts.ContractNameIPOrgController,
}

type (
	Service struct {
		executor      *chain.Executor
		storyProtocol contracts.Handle
		controller    contracts.Handle
		logger        *slog.Logger
	}

	CreateRequest struct {
		Name         string
		Symbol       string
		IPAssetTypes []string
		// Verbose also decodes every log of the receipt.
		Verbose bool
	}

	CreateResult struct {
		TxHash      common.Hash          `json:"txHash"`
		BlockNumber uint64               `json:"blockNumber"`
		IPOrg       common.Address       `json:"ipOrg"`
		Event       *events.DecodedEvent `json:"event"`
		Logs        []events.Entry       `json:"logs,omitempty"`
	}
)

func NewService(executor *chain.Executor, handles map[contracts.ContractName]contracts.Handle) *Service {
	return &Service{
		executor:      executor,
		storyProtocol: handles[contracts.ContractNameStoryProtocol],
		controller:    handles[contracts.ContractNameIPOrgController],
		logger:        logger.Named("iporg_service"),
	}
}

func (r CreateRequest) Validate() error {
	var errs []error
	if r.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.Symbol == "" {
		errs = append(errs, errors.New("symbol is required"))
	}
	return errors.Join(errs...)
}

// Create registers an IP organisation owned by the sender and returns the
// decoded IPOrgRegistered event.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ipAssetTypes := req.IPAssetTypes
	if ipAssetTypes == nil {
		ipAssetTypes = []string{}
	}

	owner := s.executor.From()
	logger := s.logger.
		With("name", req.Name).
		With("symbol", req.Symbol).
		With("owner", owner.Hex())
	logger.Info("creating ip org")

	receipt, err := s.executor.Execute(ctx, s.storyProtocol, methodRegisterIPOrg, owner, req.Name, req.Symbol, ipAssetTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to register ip org: %w", err)
	}

	result := &CreateResult{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.Block(),
	}
	if req.Verbose {
		result.Logs = events.DecodeAll(receipt, s.storyProtocol, s.controller)
	}

	event, err := events.Decode(receipt, s.controller, eventIPOrgRegistered)
	if err != nil {
		return result, err
	}
	if event.Matches > 1 {
		logger.With("matches", event.Matches).Warn("several IPOrgRegistered events in one receipt, using the first")
	}

	org, err := createdOrg(event)
	if err != nil {
		return result, err
	}
	result.Event = event
	result.IPOrg = org

	logger.
		With("ip_org", result.IPOrg.Hex()).
		With("tx_hash", result.TxHash.Hex()).
		Info("ip org created")

	return result, nil
}

// createdOrg reads the address of the new organisation out of IPOrgRegistered.
func createdOrg(event *events.DecodedEvent) (common.Address, error) {
	value, found := event.Args["ipAssetOrg"]
	if !found {
		return common.Address{}, fmt.Errorf("%w: %s in tx %s has no ipAssetOrg", events.ErrDecode, event.Name, event.TxHash.Hex())
	}
	org, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: ipAssetOrg of %s in tx %s is %T, expected an address",
			events.ErrDecode, event.Name, event.TxHash.Hex(), value)
	}
	return org, nil
}
