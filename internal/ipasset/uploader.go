package ipasset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/storyprotocol/sp-cli/internal/batch"
	"github.com/storyprotocol/sp-cli/internal/logger"
)

const stateFileSuffix = ".state.json"

type (
	// Uploader registers IP assets in bulk and keeps a resumable state file.
	Uploader struct {
		service *Service
		network string
		chainID uint64
		logger  *slog.Logger
	}

	// UploadRequest describes one bulk run. ForgetPending resends records whose
	// earlier transaction was never seen mined instead of looking it up.
	UploadRequest struct {
		IPOrg         common.Address
		Receiver      common.Address
		FilePath      string
		StatePath     string
		BatchSize     int
		Concurrency   int
		Verbose       bool
		ForgetPending bool
	}

	ReconcileRequest struct {
		IPOrg     common.Address
		FilePath  string
		StatePath string
	}
)

func NewUploader(service *Service, network string, chainID uint64) *Uploader {
	return &Uploader{
		service: service,
		network: network,
		chainID: chainID,
		logger:  logger.Named("ipasset_uploader"),
	}
}

// StatePath returns the state file used for filePath when none is given.
func StatePath(filePath, override string) string {
	if override != "" {
		return override
	}
	return filePath + stateFileSuffix
}

// Upload registers every entry of the input file that has not succeeded in an
// earlier run. The state file is rewritten after every chunk.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*batch.Report[Entry], error) {
	report, store, err := u.prepare(req.FilePath, req.StatePath)
	if err != nil {
		return nil, err
	}

	logger := u.logger.
		With("run_id", report.RunID).
		With("input", req.FilePath).
		With("state", store.Path())

	if req.ForgetPending {
		records, forgotten := batch.ForgetPending(report.Records)
		if forgotten > 0 {
			report.Update(records)
			logger.With("records", forgotten).Warn("forgetting unobserved transactions, the records will be sent again")
		}
	}

	orchestrator := batch.NewOrchestrator(batch.Options[Entry]{
		ChunkSize:   req.BatchSize,
		Concurrency: req.Concurrency,
		OnChunk: func(_ context.Context, records []batch.Record[Entry]) error {
			report.Update(records)
			return store.Save(report)
		},
	})

	records, runErr := orchestrator.Run(ctx, report.Records, func(ctx context.Context, record batch.Record[Entry]) (batch.Result, error) {
		var (
			result *RegisterResult
			err    error
		)
		if record.PreviousTxHash != nil {
			logger.With("index", record.Index).With("tx_hash", record.PreviousTxHash.Hex()).Info("looking up earlier transaction")
			result, err = u.service.Resolve(ctx, req.IPOrg, *record.PreviousTxHash)
		} else {
			result, err = u.service.Register(ctx, req.IPOrg, req.Receiver, record.Payload, req.Verbose)
		}

		return toBatchResult(result), err
	})

	report.Update(records)
	if err := store.Save(report); err != nil {
		return report, errors.Join(runErr, err)
	}

	logger.With("summary", report.Summary.String()).Info("upload finished")

	return report, runErr
}

// Reconcile looks up every record whose transaction was sent but never observed
// and settles it from its receipt. Other records keep their outcome. It never
// sends a transaction.
func (u *Uploader) Reconcile(ctx context.Context, req ReconcileRequest) (*batch.Report[Entry], error) {
	entries, err := LoadEntries(req.FilePath)
	if err != nil {
		return nil, err
	}
	fresh, err := batch.NewRecords(entries)
	if err != nil {
		return nil, err
	}

	store := batch.NewStore[Entry](StatePath(req.FilePath, req.StatePath))
	report, err := store.Load()
	if err != nil {
		return nil, err
	}
	if report.ChainID != u.chainID {
		return nil, fmt.Errorf("state file %s belongs to chain %d, not %d", store.Path(), report.ChainID, u.chainID)
	}

	payloads := make(map[int]common.Hash, len(fresh))
	for _, r := range fresh {
		payloads[r.Index] = r.PayloadHash
	}

	logger := u.logger.With("run_id", report.RunID).With("state", store.Path())

	records := slices.Clone(report.Records)
	var resolved, stillPending int
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		hash, ok := unobserved(record)
		if !ok {
			continue
		}
		if payloads[record.Index] != record.PayloadHash {
			logger.With("index", record.Index).Warn("input changed since the transaction was sent, skipping")
			continue
		}

		result, err := u.service.Resolve(ctx, req.IPOrg, hash)
		switch {
		case err == nil:
			records[i].Outcome = batch.Outcome{State: batch.StateSucceeded, TxHash: &hash, Event: result.Event}
			records[i].PreviousTxHash = nil
			resolved++
		case batch.Classify(err) == batch.KindTimeout:
			records[i].Outcome = batch.Outcome{State: batch.StatePending}
			records[i].PreviousTxHash = &hash
			stillPending++
		default:
			records[i].Outcome = batch.Outcome{
				State:  batch.StateFailed,
				TxHash: &hash,
				Kind:   batch.Classify(err),
				Reason: err.Error(),
			}
			records[i].PreviousTxHash = nil
			resolved++
		}

		logger.
			With("index", record.Index).
			With("tx_hash", hash.Hex()).
			With("state", string(records[i].Outcome.State)).
			Info("record reconciled")
	}

	report.Update(records)
	if err := store.Save(report); err != nil {
		return report, err
	}

	logger.
		With("resolved", resolved).
		With("still_pending", stillPending).
		With("summary", report.Summary.String()).
		Info("reconcile finished")

	return report, nil
}

// unobserved returns the transaction of a record that was sent but whose
// inclusion was never seen.
func unobserved(record batch.Record[Entry]) (common.Hash, bool) {
	if record.PreviousTxHash != nil {
		return *record.PreviousTxHash, true
	}
	if record.Outcome.State == batch.StateFailed && record.Outcome.Kind == batch.KindTimeout && record.Outcome.TxHash != nil {
		return *record.Outcome.TxHash, true
	}
	return common.Hash{}, false
}

// prepare builds the records of filePath and merges any earlier state of the
// same input into them.
func (u *Uploader) prepare(filePath, statePath string) (*batch.Report[Entry], *batch.Store[Entry], error) {
	entries, err := LoadEntries(filePath)
	if err != nil {
		return nil, nil, err
	}

	records, err := batch.NewRecords(entries)
	if err != nil {
		return nil, nil, err
	}

	store := batch.NewStore[Entry](StatePath(filePath, statePath))
	prior, err := store.Load()
	switch {
	case errors.Is(err, batch.ErrNoState):
		return batch.NewReport(u.network, u.chainID, filePath, records), store, nil
	case err != nil:
		return nil, nil, err
	}

	if prior.ChainID != u.chainID {
		return nil, nil, fmt.Errorf("state file %s belongs to chain %d, not %d", store.Path(), prior.ChainID, u.chainID)
	}

	prior.Update(batch.Resume(prior.Records, records))
	u.logger.
		With("run_id", prior.RunID).
		With("summary", prior.Summary.String()).
		Info("resuming from state file")

	return prior, store, nil
}

func toBatchResult(result *RegisterResult) batch.Result {
	if result == nil {
		return batch.Result{}
	}
	return batch.Result{TxHash: result.TxHash, Event: result.Event, Logs: result.Logs}
}
