package batch

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/events"
	"github.com/storyprotocol/sp-cli/internal/logger"
)

const (
	DefaultChunkSize   = 100
	DefaultConcurrency = 1
)

type (
	// Result is what an action reports for a record it completed.
	Result struct {
		TxHash common.Hash
		Event  *events.DecodedEvent
		Logs   []events.Entry
	}

	// Action processes one record. A returned error fails that record only.
	Action[P any] func(ctx context.Context, record Record[P]) (Result, error)

	// Options tunes a run.
	Options[P any] struct {
		ChunkSize   int
		Concurrency int
		// OnChunk is called with a snapshot of all records after every chunk. An
		// error aborts the run.
		OnChunk func(ctx context.Context, records []Record[P]) error
	}

	// Orchestrator runs an action over pending records in chunks.
	Orchestrator[P any] struct {
		opts   Options[P]
		logger *slog.Logger
	}
)

// NewOrchestrator creates an orchestrator. Non-positive sizes fall back to
// defaults.
func NewOrchestrator[P any](opts Options[P]) *Orchestrator[P] {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	return &Orchestrator[P]{
		opts:   opts,
		logger: logger.Named("batch"),
	}
}

// Run processes every pending record with action and returns all records in
// index order. Records that are already succeeded or failed are left untouched.
// When ctx is cancelled no further record is started, unprocessed records stay
// pending and the context error is returned together with the records.
func (o *Orchestrator[P]) Run(ctx context.Context, records []Record[P], action Action[P]) ([]Record[P], error) {
	out := slices.Clone(records)
	slices.SortFunc(out, func(a, b Record[P]) int { return a.Index - b.Index })

	var todo []int
	for i := range out {
		if out[i].IsPending() {
			out[i].Outcome = Outcome{State: StatePending}
			todo = append(todo, i)
		}
	}

	o.logger.
		With("total", len(out)).
		With("pending", len(todo)).
		With("chunk_size", o.opts.ChunkSize).
		With("concurrency", o.opts.Concurrency).
		Info("starting batch")

	for chunk := range slices.Chunk(todo, o.opts.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		first, last := out[chunk[0]].Index, out[chunk[len(chunk)-1]].Index
		logger := o.logger.With("first", first).With("last", last)
		logger.Info("processing chunk")

		g := new(errgroup.Group)
		g.SetLimit(o.opts.Concurrency)
		for _, i := range chunk {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				out[i] = o.process(ctx, out[i], action)
				return nil
			})
		}
		_ = g.Wait()

		if o.opts.OnChunk != nil {
			if err := o.opts.OnChunk(ctx, slices.Clone(out)); err != nil {
				return out, err
			}
		}

		logger.With("summary", Summarize(out).String()).Info("chunk done")
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}

	return out, nil
}

func (o *Orchestrator[P]) process(ctx context.Context, record Record[P], action Action[P]) Record[P] {
	logger := o.logger.With("index", record.Index)

	result, err := action(ctx, record)
	if err == nil {
		record.Outcome = succeeded(result.TxHash, result.Event)
		record.Outcome.Logs = result.Logs
		record.PreviousTxHash = nil
		logger.With("tx_hash", result.TxHash.Hex()).Debug("record succeeded")
		return record
	}

	var txHash *common.Hash
	if hash, ok := chain.TxHashOf(err); ok {
		txHash = &hash
	} else if result.TxHash != (common.Hash{}) {
		txHash = &result.TxHash
	}

	// interrupted before anything reached the node: leave it for the next run
	if txHash == nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		logger.Debug("record interrupted")
		return record
	}

	kind := Classify(err)
	record.Outcome = failed(kind, err.Error(), txHash)
	if kind != KindTimeout {
		record.PreviousTxHash = nil
	}

	logger.
		With("kind", string(kind)).
		With("err", err.Error()).
		Warn("record failed")

	return record
}
