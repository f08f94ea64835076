package batch

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Resume merges the records of an earlier run into freshly built ones. A prior
// record is trusted only when its index and payload hash match: succeeded ones
// keep their outcome, everything else becomes pending again. A transaction sent
// earlier whose inclusion was never observed is carried as PreviousTxHash.
func Resume[P any](prior, fresh []Record[P]) []Record[P] {
	byIndex := make(map[int]Record[P], len(prior))
	for _, r := range prior {
		byIndex[r.Index] = r
	}

	out := make([]Record[P], len(fresh))
	for i, r := range fresh {
		r.Outcome = Outcome{State: StatePending}
		r.PreviousTxHash = nil

		old, ok := byIndex[r.Index]
		if ok && old.PayloadHash == r.PayloadHash {
			switch {
			case old.Outcome.State == StateSucceeded:
				r.Outcome = old.Outcome
			case old.Outcome.Kind == KindTimeout && old.Outcome.TxHash != nil:
				r.PreviousTxHash = old.Outcome.TxHash
			case old.PreviousTxHash != nil:
				r.PreviousTxHash = old.PreviousTxHash
			}
		}

		out[i] = r
	}

	return out
}

// ForgetPending drops the earlier transaction of every pending record so the
// record is sent again. Only safe when those transactions can no longer be
// mined, for instance after they were dropped from the mempool. It returns the
// records and how many were changed.
func ForgetPending[P any](records []Record[P]) ([]Record[P], int) {
	out := slices.Clone(records)
	forgotten := 0
	for i := range out {
		if out[i].IsPending() && out[i].PreviousTxHash != nil {
			out[i].PreviousTxHash = nil
			forgotten++
		}
	}
	return out, forgotten
}

// Summary counts records per state and failures per kind.
type Summary struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Pending   int          `json:"pending"`
	ByKind    map[Kind]int `json:"byKind,omitempty"`
}

// Summarize tallies records.
func Summarize[P any](records []Record[P]) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch {
		case r.Outcome.State == StateSucceeded:
			s.Succeeded++
		case r.Outcome.State == StateFailed:
			s.Failed++
			if s.ByKind == nil {
				s.ByKind = make(map[Kind]int)
			}
			s.ByKind[r.Outcome.Kind]++
		default:
			s.Pending++
		}
	}
	return s
}

// Complete reports whether every record succeeded.
func (s Summary) Complete() bool {
	return s.Succeeded == s.Total
}

func (s Summary) String() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "%d total, %d succeeded, %d failed, %d pending", s.Total, s.Succeeded, s.Failed, s.Pending)
	for _, kind := range slices.Sorted(maps.Keys(s.ByKind)) {
		fmt.Fprintf(b, ", %s=%d", kind, s.ByKind[kind])
	}
	return b.String()
}
