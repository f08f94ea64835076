package batch

import (
	"errors"

	"github.com/storyprotocol/sp-cli/internal/chain"
	"github.com/storyprotocol/sp-cli/internal/contracts"
	"github.com/storyprotocol/sp-cli/internal/deployment"
	"github.com/storyprotocol/sp-cli/internal/events"
)

// Kind classifies why a record failed.
type Kind string

const (
	KindManifestNotFound  Kind = "manifest_not_found"
	KindManifestMalformed Kind = "manifest_malformed"
	KindUnknownContract   Kind = "unknown_contract"
	KindSubmission        Kind = "submission"
	KindRevert            Kind = "revert"
	KindTimeout           Kind = "timeout"
	KindEventNotFound     Kind = "event_not_found"
	KindDecode            Kind = "decode"
	KindUnknown           Kind = "unknown"
)

// Classify maps an error to its failure kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, deployment.ErrManifestNotFound):
		return KindManifestNotFound
	case errors.Is(err, deployment.ErrManifestMalformed):
		return KindManifestMalformed
	case errors.Is(err, contracts.ErrUnknownContract), errors.Is(err, deployment.ErrMissingContract):
		return KindUnknownContract
	case errors.Is(err, chain.ErrTimeout):
		return KindTimeout
	case errors.Is(err, chain.ErrReverted):
		return KindRevert
	case errors.Is(err, chain.ErrSubmission):
		return KindSubmission
	case errors.Is(err, events.ErrEventNotFound):
		return KindEventNotFound
	case errors.Is(err, events.ErrDecode):
		return KindDecode
	default:
		return KindUnknown
	}
}
