package models

import "github.com/datawisp/metadata-engine/pkg/apperrors"

// DescriptionHandling selects how a newly generated description is merged
// into an existing one.
type DescriptionHandling string

const (
	HandlingAppend  DescriptionHandling = "append"
	HandlingPrepend DescriptionHandling = "prepend"
	HandlingReplace DescriptionHandling = "replace"
)

// AIWatermark marks the boundary between human-authored and machine-generated
// text inside a description. Merges under HandlingAppend preserve everything
// before the first occurrence of this marker.
const AIWatermark = "===AI generated description==="

// GenerationOptions controls one generation request. It travels by value
// through the whole pipeline; only the scheduler may flip Regenerate for the
// duration of a batch.
type GenerationOptions struct {
	UseLineageTables    bool
	UseLineageProcesses bool
	UseProfile          bool
	UseDataQuality      bool
	UseExtDocuments     bool
	UseHumanComments    bool

	// TopValuesInDescription toggles the column prompt variant that asks for
	// most-common-value exemplars.
	TopValuesInDescription bool

	// DescriptionHandling is the merge policy for new text.
	DescriptionHandling DescriptionHandling

	// AddAIWarning prefixes generated text with AIWatermark.
	AddAIWarning bool

	// StageForReview writes results to the draft record instead of the
	// permanent description.
	StageForReview bool

	// PersistToCatalog mirrors direct description writes into the catalog's
	// own description field.
	PersistToCatalog bool

	// Regenerate restricts a batch to targets flagged to-be-regenerated and
	// clears the flag after a successful pass.
	Regenerate bool
}

// DefaultGenerationOptions mirrors the defaults of the original client:
// watermarked, appended, persisted to the catalog, nothing staged.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{
		TopValuesInDescription: true,
		DescriptionHandling:    HandlingAppend,
		AddAIWarning:           true,
		PersistToCatalog:       true,
	}
}

// Validate rejects option combinations that can be detected before any
// external call is made.
func (o GenerationOptions) Validate() error {
	switch o.DescriptionHandling {
	case HandlingAppend, HandlingPrepend, HandlingReplace:
		return nil
	default:
		return apperrors.Newf(apperrors.KindConfigurationError,
			"unrecognized description handling %q", o.DescriptionHandling)
	}
}

// Strategy selects the order and subset of a dataset's tables in a batch run.
type Strategy string

const (
	StrategyNaive              Strategy = "NAIVE"
	StrategyRandom             Strategy = "RANDOM"
	StrategyAlphabetical       Strategy = "ALPHABETICAL"
	StrategyDocumented         Strategy = "DOCUMENTED"
	StrategyDocumentedThenRest Strategy = "DOCUMENTED_THEN_REST"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyNaive, StrategyRandom, StrategyAlphabetical,
		StrategyDocumented, StrategyDocumentedThenRest:
		return Strategy(name), nil
	default:
		return "", apperrors.Newf(apperrors.KindConfigurationError,
			"invalid strategy %q", name)
	}
}

// RequiresDocumentation reports whether the strategy needs a documentation
// CSV URI.
func (s Strategy) RequiresDocumentation() bool {
	return s == StrategyDocumented || s == StrategyDocumentedThenRest
}
