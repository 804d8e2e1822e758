package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawisp/metadata-engine/pkg/models"
)

func sampleContext() *models.TableContext {
	return &models.TableContext{
		Target: models.NewTableTarget("proj", "sales", "orders"),
		Schema: []models.SchemaField{
			{Name: "order_id", Type: "bigint"},
			{Name: "amount", Type: "numeric"},
		},
		SampleJSON:  `[{"order_id":1,"amount":9.99}]`,
		ProfileJSON: `{"order_id":{"nulls":0}}`,
		QualityJSON: `{"rules_passed":12}`,
		SourceTables: []models.SourceTable{
			{Name: "proj.raw.order_events", Description: "Raw events", Schema: []models.SchemaField{{Name: "payload", Type: "jsonb"}}},
		},
		SourceQueries:    []string{"INSERT INTO sales.orders SELECT ..."},
		HumanComments:    []string{"Mention the currency"},
		NegativeExamples: []string{"This table contains data."},
		DocumentURI:      "https://docs.internal/orders.pdf",
	}
}

func allOptions() models.GenerationOptions {
	opts := models.DefaultGenerationOptions()
	opts.UseProfile = true
	opts.UseDataQuality = true
	opts.UseLineageTables = true
	opts.UseLineageProcesses = true
	opts.UseExtDocuments = true
	opts.UseHumanComments = true
	return opts
}

func TestTablePromptIsDeterministic(t *testing.T) {
	tctx := sampleContext()
	opts := allOptions()
	assert.Equal(t,
		BuildTableDescriptionPrompt(tctx, opts),
		BuildTableDescriptionPrompt(tctx, opts))
}

func TestTablePromptIncludesEnabledSections(t *testing.T) {
	prompt := BuildTableDescriptionPrompt(sampleContext(), allOptions())

	assert.Contains(t, prompt, "proj.sales.orders")
	assert.Contains(t, prompt, "order_id (bigint)")
	assert.Contains(t, prompt, `"amount":9.99`)
	assert.Contains(t, prompt, "# Profile statistics")
	assert.Contains(t, prompt, "# Data quality")
	assert.Contains(t, prompt, "proj.raw.order_events")
	assert.Contains(t, prompt, "# Producing queries")
	assert.Contains(t, prompt, "https://docs.internal/orders.pdf")
	assert.Contains(t, prompt, "Mention the currency")
	assert.Contains(t, prompt, "This table contains data.")
	assert.Contains(t, prompt, "# Output format")
}

func TestTablePromptOmitsDisabledSections(t *testing.T) {
	prompt := BuildTableDescriptionPrompt(sampleContext(), models.DefaultGenerationOptions())

	assert.NotContains(t, prompt, "# Profile statistics")
	assert.NotContains(t, prompt, "# Data quality")
	assert.NotContains(t, prompt, "# Upstream tables")
	assert.NotContains(t, prompt, "# Producing queries")
	assert.NotContains(t, prompt, "# Reviewer feedback")
	assert.NotContains(t, prompt, "docs.internal")
}

func TestTablePromptOmitsEmptyOptionalContext(t *testing.T) {
	tctx := sampleContext()
	tctx.ProfileJSON = ""
	tctx.SourceTables = nil

	prompt := BuildTableDescriptionPrompt(tctx, allOptions())

	// Enabled sections with no context degrade to absence.
	assert.NotContains(t, prompt, "# Profile statistics")
	assert.NotContains(t, prompt, "# Upstream tables")
	assert.Contains(t, prompt, "# Data quality")
}

func TestTablePromptEmptySampleRendersEmptyArray(t *testing.T) {
	tctx := sampleContext()
	tctx.SampleJSON = ""

	prompt := BuildTableDescriptionPrompt(tctx, models.DefaultGenerationOptions())
	require.Contains(t, prompt, "## Sample rows\n\n[]")
}

func TestColumnPromptVariants(t *testing.T) {
	tctx := sampleContext()
	opts := models.DefaultGenerationOptions()

	withValues := BuildColumnDescriptionPrompt(tctx, "amount", "", opts)
	assert.Contains(t, withValues, "most frequent values")
	assert.Contains(t, withValues, "`amount`")

	opts.TopValuesInDescription = false
	withoutValues := BuildColumnDescriptionPrompt(tctx, "amount", "", opts)
	assert.NotContains(t, withoutValues, "most frequent values")
}

func TestColumnPromptUsesColumnProfileSlice(t *testing.T) {
	tctx := sampleContext()
	opts := allOptions()

	prompt := BuildColumnDescriptionPrompt(tctx, "amount", `{"nulls":3,"top_values":["9.99"]}`, opts)
	assert.Contains(t, prompt, `"top_values":["9.99"]`)
	// The whole-table profile must not leak into column prompts.
	assert.False(t, strings.Contains(prompt, `{"order_id":{"nulls":0}}`))
}
