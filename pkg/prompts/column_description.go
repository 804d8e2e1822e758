package prompts

import (
	"fmt"
	"strings"

	"github.com/datawisp/metadata-engine/pkg/models"
)

// BuildColumnDescriptionPrompt creates the prompt for generating a single
// column description. columnProfileJSON is the profile slice for just this
// column, "" when profiling is disabled or unavailable.
func BuildColumnDescriptionPrompt(tctx *models.TableContext, column string, columnProfileJSON string, opts models.GenerationOptions) string {
	var b strings.Builder

	b.WriteString(systemSection)

	// Base: identity, schema, sample. The variant with value examples asks
	// for the most frequent values to be named in the description.
	b.WriteString("# Column\n\n")
	fmt.Fprintf(&b, "Write a description for the column `%s` of the table `%s`.\n\n",
		column, tctx.Target.TableFQN())
	if opts.TopValuesInDescription {
		b.WriteString("If the profile lists the most frequent values for this column, name the important ones in the description.\n\n")
	}
	b.WriteString("## Table schema\n\n")
	writeSchema(&b, tctx.Schema)
	b.WriteString("\n## Sample rows\n\n")
	b.WriteString(sampleOrEmpty(tctx.SampleJSON))
	b.WriteString("\n\n")

	if opts.UseProfile {
		writeProfileSection(&b, columnProfileJSON)
	}
	if opts.UseDataQuality {
		writeQualitySection(&b, tctx.QualityJSON)
	}
	if opts.UseLineageTables {
		writeLineageTablesSection(&b, tctx.SourceTables)
	}
	if opts.UseLineageProcesses {
		writeLineageProcessesSection(&b, tctx.SourceQueries)
	}
	if opts.UseHumanComments {
		writeHumanCommentsSection(&b, tctx.HumanComments, tctx.NegativeExamples)
	}

	b.WriteString("# Task\n\n")
	fmt.Fprintf(&b, "Describe what the column `%s` holds and how it relates to the rest of the table.\n\n", column)

	b.WriteString(outputFormatSection)
	return b.String()
}
