package prompts

import (
	"fmt"
	"strings"

	"github.com/datawisp/metadata-engine/pkg/models"
)

// BuildTableDescriptionPrompt creates the prompt for generating a table
// description. Sections are appended in a fixed order; optional sections are
// included only when enabled and their context is present.
func BuildTableDescriptionPrompt(tctx *models.TableContext, opts models.GenerationOptions) string {
	var b strings.Builder

	b.WriteString(systemSection)

	// Base: identity, schema, sample.
	b.WriteString("# Table\n\n")
	fmt.Fprintf(&b, "Write a description for the table `%s`.\n\n", tctx.Target.TableFQN())
	b.WriteString("## Schema\n\n")
	writeSchema(&b, tctx.Schema)
	b.WriteString("\n## Sample rows\n\n")
	b.WriteString(sampleOrEmpty(tctx.SampleJSON))
	b.WriteString("\n\n")

	if opts.UseProfile {
		writeProfileSection(&b, tctx.ProfileJSON)
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
	if opts.UseExtDocuments && tctx.DocumentURI != "" {
		b.WriteString("# External documentation\n\n")
		fmt.Fprintf(&b, "A document describing this table is available at: %s\n", tctx.DocumentURI)
		b.WriteString("Ground the description in that document where it applies.\n\n")
	}
	if opts.UseHumanComments {
		writeHumanCommentsSection(&b, tctx.HumanComments, tctx.NegativeExamples)
	}

	// Generation instructions.
	b.WriteString("# Task\n\n")
	b.WriteString("Describe what the table contains, what one row represents and what the table is used for.\n")
	if opts.UseLineageTables || opts.UseLineageProcesses {
		b.WriteString("Where the upstream tables or producing queries reveal how the data is derived, say so.\n")
	}
	b.WriteString("\n")

	b.WriteString(outputFormatSection)
	return b.String()
}

func sampleOrEmpty(sampleJSON string) string {
	if sampleJSON == "" {
		return "[]"
	}
	return sampleJSON
}
