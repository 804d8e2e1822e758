// Package prompts builds the description-generation prompts. Builders are
// pure functions of the aggregated context and options, so identical inputs
// always yield identical prompts.
package prompts

import (
	"fmt"
	"strings"

	"github.com/datawisp/metadata-engine/pkg/models"
)

const systemSection = `You are a senior data steward writing documentation for a data warehouse.
Your descriptions are factual, concise and grounded only in the evidence provided below.
Never invent columns, values or business meaning that the evidence does not support.

`

const outputFormatSection = `# Output format

Respond with the description text only. Plain prose, no markdown, no headings,
no preamble such as "This table contains". One to three short paragraphs.
`

func writeSchema(b *strings.Builder, schema []models.SchemaField) {
	for _, f := range schema {
		fmt.Fprintf(b, "- %s (%s)\n", f.Name, f.Type)
	}
}

func writeProfileSection(b *strings.Builder, profileJSON string) {
	if profileJSON == "" {
		return
	}
	b.WriteString("# Profile statistics\n\n")
	b.WriteString("Column statistics computed from a recent profile scan:\n\n")
	b.WriteString(profileJSON)
	b.WriteString("\n\n")
}

func writeQualitySection(b *strings.Builder, qualityJSON string) {
	if qualityJSON == "" {
		return
	}
	b.WriteString("# Data quality\n\n")
	b.WriteString("Results of data quality rules evaluated against this table:\n\n")
	b.WriteString(qualityJSON)
	b.WriteString("\n\n")
}

func writeLineageTablesSection(b *strings.Builder, sources []models.SourceTable) {
	if len(sources) == 0 {
		return
	}
	b.WriteString("# Upstream tables\n\n")
	b.WriteString("This table is derived from the following source tables:\n\n")
	for _, src := range sources {
		fmt.Fprintf(b, "## %s\n", src.Name)
		if src.Description != "" {
			fmt.Fprintf(b, "%s\n", src.Description)
		}
		writeSchema(b, src.Schema)
		b.WriteString("\n")
	}
}

func writeLineageProcessesSection(b *strings.Builder, queries []string) {
	if len(queries) == 0 {
		return
	}
	b.WriteString("# Producing queries\n\n")
	b.WriteString("Recent queries that wrote this table, newest first:\n\n")
	for _, q := range queries {
		b.WriteString("```sql\n")
		b.WriteString(strings.TrimSpace(q))
		b.WriteString("\n```\n\n")
	}
}

func writeHumanCommentsSection(b *strings.Builder, comments, negativeExamples []string) {
	if len(comments) == 0 && len(negativeExamples) == 0 {
		return
	}
	b.WriteString("# Reviewer feedback\n\n")
	if len(comments) > 0 {
		b.WriteString("A human reviewer left these comments on the previous draft. Address every one:\n\n")
		for _, c := range comments {
			fmt.Fprintf(b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	if len(negativeExamples) > 0 {
		b.WriteString("These earlier drafts were rejected. Do not produce anything similar:\n\n")
		for _, n := range negativeExamples {
			fmt.Fprintf(b, "- %s\n", n)
		}
		b.WriteString("\n")
	}
}
