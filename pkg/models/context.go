package models

// SchemaField is one column of a table schema, in warehouse order.
type SchemaField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SourceTable describes one upstream table discovered through lineage.
type SourceTable struct {
	Name        string        `json:"name"`
	Schema      []SchemaField `json:"schema"`
	Description string        `json:"description"`
}

// TableContext is the aggregated, read-only snapshot a prompt is built from.
// It is assembled fresh per generation call and never persisted.
type TableContext struct {
	Target MetadataTarget

	// Schema is required; generation aborts without it.
	Schema []SchemaField

	// SampleJSON holds up to the configured number of rows serialized as a
	// JSON array. "[]" when sampling failed or returned nothing.
	SampleJSON string

	// ProfileJSON and QualityJSON are optional structured stats and rule
	// results; empty disables the corresponding prompt section for this
	// call only.
	ProfileJSON string
	QualityJSON string

	// SourceTables and SourceQueries come from lineage lookups, both
	// best-effort.
	SourceTables  []SourceTable
	SourceQueries []string

	// HumanComments are reviewer comments fed back into the prompt when
	// UseHumanComments is set.
	HumanComments []string

	// NegativeExamples are previously rejected drafts, included alongside
	// human comments during regeneration.
	NegativeExamples []string

	// DocumentURI points at external documentation for the table, "" when
	// none is attached.
	DocumentURI string
}

// DocumentedTable is one line of a documentation CSV: a table plus the URI
// of the document describing it.
type DocumentedTable struct {
	Target      MetadataTarget
	DocumentURI string
}
