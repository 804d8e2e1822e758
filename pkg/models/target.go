package models

import (
	"fmt"
	"strings"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
)

// MetadataTarget identifies a table or a single column of a table. It is a
// value type constructed once at the boundary; internal components never
// re-parse qualified-name strings.
type MetadataTarget struct {
	Project string
	Dataset string
	Table   string
	// Column is empty for table-level targets.
	Column string
}

// NewTableTarget builds a table-level target.
func NewTableTarget(project, dataset, table string) MetadataTarget {
	return MetadataTarget{Project: project, Dataset: dataset, Table: table}
}

// WithColumn returns a column-level copy of the target.
func (t MetadataTarget) WithColumn(column string) MetadataTarget {
	t.Column = column
	return t
}

// ParseTableFQN parses "project.dataset.table" (a legacy "project:dataset"
// separator is tolerated) into a table-level target.
func ParseTableFQN(fqn string) (MetadataTarget, error) {
	normalized := strings.Replace(fqn, ":", ".", 1)
	parts := strings.Split(normalized, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return MetadataTarget{}, apperrors.Newf(apperrors.KindConfigurationError,
			"invalid table name %q, want project.dataset.table", fqn)
	}
	return NewTableTarget(parts[0], parts[1], parts[2]), nil
}

// DatasetRef identifies a dataset within a project.
type DatasetRef struct {
	Project string
	Dataset string
}

// ParseDatasetFQN parses "project.dataset" into a DatasetRef.
func ParseDatasetFQN(fqn string) (DatasetRef, error) {
	parts := strings.Split(fqn, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return DatasetRef{}, apperrors.Newf(apperrors.KindConfigurationError,
			"invalid dataset name %q, want project.dataset", fqn)
	}
	return DatasetRef{Project: parts[0], Dataset: parts[1]}, nil
}

// FQN returns the fully qualified dataset name.
func (d DatasetRef) FQN() string {
	return d.Project + "." + d.Dataset
}

// IsColumn reports whether the target addresses a single column.
func (t MetadataTarget) IsColumn() bool {
	return t.Column != ""
}

// TableFQN returns the fully qualified table name regardless of target level.
func (t MetadataTarget) TableFQN() string {
	return fmt.Sprintf("%s.%s.%s", t.Project, t.Dataset, t.Table)
}

// FQN returns the fully qualified name of the target, including the column
// for column-level targets.
func (t MetadataTarget) FQN() string {
	if t.IsColumn() {
		return t.TableFQN() + "." + t.Column
	}
	return t.TableFQN()
}

// DatasetRef returns the dataset the target belongs to.
func (t MetadataTarget) DatasetRef() DatasetRef {
	return DatasetRef{Project: t.Project, Dataset: t.Dataset}
}

// AspectPath returns the path key under which the target's record is stored
// in the catalog: "" for tables, "Schema.<column>" for columns.
func (t MetadataTarget) AspectPath() string {
	if t.IsColumn() {
		return "Schema." + t.Column
	}
	return ""
}
