// Package output assembles the pipeline's merged per-run attribute values
// into the three result shapes spec.md §4.7 defines: an experiment/run
// table, a metric frame, and a series frame, plus a files-listing frame.
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
)

// ConflictingAttributeTypes is raised when stripping the `:type` suffix
// from column names collapses two differently-typed attributes onto the
// same name (spec.md §4.7.1).
type ConflictingAttributeTypes struct {
	Names []string
}

func (e *ConflictingAttributeTypes) Error() string {
	return fmt.Sprintf("multiple types detected for attributes [%s]", strings.Join(e.Names, ", "))
}

// Column is one top-level(attribute)/sub-level(aggregation) pair in a
// Table's two-level header.
type Column struct {
	Attribute   string
	Aggregation string
}

// Table is the experiment/run result shape: one row per distinct SysId, a
// two-level column header, cells addressed by (row label, Column).
type Table struct {
	IndexName string
	Labels    []identifiers.Label // row order: first-arrival order of the SysId stream
	Columns   []Column            // sorted lexicographically by (Attribute, Aggregation)
	cells     map[identifiers.Label]map[Column]any
}

func (t *Table) Cell(label identifiers.Label, col Column) (any, bool) {
	row, ok := t.cells[label]
	if !ok {
		return nil, false
	}
	v, ok := row[col]
	return v, ok
}

// BuildTable assembles a Table from the per-label attribute values gathered
// by the fetch pipeline (spec.md §4.7.1). selectedAggregations narrows which
// aggregation subcolumns are emitted for a series-typed attribute;
// flattenFileProperties expands a file-typed attribute into path/size_bytes/
// mime_type subcolumns instead of a single opaque cell.
func BuildTable(
	labelOrder []identifiers.Label,
	valuesByLabel map[identifiers.Label][]identifiers.AttributeValue,
	selectedAggregations map[identifiers.AttributeDefinition]map[filters.Aggregation]bool,
	typeSuffixInColumnNames bool,
	flattenFileProperties bool,
	indexColumnName string,
) (*Table, error) {
	t := &Table{IndexName: indexColumnName, Labels: labelOrder, cells: map[identifiers.Label]map[Column]any{}}
	if len(valuesByLabel) == 0 {
		return t, nil
	}

	columnSet := map[Column]bool{}

	for _, label := range labelOrder {
		row := map[Column]any{}
		for _, value := range valuesByLabel[label] {
			// Columns are always built with the ":type" suffix first, then
			// optionally stripped in a second pass below -- stripping has to
			// happen after every row is seen, so name/type collisions across
			// the whole table can be detected at once.
			columnName := fmt.Sprintf("%s:%s", value.AttributeDefinition.Name, value.AttributeDefinition.Type)

			if aggs, ok := filters.TypeAggregations[value.AttributeDefinition.Type]; ok {
				selected := selectedAggregations[value.AttributeDefinition]
				aggValues, ok := value.Value.(identifiers.SeriesAggregations)
				if !ok {
					continue
				}
				for agg := range aggs {
					if !selected[agg] {
						continue
					}
					col := Column{Attribute: columnName, Aggregation: agg}
					if _, dup := row[col]; dup {
						return nil, &ConflictingAttributeTypes{Names: []string{value.AttributeDefinition.Name}}
					}
					row[col] = aggValues[agg]
					columnSet[col] = true
				}
				continue
			}

			if flattenFileProperties && value.AttributeDefinition.Type == filters.TypeFile {
				file, _ := value.Value.(identifiers.FileProperties)
				for _, sub := range []struct {
					name string
					val  any
				}{{"path", file.Path}, {"size_bytes", file.SizeBytes}, {"mime_type", file.MimeType}} {
					col := Column{Attribute: columnName, Aggregation: sub.name}
					row[col] = sub.val
					columnSet[col] = true
				}
				continue
			}

			col := Column{Attribute: columnName, Aggregation: ""}
			if _, dup := row[col]; dup {
				return nil, &ConflictingAttributeTypes{Names: []string{value.AttributeDefinition.Name}}
			}
			row[col] = value.Value
			columnSet[col] = true
		}
		t.cells[label] = row
	}

	if !typeSuffixInColumnNames {
		if err := t.stripTypeSuffixes(columnSet); err != nil {
			return nil, err
		}
	} else {
		for col := range columnSet {
			t.Columns = append(t.Columns, col)
		}
	}

	sort.Slice(t.Columns, func(i, j int) bool {
		if t.Columns[i].Attribute != t.Columns[j].Attribute {
			return t.Columns[i].Attribute < t.Columns[j].Attribute
		}
		return t.Columns[i].Aggregation < t.Columns[j].Aggregation
	})

	return t, nil
}

// stripTypeSuffixes removes the ":type" suffix from every column's
// attribute name, detecting collisions the way the original's
// transform_column_names does: if two differently-typed attributes
// collapse to the same stripped name, raise ConflictingAttributeTypes.
func (t *Table) stripTypeSuffixes(columnSet map[Column]bool) error {
	strippedToTypes := map[string]map[string]bool{}
	stripped := map[Column]Column{}

	for col := range columnSet {
		base, typ := stripSuffix(col.Attribute)
		newCol := Column{Attribute: base, Aggregation: col.Aggregation}
		stripped[col] = newCol
		if strippedToTypes[base] == nil {
			strippedToTypes[base] = map[string]bool{}
		}
		strippedToTypes[base][typ] = true
	}

	var conflicting []string
	for name, types := range strippedToTypes {
		if len(types) > 1 {
			conflicting = append(conflicting, name)
		}
	}
	if len(conflicting) > 0 {
		sort.Strings(conflicting)
		return &ConflictingAttributeTypes{Names: conflicting}
	}

	newCells := map[identifiers.Label]map[Column]any{}
	seen := map[Column]bool{}
	for label, row := range t.cells {
		newRow := map[Column]any{}
		for col, v := range row {
			newCol := stripped[col]
			newRow[newCol] = v
			if !seen[newCol] {
				seen[newCol] = true
				t.Columns = append(t.Columns, newCol)
			}
		}
		newCells[label] = newRow
	}
	t.cells = newCells
	return nil
}

func stripSuffix(name string) (base, typ string) {
	idx := strings.LastIndex(name, ":")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}
