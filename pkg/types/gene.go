// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Column headers of the input and output tables.
const (
	ColumnGeneID        = "Gene ID"
	ColumnAccession     = "Accession"
	ColumnGeneLength    = "Gene Length"
	ColumnProteinLength = "Protein Length"
)

// OutputColumns lists the output table header in order.
var OutputColumns = []string{
	ColumnGeneID,
	ColumnAccession,
	ColumnGeneLength,
	ColumnProteinLength,
}

// Summary holds the fields derived from one nucleotide record.
type Summary struct {
	// Accession is the record's primary accession (e.g. "NM_000001").
	Accession string `json:"accession" yaml:"accession"`

	// GeneLength is the length of the full record sequence in bases.
	GeneLength int `json:"gene_length" yaml:"gene_length"`

	// ProteinLength is floor(L/3)-1 for the first CDS feature of span L.
	// Only meaningful when HasProtein is true.
	ProteinLength int `json:"protein_length,omitempty" yaml:"protein_length,omitempty"`

	// HasProtein reports whether the record carries a CDS feature.
	HasProtein bool `json:"has_protein" yaml:"has_protein"`
}

// OutputRow is one line of the output table. Summary is nil when the
// lookup for GeneID failed, which leaves the derived columns blank.
type OutputRow struct {
	GeneID  string
	Summary *Summary
}

// Values returns the row's cells in OutputColumns order. Blank cells are
// nil; lengths are ints.
func (r OutputRow) Values() []any {
	vals := []any{r.GeneID, nil, nil, nil}
	if r.Summary == nil {
		return vals
	}
	vals[1] = r.Summary.Accession
	vals[2] = r.Summary.GeneLength
	if r.Summary.HasProtein {
		vals[3] = r.Summary.ProteinLength
	}
	return vals
}
