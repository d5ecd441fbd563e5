// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup turns one gene identifier into a Summary by fetching its
// GenBank record from NCBI and measuring it.
package lookup

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/genelen/internal/entrez"
	"github.com/pdiddy/genelen/internal/genbank"
	"github.com/pdiddy/genelen/pkg/types"
)

// cdsKey is the feature key of a coding sequence.
const cdsKey = "CDS"

// RecordFetcher retrieves raw E-utilities records. *entrez.Client
// implements it.
type RecordFetcher interface {
	EFetch(ctx context.Context, req entrez.Request) ([]byte, error)
}

// Result is the outcome of summarizing one identifier. Err is nil on
// success; otherwise it wraps types.ErrLookup or types.ErrParse and Summary
// is the zero value.
type Result struct {
	GeneID  string
	Summary types.Summary
	Err     error
}

// OK reports whether the lookup succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Service summarizes identifiers one at a time.
type Service struct {
	fetcher RecordFetcher
	logger  *zap.Logger
}

// NewService returns a Service that fetches records through f.
func NewService(f RecordFetcher) *Service {
	return &Service{fetcher: f, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-row messages.
func (s *Service) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Summarize fetches the nucleotide record for geneID and derives its
// accession, gene length and protein length. It makes at most one network
// call and never panics on bad input; every failure is reported in the
// returned Result.
func (s *Service) Summarize(ctx context.Context, geneID string) Result {
	res := Result{GeneID: geneID}
	id := strings.TrimSpace(geneID)
	if id == "" {
		res.Err = fmt.Errorf("%w: empty gene ID", types.ErrLookup)
		return res
	}

	s.logger.Debug("fetching record", zap.String("gene_id", id))
	body, err := s.fetcher.EFetch(ctx, entrez.GenBank(id))
	if err != nil {
		res.Err = fmt.Errorf("%w: gene ID %s: %w", types.ErrLookup, id, err)
		return res
	}

	rec, err := genbank.Parse(bytes.NewReader(body))
	if err != nil {
		res.Err = fmt.Errorf("%w: gene ID %s: %w", types.ErrParse, id, err)
		return res
	}

	sum, err := Summarize(rec)
	if err != nil {
		res.Err = fmt.Errorf("%w: gene ID %s: %w", types.ErrParse, id, err)
		return res
	}
	res.Summary = sum
	return res
}

// Summarize derives the Summary fields from a parsed record.
func Summarize(rec *genbank.Record) (types.Summary, error) {
	acc := Accession(rec)
	if acc == "" {
		return types.Summary{}, fmt.Errorf("record has no accession")
	}
	geneLen, err := GeneLength(rec)
	if err != nil {
		return types.Summary{}, err
	}

	sum := types.Summary{Accession: acc, GeneLength: geneLen}
	if cds, ok := rec.Feature(cdsKey); ok {
		sum.ProteinLength = ProteinLength(cds.Location.Len())
		sum.HasProtein = true
	}
	return sum, nil
}

// Accession returns the primary accession of rec, falling back to the
// VERSION accession and then the LOCUS name.
func Accession(rec *genbank.Record) string {
	if rec.Accession != "" {
		return rec.Accession
	}
	if rec.Version != "" {
		acc, _, _ := strings.Cut(rec.Version, ".")
		return acc
	}
	return rec.Locus
}

// GeneLength returns the length of the full record sequence: the ORIGIN
// sequence when present, else the span of the source feature, else the
// length declared on the LOCUS line.
func GeneLength(rec *genbank.Record) (int, error) {
	if n := len(rec.Sequence); n > 0 {
		return n, nil
	}
	if src, ok := rec.Feature("source"); ok {
		if n := src.Location.End() - src.Location.Start() + 1; src.Location.End() > 0 && n > 0 {
			return n, nil
		}
	}
	if rec.Length > 0 {
		return rec.Length, nil
	}
	return 0, fmt.Errorf("record %s has no sequence span", rec.Locus)
}

// ProteinLength converts a coding-sequence span of cdsLen bases to a
// protein length in residues: floor(cdsLen/3) - 1, the final codon being
// the stop codon.
func ProteinLength(cdsLen int) int {
	return cdsLen/3 - 1
}
