// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report runs a gene table through lookup and writes the
// augmented table next to the input.
package report

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/genelen/internal/lookup"
	"github.com/pdiddy/genelen/internal/sheet"
	"github.com/pdiddy/genelen/pkg/types"
)

// Summarizer turns one identifier into a lookup.Result.
// *lookup.Service implements it.
type Summarizer interface {
	Summarize(ctx context.Context, geneID string) lookup.Result
}

// BatchResult holds the outcome of one run.
type BatchResult struct {
	Succeeded  int
	Failed     int
	OutputPath string
	Rows       []types.OutputRow
}

// Total returns the number of rows processed.
func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed
}

// HasFailures reports whether any lookup failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Runner processes input tables one row at a time.
type Runner struct {
	summarizer Summarizer
	out        io.Writer
	logger     *zap.Logger
}

// NewRunner returns a Runner that summarizes rows with s and prints the
// batch summary to out.
func NewRunner(s Summarizer, out io.Writer) *Runner {
	return &Runner{summarizer: s, out: out, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-row messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run reads the "Gene ID" column of inputPath, summarizes every
// identifier in order and writes <base>_output<ext>. It returns the path
// of the written file.
func (r *Runner) Run(ctx context.Context, inputPath string) (string, error) {
	res, err := r.RunBatch(ctx, inputPath)
	if err != nil {
		return "", err
	}
	return res.OutputPath, nil
}

// RunBatch is Run with per-row counts. A failed lookup blanks its row and
// processing continues; only unreadable input or a failed write is
// returned as an error, and in both cases no output file exists.
func (r *Runner) RunBatch(ctx context.Context, inputPath string) (BatchResult, error) {
	ids, err := sheet.ReadGeneIDs(inputPath)
	if err != nil {
		return BatchResult{}, err
	}
	r.logger.Info("loaded input table", zap.String("path", inputPath), zap.Int("rows", len(ids)))

	result := BatchResult{Rows: make([]types.OutputRow, 0, len(ids))}
	for i, id := range ids {
		res := r.summarizer.Summarize(ctx, id)
		row := types.OutputRow{GeneID: id}
		if !res.OK() {
			r.logger.Warn("lookup failed",
				zap.Int("row", i+1),
				zap.String("gene_id", id),
				zap.Error(res.Err))
			result.Failed++
			result.Rows = append(result.Rows, row)
			continue
		}

		sum := res.Summary
		row.Summary = &sum
		fields := []zap.Field{
			zap.Int("row", i+1),
			zap.String("gene_id", id),
			zap.String("accession", sum.Accession),
			zap.Int("gene_length", sum.GeneLength),
		}
		if sum.HasProtein {
			fields = append(fields, zap.Int("protein_length", sum.ProteinLength))
		}
		r.logger.Info("processed gene", fields...)
		result.Succeeded++
		result.Rows = append(result.Rows, row)
	}

	outPath := sheet.OutputPath(inputPath)
	if err := sheet.WriteRows(outPath, result.Rows); err != nil {
		return BatchResult{}, fmt.Errorf("writing output: %w", err)
	}
	result.OutputPath = outPath

	fmt.Fprintf(r.out, "Batch summary: %d succeeded, %d failed (total: %d)\n",
		result.Succeeded, result.Failed, result.Total())
	fmt.Fprintf(r.out, "Output saved to: %s\n", outPath)
	return result, nil
}
