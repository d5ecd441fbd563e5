// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/genelen/internal/entrez"
	"github.com/pdiddy/genelen/internal/lookup"
	"github.com/pdiddy/genelen/internal/sheet"
	"github.com/pdiddy/genelen/pkg/types"
)

// stubSummarizer answers from a map and records call order. IDs not in
// the map fail.
type stubSummarizer struct {
	results map[string]types.Summary
	calls   []string
}

func (s *stubSummarizer) Summarize(_ context.Context, id string) lookup.Result {
	s.calls = append(s.calls, id)
	sum, ok := s.results[id]
	if !ok {
		return lookup.Result{GeneID: id, Err: fmt.Errorf("%w: gene ID %s: not found", types.ErrLookup, id)}
	}
	return lookup.Result{GeneID: id, Summary: sum}
}

func writeGenesCSV(t *testing.T, dir string, ids ...string) string {
	t.Helper()
	path := filepath.Join(dir, "genes.csv")
	content := "Gene ID,Comment\n" + strings.Join(ids, ",x\n") + ",x\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeGenesXLSX(t *testing.T, dir string, ids ...any) string {
	t.Helper()
	path := filepath.Join(dir, "genes.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Gene ID"))
	for i, id := range ids {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cell, id))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

const codingRecord = `LOCUS       NM_000001               1500 bp    mRNA    linear   PRI 01-JAN-2024
ACCESSION   NM_000001
VERSION     NM_000001.1
FEATURES             Location/Qualifiers
     source          1..1500
                     /mol_type="mRNA"
     CDS             1..300
                     /gene="TEST1"
//
`

func TestRun_EndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "123" {
			fmt.Fprint(w, codingRecord)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "Error: F a i l e d  t o  u n d e r s t a n d  i d")
	}))
	defer ts.Close()

	client, err := entrez.NewClient(types.NCBIConfig{Email: "lab@example.org", BaseURL: ts.URL}, ts.Client())
	require.NoError(t, err)

	dir := t.TempDir()
	input := writeGenesXLSX(t, dir, 123, 456)

	var out bytes.Buffer
	runner := NewRunner(lookup.NewService(client), &out)
	outPath, err := runner.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "genes_output.xlsx"), outPath)
	got, err := sheet.ReadTable(outPath)
	require.NoError(t, err)
	assert.Equal(t, types.OutputColumns, got.Header)
	assert.Equal(t, [][]string{
		{"123", "NM_000001", "1500", "99"},
		{"456", "", "", ""},
	}, got.Rows)

	assert.Contains(t, out.String(), "Batch summary: 1 succeeded, 1 failed (total: 2)")
	assert.Contains(t, out.String(), "Output saved to: "+outPath)
}

func TestRunBatch_PreservesOrderAndCount(t *testing.T) {
	stub := &stubSummarizer{results: map[string]types.Summary{
		"1": {Accession: "NM_1", GeneLength: 900, ProteinLength: 10, HasProtein: true},
		"3": {Accession: "NR_3", GeneLength: 300},
		"5": {Accession: "NM_5", GeneLength: 1200, ProteinLength: 99, HasProtein: true},
	}}
	input := writeGenesCSV(t, t.TempDir(), "1", "2", "3", "", "5")

	res, err := NewRunner(stub, &bytes.Buffer{}).RunBatch(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "", "5"}, stub.calls)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 5, res.Total())
	assert.True(t, res.HasFailures())

	require.Len(t, res.Rows, 5)
	for i, id := range []string{"1", "2", "3", "", "5"} {
		assert.Equal(t, id, res.Rows[i].GeneID)
	}
	assert.Nil(t, res.Rows[1].Summary)
	assert.Nil(t, res.Rows[3].Summary)

	got, err := sheet.ReadTable(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "NM_1", "900", "10"},
		{"2", "", "", ""},
		{"3", "NR_3", "300", ""},
		{"", "", "", ""},
		{"5", "NM_5", "1200", "99"},
	}, got.Rows)
}

func TestRunBatch_AllSucceed(t *testing.T) {
	stub := &stubSummarizer{results: map[string]types.Summary{
		"10": {Accession: "NM_10", GeneLength: 100, ProteinLength: 32, HasProtein: true},
		"20": {Accession: "NM_20", GeneLength: 200, ProteinLength: 65, HasProtein: true},
	}}
	input := writeGenesCSV(t, t.TempDir(), "10", "20")

	res, err := NewRunner(stub, &bytes.Buffer{}).RunBatch(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, res.HasFailures())
	for _, row := range res.Rows {
		require.NotNil(t, row.Summary)
		assert.NotEmpty(t, row.Summary.Accession)
		assert.Positive(t, row.Summary.GeneLength)
	}
}

func TestRun_InputErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "genes.csv")
	require.NoError(t, os.WriteFile(input, []byte("Symbol\nTP53\n"), 0o644))

	stub := &stubSummarizer{}
	_, err := NewRunner(stub, &bytes.Buffer{}).Run(context.Background(), input)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInput)
	assert.Empty(t, stub.calls)

	_, statErr := os.Stat(filepath.Join(dir, "genes_output.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	input := writeGenesCSV(t, dir, "1")
	// A directory where the output file should go makes the final rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "genes_output.csv"), 0o755))

	var out bytes.Buffer
	_, err := NewRunner(&stubSummarizer{}, &out).Run(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing output")
	assert.NotContains(t, out.String(), "Output saved to")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp file should be cleaned up")
}

func TestRunBatch_LogsPerRow(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	stub := &stubSummarizer{results: map[string]types.Summary{
		"123": {Accession: "NM_000001", GeneLength: 1500, ProteinLength: 99, HasProtein: true},
	}}
	input := writeGenesCSV(t, t.TempDir(), "123", "456")

	runner := NewRunner(stub, &bytes.Buffer{})
	runner.SetLogger(zap.New(core))
	_, err := runner.RunBatch(context.Background(), input)
	require.NoError(t, err)

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Equal(t, "lookup failed", warns[0].Message)
	assert.Equal(t, "456", warns[0].ContextMap()["gene_id"])

	processed := logs.FilterMessage("processed gene").All()
	require.Len(t, processed, 1)
	ctx := processed[0].ContextMap()
	assert.Equal(t, "NM_000001", ctx["accession"])
	assert.Equal(t, int64(99), ctx["protein_length"])
}
