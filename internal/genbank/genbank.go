// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genbank parses GenBank flat-file records as returned by NCBI
// E-utilities with rettype=gb.
//
// Only the sections needed to summarize a record are kept: LOCUS,
// DEFINITION, ACCESSION, VERSION, the feature table and the ORIGIN
// sequence. Other sections are skipped.
package genbank

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	keywordWidth    = 12
	featureKeyStart = 5
	qualifierIndent = 21
)

// Qualifier is a /name=value pair attached to a feature.
type Qualifier struct {
	Name  string
	Value string
}

// Feature is one entry of the feature table.
type Feature struct {
	Key        string
	Location   Location
	Qualifiers []Qualifier
}

// Qualifier returns the value of the first qualifier called name.
func (f *Feature) Qualifier(name string) (string, bool) {
	for _, q := range f.Qualifiers {
		if q.Name == name {
			return q.Value, true
		}
	}
	return "", false
}

// Record is a single parsed GenBank entry.
type Record struct {
	// Locus is the LOCUS name.
	Locus string

	// Length is the sequence length declared on the LOCUS line.
	Length int

	// MolType is the molecule type from the LOCUS line (e.g. "mRNA").
	MolType string

	Definition string

	// Accession is the primary accession; Secondary lists the rest of
	// the ACCESSION line.
	Accession string
	Secondary []string

	// Version is the accession.version (e.g. "NM_000001.3").
	Version string

	Features []Feature

	// Sequence holds the ORIGIN bases, lower case as delivered.
	Sequence string
}

// Feature returns the first feature with the given key, in feature-table
// order.
func (r *Record) Feature(key string) (*Feature, bool) {
	for i := range r.Features {
		if r.Features[i].Key == key {
			return &r.Features[i], true
		}
	}
	return nil, false
}

// Parse reads the first record from r. Lines before the LOCUS line are
// ignored. A record must end with a "//" line.
func Parse(r io.Reader) (*Record, error) {
	p := &parser{scan: bufio.NewScanner(r)}
	p.scan.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return p.parse()
}

type parser struct {
	scan *bufio.Scanner
	line string
	eof  bool
	row  int
}

func (p *parser) next() {
	if p.scan.Scan() {
		p.line = strings.TrimRight(p.scan.Text(), "\r")
		p.row++
		return
	}
	p.line = ""
	p.eof = true
}

// keyword returns the section keyword of the current line, or "" for
// continuation and sub-keyword lines.
func (p *parser) keyword() string {
	if p.line == "" || p.line[0] == ' ' {
		return ""
	}
	if strings.HasPrefix(p.line, "//") {
		return "//"
	}
	head := p.line
	if len(head) > keywordWidth {
		head = head[:keywordWidth]
	}
	return strings.TrimSpace(head)
}

// text returns the current line with its keyword column removed.
func (p *parser) text() string {
	if len(p.line) <= keywordWidth {
		return ""
	}
	return strings.TrimSpace(p.line[keywordWidth:])
}

// block collects the current line's text and all continuation lines that
// follow it, leaving the parser on the next section line.
func (p *parser) block() string {
	parts := []string{p.text()}
	for p.next(); !p.eof; p.next() {
		if !strings.HasPrefix(p.line, strings.Repeat(" ", keywordWidth)) {
			break
		}
		parts = append(parts, strings.TrimSpace(p.line))
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (p *parser) parse() (*Record, error) {
	if err := p.skipToLocus(); err != nil {
		return nil, err
	}

	rec := &Record{}
	parseLocus(rec, p.line)
	p.next()

	for !p.eof {
		switch p.keyword() {
		case "//":
			return rec, nil
		case "DEFINITION":
			rec.Definition = strings.TrimSuffix(p.block(), ".")
		case "ACCESSION":
			accs := strings.Fields(p.block())
			if len(accs) > 0 {
				rec.Accession = accs[0]
				rec.Secondary = accs[1:]
			}
		case "VERSION":
			if cols := strings.Fields(p.text()); len(cols) > 0 {
				rec.Version = cols[0]
			}
			p.next()
		case "FEATURES":
			if err := p.parseFeatures(rec); err != nil {
				return nil, err
			}
		case "ORIGIN":
			rec.Sequence = p.parseOrigin()
		default:
			p.next()
		}
	}

	if err := p.scan.Err(); err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return nil, fmt.Errorf("record %s not terminated by //", rec.Locus)
}

func (p *parser) skipToLocus() error {
	for p.next(); !p.eof; p.next() {
		if strings.HasPrefix(p.line, "LOCUS") {
			return nil
		}
	}
	if err := p.scan.Err(); err != nil {
		return fmt.Errorf("reading record: %w", err)
	}
	return fmt.Errorf("no LOCUS line found")
}

// parseLocus reads the name, length and molecule type from a LOCUS line:
//
//	LOCUS       NM_000001               1500 bp    mRNA    linear   PRI 01-JAN-2024
func parseLocus(rec *Record, line string) {
	cols := strings.Fields(line)
	if len(cols) > 1 {
		rec.Locus = cols[1]
	}
	if len(cols) > 2 {
		if n, err := strconv.Atoi(cols[2]); err == nil {
			rec.Length = n
		}
	}
	if len(cols) > 4 && (cols[3] == "bp" || cols[3] == "aa") {
		rec.MolType = cols[4]
	}
}

func (p *parser) parseFeatures(rec *Record) error {
	type pending struct {
		key  string
		loc  strings.Builder
		qual []Qualifier
	}
	var cur *pending

	flush := func() error {
		if cur == nil {
			return nil
		}
		loc, err := ParseLocation(cur.loc.String())
		if err != nil {
			if requiredLocation(rec, cur.key) {
				return fmt.Errorf("feature %s: %w", cur.key, err)
			}
			loc = Location{Raw: strings.Join(strings.Fields(cur.loc.String()), "")}
		}
		rec.Features = append(rec.Features, Feature{Key: cur.key, Location: loc, Qualifiers: cur.qual})
		cur = nil
		return nil
	}

	indent := strings.Repeat(" ", qualifierIndent)
	for p.next(); !p.eof; p.next() {
		line := p.line
		if line == "" {
			continue
		}
		if line[0] != ' ' {
			break
		}

		if !strings.HasPrefix(line, indent) {
			// New feature: key in columns 6-21, location from column 22.
			if err := flush(); err != nil {
				return err
			}
			if len(line) <= featureKeyStart {
				return fmt.Errorf("line %d: malformed feature line", p.row)
			}
			key, loc, _ := strings.Cut(strings.TrimSpace(line[featureKeyStart:]), " ")
			cur = &pending{key: key}
			cur.loc.WriteString(strings.TrimSpace(loc))
			continue
		}

		if cur == nil {
			return fmt.Errorf("line %d: qualifier outside a feature", p.row)
		}
		txt := strings.TrimSpace(line[qualifierIndent:])
		switch {
		case strings.HasPrefix(txt, "/"):
			name, val, _ := strings.Cut(txt[1:], "=")
			cur.qual = append(cur.qual, Qualifier{Name: name, Value: val})
		case len(cur.qual) == 0:
			cur.loc.WriteString(txt)
		default:
			q := &cur.qual[len(cur.qual)-1]
			if q.Name == "translation" || q.Name == "transcription" || q.Name == "peptide" {
				q.Value += txt
			} else {
				q.Value += " " + txt
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}
	for i := range rec.Features {
		for j := range rec.Features[i].Qualifiers {
			q := &rec.Features[i].Qualifiers[j]
			q.Value = strings.TrimSpace(strings.Trim(q.Value, "\""))
		}
	}
	return nil
}

// requiredLocation reports whether a feature with key must have a
// parseable location: the source feature and the first CDS. Other
// features with unsupported locations are kept with no intervals.
func requiredLocation(rec *Record, key string) bool {
	switch key {
	case "source":
		return true
	case "CDS":
		_, seen := rec.Feature("CDS")
		return !seen
	}
	return false
}

// parseOrigin collects sequence letters up to, but not including, the "//"
// line.
func (p *parser) parseOrigin() string {
	var seq strings.Builder
	for p.next(); !p.eof; p.next() {
		if strings.HasPrefix(p.line, "//") {
			break
		}
		for _, f := range strings.Fields(p.line) {
			if _, err := strconv.Atoi(f); err == nil {
				continue
			}
			seq.WriteString(f)
		}
	}
	return seq.String()
}
