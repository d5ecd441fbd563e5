// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entrez is a minimal client for NCBI E-utilities.
//
// NCBI asks every caller to identify itself with a tool name and a contact
// email. Both are bound when the Client is built, so a Client that exists
// is always allowed to make requests.
package entrez

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/pdiddy/genelen/internal/httputil"
	"github.com/pdiddy/genelen/pkg/types"
)

// ErrNotFound is returned when E-utilities answers with an empty body or an
// error document instead of a record.
var ErrNotFound = errors.New("record not found")

// Request selects what efetch returns.
type Request struct {
	DB      string
	ID      string
	RetType string
	RetMode string
}

// GenBank returns the request for the full GenBank flat-file record of id
// in the nucleotide database.
func GenBank(id string) Request {
	return Request{DB: "nuccore", ID: id, RetType: "gb", RetMode: "text"}
}

// Client issues E-utilities requests on behalf of one contact email.
type Client struct {
	cfg        types.NCBIConfig
	httpClient *http.Client
}

// NewClient validates cfg and returns a Client. A missing or malformed
// email is a configuration error. A nil httpClient uses a client with no
// timeout.
func NewClient(cfg types.NCBIConfig, httpClient *http.Client) (*Client, error) {
	cfg = cfg.WithDefaults()
	email := strings.TrimSpace(cfg.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: NCBI contact email is not set", types.ErrConfiguration)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: NCBI contact email %q is invalid: %v", types.ErrConfiguration, email, err)
	}
	cfg.Email = email
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// Email returns the contact email the client sends.
func (c *Client) Email() string { return c.cfg.Email }

// EFetch downloads the records selected by req and returns the raw body.
func (c *Client) EFetch(ctx context.Context, req Request) ([]byte, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, fmt.Errorf("efetch: empty id")
	}

	body, err := httputil.Get(ctx, c.httpClient, c.efetchURL(req), c.cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("efetch %s/%s: %w", req.DB, req.ID, err)
	}
	if msg, failed := errorDocument(body); failed {
		return nil, fmt.Errorf("efetch %s/%s: %w: %s", req.DB, req.ID, ErrNotFound, msg)
	}
	return body, nil
}

func (c *Client) efetchURL(req Request) string {
	params := url.Values{
		"db":    {req.DB},
		"id":    {strings.TrimSpace(req.ID)},
		"tool":  {c.cfg.Tool},
		"email": {c.cfg.Email},
	}
	if req.RetType != "" {
		params.Set("rettype", req.RetType)
	}
	if req.RetMode != "" {
		params.Set("retmode", req.RetMode)
	}
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/efetch.fcgi?" + params.Encode()
}

// errorDocument reports whether body is one of the shapes efetch uses
// instead of a record: nothing at all, an "Error:" line, or an XML
// <ERROR> element.
func errorDocument(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) == 0:
		return "empty response", true
	case bytes.HasPrefix(trimmed, []byte("Error")):
		return firstLine(trimmed), true
	case bytes.Contains(trimmed, []byte("<ERROR>")):
		start := bytes.Index(trimmed, []byte("<ERROR>")) + len("<ERROR>")
		end := bytes.Index(trimmed[start:], []byte("</ERROR>"))
		if end < 0 {
			return firstLine(trimmed[start:]), true
		}
		return string(trimmed[start : start+end]), true
	}
	return "", false
}

func firstLine(b []byte) string {
	line, _, _ := bytes.Cut(b, []byte("\n"))
	return strings.TrimSpace(string(line))
}
