// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genelen/internal/httputil"
	"github.com/pdiddy/genelen/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewClient(types.NCBIConfig{Email: "lab@example.org", BaseURL: ts.URL + "/"}, ts.Client())
	require.NoError(t, err)
	return c
}

func TestNewClient_Credential(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "lab@example.org", false},
		{"trimmed", "  lab@example.org \n", false},
		{"missing", "", true},
		{"blank", "   ", true},
		{"malformed", "not-an-email", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(types.NCBIConfig{Email: tt.email}, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrConfiguration)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "lab@example.org", c.Email())
		})
	}
}

func TestEFetch_SendsParameters(t *testing.T) {
	var got url.Values
	var path, ua string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		path = r.URL.Path
		ua = r.Header.Get("User-Agent")
		fmt.Fprint(w, "LOCUS       NM_000001\n//\n")
	})

	body, err := c.EFetch(context.Background(), GenBank(" 123 "))
	require.NoError(t, err)

	assert.Equal(t, "LOCUS       NM_000001\n//\n", string(body))
	assert.Equal(t, "/efetch.fcgi", path)
	assert.Equal(t, "nuccore", got.Get("db"))
	assert.Equal(t, "123", got.Get("id"))
	assert.Equal(t, "gb", got.Get("rettype"))
	assert.Equal(t, "text", got.Get("retmode"))
	assert.Equal(t, types.DefaultTool, got.Get("tool"))
	assert.Equal(t, "lab@example.org", got.Get("email"))
	assert.Equal(t, types.DefaultUserAgent, ua)
}

func TestEFetch_NotFoundBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty", "\n\n", "empty response"},
		{"error line", "Error: F a i l e d  t o  u n d e r s t a n d  i d:  456\nmore", "Error: F a i l e d"},
		{"xml error", "<?xml version=\"1.0\"?>\n<eFetchResult>\n<ERROR>Cannot retrieve</ERROR>\n</eFetchResult>", "Cannot retrieve"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			_, err := c.EFetch(context.Background(), GenBank("456"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestEFetch_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "Error: invalid id")
	})

	_, err := c.EFetch(context.Background(), GenBank("abc"))
	require.Error(t, err)

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, err.Error(), "efetch nuccore/abc")
}

func TestEFetch_EmptyID(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := c.EFetch(context.Background(), GenBank("  "))
	require.Error(t, err)
	assert.Zero(t, calls)
}
