// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Default E-utilities settings. DefaultTool identifies this program to NCBI
// alongside the contact email.
const (
	DefaultEUtilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultTool       = "genelen"
	DefaultUserAgent  = "genelen/0.1"
)

// HTTPConfig holds HTTP settings shared by components that make network requests.
type HTTPConfig struct {
	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// NCBIConfig identifies the caller to NCBI E-utilities. It is passed to the
// Entrez client at construction time.
type NCBIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is the contact address NCBI requires on every request.
	Email string `json:"email" yaml:"email"`

	// Tool is the registered tool name sent with every request (default "genelen").
	Tool string `json:"tool,omitempty" yaml:"tool,omitempty"`

	// BaseURL is the E-utilities root. Tests point it at an httptest server.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// WithDefaults returns a copy of c with empty optional fields filled in.
func (c NCBIConfig) WithDefaults() NCBIConfig {
	if c.Tool == "" {
		c.Tool = DefaultTool
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultEUtilsBase
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}
