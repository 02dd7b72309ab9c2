package types

import "time"

// HTTPConfig holds shared HTTP settings used by every registry client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the transport default
	// (no client-side timeout).
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cris-reconcile/0.1").
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// CRISConfig holds settings for the source registry.
type CRISConfig struct {
	// Endpoint is the publications search URL. A value without a scheme is
	// treated as https.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"-"`

	// StartYear is the lower bound of the publication year filter.
	StartYear int `mapstructure:"start_year" yaml:"start_year"`

	// PublicationTypes are the English type names accepted by the query.
	PublicationTypes []string `mapstructure:"publication_types" yaml:"publication_types"`

	// PageSize is the number of records requested per page (default 100).
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// StartOffset resumes a run at the given result offset.
	StartOffset int `mapstructure:"start_offset" yaml:"start_offset"`

	// MaxPages caps the number of pages fetched (default 1000, 0 = unlimited).
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`

	// RateLimit is an optional request rate in requests per second (0 = off).
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// OpenAlexConfig holds settings for the target registry.
type OpenAlexConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Email is sent as mailto to join the OpenAlex polite pool.
	Email string `mapstructure:"email" yaml:"email"`

	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// ScopusConfig holds settings for the citation-count service.
type ScopusConfig struct {
	Endpoint  string  `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey    string  `mapstructure:"api_key" yaml:"-"`
	InstToken string  `mapstructure:"insttoken" yaml:"-"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// Enabled reports whether Scopus lookups can run. An API key is required.
func (c ScopusConfig) Enabled() bool {
	return c.APIKey != ""
}

// BIPConfig holds settings for the BIP! bibliometric-scores service.
type BIPConfig struct {
	Endpoint  string  `mapstructure:"endpoint" yaml:"endpoint"`
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// HeaderMode controls when the TSV header line is written.
type HeaderMode string

const (
	// HeaderAlways appends the header once at process start.
	HeaderAlways HeaderMode = "always"

	// HeaderIfEmpty writes the header only when the output file is empty.
	HeaderIfEmpty HeaderMode = "if-empty"
)

// OutputConfig holds settings for the row emitter.
type OutputConfig struct {
	Path   string     `mapstructure:"path" yaml:"path"`
	Header HeaderMode `mapstructure:"header" yaml:"header"`
}

// PacingConfig holds the fixed inter-request delays.
type PacingConfig struct {
	// RecordDelay is slept after each source record (default 500ms).
	RecordDelay time.Duration `mapstructure:"record_delay" yaml:"record_delay"`

	// PageDelay is slept after each source page (default 1s).
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`
}

// MatchConfig holds settings for affiliation evaluation.
type MatchConfig struct {
	// HomeInstitutionID is the OpenAlex institution ID of the home
	// organization. Empty disables the affiliation flag.
	HomeInstitutionID string `mapstructure:"home_institution_id" yaml:"home_institution_id"`
}

// LedgerConfig holds settings for the SQLite run ledger.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig holds settings for the run metrics export.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path written at the end of a run.
	// Empty disables the export.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Config groups all settings for a reconciliation run.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	CRIS     CRISConfig     `mapstructure:"cris" yaml:"cris"`
	OpenAlex OpenAlexConfig `mapstructure:"openalex" yaml:"openalex"`
	Scopus   ScopusConfig   `mapstructure:"scopus" yaml:"scopus"`
	BIP      BIPConfig      `mapstructure:"bip" yaml:"bip"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Pacing   PacingConfig   `mapstructure:"pacing" yaml:"pacing"`
	Match    MatchConfig    `mapstructure:"match" yaml:"match"`
	Ledger   LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}
