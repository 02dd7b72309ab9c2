// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/cris-reconcile/internal/cris"
	"github.com/pdiddy/cris-reconcile/internal/enrich"
	"github.com/pdiddy/cris-reconcile/internal/openalex"
	"github.com/pdiddy/cris-reconcile/internal/reconcile"
	"github.com/pdiddy/cris-reconcile/pkg/types"
)

const envPrefix = "CRIS_RECONCILE"

// legacyEnv maps config keys to the unprefixed variable names used by
// existing deployments' .env files.
var legacyEnv = map[string]string{
	"cris.endpoint":             "CRIS_API_ENDPOINT",
	"cris.user":                 "CRIS_API_USER",
	"cris.password":             "CRIS_API_PW",
	"cris.start_year":           "START_YEAR",
	"openalex.endpoint":         "OA_API_ENDPOINT",
	"match.home_institution_id": "OA_ORG_ID",
	"output.path":               "OUTFILE",
	"scopus.endpoint":           "SCOPUS_API_ENDPOINT",
	"scopus.api_key":            "SCOPUS_API_KEY",
	"scopus.insttoken":          "SCOPUS_INSTTOKEN",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", 0)
	v.SetDefault("http.user_agent", "cris-reconcile/"+version)

	v.SetDefault("cris.endpoint", "")
	v.SetDefault("cris.user", "")
	v.SetDefault("cris.password", "")
	v.SetDefault("cris.start_year", 0)
	v.SetDefault("cris.publication_types", cris.DefaultPublicationTypes)
	v.SetDefault("cris.page_size", cris.DefaultPageSize)
	v.SetDefault("cris.start_offset", 0)
	v.SetDefault("cris.max_pages", 1000)
	v.SetDefault("cris.rate_limit", 0)

	v.SetDefault("openalex.endpoint", openalex.DefaultEndpoint)
	v.SetDefault("openalex.email", "")
	v.SetDefault("openalex.rate_limit", 0)

	v.SetDefault("scopus.endpoint", enrich.DefaultScopusEndpoint)
	v.SetDefault("scopus.api_key", "")
	v.SetDefault("scopus.insttoken", "")
	v.SetDefault("scopus.rate_limit", 0)

	v.SetDefault("bip.endpoint", enrich.DefaultBIPEndpoint)
	v.SetDefault("bip.enabled", true)
	v.SetDefault("bip.rate_limit", 0)

	v.SetDefault("output.path", "oa_matches.tsv")
	v.SetDefault("output.header", string(types.HeaderAlways))

	v.SetDefault("pacing.record_delay", reconcile.DefaultRecordDelay)
	v.SetDefault("pacing.page_delay", reconcile.DefaultPageDelay)

	v.SetDefault("match.home_institution_id", "")
	v.SetDefault("ledger.path", "")
	v.SetDefault("metrics.textfile", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// bindLegacyEnv lets both CRIS_RECONCILE_<KEY> and the legacy name set each
// key. The prefixed name wins when both are present.
func bindLegacyEnv(v *viper.Viper) {
	replacer := strings.NewReplacer(".", "_")
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(replacer.Replace(key))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// loadConfig unmarshals v and validates the result. dryRun relaxes the
// output path requirement since rows go to stdout.
func loadConfig(v *viper.Viper, dryRun bool) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validateConfig(cfg, dryRun); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg types.Config, dryRun bool) error {
	var errs []error
	if strings.TrimSpace(cfg.CRIS.Endpoint) == "" {
		errs = append(errs, errors.New("cris.endpoint is required (or set CRIS_API_ENDPOINT)"))
	}
	if cfg.CRIS.StartYear <= 0 {
		errs = append(errs, errors.New("cris.start_year must be a positive year (or set START_YEAR)"))
	}
	if cfg.CRIS.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("cris.page_size must be positive, got %d", cfg.CRIS.PageSize))
	}
	if cfg.CRIS.StartOffset < 0 {
		errs = append(errs, fmt.Errorf("cris.start_offset must not be negative, got %d", cfg.CRIS.StartOffset))
	}
	if !dryRun && strings.TrimSpace(cfg.Output.Path) == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	switch cfg.Output.Header {
	case types.HeaderAlways, types.HeaderIfEmpty, "":
	default:
		errs = append(errs, fmt.Errorf("output.header must be %q or %q, got %q",
			types.HeaderAlways, types.HeaderIfEmpty, cfg.Output.Header))
	}
	return errors.Join(errs...)
}
