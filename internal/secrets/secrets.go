// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads registry credentials from a directory of plain-text
// files. Each file holds one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognised files: cris-api-user, cris-api-password, scopus-api-key,
// scopus-insttoken, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigKeys maps each secret file name to the configuration key it fills.
var ConfigKeys = map[string]string{
	"cris-api-user":     "cris.user",
	"cris-api-password": "cris.password",
	"scopus-api-key":    "scopus.api_key",
	"scopus-insttoken":  "scopus.insttoken",
	"openalex-email":    "openalex.email",
}

// Set is the result of loading a secrets directory.
type Set struct {
	// Values maps file name to trimmed contents. Empty files are omitted.
	Values map[string]string

	// Unreadable lists files that exist but could not be read.
	Unreadable []string
}

// Setter is the subset of *viper.Viper that Apply needs.
type Setter interface {
	GetString(key string) string
	Set(key string, value any)
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty Set.
func Load(dir string) (Set, error) {
	set := Set{Values: map[string]string{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return set, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			set.Unreadable = append(set.Unreadable, name)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			set.Values[name] = value
		}
	}
	return set, nil
}

// Apply fills configuration keys that are still empty from recognised
// secrets. Values set by flags, environment or config file win. It returns
// the configuration keys it set, sorted.
func (s Set) Apply(cfg Setter) []string {
	var applied []string
	for file, key := range ConfigKeys {
		value, ok := s.Values[file]
		if !ok || cfg.GetString(key) != "" {
			continue
		}
		cfg.Set(key, value)
		applied = append(applied, key)
	}
	sort.Strings(applied)
	return applied
}
