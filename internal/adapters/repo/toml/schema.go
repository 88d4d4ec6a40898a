package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	Checks  []checkSchema `toml:"checks"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported history schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type checkSchema struct {
	ID              string         `toml:"id"`
	Status          string         `toml:"status"`
	TotalRefs       int            `toml:"total_refs"`
	ErrorsCount     int            `toml:"errors_count"`
	WarningsCount   int            `toml:"warnings_count"`
	UnverifiedCount int            `toml:"unverified_count"`
	Title           string         `toml:"title,omitempty"`
	Source          string         `toml:"source,omitempty"`
	Timestamp       string         `toml:"timestamp,omitempty"`
	Results         []resultSchema `toml:"results,omitempty"`
}

type resultSchema struct {
	Reference string `toml:"reference"`
	Verdict   string `toml:"verdict"`
	Detail    string `toml:"detail,omitempty"`
}
