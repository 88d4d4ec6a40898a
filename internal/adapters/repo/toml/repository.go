package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
	"github.com/spf13/viper"
)

const (
	configName        = "config"
	configType        = "toml"
	historyPathKey    = "history.path"
	historyFileMode   = 0o600
	historyDirMode    = 0o700
	historyConfigDir  = ".refcheck"
	historyConfigFile = "history.toml"
	tempFilePattern   = ".history-*.toml.tmp"
)

// Repository persists the check history as a TOML file, written
// atomically via temp file and rename. Concurrent access through the
// same path is serialized by a per-path lock.
type Repository struct {
	historyPath string
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.HistoryStore = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, historyConfigDir, historyConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, historyConfigDir))
	cfg.SetDefault(historyPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	historyPath := cfg.GetString(historyPathKey)
	if historyPath == "" {
		return nil, errors.New("history path is empty")
	}
	historyPath, err = normalizeHistoryPath(historyPath)
	if err != nil {
		return nil, err
	}

	return &Repository{historyPath: historyPath, mu: lockForPath(historyPath)}, nil
}

func (r *Repository) Save(ctx context.Context, check domain.Check) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := check.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(check)
	updated := false
	for i := range file.Checks {
		if file.Checks[i].ID == encoded.ID {
			file.Checks[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Checks = append(file.Checks, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) List(ctx context.Context) ([]domain.Check, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	file.applyDefaults()

	checks := make([]domain.Check, 0, len(file.Checks))
	for _, entry := range file.Checks {
		check, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	return checks, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.historyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read history file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode history file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.historyPath), historyDirMode); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode history file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.historyPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}

	if err := tempFile.Chmod(historyFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp history file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}

	if err := os.Rename(tempName, r.historyPath); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.historyPath, historyFileMode); err != nil {
		return fmt.Errorf("chmod history file: %w", err)
	}

	return nil
}

func normalizeHistoryPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve history path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(check domain.Check) checkSchema {
	results := make([]resultSchema, 0, len(check.Results))
	for _, result := range check.Results {
		results = append(results, resultSchema{
			Reference: result.Reference,
			Verdict:   string(result.Verdict),
			Detail:    result.Detail,
		})
	}
	if len(results) == 0 {
		results = nil
	}

	return checkSchema{
		ID:              string(check.ID),
		Status:          string(check.Status),
		TotalRefs:       check.TotalRefs,
		ErrorsCount:     check.ErrorsCount,
		WarningsCount:   check.WarningsCount,
		UnverifiedCount: check.UnverifiedCount,
		Title:           check.Title,
		Source:          check.Source,
		Timestamp:       formatTime(check.Timestamp),
		Results:         results,
	}
}

func fromSchema(entry checkSchema) (domain.Check, error) {
	status, err := domain.ParseStatus(entry.Status)
	if err != nil {
		return domain.Check{}, fmt.Errorf("decode check %s: %w", entry.ID, err)
	}

	results := make([]domain.Result, 0, len(entry.Results))
	for _, result := range entry.Results {
		results = append(results, domain.Result{
			Reference: result.Reference,
			Verdict:   domain.Verdict(result.Verdict),
			Detail:    result.Detail,
		})
	}
	if len(results) == 0 {
		results = nil
	}

	return domain.Check{
		ID:              domain.CheckID(entry.ID),
		Status:          status,
		TotalRefs:       entry.TotalRefs,
		ErrorsCount:     entry.ErrorsCount,
		WarningsCount:   entry.WarningsCount,
		UnverifiedCount: entry.UnverifiedCount,
		Title:           entry.Title,
		Source:          entry.Source,
		Timestamp:       parseTime(entry.Timestamp),
		Results:         results,
	}, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
