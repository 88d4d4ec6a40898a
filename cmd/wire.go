package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/refcheck-dev/refcheck/internal/adapters/client/httpapi"
	historyadapter "github.com/refcheck-dev/refcheck/internal/adapters/render/history"
	tomlrepo "github.com/refcheck-dev/refcheck/internal/adapters/repo/toml"
	"github.com/refcheck-dev/refcheck/internal/application"
	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type app struct {
	service         *application.CheckService
	source          ports.ProgressSource
	historyRenderer func([]domain.Check, historyadapter.RenderOptions) (string, error)
	log             *logrus.Logger
	pollInterval    time.Duration
	now             func() time.Time
}

func wireApp() (*app, error) {
	store, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire history store: %w", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(envOrDefault("REFCHECK_LOG_LEVEL", "warning")); err == nil {
		log.SetLevel(level)
	}

	client := httpapi.NewClient(envOrDefault("REFCHECK_BASE_URL", "http://127.0.0.1:8787"), http.DefaultClient)

	pollInterval := 2 * time.Second
	if raw := os.Getenv("REFCHECK_POLL_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			pollInterval = parsed
		}
	}

	registry := application.NewSessionRegistry(ports.SystemClock{})
	ledger := application.NewHistoryLedger()
	view := application.NewActiveView(ledger)
	router := application.NewProgressRouter(registry, ledger, view, ports.SystemClock{}, log)
	service := application.NewCheckService(client, store, registry, router, ledger, view, ports.SystemClock{}, log)

	return &app{
		service:         service,
		source:          httpapi.NewPollSource(client, pollInterval, log),
		historyRenderer: historyadapter.Render,
		log:             log,
		pollInterval:    pollInterval,
		now:             time.Now,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
