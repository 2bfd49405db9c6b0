// Command expiry-scan runs one expiry scan and posts the resulting events to
// the notifier API's cron intake route.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nftpawnshop/backend/internal/config"
	"github.com/nftpawnshop/backend/internal/handler"
	applog "github.com/nftpawnshop/backend/internal/logger"
	"github.com/nftpawnshop/backend/internal/repository"
	"github.com/nftpawnshop/backend/internal/service"
	"github.com/nftpawnshop/backend/internal/subgraph"
)

func main() {
	cfg := config.Load()

	// Flags
	apiURL := flag.String("api", cfg.APIURL, "Base URL of the notifier API")
	at := flag.Int64("at", 0, "Unix timestamp to scan as of (default: now)")
	timeout := flag.Duration("timeout", cfg.ExpiryScanTimeout, "Scan timeout")
	flag.Parse()

	logger := applog.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect to database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := repository.Migrate(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	token := func() (string, error) {
		return handler.GenerateWebhookToken(cfg.JWTSecret, 5*time.Minute)
	}
	dispatcher := service.NewWebhookDispatcher(*apiURL, token, nil)

	scanner := service.NewExpiryScanner(service.ExpiryScannerConfig{
		KillSwitch:  cfg.Notifications.KillSwitch,
		WindowHours: cfg.Notifications.FrequencyHours,
	}, subgraph.NewClient(subgraph.DefaultConfig(cfg.SubgraphURL), nil), repository.NewCursorRepository(db), dispatcher, logger)

	current := *at
	if current == 0 {
		current = time.Now().Unix()
	}
	logger.Info("Running expiry scan", slog.Int64("timestamp", current), slog.String("api", *apiURL))

	result, err := scanner.RunScan(ctx, current)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}
