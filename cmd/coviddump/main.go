// Command coviddump fetches the country report and the daily history once and
// writes the raw responses, indented, to COVIDDASH_DUMP_DIR. coviddash imports
// them as snapshots when started with COVIDDASH_OFFLINE=true.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/coviddash/internal/adapter/driven/localfile"
	"github.com/ericfisherdev/coviddash/internal/adapter/driven/rapidapi"
	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/config"
	"github.com/ericfisherdev/coviddash/internal/domain/flatten"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileKeys, err := localfile.LoadAPIKeys(cfg.KeyFiles())
	if err != nil {
		return err
	}
	client, err := rapidapi.NewClient(rapidapi.Endpoints{
		CSSE:     cfg.CSSEURL,
		Vaccovid: cfg.VaccovidURL,
	}, application.NewKeyResolver(fileKeys, nil), cfg.HTTPTimeout)
	if err != nil {
		return err
	}

	report, err := client.FetchReports(ctx, model.CountryQuery(cfg.RegionName, cfg.ISO))
	if err != nil {
		return fmt.Errorf("fetching country report: %w", err)
	}
	if err := dump(cfg.DumpDir, localfile.CSSEDumpFile, report); err != nil {
		return err
	}

	history, err := client.FetchDailyHistory(ctx, cfg.ISO)
	if err != nil {
		return fmt.Errorf("fetching daily history: %w", err)
	}
	return dump(cfg.DumpDir, localfile.VaccovidDumpFile, history)
}

// dump validates body as a single JSON document and writes it to dir.
func dump(dir, name string, body []byte) error {
	if _, err := flatten.Decode(body); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	path, err := localfile.WriteDumpFile(dir, name, body)
	if err != nil {
		return err
	}
	slog.Info("response written", "path", path, "bytes", len(body))
	return nil
}
