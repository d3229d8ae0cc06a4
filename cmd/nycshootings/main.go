// Command nycshootings runs the shooting-incident analysis as a one-shot
// batch job: fetch the two source tables, clean and join them, derive the
// summary tables, fit the Poisson model, and write the report. Any stage
// failure aborts the run; re-running recomputes everything from scratch.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/urbanstats/nycshootings/internal/analyze"
	"github.com/urbanstats/nycshootings/internal/config"
	"github.com/urbanstats/nycshootings/internal/fetch"
	"github.com/urbanstats/nycshootings/internal/gam"
	"github.com/urbanstats/nycshootings/internal/interpolate"
	"github.com/urbanstats/nycshootings/internal/loader"
	"github.com/urbanstats/nycshootings/internal/logger"
	"github.com/urbanstats/nycshootings/internal/notify"
	"github.com/urbanstats/nycshootings/internal/report"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	runID := uuid.New().String()
	startedAt := time.Now()
	logger.Info("Starting analysis run %s", runID)

	client := fetch.NewClient(cfg.Sources.Timeout, cfg.Sources.MaxRetries, cfg.Sources.RetryDelayBase)
	ctx := context.Background()

	// Stage 1: incident loader.
	rawIncidents, err := client.FetchCSV(ctx, cfg.Sources.IncidentsURL)
	if err != nil {
		logger.Fatal("Incident fetch failed: %v", err)
	}
	incidents, err := loader.Incidents(rawIncidents)
	if err != nil {
		logger.Fatal("Incident loading failed: %v", err)
	}
	logger.Info("Loaded %d incidents", len(incidents))

	// Stage 2: population loader.
	rawPopulation, err := client.FetchCSV(ctx, cfg.Sources.PopulationURL)
	if err != nil {
		logger.Fatal("Population fetch failed: %v", err)
	}
	populations, err := loader.Population(rawPopulation)
	if err != nil {
		logger.Fatal("Population loading failed: %v", err)
	}
	logger.Info("Loaded %d population records", len(populations))

	// Stage 3: population interpolation over the analysis range.
	populations = interpolate.Fill(populations, cfg.Analysis.MinYear, cfg.Analysis.MaxYear)
	logger.Info("Population series completed over %d-%d", cfg.Analysis.MinYear, cfg.Analysis.MaxYear)

	// Stages 4-5: aggregation, join, and derived metrics.
	summaries := analyze.YearlySummaries(incidents, populations)
	hourly := analyze.HourlyDistribution(incidents)
	monthly := analyze.MonthlyDistribution(incidents)
	changes := analyze.RateChanges(summaries)
	logger.Info("Derived %d yearly summary rows", len(summaries))

	// Stage 6: model fit.
	cells := analyze.ModelCells(incidents)
	model, err := gam.Fit(cells, gam.Options{
		HourHarmonics:  cfg.Model.HourHarmonics,
		MonthHarmonics: cfg.Model.MonthHarmonics,
		MaxIterations:  cfg.Model.MaxIterations,
		Tolerance:      cfg.Model.Tolerance,
	})
	if err != nil {
		logger.Fatal("Model fit failed: %v", err)
	}
	cells = model.PredictCells(cells)
	pseudoR2 := gam.PseudoR2(cells)
	logger.Info("Model converged in %d iterations, pseudo-R² %.4f", model.Iterations(), pseudoR2)

	// Stage 7: report.
	mapClient := report.NewStaticMapClient(cfg.Report.MapAPIKey, cfg.Sources.Timeout)
	writer := report.NewWriter(cfg.Report.OutputPath, mapClient)
	err = writer.Write(report.Data{
		RunID:       runID,
		GeneratedAt: startedAt,
		Incidents:   incidents,
		Summaries:   summaries,
		Hourly:      hourly,
		Monthly:     monthly,
		Changes:     changes,
		Cells:       cells,
		PseudoR2:    pseudoR2,
	})
	if err != nil {
		logger.Fatal("Report writing failed: %v", err)
	}
	logger.Info("Report written to %s", cfg.Report.OutputPath)

	if cfg.Telegram.Enabled {
		telegramClient, err := notify.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 3, time.Second)
		if err != nil {
			logger.Error("Failed to initialize Telegram client: %v", err)
		} else {
			findings := notify.Findings{
				RunID:          runID,
				GeneratedAt:    startedAt,
				TotalIncidents: len(incidents),
				PseudoR2:       pseudoR2,
				LatestChanges:  notify.LatestChanges(changes),
			}
			if err := telegramClient.Send(findings); err != nil {
				logger.Error("Failed to send findings notification: %v", err)
			}
		}
	}

	logger.Info("Run %s finished in %v", runID, time.Since(startedAt).Round(time.Millisecond))
}
