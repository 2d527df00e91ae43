// batch_fetch runs the fetch-and-save pipeline for a list of companies
// without starting the HTTP server.
//
//	batch_fetch -year 2023 삼성전자 SK하이닉스
//	batch_fetch -recompute 삼성전자
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"fin_ratio/pkg/core/config"
	"fin_ratio/pkg/core/dart"
	"fin_ratio/pkg/core/pipeline"
	"fin_ratio/pkg/core/ratio"
	"fin_ratio/pkg/core/store"
	"fin_ratio/pkg/models"
)

func main() {
	year := flag.Int("year", 0, "business year to fetch (0 = latest closed year)")
	companies := flag.String("companies", "", "comma-separated company names")
	recompute := flag.Bool("recompute", false, "re-derive stored ratios instead of fetching")
	delay := flag.Duration("delay", 2*time.Second, "pause between companies")
	flag.Parse()

	names := splitNames(*companies)
	names = append(names, flag.Args()...)

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[FATAL] Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		names = []string{cfg.DefaultCompany}
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	repo, err := store.Open(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("[FATAL] Failed to open %s store: %v\n", cfg.StoreDriver, err)
		os.Exit(1)
	}
	defer repo.Close()

	orchestrator := pipeline.NewPipelineOrchestrator(
		dart.NewClient(cfg.DART, cfg.CacheDir, logger),
		repo,
		ratio.NewEngine(cfg.Ratio),
		cfg.YearMarker,
		logger,
	)

	var pinned *int
	if *year > 0 {
		pinned = year
	}

	failed := 0
	for i, name := range names {
		fmt.Printf("\n=== %s ===\n", name)

		var res models.Result
		if *recompute {
			res = orchestrator.RecomputeRatios(ctx, name)
		} else {
			res = orchestrator.FetchAndSaveFinancialData(ctx, name, pinned)
		}

		if !res.OK() {
			failed++
			fmt.Printf("[%s] %s\n", strings.ToUpper(res.Kind.String()), res.Message)
		} else {
			fmt.Println(res.Message)
		}

		// Stay under the upstream rate limit
		if i < len(names)-1 && !*recompute {
			time.Sleep(*delay)
		}
	}

	fmt.Printf("\n=== Done: %d ok, %d failed ===\n", len(names)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
