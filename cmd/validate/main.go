// Command validate performs a dry run of the forecast ingest configuration:
// it loads the environment, checks the sampling rules, fetches the forecast
// endpoint once and builds the record that would be stored, without writing
// anything to DynamoDB.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -rules deploy/sampling-rules.json \
//	  -fixture internal/pipeline/testdata/forecast_sf.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/forecast-ingest/internal/adapter/openmeteo"
	"github.com/couchcryptid/forecast-ingest/internal/config"
	"github.com/couchcryptid/forecast-ingest/internal/domain"
	"github.com/couchcryptid/forecast-ingest/internal/observability"
)

// maxItemBytes is the DynamoDB item size limit.
const maxItemBytes = 400 * 1024

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	skipped bool
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rulesPath := flag.String("rules", "", "sampling rules file (defaults to SAMPLING_RULES_FILE)")
	fixture := flag.String("fixture", "", "read the forecast body from this file instead of the endpoint")
	timeout := flag.Duration("timeout", 30*time.Second, "forecast fetch timeout")
	flag.Parse()

	os.Exit(run(*rulesPath, *fixture, *timeout))
}

func run(rulesPath, fixture string, timeout time.Duration) int {
	fmt.Println("=== Forecast Ingest Dry Run ===")
	fmt.Println()

	cfgPhase := &phase{name: "Phase 1: Configuration"}
	cfg, err := config.Load()
	if err != nil {
		cfgPhase.errorf("%v", err)
	}

	if rulesPath == "" && cfg != nil {
		rulesPath = cfg.SamplingRulesFile
	}
	rulesPhase := validateSamplingRules(rulesPath)

	fetchPhase := &phase{name: "Phase 3: Forecast Fetch"}
	var body []byte
	switch {
	case fixture != "":
		body, err = os.ReadFile(fixture)
		if err != nil {
			fetchPhase.errorf("read fixture: %v", err)
		}
	case cfg == nil:
		fetchPhase.skipped = true
	default:
		body, err = fetchForecast(cfg, timeout)
		if err != nil {
			fetchPhase.errorf("%v", err)
		}
	}

	recordPhase := &phase{name: "Phase 4: Record Build"}
	if body == nil {
		recordPhase.skipped = true
	} else {
		checkRecord(recordPhase, body)
	}

	phases := []*phase{cfgPhase, rulesPhase, fetchPhase, recordPhase}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	if cfg != nil {
		fmt.Println()
		fmt.Printf("Table: %s  Region: %s  Mode: %s\n", cfg.TargetTable, cfg.AWSRegion, cfg.RunMode)
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 2: Sampling Rules ──

func validateSamplingRules(path string) *phase {
	p := &phase{name: "Phase 2: Sampling Rules"}
	rules, err := observability.LoadSamplingRules(path)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if path == "" {
		fmt.Println("  Note: no sampling rules file, using the built-in default rule")
	}
	if rules.Default.Rate == 0 && rules.Default.FixedTarget == 0 {
		p.errorf("default rule samples nothing (fixed_target=0, rate=0)")
	}
	return p
}

// ── Phase 3: Forecast Fetch ──

func fetchForecast(cfg *config.Config, timeout time.Duration) ([]byte, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := openmeteo.NewClient(cfg.ForecastURL, timeout, observability.NewMetricsForTesting(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Fetch(ctx)
}

// ── Phase 4: Record Build ──
// Decodes the body, builds the record and checks the stored forecast
// re-parses to the same value and fits in one item.

func checkRecord(p *phase, body []byte) {
	doc, err := domain.ParseDocument(body)
	if err != nil {
		p.errorf("%v", err)
		return
	}

	rec, err := domain.NewRecord(domain.NewID(), doc)
	if err != nil {
		p.errorf("%v", err)
		return
	}

	var want, got any
	if err := json.Unmarshal(body, &want); err != nil {
		p.errorf("re-parse body: %v", err)
		return
	}
	if err := json.Unmarshal([]byte(rec.Forecast), &got); err != nil {
		p.errorf("re-parse forecast attribute: %v", err)
		return
	}
	if diff := cmp.Diff(want, got); diff != "" {
		p.errorf("forecast attribute differs from response (-response +stored):\n%s", diff)
	}

	if size := len(rec.ID) + len(rec.Forecast) + len("id") + len("forecast"); size > maxItemBytes {
		p.errorf("item is %d bytes, over the %d byte DynamoDB limit", size, maxItemBytes)
	}
	fmt.Printf("  Note: record %s, forecast attribute %d bytes\n", rec.ID, len(rec.Forecast))
}
