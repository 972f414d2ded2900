// Command hpfa-driftcheck runs the baseline drift gate: it compares the
// current run's unmapped provider actions against a durable baseline set
// and exits non-zero the moment a provider action shows up that the
// baseline never declared. Exit codes follow the pipeline-wide convention:
// 0 clean, 1 drift detected, 2 input or parse error.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hikmetpinarbas/hpfa-go/pkg/clock"
	"github.com/hikmetpinarbas/hpfa-go/pkg/detjson"
	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/reports"
	"github.com/hikmetpinarbas/hpfa-go/pkg/reports/store"
	"github.com/hikmetpinarbas/hpfa-go/pkg/telemetry"
)

type rootFlags struct {
	baselineFile string
	currentFile  string
	storeDSN     string
	storeDialect string
	outFile      string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	var f rootFlags

	cmd := &cobra.Command{
		Use:           "hpfa-driftcheck",
		Short:         "Check the current run's unmapped provider actions against the durable baseline set",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&f.baselineFile, "baseline-file", "", "path to a JSON array of known provider actions (ignored when --store-dsn is set)")
	cmd.Flags().StringVar(&f.currentFile, "current-file", "", "path to a JSON array of this run's unmapped provider actions")
	cmd.Flags().StringVar(&f.storeDSN, "store-dsn", "", "durable store DSN; when set, loads the baseline via pkg/reports/store instead of --baseline-file")
	cmd.Flags().StringVar(&f.storeDialect, "store-dialect", string(store.DialectPostgres), "durable store dialect: postgres or sqlite")
	cmd.Flags().StringVar(&f.outFile, "out", "", "path to write the drift report JSON; defaults to stdout")
	_ = cmd.MarkFlagRequired("current-file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runDriftCheck(cmd.Context(), f, stdout)
	}

	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "hpfa-driftcheck:", err)
		return exitCodeForErr(err)
	}
	return 0
}

func runDriftCheck(ctx context.Context, f rootFlags, stdout *os.File) error {
	log := telemetry.NewDefaultLogger("hpfa-driftcheck")
	now := clock.Real{}.Now()

	current, err := readActionList(f.currentFile)
	if err != nil {
		log.Error(now, "read_current_failed", telemetry.F("error", err))
		return err
	}

	baseline, err := loadBaseline(ctx, f)
	if err != nil {
		log.Error(now, "load_baseline_failed", telemetry.F("error", err))
		return err
	}

	result, driftErr := reports.CheckBaselineDrift(baseline, current)
	if driftErr != nil {
		log.Warn(now, "baseline_drift_detected", telemetry.F("novel_count", len(result.Novel)))
	} else {
		log.Info(now, "baseline_drift_clean", telemetry.F("baseline_count", len(baseline)))
	}

	generatedAtUTC := clock.FormatRFC3339UTC(now)
	doc := map[string]any{
		"generated_at_utc": generatedAtUTC,
		"clean":            result.Clean,
		"novel_actions":    toAnySlice(result.Novel),
	}
	out, encErr := detjson.Marshal(doc)
	if encErr != nil {
		return pipeerr.Wrap(pipeerr.RuntimeParse, encErr, "driftcheck: encode report")
	}

	if f.outFile != "" {
		if err := os.WriteFile(f.outFile, append(out, '\n'), 0o644); err != nil {
			return pipeerr.Wrap(pipeerr.RuntimeIO, err, "driftcheck: write report").With("path", f.outFile)
		}
	} else {
		fmt.Fprintln(stdout, string(out))
	}

	return driftErr
}

func loadBaseline(ctx context.Context, f rootFlags) ([]string, error) {
	if f.storeDSN != "" {
		return loadBaselineFromStore(ctx, f)
	}
	if f.baselineFile == "" {
		return nil, pipeerr.New(pipeerr.RuntimeIO, "driftcheck: one of --baseline-file or --store-dsn is required")
	}
	return readActionList(f.baselineFile)
}

func loadBaselineFromStore(ctx context.Context, f rootFlags) ([]string, error) {
	dialect := store.Dialect(f.storeDialect)
	var s *store.Store
	var err error
	switch dialect {
	case store.DialectPostgres:
		s, err = store.OpenPostgres(f.storeDSN, store.Options{})
	case store.DialectSQLite:
		s, err = store.OpenSQLite(f.storeDSN, store.Options{})
	default:
		return nil, pipeerr.New(pipeerr.RuntimeIO, "driftcheck: unknown store dialect").With("dialect", f.storeDialect)
	}
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s.LoadBaseline(ctx)
}

func readActionList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeIO, err, "driftcheck: read action list").With("path", path)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "driftcheck: parse action list").With("path", path)
	}
	return out, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func exitCodeForErr(err error) int {
	if err == nil {
		return 0
	}
	return pipeerr.ExitCodeFor(pipeerr.CodeOf(err))
}
