// Command hpfa-baselinegate runs the canon-hash gate: it verifies every
// file a canon manifest declares still hashes to the digest recorded at
// canonicalization time. Exit codes follow the pipeline-wide convention:
// 0 PASS, 1 WARN (missing file or digest mismatch), 2 input or parse error.
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
	"github.com/hikmetpinarbas/hpfa-go/pkg/fingerprint"
	"github.com/hikmetpinarbas/hpfa-go/pkg/reports"
	"github.com/hikmetpinarbas/hpfa-go/pkg/reports/store"
	"github.com/hikmetpinarbas/hpfa-go/pkg/telemetry"
)

type rootFlags struct {
	manifestFile string
	baseDir      string
	storeDSN     string
	storeDialect string
	persist      bool
	outFile      string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	var f rootFlags

	cmd := &cobra.Command{
		Use:           "hpfa-baselinegate",
		Short:         "Verify canon artifacts against their recorded SHA-256 manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&f.manifestFile, "manifest-file", "", "path to the canon manifest JSON (algo, version, files); required unless --store-dsn is set")
	cmd.Flags().StringVar(&f.baseDir, "base-dir", ".", "directory the manifest's file paths are relative to")
	cmd.Flags().StringVar(&f.storeDSN, "store-dsn", "", "durable store DSN; when set without --manifest-file, loads the manifest via pkg/reports/store; with --manifest-file and --persist, the file's manifest is saved to it")
	cmd.Flags().StringVar(&f.storeDialect, "store-dialect", string(store.DialectPostgres), "durable store dialect: postgres or sqlite")
	cmd.Flags().BoolVar(&f.persist, "persist", false, "when reading from --manifest-file, also write it into the durable store before verifying")
	cmd.Flags().StringVar(&f.outFile, "out", "", "path to write the gate report JSON; defaults to stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runBaselineGate(cmd.Context(), f, stdout)
	}

	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "hpfa-baselinegate:", err)
		return exitCodeForErr(err)
	}
	return 0
}

func runBaselineGate(ctx context.Context, f rootFlags, stdout *os.File) error {
	log := telemetry.NewDefaultLogger("hpfa-baselinegate")
	now := clock.Real{}.Now()

	manifest, err := loadManifest(ctx, f)
	if err != nil {
		log.Error(now, "load_manifest_failed", telemetry.F("error", err))
		return err
	}

	generatedAtUTC := clock.FormatRFC3339UTC(now)
	report, gateErr := reports.RunCanonHashGate(manifest, f.baseDir, generatedAtUTC)
	if gateErr != nil {
		log.Warn(now, "canon_hash_gate_failed", telemetry.F("action", report.Action), telemetry.F("missing_count", len(report.Missing)), telemetry.F("mismatched_count", len(report.Mismatched)))
	} else {
		log.Info(now, "canon_hash_gate_passed", telemetry.F("file_count", len(manifest.Files)))
	}

	out, encErr := detjson.Marshal(map[string]any{
		"generated_at_utc": report.GeneratedAtUTC,
		"action":           report.Action,
		"missing":          toAnySlice(report.Missing),
		"mismatched":       mismatchedToAny(report.Mismatched),
	})
	if encErr != nil {
		return pipeerr.Wrap(pipeerr.RuntimeParse, encErr, "baselinegate: encode report")
	}

	if f.outFile != "" {
		if err := os.WriteFile(f.outFile, append(out, '\n'), 0o644); err != nil {
			return pipeerr.Wrap(pipeerr.RuntimeIO, err, "baselinegate: write report").With("path", f.outFile)
		}
	} else {
		fmt.Fprintln(stdout, string(out))
	}

	return gateErr
}

func loadManifest(ctx context.Context, f rootFlags) (fingerprint.Manifest, error) {
	if f.storeDSN != "" && f.manifestFile == "" {
		return loadManifestFromStore(ctx, f)
	}
	if f.manifestFile == "" {
		return fingerprint.Manifest{}, pipeerr.New(pipeerr.RuntimeIO, "baselinegate: one of --manifest-file or --store-dsn is required")
	}

	raw, err := os.ReadFile(f.manifestFile)
	if err != nil {
		return fingerprint.Manifest{}, pipeerr.Wrap(pipeerr.RuntimeIO, err, "baselinegate: read manifest").With("path", f.manifestFile)
	}
	var m fingerprint.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return fingerprint.Manifest{}, pipeerr.Wrap(pipeerr.RuntimeParse, err, "baselinegate: parse manifest").With("path", f.manifestFile)
	}

	if f.persist && f.storeDSN != "" {
		if err := persistManifest(ctx, f, m); err != nil {
			return fingerprint.Manifest{}, err
		}
	}
	return m, nil
}

func loadManifestFromStore(ctx context.Context, f rootFlags) (fingerprint.Manifest, error) {
	s, err := openStore(f)
	if err != nil {
		return fingerprint.Manifest{}, err
	}
	defer s.Close()

	if err := s.EnsureSchema(ctx); err != nil {
		return fingerprint.Manifest{}, err
	}
	return s.LoadManifest(ctx)
}

func persistManifest(ctx context.Context, f rootFlags, m fingerprint.Manifest) error {
	s, err := openStore(f)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	return s.SaveManifest(ctx, m)
}

func openStore(f rootFlags) (*store.Store, error) {
	dialect := store.Dialect(f.storeDialect)
	switch dialect {
	case store.DialectPostgres:
		return store.OpenPostgres(f.storeDSN, store.Options{})
	case store.DialectSQLite:
		return store.OpenSQLite(f.storeDSN, store.Options{})
	default:
		return nil, pipeerr.New(pipeerr.RuntimeIO, "baselinegate: unknown store dialect").With("dialect", f.storeDialect)
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func mismatchedToAny(ms []fingerprint.MismatchedFile) []any {
	out := make([]any, len(ms))
	for i, m := range ms {
		out[i] = map[string]any{
			"path":     m.Path,
			"expected": m.Expected,
			"actual":   m.Actual,
		}
	}
	return out
}

func exitCodeForErr(err error) int {
	if err == nil {
		return 0
	}
	return pipeerr.ExitCodeFor(pipeerr.CodeOf(err))
}
