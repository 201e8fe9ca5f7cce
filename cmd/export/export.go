// Copyright 2026 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-export/internal/assemble"
	"github.com/sirseerhq/sirseer-export/internal/batch"
	"github.com/sirseerhq/sirseer-export/internal/cache"
	"github.com/sirseerhq/sirseer-export/internal/config"
	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/jira"
	"github.com/sirseerhq/sirseer-export/internal/logging"
	"github.com/sirseerhq/sirseer-export/internal/render"
)

// exportFlags carries the command-line overrides into runExport.
type exportFlags struct {
	configPath       string
	keysFile         string
	outDir           string
	workers          int
	engineName       string
	skipHTML         bool
	skipPDF          bool
	keepInstructions bool
	logLevel         string
	pretty           bool
}

// newExportCommand builds the export subcommand.
func newExportCommand() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Export the tickets listed in the keys file",
		Long: `Export the Jira tickets listed in the keys file (one key per line,
# for comments). Each ticket is fetched, assembled into a self-contained
HTML page under <out>/pages, and converted to a PDF under <out>/documents.
Tickets that fail are listed in <out>/export_failures.csv; one bad ticket
never stops the rest of the batch.

Credentials come from configuration, never from flags: set jira.username
in the config file (or JIRA_USERNAME) and put the API token in the
environment variable named by jira.token_env (default JIRA_API_TOKEN).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.skipHTML && flags.skipPDF {
				return fmt.Errorf("--skip-html and --skip-pdf together leave nothing to do: %w",
					exporterrors.ErrInvalidConfig)
			}

			// An interrupt stops dispatching new tickets; tickets already
			// being written are allowed to finish.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runExport(ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to config file (default: .sirseer-export.yaml)")
	cmd.Flags().StringVar(&flags.keysFile, "keys", "", "Path to the issue keys file (default: keys.txt)")
	cmd.Flags().StringVar(&flags.outDir, "out", "", "Output directory (default: exports)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Number of concurrent workers (default: 4)")
	cmd.Flags().StringVar(&flags.engineName, "pdf-engine", "", "PDF engine: wkhtmltopdf or weasyprint")
	cmd.Flags().BoolVar(&flags.skipHTML, "skip-html", false, "Skip fetching; convert already-exported pages to PDF")
	cmd.Flags().BoolVar(&flags.skipPDF, "skip-pdf", false, "Skip PDF conversion; export HTML pages only")
	cmd.Flags().BoolVar(&flags.keepInstructions, "keep-instructions", false, "Keep Jira chrome normally stripped from pages")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&flags.pretty, "pretty", false, "Human-readable log output")

	return cmd
}

// runExport wires configuration, client, assembler and renderer together
// and runs the batch.
func runExport(ctx context.Context, flags exportFlags) error {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, flags)

	log := logging.Setup(logging.Config{
		Level:  flags.logLevel,
		Pretty: flags.pretty,
		Output: os.Stderr,
	}).With().Str("component", "export").Logger()

	var client jira.Client
	if !flags.skipHTML {
		// Credentials and connectivity only matter when pages are fetched.
		if err := cfg.Validate(); err != nil {
			return err
		}
		token := cfg.Token()
		if token == "" {
			return fmt.Errorf("jira API token not set; export %s before running: %w",
				cfg.Jira.TokenEnv, exporterrors.ErrInvalidCredentials)
		}

		client, err = jira.NewClient(jira.Options{
			BaseURL:      cfg.Jira.BaseURL,
			Username:     cfg.Jira.Username,
			Token:        token,
			Timeout:      time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
			MaxRetries:   cfg.Fetch.MaxRetries,
			AllowedHosts: cfg.Fetch.AllowedHosts,
		})
		if err != nil {
			return err
		}

		log.Info().Str("base_url", cfg.Jira.BaseURL).Msg("Verifying Jira credentials")
		if err := client.Authenticate(ctx); err != nil {
			return err
		}
	}

	var renderer render.Renderer
	if !flags.skipPDF {
		engine, err := render.ParseEngine(cfg.Render.Engine)
		if err != nil {
			return fmt.Errorf("%v: %w", err, exporterrors.ErrInvalidConfig)
		}
		renderer, err = render.NewRenderer(engine, time.Duration(cfg.Render.TimeoutSeconds)*time.Second)
		if err != nil {
			return err
		}
	}

	var keys []string
	if !flags.skipHTML {
		keys, err = batch.ReadKeys(cfg.Defaults.KeysFile)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintf(os.Stderr, "No issue keys in %s; nothing to export\n", cfg.Defaults.KeysFile)
			return nil
		}
	}

	outDir := cfg.Defaults.OutDir
	orchestrator := batch.New(client, assemble.New(client, cache.New()), renderer, batch.Options{
		Workers:          cfg.Defaults.Workers,
		SkipHTML:         flags.skipHTML,
		SkipPDF:          flags.skipPDF,
		KeepInstructions: flags.keepInstructions,
		PagesDir:         filepath.Join(outDir, "pages"),
		DocsDir:          filepath.Join(outDir, "documents"),
		ReportPath:       filepath.Join(outDir, "export_failures.csv"),
	})

	summary, err := orchestrator.Run(ctx, keys)
	if err != nil {
		return err
	}

	printSummary(summary, flags, filepath.Join(outDir, "export_failures.csv"))
	if summary.Failed() {
		return exporterrors.ErrTicketsFailed
	}
	return nil
}

// applyFlagOverrides lets command-line flags win over config file and
// environment values.
func applyFlagOverrides(cfg *config.Config, flags exportFlags) {
	if flags.keysFile != "" {
		cfg.Defaults.KeysFile = flags.keysFile
	}
	if flags.outDir != "" {
		cfg.Defaults.OutDir = flags.outDir
	}
	if flags.workers > 0 {
		cfg.Defaults.Workers = flags.workers
	}
	if flags.engineName != "" {
		cfg.Render.Engine = flags.engineName
	}
}

// printSummary writes the closing banner to stderr, like progress output.
func printSummary(summary *batch.Summary, flags exportFlags, reportPath string) {
	if !flags.skipHTML {
		fmt.Fprintf(os.Stderr, "Pages exported: %d succeeded, %d failed\n",
			summary.HTMLSucceeded, summary.HTMLFailed)
	}
	if !flags.skipPDF {
		fmt.Fprintf(os.Stderr, "Documents rendered: %d succeeded, %d failed\n",
			summary.PDFSucceeded, summary.PDFFailed)
	}
	if summary.Failed() {
		fmt.Fprintf(os.Stderr, "Failure details written to %s\n", reportPath)
	}
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	// Check for specific error types
	if errors.Is(err, exporterrors.ErrInvalidCredentials) ||
		errors.Is(err, exporterrors.ErrInvalidConfig) {
		return 2 // Configuration/credential errors
	}

	if errors.Is(err, exporterrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error, including ticket failures
}
