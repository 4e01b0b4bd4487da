package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/takak2166/wiz2onenote/internal/auth"
	"github.com/takak2166/wiz2onenote/internal/config"
	"github.com/takak2166/wiz2onenote/internal/index"
	"github.com/takak2166/wiz2onenote/internal/locator"
	"github.com/takak2166/wiz2onenote/internal/logger"
	"github.com/takak2166/wiz2onenote/internal/migrate"
	"github.com/takak2166/wiz2onenote/internal/models"
	"github.com/takak2166/wiz2onenote/internal/onenote"
	"github.com/takak2166/wiz2onenote/internal/transform"
)

type flags struct {
	envFile  string
	dataDir  string
	notebook string
	workers  int
	output   string
	platform string
	yes      bool
	dryRun   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "wiz2onenote",
		Short: "Migrate WizNote notes into a OneNote notebook",
		Long: `wiz2onenote reads the local WizNote index, creates one OneNote notebook with
a section per WizNote folder and uploads every note as a page, keeping titles,
creation times, images and source URLs.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f, newConsolePrompter(os.Stdin, os.Stdout))
		},
	}

	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file to load")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "WizNote data directory containing index.db")
	cmd.Flags().StringVar(&f.notebook, "notebook", "", "name of the notebook to create")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent page uploads")
	cmd.Flags().StringVar(&f.output, "output", "", "directory to also save normalized pages to")
	cmd.Flags().StringVar(&f.platform, "platform", "", "bundle layout: linux, darwin or windows (default: host)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "create sections without confirmation")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "transform every note without contacting OneNote")

	return cmd
}

// loadConfig reads .env and the environment, then applies explicit flags
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = f.output
	}
	if cmd.Flags().Changed("platform") {
		cfg.Platform = f.platform
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type prompter interface {
	auth.Prompter
	DataDir() (string, error)
	NotebookName() (string, error)
	ConfirmSections(names []string) (bool, error)
}

func run(ctx context.Context, cfg *config.Config, f *flags, p prompter) error {
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	loc, err := locator.ForPlatform(cfg.Platform)
	if err != nil {
		return err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		if dataDir, err = p.DataDir(); err != nil {
			return err
		}
	}

	catalog, err := readCatalog(ctx, dataDir)
	if err != nil {
		logger.Error("Failed to read WizNote index", err, map[string]interface{}{
			"data_dir": dataDir,
		})
		return err
	}
	if len(catalog.Groups) == 0 {
		logger.Info("No documents to migrate")
		return nil
	}

	// Everything below needs the operator: sign-in, notebook name, confirmation.
	api, err := connect(ctx, cfg, f.dryRun, p)
	if err != nil {
		return err
	}

	notebook := f.notebook
	if notebook == "" {
		if notebook, err = p.NotebookName(); err != nil {
			return err
		}
	}

	if !f.yes {
		ok, err := p.ConfirmSections(migrate.SectionNames(catalog))
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("Migration cancelled")
			return nil
		}
	}

	hierarchy, err := migrate.NewHierarchyBuilder(api).Build(ctx, notebook, catalog)
	if err != nil {
		logger.Error("Failed to create notebook hierarchy", err, map[string]interface{}{
			"notebook": notebook,
		})
		return err
	}

	tr := transform.New(
		transform.WithLocation(cfg.CreatedLocation()),
		transform.WithMaxResources(cfg.MaxImagesPerPage),
	)
	pipeline := migrate.NewPipeline(loc, tr, migrate.NewUploader(api), migrate.Options{
		Workers:   cfg.Workers,
		OutputDir: cfg.OutputDir,
	})

	report, err := pipeline.Run(ctx, hierarchy, catalog)
	if err != nil {
		return err
	}

	for _, failed := range report.Failures() {
		logger.Error("Document not migrated", failed.Err, map[string]interface{}{
			"location": failed.Document.Location,
			"title":    failed.Document.Title,
			"guid":     failed.Document.GUID,
		})
	}
	return nil
}

func readCatalog(ctx context.Context, dataDir string) (*models.Catalog, error) {
	reader, err := index.Open(dataDir)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return reader.Read(ctx)
}

// connect signs in and returns the OneNote API, or a dry-run stand-in
func connect(ctx context.Context, cfg *config.Config, dryRun bool, p prompter) (onenote.API, error) {
	if dryRun {
		return &onenote.DryRun{}, nil
	}

	flow := auth.NewFlow(cfg.OneNote)
	token, err := flow.Token(ctx, p)
	if err != nil {
		logger.Error("Failed to sign in", err)
		return nil, err
	}
	return onenote.New(flow.Client(ctx, token, cfg.HTTPTimeout), cfg.APIBase), nil
}
