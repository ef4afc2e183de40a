package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"country-atlas-service/internal/config"
	"country-atlas-service/internal/model"
	"country-atlas-service/internal/service"
)

type importOptions struct {
	url    string
	file   string
	format string
	clear  bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load countries into the configured store and exit",
		Long: `Load countries from a local JSON file or a restcountries.com compatible URL.
Without --file or --url the configured IMPORT_SOURCE_URL is fetched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "", "restcountries v3.1 endpoint to fetch")
	flags.StringVar(&opts.file, "file", "", "path of a JSON file to import")
	flags.StringVar(&opts.format, "format", string(service.FormatRestCountries), "file format: restcountries or native")
	flags.BoolVar(&opts.clear, "clear", false, "remove existing countries first")
	cmd.MarkFlagsMutuallyExclusive("url", "file")
	return cmd
}

func runImport(ctx context.Context, opts importOptions) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	log, countryStore, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = countryStore.Close(context.Background())
		_ = log.Sync()
	}()

	importer := service.NewDataImporter(countryStore, nil, log)
	if opts.clear {
		if err := importer.ClearDatabase(ctx); err != nil {
			return err
		}
	}

	var result model.ImportResult
	switch {
	case opts.file != "":
		format, err := service.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", opts.file, err)
		}
		defer f.Close()
		result, err = importer.ImportFromReader(ctx, bufio.NewReaderSize(f, 1024*1024), format)
		if err != nil {
			return err
		}
	default:
		url := opts.url
		if url == "" {
			url = config.AppConfig.ImportSourceURL
		}
		if url == "" {
			return errors.New("no --file, --url or IMPORT_SOURCE_URL given")
		}
		result, err = importer.ImportFromURL(ctx, url)
		if err != nil {
			return err
		}
	}

	log.Info("import finished", zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return nil
}
