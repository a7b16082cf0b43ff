// Command datajobs-report loads the salaries dataset once, writes the
// snapshot and prints the dashboard figures for a filter.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"datajobs/internal/cli"
	"datajobs/internal/config"
	"datajobs/internal/engine"
	"datajobs/internal/log"
	"datajobs/internal/report"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	fs := flag.NewFlagSet("datajobs-report", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: datajobs-report [flags]\n\n")
		fmt.Fprintf(fs.Output(), "Filter flags take comma-separated values. An unset flag selects every value;\n")
		fmt.Fprintf(fs.Output(), "a flag set to \"\" selects none.\n\n")
		fs.PrintDefaults()
	}

	format := fs.String("format", report.FormatText, "output format: text or json")
	source := fs.String("source", cfg.DataSource, "dataset source: http, file or sheets")
	file := fs.String("file", cfg.DatasetFile, "dataset CSV path, implies -source=file")
	url := fs.String("url", cfg.DatasetURL, "dataset URL for the http source")
	fs.String(report.FlagYears, "", "work years, e.g. 2023,2024")
	fs.String(report.FlagSeniority, "", "seniority labels, e.g. Senior,Executivo")
	fs.String(report.FlagContractTypes, "", "contract type labels")
	fs.String(report.FlagCompanySizes, "", "company size labels")
	fs.String(report.FlagJobTitle, engine.AllJobTitles, "single job title")
	_ = fs.Parse(os.Args[1:])

	filters := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case report.FlagYears, report.FlagSeniority, report.FlagContractTypes,
			report.FlagCompanySizes, report.FlagJobTitle:
			filters[f.Name] = f.Value.String()
		case "file":
			*source = config.SourceFile
		}
	})

	cfg.DataSource = *source
	cfg.DatasetFile = *file
	cfg.DatasetURL = *url

	logger := cli.SetupLogger(cfg)
	cli.MustValidate(logger, cfg)

	if err := run(context.Background(), cfg, logger, filters, *format); err != nil {
		logger.Error("Report failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, filters map[string]string, format string) error {
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Cleanup error", log.FieldError, err)
		}
	}()

	defaults, err := app.Service.DefaultSpec(ctx)
	if err != nil {
		return err
	}
	spec, err := report.ApplyFlags(filters, defaults)
	if err != nil {
		return err
	}

	res, err := app.Service.Recompute(ctx, spec, engine.WithoutRecords())
	if err != nil {
		return err
	}
	return report.Write(os.Stdout, res, format)
}
