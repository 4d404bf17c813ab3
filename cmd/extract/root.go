package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/feichai0017/ticket-extractor/internal/models"
	"github.com/feichai0017/ticket-extractor/internal/service/extraction"
	"github.com/feichai0017/ticket-extractor/pkg/converters"
	"github.com/feichai0017/ticket-extractor/pkg/logger"
	"github.com/feichai0017/ticket-extractor/pkg/worker"
)

const defaultFile = "Billet.pdf"

type builder func(ctx context.Context, configPath string) (extraction.Extractor, logger.Logger, error)

type options struct {
	configPath  string
	model       string
	concurrency int
}

func newRootCmd(build builder) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "extract [file...]",
		Short:         "Extract flight ticket details from images and PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "No file given, using %s\n", defaultFile)
				args = []string{defaultFile}
			}

			svc, log, err := build(cmd.Context(), opts.configPath)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				return err
			}
			defer log.Sync()

			pool := worker.NewPool(log, &worker.Config{Concurrency: opts.concurrency})
			return run(cmd.Context(), svc, pool, args, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model identifier (defaults to the configured model)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 2, "number of files processed at once")
	return cmd
}

// run processes files with bounded concurrency and prints results in
// argument order. Failed files do not stop the others.
func run(ctx context.Context, svc extraction.Extractor, pool *worker.Pool, files []string, opts *options, stdout, stderr io.Writer) error {
	results := make([]*models.Result, len(files))
	errs := pool.Run(ctx, len(files), func(ctx context.Context, i int) error {
		res, err := svc.Process(ctx, files[i], opts.model)
		results[i] = res
		return err
	})

	var failed int
	for i, file := range files {
		if len(files) > 1 {
			fmt.Fprintf(stdout, "== %s ==\n", file)
		}
		if errs[i] != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", file, errs[i])
			continue
		}
		fmt.Fprintln(stdout, converters.Pretty(results[i]))
		for _, w := range results[i].Warnings {
			fmt.Fprintf(stderr, "%s: warning: %s\n", file, w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}
