// Package worker runs independent jobs on a bounded number of goroutines.
package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

// Job processes item i. Its error is reported for that item only.
type Job func(ctx context.Context, i int) error

type Config struct {
	Concurrency int
}

type Pool struct {
	logger logger.Logger
	config *Config
}

func NewPool(log logger.Logger, cfg *Config) *Pool {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pool{
		logger: log.Named("worker"),
		config: cfg,
	}
}

// Run executes job for every index in [0, n) and returns the errors by index.
// A failing job never cancels the others; a panic becomes that job's error.
// Jobs not yet started when ctx is cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, job Job) []error {
	errs := make([]error, n)

	g := &errgroup.Group{}
	g.SetLimit(p.config.Concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = p.safeRun(ctx, i, job)
			if errs[i] != nil {
				p.logger.Debug("Job failed", logger.Int("index", i), logger.Error(errs[i]))
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (p *Pool) safeRun(ctx context.Context, i int, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %d panicked: %v", i, r)
		}
	}()
	return job(ctx, i)
}
