// Package playground runs the scripted session against the users table:
// an optional seed, then a single-user lookup and a full scan issued concurrently.
package playground

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dbplayground/internal/usecase/user"
	pkgerrors "dbplayground/pkg/errors"
)

// SeedUsers are inserted by a seeded run into an empty table, in this order.
var SeedUsers = []user.CreateUserRequest{
	{FirstName: "Rome", LastName: "Bell", Age: 33},
	{FirstName: "Brian", LastName: "Krabec", Age: 27},
	{FirstName: "Nick", LastName: "Schmitt", Age: 28},
}

// Options controls a single run.
type Options struct {
	Seed   bool
	Lookup user.FindUserRequest
}

// Runner executes the playground session and writes its results to out.
type Runner struct {
	uc  user.Usecase
	out *console
	log *zap.Logger
}

// NewRunner creates a Runner writing results to out.
func NewRunner(uc user.Usecase, out io.Writer, log *zap.Logger) *Runner {
	return &Runner{uc: uc, out: newConsole(out), log: log}
}

// Run seeds (if asked), then issues the lookup and the scan concurrently.
// A failed lookup is reported on the console and logged but never returned;
// a failed scan is returned.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	if opts.Seed {
		if err := r.seed(ctx); err != nil {
			return err
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		r.lookup(ctx, opts.Lookup)
		return nil
	})
	g.Go(func() error {
		return r.scan(ctx)
	})
	return g.Wait()
}

// seed inserts SeedUsers when the table is empty and echoes each stored record.
func (r *Runner) seed(ctx context.Context) error {
	n, err := r.uc.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		r.log.Info("table already populated, skipping seed", zap.Int64("users", n))
		return nil
	}

	for _, req := range SeedUsers {
		created, err := r.uc.CreateUser(ctx, req)
		if err != nil {
			return fmt.Errorf("seed %s %s: %w", req.FirstName, req.LastName, err)
		}
		line, err := Render(*created)
		if err != nil {
			return err
		}
		if err := r.out.writeLines(line); err != nil {
			return err
		}
	}

	r.log.Info("seeded users table", zap.Int("users", len(SeedUsers)))
	return nil
}

// lookup reports a failed lookup on the console and in the log, then swallows it.
func (r *Runner) lookup(ctx context.Context, req user.FindUserRequest) {
	err := r.printLookup(ctx, req)
	if err == nil {
		return
	}

	var nf *pkgerrors.NotFoundError
	if errors.As(err, &nf) {
		r.log.Warn("lookup found no user", zap.Error(err))
	} else {
		r.log.Error("lookup failed", zap.Error(err))
	}
	if werr := r.out.writeLines(err.Error()); werr != nil {
		r.log.Error("failed to report lookup error", zap.Error(werr))
	}
}

func (r *Runner) printLookup(ctx context.Context, req user.FindUserRequest) error {
	u, err := r.uc.FindUser(ctx, req)
	if err != nil {
		return err
	}
	line, err := Render(*u)
	if err != nil {
		return err
	}
	return r.out.writeLines(line)
}

func (r *Runner) scan(ctx context.Context) error {
	resp, err := r.uc.ListUsers(ctx)
	if err != nil {
		r.log.Error("scan failed", zap.Error(err))
		return fmt.Errorf("scan: %w", err)
	}

	lines := make([]string, len(resp.Users))
	for i, u := range resp.Users {
		lines[i] = u.FullName()
	}
	return r.out.writeLines(lines...)
}
