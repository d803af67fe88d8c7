package app

import (
	"context"
	"errors"
	"io"

	"github.com/datallboy/gospool/internal/infra/config"
	"github.com/datallboy/gospool/internal/infra/logger"
	"github.com/datallboy/gospool/internal/spool"
	"github.com/datallboy/gospool/internal/store"
)

type NNTPManager interface {
	// This allows commands to pull from upstream without importing the nntp package
	Fetch(ctx context.Context, msgID string) (io.Reader, error)
	TotalCapacity() int
	Close() error
}

// Context hold the core environment and shared resources for gospool.
// It acts as the "Single Source of Truth" for the application state.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Index store.Index
	Spool *spool.Spool

	// nil until a command needs upstream peers
	NNTP NNTPManager
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}

// OpenSpool opens the configured index and attaches the spool directory
// to it. The spool is not loaded.
func (c *Context) OpenSpool(ctx context.Context) error {
	idx, err := store.Open(ctx, c.Config.Store)
	if err != nil {
		return err
	}

	sp, err := spool.New(c.Config.Spool.Dir, idx, c.Config.Spool.Workers, c.Logger.Named("spool"))
	if err != nil {
		idx.Close()
		return err
	}

	c.Index = idx
	c.Spool = sp
	return nil
}

// Close releases whatever resources were opened.
func (c *Context) Close() error {
	var errs []error
	if c.NNTP != nil {
		errs = append(errs, c.NNTP.Close())
	}
	if c.Index != nil {
		errs = append(errs, c.Index.Close())
	}
	return errors.Join(errs...)
}
