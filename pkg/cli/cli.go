package cli

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/huddle/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp().Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "huddle",
		Usage: "Multi-agent research coordinator over a document catalog",
		Commands: []*cli.Command{
			runCommand(),
			queryCommand(),
			chatCommand(),
			catalogCommand(),
		},
	}
}

// withLogger attaches the configured logger to ctx and makes it the default
func withLogger(ctx context.Context, cfg *config, c *cli.Command) context.Context {
	logger := cfg.newLogger(errWriter(c))
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

func errWriter(c *cli.Command) io.Writer {
	if w := c.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
