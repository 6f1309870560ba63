package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func queryCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "query",
		Usage:     "Handle a single query and print the result as JSON",
		ArgsUsage: "<query>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return goerr.New("query is required")
			}

			ctx = withLogger(ctx, &cfg, c)

			sess, err := cfg.newSession(ctx)
			if err != nil {
				return err
			}

			result, err := sess.coord.HandleQuery(ctx, query)
			if err != nil {
				return goerr.Wrap(err, "failed to handle query")
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal result")
			}
			fmt.Fprintln(c.Root().Writer, string(data))

			return cfg.printMetrics(c.Root().Writer, sess)
		},
	}
}
