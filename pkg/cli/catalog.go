package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func catalogCommand() *cli.Command {
	var (
		cfg    config
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the catalog as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "catalog",
		Usage: "List the documents of the catalog",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			kb, err := cfg.newCatalog()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				data, err := json.MarshalIndent(kb, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to marshal catalog")
				}
				fmt.Fprintln(w, string(data))
				return nil
			}

			for i, doc := range kb.Documents {
				fmt.Fprintf(w, "%d. %s [%s] (%s)\n", i+1, doc.Title, strings.Join(doc.Tags, ", "), doc.Source)
			}
			fmt.Fprintf(w, "\nTotal: %d documents\n", len(kb.Documents))
			return nil
		},
	}
}
