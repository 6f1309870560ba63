package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/scenario"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	var (
		cfg       config
		outputDir string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory the scenario results are written to",
			Value:       "outputs",
			Sources:     cli.EnvVars("HUDDLE_OUTPUT"),
			Destination: &outputDir,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "run",
		Usage: "Run the demo scenarios and write their results",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = withLogger(ctx, &cfg, c)

			sess, err := cfg.newSession(ctx)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(errWriter(c)))
			runner := scenario.New(sess.coord,
				scenario.WithOutputDir(outputDir),
				scenario.WithProgress(func(file string) {
					sp.Suffix = " running " + file
					if !sp.Active() {
						sp.Start()
					}
				}),
			)

			outcomes, err := runner.Run(ctx)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to run scenarios", goerr.V("output", outputDir))
			}

			w := c.Root().Writer
			for _, o := range outcomes {
				fmt.Fprintf(w, "[WROTE] %s\n", o.Path)
			}
			fmt.Fprintf(w, "\n--- SCENARIOS RUN COMPLETE ---\n")

			return cfg.printMetrics(w, sess)
		},
	}
}
