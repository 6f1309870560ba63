package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/huddle/pkg/memory"
	"github.com/m-mizutani/huddle/pkg/model"
	"github.com/m-mizutani/huddle/pkg/usecase/coordinator"
	"github.com/urfave/cli/v3"
)

const (
	historyTurns  = 6
	traceEntries  = 15
	inspectLimit  = 10
	excerptLength = 250
)

func chatCommand() *cli.Command {
	var (
		cfg         config
		autoStore   bool
		historyFile string
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "store",
			Usage:       "Store every synthesis to memory",
			Sources:     cli.EnvVars("HUDDLE_CHAT_STORE"),
			Destination: &autoStore,
		},
		&cli.StringFlag{
			Name:        "history-file",
			Usage:       "File the prompt history is kept in",
			Sources:     cli.EnvVars("HUDDLE_HISTORY_FILE"),
			Destination: &historyFile,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive session with the coordinator",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = withLogger(ctx, &cfg, c)

			sess, err := cfg.newSession(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "huddle> ",
				HistoryFile:     historyFile,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          w,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			r := &repl{sess: sess, w: w, autoStore: autoStore}
			fmt.Fprintf(w, "Chat session %s started. Type /help for commands, 'exit' to quit.\n", sess.coord.SessionID())

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if len(line) == 0 {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read line")
				}

				done, err := r.handle(ctx, line)
				if err != nil {
					return err
				}
				if done {
					break
				}
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return cfg.printMetrics(w, sess)
		},
	}
}

// repl dispatches one input line of the chat session
type repl struct {
	sess      *session
	w         io.Writer
	autoStore bool
}

func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "exit", "quit", "/exit", "/quit":
		return true, nil
	case "/help":
		r.help()
	case "/ask":
		r.ask(ctx, arg)
	case "/store":
		r.store(ctx, arg)
	case "/search":
		r.search(arg)
	case "/similar":
		r.similar(arg)
	case "/memory":
		r.listMemory()
	case "/trace":
		r.trace()
	case "/history":
		r.history()
	default:
		if strings.HasPrefix(cmd, "/") {
			fmt.Fprintf(r.w, "Unknown command: %s (try /help)\n", cmd)
			return false, nil
		}
		return false, r.query(ctx, line)
	}
	return false, nil
}

func (r *repl) help() {
	fmt.Fprintln(r.w, `Commands:
  <text>                    handle a query
  /ask <question>           look up memory
  /store <topic> :: <text>  store a finding
  /search <term>            keyword search of memory
  /similar <text>           vector search of memory
  /memory                   list stored records
  /trace                    show recent trace entries
  /history                  show recent conversation
  exit                      quit`)
}

func (r *repl) query(ctx context.Context, query string) error {
	result, err := r.sess.coord.HandleQuery(ctx, query)
	if err != nil {
		return goerr.Wrap(err, "failed to handle query", goerr.V("query", query))
	}

	fmt.Fprintf(r.w, "Plan: %s\n", formatPlan(result.Plan))

	if syn := result.Results.Synthesis; syn != nil {
		fmt.Fprintf(r.w, "\n%s\n(confidence: %.2f)\n", syn.Text, syn.Confidence)
		if r.autoStore && result.Results.MemoryRecord == nil {
			rec := r.sess.coord.StoreFinding(ctx, memory.AddInput{
				Topic:      query,
				Text:       syn.Text,
				Source:     "chat",
				Agent:      "Coordinator",
				Confidence: syn.Confidence,
			})
			fmt.Fprintf(r.w, "Synthesis stored to memory as #%d\n", rec.ID)
		}
	} else {
		fmt.Fprintf(r.w, "\n%s\n", coordinator.ResearchOnlyReply)
	}

	if result.Results.HasResearch() {
		fmt.Fprintln(r.w)
		for i, item := range result.Results.Research {
			fmt.Fprintf(r.w, "  %d. %s (%.2f) %s\n", i+1, item.Title, item.Confidence, item.Source)
		}
	}

	if rec := result.Results.MemoryRecord; rec != nil {
		fmt.Fprintf(r.w, "Stored to memory as #%d\n", rec.ID)
	}
	return nil
}

func (r *repl) ask(ctx context.Context, question string) {
	if question == "" {
		fmt.Fprintln(r.w, "Usage: /ask <question>")
		return
	}

	answer := r.sess.coord.AskMemory(ctx, question)
	fmt.Fprintf(r.w, "%s\n(confidence: %.2f)\n", answer.Answer, answer.Confidence)
}

func (r *repl) store(ctx context.Context, arg string) {
	topic, text, ok := strings.Cut(arg, "::")
	topic, text = strings.TrimSpace(topic), strings.TrimSpace(text)
	if !ok || topic == "" || text == "" {
		fmt.Fprintln(r.w, "Usage: /store <topic> :: <text>")
		return
	}

	rec := r.sess.coord.StoreFinding(ctx, memory.AddInput{
		Topic:      topic,
		Text:       text,
		Source:     "chat",
		Agent:      "User",
		Confidence: 1.0,
	})
	fmt.Fprintf(r.w, "Stored #%d: %s\n", rec.ID, rec.Topic)
}

func (r *repl) search(term string) {
	if term == "" {
		fmt.Fprintln(r.w, "Usage: /search <term>")
		return
	}

	records := r.sess.index.KeywordSearch(term, inspectLimit)
	if len(records) == 0 {
		fmt.Fprintln(r.w, "No keyword matches.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(r.w, "- [%d] %s (by %s) @ %s\n  %s\n", rec.ID, rec.Topic, rec.Agent,
			rec.Timestamp.Format("15:04:05"), excerpt(rec.Text, excerptLength))
	}
}

func (r *repl) similar(text string) {
	if text == "" {
		fmt.Fprintln(r.w, "Usage: /similar <text>")
		return
	}

	hits := r.sess.index.VectorSearch(text, inspectLimit)
	if len(hits) == 0 {
		fmt.Fprintln(r.w, "No vector-similar records.")
		return
	}
	for _, hit := range hits {
		fmt.Fprintf(r.w, "- [%d] %s (score=%.3f) - %s\n  %s\n", hit.Record.ID, hit.Record.Topic, hit.Score,
			hit.Record.Agent, excerpt(hit.Record.Text, excerptLength))
	}
}

func (r *repl) listMemory() {
	records := r.sess.index.All()
	fmt.Fprintf(r.w, "Total records: %d\n", len(records))

	// newest first
	slices.Reverse(records)
	for _, rec := range records[:min(len(records), inspectLimit)] {
		fmt.Fprintf(r.w, "- [%d] %s (%s, %.2f)\n", rec.ID, rec.Topic, rec.Agent, rec.Confidence)
	}
}

func (r *repl) trace() {
	entries := r.sess.coord.Trace()
	if len(entries) == 0 {
		fmt.Fprintln(r.w, "No trace entries yet.")
		return
	}

	recent := entries[max(0, len(entries)-traceEntries):]
	slices.Reverse(recent)
	for _, e := range recent {
		fmt.Fprintf(r.w, "%s | %s | %s\n", e.Timestamp.Format("15:04:05"), e.Actor, e.Action)
	}
}

func (r *repl) history() {
	turns := r.sess.coord.Conversation()
	for _, t := range turns[max(0, len(turns)-historyTurns):] {
		fmt.Fprintf(r.w, "%s @ %s: %s\n", t.Role, t.Timestamp.Format("15:04:05"), t.Text)
	}
}

func formatPlan(plan model.Plan) string {
	steps := make([]string, len(plan))
	for i, s := range plan {
		steps[i] = string(s)
	}
	return strings.Join(steps, " -> ")
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
