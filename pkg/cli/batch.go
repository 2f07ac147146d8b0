package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const maxLineBytes = 1 << 20

const workersFlagName = "workers"

func newBatchCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "batch",
		Usage: "Classify every line of a file as a separate document",
		UsageText: `cherry batch --file messages.txt               # one document per line
   cat messages.txt | cherry batch --workers 8    # from stdin`,
		HideHelpCommand: true,
		Action:          cmdBatch,
		Flags: []urfave.Flag{
			newFileFlag(),
			newTopFlag(),
			&urfave.IntFlag{
				Name:  workersFlagName,
				Usage: "Number of documents classified concurrently (default: from config)",
			},
		},
	}
}

// BatchItem is the classification of a single input line.
type BatchItem struct {
	Line           int `json:"line" yaml:"line"`
	Classification `yaml:",inline"`
}

// BatchResult is the outcome of a batch run.
type BatchResult struct {
	Documents int            `json:"documents" yaml:"documents"`
	Labels    map[string]int `json:"labels" yaml:"labels"`
	Duration  string         `json:"duration" yaml:"duration"`
	Items     []*BatchItem   `json:"items" yaml:"items"`
}

func cmdBatch(ctx context.Context, cmd *urfave.Command) error {
	start := time.Now()
	cfg := getConfig(cmd)

	workers := cmd.Int(workersFlagName)
	if workers <= 0 {
		workers = cfg.Config.Workers
	}

	lines, err := readLines(cmd)
	if err != nil {
		return err
	}

	c, err := newClassifier(cfg, cfg.Language)
	if err != nil {
		return err
	}

	items, err := classifyAll(ctx, c, lines, topWords(cmd, cfg), workers)
	if err != nil {
		return err
	}

	res := &BatchResult{
		Documents: len(items),
		Labels:    make(map[string]int),
		Items:     items,
	}
	for _, it := range items {
		res.Labels[it.Label]++
	}
	res.Duration = time.Since(start).String()

	slog.Debug("batch done", "documents", res.Documents, "workers", workers, "duration", res.Duration)

	if err := encode(cmd.Root().Writer, cfg.Format, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

type line struct {
	num  int
	text string
}

// classifyAll classifies docs concurrently; the result order follows the input.
func classifyAll(ctx context.Context, c *classifier, docs []line, top, workers int) ([]*BatchItem, error) {
	items := make([]*BatchItem, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, d := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.classify(d.text, top)
			if err != nil {
				return fmt.Errorf("line %d: %w", d.num, err)
			}
			items[i] = &BatchItem{Line: d.num, Classification: *res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func readLines(cmd *urfave.Command) ([]line, error) {
	r, closer, err := openInput(cmd)
	if err != nil {
		return nil, err
	}
	defer closer()

	list := make([]line, 0)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	for n := 1; s.Scan(); n++ {
		t := strings.TrimSpace(s.Text())
		if t == "" {
			continue
		}
		list = append(list, line{num: n, text: t})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return list, nil
}
