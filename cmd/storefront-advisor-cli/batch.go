package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
)

// BatchResult is one line of batch output.
type BatchResult struct {
	Question  string   `json:"question"`
	OK        bool     `json:"ok"`
	Text      string   `json:"text,omitempty"`
	Error     string   `json:"error,omitempty"`
	Details   string   `json:"details,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Tier      string   `json:"tier,omitempty"`
	Products  int      `json:"products"`
	LatencyMs int64    `json:"latency_ms"`
}

// advisorFunc answers one question.
type advisorFunc func(ctx context.Context, q catalog.UserQuery) (BatchResult, error)

// newBatchCmd creates the batch subcommand.
func newBatchCmd() *cobra.Command {
	var (
		file        string
		out         string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Ask every question in a file and write JSON lines",
		Long: `Batch reads one question per line (blank lines and lines starting with #
are skipped), asks the advisor each of them and writes one JSON object per
question to --out or stdout. Failures are recorded and do not stop the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open questions: %w", err)
			}
			defer in.Close()

			questions, err := readQuestions(in)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no questions in %s", file)
			}

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ask := func(ctx context.Context, q catalog.UserQuery) (BatchResult, error) {
				advice, err := rt.Advisor.Advise(ctx, q)
				if err != nil {
					return BatchResult{}, err
				}
				return BatchResult{
					Text:      advice.Text,
					Keywords:  advice.Keywords,
					Tier:      advice.Tier.String(),
					Products:  advice.Products,
					LatencyMs: advice.Latency.Milliseconds(),
				}, nil
			}

			ui := NewUI(outputJSON, noColor)
			bar := ui.ProgressBar(len(questions), "Asking")
			results := runBatch(cmd.Context(), questions, concurrency, ask, func() { _ = bar.Add(1) })
			_ = bar.Finish()

			failed, err := writeResults(w, results)
			if err != nil {
				return err
			}

			if out != "" {
				ui.Success("%d questions answered, %d failed, results in %s", len(results)-failed, failed, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "questions file, one per line")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file for JSON lines (default: stdout)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "questions asked in parallel")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// readQuestions returns the non-empty, non-comment lines of r.
func readQuestions(r io.Reader) ([]string, error) {
	var questions []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}

// runBatch asks every question with at most concurrency in flight.
// Results keep the input order.
func runBatch(ctx context.Context, questions []string, concurrency int, ask advisorFunc, done func()) []BatchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]BatchResult, len(questions))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, q := range questions {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, q string) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := ask(ctx, catalog.UserQuery{Message: q})
			if err != nil {
				res = BatchResult{Error: domain.Code(err), Details: domain.Details(err)}
			} else {
				res.OK = true
			}
			res.Question = q
			results[i] = res
			if done != nil {
				done()
			}
		}(i, q)
	}

	wg.Wait()
	return results
}

// writeResults writes one JSON object per line and returns the number of failures.
func writeResults(w io.Writer, results []BatchResult) (int, error) {
	enc := json.NewEncoder(w)
	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
		if err := enc.Encode(r); err != nil {
			return failed, fmt.Errorf("write result: %w", err)
		}
	}
	return failed, nil
}
