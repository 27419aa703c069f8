package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/advisor"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/retrieval"
)

// Version is set at build time.
var Version = "dev"

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	var contextPairs map[string]string

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the advisor a shopper question",
		Example: `  storefront-advisor-cli ask "Welcher grüne Tee ist vorrätig?"
  storefront-advisor-cli ask "gift for a tea lover" --context page=home`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ui := NewUI(outputJSON, noColor)
			stop := ui.Spinner("Asking the advisor...")
			advice, err := rt.Advisor.Advise(cmd.Context(), catalog.UserQuery{
				Message: strings.Join(args, " "),
				Context: contextFromPairs(contextPairs),
			})
			stop()
			if err != nil {
				return describeError(err)
			}

			if outputJSON {
				return printJSON(map[string]any{
					"ok":         true,
					"text":       advice.Text,
					"keywords":   advice.Keywords,
					"tier":       advice.Tier.String(),
					"products":   advice.Products,
					"latency_ms": advice.Latency.Milliseconds(),
				})
			}

			ui.Section("Answer")
			fmt.Println(advice.Text)
			ui.Newline()
			ui.KeyValue("Keywords", strings.Join(advice.Keywords, ", "))
			ui.KeyValue("Tier", advice.Tier.String())
			ui.KeyValue("Products sent", advice.Products)
			ui.KeyValue("Latency", FormatDuration(advice.Latency))
			return nil
		},
	}

	cmd.Flags().StringToStringVar(&contextPairs, "context", nil, "context passed to the model as key=value pairs")

	return cmd
}

// newSearchCmd creates the search subcommand.
func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog with the advisor's escalation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ui := NewUI(outputJSON, noColor)
			if !rt.CatalogConfigured {
				ui.Warning("Storefront domain or token missing, nothing to search")
			}

			stop := ui.Spinner("Searching...")
			result, err := rt.Advisor.Search(cmd.Context(), strings.Join(args, " "))
			stop()
			if err != nil {
				return describeError(err)
			}

			if outputJSON {
				return printJSON(map[string]any{
					"ok":       true,
					"keywords": result.Keywords,
					"tier":     result.Tier.String(),
					"query":    result.Query,
					"count":    len(result.Items),
					"items":    result.Items,
				})
			}

			if len(result.Items) == 0 {
				ui.Info("No products found")
				return nil
			}

			ui.Success("%d products (tier %s: %s)", len(result.Items), result.Tier, result.Query)
			ui.Table([]string{"TITLE", "STOCK", "QTY", "PRICE", "URL"}, productRows(result.Items, cfg.Recommendation.Locale))
			return nil
		},
	}

	return cmd
}

// newKeywordsCmd creates the keywords subcommand.
func newKeywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords <message>",
		Short: "Show the keywords and tier queries a message produces",
		Long: `Keywords runs only the local part of the pipeline: keyword extraction and
the tier query plan. No remote calls are made.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor := retrieval.NewKeywordExtractor(retrieval.KeywordExtractorConfig{
				MinLength:      cfg.Search.MinKeywordLength,
				MaxKeywords:    cfg.Search.MaxKeywords,
				Locale:         cfg.Recommendation.Locale,
				Stopwords:      cfg.Search.Stopwords,
				ExtraStopwords: cfg.Search.ExtraStopwords,
			})
			builder := retrieval.NewQueryBuilder(cfg.Search.FieldCombinator, cfg.Search.BroadQuery)

			keywords, truncated := extractor.Extract(strings.Join(args, " "))
			plan := builder.Plan(keywords)

			if outputJSON {
				return printJSON(map[string]any{
					"keywords":  keywords,
					"truncated": truncated,
					"plan":      plan,
				})
			}

			ui := NewUI(false, noColor)
			ui.Section("Keywords")
			if len(keywords) == 0 {
				ui.Info("No keywords, only the broad query will run")
			} else {
				fmt.Println(strings.Join(keywords, " "))
			}
			if truncated {
				ui.Warning("Keyword list truncated to %d", len(keywords))
			}

			ui.Section("Tier plan")
			rows := make([][]string, 0, len(plan))
			for _, q := range plan {
				rows = append(rows, []string{strconv.Itoa(int(q.Tier)), q.Tier.String(), q.Query})
			}
			ui.Table([]string{"TIER", "NAME", "QUERY"}, rows)
			return nil
		},
	}

	return cmd
}

// newPingCmd creates the ping subcommand.
func newPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the storefront connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			shop, err := rt.Advisor.Ping(ctx)
			if err != nil {
				return describeError(err)
			}

			if outputJSON {
				return printJSON(map[string]any{
					"ok":       true,
					"endpoint": rt.Endpoint,
					"domain":   cfg.Storefront.Domain,
					"shop":     shop,
				})
			}

			ui := NewUI(false, noColor)
			ui.Success("Storefront reachable")
			ui.KeyValue("Endpoint", rt.Endpoint)
			ui.KeyValue("Shop", shop.Name)
			ui.KeyValue("Primary domain", shop.PrimaryDomain)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")

	return cmd
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("storefront-advisor-cli %s\n", Version)
		},
	}
}

// contextFromPairs converts --context flags to the model context object.
func contextFromPairs(pairs map[string]string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]any, len(pairs))
	for k, v := range pairs {
		out[k] = v
	}
	return out
}

// productRows renders search hits for the table view.
func productRows(items []advisor.ListedProduct, locale string) [][]string {
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		qty := "-"
		if p.Quantity != nil {
			qty = strconv.Itoa(*p.Quantity)
		}
		price := "-"
		if p.Price != nil {
			price = *p.Price
		}
		rows = append(rows, []string{
			truncate(p.Title, 40),
			retrieval.AvailabilityLabel(locale, p.Stock),
			qty,
			price,
			p.URL,
		})
	}
	return rows
}

// describeError adds the caller-facing code to a pipeline error.
func describeError(err error) error {
	return fmt.Errorf("%s (HTTP %d): %w", domain.Code(err), domain.HTTPStatus(err), err)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
