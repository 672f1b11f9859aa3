package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rubiojr/ocrsearch/pkg/geometry"
	"github.com/rubiojr/ocrsearch/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the pages of a record and highlight hits",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "record",
				Usage:    "Record to search",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query, '*' matches any word characters",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Match words or lines",
				Value: string(search.MatchWords),
			},
			&cli.StringFlag{
				Name:  "match",
				Usage: "Match the query as a phrase or as a single standalone word",
				Value: string(search.QueryPhrase),
			},
			&cli.IntFlag{
				Name:  "context",
				Usage: "Snippet length on each side of a hit (0 uses the configured length)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of hits (0 uses the configured max_hits)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the result list as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			q := c.String("query")
			if q == "" {
				q = c.Args().First()
			}
			if q == "" {
				return fmt.Errorf("no query given")
			}
			params := search.SearchParams{
				Query:         q,
				Record:        c.String("record"),
				Mode:          search.MatchMode(c.String("mode")),
				Match:         search.QueryMode(c.String("match")),
				ContextLength: c.Int("context"),
				Limit:         c.Int("limit"),
			}
			return searchRecord(ctx, c, params, c.Bool("json"))
		},
	}
}

// searchRecord runs a highlighting search against the page index
func searchRecord(ctx context.Context, c *cli.Command, params search.SearchParams, asJSON bool) error {
	switch params.Mode {
	case search.MatchWords, search.MatchLines:
	default:
		return fmt.Errorf("invalid mode %q", params.Mode)
	}
	switch params.Match {
	case search.QueryPhrase, search.QuerySingleWord, "":
	default:
		return fmt.Errorf("invalid match %q", params.Match)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if params.Limit <= 0 {
		params.Limit = cfg.MaxHits
	}

	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex(idx)

	resolver := geometry.NewResolver(idx, geometry.WithTimeout(cfg.LookupTimeout.Duration))
	svc := search.NewService(resolver,
		search.WithPageSource(idx),
		search.WithContextLength(cfg.ContextLength),
	)

	list, err := svc.SearchRecord(ctx, params)
	if err != nil {
		return fmt.Errorf("searching %s: %w", params.Record, err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	fmt.Print(renderHits(params.Record, params.Query, list))

	if list.NumHits == 0 {
		pages, err := idx.Pages(ctx, params.Record, "")
		if err != nil {
			return fmt.Errorf("loading pages of %s: %w", params.Record, err)
		}
		if hint := renderSimilar(svc.Similar(pages, params.Query, 5)); hint != "" {
			fmt.Println(hint)
		}
	}
	return nil
}
