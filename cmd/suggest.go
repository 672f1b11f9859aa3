package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/rubiojr/ocrsearch/pkg/search"
	"github.com/urfave/cli/v3"
)

// SuggestCommand creates the suggest command
func SuggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Complete a word prefix from the pages of a record",
		ArgsUsage: "<prefix>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "record",
				Usage:    "Record to take words from",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of suggestions",
				Value: 10,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			prefix := c.Args().First()
			if prefix == "" {
				return fmt.Errorf("no prefix given")
			}
			return suggestWords(ctx, c, c.String("record"), prefix, c.Int("limit"))
		},
	}
}

// suggestWords prints the most frequent completions of prefix
func suggestWords(ctx context.Context, c *cli.Command, record, prefix string, limit int) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex(idx)

	pages, err := idx.Pages(ctx, record, prefix)
	if err != nil {
		return fmt.Errorf("loading pages of %s: %w", record, err)
	}

	svc := search.NewService(nil)
	terms := svc.Suggest(pages, prefix).Terms()
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].Count > terms[j].Count })
	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}

	if len(terms) == 0 {
		fmt.Println(noDataStyle.Render("No suggestions."))
		return nil
	}
	for _, t := range terms {
		fmt.Printf("%s %s\n", t.Match, metaStyle.Render(fmt.Sprintf("(%d)", t.Count)))
	}
	return nil
}
