package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"
)

// ListCommand creates the list command
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List indexed records",
		Action: func(ctx context.Context, c *cli.Command) error {
			return listRecords(ctx, c)
		},
	}
}

// listRecords prints every record with its page count
func listRecords(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex(idx)

	records, err := idx.Records(ctx)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println(noDataStyle.Render("No records indexed."))
		return nil
	}

	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s %s\n", recordStyle.Render(name), metaStyle.Render(fmt.Sprintf("(%s pages)", formatNumber(records[name]))))
	}
	return nil
}
