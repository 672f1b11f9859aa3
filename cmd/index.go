package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rubiojr/ocrsearch/pkg/ocr"
	"github.com/urfave/cli/v3"
)

// IndexCommand creates the index command
func IndexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Index OCR page files of a record",
		ArgsUsage: "<page.json|dir>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "record",
				Usage:    "Record identifier the pages belong to",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() == 0 {
				return fmt.Errorf("no page files given")
			}
			return indexPages(ctx, c, c.String("record"), c.Args().Slice())
		},
	}
}

// indexPages reads the page files and replaces the stored pages of record
func indexPages(ctx context.Context, c *cli.Command, record string, paths []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := pageFiles(paths)
	if err != nil {
		return err
	}

	pages, err := readPages(files)
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeIndex(idx)

	written, err := idx.StorePages(ctx, record, pages)
	if err != nil {
		return fmt.Errorf("storing pages: %w", err)
	}
	fmt.Printf("Indexed %d pages into %s (%d unchanged)\n", written, record, len(pages)-written)
	return nil
}

// pageFiles expands directories to the JSON files they contain, in name order.
func pageFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", p, err)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// readPages reads every file. A page without a number is numbered by its
// position in files.
func readPages(files []string) ([]*ocr.Page, error) {
	pages := make([]*ocr.Page, 0, len(files))
	for i, file := range files {
		page, err := readPageFile(file)
		if err != nil {
			return nil, err
		}
		if page.Number == 0 {
			page.SetNumber(i + 1)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func readPageFile(path string) (*ocr.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	page, err := ocr.ReadPage(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return page, nil
}
