// Package main is catalogctl, a small inspection tool for the generated
// catalog. The catalog is deterministic, so the tool needs no server or
// database: it regenerates the same 400 items the server ships and prints
// whatever slice of them was asked for.
//
// Usage:
//
//	catalogctl seasons
//	catalogctl list [-season N] [-type video|interactive|game] [-age RATING] [-q TERM] [-json]
//	catalogctl show [-json] <item-id>
//	catalogctl verify
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "catalogctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	cat := catalog.Generate()

	switch args[0] {
	case "seasons":
		return runSeasons(cat)
	case "list":
		return runList(cat, args[1:])
	case "show":
		return runShow(cat, args[1:])
	case "verify":
		return runVerify(cat)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  catalogctl seasons")
	fmt.Fprintln(os.Stderr, "  catalogctl list [-season N] [-type TYPE] [-age RATING] [-q TERM] [-json]")
	fmt.Fprintln(os.Stderr, "  catalogctl show [-json] <item-id>")
	fmt.Fprintln(os.Stderr, "  catalogctl verify")
}

// runVerify regenerates the catalog and checks that both runs hash to the
// same value, then prints the checksum. Clients key their season shelves
// by item ID, so generation must stay stable across deploys.
func runVerify(cat *catalog.Catalog) error {
	first, err := catalogDigest(cat)
	if err != nil {
		return err
	}
	second, err := catalogDigest(catalog.Generate())
	if err != nil {
		return err
	}
	if first != second {
		return fmt.Errorf("catalog is not deterministic: %s != %s", first, second)
	}
	fmt.Printf("ok  %d items  sha256:%s\n", cat.Len(), first)
	return nil
}

func catalogDigest(cat *catalog.Catalog) (string, error) {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(cat.Items()); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// runSeasons prints all season shelf labels in order.
func runSeasons(cat *catalog.Catalog) error {
	for s, label := range catalog.Categories() {
		items, err := cat.Season(s + 1)
		if err != nil {
			return err
		}
		fmt.Printf("%2d  %-60s %d items\n", s+1, label, len(items))
	}
	return nil
}

// runList prints catalog items matching the given filters.
func runList(cat *catalog.Catalog, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	season := fs.Int("season", 0, "limit to one season (1-20)")
	typeStr := fs.String("type", "", "content type: video, interactive, game")
	age := fs.String("age", "", "age rating: 7+, 12+, Adulto")
	query := fs.String("q", "", "free-text search over title, description, category")
	asJSON := fs.Bool("json", false, "emit JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := catalog.Filter{
		Query:     *query,
		AgeRating: *age,
	}
	if *typeStr != "" {
		ct, err := shared.ParseContentType(*typeStr)
		if err != nil {
			return fmt.Errorf("invalid -type: %w", err)
		}
		filter.Type = ct
	}

	var items []catalog.Item
	if *season > 0 {
		seasonItems, err := cat.Season(*season)
		if err != nil {
			return fmt.Errorf("invalid -season: %w", err)
		}
		for _, item := range seasonItems {
			if filter.Matches(item) {
				items = append(items, item)
			}
		}
	} else {
		items = cat.Find(filter)
	}

	if *asJSON {
		return printJSON(items)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tAGE\tDURATION\tTITLE")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Type, item.AgeRating, item.Duration, item.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d items\n", len(items))
	return nil
}

// runShow prints one item in full.
func runShow(cat *catalog.Catalog, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "emit JSON instead of text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("show takes exactly one item ID, e.g. 3-14")
	}

	id, err := shared.ParseItemID(fs.Arg(0))
	if err != nil {
		return err
	}
	item, err := cat.Get(id)
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(item)
	}

	fmt.Printf("ID:          %s (season %d, module %d)\n", item.ID, id.Season(), id.Module())
	fmt.Printf("Title:       %s\n", item.Title)
	fmt.Printf("Category:    %s\n", item.Category)
	fmt.Printf("Type:        %s\n", item.Type)
	fmt.Printf("Age rating:  %s\n", item.AgeRating)
	fmt.Printf("Duration:    %s\n", item.Duration)
	fmt.Printf("Thumbnail:   %s\n", item.Thumbnail)
	fmt.Printf("Video URL:   %s\n", item.VideoURL)
	fmt.Printf("Description: %s\n", item.Description)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
