// Command cardimport converts a spreadsheet export of fish cards into a
// catalog YAML document, or validates an existing catalog.
//
//	cardimport -csv data/fish.csv -out cards.yaml
//	cardimport -check internal/game/catalog/cards.yaml
//
// CSV columns: id,name,points,length,zones,dive_sites,tags,cost. List
// columns are separated by "|". Abilities are not part of the export and
// must be added to the YAML by hand.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/finspan/finspan-server-go/internal/game/catalog"
	"gopkg.in/yaml.v3"
)

const csvColumns = 8

type document struct {
	Cards        []catalog.Card        `yaml:"cards"`
	Achievements []catalog.Achievement `yaml:"achievements,omitempty"`
}

func main() {
	csvPath := flag.String("csv", "", "CSV export to convert")
	outPath := flag.String("out", "", "output YAML file (default stdout)")
	checkPath := flag.String("check", "", "catalog YAML file to validate")
	flag.Parse()

	switch {
	case *checkPath != "":
		cat, err := catalog.LoadFile(*checkPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid catalog: %v\n", err)
			os.Exit(1)
		}
		printSummary(os.Stdout, cat)
	case *csvPath != "":
		if err := convert(*csvPath, *outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func convert(csvPath, outPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	cards, err := readCards(file)
	if err != nil {
		return err
	}
	// Validates the whole set, including duplicate ids.
	if _, err := catalog.New(cards, nil); err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(document{Cards: cards}); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Imported %d cards\n", len(cards))
	return nil
}

// readCards parses the CSV export. The first row is a header.
func readCards(r io.Reader) ([]catalog.Card, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = csvColumns
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or has no data rows")
	}

	cards := make([]catalog.Card, 0, len(records)-1)
	for i, record := range records[1:] {
		card, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func parseRecord(record []string) (catalog.Card, error) {
	card := catalog.Card{
		ID:   strings.TrimSpace(record[0]),
		Name: strings.TrimSpace(record[1]),
		Tags: splitList(record[6]),
	}

	var err error
	if card.Points, err = strconv.Atoi(record[2]); err != nil {
		return card, fmt.Errorf("points: %w", err)
	}
	if card.Length, err = strconv.Atoi(record[3]); err != nil {
		return card, fmt.Errorf("length: %w", err)
	}
	for _, z := range splitList(record[4]) {
		card.Zones = append(card.Zones, catalog.Zone(z))
	}
	for _, s := range splitList(record[5]) {
		card.DiveSites = append(card.DiveSites, catalog.DiveSite(s))
	}
	if card.Cost, err = catalog.ParseCost(record[7]); err != nil {
		return card, err
	}
	return card, nil
}

func splitList(field string) []string {
	var out []string
	for _, part := range strings.Split(field, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSummary(w io.Writer, cat *catalog.Catalog) {
	zones := make(map[catalog.Zone]int)
	tags := make(map[string]int)
	abilities := 0
	for _, card := range cat.All() {
		for _, z := range card.Zones {
			zones[z]++
		}
		for _, t := range card.Tags {
			tags[t]++
		}
		abilities += len(card.Abilities)
	}

	fmt.Fprintf(w, "cards:        %d\n", cat.Len())
	fmt.Fprintf(w, "abilities:    %d\n", abilities)
	fmt.Fprintf(w, "achievements: %d\n", len(cat.Achievements()))
	for _, z := range catalog.Zones {
		fmt.Fprintf(w, "zone %-9s %d\n", z, zones[z])
	}

	names := make([]string, 0, len(tags))
	for t := range tags {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		fmt.Fprintf(w, "tag %-10s %d\n", t, tags[t])
	}
}
