package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var costSymbols = map[Resource]string{
	ResourceCard:    "C",
	ResourceEgg:     "E",
	ResourceYoung:   "Y",
	ResourceConsume: "X",
}

var symbolPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ParseCost parses a compact cost string (e.g., "{C}{C}{E}", "{2C}{X}").
// Supports:
// - Card discards: {C}
// - Eggs: {E}
// - Young: {Y}
// - Consumed fish: {X}
// - A numeric prefix multiplies the symbol: {3C}
//
// Entries of the same kind are merged and keep the order of first appearance.
func ParseCost(costStr string) (Cost, error) {
	costStr = strings.TrimSpace(costStr)
	if costStr == "" || costStr == "{}" {
		return Cost{}, nil
	}

	matches := symbolPattern.FindAllStringSubmatch(costStr, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no cost symbols in %q", costStr)
	}

	cost := Cost{}
	index := make(map[Resource]int)
	for _, match := range matches {
		symbol := strings.ToUpper(strings.TrimSpace(match[1]))
		if symbol == "" {
			return nil, fmt.Errorf("empty cost symbol in %q", costStr)
		}

		amount := 1
		digits := strings.TrimRightFunc(symbol, func(r rune) bool { return r < '0' || r > '9' })
		if digits != "" {
			n, err := strconv.Atoi(digits)
			if err != nil {
				return nil, fmt.Errorf("invalid cost multiplier in {%s}: %w", symbol, err)
			}
			amount = n
			symbol = symbol[len(digits):]
		}

		kind, ok := parseCostSymbol(symbol)
		if !ok {
			return nil, fmt.Errorf("unknown cost symbol: {%s}", match[1])
		}
		if amount == 0 {
			continue
		}
		if i, seen := index[kind]; seen {
			cost[i].Amount += amount
			continue
		}
		index[kind] = len(cost)
		cost = append(cost, CostEntry{Kind: kind, Amount: amount})
	}

	return cost, nil
}

func parseCostSymbol(symbol string) (Resource, bool) {
	switch symbol {
	case "C":
		return ResourceCard, true
	case "E":
		return ResourceEgg, true
	case "Y":
		return ResourceYoung, true
	case "X":
		return ResourceConsume, true
	}
	return "", false
}

// UnmarshalYAML accepts either a compact cost string or a list of entries.
func (c *Cost) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseCost(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*c = parsed
		return nil
	case yaml.SequenceNode:
		var entries []CostEntry
		if err := value.Decode(&entries); err != nil {
			return err
		}
		*c = entries
		return nil
	default:
		return fmt.Errorf("line %d: cost must be a string or a list", value.Line)
	}
}
