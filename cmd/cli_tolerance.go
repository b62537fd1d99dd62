package cmd

import (
	"fmt"
	"slices"
	"strings"
)

type flagSpec struct {
	name          string
	requiresValue bool
}

var knownFlags = map[string]flagSpec{
	"json":         {name: "json", requiresValue: false},
	"category":     {name: "category", requiresValue: true},
	"query":        {name: "query", requiresValue: true},
	"sort":         {name: "sort", requiresValue: true},
	"on-sale":      {name: "on-sale", requiresValue: false},
	"min-price":    {name: "min-price", requiresValue: true},
	"max-price":    {name: "max-price", requiresValue: true},
	"page":         {name: "page", requiresValue: true},
	"page-size":    {name: "page-size", requiresValue: true},
	"limit":        {name: "limit", requiresValue: true},
	"shop":         {name: "shop", requiresValue: true},
	"user":         {name: "user", requiresValue: true},
	"amount":       {name: "amount", requiresValue: true},
	"product-ids":  {name: "product-ids", requiresValue: true},
	"category-ids": {name: "category-ids", requiresValue: true},
	"api-url":      {name: "api-url", requiresValue: true},
	"log-level":    {name: "log-level", requiresValue: true},
	"token":        {name: "token", requiresValue: true},
	"count":        {name: "count", requiresValue: true},
	"help":         {name: "help", requiresValue: false},
}

var knownCommands = []string{
	"products",
	"categories",
	"vouchers",
	"apply",
	"select",
	"pick",
	"browse",
	"shops",
	"auth",
	"completion",
	"help",
}

var flagAliases = map[string]string{
	"search":       "query",
	"cat":          "category",
	"sale":         "on-sale",
	"onsale":       "on-sale",
	"discounted":   "on-sale",
	"min":          "min-price",
	"max":          "max-price",
	"per-page":     "page-size",
	"size":         "page-size",
	"uid":          "user",
	"userid":       "user",
	"user-id":      "user",
	"subtotal":     "amount",
	"total":        "amount",
	"order-amount": "amount",
	"shopid":       "shop",
	"shop-id":      "shop",
	"product-id":   "product-ids",
	"category-id":  "category-ids",
	"url":          "api-url",
	"base-url":     "api-url",
}

func normalizeCLIArgs(args []string) ([]string, []string) {
	out := make([]string, 0, len(args))
	notes := make([]string, 0, 2)
	commandChosen := false
	activeCommand := ""
	nestedCommandAllowed := false
	nestedCommandChosen := false
	allowBareFlagRewrite := true
	expectingValue := false
	afterDoubleDash := false

	for i, tok := range args {
		if afterDoubleDash {
			out = append(out, tok)
			continue
		}

		if expectingValue {
			out = append(out, tok)
			expectingValue = false
			continue
		}

		if tok == "--" {
			out = append(out, tok)
			afterDoubleDash = true
			continue
		}

		canBeCommand := !commandChosen || (nestedCommandAllowed && !nestedCommandChosen)
		normalized, note, isFlag, needsValue, isCommand := normalizeToken(tok, canBeCommand, allowBareFlagRewrite)
		if note != "" {
			notes = append(notes, note)
		}
		out = append(out, normalized)

		if isCommand {
			if !commandChosen {
				commandChosen = true
				activeCommand = normalized
				allowBareFlagRewrite = bareFlagRewriteAllowed(activeCommand)
				nestedCommandAllowed = allowsNestedCommandArg(activeCommand)
				continue
			}
			if nestedCommandAllowed && !nestedCommandChosen {
				nestedCommandChosen = true
			}
		}
		if isFlag && needsValue && !strings.Contains(normalized, "=") && i < len(args)-1 {
			expectingValue = true
		}
	}

	return out, notes
}

func normalizeToken(tok string, canBeCommand bool, allowBareFlagRewrite bool) (normalized, note string, isFlag, needsValue, isCommand bool) {
	if tok == "--" {
		return tok, "", false, false, false
	}

	if strings.HasPrefix(tok, "--") {
		flagName, rest := splitFlag(strings.TrimPrefix(tok, "--"))
		canonical, ok := resolveFlagName(flagName)
		if ok {
			newTok := "--" + canonical + rest
			if newTok != tok {
				return newTok, rewriteNote(tok, newTok), true, knownFlags[canonical].requiresValue, false
			}
			return newTok, "", true, knownFlags[canonical].requiresValue, false
		}
		return tok, "", true, false, false
	}

	if len(tok) == 2 && tok[0] == '-' {
		needsVal, ok := knownShorthands[tok[1]]
		return tok, "", ok, ok && needsVal, false
	}

	// Negative numbers are values, not shorthand clusters.
	if strings.HasPrefix(tok, "-") && len(tok) > 2 && !isNumeric(tok[1:]) {
		flagName, rest := splitFlag(strings.TrimPrefix(tok, "-"))
		canonical, ok := resolveFlagName(flagName)
		if ok {
			newTok := "--" + canonical + rest
			return newTok, rewriteNote(tok, newTok), true, knownFlags[canonical].requiresValue, false
		}
		return tok, "", true, false, false
	}

	if strings.Contains(tok, "=") && !strings.HasPrefix(tok, "-") {
		flagName, rest := splitFlag(tok)
		canonical, ok := resolveFlagName(flagName)
		if ok {
			newTok := "--" + canonical + rest
			return newTok, rewriteNote(tok, newTok), true, knownFlags[canonical].requiresValue, false
		}
	}

	if canBeCommand && !strings.HasPrefix(tok, "-") {
		if corrected, ok := resolveCommand(tok); ok {
			if corrected != tok {
				return corrected, fmt.Sprintf("interpreted command `%s` as `%s`; use `%s` next time.", tok, corrected, corrected), false, false, true
			}
			return tok, "", false, false, true
		}
	}

	if allowBareFlagRewrite && !strings.HasPrefix(tok, "-") {
		canonical, ok := resolveFlagName(tok)
		if ok {
			newTok := "--" + canonical
			return newTok, rewriteNote(tok, newTok), true, knownFlags[canonical].requiresValue, false
		}
	}

	return tok, "", false, false, false
}

func rewriteNote(from, to string) string {
	return fmt.Sprintf("interpreted `%s` as `%s`; use `%s` next time.", from, to, to)
}

func bareFlagRewriteAllowed(command string) bool {
	// Flag-only commands, where a bare `user` can only mean `--user`.
	// Commands taking positional codes or subcommands are left alone.
	switch command {
	case "products", "categories", "vouchers", "shops", "browse", "pick":
		return true
	default:
		return false
	}
}

func allowsNestedCommandArg(command string) bool {
	// These commands accept another command token as a positional argument.
	switch command {
	case "help", "completion":
		return true
	default:
		return false
	}
}

func resolveFlagName(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, "_", "-")

	if canonical, ok := flagAliases[name]; ok {
		return canonical, true
	}
	if _, ok := knownFlags[name]; ok {
		return name, true
	}

	if suggestion, ok := closestMatch(name, mapKeys(knownFlags), 2); ok {
		return suggestion, true
	}
	return "", false
}

func resolveCommand(raw string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if slices.Contains(knownCommands, name) {
		return name, true
	}
	if suggestion, ok := closestMatch(name, knownCommands, 2); ok {
		return suggestion, true
	}
	return "", false
}

func explainCLIError(err error) string {
	return formatCLIErrorText(classifyCLIError(err))
}

func splitFlag(value string) (string, string) {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) == 2 {
		return parts[0], "=" + parts[1]
	}
	return value, ""
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func extractUnknownValue(msg, marker string) string {
	idx := strings.Index(msg, marker)
	if idx == -1 {
		return ""
	}

	remaining := strings.TrimSpace(msg[idx+len(marker):])
	remaining = strings.TrimPrefix(remaining, ":")
	remaining = strings.TrimSpace(remaining)

	for _, quote := range []string{"\"", "`"} {
		if strings.HasPrefix(remaining, quote) {
			rest := strings.TrimPrefix(remaining, quote)
			if end := strings.Index(rest, quote); end >= 0 {
				return rest[:end]
			}
		}
	}

	if fields := strings.Fields(remaining); len(fields) > 0 {
		return strings.Trim(fields[0], "\"`")
	}
	return ""
}

func mapKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}

// closestMatch returns the nearest candidate within maxDistance. Ties go to
// the lexically smaller candidate so map iteration order never leaks out.
func closestMatch(target string, candidates []string, maxDistance int) (string, bool) {
	best := ""
	bestDist := maxDistance + 1

	for _, candidate := range candidates {
		d := levenshtein(target, candidate)
		if d < bestDist || (d == bestDist && candidate < best) {
			bestDist = d
			best = candidate
		}
	}

	if bestDist <= maxDistance {
		return best, true
	}
	return "", false
}

// levenshtein counts edits in runes, so "đanh-muc" is one edit from "danh-muc".
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
