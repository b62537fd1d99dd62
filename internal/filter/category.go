package filter

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks covers the Combining Diacritical Marks block (U+0300–U+036F).
var combiningMarks = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

const (
	minKeywordRunes   = 2
	minSubstringRunes = 3
)

// categoryRule describes how free-text labels map onto one canonical category.
type categoryRule struct {
	keywords []string
	aliases  []string
}

// categoryRules is keyed by canonical category name.
var categoryRules = map[string]categoryRule{
	"Rau củ": {
		keywords: []string{"rau", "rau củ", "rau xanh", "củ quả", "rau ăn lá", "vegetable"},
		aliases:  []string{"Rau củ quả", "Rau xanh", "Rau Củ Tươi", "Rau sạch", "Vegetables"},
	},
	"Trái cây": {
		keywords: []string{"trái cây", "hoa quả", "quả tươi", "trái", "fruit"},
		aliases:  []string{"Trái cây tươi", "Hoa quả", "Trái cây nhập khẩu", "Fruits"},
	},
	"Thịt": {
		keywords: []string{"thịt", "bò", "gà", "thịt heo", "meat"},
		aliases:  []string{"Thịt tươi", "Thịt các loại", "Meat"},
	},
	"Hải sản": {
		keywords: []string{"hải sản", "tôm", "mực", "cá tươi", "cá biển", "ghẹ", "seafood"},
		aliases:  []string{"Thủy hải sản", "Hải sản tươi sống", "Seafood"},
	},
	"Gạo & Ngũ cốc": {
		keywords: []string{"gạo", "ngũ cốc", "nếp", "lúa", "rice"},
		aliases:  []string{"Gạo", "Ngũ cốc", "Gạo - Ngũ cốc"},
	},
	"Đặc sản": {
		keywords: []string{"đặc sản", "đồ khô", "mứt", "khô bò", "khô gà"},
		aliases:  []string{"Đặc sản vùng miền", "Đồ khô"},
	},
	"Dụng cụ nông nghiệp": {
		keywords: []string{"dụng cụ", "máy", "thiết bị", "công cụ", "nông cụ", "tools"},
		aliases:  []string{"Dụng cụ", "Máy nông nghiệp", "Nông cụ"},
	},
	"Phân bón & Hạt giống": {
		keywords: []string{"phân bón", "hạt giống", "cây giống", "giống cây", "fertilizer"},
		aliases:  []string{"Phân bón", "Hạt giống", "Vật tư nông nghiệp"},
	},
}

// categoryExclusions lists terms that disqualify a label from a category
// unless the label also names the category itself. Only categories with
// known collisions are listed.
var categoryExclusions = map[string][]string{
	"Rau củ":        {"dụng cụ", "máy", "thiết bị", "phân bón", "hạt giống", "thịt"},
	"Trái cây":      {"rau", "dụng cụ", "máy", "hạt giống", "cây giống"},
	"Thịt":          {"dụng cụ", "máy", "chay"},
	"Hải sản":       {"dụng cụ", "máy"},
	"Gạo & Ngũ cốc": {"máy", "dụng cụ"},
}

type keyword struct {
	norm  string
	runes int
	word  *regexp.Regexp
}

func newKeyword(raw string) (keyword, bool) {
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) < minKeywordRunes {
		return keyword{}, false
	}
	n := Normalize(raw)
	if n == "" {
		return keyword{}, false
	}
	return keyword{
		norm:  n,
		runes: utf8.RuneCountInString(n),
		word:  regexp.MustCompile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(n) + `(?:$|[^\p{L}\p{N}])`),
	}, true
}

func (k keyword) matches(normLabel string) bool {
	if k.word.MatchString(normLabel) {
		return true
	}
	return k.runes >= minSubstringRunes && strings.Contains(normLabel, k.norm)
}

// keywordCache holds compiled caller-supplied keywords; a nil entry marks a
// keyword too short to use.
var keywordCache sync.Map

func compileKeywords(raw []string) []keyword {
	out := make([]keyword, 0, len(raw))
	for _, r := range raw {
		if cached, ok := keywordCache.Load(r); ok {
			if k, usable := cached.(*keyword); usable && k != nil {
				out = append(out, *k)
			}
			continue
		}
		k, ok := newKeyword(r)
		if !ok {
			keywordCache.Store(r, (*keyword)(nil))
			continue
		}
		keywordCache.Store(r, &k)
		out = append(out, k)
	}
	return out
}

type categoryMatcher struct {
	name       string
	normName   string
	aliases    []string
	keywords   []keyword
	exclusions []string
}

// compiledMatchers is built once at init and never mutated afterwards.
var compiledMatchers = compileMatchers()

func compileMatchers() map[string]*categoryMatcher {
	out := make(map[string]*categoryMatcher, len(categoryRules))
	for name, rule := range categoryRules {
		m := &categoryMatcher{
			name:     name,
			normName: Normalize(name),
			aliases:  append([]string{name}, rule.aliases...),
			keywords: compileKeywords(rule.keywords),
		}
		for _, term := range categoryExclusions[name] {
			n := Normalize(term)
			if utf8.RuneCountInString(n) >= minSubstringRunes {
				m.exclusions = append(m.exclusions, n)
			}
		}
		out[m.normName] = m
	}
	return out
}

var stripMarks = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(combiningMarks)))
	},
}

// Normalize lowercases text, strips Vietnamese (and other Latin) diacritics
// via NFD decomposition, and trims surrounding whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	if isASCII(lower) {
		return strings.TrimSpace(lower)
	}
	t := stripMarks.Get().(transform.Transformer)
	defer stripMarks.Put(t)
	out, _, err := transform.String(t, lower)
	if err != nil {
		return strings.TrimSpace(lower)
	}
	return strings.TrimSpace(out)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Matches reports whether productCategory belongs to targetCategoryName
// using normalized equality, containment, and the given keywords.
func Matches(productCategory, targetCategoryName string, extraKeywords []string) bool {
	return matchNormalized(Normalize(productCategory), Normalize(targetCategoryName), compileKeywords(extraKeywords))
}

func matchNormalized(normLabel, normTarget string, keywords []keyword) bool {
	if normLabel == "" {
		return false
	}
	// A label inside the target ("rau" in "rau cu") is not a match; reverse
	// containment only counts on equality, which the first check covers.
	if normTarget != "" {
		if normLabel == normTarget {
			return true
		}
		if utf8.RuneCountInString(normTarget) >= minSubstringRunes && strings.Contains(normLabel, normTarget) {
			return true
		}
	}
	for _, k := range keywords {
		if k.matches(normLabel) {
			return true
		}
	}
	return false
}

// IsProductInCategory reports whether a product's free-text category label
// belongs to the canonical category targetCategoryName.
func IsProductInCategory(productCategory, targetCategoryName string) bool {
	label := strings.TrimSpace(productCategory)
	if label == "" {
		return false
	}

	m, ok := compiledMatchers[Normalize(targetCategoryName)]
	if !ok {
		return Matches(label, targetCategoryName, nil)
	}

	normLabel := Normalize(label)
	if m.excludes(label, normLabel, targetCategoryName) {
		return false
	}
	for _, alias := range m.aliases {
		if strings.EqualFold(label, alias) {
			return true
		}
	}
	return matchNormalized(normLabel, m.normName, m.keywords)
}

// categoryMatcherFor returns IsProductInCategory bound to one target, with
// results remembered per label. The returned func is not safe for concurrent
// use.
func categoryMatcherFor(target string) func(label string) bool {
	seen := make(map[string]bool)
	return func(label string) bool {
		if v, ok := seen[label]; ok {
			return v
		}
		v := IsProductInCategory(label, target)
		seen[label] = v
		return v
	}
}

func (m *categoryMatcher) excludes(label, normLabel, target string) bool {
	for _, term := range m.exclusions {
		if !strings.Contains(normLabel, term) {
			continue
		}
		namesTarget := strings.Contains(strings.ToLower(label), strings.ToLower(strings.TrimSpace(target))) ||
			strings.Contains(normLabel, m.normName)
		if !namesTarget {
			return true
		}
	}
	return false
}

// CanonicalCategories returns the configured canonical category names in
// a stable order.
func CanonicalCategories() []string {
	names := make([]string, 0, len(categoryRules))
	for name := range categoryRules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanonicalCategory resolves a loosely typed category name to its
// canonical spelling. Unknown names are returned trimmed.
func CanonicalCategory(name string) string {
	if m, ok := compiledMatchers[Normalize(name)]; ok {
		return m.name
	}
	for _, m := range compiledMatchers {
		for _, alias := range m.aliases {
			if strings.EqualFold(strings.TrimSpace(name), alias) || Normalize(alias) == Normalize(name) {
				return m.name
			}
		}
	}
	return strings.TrimSpace(name)
}
