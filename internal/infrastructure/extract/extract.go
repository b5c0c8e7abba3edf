// Package extract recognizes printer/copier brands, product series and
// model ranges in noisy Vietnamese/English filenames and folder names.
package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"office-archive-indexer/internal/core/domain"
)

type brandRule struct {
	Token     string // uppercase literal tested by substring containment
	Canonical string
}

// Whitelist order is significant: first containment match wins.
// Extraction is whitelist-positive; junk words never match because they
// are not listed.
var defaultBrands = []brandRule{
	{"RICOH", "Ricoh"},
	{"TOSHIBA", "Toshiba"},
	{"CANON", "Canon"},
	{"SHARP", "Sharp"},
	{"HP", "HP"},
	{"KONICA MINOLTA", "Konica Minolta"},
	{"KONICA", "Konica Minolta"},
	{"MINOLTA", "Konica Minolta"},
	{"KYOCERA", "Kyocera"},
	{"BROTHER", "Brother"},
	{"EPSON", "Epson"},
	{"XEROX", "Xerox"},
	{"FUJI XEROX", "Xerox"},
	{"SAMSUNG", "Samsung"},
	{"PANASONIC", "Panasonic"},
	{"LEXMARK", "Lexmark"},
	{"OKI", "Oki"},
}

type seriesDef struct {
	Label string
	Brand string
}

// Ordered most-specific first: a label that is a textual prefix of
// another must come after it so same-position overlaps resolve to the
// longer code.
var defaultSeries = []seriesDef{
	{"MPC", "Ricoh"},
	{"MPW", "Ricoh"},
	{"MP", "Ricoh"},
	{"IM", "Ricoh"},
	{"SP", "Ricoh"},
	{"Pro C", "Ricoh"},
	{"e-Studio", "Toshiba"},
	{"iR-ADV", "Canon"},
	{"iR", "Canon"},
}

// numberPart is a delimited cluster of digit-led tokens:
// "3054-4054-5054", "2520/2525", "5516AC-6516AC".
const numberPart = `\d[0-9A-Z]*(?:\s*[-/,]\s*\d[0-9A-Z]*)*`

type seriesRule struct {
	Label string
	Brand string
	re    *regexp.Regexp
}

// Extractor is the deterministic brand/series recognizer. Safe for
// concurrent use after construction.
type Extractor struct {
	brands []brandRule
	series []seriesRule
	labels map[string]struct{}
}

func New() *Extractor {
	ext, err := newExtractor(defaultBrands, defaultSeries)
	if err != nil {
		// Built-in tables are static; a compile failure is a programming error.
		panic(err)
	}
	return ext
}

func newExtractor(brands []brandRule, series []seriesDef) (*Extractor, error) {
	ext := &Extractor{
		brands: brands,
		labels: make(map[string]struct{}, len(series)),
	}
	for _, def := range series {
		re, err := compileSeriesPattern(def.Label)
		if err != nil {
			return nil, fmt.Errorf("compile series pattern %q: %w", def.Label, err)
		}
		ext.series = append(ext.series, seriesRule{Label: def.Label, Brand: def.Brand, re: re})
		ext.labels[strings.ToUpper(def.Label)] = struct{}{}
	}
	return ext, nil
}

// compileSeriesPattern turns a display label into a separator-tolerant
// regex: "iR-ADV" matches IR-ADV, IR ADV and IRADV, each optionally
// followed by a number cluster.
func compileSeriesPattern(label string) (*regexp.Regexp, error) {
	parts := regexp.MustCompile(`[\s\-]+`).Split(strings.ToUpper(label), -1)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	pattern := `\b` + strings.Join(parts, `[\s\-]*`) + `(?:[\s\-]*(` + numberPart + `))?`
	return regexp.Compile(pattern)
}

// Brand tests the uppercased input against the brand whitelist by
// literal substring containment, first match wins. Returns false when
// nothing matches; callers must treat that as "unknown brand".
func (e *Extractor) Brand(raw string) (string, bool) {
	upper := strings.ToUpper(raw)
	for _, rule := range e.brands {
		if strings.Contains(upper, rule.Token) {
			return rule.Canonical, true
		}
	}
	return "", false
}

// IsSeriesLabel reports whether s case-insensitively equals a known
// series label. Used to keep series names out of the free-tag set.
func (e *Extractor) IsSeriesLabel(s string) bool {
	_, ok := e.labels[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}

type seriesMatch struct {
	start     int
	end       int
	rule      int
	numedPart string
}

// SeriesAndModels scans a filename for every known series occurrence,
// keeps only the longest match per start position (MPC suppresses MP,
// iR-ADV suppresses iR at the same anchor), and expands each captured
// number cluster into discrete model names.
func (e *Extractor) SeriesAndModels(fileName string) domain.SeriesScan {
	name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	upper := strings.ToUpper(name)

	var matches []seriesMatch
	for idx, rule := range e.series {
		for _, loc := range rule.re.FindAllStringSubmatchIndex(upper, -1) {
			m := seriesMatch{start: loc[0], end: loc[1], rule: idx}
			if loc[2] >= 0 {
				m.numedPart = upper[loc[2]:loc[3]]
			}
			matches = append(matches, m)
		}
	}

	// Single post-pass: per start position keep the longest match,
	// pattern order breaking ties.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		if matches[i].end != matches[j].end {
			return matches[i].end > matches[j].end
		}
		return matches[i].rule < matches[j].rule
	})

	var scan domain.SeriesScan
	seen := make(map[string]struct{})
	lastStart := -1
	for _, m := range matches {
		if m.start == lastStart {
			continue
		}
		lastStart = m.start
		if m.numedPart == "" && !endsAtBoundary(upper, m.end) {
			// A bare label glued to more letters is part of an unrelated
			// word ("IM" in "IMPORT"), not a series mention.
			continue
		}
		rule := e.series[m.rule]
		if scan.Brand == "" {
			scan.Brand = rule.Brand
		}
		if _, dup := seen[rule.Label]; !dup {
			seen[rule.Label] = struct{}{}
			scan.Series = append(scan.Series, rule.Label)
		}
		if m.numedPart != "" {
			scan.Models = append(scan.Models, e.expandWithPrefix(rule.Label, m.numedPart)...)
		}
	}
	scan.Models = dedupe(scan.Models)
	return scan
}

func endsAtBoundary(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	c := s[pos]
	return !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9')
}

// ExpandModels turns a compressed range notation ("MPC 3054-4054-5054")
// into discrete model names. A known series prefix is preferred; failing
// that the longest leading run of letters/spaces/hyphens/dots becomes
// the prefix and everything from the first digit the number part.
func (e *Extractor) ExpandModels(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	upper := strings.ToUpper(trimmed)

	prefix := ""
	numbers := ""
	for _, rule := range e.series {
		loc := rule.re.FindStringSubmatchIndex(upper)
		if loc == nil || loc[0] != 0 {
			continue
		}
		prefix = rule.Label
		if loc[2] >= 0 {
			numbers = upper[loc[2]:loc[3]]
		} else {
			numbers = strings.TrimSpace(upper[loc[1]:])
		}
		break
	}
	if prefix == "" {
		if m := genericPrefixRe.FindString(trimmed); m != "" {
			prefix = strings.Trim(m, " -.")
			numbers = upper[len(m):]
		} else if i := strings.IndexFunc(trimmed, isASCIIDigit); i >= 0 {
			numbers = upper[i:]
		}
	}

	out := e.expandWithPrefix(prefix, numbers)
	if len(out) == 0 && len(trimmed) > 2 {
		// Never silently drop user-visible information.
		return []string{trimmed}
	}
	return dedupe(out)
}

var (
	genericPrefixRe = regexp.MustCompile(`^[A-Za-z][A-Za-z\s\-.]*`)
	tokenSplitRe    = regexp.MustCompile(`[-/,\s]+`)
)

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func (e *Extractor) expandWithPrefix(prefix, numbers string) []string {
	var out []string
	upperPrefix := strings.ToUpper(prefix)
	for _, token := range tokenSplitRe.Split(numbers, -1) {
		token = strings.TrimLeft(token, "-_")
		if len(token) < 2 || !strings.ContainsFunc(token, isASCIIDigit) {
			continue
		}
		// A token repeating the series code must not double the prefix:
		// prefix "iR" + token "IR2520" emits "iR 2520".
		if upperPrefix != "" && strings.HasPrefix(strings.ToUpper(token), upperPrefix) {
			stripped := strings.TrimLeft(token[len(upperPrefix):], "-_ ")
			if strings.ContainsFunc(stripped, isASCIIDigit) {
				token = stripped
			}
		}
		out = append(out, strings.TrimSpace(prefix+" "+token))
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
