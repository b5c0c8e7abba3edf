package extract

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon is an optional deploy-time overlay for the built-in brand
// whitelist and series table. Overlay entries are tested before the
// built-ins so a site can pin its own canonicalizations.
type Lexicon struct {
	Brands []LexiconBrand  `yaml:"brands"`
	Series []LexiconSeries `yaml:"series"`
}

type LexiconBrand struct {
	Token     string `yaml:"token"`
	Canonical string `yaml:"canonical"`
}

type LexiconSeries struct {
	Label string `yaml:"label"`
	Brand string `yaml:"brand"`
}

// NewWithLexicon builds an Extractor with the overlay file applied.
// An empty path yields the built-in tables unchanged.
func NewWithLexicon(path string) (*Extractor, error) {
	if path == "" {
		return New(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	brands := make([]brandRule, 0, len(lex.Brands)+len(defaultBrands))
	for _, b := range lex.Brands {
		token := strings.ToUpper(strings.TrimSpace(b.Token))
		if token == "" {
			continue
		}
		canonical := strings.TrimSpace(b.Canonical)
		if canonical == "" {
			canonical = titleCase(token)
		}
		brands = append(brands, brandRule{Token: token, Canonical: canonical})
	}
	brands = append(brands, defaultBrands...)

	series := make([]seriesDef, 0, len(lex.Series)+len(defaultSeries))
	for _, s := range lex.Series {
		if strings.TrimSpace(s.Label) == "" {
			continue
		}
		series = append(series, seriesDef{Label: strings.TrimSpace(s.Label), Brand: strings.TrimSpace(s.Brand)})
	}
	series = append(series, defaultSeries...)

	return newExtractor(brands, series)
}

func titleCase(token string) string {
	words := strings.Fields(strings.ToLower(token))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
