package keywords

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	quoteReplacer  = strings.NewReplacer("“", "", "”", "", `"`, "", "'", "")
	disallowedRe   = regexp.MustCompile(`[^a-z0-9/.\-\sx]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	unitSuffixRe   = regexp.MustCompile(`^([0-9][0-9.]*)[a-z]+$`)
	leadingZerosRe = regexp.MustCompile(`^0+`)
)

// Spelling variants seen in supplier exports
const (
	misspelledStem = "porcellanat"
	correctedStem  = "porcelanat"
)

var interchangeable = [2]string{"cincalum", "zincalum"}

// Normalize lower-cases text, strips diacritics and quotes and keeps only
// letters, digits and the separators useful for measurements.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = strings.ReplaceAll(s, "×", "x")
	s = stripDiacritics(s)
	s = quoteReplacer.Replace(s)
	s = disallowedRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize returns the normalized tokens of text in first-seen order,
// including dimension, plural and spelling variants.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	tokens := NewSet()
	for _, raw := range strings.Split(normalized, " ") {
		if raw == "" {
			continue
		}

		// short fragments survive when they carry digits (6m, 1/2, 8mm)
		if len(raw) >= 3 || containsDigit(raw) {
			tokens.Add(raw)
		}

		if strings.Contains(raw, "x") {
			addDimensionParts(tokens, raw)
		}

		if strings.HasSuffix(raw, ".") {
			tokens.Add(strings.TrimSuffix(raw, "."))
		}

		// chapas -> chapa, but gris stays gris
		if strings.HasSuffix(raw, "s") && len(raw) > 3 && !strings.HasSuffix(raw, "is") {
			tokens.Add(strings.TrimSuffix(raw, "s"))
		}

		if strings.HasPrefix(raw, misspelledStem) {
			tokens.Add(strings.Replace(raw, misspelledStem, correctedStem, 1))
		}

		a, b := interchangeable[0], interchangeable[1]
		if strings.Contains(raw, a) {
			tokens.Add(strings.Replace(raw, a, b, 1))
		}
		if strings.Contains(raw, b) {
			tokens.Add(strings.Replace(raw, b, a, 1))
		}
	}

	return tokens.Values()
}

// addDimensionParts splits measurements like 31x60 or 0.60x0.40m
func addDimensionParts(tokens *Set, raw string) {
	var parts []string
	for _, p := range strings.Split(raw, "x") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return
	}

	for _, p := range parts {
		tokens.Add(p)
		addNumericVariants(tokens, p)

		if m := unitSuffixRe.FindStringSubmatch(p); m != nil {
			tokens.Add(m[1])
			addNumericVariants(tokens, m[1])
		}
	}
}

// addNumericVariants emits 0.60 -> 060 -> 60
func addNumericVariants(tokens *Set, p string) {
	noDots := strings.ReplaceAll(p, ".", "")
	if noDots != "" && noDots != p {
		tokens.Add(noDots)
	}

	noZeros := leadingZerosRe.ReplaceAllString(noDots, "")
	if noZeros != "" && noZeros != noDots {
		tokens.Add(noZeros)
	}
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// Merge tokenizes every text into set
func Merge(set *Set, texts ...string) {
	for _, text := range texts {
		set.AddAll(Tokenize(text))
	}
}
