package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	rePlateSeparators = regexp.MustCompile(`[\s\-]+`)
	reValidPlate      = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)
	reMultiSpace      = regexp.MustCompile(`\s+`)

	// Cyrillic plate letters share glyphs with Latin ones. Plates are stored
	// in the Latin form so the unique index treats А777АА and A777AA as the
	// same vehicle.
	cyrillicToLatin = strings.NewReplacer(
		"А", "A", "В", "B", "Е", "E", "К", "K",
		"М", "M", "Н", "H", "О", "O", "Р", "P",
		"С", "C", "Т", "T", "У", "Y", "Х", "X",
	)
)

func trimAndUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func stripSeparators(s string) string {
	return rePlateSeparators.ReplaceAllString(s, "")
}

// NormalizePlate canonicalizes a license plate: trims, uppercases, drops
// spaces and dashes, and transliterates Cyrillic lookalike letters.
func NormalizePlate(plate string) string {
	p := Pipeline{
		trimAndUpper,
		stripSeparators,
		cyrillicToLatin.Replace,
	}
	return p.Apply(plate)
}

// ValidPlate reports whether a normalized plate has an acceptable shape.
// Callers must normalize first.
func ValidPlate(plate string) bool {
	return reValidPlate.MatchString(plate)
}

// NormalizeName collapses internal whitespace and trims the edges. Used for
// customer and zone display names.
func NormalizeName(s string) string {
	return reMultiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NormalizeSlice applies a strategy to each value, dropping empties and
// duplicates while preserving order.
func NormalizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
