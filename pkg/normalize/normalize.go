// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package normalize holds the string and value normalization rules used by
// merge matching: transcribed French text arrives with inconsistent case,
// whitespace and accents, and extracted numbers arrive as strings as often
// as not.
package normalize

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CurrencyEpsilon is the tolerance for comparing currency-like values.
const CurrencyEpsilon = 0.01

// stripDiacritics decomposes then drops combining marks, so "crédit" folds
// to "credit".
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, trims, and strips diacritics from a string.
func Fold(s string) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		// Transliteration failure leaves the accents in place; matching
		// degrades but stays deterministic.
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// EqualFold reports whether two strings are equal after Fold.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// NearlyEqual reports whether two currency-like values are within epsilon.
func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= CurrencyEpsilon
}

// IsEmpty reports whether a loosely typed value carries no information:
// nil, blank string, zero number, false, or an empty slice/map. Used by the
// diff to decide whether a new value can constitute a change at all.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// EqualValues compares two loosely typed values under the merge rules:
// strings case-insensitively and accent-insensitively after trimming,
// booleans interchangeably with their 0/1 forms, numbers within epsilon,
// and string slices order-independently.
func EqualValues(a, b any) bool {
	if a == nil || b == nil {
		return IsEmpty(a) == IsEmpty(b)
	}

	if as, aok := asStringSlice(a); aok {
		bs, bok := asStringSlice(b)
		if !bok {
			return false
		}
		return equalStringSets(as, bs)
	}

	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			return NearlyEqual(af, bf)
		}
	}

	if ab, aok := asBool(a); aok {
		if bb, bok := asBool(b); bok {
			return ab == bb
		}
	}

	return Fold(fmt.Sprint(a)) == Fold(fmt.Sprint(b))
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		if t == 0 || t == 1 {
			return t == 1, true
		}
		return false, false
	case string:
		switch Fold(t) {
		case "true", "1", "oui", "yes":
			return true, true
		case "false", "0", "non", "no":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

func asStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	default:
		return nil, false
	}
}

// equalStringSets compares folded slices order-independently.
func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	fa := make([]string, len(a))
	fb := make([]string, len(b))
	for i := range a {
		fa[i] = Fold(a[i])
	}
	for i := range b {
		fb[i] = Fold(b[i])
	}
	slices.Sort(fa)
	slices.Sort(fb)
	return slices.Equal(fa, fb)
}
