// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug builds URL-friendly category slugs and catalog URLs.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// separators become a single hyphen: whitespace, underscores, slashes.
	separators = regexp.MustCompile(`[\s_/]+`)
	// disallowed is anything left that isn't a lowercase letter, digit or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from a category name. Accents are
// folded to their base letter first.
// Example: "Électronique & Gadgets" → "electronique-gadgets"
func Generate(s string) string {
	result := foldAccents(strings.TrimSpace(s))
	result = strings.ToLower(result)
	result = separators.ReplaceAllString(result, "-")
	result = disallowed.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// CategoryURL returns the public catalog URL of a category slug. An empty
// lang yields the unprefixed default-language URL.
func CategoryURL(lang, slug string) string {
	if lang == "" {
		return "/categories/" + slug
	}
	return "/" + strings.ToLower(lang) + "/categories/" + slug
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
