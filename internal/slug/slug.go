// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug normalises post slugs. Models are asked for a clean slug
// but regularly hand back Danish letters, spaces or stray punctuation;
// WordPress would percent-encode those into unreadable URLs.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	transliterate = strings.NewReplacer(
		"æ", "ae", "ø", "oe", "å", "aa",
		"ä", "a", "ö", "o", "ü", "u", "ß", "ss",
		"é", "e", "è", "e", "ê", "e", "á", "a", "à", "a",
		"í", "i", "ó", "o", "ú", "u", "ñ", "n", "ç", "c",
		"_", " ",
	)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Søren og Den Hemmelige Skov!" → "soeren-og-den-hemmelige-skov"
func Generate(s string) string {
	result := transliterate.Replace(strings.ToLower(strings.TrimSpace(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.Join(strings.Fields(result), "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// For returns the slug to publish under: the model's suggestion when it
// survives normalisation, otherwise one derived from the title.
func For(suggested, title string) string {
	if s := Generate(suggested); s != "" {
		return s
	}
	return Generate(title)
}
