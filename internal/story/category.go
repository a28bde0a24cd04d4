// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package story

import (
	"fmt"
	"strconv"
	"strings"
)

// Story length labels the model chooses from.
const (
	CategoryShort  = "1-2 minutter"
	CategoryMedium = "3-5 minutter"
	CategoryFairy  = "Eventyr"
)

// CategoryMap resolves a draft's category label to the CMS category id.
// Unknown labels resolve to the Default label's id.
type CategoryMap struct {
	IDs     map[string]int
	Default string
}

// DefaultCategories returns the mapping used by godnathistorierforborn.dk.
func DefaultCategories() CategoryMap {
	return CategoryMap{
		IDs: map[string]int{
			CategoryShort:  4,
			CategoryMedium: 5,
			CategoryFairy:  7,
		},
		Default: CategoryMedium,
	}
}

// Resolve returns the id for label, falling back to the default category.
func (m CategoryMap) Resolve(label string) int {
	if id, ok := m.IDs[strings.TrimSpace(label)]; ok {
		return id
	}
	return m.IDs[m.Default]
}

// Validate checks that the default label is mapped.
func (m CategoryMap) Validate() error {
	if len(m.IDs) == 0 {
		return fmt.Errorf("category map is empty")
	}
	if _, ok := m.IDs[m.Default]; !ok {
		return fmt.Errorf("default category %q has no id", m.Default)
	}
	return nil
}

// ParseCategoryIDs parses "label=id,label=id" as used in configuration.
func ParseCategoryIDs(s string) (map[string]int, error) {
	ids := make(map[string]int)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		label, rawID, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("category %q: want label=id", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(rawID))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("category %q: id must be a positive integer", pair)
		}
		ids[label] = id
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no categories in %q", s)
	}
	return ids, nil
}
