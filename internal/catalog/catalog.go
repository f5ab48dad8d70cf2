// Package catalog holds the static ingredient table: per identifier, and
// optionally per variant tag, the colour an ingredient contributes, its
// description and the highest temperature it survives.
//
// The table is two-level. Items without variants carry their properties at the
// identifier level. Items with variants (custom items sharing a base identifier)
// carry one property set per tag. A lookup with a tag consults only the variant
// table; a lookup without one consults only the identifier level.
package catalog

import (
	"sort"
	"strconv"
)

// Variant is an optional integer tag distinguishing custom items that share a
// base identifier. Tag 0 is a real tag and is distinct from "no tag".
type Variant struct {
	Tag int
	Set bool
}

// NoVariant is the absent tag.
var NoVariant = Variant{}

// Tagged returns a present tag.
func Tagged(tag int) Variant {
	return Variant{Tag: tag, Set: true}
}

func (v Variant) String() string {
	if !v.Set {
		return "-"
	}
	return strconv.Itoa(v.Tag)
}

// Key identifies a catalog entry.
type Key struct {
	Identifier string
	Variant    Variant
}

func (k Key) String() string {
	if !k.Variant.Set {
		return k.Identifier
	}
	return k.Identifier + "#" + strconv.Itoa(k.Variant.Tag)
}

// Properties are the cooking properties of one identifier/variant pair.
type Properties struct {
	Color       Dye // empty when the ingredient does not colour the brew
	Description string

	// MaxTemperature is the highest temperature the ingredient survives.
	// Nil means it survives any temperature.
	MaxTemperature *float64
}

// Ingredient reports whether these properties describe an addable
// ingredient. Entries without a description are not ingredients.
func (p Properties) Ingredient() bool {
	return p.Description != ""
}

// Colored reports whether the ingredient contributes a colour.
func (p Properties) Colored() bool {
	return p.Color != ""
}

// Withstands reports whether the ingredient survives temp.
func (p Properties) Withstands(temp float64) bool {
	return p.MaxTemperature == nil || temp <= *p.MaxTemperature
}

type entry struct {
	base     Properties
	variants map[int]Properties
}

// Catalog is a read-only ingredient table. Safe for concurrent use once built.
type Catalog struct {
	entries map[string]entry
}

// Lookup returns the properties for key.
func (c *Catalog) Lookup(key Key) (Properties, bool) {
	e, ok := c.entries[key.Identifier]
	if !ok {
		return Properties{}, false
	}
	if key.Variant.Set {
		p, ok := e.variants[key.Variant.Tag]
		return p, ok
	}
	return e.base, e.base != (Properties{})
}

// Ingredient returns the properties for key only if key is an addable
// ingredient.
func (c *Catalog) Ingredient(key Key) (Properties, bool) {
	p, ok := c.Lookup(key)
	if !ok || !p.Ingredient() {
		return Properties{}, false
	}
	return p, true
}

// Len returns the number of identifiers in the table.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Keys returns every addable key, sorted by identifier then tag. Identifier
// level entries sort before their variants.
func (c *Catalog) Keys() []Key {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var keys []Key
	for _, id := range ids {
		e := c.entries[id]
		if e.base.Ingredient() {
			keys = append(keys, Key{Identifier: id})
		}
		tags := make([]int, 0, len(e.variants))
		for tag := range e.variants {
			tags = append(tags, tag)
		}
		sort.Ints(tags)
		for _, tag := range tags {
			if e.variants[tag].Ingredient() {
				keys = append(keys, Key{Identifier: id, Variant: Tagged(tag)})
			}
		}
	}
	return keys
}
