// Package taxonomy holds the closed skill and category vocabulary humans are matched on.
package taxonomy

import (
	_ "embed"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	MaxSkills           = 24
	MaxRequestSkills    = 12
	MaxCategories       = 12
	DefaultLocation     = "Online / Remote"
	suggestedRateFactor = 5
)

//go:embed catalog.yml
var catalogYAML []byte

// Category is a catalog category.
type Category struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Skill is a catalog skill and the categories it implies.
type Skill struct {
	ID            string   `yaml:"id" json:"id"`
	Label         string   `yaml:"label" json:"label"`
	Categories    []string `yaml:"categories" json:"categories"`
	SuggestedRate float64  `yaml:"suggested_rate" json:"suggestedRate"`
}

// Catalog is the full vocabulary.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
	Skills     []Skill    `yaml:"skills" json:"skills"`
	Places     []string   `yaml:"locations" json:"locations"`

	skillByKey    map[string]*Skill
	categoryLabel map[string]string
}

var (
	loadOnce sync.Once
	catalog  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is malformed.
func Default() *Catalog {
	loadOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("taxonomy: %v", err))
		}
		catalog = c
	})
	return catalog
}

// Parse decodes and indexes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c.categoryLabel = make(map[string]string, len(c.Categories))
	for _, cat := range c.Categories {
		c.categoryLabel[cat.ID] = cat.Label
	}

	c.skillByKey = make(map[string]*Skill, len(c.Skills)*2)
	for i := range c.Skills {
		s := &c.Skills[i]
		for _, cat := range s.Categories {
			if _, ok := c.categoryLabel[cat]; !ok {
				return nil, fmt.Errorf("skill %q references unknown category %q", s.ID, cat)
			}
		}
		c.skillByKey[strings.ToLower(s.ID)] = s
		c.skillByKey[strings.ToLower(s.Label)] = s
	}
	return &c, nil
}

// ResolveSkill matches input case-insensitively against a skill id or label.
func (c *Catalog) ResolveSkill(input string) (*Skill, bool) {
	key := strings.ToLower(strings.TrimSpace(input))
	if key == "" {
		return nil, false
	}
	s, ok := c.skillByKey[key]
	return s, ok
}

// NormalizeSkills resolves input against the catalog. Unknown entries are dropped.
// It returns display labels and their lowercase forms.
func (c *Catalog) NormalizeSkills(input any) (labels, normalized []string) {
	labels = []string{}
	normalized = []string{}
	seen := map[string]bool{}
	for _, item := range splitInput(input) {
		s, ok := c.ResolveSkill(item)
		if !ok || seen[s.Label] {
			continue
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
		normalized = append(normalized, strings.ToLower(s.Label))
		if len(labels) == MaxSkills {
			break
		}
	}
	return labels, normalized
}

// DeriveCategories returns the union of the categories implied by skills, as
// display labels and ids, in first-seen order.
func (c *Catalog) DeriveCategories(skills []string) (labels, ids []string) {
	labels = []string{}
	ids = []string{}
	seen := map[string]bool{}
	for _, skill := range skills {
		s, ok := c.ResolveSkill(skill)
		if !ok {
			continue
		}
		for _, id := range s.Categories {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
			label := c.categoryLabel[id]
			if label == "" {
				label = id
			}
			labels = append(labels, label)
		}
	}
	return labels, ids
}

// SuggestedRate averages the suggested rates of the resolvable skills, rounded
// to the nearest 5. It reports false when no skill resolves.
func (c *Catalog) SuggestedRate(skills []string) (float64, bool) {
	var sum float64
	n := 0
	for _, skill := range skills {
		if s, ok := c.ResolveSkill(skill); ok {
			sum += s.SuggestedRate
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	avg := sum / float64(n)
	return math.Round(avg/suggestedRateFactor) * suggestedRateFactor, true
}

var (
	categoryWhitespace = regexp.MustCompile(`\s+`)
	categoryInvalid    = regexp.MustCompile(`[^a-z0-9-]`)
)

// NormalizeCategories is the free-form category normalizer used where no
// catalog applies. It returns the trimmed inputs (at most 12) and their deduplicated ids.
func NormalizeCategories(input any) (labels, ids []string) {
	labels = []string{}
	for _, item := range splitInput(input) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		labels = append(labels, item)
		if len(labels) == MaxCategories {
			break
		}
	}

	ids = []string{}
	seen := map[string]bool{}
	for _, label := range labels {
		id := strings.ToLower(strings.TrimSpace(label))
		id = categoryWhitespace.ReplaceAllString(id, "-")
		id = categoryInvalid.ReplaceAllString(id, "")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return labels, ids
}

// NormalizeRequestSkills keeps agent-supplied skills as free text: trimmed,
// deduplicated case-insensitively and capped at 12. The second result holds
// the lowercase forms used for matching.
func NormalizeRequestSkills(input any) (labels, normalized []string) {
	labels = []string{}
	normalized = []string{}
	seen := map[string]bool{}
	for _, item := range splitInput(input) {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		labels = append(labels, item)
		normalized = append(normalized, key)
		if len(labels) == MaxRequestSkills {
			break
		}
	}
	return labels, normalized
}

// Locations returns the selectable locations, default first.
func (c *Catalog) Locations() []string {
	if len(c.Places) == 0 {
		return []string{DefaultLocation}
	}
	return c.Places
}

func splitInput(input any) []string {
	switch v := input.(type) {
	case nil:
		return nil
	case string:
		return strings.Split(v, ",")
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
