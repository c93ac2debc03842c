package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Len(t, c.Categories, 14)
	assert.Len(t, c.Skills, 24)
	assert.Equal(t, DefaultLocation, c.Locations()[0])
}

func TestParse_RejectsUnknownCategory(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - {id: ops, label: Ops}
skills:
  - {id: x, label: X, categories: [nope], suggested_rate: 10}
`))
	require.Error(t, err)
}

func TestResolveSkill(t *testing.T) {
	c := Default()

	s, ok := c.ResolveSkill("DEVOPS")
	require.True(t, ok)
	assert.Equal(t, "DevOps", s.Label)

	s, ok = c.ResolveSkill(" sql analysis ")
	require.True(t, ok)
	assert.Equal(t, "sql-analysis", s.ID)

	_, ok = c.ResolveSkill("basket weaving")
	assert.False(t, ok)
}

func TestNormalizeSkills(t *testing.T) {
	c := Default()

	labels, normalized := c.NormalizeSkills("debugging, Debugging, devops, underwater welding")
	assert.Equal(t, []string{"Debugging", "DevOps"}, labels)
	assert.Equal(t, []string{"debugging", "devops"}, normalized)

	labels, _ = c.NormalizeSkills([]any{"qa-testing", 42, nil})
	assert.Equal(t, []string{"QA testing"}, labels)

	labels, normalized = c.NormalizeSkills(nil)
	assert.Empty(t, labels)
	assert.Empty(t, normalized)

	all := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		all = append(all, s.ID)
	}
	all = append(all, all...)
	labels, _ = c.NormalizeSkills(all)
	assert.Len(t, labels, MaxSkills)
}

func TestDeriveCategories(t *testing.T) {
	c := Default()

	labels, ids := c.DeriveCategories([]string{"Python automation", "DevOps", "unknown"})
	assert.Equal(t, []string{"automation", "data-analysis", "ops"}, ids)
	assert.Equal(t, []string{"Automation", "Data analysis", "Ops"}, labels)
}

func TestSuggestedRate(t *testing.T) {
	c := Default()

	rate, ok := c.SuggestedRate([]string{"Debugging", "QA testing"})
	require.True(t, ok)
	// (115 + 70) / 2 = 92.5, nearest multiple of 5 is 95
	assert.Equal(t, 95.0, rate)

	_, ok = c.SuggestedRate([]string{"nothing"})
	assert.False(t, ok)
}

func TestNormalizeCategories(t *testing.T) {
	labels, ids := NormalizeCategories("Data Science, data science, ML & AI,  ")
	assert.Equal(t, []string{"Data Science", "data science", "ML & AI"}, labels)
	assert.Equal(t, []string{"data-science", "ml--ai"}, ids)
}

func TestNormalizeRequestSkills(t *testing.T) {
	labels, normalized := NormalizeRequestSkills([]string{" Node ", "node", "Go", ""})
	assert.Equal(t, []string{"Node", "Go"}, labels)
	assert.Equal(t, []string{"node", "go"}, normalized)
}
