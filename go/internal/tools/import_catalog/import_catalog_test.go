package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	c, err := parseCatalog([]byte(`
- name: Virat Kohli
  team: RCB
  rating: 92
  base_price_millions: 2
- name: " Rohit Sharma "
  team: MI
  base_price: 1500000
`))
	require.NoError(t, err)
	require.Len(t, c, 2)

	v, ok := c.Get("virat kohli")
	require.True(t, ok)
	assert.Equal(t, int64(2_000_000), v.BasePrice)
	require.NotNil(t, v.Rating)
	assert.Equal(t, 92, *v.Rating)

	r, ok := c.Get("Rohit Sharma")
	require.True(t, ok)
	assert.Equal(t, "Rohit Sharma", r.Name)
	assert.Nil(t, r.Rating)
}

func TestParseCatalogAcceptsJSON(t *testing.T) {
	c, err := parseCatalog([]byte(`[{"name": "MS Dhoni", "team": "CSK", "base_price": 2000000}]`))
	require.NoError(t, err)
	assert.Len(t, c, 1)
}

func TestParseCatalogRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"missing name": "- team: RCB\n  base_price: 1\n",
		"no price":     "- name: A\n",
		"duplicate":    "- name: A\n  base_price: 1\n- name: a\n  base_price: 2\n",
		"not a list":   "name: A\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}
