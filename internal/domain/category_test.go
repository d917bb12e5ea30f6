package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorySet_Contains(t *testing.T) {
	s := NewCategorySet("Books", "Toys", "Books")

	assert.Len(t, s, 2)
	assert.True(t, s.Contains("Books"))
	assert.False(t, s.Contains("books"))

	var empty CategorySet
	assert.False(t, empty.Contains("Books"))
}

func TestCategorySet_JSON(t *testing.T) {
	data, err := json.Marshal(NewCategorySet("Toys", "Books"))
	require.NoError(t, err)
	assert.JSONEq(t, `["Books","Toys"]`, string(data))

	var s CategorySet
	require.NoError(t, json.Unmarshal([]byte(`["A","B","A"]`), &s))
	assert.Equal(t, []string{"A", "B"}, s.Values())

	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.Nil(t, s)

	data, err = json.Marshal(CategorySet(nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
