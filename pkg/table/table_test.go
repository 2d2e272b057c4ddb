package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyCompare(t *testing.T) {
	a := Key{Row: "r1", Family: "ntfy", Qualifier: "a"}
	b := Key{Row: "r1", Family: "ntfy", Qualifier: "b"}
	c := Key{Row: "r2", Family: "data"}

	assert.Negative(t, a.Compare(b))
	assert.Positive(t, c.Compare(a))
	assert.Zero(t, a.Compare(a))
}

func TestKeyValidate(t *testing.T) {
	assert.NoError(t, Key{Row: "r"}.Validate())
	assert.Error(t, Key{}.Validate())
	assert.Error(t, Key{Row: "r\x00"}.Validate())
}

func TestTableConfigValidate(t *testing.T) {
	assert.NoError(t, TableConfig{}.Validate())
	assert.NoError(t, TableConfig{LocalityGroups: map[string][]string{"notify": {"ntfy"}}}.Validate())

	assert.Error(t, TableConfig{LocalityGroups: map[string][]string{"": {"ntfy"}}}.Validate())
	assert.Error(t, TableConfig{LocalityGroups: map[string][]string{"notify": nil}}.Validate())
	assert.Error(t, TableConfig{LocalityGroups: map[string][]string{"notify": {""}}}.Validate())
	assert.Error(t, TableConfig{LocalityGroups: map[string][]string{
		"a": {"ntfy"},
		"b": {"ntfy"},
	}}.Validate())
}

func TestNormalizeGroups(t *testing.T) {
	in := map[string][]string{"g": {"b", "a", "b"}}
	out := NormalizeGroups(in)

	assert.Equal(t, []string{"a", "b"}, out["g"])
	assert.Equal(t, []string{"b", "a", "b"}, in["g"], "input must not be modified")
	assert.NotNil(t, NormalizeGroups(nil))
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"app", "app_data", "ordo.v2", "A-1"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", "has space", "slash/name"} {
		assert.Error(t, ValidateName(bad), bad)
	}
}
