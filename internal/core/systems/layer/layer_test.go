package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSetOperations(t *testing.T) {
	s := Of(Zone, Tool)
	assert.True(t, s.Contains(Zone))
	assert.True(t, s.Contains(Tool))
	assert.False(t, s.Contains(Caretaker))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Intersects(Only(Tool)))
	assert.False(t, s.Intersects(Of(Caretaker, Dependent)))
	assert.False(t, s.Intersects(Empty()))
	assert.False(t, Empty().Intersects(All()))
	assert.True(t, All().Intersects(Only(Dependent)))

	assert.Equal(t, All(), Of(Zone, Caretaker, Dependent, Tool))
	assert.Equal(t, Of(Zone, Tool, Dependent), s.Union(Only(Dependent)))
	assert.Equal(t, "{Zone,Tool}", s.String())
}

func TestParse(t *testing.T) {
	l, err := ParseLayer("zone")
	require.NoError(t, err)
	assert.Equal(t, Zone, l)

	_, err = ParseLayer("Garden")
	assert.ErrorIs(t, err, ErrUnknownLayer)

	s, err := ParseSet("Tool", "Dependent", "tool")
	require.NoError(t, err)
	assert.Equal(t, Of(Tool, Dependent), s)
}

func TestSetYAML(t *testing.T) {
	var doc struct {
		One  Set `yaml:"one"`
		Many Set `yaml:"many"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("one: Zone\nmany: [Tool, Caretaker]\n"), &doc))
	assert.Equal(t, Only(Zone), doc.One)
	assert.Equal(t, Of(Tool, Caretaker), doc.Many)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "- Caretaker")

	err = yaml.Unmarshal([]byte("one: Nope\n"), &doc)
	assert.ErrorIs(t, err, ErrUnknownLayer)
}
