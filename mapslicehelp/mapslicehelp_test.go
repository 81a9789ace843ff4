package mapslicehelp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestOrderedMapKeysAndValues(t *testing.T) {
	m := orderedmap.New[int, string]()
	m.Set(3, "c")
	m.Set(1, "a")
	m.Set(2, "b")
	m.Delete(1)
	m.Set(1, "again")

	assert.Equal(t, []int{3, 2, 1}, OrderedMapKeys(m))
	assert.Equal(t, []string{"c", "b", "again"}, OrderedMapValues(m))

	empty := orderedmap.New[int, string]()
	assert.Empty(t, OrderedMapKeys(empty))
	assert.Empty(t, OrderedMapValues(empty))
}
