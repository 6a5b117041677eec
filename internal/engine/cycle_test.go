package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisitedSet_FirstVisit(t *testing.T) {
	v := newVisitedSet()
	assert.True(t, v.visit("a", 3))
	assert.False(t, v.visit("a", 3), "same depth is not expanded twice")
	assert.False(t, v.visit("a", 5), "deeper revisit is not expanded")
	assert.Equal(t, 1, v.Len())
}

func TestVisitedSet_ShallowerRevisit(t *testing.T) {
	v := newVisitedSet()
	assert.True(t, v.visit("a", 5))
	assert.True(t, v.visit("a", 2), "shorter path re-expands")
	assert.False(t, v.visit("a", 4))
}
