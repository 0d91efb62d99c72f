package reservation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	slots := c.AllSlots()
	require.Len(t, slots, 9)
	assert.Equal(t, "9:00 AM - 10:00 AM", slots[0])
	assert.Equal(t, "5:00 PM - 6:00 PM", slots[8])
	assert.True(t, c.Contains("12:00 PM - 1:00 PM"))
	assert.False(t, c.Contains("12:00 PM - 1:00 PM "))
	assert.False(t, c.Contains("6:00 PM - 7:00 PM"))

	slots[0] = "mutated"
	assert.Equal(t, "9:00 AM - 10:00 AM", c.AllSlots()[0])
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog([]string{" Morning ", "Afternoon"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Morning", "Afternoon"}, c.AllSlots())
	assert.Less(t, c.position("Morning"), c.position("Afternoon"))
	assert.Equal(t, 2, c.position("Evening"))

	for name, labels := range map[string][]string{
		"empty":     nil,
		"blank":     {"Morning", "  "},
		"duplicate": {"Morning", "Morning"},
		"too long":  {strings.Repeat("M", maxSlotLength+1)},
	} {
		_, err := NewCatalog(labels)
		assert.Error(t, err, name)
	}
}
