package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_Layouts(t *testing.T) {
	for _, in := range []string{"2025-03-05", "2025-03-05T18:30:00+05:30", "2025-03-05 07:15:00"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2025-03-05", got.Format(DateLayout), in)
		assert.Equal(t, 0, got.Hour(), in)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "05 Mar 2025", Display("2025-03-05"))
	assert.Equal(t, "not-a-date", Display("not-a-date"))
}

func TestToday_IsWireDate(t *testing.T) {
	_, err := ParseDate(Today())
	assert.NoError(t, err)
}
