package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgvalidator "taskdesk/internal/pkg/validator"
)

func TestParseDateRange(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	t.Run("Inclusive", func(t *testing.T) {
		from, to, err := ParseDateRange("2026-03-01", "2026-03-01", loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, loc), *from)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), *to)
	})

	t.Run("Empty", func(t *testing.T) {
		from, to, err := ParseDateRange("", " ", loc)
		require.NoError(t, err)
		assert.Nil(t, from)
		assert.Nil(t, to)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, _, err := ParseDateRange("01/03/2026", "", loc)
		var ve pkgvalidator.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "start_date", ve[0].Field)
	})
}

func TestPollTitle(t *testing.T) {
	long := "Reminder: 'Prepare the quarterly financial report for the board' is due now!"
	assert.Len(t, []rune(PollTitle(long)), PollTitleLength)
	assert.Equal(t, "short", PollTitle("short"))
	assert.Equal(t, 50, len([]rune(PollTitle(string(make([]rune, 60))))))
}

func TestBuildCommentTree(t *testing.T) {
	flat := []Comment{{Content: "a"}}
	tree := BuildCommentTree(flat)
	assert.Len(t, tree, 1)
}
