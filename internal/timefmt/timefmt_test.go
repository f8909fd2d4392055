package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 30, 9, 123456789, time.Local)

	t.Run("calendar", func(t *testing.T) {
		assert.Equal(t, "20240305143009", Stamp(Calendar, ts, 0, 0))
		assert.Equal(t, "20240305143009.123", Stamp(Calendar, ts, 0, 3))
		assert.Equal(t, "20240305143009.123456789", Stamp(Calendar, ts, 0, 9))
	})

	t.Run("unix", func(t *testing.T) {
		assert.Equal(t, "750.123456", Stamp(Unix, time.Unix(750, 123456789), 0, 6))
	})

	t.Run("stopwatch", func(t *testing.T) {
		d := 2*time.Second + 5*time.Millisecond
		assert.Equal(t, "2", Stamp(Elapsed, time.Time{}, d, 0))
		assert.Equal(t, "2.005", Stamp(Delta, time.Time{}, d, 3))
	})
}

func TestParseAbsolute(t *testing.T) {
	t.Run("unix time", func(t *testing.T) {
		ts, err := ParseAbsolute("@1700000000")
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000), ts.Unix())
	})

	t.Run("compact calendar", func(t *testing.T) {
		ts, err := ParseAbsolute("20240305143009")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 9, 0, time.Local), ts)
	})

	t.Run("separated calendar", func(t *testing.T) {
		ts, err := ParseAbsolute("2024-03-05T14:30:09")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 9, 0, time.Local), ts)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseAbsolute("next tuesday")
		assert.Error(t, err)
	})
}
