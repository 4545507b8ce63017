package viewer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwatch-server/internal/modules/readings/types"
)

func readingAt(ts time.Time) types.Reading {
	return types.Reading{
		Timestamp:     ts,
		Temperature:   25.5,
		Humidity:      60,
		WindDirection: "N",
	}
}

func TestCurrentViewApply(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty view accepts any reading", func(t *testing.T) {
		var view CurrentView
		_, ok := view.Reading()
		require.False(t, ok)

		assert.True(t, view.Apply(readingAt(base)))
		got, ok := view.Reading()
		require.True(t, ok)
		assert.Equal(t, base, got.Timestamp)
	})

	t.Run("strictly newer replaces", func(t *testing.T) {
		var view CurrentView
		view.Apply(readingAt(base))
		assert.True(t, view.Apply(readingAt(base.Add(time.Second))))
		got, _ := view.Reading()
		assert.Equal(t, base.Add(time.Second), got.Timestamp)
	})

	t.Run("equal timestamp is discarded", func(t *testing.T) {
		var view CurrentView
		first := readingAt(base)
		first.Temperature = 20
		view.Apply(first)

		dup := readingAt(base)
		dup.Temperature = 99
		assert.False(t, view.Apply(dup))
		got, _ := view.Reading()
		assert.Equal(t, 20.0, got.Temperature)
	})

	t.Run("older is discarded", func(t *testing.T) {
		var view CurrentView
		view.Apply(readingAt(base))
		assert.False(t, view.Apply(readingAt(base.Add(-time.Minute))))
		got, _ := view.Reading()
		assert.Equal(t, base, got.Timestamp)
	})

	t.Run("replaying the same sequence is a no-op", func(t *testing.T) {
		var view CurrentView
		seq := []types.Reading{
			readingAt(base),
			readingAt(base.Add(time.Second)),
			readingAt(base.Add(2 * time.Second)),
		}
		for _, r := range seq {
			view.Apply(r)
		}
		want, _ := view.Reading()
		for _, r := range seq {
			assert.False(t, view.Apply(r))
		}
		got, _ := view.Reading()
		assert.Equal(t, want, got)
	})

	t.Run("order of arrival does not matter", func(t *testing.T) {
		var forward, backward CurrentView
		a, b, c := readingAt(base), readingAt(base.Add(time.Second)), readingAt(base.Add(2*time.Second))
		for _, r := range []types.Reading{a, b, c} {
			forward.Apply(r)
		}
		for _, r := range []types.Reading{c, b, a} {
			backward.Apply(r)
		}
		f, _ := forward.Reading()
		bk, _ := backward.Reading()
		assert.Equal(t, f, bk)
	})
}
