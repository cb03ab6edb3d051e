package rotator_test

import (
	"testing"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	t.Run("first run", func(t *testing.T) {
		h := newHarness(t)

		p, err := h.rot.Plan(volume)
		require.NoError(t, err)
		assert.Nil(t, p.File)
		assert.Equal(t, []string{"Snapshot " + headPath + " would be created"}, p.Steps())
		assert.Empty(t, h.fake.Calls)
	})

	t.Run("replacing run", func(t *testing.T) {
		h := newHarness(t)
		h.fake.AddSubvolume(monPath, monday.AddDate(0, 0, -7))
		h.fake.AddSubvolume(headPath, monday)

		p, err := h.rot.Plan(volume)
		require.NoError(t, err)
		require.NotNil(t, p.File)
		assert.Equal(t, "Mon", p.File.Slot)
		assert.True(t, p.File.Replaced)
		assert.Equal(t, []string{
			"Snapshot " + monPath + " would be deleted",
			"Snapshot " + headPath + " would be renamed to " + monPath,
			"Snapshot " + headPath + " would be created",
		}, p.Steps())
		assert.Empty(t, h.fake.Calls, "plan never mutates")
	})

	t.Run("not a volume", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.rot.Plan("/nowhere")
		assert.ErrorIs(t, err, types.ErrNotAVolume)
	})
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	h.fake.AddSubvolume(headPath, monday)
	h.fake.AddSubvolume(tuePath, monday.AddDate(0, 0, -6))
	// Filed by hand on the wrong day.
	h.fake.AddSubvolume(volume+"/.snapshots/Fri", monday.AddDate(0, 0, -1))

	slots, err := h.rot.Status(volume)
	require.NoError(t, err)
	require.Len(t, slots, 8)

	assert.Equal(t, types.HeadSlot, slots[0].Slot)
	assert.True(t, slots[0].Present)
	assert.Equal(t, monday, slots[0].Created)

	byName := map[string]int{}
	for i, s := range slots {
		byName[s.Slot] = i
	}
	tue := slots[byName["Tue"]]
	assert.True(t, tue.Present)
	assert.False(t, tue.Mismatched(time.UTC))

	fri := slots[byName["Fri"]]
	assert.True(t, fri.Mismatched(time.UTC))

	wed := slots[byName["Wed"]]
	assert.False(t, wed.Present)
	assert.True(t, wed.Created.IsZero())

	assert.Empty(t, h.fake.Calls)
}

func TestStatusReportsSubvolumeErrors(t *testing.T) {
	h := newHarness(t)
	h.fake.SubvolumeErr[monPath] = assert.AnError

	slots, err := h.rot.Status(volume)
	require.NoError(t, err)
	for _, s := range slots {
		if s.Slot == "Mon" {
			assert.Equal(t, assert.AnError.Error(), s.Error)
		} else {
			assert.Empty(t, s.Error)
		}
	}
}
