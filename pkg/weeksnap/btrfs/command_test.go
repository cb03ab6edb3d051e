package btrfs_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/btrfs"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const showOutput = `/mnt/data/.snapshots/head
	Name: 			head
	UUID: 			6d1f0c5e-0d0b-2d4b-9c43-5b8f3f2a1c11
	Parent UUID: 		8a7e2f7c-3b1a-cc4e-a3a4-1f0e2b9d7e55
	Received UUID: 		-
	Creation time: 		2023-01-02 03:04:05 +0900
	Subvolume ID: 		261
	Generation: 		1234
	Gen at creation: 	1234
	Parent ID: 		5
	Top level ID: 		5
	Flags: 			readonly
`

func TestParseCreationTime(t *testing.T) {
	t.Run("parses btrfs-progs output", func(t *testing.T) {
		got, err := btrfs.ParseCreationTime([]byte(showOutput))
		require.NoError(t, err)

		want := time.Date(2023, 1, 2, 3, 4, 5, 0, time.FixedZone("", 9*60*60))
		assert.True(t, got.Equal(want), "got %v, want %v", got, want)
		assert.Equal(t, "Sun", types.SlotFor(got, time.UTC), "weekday follows the calendar of the location")
		assert.Equal(t, "Mon", types.SlotFor(got, time.FixedZone("JST", 9*60*60)))
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := btrfs.ParseCreationTime([]byte("Name: head\n"))
		assert.ErrorIs(t, err, btrfs.ErrNoCreationTime)
	})

	t.Run("placeholder value", func(t *testing.T) {
		_, err := btrfs.ParseCreationTime([]byte("\tCreation time: \t-\n"))
		assert.ErrorIs(t, err, btrfs.ErrNoCreationTime)
	})

	t.Run("malformed value", func(t *testing.T) {
		_, err := btrfs.ParseCreationTime([]byte("Creation time: yesterday\n"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, btrfs.ErrNoCreationTime)
	})
}

func TestOpen(t *testing.T) {
	tests := []struct {
		backend string
		want    interface{}
		wantErr bool
	}{
		{backend: "", want: &btrfs.Native{}},
		{backend: "ioctl", want: &btrfs.Native{}},
		{backend: "CLI", want: &btrfs.Command{}},
		{backend: "zfs", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			vol, err := btrfs.Open(tt.backend, "")
			if tt.wantErr {
				assert.ErrorIs(t, err, btrfs.ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, vol)
		})
	}
}

func TestCommandRejectsNonSubvolumes(t *testing.T) {
	calls := 0
	runner := func(name string, args ...string) ([]byte, error) {
		calls++
		return nil, errors.New("should not run")
	}
	cmd := btrfs.NewCommandWithRunner("/usr/bin/btrfs", runner)

	dir := t.TempDir()

	err := cmd.CreateSnapshot(dir, filepath.Join(dir, "snap"), true)
	assert.ErrorIs(t, err, types.ErrCreation)

	_, err = cmd.CreationTime(dir)
	assert.ErrorIs(t, err, types.ErrInspection)

	err = cmd.DeleteSubvolume(dir, true)
	assert.ErrorIs(t, err, types.ErrDeletion)

	assert.Zero(t, calls, "btrfs tool must not run for a non-subvolume path")
}
