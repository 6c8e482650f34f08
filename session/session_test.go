// depth-recorder - record synchronised infrared, depth and colour frames
//  Copyright (C) 2020, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package session

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

func TestVerifyAligned(t *testing.T) {
	ir := []int64{0, 333333, 666666}
	color := []int64{5000, 340000, 766666}
	assert.NoError(t, Verify(ir, ir, color))
	assert.NoError(t, Verify(nil, nil, nil))
}

func TestVerifyColorOffset(t *testing.T) {
	ir := []int64{1000000}
	err := Verify(ir, []int64{1000000}, []int64{1200000})
	assert.True(t, errors.Is(err, ErrFrameDropping))
	assert.Contains(t, err.Error(), "frame dropping occurred")

	// The limit itself is accepted.
	assert.NoError(t, Verify(ir, ir, []int64{1100000}))
	assert.Error(t, Verify(ir, ir, []int64{1100001}))
	assert.NoError(t, Verify(ir, ir, []int64{900000}))
}

func TestVerifyCounts(t *testing.T) {
	err := Verify([]int64{0, 1}, []int64{0}, []int64{0, 1})
	assert.True(t, errors.Is(err, ErrFrameDropping))
	assert.Contains(t, err.Error(), "2 infrared, 1 depth and 2 color")
}

func TestVerifyDepthMismatch(t *testing.T) {
	err := Verify([]int64{0, 10}, []int64{0, 11}, []int64{0, 10})
	assert.True(t, errors.Is(err, ErrFrameDropping))
}

func TestSessionVerify(t *testing.T) {
	s := New("/tmp/x")
	s.SetAnchor(1000000)
	assert.True(t, s.Anchored())
	assert.Equal(t, int64(200), s.Relative(1000200))

	for _, kind := range stream.Kinds {
		s.AddRecorded(kind, 0)
	}
	assert.NoError(t, s.Verify())
	s.AddRecorded(stream.Color, 10)
	assert.Error(t, s.Verify())
}

func TestFrameFileName(t *testing.T) {
	assert.Equal(t, "0000.000000.pgm", FrameFileName(0, "pgm"))
	assert.Equal(t, "0000.100000.pgm", FrameFileName(1000000, "pgm"))
	assert.Equal(t, "0000.300000.ppm", FrameFileName(3000000, "ppm"))
	assert.Equal(t, "0012.345678.bmp", FrameFileName(123456780, "bmp"))
	assert.Equal(t, "/a/ir/0001.000000.pgm", FramePath("/a", stream.Infrared, 10000000, "pgm"))
}

func TestParseFrameFileName(t *testing.T) {
	for _, ts := range []int64{0, 10, 1000000, 3333330, 123456780} {
		got, err := ParseFrameFileName(FrameFileName(ts, "pgm"))
		require.NoError(t, err)
		assert.Equal(t, ts, got)
	}
	_, err := ParseFrameFileName("still.png")
	assert.Error(t, err)
}

func TestReadRecorded(t *testing.T) {
	dir, err := ioutil.TempDir("", "session-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, kind := range stream.Kinds {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, kind.Subdir()), 0755))
	}
	for _, ts := range []int64{2000000, 0, 1000000} {
		touch(t, FramePath(dir, stream.Infrared, ts, "pgm"))
		touch(t, FramePath(dir, stream.Depth, ts, "pgm"))
		touch(t, FramePath(dir, stream.Color, ts+50000, "bmp"))
	}
	touch(t, filepath.Join(dir, "ir", "notes.txt"))

	recorded, err := ReadRecorded(dir)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1000000, 2000000}, recorded[stream.Infrared])
	assert.Equal(t, []int64{0, 1000000, 2000000}, recorded[stream.Depth])
	assert.Equal(t, []int64{50000, 1050000, 2050000}, recorded[stream.Color])
	assert.NoError(t, Verify(recorded[0], recorded[1], recorded[2]))
}

func TestManifestRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "session-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s := New(dir)
	s.SetAnchor(42)
	s.Started = time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC)
	s.Ended = s.Started.Add(time.Minute)
	s.AddRecorded(stream.Infrared, 0)
	s.AddRecorded(stream.Depth, 0)
	s.AddFailure(stream.Color)
	s.AddDropped(stream.Color)

	m := s.Manifest(stream.BMP, s.Verify())
	m.DeviceName = "kinect-rig"
	require.NoError(t, WriteManifest(dir, m))

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "kinect-rig", got.DeviceName)
	assert.Equal(t, int64(42), got.Anchor)
	assert.Equal(t, "bmp", got.ColorFormat)
	assert.Equal(t, map[string]int{"infrared": 1, "depth": 1, "color": 0}, got.Frames)
	assert.Equal(t, map[string]int{"color": 1}, got.Failures)
	assert.Equal(t, map[string]int{"color": 1}, got.Dropped)
	assert.False(t, got.Verified)
	assert.Contains(t, got.VerifyError, "frame dropping")
	assert.True(t, s.Started.Equal(got.Started))
}

func touch(t *testing.T, filename string) {
	require.NoError(t, ioutil.WriteFile(filename, nil, 0644))
}
