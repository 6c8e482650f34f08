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
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// FrameFileName is the file name for a frame at session time ts, in
// seconds with microsecond precision, e.g. "0012.345678.pgm".
func FrameFileName(ts int64, ext string) string {
	return fmt.Sprintf("%011.6f.%s", float64(ts)/stream.TicksPerSecond, ext)
}

// ParseFrameFileName recovers the session time from a FrameFileName.
func ParseFrameFileName(name string) (int64, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	secs, err := strconv.ParseFloat(base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame file name %q", name)
	}
	// Names carry microseconds, so round to the nearest 10 ticks.
	return int64(secs*stream.TicksPerSecond/10+0.5) * 10, nil
}

// FramePath is the path of a recorded frame below the session folder.
func FramePath(dir string, kind stream.Kind, ts int64, ext string) string {
	return filepath.Join(dir, kind.Subdir(), FrameFileName(ts, ext))
}

var frameExts = map[string]bool{".pgm": true, ".ppm": true, ".bmp": true}

// ReadRecorded rebuilds the recorded timestamp lists of a session folder
// from the frame file names, in file name order.
func ReadRecorded(dir string) ([stream.NumKinds][]int64, error) {
	var recorded [stream.NumKinds][]int64
	for _, kind := range stream.Kinds {
		infos, err := ioutil.ReadDir(filepath.Join(dir, kind.Subdir()))
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return recorded, err
		}
		for _, info := range infos {
			if info.IsDir() || !frameExts[filepath.Ext(info.Name())] {
				continue
			}
			ts, err := ParseFrameFileName(info.Name())
			if err != nil {
				return recorded, err
			}
			recorded[kind] = append(recorded[kind], ts)
		}
	}
	return recorded, nil
}
