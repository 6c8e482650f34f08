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
	"io/ioutil"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// ManifestName is the file written into each session folder.
const ManifestName = "session.yaml"

// Manifest describes a finished session.
type Manifest struct {
	DeviceName  string         `yaml:"device-name,omitempty"`
	DeviceID    int            `yaml:"device-id,omitempty"`
	Destination string         `yaml:"destination"`
	Anchor      int64          `yaml:"anchor"`
	Started     time.Time      `yaml:"started"`
	Ended       time.Time      `yaml:"ended"`
	ColorFormat string         `yaml:"color-format"`
	Frames      map[string]int `yaml:"frames"`
	Failures    map[string]int `yaml:"failures,omitempty"`
	Dropped     map[string]int `yaml:"dropped,omitempty"`
	Aborted     string         `yaml:"aborted,omitempty"`
	Verified    bool           `yaml:"verified"`
	VerifyError string         `yaml:"verify-error,omitempty"`
}

// Manifest summarises the session. verifyErr is the result of Verify.
func (s *Session) Manifest(colorFormat stream.ColorFormat, verifyErr error) *Manifest {
	m := &Manifest{
		Destination: s.Dir,
		Anchor:      s.Anchor,
		Started:     s.Started,
		Ended:       s.Ended,
		ColorFormat: colorFormat.String(),
		Frames:      make(map[string]int),
		Verified:    verifyErr == nil,
	}
	if verifyErr != nil {
		m.VerifyError = verifyErr.Error()
	}
	for _, kind := range stream.Kinds {
		m.Frames[kind.String()] = len(s.Recorded(kind))
		if n := s.Failures(kind); n > 0 {
			if m.Failures == nil {
				m.Failures = make(map[string]int)
			}
			m.Failures[kind.String()] = n
		}
		if n := s.Dropped(kind); n > 0 {
			if m.Dropped == nil {
				m.Dropped = make(map[string]int)
			}
			m.Dropped[kind.String()] = n
		}
	}
	return m
}

// WriteManifest saves m as ManifestName in dir.
func WriteManifest(dir string, m *Manifest) error {
	buf, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filepath.Join(dir, ManifestName), buf, 0644)
}

// ReadManifest loads the manifest from a session folder.
func ReadManifest(dir string) (*Manifest, error) {
	buf, err := ioutil.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	m := new(Manifest)
	if err := yaml.Unmarshal(buf, m); err != nil {
		return nil, err
	}
	return m, nil
}
