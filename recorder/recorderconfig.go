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

package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/TheCacophonyProject/depth-recorder/destination"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

type RecorderConfig struct {
	OutputDir      string          `yaml:"output-dir"`
	PicturesDir    string          `yaml:"pictures-dir"`
	ColorFormat    string          `yaml:"color-format"`
	Verbose        bool            `yaml:"verbose"`
	MinFPS         float64         `yaml:"min-fps"`
	PollInterval   time.Duration   `yaml:"poll-interval"`
	WriterPoll     time.Duration   `yaml:"writer-poll"`
	StatusInterval time.Duration   `yaml:"status-interval"`
	Selection      SelectionConfig `yaml:"selection"`

	// Filled in from the device's Cacophony config.
	DeviceName string `yaml:"-"`
	DeviceID   int    `yaml:"-"`
}

type SelectionConfig struct {
	Dimension string `yaml:"dimension"`
	Model     string `yaml:"model"`
	Motion    string `yaml:"motion"`
	Level     int    `yaml:"level"`
	Side      string `yaml:"side"`
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		OutputDir:      "/var/spool/depth-recorder",
		PicturesDir:    "Pictures",
		ColorFormat:    "ppm",
		MinFPS:         29.5,
		PollInterval:   5 * time.Millisecond,
		WriterPoll:     100 * time.Microsecond,
		StatusInterval: time.Second,
		Selection: SelectionConfig{
			Dimension: "2D",
			Model:     "wing",
			Motion:    "translation",
			Level:     1,
			Side:      "front",
		},
	}
}

func (conf *RecorderConfig) Validate() error {
	if conf.OutputDir == "" {
		return errors.New("output-dir must be set")
	}
	if conf.PicturesDir == "" {
		return errors.New("pictures-dir must be set")
	}
	if _, err := stream.ParseColorFormat(conf.ColorFormat); err != nil {
		return fmt.Errorf("color-format: %v", err)
	}
	if conf.MinFPS < 0 {
		return errors.New("min-fps can't be negative")
	}
	if conf.PollInterval <= 0 {
		return errors.New("poll-interval must be greater than zero")
	}
	if conf.WriterPoll <= 0 {
		return errors.New("writer-poll must be greater than zero")
	}
	if conf.StatusInterval <= 0 {
		return errors.New("status-interval must be greater than zero")
	}
	if _, err := conf.Selection.Selection(); err != nil {
		return fmt.Errorf("selection: %v", err)
	}
	return nil
}

// Format returns the color file format. It assumes Validate passed.
func (conf *RecorderConfig) Format() stream.ColorFormat {
	format, _ := stream.ParseColorFormat(conf.ColorFormat)
	return format
}

func (sc SelectionConfig) Selection() (destination.Selection, error) {
	return destination.Parse(sc.Dimension, sc.Model, sc.Motion, sc.Level, sc.Side)
}
