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

package main

import (
	"errors"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	goconfig "github.com/TheCacophonyProject/go-config"
	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/depth-recorder/recorder"
)

type Config struct {
	FrameInput     string                  `yaml:"frame-input"`
	PowerPin       string                  `yaml:"power-pin"`
	MetricsAddress string                  `yaml:"metrics-address"`
	Recorder       recorder.RecorderConfig `yaml:",inline"`
}

var defaultConfig = Config{
	FrameInput: "/var/run/depth-frames",
	Recorder:   recorder.DefaultRecorderConfig(),
}

func (conf *Config) Validate() error {
	if conf.FrameInput == "" {
		return errors.New("frame-input must be set")
	}
	return conf.Recorder.Validate()
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// readDevice fills in the device identity from the Cacophony config
// directory. A device that hasn't been registered has no identity.
func readDevice(conf *Config, configDir string) {
	configRW, err := goconfig.New(configDir)
	if err != nil {
		log.Printf("failed to read device config: %v", err)
		return
	}
	var deviceConfig goconfig.Device
	if err := configRW.Unmarshal(goconfig.DeviceKey, &deviceConfig); err != nil {
		log.Printf("failed to read device config: %v", err)
		return
	}
	conf.Recorder.DeviceID = deviceConfig.ID
	conf.Recorder.DeviceName = deviceConfig.Name
}

// homeRelative resolves relative paths against the user's home directory.
func homeRelative(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path)
}
