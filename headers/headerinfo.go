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

package headers

import (
	"bufio"
	"bytes"
	"strings"

	"gopkg.in/yaml.v1"

	"github.com/TheCacophonyProject/depth-recorder/stream"
)

// Header fields sent by a camera bridge.
const (
	Brand  = "brand"
	Model  = "model"
	Serial = "serial"
	FPS    = "fps"

	resXSuffix = "-res-x"
	resYSuffix = "-res-y"
)

// HeaderInfo contains the camera description fields sent by a camera
// bridge before its frames.
type HeaderInfo struct {
	resX   [stream.NumKinds]int
	resY   [stream.NumKinds]int
	fps    int
	brand  string
	model  string
	serial string
}

// New returns a HeaderInfo describing a camera with the native sensor
// geometry.
func New(brand, model, serial string, fps int) *HeaderInfo {
	return &HeaderInfo{
		resX:   [stream.NumKinds]int{stream.InfraredWidth, stream.DepthWidth, stream.ColorWidth},
		resY:   [stream.NumKinds]int{stream.InfraredHeight, stream.DepthHeight, stream.ColorHeight},
		fps:    fps,
		brand:  brand,
		model:  model,
		serial: serial,
	}
}

// SetRes overrides the resolution of one stream.
func (h *HeaderInfo) SetRes(kind stream.Kind, x, y int) {
	h.resX[kind] = x
	h.resY[kind] = y
}

// ResX returns the width of the kind stream.
func (h *HeaderInfo) ResX(kind stream.Kind) int {
	return h.resX[kind]
}

// ResY returns the height of the kind stream.
func (h *HeaderInfo) ResY(kind stream.Kind) int {
	return h.resY[kind]
}

// FPS returns the nominal frame rate of every stream.
func (h *HeaderInfo) FPS() int {
	return h.fps
}

// Model returns the camera model.
func (h *HeaderInfo) Model() string {
	return h.model
}

// Brand returns the camera brand.
func (h *HeaderInfo) Brand() string {
	return h.brand
}

// Serial returns the camera serial number.
func (h *HeaderInfo) Serial() string {
	return h.serial
}

// Marshal encodes the header as sent on the wire, terminated by an
// empty line.
func (h *HeaderInfo) Marshal() ([]byte, error) {
	m := map[string]interface{}{
		Brand:  h.brand,
		Model:  h.model,
		Serial: h.serial,
		FPS:    h.fps,
	}
	for _, kind := range stream.Kinds {
		m[kind.String()+resXSuffix] = h.resX[kind]
		m[kind.String()+resYSuffix] = h.resY[kind]
	}
	buf, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

func ReadHeaderInfo(reader *bufio.Reader) (*HeaderInfo, error) {
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString(byte('\n'))
		if err != nil {
			return nil, err
		}
		if strings.Trim(line, " ") == "\n" {
			break
		}
		buf.WriteString(line)
	}
	h := make(map[string]interface{})
	err := yaml.Unmarshal(buf.Bytes(), &h)
	if err != nil {
		return nil, err
	}

	info := &HeaderInfo{
		fps:    toInt(h[FPS]),
		brand:  toStr(h[Brand]),
		model:  toStr(h[Model]),
		serial: toStr(h[Serial]),
	}
	for _, kind := range stream.Kinds {
		info.resX[kind] = toInt(h[kind.String()+resXSuffix])
		info.resY[kind] = toInt(h[kind.String()+resYSuffix])
	}
	return info, nil
}

func toInt(v interface{}) int {
	out, ok := v.(int)
	if !ok {
		return 0
	}
	return out
}

func toStr(v interface{}) string {
	out, ok := v.(string)
	if !ok {
		return ""
	}
	return out
}
