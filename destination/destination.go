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

package destination

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Dimension is the kind of tracking target being recorded.
type Dimension int

const (
	TwoD Dimension = iota
	ThreeD
)

func (d Dimension) String() string {
	if d == ThreeD {
		return "3D"
	}
	return "2D"
}

// Option is a selectable value and the code used for it in folder names.
type Option struct {
	Name string
	Code string
}

var (
	Models2D = []Option{
		{"Wing", "wi"},
		{"Duck", "du"},
		{"City", "ci"},
		{"Beach", "be"},
		{"Firework", "fi"},
		{"Maple", "ma"},
	}
	Models3D = []Option{
		{"Soda", "so"},
		{"Chest", "ch"},
		{"Ironman", "ir"},
		{"House", "ho"},
		{"Bike", "bi"},
		{"Jet", "je"},
	}
	Motions = []Option{
		{"Translation", "tr"},
		{"Zoom", "zo"},
		{"In-plane Rotation", "ir"},
		{"Out-of-plane Rotation", "or"},
		{"Flashing Light", "fl"},
		{"Moving Light", "ml"},
		{"Free Movement", "fm"},
	}
	Sides = []Option{
		{"Front", "f"},
		{"Left", "l"},
		{"Back", "b"},
		{"Right", "r"},
	}
)

const (
	// NumLevels is the number of motion levels.
	NumLevels = 5
	// Only the first levelledMotions motion types take a level.
	levelledMotions = 4
)

// ErrInvalidSelection is returned for selections outside the option lists.
var ErrInvalidSelection = errors.New("invalid destination selection")

// Selection identifies the folder a recording is written to. Model,
// Motion and Side index the option lists; Level counts from 1.
type Selection struct {
	Dimension Dimension
	Model     int
	Motion    int
	Level     int
	Side      int
}

// Default is the selection in effect before any is made.
var Default = Selection{Dimension: TwoD, Level: 1}

// Models returns the model options for d.
func Models(d Dimension) []Option {
	if d == ThreeD {
		return Models3D
	}
	return Models2D
}

// HasLevel reports whether the motion type takes a level.
func (s Selection) HasLevel() bool {
	return s.Motion < levelledMotions
}

// HasSide reports whether the selection takes a side.
func (s Selection) HasSide() bool {
	return s.Dimension == ThreeD
}

func (s Selection) Validate() error {
	if s.Dimension != TwoD && s.Dimension != ThreeD {
		return fmt.Errorf("%w: dimension %d", ErrInvalidSelection, int(s.Dimension))
	}
	if s.Model < 0 || s.Model >= len(Models(s.Dimension)) {
		return fmt.Errorf("%w: model %d", ErrInvalidSelection, s.Model)
	}
	if s.Motion < 0 || s.Motion >= len(Motions) {
		return fmt.Errorf("%w: motion %d", ErrInvalidSelection, s.Motion)
	}
	if s.HasLevel() && (s.Level < 1 || s.Level > NumLevels) {
		return fmt.Errorf("%w: level %d", ErrInvalidSelection, s.Level)
	}
	if s.HasSide() && (s.Side < 0 || s.Side >= len(Sides)) {
		return fmt.Errorf("%w: side %d", ErrInvalidSelection, s.Side)
	}
	return nil
}

// Name is the recording folder name, for example "ir_or_3_l".
func (s Selection) Name() string {
	var b strings.Builder
	b.WriteString(Models(s.Dimension)[s.Model].Code)
	b.WriteString("_")
	b.WriteString(Motions[s.Motion].Code)
	if s.HasLevel() {
		b.WriteString("_")
		b.WriteString(strconv.Itoa(s.Level))
	}
	if s.HasSide() {
		b.WriteString("_")
		b.WriteString(Sides[s.Side].Code)
	}
	return b.String()
}

// ModelFolder is the top level folder, "2D" or "3D".
func (s Selection) ModelFolder() string {
	return s.Dimension.String()
}

// Folder is the recording folder relative to the output directory.
func (s Selection) Folder() string {
	return filepath.Join(s.ModelFolder(), s.Name())
}

func (s Selection) String() string {
	desc := fmt.Sprintf("%s %s, %s", s.Dimension, Models(s.Dimension)[s.Model].Name, Motions[s.Motion].Name)
	if s.HasLevel() {
		desc += fmt.Sprintf(", level %d", s.Level)
	}
	if s.HasSide() {
		desc += ", " + Sides[s.Side].Name
	}
	return desc
}

// Parse builds a Selection from option names or codes. Level and side
// are ignored when the selection doesn't take them.
func Parse(dimension, model, motion string, level int, side string) (Selection, error) {
	var s Selection
	switch strings.ToUpper(dimension) {
	case "2D", "":
		s.Dimension = TwoD
	case "3D":
		s.Dimension = ThreeD
	default:
		return s, fmt.Errorf("%w: dimension %q", ErrInvalidSelection, dimension)
	}

	var err error
	if s.Model, err = find(Models(s.Dimension), "model", model); err != nil {
		return s, err
	}
	if s.Motion, err = find(Motions, "motion", motion); err != nil {
		return s, err
	}
	if s.HasLevel() {
		s.Level = level
	}
	if s.HasSide() {
		if s.Side, err = find(Sides, "side", side); err != nil {
			return s, err
		}
	}
	return s, s.Validate()
}

func find(options []Option, what, value string) (int, error) {
	for i, o := range options {
		if strings.EqualFold(value, o.Name) || strings.EqualFold(value, o.Code) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q", ErrInvalidSelection, what, value)
}
