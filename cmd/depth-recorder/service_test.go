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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/depth-recorder/destination"
	"github.com/TheCacophonyProject/depth-recorder/recorder"
)

type fakeController struct {
	recording bool
	shots     int
	selection destination.Selection
	err       error
}

func (c *fakeController) Record(on bool) error {
	if c.err != nil {
		return c.err
	}
	c.recording = on
	return nil
}

func (c *fakeController) TakeShot() error {
	if c.err != nil {
		return c.err
	}
	c.shots++
	return nil
}

func (c *fakeController) SetSelection(sel destination.Selection) error {
	if c.err != nil {
		return c.err
	}
	c.selection = sel
	return nil
}

func (c *fakeController) Status() recorder.Status {
	st := recorder.Status{Folder: "/out/2D/wi_tr_1", Message: "ok"}
	if c.recording {
		st.State = recorder.Recording
	}
	st.FPS[1] = 30
	return st
}

type fakeSnapshots struct {
	requests int
}

func (s *fakeSnapshots) Request() error {
	s.requests++
	return nil
}

func TestServiceControl(t *testing.T) {
	c := new(fakeController)
	snaps := new(fakeSnapshots)
	s := &service{rec: c, snapshots: snaps}

	require.Nil(t, s.Record(true))
	assert.True(t, c.recording)
	state, folder, msg, fps, dErr := s.Status()
	require.Nil(t, dErr)
	assert.Equal(t, "recording", state)
	assert.Equal(t, "/out/2D/wi_tr_1", folder)
	assert.Equal(t, "ok", msg)
	assert.Equal(t, []float64{0, 30, 0}, fps)

	require.Nil(t, s.TakeShot())
	assert.Equal(t, 1, c.shots)

	require.Nil(t, s.SetSelection("3D", "Ironman", "or", 3, "l"))
	assert.Equal(t, "3D/ir_or_3_l", c.selection.Folder())

	require.Nil(t, s.TakeSnapshot())
	assert.Equal(t, 1, snaps.requests)
}

func TestServiceErrors(t *testing.T) {
	c := &fakeController{err: recorder.ErrBusy}
	s := &service{rec: c, snapshots: new(fakeSnapshots)}

	dErr := s.Record(true)
	require.NotNil(t, dErr)
	assert.Equal(t, dbusName+".Record", dErr.Name)
	assert.Equal(t, []interface{}{recorder.ErrBusy.Error()}, dErr.Body)

	dErr = s.SetSelection("4D", "wing", "tr", 1, "")
	require.NotNil(t, dErr)
	assert.Equal(t, dbusName+".SetSelection", dErr.Name)
}

func TestMakeDbusError(t *testing.T) {
	dErr := makeDbusError("TakeShot", errors.New("boom"))
	assert.Equal(t, "org.cacophony.depthrecorder.TakeShot", dErr.Name)
	assert.Equal(t, "boom", dErr.Error())
}
