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

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/TheCacophonyProject/depth-recorder/destination"
	"github.com/TheCacophonyProject/depth-recorder/recorder"
)

const (
	dbusName = "org.cacophony.depthrecorder"
	dbusPath = "/org/cacophony/depthrecorder"
)

type controller interface {
	Record(on bool) error
	TakeShot() error
	SetSelection(destination.Selection) error
	Status() recorder.Status
}

type snapshotRequester interface {
	Request() error
}

type service struct {
	rec       controller
	snapshots snapshotRequester
}

func startService(rec controller, snapshots snapshotRequester) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{
		rec:       rec,
		snapshots: snapshots,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// Record starts or stops a recording.
func (s *service) Record(on bool) *dbus.Error {
	if err := s.rec.Record(on); err != nil {
		return makeDbusError("Record", err)
	}
	return nil
}

// TakeShot saves the next aligned frames as a calibration shot.
func (s *service) TakeShot() *dbus.Error {
	if err := s.rec.TakeShot(); err != nil {
		return makeDbusError("TakeShot", err)
	}
	return nil
}

// SetSelection chooses the folder for the next recording. Options may be
// given by name or folder code, e.g. ("3D", "Ironman", "or", 3, "l").
func (s *service) SetSelection(dimension, model, motion string, level int32, side string) *dbus.Error {
	sel, err := destination.Parse(dimension, model, motion, int(level), side)
	if err != nil {
		return makeDbusError("SetSelection", err)
	}
	if err := s.rec.SetSelection(sel); err != nil {
		return makeDbusError("SetSelection", err)
	}
	return nil
}

// Status returns the recorder state, the current recording folder, the
// status line and the frame rate of each stream.
func (s *service) Status() (string, string, string, []float64, *dbus.Error) {
	st := s.rec.Status()
	return st.State.String(), st.Folder, st.Message, st.FPS[:], nil
}

// TakeSnapshot saves the next preview frame of each stream as a still.
func (s *service) TakeSnapshot() *dbus.Error {
	if err := s.snapshots.Request(); err != nil {
		return makeDbusError("TakeSnapshot", err)
	}
	return nil
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
