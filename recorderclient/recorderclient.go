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

package recorderclient

import "github.com/godbus/dbus"

const (
	dbusPath   = "/org/cacophony/depthrecorder"
	dbusDest   = "org.cacophony.depthrecorder"
	methodBase = "org.cacophony.depthrecorder"
)

// Status is the recorder state as reported over D-Bus.
type Status struct {
	State   string
	Folder  string
	Message string
	FPS     []float64
}

func getDbusObj() (dbus.BusObject, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	obj := conn.Object(dbusDest, dbusPath)
	return obj, nil
}

func Record(on bool) error {
	obj, err := getDbusObj()
	if err != nil {
		return err
	}
	return obj.Call(methodBase+".Record", 0, on).Store()
}

func TakeShot() error {
	obj, err := getDbusObj()
	if err != nil {
		return err
	}
	return obj.Call(methodBase+".TakeShot", 0).Store()
}

func TakeSnapshot() error {
	obj, err := getDbusObj()
	if err != nil {
		return err
	}
	return obj.Call(methodBase+".TakeSnapshot", 0).Store()
}

func SetSelection(dimension, model, motion string, level int, side string) error {
	obj, err := getDbusObj()
	if err != nil {
		return err
	}
	return obj.Call(methodBase+".SetSelection", 0, dimension, model, motion, int32(level), side).Store()
}

func GetStatus() (*Status, error) {
	obj, err := getDbusObj()
	if err != nil {
		return nil, err
	}
	st := new(Status)
	if err := obj.Call(methodBase+".Status", 0).Store(&st.State, &st.Folder, &st.Message, &st.FPS); err != nil {
		return nil, err
	}
	return st, nil
}
