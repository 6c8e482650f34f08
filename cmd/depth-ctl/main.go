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
	"fmt"
	"log"
	"strings"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/depth-recorder/recorderclient"
)

var version = "<not set>"

type Args struct {
	Record    string `arg:"-r,--record" help:"start (on) or stop (off) a recording"`
	Shot      bool   `arg:"-s,--shot" help:"take a calibration shot"`
	Snapshot  bool   `arg:"--snapshot" help:"save preview stills"`
	Dimension string `arg:"--dimension" help:"select 2D or 3D"`
	Model     string `arg:"--model" help:"model name or code"`
	Motion    string `arg:"--motion" help:"motion type name or code"`
	Level     int    `arg:"--level" help:"motion level, 1 to 5"`
	Side      string `arg:"--side" help:"side for 3D models"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.Level = 1
	arg.MustParse(&args)
	return args
}

func main() {
	log.SetFlags(0)
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()

	if args.Model != "" {
		if err := recorderclient.SetSelection(args.Dimension, args.Model, args.Motion, args.Level, args.Side); err != nil {
			return err
		}
	}
	if args.Record != "" {
		on, err := parseOnOff(args.Record)
		if err != nil {
			return err
		}
		if err := recorderclient.Record(on); err != nil {
			return err
		}
	}
	if args.Shot {
		if err := recorderclient.TakeShot(); err != nil {
			return err
		}
	}
	if args.Snapshot {
		if err := recorderclient.TakeSnapshot(); err != nil {
			return err
		}
	}

	st, err := recorderclient.GetStatus()
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(st))
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "start", "true", "1":
		return true, nil
	case "off", "stop", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid record value %q, expected on or off", s)
}

func formatStatus(st *recorderclient.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state:  %s\n", st.State)
	fmt.Fprintf(&b, "folder: %s\n", st.Folder)
	if len(st.FPS) == 3 {
		fmt.Fprintf(&b, "fps:    infrared %.2f, depth %.2f, color %.2f\n", st.FPS[0], st.FPS[1], st.FPS[2])
	}
	if st.Message != "" {
		fmt.Fprintf(&b, "status: %s\n", st.Message)
	}
	return b.String()
}
