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
	"os"
	"path/filepath"

	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/depth-recorder/output"
	"github.com/TheCacophonyProject/depth-recorder/session"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

var version = "<not set>"

type Args struct {
	Dir        string `arg:"positional,required" help:"recording folder to check"`
	Decode     bool   `arg:"-d,--decode" help:"decode every infrared and depth frame"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
}

func (Args) Version() string {
	return version
}

func (Args) Description() string {
	return "Checks that a recording folder holds a complete, aligned set of frames.\n" +
		"Frame times are read back from file names, which carry microseconds, so\n" +
		"colour offsets within a microsecond of the limit may be judged differently\n" +
		"from the check made while recording."
}

func procArgs() Args {
	var args Args
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()

	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}
	return verifyDir(args.Dir, args.Decode)
}

func verifyDir(dir string, decode bool) error {
	if m, err := session.ReadManifest(dir); err == nil {
		log.Printf("recorded by %q from %v to %v, verified: %v", m.DeviceName, m.Started, m.Ended, m.Verified)
		if m.Aborted != "" {
			log.Printf("session was aborted: %s", m.Aborted)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	recorded, err := session.ReadRecorded(dir)
	if err != nil {
		return err
	}
	for _, kind := range stream.Kinds {
		log.Printf("%s: %d frames", kind, len(recorded[kind]))
	}

	if decode {
		for _, kind := range []stream.Kind{stream.Infrared, stream.Depth} {
			if err := decodeFrames(dir, kind, recorded[kind]); err != nil {
				return err
			}
		}
	}

	if err := session.Verify(recorded[stream.Infrared], recorded[stream.Depth], recorded[stream.Color]); err != nil {
		return err
	}
	log.Print("ok")
	return nil
}

func decodeFrames(dir string, kind stream.Kind, times []int64) error {
	for _, ts := range times {
		filename := session.FramePath(dir, kind, ts, "pgm")
		w, h, _, err := output.LoadPGM(filename)
		if err != nil {
			return fmt.Errorf("%s: %v", filepath.Base(filename), err)
		}
		if w != stream.InfraredWidth || h != stream.InfraredHeight {
			return fmt.Errorf("%s: unexpected size %dx%d", filepath.Base(filename), w, h)
		}
	}
	return nil
}
