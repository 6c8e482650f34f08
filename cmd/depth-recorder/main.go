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
	"context"
	"log"
	"net"
	"os"

	config "github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"
	"periph.io/x/periph/host"

	"github.com/TheCacophonyProject/depth-recorder/camera"
	"github.com/TheCacophonyProject/depth-recorder/metrics"
	"github.com/TheCacophonyProject/depth-recorder/preview"
	"github.com/TheCacophonyProject/depth-recorder/recorder"
	"github.com/TheCacophonyProject/depth-recorder/status"
	"github.com/TheCacophonyProject/depth-recorder/stream"
)

const ticksPerSdNotify = 200

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	ConfigDir  string `arg:"--config-dir" help:"path to the device configuration directory"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose    bool   `arg:"-v,--verbose" help:"abort recordings when a stream drops frames"`
	Quick      bool   `arg:"-q,--quick" help:"don't cycle camera power on startup"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/depth-recorder.yaml"
	args.ConfigDir = config.DefaultConfigDir
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

	log.Printf("running version: %s", version)
	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	if args.Verbose {
		conf.Recorder.Verbose = true
	}
	conf.Recorder.PicturesDir = homeRelative(conf.Recorder.PicturesDir)
	readDevice(conf, args.ConfigDir)
	logConfig(conf)

	log.Print("host initialisation")
	if _, err := host.Init(); err != nil {
		return err
	}
	if !args.Quick {
		if err := cycleCameraPower(conf.PowerPin); err != nil {
			return err
		}
	}

	m := metrics.New()
	if conf.MetricsAddress != "" {
		go func() {
			log.Printf("metrics server ended with: %v", m.ListenAndServe(conf.MetricsAddress))
		}()
	}

	snapshots := preview.NewSnapshotter(conf.Recorder.OutputDir)
	log.Print("deleting old snapshots")
	snapshots.Delete()

	reporter := status.New(conf.Recorder.StatusInterval, nil)
	rec, err := recorder.New(conf.Recorder, stream.New(conf.Recorder.Format()), snapshots, reporter, m)
	if err != nil {
		return err
	}
	defer rec.Close()

	ticks := 0
	rec.OnTick = func() {
		if ticks++; ticks >= ticksPerSdNotify {
			daemon.SdNotify(false, "WATCHDOG=1")
			ticks = 0
		}
	}

	log.Print("starting d-bus service")
	if err := startService(rec, snapshots); err != nil {
		return err
	}
	daemon.SdNotify(false, "READY=1")

	for {
		// Set up listener for frames sent by the camera bridge.
		os.Remove(conf.FrameInput)
		listener, err := net.Listen("unix", conf.FrameInput)
		if err != nil {
			return err
		}
		log.Print("waiting for camera connection")

		conn, err := listener.Accept()
		if err != nil {
			log.Printf("socket accept failed: %v", err)
			continue
		}

		// Prevent concurrent connections.
		listener.Close()

		err = handleConn(conn, rec)
		log.Printf("camera connection ended with: %v", err)
	}
}

func handleConn(conn net.Conn, rec *recorder.Recorder) error {
	cam := camera.NewSocketCamera(conn)
	err := rec.Run(context.Background(), cam)
	for _, kind := range stream.Kinds {
		log.Printf("%d %s frames for this connection", cam.Received(kind), kind)
	}
	return err
}

func logConfig(conf *Config) {
	log.Printf("device name: %s", conf.Recorder.DeviceName)
	log.Printf("frame input: %s", conf.FrameInput)
	log.Printf("output dir: %s", conf.Recorder.OutputDir)
	log.Printf("pictures dir: %s", conf.Recorder.PicturesDir)
	log.Printf("color format: %s", conf.Recorder.ColorFormat)
	log.Printf("verbose: %v (min fps %.1f)", conf.Recorder.Verbose, conf.Recorder.MinFPS)
	log.Printf("poll interval: %v", conf.Recorder.PollInterval)
	if conf.PowerPin != "" {
		log.Printf("power pin: %s", conf.PowerPin)
	}
	if conf.MetricsAddress != "" {
		log.Printf("metrics address: %s", conf.MetricsAddress)
	}
}
