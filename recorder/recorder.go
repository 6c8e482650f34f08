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
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheCacophonyProject/depth-recorder/camera"
	"github.com/TheCacophonyProject/depth-recorder/destination"
	"github.com/TheCacophonyProject/depth-recorder/frameloop"
	"github.com/TheCacophonyProject/depth-recorder/loglimiter"
	"github.com/TheCacophonyProject/depth-recorder/metrics"
	"github.com/TheCacophonyProject/depth-recorder/preview"
	"github.com/TheCacophonyProject/depth-recorder/session"
	"github.com/TheCacophonyProject/depth-recorder/status"
	"github.com/TheCacophonyProject/depth-recorder/stream"
	"github.com/TheCacophonyProject/depth-recorder/writer"
)

// State is the session controller state.
type State int

const (
	Idle State = iota
	Armed
	Recording
	Draining
	Verifying
	ShotArmed
)

var stateNames = map[State]string{
	Idle:      "idle",
	Armed:     "armed",
	Recording: "recording",
	Draining:  "draining",
	Verifying: "verifying",
	ShotArmed: "shot-armed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrFolderExists is reported when a recording would overwrite an
	// earlier one.
	ErrFolderExists = errors.New("frames already existed")
	// ErrLowFrameRate aborts a verbose recording when a stream falls
	// below the minimum frame rate.
	ErrLowFrameRate = errors.New("frame rate too low")
	ErrBusy         = errors.New("recorder is busy")
)

// Session results, as counted in metrics.
const (
	resultOK      = "ok"
	resultFailed  = "failed"
	resultAborted = "aborted"
	resultRefused = "refused"
)

// Status is a snapshot of the recorder.
type Status struct {
	State     State
	Selection destination.Selection
	Folder    string
	FPS       [stream.NumKinds]float64
	Message   string
}

// Recorder polls a camera, keeps the preview up to date and records
// sessions and calibration shots. Control methods may be called from any
// goroutine.
type Recorder struct {
	conf     RecorderConfig
	format   stream.ColorFormat
	handlers [stream.NumKinds]*handler
	writer   *writer.Writer
	display  preview.Display
	status   *status.Reporter
	notifier *Notifier
	metrics  *metrics.Metrics
	logs     *loglimiter.LogLimiter
	nowFunc  func() time.Time

	// OnTick, if set, is called after every pass over the streams.
	OnTick func()

	mu        sync.Mutex
	camera    camera.Camera
	state     State
	selection destination.Selection
	session   *session.Session
	abortErr  error
	last      *session.Manifest

	// Set when a colour frame passed a matched infrared and depth pair.
	shotMissed bool
}

// New allocates the frame loops for streams and starts the writer. conf
// must be valid.
func New(
	conf RecorderConfig,
	streams [stream.NumKinds]stream.Stream,
	display preview.Display,
	reporter *status.Reporter,
	m *metrics.Metrics,
) (*Recorder, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	selection, err := conf.Selection.Selection()
	if err != nil {
		return nil, err
	}
	if display == nil {
		display = preview.Discard{}
	}
	if reporter == nil {
		reporter = status.New(conf.StatusInterval, nil)
	}

	r := &Recorder{
		conf:      conf,
		format:    conf.Format(),
		writer:    writer.New(streams, conf.WriterPoll, m),
		display:   display,
		status:    reporter,
		notifier:  NewNotifier(reporter),
		metrics:   m,
		logs:      loglimiter.New(10 * time.Second),
		nowFunc:   time.Now,
		selection: selection,
	}
	for _, kind := range stream.Kinds {
		r.handlers[kind] = newHandler(streams[kind])
	}
	r.writer.Start()
	return r, nil
}

// Close stops the writer. Frames still queued are not written.
func (r *Recorder) Close() {
	r.writer.Stop()
}

type doneCamera interface {
	Done() <-chan struct{}
	Err() error
}

// Run opens cam and polls it until ctx is cancelled or the camera's
// connection ends. A session in progress is stopped and finished before
// Run returns.
func (r *Recorder) Run(ctx context.Context, cam camera.Camera) error {
	if err := cam.Open(); err != nil {
		r.status.Set(status.NoSensor, status.ErrorHold, true)
		return err
	}
	defer cam.Close()

	var done <-chan struct{}
	dc, ok := cam.(doneCamera)
	if ok {
		done = dc.Done()
	}

	r.mu.Lock()
	r.camera = cam
	r.mu.Unlock()

	ticker := time.NewTicker(r.conf.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.detach(errors.New("recorder stopped"))
			return nil
		case <-done:
			err := dc.Err()
			r.detach(fmt.Errorf("camera connection lost: %v", err))
			return err
		case <-ticker.C:
			r.tick()
			if r.OnTick != nil {
				r.OnTick()
			}
		}
	}
}

// detach stops any session or shot in progress once the camera is gone.
// A recording is aborted with reason.
func (r *Recorder) detach(reason error) {
	r.mu.Lock()
	r.camera = nil
	r.cancelShot()
	switch r.state {
	case Armed:
		r.state = Idle
	case Recording:
		r.abort(reason)
	}
	draining := r.state == Draining
	r.mu.Unlock()

	if !draining {
		return
	}
	for !r.writer.Idle() {
		time.Sleep(r.conf.PollInterval)
	}
	r.mu.Lock()
	r.finishSession()
	r.mu.Unlock()
}

func (r *Recorder) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.camera == nil {
		return
	}
	for _, kind := range stream.Kinds {
		r.handle(kind)
	}
	if r.state == Draining && r.writer.Idle() {
		r.finishSession()
	}
}

func (r *Recorder) handle(kind stream.Kind) {
	f, ok := camera.AcquireLatest(r.camera, kind)
	if !ok {
		return
	}
	h := r.handlers[kind]
	slot, err := h.loop.Current()
	if err != nil {
		r.drop(kind, metrics.DropOverrun, err)
		r.abort(fmt.Errorf("%s %w", kind, err))
		return
	}
	if err := h.stream.Transform(f, slot, h.preview); err != nil {
		r.drop(kind, metrics.DropGeometry, err)
		return
	}
	r.display.Draw(kind, h.stream.Width(), h.stream.Height(), h.preview)
	h.fps.frame()

	switch kind {
	case stream.Infrared:
		if r.state == Armed {
			r.startSession(f.Time)
		}
		if h.fps.due(r.nowFunc(), r.conf.StatusInterval) && r.sampleFPS(kind, h) {
			return
		}
		r.enqueue(kind, h, f.Time, slot)
		if r.state == ShotArmed && r.irNeedsPin() {
			h.pin(slot, f.Time)
			r.shotMissed = false
		}
		r.status.Set(r.statusLine(), status.FPSHold, false)
	case stream.Depth:
		if h.fps.count >= fpsSampleFrames && r.sampleFPS(kind, h) {
			return
		}
		r.enqueue(kind, h, f.Time, slot)
		if r.state == ShotArmed && r.depthNeedsPin() {
			h.pin(slot, f.Time)
		}
	case stream.Color:
		if h.fps.count >= fpsSampleFrames && r.sampleFPS(kind, h) {
			return
		}
		r.enqueue(kind, h, f.Time, slot)
		if r.state == ShotArmed && r.handlers[stream.Depth].pinned() {
			r.tryShot(f.Time, slot)
		}
	}
}

func (r *Recorder) startSession(anchor int64) {
	dir := filepath.Join(r.conf.OutputDir, r.selection.Folder())
	_, err := os.Stat(dir)
	if err == nil {
		err = fmt.Errorf("%w: %s", ErrFolderExists, dir)
	} else if os.IsNotExist(err) {
		err = nil
	}
	if err != nil {
		r.state = Idle
		r.metrics.SessionEnded(resultRefused)
		r.notifier.Error(err)
		return
	}

	s := session.New(dir)
	s.SetAnchor(anchor)
	s.Started = r.nowFunc()
	r.session = s
	r.abortErr = nil
	for _, h := range r.handlers {
		h.startSession()
	}
	r.state = Recording
	log.Printf("recording to %s", dir)
}

func (r *Recorder) enqueue(kind stream.Kind, h *handler, ts int64, slot *frameloop.Slot) {
	if r.state != Recording {
		return
	}
	rel := r.session.Relative(ts)
	if rel < 0 {
		return
	}
	if !h.inOrder(rel) {
		r.drop(kind, metrics.DropOrder, fmt.Errorf("frame at %d follows %d", rel, h.last))
		return
	}
	entry := writer.Entry{Time: rel, Slot: slot, Session: r.session}
	if err := r.writer.Enqueue(kind, entry); err != nil {
		r.drop(kind, metrics.DropOverrun, err)
		r.abort(fmt.Errorf("%s %w", kind, err))
		return
	}
	h.queued(rel)
}

func (r *Recorder) drop(kind stream.Kind, reason string, err error) {
	r.metrics.FrameDropped(kind, reason)
	if r.state == Recording {
		r.session.AddDropped(kind)
	}
	r.logs.Printf(kind.String()+"-"+reason, "dropped %s frame: %v", kind, err)
}

// abort stops a recording after a detected drop. Frames already queued
// are still written.
func (r *Recorder) abort(err error) {
	if r.state != Recording {
		return
	}
	r.abortErr = err
	r.state = Draining
	r.notifier.Error(fmt.Errorf("recording aborted: %w", err))
}

// sampleFPS updates the frame rate of a stream and reports whether the
// recording was aborted because of it.
func (r *Recorder) sampleFPS(kind stream.Kind, h *handler) bool {
	valid := h.fps.sample(r.nowFunc())
	r.metrics.SetFPS(kind, h.fps.fps)
	if valid && r.conf.Verbose && r.state == Recording && h.fps.fps < r.conf.MinFPS {
		r.abort(fmt.Errorf("%w: %s at %.2f fps", ErrLowFrameRate, kind, h.fps.fps))
		return true
	}
	return false
}

// finishSession verifies the written frames once the writer is idle and
// returns to Idle.
func (r *Recorder) finishSession() {
	s := r.session
	r.state = Verifying
	s.Ended = r.nowFunc()

	verifyErr := s.Verify()
	m := s.Manifest(r.format, verifyErr)
	m.DeviceName = r.conf.DeviceName
	m.DeviceID = r.conf.DeviceID
	result := resultOK
	if r.abortErr != nil {
		m.Aborted = r.abortErr.Error()
		result = resultAborted
	} else if verifyErr != nil {
		result = resultFailed
	}

	if _, err := os.Stat(s.Dir); err == nil {
		if err := session.WriteManifest(s.Dir, m); err != nil {
			log.Printf("failed to write session manifest: %v", err)
		}
	}
	r.metrics.SessionEnded(result)

	if verifyErr != nil {
		r.notifier.Error(verifyErr)
	} else if r.abortErr == nil {
		r.notifier.Info(fmt.Sprintf("recorded %d frames to %s", m.Frames[stream.Infrared.String()], s.Dir), status.ShotHold)
	}

	for _, h := range r.handlers {
		h.loop.Reset()
	}
	r.last = m
	r.session = nil
	r.abortErr = nil
	r.state = Idle
}

// Record starts (on) or stops a recording. Starting arms the recorder;
// the session begins with the next infrared frame.
func (r *Recorder) Record(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if on {
		switch r.state {
		case Idle:
			r.state = Armed
			return nil
		case Armed, Recording:
			return nil
		}
		return ErrBusy
	}

	switch r.state {
	case Armed:
		r.state = Idle
	case Recording:
		r.state = Draining
		log.Print("recording stopped, writing queued frames")
	}
	return nil
}

// TakeShot arms a calibration shot. It's written once the three streams
// line up.
func (r *Recorder) TakeShot() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case Idle:
		r.state = ShotArmed
		return nil
	case ShotArmed:
		return nil
	}
	return ErrBusy
}

// SetSelection changes the folder the next recording is written to.
func (r *Recorder) SetSelection(sel destination.Selection) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Idle && r.state != ShotArmed {
		return ErrBusy
	}
	r.selection = sel
	r.status.Set(r.statusLine(), status.SelectionHold, true)
	return nil
}

func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		State:     r.state,
		Selection: r.selection,
		Folder:    r.folder(),
		Message:   r.status.Text(),
	}
	for _, kind := range stream.Kinds {
		st.FPS[kind] = r.handlers[kind].fps.fps
	}
	return st
}

// LastSession returns the manifest of the last finished session, or nil.
func (r *Recorder) LastSession() *session.Manifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Recorder) folder() string {
	return filepath.Join(r.conf.OutputDir, r.selection.Folder())
}

func (r *Recorder) statusLine() string {
	var fps [stream.NumKinds]float64
	for _, kind := range stream.Kinds {
		fps[kind] = r.handlers[kind].fps.fps
	}
	return status.Line(r.folder(), fps)
}
