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
	"errors"
	"testing"
	"time"

	"github.com/TheCacophonyProject/event-reporter/eventclient"
	"github.com/stretchr/testify/assert"

	"github.com/TheCacophonyProject/depth-recorder/status"
)

func TestNotifierError(t *testing.T) {
	reporter := status.New(time.Second, nil)
	n := NewNotifier(reporter)
	var events []eventclient.Event
	n.addEvent = func(e eventclient.Event) error {
		events = append(events, e)
		return nil
	}

	n.Error(errors.New("frame dropping occurred"))
	assert.Equal(t, "Frame dropping occurred", reporter.Text())
	if assert.Len(t, events, 1) {
		assert.Equal(t, errorEventType, events[0].Type)
		assert.Equal(t, "frame dropping occurred", events[0].Details["error"])
	}

	// Event failures are only logged.
	n.addEvent = func(eventclient.Event) error { return errors.New("no event reporter") }
	n.Error(errors.New("again"))
	assert.Equal(t, "Again", reporter.Text())
}

func TestNotifierInfoIsForced(t *testing.T) {
	reporter := status.New(time.Second, nil)
	n := NewNotifier(reporter)

	assert.True(t, reporter.Set("first", time.Minute, false))
	n.Info("second", status.ShotHold)
	assert.Equal(t, "second", reporter.Text())
}

func TestSentence(t *testing.T) {
	assert.Equal(t, "", sentence(""))
	assert.Equal(t, "Frames already existed", sentence("frames already existed"))
	assert.Equal(t, "Éte", sentence("éte"))
}
