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
	"log"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/TheCacophonyProject/event-reporter/eventclient"

	"github.com/TheCacophonyProject/depth-recorder/status"
)

const errorEventType = "depthRecorderError"

// Notifier tells the operator about the outcome of a session. Messages go
// to the log and the status line; errors are also queued as events.
type Notifier struct {
	status   *status.Reporter
	addEvent func(eventclient.Event) error
	nowFunc  func() time.Time
}

func NewNotifier(reporter *status.Reporter) *Notifier {
	return &Notifier{
		status:   reporter,
		addEvent: eventclient.AddEvent,
		nowFunc:  time.Now,
	}
}

// Info shows msg, holding it on the status line for hold.
func (n *Notifier) Info(msg string, hold time.Duration) {
	log.Print(msg)
	n.status.Set(msg, hold, true)
}

// Error reports err on the status line and queues an error event.
func (n *Notifier) Error(err error) {
	log.Printf("error: %v", err)
	n.status.Set(sentence(err.Error()), status.ErrorHold, true)
	event := eventclient.Event{
		Timestamp: n.nowFunc(),
		Type:      errorEventType,
		Details: map[string]interface{}{
			"error": err.Error(),
		},
	}
	if err := n.addEvent(event); err != nil {
		log.Printf("failed to queue event: %v", err)
	}
}

// sentence upper-cases the first letter of an error message.
func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
