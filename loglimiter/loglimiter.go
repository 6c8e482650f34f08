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

package loglimiter

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// New returns a new LogLimiter with the configured minimum log interval.
func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		entries:  make(map[string]*entry),
	}
}

// LogLimiter suppresses log messages with the same key seen within some
// time interval. The next message let through reports how many were
// suppressed.
type LogLimiter struct {
	interval time.Duration
	nowFunc  func() time.Time
	mu       sync.Mutex
	entries  map[string]*entry
}

type entry struct {
	logged     time.Time
	suppressed int
}

func (limiter *LogLimiter) Printf(key, format string, v ...interface{}) {
	limiter.Print(key, fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(key, s string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.nowFunc()
	e, ok := limiter.entries[key]
	if !ok {
		e = new(entry)
		limiter.entries[key] = e
	} else if now.Sub(e.logged) < limiter.interval {
		e.suppressed++
		return
	}

	if e.suppressed > 0 {
		log.Printf("%s (%d similar suppressed)", s, e.suppressed)
	} else {
		log.Print(s)
	}
	e.logged = now
	e.suppressed = 0
}
