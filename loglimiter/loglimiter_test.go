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
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Print("a", "hello")
	limiter.Print("b", "world")

	assert.Equal(t, "hello\nworld\n", logs.String())
}

func TestPrintf(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Printf("a", "hello: %d", 42)
	limiter.Printf("b", "world: %q", "hi")

	assert.Equal(t, "hello: 42\nworld: \"hi\"\n", logs.String())
}

func TestLimitPrint(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	now := time.Now()

	limiter := New(2 * time.Second)
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("write", "write failed: 1")
	assert.Equal(t, "write failed: 1\n", logs.String())

	// Advance time but still within the window.
	now = now.Add(time.Second)
	limiter.Print("write", "write failed: 2")
	assert.Equal(t, "write failed: 1\n", logs.String())

	// Now go past the window; see that the next line is logged with a count.
	now = now.Add(time.Second)
	limiter.Print("write", "write failed: 3")
	assert.Equal(t, "write failed: 1\nwrite failed: 3 (1 similar suppressed)\n", logs.String())

	// A different key is let through.
	limiter.Print("geometry", "bad frame")
	assert.Equal(t, "write failed: 1\nwrite failed: 3 (1 similar suppressed)\nbad frame\n", logs.String())

	// And then suppressed.
	limiter.Print("geometry", "bad frame")
	assert.Equal(t, "write failed: 1\nwrite failed: 3 (1 similar suppressed)\nbad frame\n", logs.String())
}

func TestMixed(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	// Mixing Print and Printf doesn't matter if the key is the same.
	limiter := New(time.Minute)
	limiter.Print("k", "hello")
	limiter.Printf("k", "hello %d", 2)
	assert.Equal(t, "hello\n", logs.String())
}

func captureLogs() (*bytes.Buffer, func()) {
	flags := log.Flags()
	log.SetFlags(0)

	logs := new(bytes.Buffer)
	log.SetOutput(logs)

	return logs, func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}
}
