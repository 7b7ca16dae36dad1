// Copyright © 2017 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"time"

	"github.com/google/uuid"
)

type LogLevel uint8

const (
	LogNone LogLevel = iota
	LogError
	LogWarning
	LogInfo
	LogDebug
)

var ELogLevel = LogLevel(LogNone)

func (LogLevel) None() LogLevel    { return LogNone }
func (LogLevel) Error() LogLevel   { return LogError }
func (LogLevel) Warning() LogLevel { return LogWarning }
func (LogLevel) Info() LogLevel    { return LogInfo }
func (LogLevel) Debug() LogLevel   { return LogDebug }

func (ll LogLevel) String() string {
	return EnumHelper{}.StringOrValue(ll, reflect.TypeOf(ll))
}

func (ll *LogLevel) Parse(s string) error {
	val, err := EnumHelper{}.Parse(reflect.TypeOf(ll), s, true)
	if err == nil {
		*ll = val.(LogLevel)
	}
	return err
}

// ILogger is the logging surface every phase and component writes through.
// Modeled on the teacher's common.ILogger/ILoggerCloser split.
type ILogger interface {
	ShouldLog(level LogLevel) bool
	Log(level LogLevel, msg string)
}

type ILoggerCloser interface {
	ILogger
	CloseLog()
}

const maxLogSize = 200 * 1024 * 1024

// runLogger is a per-run, per-invocation logger: it writes to a single
// file under the run directory and mirrors every line to stdout, the way
// the teacher's jobLogger writes to a file under the job's log folder.
type runLogger struct {
	runID             string
	correlationID     uuid.UUID
	minimumLevelToLog LogLevel
	file              io.WriteCloser
	logger            *log.Logger
}

// NewRunLogger opens (or creates) the run's log file under logDir and
// returns a logger tagged with a fresh correlation id for this invocation.
func NewRunLogger(runID, logDir string, minimumLevelToLog LogLevel) (ILoggerCloser, error) {
	if err := os.MkdirAll(logDir, 0o2775); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, runID+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}

	rl := &runLogger{
		runID:             runID,
		correlationID:     uuid.New(),
		minimumLevelToLog: minimumLevelToLog,
		file:              f,
		logger:            log.New(io.MultiWriter(f, os.Stdout), "", log.LstdFlags|log.LUTC),
	}
	rl.logger.Printf("run %s starting (correlation=%s) on %s/%s", runID, rl.correlationID, runtime.GOOS, runtime.GOARCH)
	return rl, nil
}

func (rl *runLogger) ShouldLog(level LogLevel) bool {
	if level == LogNone {
		return false
	}
	return level <= rl.minimumLevelToLog
}

func (rl *runLogger) Log(level LogLevel, msg string) {
	if !rl.ShouldLog(level) {
		return
	}
	prefix := ""
	if level <= LogWarning {
		prefix = fmt.Sprintf("%s: ", level)
	}
	rl.logger.Printf("[%s] %s%s", rl.correlationID.String()[:8], prefix, msg)
}

func (rl *runLogger) CloseLog() {
	rl.logger.Println("closing log")
	_ = rl.file.Close()
}

// Timestamp formats t as the second-resolution ISO-8601 UTC form used
// throughout provenance, collision, and manifest records.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}
