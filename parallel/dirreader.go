// Copyright © Microsoft <wastore@microsoft.com>
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

// Package parallel walks a local directory tree with bounded fan-out,
// the way the teacher's common/parallel package feeds its traversers,
// trimmed to the one thing the merge orchestrator needs: enumerate a
// source subtree and call back once per entry.
package parallel

import "os"

// failableFileInfo lets a DirReader report a per-entry stat failure
// without aborting the whole Readdir batch.
type failableFileInfo interface {
	os.FileInfo
	Error() error
}

type failableFileInfoImpl struct {
	os.FileInfo
	err error
}

func (f failableFileInfoImpl) Error() error { return f.err }

// DirReader abstracts the Readdir call so that platforms where Go's
// os.File.Readdir does directory-entry-to-FileInfo resolution serially
// (Linux) can parallelize the stat calls, while other platforms use the
// default.
type DirReader interface {
	Readdir(dir *os.File, n int) ([]os.FileInfo, error)
	Close()
}

// defaultDirReader just makes the normal OS read call.
type defaultDirReader struct{}

func (defaultDirReader) Readdir(dir *os.File, n int) ([]os.FileInfo, error) {
	return dir.Readdir(n)
}

func (defaultDirReader) Close() {}
