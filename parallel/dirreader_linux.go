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

//go:build linux

package parallel

import (
	"fmt"
	"os"
	"path/filepath"
)

// NewDirReader returns a reader that LStats directory entries with a
// bounded worker pool, because on Linux os.File.Readdir resolves each
// entry's FileInfo with a separate sequential syscall.
func NewDirReader(parallelism int) DirReader {
	if parallelism < 1 {
		parallelism = 1
	}
	r := &linuxDirReader{ch: make(chan linuxDirEntry, 4096)}
	for i := 0; i < parallelism; i++ {
		go r.worker()
	}
	return r
}

type linuxDirEntry struct {
	parentDir *os.File
	name      string
	resultCh  chan failableFileInfo
}

type linuxDirReader struct {
	ch chan linuxDirEntry
}

func (r *linuxDirReader) Readdir(dir *os.File, n int) ([]os.FileInfo, error) {
	names, err := dir.Readdirnames(n)
	if err != nil {
		return nil, err
	}

	resCh := make(chan failableFileInfo, len(names))
	for _, name := range names {
		r.ch <- linuxDirEntry{parentDir: dir, name: name, resultCh: resCh}
	}

	res := make([]os.FileInfo, 0, len(names))
	for range names {
		res = append(res, <-resCh)
	}
	return res, nil
}

func (r *linuxDirReader) worker() {
	for e := range r.ch {
		p := filepath.Join(e.parentDir.Name(), e.name)
		fi, err := os.Lstat(p) // Lstat: we don't follow symlinks
		if err != nil {
			err = fmt.Errorf("stat %s: %w", p, err)
		}
		e.resultCh <- failableFileInfoImpl{FileInfo: fi, err: err}
	}
}

func (r *linuxDirReader) Close() {
	close(r.ch)
}
