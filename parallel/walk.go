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

package parallel

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WalkFunc is called once per entry encountered under the walked root,
// depth-first order not guaranteed across directories (siblings may run
// concurrently). If err is non-nil, info may be nil; returning a non-nil
// error from WalkFunc does not stop the rest of the walk, unlike
// filepath.Walk's SkipDir convention — the caller decides what "abort"
// means for its own phase.
type WalkFunc func(path string, info os.FileInfo, err error) error

// Walk enumerates every entry under root (not including root itself),
// recursing into directories with up to parallelism concurrent workers.
// It does not follow symlinks. Cancelling ctx stops new directories from
// being entered but lets in-flight Readdir batches complete, matching the
// pipeline's cooperative, phase-boundary cancellation model.
func Walk(ctx context.Context, root string, parallelism int, walkFn WalkFunc) error {
	if parallelism < 1 {
		parallelism = 1
	}
	reader := NewDirReader(parallelism)
	defer reader.Close()

	sem := semaphore.NewWeighted(int64(parallelism))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	// walkDir runs synchronously in whatever goroutine calls it; subdirectories
	// either get their own goroutine (if a semaphore slot is free) or are
	// walked inline, so the recursion can never deadlock waiting on a slot
	// held by an ancestor frame.
	var walkDir func(dir string)
	walkDir = func(dir string) {
		select {
		case <-ctx.Done():
			recordErr(ctx.Err())
			return
		default:
		}

		d, err := os.Open(dir)
		if err != nil {
			recordErr(walkFn(dir, nil, err))
			return
		}
		defer d.Close()

		var subdirs []string
		for {
			entries, rerr := reader.Readdir(d, 1024)
			for _, info := range entries {
				// A failed entry carries no FileInfo to take a name from; its
				// error already names the full child path.
				if failable, ok := info.(failableFileInfo); ok && failable.Error() != nil {
					recordErr(walkFn(dir, nil, failable.Error()))
					continue
				}
				childPath := filepath.Join(dir, info.Name())
				recordErr(walkFn(childPath, info, nil))
				isSymlink := info.Mode()&os.ModeSymlink != 0
				if info.IsDir() && !isSymlink {
					subdirs = append(subdirs, childPath)
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				recordErr(walkFn(dir, nil, rerr))
				break
			}
		}

		for _, sub := range subdirs {
			sub := sub
			if sem.TryAcquire(1) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer sem.Release(1)
					walkDir(sub)
				}()
			} else {
				walkDir(sub)
			}
		}
	}

	walkDir(root)
	wg.Wait()
	return firstErr
}
