// Package workspace implements the Workspace Manager stage: a per-job
// scratch directory tree with guaranteed teardown, including on SIGINT and
// SIGTERM.
package workspace

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/five82/drapto2/internal/errors"
)

// Workspace is the per-job scratch directory tree: a root plus fixed
// subdirectories for audio extraction, video segments, encoded segment
// output, miscellaneous temp files, and logs.
type Workspace struct {
	Root     string
	Audio    string
	Segments string
	Encoded  string
	Temp     string
	Logs     string

	mu       sync.Mutex
	torndown bool
}

// Create makes a new workspace rooted under baseDir, named by jobID, with
// all subdirectories created atomically (the root is created last so a
// partially-built tree is never observed as "the" workspace by a
// concurrent reader of baseDir).
func Create(baseDir, jobID string) (*Workspace, error) {
	root := filepath.Join(baseDir, "drapto-"+jobID)
	staging := root + ".staging"

	ws := &Workspace{
		Root:     root,
		Audio:    filepath.Join(root, "audio"),
		Segments: filepath.Join(root, "segments"),
		Encoded:  filepath.Join(root, "encoded"),
		Temp:     filepath.Join(root, "temp"),
		Logs:     filepath.Join(root, "logs"),
	}

	for _, dir := range []string{
		filepath.Join(staging, "audio"),
		filepath.Join(staging, "segments"),
		filepath.Join(staging, "encoded"),
		filepath.Join(staging, "temp"),
		filepath.Join(staging, "logs"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = os.RemoveAll(staging)
			return nil, errors.Wrap(errors.InvalidInput, "failed to create workspace", err)
		}
	}

	if err := os.Rename(staging, root); err != nil {
		_ = os.RemoveAll(staging)
		return nil, errors.Wrap(errors.InvalidInput, "failed to finalize workspace", err)
	}

	return ws, nil
}

// Teardown removes the entire workspace tree. It is idempotent and safe to
// call more than once (e.g. once from a signal handler and once from a
// deferred cleanup).
func (w *Workspace) Teardown() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.torndown {
		return nil
	}
	w.torndown = true
	return os.RemoveAll(w.Root)
}

// WatchSignals forwards SIGINT/SIGTERM to the current process group after
// tearing down the workspace, then re-raises the signal's default
// disposition so the process exits the way it would have without this
// handler installed. It returns a stop function that must be called once
// the job completes normally.
func (w *Workspace) WatchSignals() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-ch:
			s := sig.(syscall.Signal)
			_ = w.Teardown()
			signal.Reset(s)
			forwardToProcessGroup(s)
		case <-done:
		}
	}()

	return func() {
		close(done)
		signal.Stop(ch)
	}
}

func forwardToProcessGroup(sig syscall.Signal) {
	pgid, err := syscall.Getpgid(os.Getpid())
	if err != nil {
		return
	}
	_ = syscall.Kill(-pgid, sig)
}

// SegmentPath returns the path for segment index idx's input file, named
// with the %04d.mkv naming convention.
func (w *Workspace) SegmentPath(idx int) string {
	return filepath.Join(w.Segments, fmt.Sprintf("%04d.mkv", idx))
}

// EncodedPath returns the path for segment index idx's encoded output.
func (w *Workspace) EncodedPath(idx int) string {
	return filepath.Join(w.Encoded, fmt.Sprintf("%04d.mkv", idx))
}
