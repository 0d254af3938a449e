// Package state implements the State Tracker stage: a durable, crash-safe
// record of jobs, segments, and progress, persisted as three JSON files
// per job area (segments.json, encoding.json, progress.json) with
// write-to-temp-then-atomic-rename and advisory locking.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"golang.org/x/sys/unix"

	"github.com/five82/drapto2/internal/errors"
	"github.com/five82/drapto2/internal/model"
)

const (
	segmentsFileName = "segments.json"
	encodingFileName = "encoding.json"
	progressFileName = "progress.json"
)

// Tracker persists one job's state under a per-job area directory.
type Tracker struct {
	jobDir    string
	createdAt time.Time
}

// segmentsFile is the on-disk shape of segments.json.
type segmentsFile struct {
	Segments map[int]*model.Segment `json:"segments"`
}

// encodingFile is the on-disk shape of encoding.json.
type encodingFile struct {
	ID         string             `json:"id"`
	InputPath  string             `json:"input_path"`
	OutputPath string             `json:"output_path"`
	Strategy   string             `json:"strategy"`
	Status     string             `json:"status"`
	Stats      model.EncodingStats `json:"stats"`
	Error      string             `json:"error"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// progressFile is the on-disk shape of progress.json.
type progressFile struct {
	Progress  model.Progress `json:"progress"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewTracker opens (or creates) the job area directory jobDir.
func NewTracker(jobDir string) (*Tracker, error) {
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return nil, errors.NewStateIOError("failed to create job state directory", err)
	}
	return &Tracker{jobDir: jobDir, createdAt: time.Now()}, nil
}

func (t *Tracker) path(name string) string { return filepath.Join(t.jobDir, name) }

// withLock opens path (creating it if missing) and holds an exclusive
// advisory lock (via flock) for the duration of fn.
func withLock(path string, fn func(f *os.File) error) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	return fn(f)
}

// writeJSON writes to a temp file in the same directory, fsyncs, and
// atomically renames into place via renameio.
func writeJSON(path string, v any) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return errors.NewStateIOError("failed to create pending state file", err)
	}
	defer pending.Cleanup()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.NewStateIOError("failed to encode state", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return errors.NewStateIOError("failed to atomically replace state file", err)
	}
	return nil
}

// readOrInit reads path under an advisory lock. If the file is missing,
// empty, or malformed, it writes and returns a freshly initialized
// default value instead of failing.
func readOrInit[T any](path string, init func() T) (T, error) {
	var result T
	err := withLock(path, func(f *os.File) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			result = init()
			return writeLocked(f, result)
		}
		var parsed T
		if jsonErr := json.Unmarshal(data, &parsed); jsonErr != nil {
			result = init()
			return writeLocked(f, result)
		}
		result = parsed
		return nil
	})
	if err != nil {
		var zero T
		return zero, errors.NewStateIOError("failed to read state file "+path, err)
	}
	return result, nil
}

func writeLocked(f *os.File, v any) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Sync()
}

// LoadSegments reads segments.json, initializing a default (empty) value
// if missing, empty, or malformed.
func (t *Tracker) LoadSegments() (map[int]*model.Segment, error) {
	f, err := readOrInit(t.path(segmentsFileName), func() segmentsFile {
		return segmentsFile{Segments: map[int]*model.Segment{}}
	})
	if err != nil {
		return nil, err
	}
	if f.Segments == nil {
		f.Segments = map[int]*model.Segment{}
	}
	return f.Segments, nil
}

// SaveSegments atomically persists the given segments.
func (t *Tracker) SaveSegments(segments map[int]*model.Segment) error {
	return writeJSON(t.path(segmentsFileName), segmentsFile{Segments: segments})
}

// LoadJob reads encoding.json, initializing a default pending job record
// if missing, empty, or malformed.
func (t *Tracker) LoadJob(jobID string) (*model.EncodingJob, error) {
	f, err := readOrInit(t.path(encodingFileName), func() encodingFile {
		now := time.Now()
		return encodingFile{
			ID:        jobID,
			Status:    model.JobPending.String(),
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
	if err != nil {
		return nil, err
	}
	return &model.EncodingJob{
		ID:         f.ID,
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
		Strategy:   model.Strategy(f.Strategy),
		Status:     model.ParseJobStatus(f.Status),
		Stats:      f.Stats,
		Error:      f.Error,
	}, nil
}

// SaveJob atomically persists job, preserving createdAt and refreshing
// updatedAt to the current wall-clock time.
func (t *Tracker) SaveJob(job *model.EncodingJob, createdAt time.Time) error {
	return writeJSON(t.path(encodingFileName), encodingFile{
		ID:         job.ID,
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
		Strategy:   string(job.Strategy),
		Status:     job.Status.String(),
		Stats:      job.Stats,
		Error:      job.Error,
		CreatedAt:  createdAt,
		UpdatedAt:  time.Now(),
	})
}

// LoadProgress reads progress.json, initializing a zero-value default if
// missing, empty, or malformed.
func (t *Tracker) LoadProgress() (model.Progress, error) {
	f, err := readOrInit(t.path(progressFileName), func() progressFile {
		now := time.Now()
		return progressFile{CreatedAt: now, UpdatedAt: now}
	})
	if err != nil {
		return model.Progress{}, err
	}
	return f.Progress, nil
}

// SaveProgress atomically persists progress.
func (t *Tracker) SaveProgress(progress model.Progress, createdAt time.Time) error {
	return writeJSON(t.path(progressFileName), progressFile{
		Progress:  progress,
		CreatedAt: createdAt,
		UpdatedAt: time.Now(),
	})
}
