package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"nle/internal/logging"
	"nle/internal/timeline"
)

var (
	// ErrLocked reports a project already opened by another editor.
	ErrLocked = errors.New("project is locked by another process")
	// ErrExists reports Create on a path that already holds a project.
	ErrExists = errors.New("project already exists")
	// ErrNotFound reports Open on a path without a project.
	ErrNotFound = errors.New("project not found")
)

// Options configures Create and Open.
type Options struct {
	Logger *slog.Logger
	// VideoTracks and AudioTracks are the tracks Create starts with.
	VideoTracks int
	AudioTracks int
}

// Project is an open, locked project file plus the timeline rebuilt from it.
// The timeline must only be edited through Project methods so the journal
// stays in step; a Project is not safe for concurrent use.
type Project struct {
	db       *sql.DB
	path     string
	name     string
	lock     *flock.Flock
	logger   *slog.Logger
	timeline *timeline.Timeline
}

// Create makes a new project file at path.
func Create(ctx context.Context, path, name string, opts Options) (*Project, error) {
	ctx = ensureContext(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("project name is required")
	}
	if opts.VideoTracks < 0 || opts.AudioTracks < 0 {
		return nil, fmt.Errorf("track counts must not be negative (video=%d audio=%d)", opts.VideoTracks, opts.AudioTracks)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat project: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}

	p, err := openLocked(path, opts.Logger)
	if err != nil {
		return nil, err
	}

	now := timestamp()
	err = p.inTx(ctx, func(tx *sql.Tx) error {
		if err := createSchema(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO project (id, name, created_at, updated_at) VALUES (1, ?, ?, ?)",
			name, now, now,
		); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		for _, spec := range []struct {
			kind  timeline.TrackKind
			count int
		}{{timeline.KindVideo, opts.VideoTracks}, {timeline.KindAudio, opts.AudioTracks}} {
			for i := 0; i < spec.count; i++ {
				if err := insertTrack(ctx, tx, spec.kind, i); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	p.name = name
	p.timeline = timeline.New()
	for i := 0; i < opts.VideoTracks; i++ {
		p.timeline.AddVideoTrack()
	}
	for i := 0; i < opts.AudioTracks; i++ {
		p.timeline.AddAudioTrack()
	}
	p.logger.Info("project created",
		logging.String(logging.FieldEventType, "project_created"),
		logging.Int("video_tracks", opts.VideoTracks),
		logging.Int("audio_tracks", opts.AudioTracks),
	)
	return p, nil
}

// Open locks the project at path and rebuilds its timeline.
func Open(ctx context.Context, path string, opts Options) (*Project, error) {
	ctx = ensureContext(ctx)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat project: %w", err)
	}

	p, err := openLocked(path, opts.Logger)
	if err != nil {
		return nil, err
	}
	initialized, err := checkSchema(ctx, p.db)
	if err == nil && !initialized {
		err = fmt.Errorf("%s: no schema: %w", path, ErrNotFound)
	}
	if err == nil {
		err = p.db.QueryRowContext(ctx, "SELECT name FROM project WHERE id = 1").Scan(&p.name)
		if err != nil {
			err = fmt.Errorf("read project name: %w", err)
		}
	}
	if err == nil {
		p.timeline, err = p.replay(ctx)
	}
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.logger = p.logger.With(logging.String(logging.FieldProject, p.name))
	p.logger.Debug("project opened",
		logging.Int("video_tracks", p.timeline.TrackCount(timeline.KindVideo)),
		logging.Int("audio_tracks", p.timeline.TrackCount(timeline.KindAudio)),
	)
	return p, nil
}

func openLocked(path string, logger *slog.Logger) (*Project, error) {
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", lockPath, ErrLocked)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	return &Project{
		db:     db,
		path:   path,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "project").With(logging.String("path", path)),
	}, nil
}

// Close closes the database and releases the lock.
func (p *Project) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	err := p.db.Close()
	if unlockErr := p.lock.Unlock(); unlockErr != nil && err == nil {
		err = fmt.Errorf("release project lock: %w", unlockErr)
	}
	p.db = nil
	return err
}

// Name returns the project name.
func (p *Project) Name() string {
	return p.name
}

// Path returns the database file path.
func (p *Project) Path() string {
	return p.path
}

// Timeline returns the project's timeline. Treat it as read-only; edit
// through AddTrack, AddClip and RippleDelete.
func (p *Project) Timeline() *timeline.Timeline {
	return p.timeline
}
