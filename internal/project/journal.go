package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"nle/internal/logging"
	"nle/internal/timeline"
)

const (
	opAdd          = "add"
	opRippleDelete = "ripple_delete"
)

// ErrCorrupt reports a journal that cannot be replayed.
var ErrCorrupt = errors.New("project journal corrupt")

// Info summarizes a project file.
type Info struct {
	Name        string
	Path        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Edits       int
	VideoTracks int
	AudioTracks int
}

// Info reads project metadata.
func (p *Project) Info(ctx context.Context) (Info, error) {
	ctx = ensureContext(ctx)
	info := Info{
		Name:        p.name,
		Path:        p.path,
		VideoTracks: p.timeline.TrackCount(timeline.KindVideo),
		AudioTracks: p.timeline.TrackCount(timeline.KindAudio),
	}
	var created, updated string
	if err := p.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM project WHERE id = 1",
	).Scan(&created, &updated); err != nil {
		return Info{}, fmt.Errorf("read project: %w", err)
	}
	info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM edits").Scan(&info.Edits); err != nil {
		return Info{}, fmt.Errorf("count edits: %w", err)
	}
	return info, nil
}

// AddTrack appends a track of kind and returns its index.
func (p *Project) AddTrack(ctx context.Context, kind timeline.TrackKind) (int, error) {
	ctx = ensureContext(ctx)
	index := p.timeline.TrackCount(kind)
	if err := p.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertTrack(ctx, tx, kind, index); err != nil {
			return err
		}
		return touch(ctx, tx)
	}); err != nil {
		return 0, err
	}
	p.timeline.AddTrack(kind)
	p.logger.Debug("track added", logging.String(logging.FieldTrack, trackLabel(kind, index)))
	return index, nil
}

// AddClip places clip on the track and records the edit.
func (p *Project) AddClip(ctx context.Context, kind timeline.TrackKind, index int, clip timeline.Clip) error {
	return p.ImportClips(ctx, kind, index, []timeline.Clip{clip})
}

// ImportClips places clips on the track in slice order as one edit batch.
// Either every clip is recorded and applied or none is.
func (p *Project) ImportClips(ctx context.Context, kind timeline.TrackKind, index int, clips []timeline.Clip) error {
	ctx = ensureContext(ctx)
	track, err := p.timeline.Track(kind, index)
	if err != nil {
		return err
	}
	payloads := make([][]byte, len(clips))
	for i, clip := range clips {
		if err := clip.Validate(); err != nil {
			return err
		}
		if payloads[i], err = clip.MarshalBinary(); err != nil {
			return fmt.Errorf("encode clip %q: %w", clip.Name, err)
		}
	}

	if err := p.inTx(ctx, func(tx *sql.Tx) error {
		for _, payload := range payloads {
			if err := insertEdit(ctx, tx, kind, index, opAdd, payload); err != nil {
				return err
			}
		}
		return touch(ctx, tx)
	}); err != nil {
		return err
	}

	timeline.Replay(track, clips)
	for _, clip := range clips {
		p.logger.Debug("clip added",
			logging.String(logging.FieldTrack, trackLabel(kind, index)),
			logging.String(logging.FieldClip, clip.Name),
			logging.String(logging.FieldAssetID, clip.AssetID.String()),
			logging.String("placement", clip.TimelineRange.String()),
		)
	}
	return nil
}

// RippleDelete removes span from the track, closes the gap and records the
// edit. An empty span is recorded nowhere and changes nothing.
func (p *Project) RippleDelete(ctx context.Context, kind timeline.TrackKind, index int, span timeline.TimeRange) error {
	ctx = ensureContext(ctx)
	track, err := p.timeline.Track(kind, index)
	if err != nil {
		return err
	}
	if span.IsEmpty() {
		return nil
	}
	if !span.Valid() {
		return fmt.Errorf("ripple delete %d+%d overflows", span.Start, span.Duration)
	}
	payload, err := span.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode span: %w", err)
	}
	if err := p.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertEdit(ctx, tx, kind, index, opRippleDelete, payload); err != nil {
			return err
		}
		return touch(ctx, tx)
	}); err != nil {
		return err
	}
	track.RippleDelete(span)
	p.logger.Debug("ripple delete",
		logging.String(logging.FieldTrack, trackLabel(kind, index)),
		logging.String("span", span.String()),
	)
	return nil
}

// Compact replaces the journal with one insertion per stored clip. The
// rebuilt timeline is identical; replaying it is cheaper.
func (p *Project) Compact(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	type entry struct {
		kind    timeline.TrackKind
		index   int
		payload []byte
	}
	var entries []entry
	for _, kind := range []timeline.TrackKind{timeline.KindVideo, timeline.KindAudio} {
		for i := 0; i < p.timeline.TrackCount(kind); i++ {
			track, err := p.timeline.Track(kind, i)
			if err != nil {
				return 0, err
			}
			for _, clip := range track.Entries() {
				payload, err := clip.MarshalBinary()
				if err != nil {
					return 0, fmt.Errorf("encode clip %q: %w", clip.Name, err)
				}
				entries = append(entries, entry{kind: kind, index: i, payload: payload})
			}
		}
	}

	var before int
	err := p.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM edits").Scan(&before); err != nil {
			return fmt.Errorf("count edits: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM edits"); err != nil {
			return fmt.Errorf("clear journal: %w", err)
		}
		for _, e := range entries {
			if err := insertEdit(ctx, tx, e.kind, e.index, opAdd, e.payload); err != nil {
				return err
			}
		}
		return touch(ctx, tx)
	})
	if err != nil {
		return 0, err
	}
	p.logger.Info("project compacted",
		logging.String(logging.FieldEventType, "project_compacted"),
		logging.Int("edits_before", before),
		logging.Int("edits_after", len(entries)),
	)
	return len(entries), nil
}

func (p *Project) replay(ctx context.Context) (*timeline.Timeline, error) {
	tl := timeline.New()
	if err := p.loadTracks(ctx, tl); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, "SELECT seq, kind, track, op, payload FROM edits ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			seq       int64
			kindLabel string
			index     int
			op        string
			payload   []byte
		)
		if err := rows.Scan(&seq, &kindLabel, &index, &op, &payload); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		if err := applyEdit(tl, kindLabel, index, op, payload); err != nil {
			return nil, fmt.Errorf("%w: edit %d: %v", ErrCorrupt, seq, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	return tl, nil
}

func (p *Project) loadTracks(ctx context.Context, tl *timeline.Timeline) error {
	rows, err := p.db.QueryContext(ctx, "SELECT kind, idx FROM tracks ORDER BY kind, idx")
	if err != nil {
		return fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kindLabel string
			index     int
		)
		if err := rows.Scan(&kindLabel, &index); err != nil {
			return fmt.Errorf("scan track: %w", err)
		}
		kind, err := timeline.ParseTrackKind(kindLabel)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if got := tl.AddTrack(kind); got != index {
			return fmt.Errorf("%w: %s track %d stored where %d was expected", ErrCorrupt, kind, index, got)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list tracks: %w", err)
	}
	return nil
}

func applyEdit(tl *timeline.Timeline, kindLabel string, index int, op string, payload []byte) error {
	kind, err := timeline.ParseTrackKind(kindLabel)
	if err != nil {
		return err
	}
	track, err := tl.Track(kind, index)
	if err != nil {
		return err
	}
	switch op {
	case opAdd:
		var clip timeline.Clip
		if err := clip.UnmarshalBinary(payload); err != nil {
			return err
		}
		if err := clip.Validate(); err != nil {
			return err
		}
		track.Add(clip)
	case opRippleDelete:
		var span timeline.TimeRange
		if err := span.UnmarshalBinary(payload); err != nil {
			return err
		}
		if !span.Valid() {
			return fmt.Errorf("span %d+%d overflows", span.Start, span.Duration)
		}
		track.RippleDelete(span)
	default:
		return fmt.Errorf("unknown op %q", op)
	}
	return nil
}

func insertTrack(ctx context.Context, tx *sql.Tx, kind timeline.TrackKind, index int) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tracks (kind, idx, created_at) VALUES (?, ?, ?)",
		kind.String(), index, timestamp(),
	); err != nil {
		return fmt.Errorf("insert %s: %w", trackLabel(kind, index), err)
	}
	return nil
}

func insertEdit(ctx context.Context, tx *sql.Tx, kind timeline.TrackKind, index int, op string, payload []byte) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO edits (kind, track, op, payload, created_at) VALUES (?, ?, ?, ?, ?)",
		kind.String(), index, op, payload, timestamp(),
	); err != nil {
		return fmt.Errorf("record %s on %s: %w", op, trackLabel(kind, index), err)
	}
	return nil
}

func touch(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "UPDATE project SET updated_at = ? WHERE id = 1", timestamp()); err != nil {
		return fmt.Errorf("update project timestamp: %w", err)
	}
	return nil
}

func trackLabel(kind timeline.TrackKind, index int) string {
	return fmt.Sprintf("%s/%d", kind, index)
}
