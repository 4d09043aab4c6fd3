package db

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/waypoint-updater/internal/monitoring"
	"github.com/banshee-data/waypoint-updater/internal/trajectory"
)

// WindowRecord is a summary row of the window log.
type WindowRecord struct {
	RunID          string  `json:"run_id"`
	Seq            uint64  `json:"seq"`
	TimestampNanos int64   `json:"timestamp_ns"`
	StartIndex     int     `json:"start_index"`
	StopIndex      int     `json:"stop_index"`
	Braking        bool    `json:"braking"`
	Points         int     `json:"points"`
	MinSpeed       float64 `json:"min_speed"`
	MaxSpeed       float64 `json:"max_speed"`
	RecordedAt     int64   `json:"recorded_at"`
}

// SummarizeWindow builds the log row for w.
func SummarizeWindow(runID string, w *trajectory.Window) WindowRecord {
	rec := WindowRecord{
		RunID:          runID,
		Seq:            w.Seq,
		TimestampNanos: w.TimestampNanos,
		StartIndex:     w.StartIndex,
		StopIndex:      w.StopIndex,
		Braking:        w.Braking,
		Points:         w.Len(),
	}
	if speeds := w.Speeds(); len(speeds) > 0 {
		rec.MinSpeed = floats.Min(speeds)
		rec.MaxSpeed = floats.Max(speeds)
	}
	return rec
}

// InsertWindow writes one row to the window log.
func (db *DB) InsertWindow(rec WindowRecord) error {
	braking := 0
	if rec.Braking {
		braking = 1
	}
	_, err := db.Exec(`
		INSERT INTO window_log (
			run_id, seq, timestamp_ns, start_index, stop_index,
			braking, points, min_speed, max_speed, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, int64(rec.Seq), rec.TimestampNanos, rec.StartIndex, rec.StopIndex,
		braking, rec.Points, rec.MinSpeed, rec.MaxSpeed, time.Now().Unix(),
	)
	return err
}

// RecentWindows returns up to limit log rows, newest first. An empty runID
// matches every run.
func (db *DB) RecentWindows(runID string, limit int) ([]WindowRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT run_id, seq, timestamp_ns, start_index, stop_index,
		       braking, points, min_speed, max_speed, recorded_at
		  FROM window_log
		 WHERE (? = '' OR run_id = ?)
		 ORDER BY window_id DESC
		 LIMIT ?`, runID, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WindowRecord
	for rows.Next() {
		var rec WindowRecord
		var seq int64
		var braking int
		if err := rows.Scan(&rec.RunID, &seq, &rec.TimestampNanos, &rec.StartIndex, &rec.StopIndex,
			&braking, &rec.Points, &rec.MinSpeed, &rec.MaxSpeed, &rec.RecordedAt); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.Braking = braking != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// WindowRecorder is a planner sink that logs every Nth window. Publish only
// enqueues; Run performs the inserts.
type WindowRecorder struct {
	db    *DB
	runID string
	every uint64
	queue chan WindowRecord

	seen     atomic.Uint64
	recorded atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

// RecorderStats counts recorder activity.
type RecorderStats struct {
	RunID    string `json:"run_id"`
	Recorded uint64 `json:"recorded"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
}

// NewWindowRecorder returns a recorder logging one window in every `every`.
// every <= 0 disables recording.
func NewWindowRecorder(db *DB, every, queueSize int) *WindowRecorder {
	if queueSize <= 0 {
		queueSize = 64
	}
	if every < 0 {
		every = 0
	}
	return &WindowRecorder{
		db:    db,
		runID: uuid.NewString(),
		every: uint64(every),
		queue: make(chan WindowRecord, queueSize),
	}
}

// RunID identifies this process's rows in the window log.
func (r *WindowRecorder) RunID() string { return r.runID }

// Publish queues w for recording when it falls on the sampling interval.
func (r *WindowRecorder) Publish(w *trajectory.Window) {
	if r.every == 0 || w == nil {
		return
	}
	if n := r.seen.Add(1); (n-1)%r.every != 0 {
		return
	}
	select {
	case r.queue <- SummarizeWindow(r.runID, w):
	default:
		r.dropped.Add(1)
	}
}

// Run writes queued windows until ctx is cancelled, then drains the queue.
func (r *WindowRecorder) Run(ctx context.Context) error {
	monitoring.Logf("[Recorder] logging every %d windows as run %s", r.every, r.runID)
	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-ctx.Done():
			for {
				select {
				case rec := <-r.queue:
					r.write(rec)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (r *WindowRecorder) write(rec WindowRecord) {
	if err := r.db.InsertWindow(rec); err != nil {
		r.failed.Add(1)
		monitoring.Logf("[Recorder] failed to log window %d: %v", rec.Seq, err)
		return
	}
	r.recorded.Add(1)
}

// Stats returns the recorder counters.
func (r *WindowRecorder) Stats() RecorderStats {
	return RecorderStats{
		RunID:    r.runID,
		Recorded: r.recorded.Load(),
		Dropped:  r.dropped.Load(),
		Failed:   r.failed.Load(),
	}
}
