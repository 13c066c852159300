package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"Inventario/internal/kv"
)

const storeKey = "history"

// Recorder is notified of every record that reaches the store.
type Recorder interface {
	RecordAction(action string)
}

type Log struct {
	// mu serializes Append so concurrent writers do not drop records.
	mu sync.Mutex

	store    kv.Store
	log      *zap.Logger
	now      func() time.Time
	loc      *time.Location
	recorder Recorder
}

type Option func(*Log)

// WithClock replaces time.Now as the source of record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithLocation sets the timezone used to decide the calendar day of a record.
func WithLocation(loc *time.Location) Option {
	return func(l *Log) {
		if loc != nil {
			l.loc = loc
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(l *Log) { l.recorder = r }
}

func NewLog(store kv.Store, log *zap.Logger, opts ...Option) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Log{
		store: store,
		log:   log,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location is the timezone Query uses for date filters.
func (l *Log) Location() *time.Location { return l.loc }

// Init writes an empty log when none has been persisted yet.
func (l *Log) Init(ctx context.Context) error {
	_, found, err := l.store.Get(ctx, storeKey)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if found {
		return nil
	}
	if err := l.store.Set(ctx, storeKey, "[]"); err != nil {
		return fmt.Errorf("seed history: %w", err)
	}
	return nil
}

// Append adds rec to the end of the log and rewrites the stored sequence. A
// zero timestamp is replaced with the current time and an empty username
// with SystemActor. The stored record is returned.
func (l *Log) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now()
	}
	if strings.TrimSpace(rec.Username) == "" {
		rec.Username = SystemActor
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read(ctx)
	if err != nil {
		l.log.Error("append history aborted: stored log unreadable",
			zap.Error(err),
			zap.String("action", string(rec.Action)),
			zap.Int("product_id", rec.ProductID),
		)
		return Record{}, err
	}
	records = append(records, rec)

	raw, err := json.Marshal(records)
	if err != nil {
		l.log.Error("encode history failed", zap.Error(err))
		return Record{}, fmt.Errorf("encode history: %w", err)
	}
	if err := l.store.Set(ctx, storeKey, string(raw)); err != nil {
		l.log.Error("persist history failed",
			zap.Error(err),
			zap.String("action", string(rec.Action)),
			zap.Int("product_id", rec.ProductID),
		)
		return Record{}, fmt.Errorf("persist history: %w", err)
	}

	if l.recorder != nil {
		l.recorder.RecordAction(string(rec.Action))
	}
	return rec, nil
}

// ListAll returns every record in insertion order.
func (l *Log) ListAll(ctx context.Context) []Record {
	return l.load(ctx)
}

// DistinctUsers returns each username seen in the log once, in order of
// first appearance.
func (l *Log) DistinctUsers(ctx context.Context) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, r := range l.load(ctx) {
		if _, ok := seen[r.Username]; ok {
			continue
		}
		seen[r.Username] = struct{}{}
		out = append(out, r.Username)
	}
	return out
}

// load reads the persisted sequence for display. Unreadable or corrupt data
// is logged and treated as an empty log.
func (l *Log) load(ctx context.Context) []Record {
	records, err := l.read(ctx)
	if err != nil {
		l.log.Warn("history unreadable, treating as empty", zap.Error(err))
		return []Record{}
	}
	return records
}

// read returns the persisted sequence, or an error when it cannot be read or
// decoded. Writers must not replace a log they could not read.
func (l *Log) read(ctx context.Context) ([]Record, error) {
	raw, found, err := l.store.Get(ctx, storeKey)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
