// Package persistence snapshots the workout collection into a key-value store.
package persistence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/logging"
)

const (
	// DefaultKey is the key the snapshot lives under.
	DefaultKey = "workouts"

	// SnapshotVersion is the envelope format written by Save.
	SnapshotVersion = 1
)

// envelope wraps the records with metadata. The checksum covers the compact
// encoding of the workouts array.
type envelope struct {
	Version   int             `json:"version"`
	Checksum  string          `json:"checksum"`
	UpdatedAt time.Time       `json:"updated_at"`
	Workouts  json.RawMessage `json:"workouts"`
}

// Adapter reads and writes the whole collection as one snapshot.
type Adapter struct {
	kv     core.KeyValueStore
	key    string
	retry  *RetryPolicy
	logger *logging.Logger
	now    func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides the snapshot key.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithRetryPolicy sets the retry policy used around key-value calls.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(a *Adapter) {
		if p != nil {
			a.retry = p
		}
	}
}

// WithLogger sets the logger used to report retries and legacy repairs.
func WithLogger(l *logging.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock injects the clock stamped into the envelope.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// New creates an adapter over kv.
func New(kv core.KeyValueStore, opts ...Option) *Adapter {
	a := &Adapter{
		kv:     kv,
		key:    DefaultKey,
		retry:  DefaultRetryPolicy(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the snapshot key.
func (a *Adapter) Key() string {
	return a.key
}

// Save overwrites the snapshot with workouts, in order.
func (a *Adapter) Save(ctx context.Context, workouts []*core.Workout) error {
	data, err := Encode(workouts, a.now())
	if err != nil {
		return err
	}
	return a.do(ctx, "set", func(ctx context.Context) error {
		return a.kv.Set(ctx, a.key, data)
	})
}

// Load reads the snapshot. An absent key yields an empty collection. A
// snapshot that fails validation yields a corrupt data error and no records.
func (a *Adapter) Load(ctx context.Context) ([]*core.Workout, error) {
	var (
		data  []byte
		found bool
	)
	err := a.do(ctx, "get", func(ctx context.Context) error {
		var err error
		data, found, err = a.kv.Get(ctx, a.key)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return []*core.Workout{}, nil
	}
	workouts, clamped, err := decode(data)
	if err != nil {
		return nil, err
	}
	for _, id := range clamped {
		a.logger.Warn("negative legacy elevation gain set to zero", slog.String("workout_id", id))
	}
	return workouts, nil
}

// Clear deletes the snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.do(ctx, "delete", func(ctx context.Context) error {
		return a.kv.Delete(ctx, a.key)
	})
}

// do runs a key-value call under the retry policy. Errors from the store are
// classified as storage errors so the policy may retry them.
func (a *Adapter) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := a.retry.Execute(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			var de *core.DomainError
			if errors.As(err, &de) {
				return err
			}
			return core.ErrStorage(fmt.Sprintf("kv %s %s", op, a.key), err)
		}
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		a.logger.Warn("retrying key-value call",
			slog.String("op", op),
			slog.String("key", a.key),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err))
	})
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", op, err)
	}
	return nil
}

// Encode serializes workouts into a versioned, checksummed envelope.
func Encode(workouts []*core.Workout, updatedAt time.Time) ([]byte, error) {
	records := make([]record, 0, len(workouts))
	for _, w := range workouts {
		records = append(records, toRecord(w))
	}

	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshaling workouts: %w", err)
	}

	data, err := json.Marshal(envelope{
		Version:   SnapshotVersion,
		Checksum:  checksum(body),
		UpdatedAt: updatedAt.UTC(),
		Workouts:  body,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot. Both the envelope format and the legacy bare
// array are accepted. Every failure is reported as a corrupt data error.
func Decode(data []byte) ([]*core.Workout, error) {
	workouts, _, err := decode(data)
	return workouts, err
}

// decode is Decode that also reports the ids of legacy rides whose negative
// elevation gain was clamped to zero.
func decode(data []byte) ([]*core.Workout, []string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, core.ErrCorruptData("snapshot is empty")
	}
	if trimmed[0] == '[' {
		return decodeLegacy(trimmed)
	}
	workouts, err := decodeEnvelope(trimmed)
	return workouts, nil, err
}

func decodeEnvelope(trimmed []byte) ([]*core.Workout, error) {
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, core.ErrCorruptData("snapshot is not valid JSON").WithCause(err)
	}
	if env.Version != SnapshotVersion {
		return nil, core.ErrCorruptData(fmt.Sprintf("unsupported snapshot version %d", env.Version)).
			WithDetail("version", env.Version)
	}
	if len(env.Workouts) == 0 {
		return nil, core.ErrCorruptData("snapshot has no workouts field")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, env.Workouts); err != nil {
		return nil, core.ErrCorruptData("workouts field is not valid JSON").WithCause(err)
	}
	if got := checksum(compact.Bytes()); got != env.Checksum {
		return nil, core.ErrCorruptData("checksum mismatch").
			WithDetail("expected", env.Checksum).
			WithDetail("actual", got)
	}

	var records []record
	if err := json.Unmarshal(compact.Bytes(), &records); err != nil {
		return nil, core.ErrCorruptData("workouts field is not a record array").WithCause(err)
	}

	out := make([]*core.Workout, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		w, err := r.toWorkout(i)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[w.ID]; dup {
			return nil, corrupt(i, fmt.Sprintf("duplicate id %q", w.ID))
		}
		seen[w.ID] = struct{}{}
		out = append(out, w)
	}
	return out, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
