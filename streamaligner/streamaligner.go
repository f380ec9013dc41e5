// Package streamaligner provides time ordered storage and delivery of
// timestamped sample streams. Producers push samples into registered
// streams; consumers either query a stream for the sample matching a point
// in time, optionally interpolated, or let Step deliver buffered samples
// across all streams in global timestamp order.
package streamaligner

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// ErrNoSample is returned by lookups for which no stored sample qualifies.
var ErrNoSample = errors.New("no sample available")

// TimestampedValue pairs a sample payload with its acquisition time.
type TimestampedValue struct {
	Time  time.Time
	Value interface{}
}

// PopFunc is called by Step when a buffered sample is delivered.
type PopFunc func(t time.Time, value interface{})

// InterpolationFunc produces the payload for a point in time between two
// bracketing samples of a stream.
type InterpolationFunc func(older, newer TimestampedValue, at time.Time) interface{}

// StreamConfig describes a stream to be registered.
type StreamConfig struct {
	// Name identifies the stream in logs.
	Name string

	// OnPop, if set, receives the stream's samples from Step.
	OnPop PopFunc

	// BufferSize limits how many samples are retained; zero keeps all of them.
	BufferSize int

	// Period is the expected time between samples, zero for aperiodic
	// streams. Step holds back samples of other streams while a periodic
	// stream is expected to still produce an earlier one.
	Period time.Duration

	// Lookback is the window of history, relative to the newest sample, that
	// is never trimmed even when BufferSize is exceeded.
	Lookback time.Duration

	// Interpolate, if set, answers interpolating queries that fall between
	// two samples. Streams without it fall back to the nearest preceding sample.
	Interpolate InterpolationFunc
}

type stream struct {
	cfg     StreamConfig
	samples []TimestampedValue
	popIdx  int
}

// StreamAligner stores timestamped samples for any number of registered
// streams. Stream indices are handed out sequentially and never reused.
type StreamAligner struct {
	mu      sync.Mutex
	clock   clock.Clock
	streams []*stream
	logger  golog.Logger
}

// NewStreamAligner returns a ready to use aligner stamping zero-time pushes
// with the wall clock.
func NewStreamAligner(logger golog.Logger) *StreamAligner {
	return NewStreamAlignerWithClock(logger, clock.New())
}

// NewStreamAlignerWithClock returns an aligner using the given clock;
// tests pass a mock clock to control arrival stamping.
func NewStreamAlignerWithClock(logger golog.Logger, c clock.Clock) *StreamAligner {
	return &StreamAligner{clock: c, logger: logger}
}

// RegisterStream adds a stream and returns its index.
func (sa *StreamAligner) RegisterStream(cfg StreamConfig) int {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	sa.streams = append(sa.streams, &stream{cfg: cfg})
	idx := len(sa.streams) - 1
	sa.logger.Debugf("registered stream %q with index %d", cfg.Name, idx)
	return idx
}

func (sa *StreamAligner) stream(idx int) (*stream, error) {
	if idx < 0 || idx >= len(sa.streams) {
		return nil, errors.Errorf("unknown stream index %d", idx)
	}
	return sa.streams[idx], nil
}

// Push inserts a sample into the given stream, keeping the stream sorted by
// time so late arrivals are accepted. Samples pushed with a zero time are
// stamped with the aligner's clock.
func (sa *StreamAligner) Push(idx int, t time.Time, value interface{}) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	s, err := sa.stream(idx)
	if err != nil {
		return err
	}
	if t.IsZero() {
		t = sa.clock.Now()
	}

	i := sort.Search(len(s.samples), func(i int) bool { return s.samples[i].Time.After(t) })
	s.samples = append(s.samples, TimestampedValue{})
	copy(s.samples[i+1:], s.samples[i:])
	s.samples[i] = TimestampedValue{Time: t, Value: value}
	if i < s.popIdx {
		// arrived behind the pop cursor; it will not be delivered again
		s.popIdx++
		sa.logger.Debugf("late sample on stream %q at %v, skipping delivery", s.cfg.Name, t)
	}
	s.trim()
	return nil
}

// trim drops the oldest samples beyond the buffer size, but never inside the
// lookback window relative to the newest sample.
func (s *stream) trim() {
	if s.cfg.BufferSize <= 0 {
		return
	}
	for len(s.samples) > s.cfg.BufferSize {
		cutoff := s.samples[len(s.samples)-1].Time.Add(-s.cfg.Lookback)
		if !s.samples[0].Time.Before(cutoff) {
			break
		}
		s.samples = s.samples[1:]
		if s.popIdx > 0 {
			s.popIdx--
		}
	}
}

// Len returns the number of samples currently stored for the stream.
func (sa *StreamAligner) Len(idx int) int {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	s, err := sa.stream(idx)
	if err != nil {
		return 0
	}
	return len(s.samples)
}

// Latest returns the newest sample of the stream.
func (sa *StreamAligner) Latest(idx int) (TimestampedValue, error) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	s, err := sa.stream(idx)
	if err != nil {
		return TimestampedValue{}, err
	}
	if len(s.samples) == 0 {
		return TimestampedValue{}, ErrNoSample
	}
	return s.samples[len(s.samples)-1], nil
}

// Sample returns the stream's sample matching the given time. Without
// interpolation the nearest preceding sample answers the query. With
// interpolation an exact hit is returned as is, otherwise the bracketing
// pair is interpolated; queries past the newest sample or before the oldest
// return ErrNoSample.
func (sa *StreamAligner) Sample(idx int, at time.Time, interpolate bool) (TimestampedValue, error) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	s, err := sa.stream(idx)
	if err != nil {
		return TimestampedValue{}, err
	}

	i := sort.Search(len(s.samples), func(i int) bool { return s.samples[i].Time.After(at) })
	if i == 0 {
		return TimestampedValue{}, ErrNoSample
	}
	prev := s.samples[i-1]
	if !interpolate || prev.Time.Equal(at) || s.cfg.Interpolate == nil {
		return prev, nil
	}
	if i == len(s.samples) {
		// no sample brackets the request from above
		return TimestampedValue{}, ErrNoSample
	}
	next := s.samples[i]
	return TimestampedValue{Time: at, Value: s.cfg.Interpolate(prev, next, at)}, nil
}

// Step delivers the globally earliest undelivered sample across all streams,
// invoking the owning stream's OnPop callback if it has one. It returns the
// number of samples delivered, 0 or 1, so callers can loop until drained.
// Samples are held back while a periodic stream is still expected to produce
// an earlier one.
func (sa *StreamAligner) Step() int {
	sa.mu.Lock()
	best := -1
	for i, s := range sa.streams {
		if s.popIdx >= len(s.samples) {
			continue
		}
		if best == -1 || s.samples[s.popIdx].Time.Before(sa.streams[best].samples[sa.streams[best].popIdx].Time) {
			best = i
		}
	}
	if best == -1 {
		sa.mu.Unlock()
		return 0
	}
	s := sa.streams[best]
	tv := s.samples[s.popIdx]
	if !sa.caughtUp(best, tv.Time) {
		sa.mu.Unlock()
		return 0
	}
	s.popIdx++
	cb := s.cfg.OnPop
	sa.mu.Unlock()

	if cb != nil {
		cb(tv.Time, tv.Value)
	}
	return 1
}

// caughtUp reports whether every other periodic stream has either an
// undelivered sample or is not expected to produce one before t.
func (sa *StreamAligner) caughtUp(idx int, t time.Time) bool {
	for i, s := range sa.streams {
		if i == idx || s.cfg.Period <= 0 || s.popIdx < len(s.samples) {
			continue
		}
		if len(s.samples) == 0 {
			// never produced; do not stall on streams that have not started
			continue
		}
		if s.samples[len(s.samples)-1].Time.Add(s.cfg.Period).Before(t) {
			return false
		}
	}
	return true
}
