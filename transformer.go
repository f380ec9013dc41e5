// Package transformer composes chains of known rigid transformations between
// named coordinate frames and delivers them synchronized in time with
// consumer sample streams. Producers push static and dynamic transformations
// into a Transformer; consumers register a frame pair and obtain the
// composed transformation at a requested time.
package transformer

import (
	"sync"
	"time"

	"github.com/edaniels/golog"

	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/spatialmath"
	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/streamaligner"
)

// Default configuration values.
const (
	// DefaultMaxSeekDepth bounds the length of resolved chains.
	DefaultMaxSeekDepth = 20

	// DefaultLookback is the window of transformation history kept available
	// for consumer queries.
	DefaultLookback = 10 * time.Second
)

// Transformation is a timestamped rigid transformation between two named
// frames. Frame names are opaque non-empty strings; frames come into being
// by being referenced.
type Transformation struct {
	From      string
	To        string
	Time      time.Time
	Transform spatialmath.Pose
}

// framePair is an ordered (from, to) pair of frame names.
type framePair struct {
	from string
	to   string
}

// Config holds the tunables of a Transformer.
type Config struct {
	// MaxSeekDepth bounds the length of resolved transformation chains;
	// targets further away are reported as unreachable.
	MaxSeekDepth int `json:"max_seek_depth"`

	// Lookback is the window of transformation history kept per stream.
	Lookback time.Duration `json:"lookback"`
}

// Transformer ingests static and dynamic transformations, maintains the tree
// of available transformation elements and the chains of all registered
// makers, and owns the stream index table of the underlying aggregator.
type Transformer struct {
	mu                   sync.Mutex
	aggregator           *streamaligner.StreamAligner
	transformToStreamIdx map[framePair]int
	transformationMakers []*TransformationMaker
	transformationTree   *TransformationTree
	lookback             time.Duration
	logger               golog.Logger
}

// NewTransformer returns a Transformer with default configuration.
func NewTransformer(logger golog.Logger) *Transformer {
	return NewTransformerWithConfig(Config{}, logger)
}

// NewTransformerWithConfig returns a Transformer with the given
// configuration; zero values fall back to the defaults.
func NewTransformerWithConfig(cfg Config, logger golog.Logger) *Transformer {
	if cfg.MaxSeekDepth <= 0 {
		cfg.MaxSeekDepth = DefaultMaxSeekDepth
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	return &Transformer{
		aggregator:           streamaligner.NewStreamAligner(logger),
		transformToStreamIdx: map[framePair]int{},
		transformationTree:   NewTransformationTree(cfg.MaxSeekDepth, logger),
		lookback:             cfg.Lookback,
		logger:               logger,
	}
}

// StreamAligner returns the underlying stream aligner. This is mainly there
// for testing purposes and for building transformation elements by hand.
func (t *Transformer) StreamAligner() *streamaligner.StreamAligner {
	return t.aggregator
}

// RegisterTransformationStream registers a transformation stream for the
// given frame pair at the aggregator and returns its index. No pop callback
// is needed, the buffer is unbounded, and the period is zero so that the
// latest sample with respect to a data sample is always available.
func (t *Transformer) RegisterTransformationStream(from, to string) int {
	return t.aggregator.RegisterStream(streamaligner.StreamConfig{
		Name:        from + "2" + to,
		Lookback:    t.lookback,
		Interpolate: interpolateTransformation,
	})
}

// interpolateTransformation blends two bracketing transformation samples at
// the requested time, spherically on rotation and linearly on translation.
func interpolateTransformation(older, newer streamaligner.TimestampedValue, at time.Time) interface{} {
	o := older.Value.(Transformation)
	n := newer.Value.(Transformation)
	by := 0.0
	if total := n.Time.Sub(o.Time); total > 0 {
		by = float64(at.Sub(o.Time)) / float64(total)
	}
	return Transformation{
		From:      o.From,
		To:        o.To,
		Time:      at,
		Transform: spatialmath.Interpolate(o.Transform, n.Transform, by),
	}
}

// PushStaticTransformation adds a time invariant transformation to the tree.
// Chains of already registered makers are not re-resolved; static wiring is
// expected to be complete before makers register. Re-register makers to pick
// up static transformations added late.
func (t *Transformer) PushStaticTransformation(tr Transformation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transformationTree.AddTransformation(NewStaticTransformationElement(tr.From, tr.To, tr.Transform))
}

// PushDynamicTransformation adds a new transformation sample. The
// transformer keeps track of the available transformations and registers a
// stream, a dynamic tree element and fresh maker chains for pairs it has not
// seen before; the sample is then forwarded to the aggregator.
func (t *Transformer) PushDynamicTransformation(tr Transformation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pair := framePair{tr.From, tr.To}
	streamIdx, ok := t.transformToStreamIdx[pair]
	if !ok {
		streamIdx = t.RegisterTransformationStream(tr.From, tr.To)
		t.transformToStreamIdx[pair] = streamIdx
		t.logger.Debugf("registering new stream for transformation from %q to %q, index is %d", tr.From, tr.To, streamIdx)

		t.transformationTree.AddTransformation(NewDynamicTransformationElement(tr.From, tr.To, t.aggregator, streamIdx))

		// the new element may connect previously unreachable pairs
		t.resolveMakerChains()

		if _, ok := t.transformToStreamIdx[pair]; !ok {
			panic("transformer: stream index missing after insertion")
		}
	}

	if err := t.aggregator.Push(streamIdx, tr.Time, tr); err != nil {
		t.logger.Errorw("failed to push transformation sample", "from", tr.From, "to", tr.To, "error", err)
	}
}

// resolveMakerChains seeks through all registered makers and installs a
// chain on each whose pair is reachable. Chains are recomputed from scratch,
// the tree may have gained shorter paths.
func (t *Transformer) resolveMakerChains() {
	for _, maker := range t.transformationMakers {
		chain, err := t.transformationTree.TransformationChain(maker.SourceFrame(), maker.TargetFrame())
		if err != nil {
			continue
		}
		maker.SetTransformationChain(chain)
	}
}

// RegisterTransformation creates a maker bound to the given frame pair and
// attempts an immediate chain resolution. The maker stays registered and its
// chain is re-resolved whenever a new dynamic transformation appears.
func (t *Transformer) RegisterTransformation(from, to string) *TransformationMaker {
	t.mu.Lock()
	defer t.mu.Unlock()

	maker := newTransformationMaker(from, to)
	t.transformationMakers = append(t.transformationMakers, maker)
	if chain, err := t.transformationTree.TransformationChain(from, to); err == nil {
		maker.SetTransformationChain(chain)
	}
	return maker
}

// SetTransformationChain manually sets a transformation chain. It seeks
// through all registered makers and installs the given chain on those whose
// source and target frames match.
func (t *Transformer) SetTransformationChain(from, to string, chain []TransformationElement) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, maker := range t.transformationMakers {
		if maker.SourceFrame() == from && maker.TargetFrame() == to {
			maker.SetTransformationChain(chain)
		}
	}
}

// addDynamicElement inserts a transformation element into the tree and
// re-resolves all maker chains.
func (t *Transformer) addDynamicElement(element TransformationElement) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transformationTree.AddTransformation(element)
	t.resolveMakerChains()
}

// RegisterDataStream registers a consumer data stream together with a
// callback. Samples pushed into the stream are delivered by Step in global
// time order, each together with the transformation from dataFrame to
// targetFrame composed at the sample's timestamp. Samples for which no chain
// is available yet are dropped with a warning.
func (t *Transformer) RegisterDataStream(
	period time.Duration,
	dataFrame, targetFrame string,
	callback DataCallback,
	interpolate bool,
) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	maker := newTransformationMaker(dataFrame, targetFrame)
	maker.callback = callback
	maker.interpolate = interpolate
	t.transformationMakers = append(t.transformationMakers, maker)
	if chain, err := t.transformationTree.TransformationChain(dataFrame, targetFrame); err == nil {
		maker.SetTransformationChain(chain)
	}

	return t.aggregator.RegisterStream(streamaligner.StreamConfig{
		Name:     dataFrame + "2" + targetFrame + "_data",
		Period:   period,
		Lookback: t.lookback,
		OnPop: func(ts time.Time, value interface{}) {
			t.deliverAlignedSample(maker, ts, value)
		},
	})
}

// deliverAlignedSample pairs a popped data sample with its transformation
// and invokes the maker's callback.
func (t *Transformer) deliverAlignedSample(maker *TransformationMaker, ts time.Time, value interface{}) {
	tr, err := maker.Transformation(ts, maker.interpolate)
	if err != nil {
		t.logger.Warnf("dropping sample, no transformation chain from %q to %q available yet",
			maker.SourceFrame(), maker.TargetFrame())
		return
	}
	maker.callback(ts, value, tr)
}

// PushData pushes a data sample into a stream registered with
// RegisterDataStream.
func (t *Transformer) PushData(streamIdx int, ts time.Time, value interface{}) error {
	return t.aggregator.Push(streamIdx, ts, value)
}

// Step processes the next buffered sample in global time order, delivering
// it to its stream's callback. It returns the number of samples processed,
// 0 or 1, so callers can loop until drained.
func (t *Transformer) Step() int {
	return t.aggregator.Step()
}
