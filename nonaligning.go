package transformer

import (
	"sync"
	"time"

	"github.com/edaniels/golog"

	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/spatialmath"
)

// latestTransformationElement holds only the most recent transformation for
// a frame pair, with no history and no time alignment.
type latestTransformationElement struct {
	mu            sync.Mutex
	sourceFrame   string
	targetFrame   string
	lastTime      time.Time
	lastTransform spatialmath.Pose
	gotTransform  bool
}

func (e *latestTransformationElement) SourceFrame() string {
	return e.sourceFrame
}

func (e *latestTransformationElement) TargetFrame() string {
	return e.targetFrame
}

func (e *latestTransformationElement) Transformation(atTime time.Time, interpolate bool) (spatialmath.Pose, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.gotTransform {
		return nil, ErrNoSample
	}
	return e.lastTransform, nil
}

func (e *latestTransformationElement) set(t time.Time, tr spatialmath.Pose) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastTime = t
	e.lastTransform = tr
	e.gotTransform = true
}

func (e *latestTransformationElement) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastTime = time.Time{}
	e.lastTransform = nil
	e.gotTransform = false
}

// NonAligningTransformer is a Transformer whose dynamic transformations
// bypass the aggregator: for every (from, to) pair only the most recent
// transformation is held, and requests answer with it regardless of the
// requested time. It serves consumers that want the freshest transformation
// with no time alignment.
type NonAligningTransformer struct {
	*Transformer

	mu                 sync.Mutex
	transformToElement map[framePair]*latestTransformationElement
}

// NewNonAligningTransformer returns a NonAligningTransformer with default
// configuration.
func NewNonAligningTransformer(logger golog.Logger) *NonAligningTransformer {
	return &NonAligningTransformer{
		Transformer:        NewTransformer(logger),
		transformToElement: map[framePair]*latestTransformationElement{},
	}
}

// PushDynamicTransformation replaces the stored transformation for the
// sample's pair, creating the element and re-resolving maker chains the
// first time the pair is seen.
func (nt *NonAligningTransformer) PushDynamicTransformation(tr Transformation) {
	nt.mu.Lock()
	element, ok := nt.transformToElement[framePair{tr.From, tr.To}]
	if !ok {
		element = &latestTransformationElement{sourceFrame: tr.From, targetFrame: tr.To}
		nt.transformToElement[framePair{tr.From, tr.To}] = element
	}
	nt.mu.Unlock()

	if !ok {
		nt.addDynamicElement(element)
	}
	element.set(tr.Time, tr.Transform)
}

// Clear drops all stored dynamic transformations. The elements stay in the
// tree and report no sample until pushed again.
func (nt *NonAligningTransformer) Clear() {
	nt.mu.Lock()
	defer nt.mu.Unlock()
	for _, element := range nt.transformToElement {
		element.clear()
	}
}
