package transformer

import (
	"sync"
	"time"

	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/spatialmath"
)

// DataCallback receives a data sample together with the transformation from
// the sample's frame to the consumer's target frame at the sample's time.
type DataCallback func(ts time.Time, value interface{}, tr Transformation)

// TransformationMaker binds a (source, target) frame pair to its currently
// resolved transformation chain and composes the per element samples at a
// requested time into one rigid transformation.
type TransformationMaker struct {
	mu                  sync.Mutex
	sourceFrame         string
	targetFrame         string
	transformationChain []TransformationElement
	resolved            bool

	// set for makers created through RegisterDataStream
	callback    DataCallback
	interpolate bool
}

func newTransformationMaker(sourceFrame, targetFrame string) *TransformationMaker {
	return &TransformationMaker{sourceFrame: sourceFrame, targetFrame: targetFrame}
}

// SourceFrame returns the source frame of the bound pair.
func (m *TransformationMaker) SourceFrame() string {
	return m.sourceFrame
}

// TargetFrame returns the target frame of the bound pair.
func (m *TransformationMaker) TargetFrame() string {
	return m.targetFrame
}

// SetTransformationChain replaces the maker's chain. It is installed by the
// transformer after a successful resolution; any prior chain is discarded.
func (m *TransformationMaker) SetTransformationChain(chain []TransformationElement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transformationChain = chain
	m.resolved = true
}

// Transformation composes the chain at the given time into the
// transformation from the source frame to the target frame. Composition
// starts from identity and samples the elements in chain order, so a maker
// resolved to an empty chain yields identity. A maker whose chain was never
// resolved, or any element without a sample at the time, yields ErrNoSample.
func (m *TransformationMaker) Transformation(atTime time.Time, interpolate bool) (Transformation, error) {
	m.mu.Lock()
	chain := m.transformationChain
	resolved := m.resolved
	m.mu.Unlock()

	if !resolved {
		return Transformation{}, ErrNoSample
	}

	result := Transformation{
		From:      m.sourceFrame,
		To:        m.targetFrame,
		Time:      atTime,
		Transform: spatialmath.NewZeroPose(),
	}
	for _, element := range chain {
		tr, err := element.Transformation(atTime, interpolate)
		if err != nil {
			return Transformation{}, err
		}
		result.Transform = spatialmath.Compose(result.Transform, tr)
	}
	return result, nil
}
