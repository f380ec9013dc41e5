package transformer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/spatialmath"
	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/streamaligner"
)

// TransformationElement represents a single known transformation from a
// source frame to a target frame, possibly time varying.
type TransformationElement interface {
	// SourceFrame returns the name of the source frame.
	SourceFrame() string

	// TargetFrame returns the name of the target frame.
	TargetFrame() string

	// Transformation returns the transformation at the given time. On
	// request the result is interpolated to match the given time better
	// than the available data. ErrNoSample is returned when no
	// transformation is available.
	Transformation(atTime time.Time, interpolate bool) (spatialmath.Pose, error)
}

// staticTransformationElement is a time invariant transformation.
type staticTransformationElement struct {
	sourceFrame string
	targetFrame string
	transform   spatialmath.Pose
}

// NewStaticTransformationElement returns an element whose transformation is
// fixed for all time.
func NewStaticTransformationElement(sourceFrame, targetFrame string, transform spatialmath.Pose) TransformationElement {
	return &staticTransformationElement{sourceFrame, targetFrame, transform}
}

func (e *staticTransformationElement) SourceFrame() string {
	return e.sourceFrame
}

func (e *staticTransformationElement) TargetFrame() string {
	return e.targetFrame
}

func (e *staticTransformationElement) Transformation(atTime time.Time, interpolate bool) (spatialmath.Pose, error) {
	return e.transform, nil
}

// dynamicTransformationElement is backed by a sample stream held by the
// aggregator under streamIdx.
type dynamicTransformationElement struct {
	sourceFrame string
	targetFrame string
	aggregator  *streamaligner.StreamAligner
	streamIdx   int
}

// NewDynamicTransformationElement returns an element answering requests from
// the given aggregator stream.
func NewDynamicTransformationElement(
	sourceFrame, targetFrame string,
	aggregator *streamaligner.StreamAligner,
	streamIdx int,
) TransformationElement {
	return &dynamicTransformationElement{sourceFrame, targetFrame, aggregator, streamIdx}
}

func (e *dynamicTransformationElement) SourceFrame() string {
	return e.sourceFrame
}

func (e *dynamicTransformationElement) TargetFrame() string {
	return e.targetFrame
}

func (e *dynamicTransformationElement) Transformation(atTime time.Time, interpolate bool) (spatialmath.Pose, error) {
	tv, err := e.aggregator.Sample(e.streamIdx, atTime, interpolate)
	if err != nil {
		if errors.Is(err, streamaligner.ErrNoSample) {
			return nil, ErrNoSample
		}
		return nil, err
	}
	tr, ok := tv.Value.(Transformation)
	if !ok {
		return nil, errors.Errorf("stream %d carries %T, not a transformation", e.streamIdx, tv.Value)
	}
	return tr.Transform, nil
}

// inverseTransformationElement reverses the direction of another element.
type inverseTransformationElement struct {
	nonInverseElement TransformationElement
}

// NewInverseTransformationElement returns an element with the endpoints of
// the given element swapped and its transformation inverted. Inverting an
// inverse element returns the underlying element rather than nesting.
func NewInverseTransformationElement(element TransformationElement) TransformationElement {
	if inv, ok := element.(*inverseTransformationElement); ok {
		return inv.nonInverseElement
	}
	return &inverseTransformationElement{element}
}

func (e *inverseTransformationElement) SourceFrame() string {
	return e.nonInverseElement.TargetFrame()
}

func (e *inverseTransformationElement) TargetFrame() string {
	return e.nonInverseElement.SourceFrame()
}

func (e *inverseTransformationElement) Transformation(atTime time.Time, interpolate bool) (spatialmath.Pose, error) {
	tr, err := e.nonInverseElement.Transformation(atTime, interpolate)
	if err != nil {
		return nil, err
	}
	return spatialmath.PoseInverse(tr), nil
}
