package transformer

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/spatialmath"
)

func TestMakerComposition(t *testing.T) {
	maker := newTransformationMaker("a", "c")
	maker.SetTransformationChain([]TransformationElement{
		staticElement("a", "b", 1, 0, 0),
		staticElement("b", "c", 0, 1, 0),
	})

	tr, err := maker.Transformation(base, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tr.From, test.ShouldEqual, "a")
	test.That(t, tr.To, test.ShouldEqual, "c")
	test.That(t, tr.Time.Equal(base), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(tr.Transform.Point(), r3.Vector{X: 1, Y: 1, Z: 0}, 1e-12), test.ShouldBeTrue)
}

func TestMakerUnresolved(t *testing.T) {
	maker := newTransformationMaker("a", "c")
	_, err := maker.Transformation(base, false)
	test.That(t, errors.Is(err, ErrNoSample), test.ShouldBeTrue)
}

func TestMakerEmptyChainIsIdentity(t *testing.T) {
	maker := newTransformationMaker("a", "a")
	maker.SetTransformationChain([]TransformationElement{})

	tr, err := maker.Transformation(base, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(tr.Transform, spatialmath.NewZeroPose()), test.ShouldBeTrue)
}

func TestMakerAbortsOnMissingSample(t *testing.T) {
	maker := newTransformationMaker("a", "c")
	maker.SetTransformationChain([]TransformationElement{
		staticElement("a", "b", 1, 0, 0),
		&latestTransformationElement{sourceFrame: "b", targetFrame: "c"}, // never pushed
	})

	_, err := maker.Transformation(base, false)
	test.That(t, errors.Is(err, ErrNoSample), test.ShouldBeTrue)
}

func TestMakerChainReplacement(t *testing.T) {
	maker := newTransformationMaker("a", "b")
	maker.SetTransformationChain([]TransformationElement{staticElement("a", "b", 1, 0, 0)})
	maker.SetTransformationChain([]TransformationElement{staticElement("a", "b", 2, 0, 0)})

	tr, err := maker.Transformation(base.Add(time.Second), false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(tr.Transform.Point(), r3.Vector{X: 2, Y: 0, Z: 0}, 1e-12), test.ShouldBeTrue)
}
