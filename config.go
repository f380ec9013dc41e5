package transformer

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Brazilian-Institute-of-Robotics/drivers-transformer/spatialmath"
)

// StaticCalibrationEntry describes one static transformation in a
// calibration file. Rotation is optional; entries without one are pure
// translations.
type StaticCalibrationEntry struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	Translation r3.Vector         `json:"translation"`
	Rotation    *spatialmath.R4AA `json:"rotation,omitempty"`
}

// StaticCalibration is the on disk format for the static frame wiring of a
// system, typically written once at calibration time and pushed into a
// Transformer at startup.
type StaticCalibration struct {
	StaticTransformations []StaticCalibrationEntry `json:"static_transformations"`
}

// ParseStaticCalibration parses and validates a static calibration document,
// returning the transformations ready to be pushed. All invalid entries are
// reported together.
func ParseStaticCalibration(data []byte) ([]Transformation, error) {
	var calibration StaticCalibration
	if err := json.Unmarshal(data, &calibration); err != nil {
		return nil, errors.Wrap(err, "cannot parse static calibration")
	}

	var allErrs error
	transformations := make([]Transformation, 0, len(calibration.StaticTransformations))
	for i, entry := range calibration.StaticTransformations {
		if entry.From == "" || entry.To == "" {
			multierr.AppendInto(&allErrs, errors.Errorf("entry %d: from and to frames must be non-empty", i))
			continue
		}
		if entry.Rotation != nil && entry.Rotation.RX == 0 && entry.Rotation.RY == 0 && entry.Rotation.RZ == 0 {
			multierr.AppendInto(&allErrs, errors.Errorf("entry %d: rotation axis must be non-zero", i))
			continue
		}
		transform := spatialmath.NewPoseFromPoint(entry.Translation)
		if entry.Rotation != nil {
			transform = spatialmath.NewPoseFromOrientation(entry.Translation, entry.Rotation)
		}
		transformations = append(transformations, Transformation{
			From:      entry.From,
			To:        entry.To,
			Transform: transform,
		})
	}
	if allErrs != nil {
		return nil, allErrs
	}
	return transformations, nil
}

// ReadStaticCalibrationFile reads and parses a static calibration file.
func ReadStaticCalibrationFile(path string) ([]Transformation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read static calibration file %q", path)
	}
	return ParseStaticCalibration(data)
}
