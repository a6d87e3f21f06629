package camera

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ErrInvalidIntrinsics is wrapped by every intrinsics validation failure.
var ErrInvalidIntrinsics = errors.New("invalid camera intrinsics")

// NewInvalidIntrinsicsError is used when a field of the intrinsics is out of range.
func NewInvalidIntrinsicsError(msg string) error {
	return errors.Wrap(ErrInvalidIntrinsics, msg)
}

// Pose is a rigid transform, rotation as an axis-angle vector followed by translation.
type Pose struct {
	Rotation    r3.Vector `json:"rotation"`
	Translation r3.Vector `json:"translation"`
}

// Block packs the pose into an extrinsics block.
func (p Pose) Block() []float64 {
	return []float64{
		p.Rotation.X, p.Rotation.Y, p.Rotation.Z,
		p.Translation.X, p.Translation.Y, p.Translation.Z,
	}
}

// NewPoseFromBlock reads a pose from an extrinsics block.
func NewPoseFromBlock(block []float64) (Pose, error) {
	if len(block) != ExtrinsicsSize {
		return Pose{}, errors.Errorf("extrinsics block has %d values, expected %d", len(block), ExtrinsicsSize)
	}
	return poseAt(block, OffsetRotation, OffsetTranslation), nil
}

func poseAt(block []float64, rot, trans int) Pose {
	return Pose{
		Rotation:    r3.Vector{X: block[rot], Y: block[rot+1], Z: block[rot+2]},
		Translation: r3.Vector{X: block[trans], Y: block[trans+1], Z: block[trans+2]},
	}
}

// Intrinsics holds the internal parameters of a camera for any of the supported models. Fields
// that a model does not use are left at zero.
type Intrinsics struct {
	Model    ModelType `json:"model"`
	Focal    float64   `json:"focal"`
	Ppx      float64   `json:"ppx"`
	Ppy      float64   `json:"ppy"`
	RadialK1 float64   `json:"rk1,omitempty"`
	RadialK2 float64   `json:"rk2,omitempty"`
	RadialK3 float64   `json:"rk3,omitempty"`
	// SubPose is the fixed offset of a rig camera from its platform.
	SubPose *Pose `json:"sub_pose,omitempty"`
}

// IntrinsicsSchema returns the JSON schema of an intrinsics configuration.
func IntrinsicsSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Intrinsics{})
}

// CheckValid checks that the intrinsics describe a usable camera of their model.
func (in *Intrinsics) CheckValid() error {
	if in == nil {
		return NewInvalidIntrinsicsError("intrinsics do not exist")
	}
	if _, err := in.Model.Arity(); err != nil {
		return err
	}
	var errs error
	if !(in.Focal > 0) || math.IsInf(in.Focal, 1) {
		errs = multierr.Append(errs, NewInvalidIntrinsicsError(fmt.Sprintf("invalid focal length %#v", in.Focal)))
	}
	type namedValue struct {
		name  string
		value float64
	}
	fields := []namedValue{
		{"ppx", in.Ppx}, {"ppy", in.Ppy}, {"rk1", in.RadialK1}, {"rk2", in.RadialK2}, {"rk3", in.RadialK3},
	}
	if in.SubPose != nil {
		rot, trans := in.SubPose.Rotation, in.SubPose.Translation
		fields = append(fields,
			namedValue{"sub_pose.rotation.x", rot.X}, namedValue{"sub_pose.rotation.y", rot.Y},
			namedValue{"sub_pose.rotation.z", rot.Z}, namedValue{"sub_pose.translation.x", trans.X},
			namedValue{"sub_pose.translation.y", trans.Y}, namedValue{"sub_pose.translation.z", trans.Z},
		)
	}
	for _, field := range fields {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			errs = multierr.Append(errs, NewInvalidIntrinsicsError(fmt.Sprintf("%s is not finite", field.name)))
		}
	}
	if in.Model != PinholeRadialK1ModelType && in.Model != PinholeRadialK3ModelType && in.RadialK1 != 0 {
		errs = multierr.Append(errs, NewInvalidIntrinsicsError(fmt.Sprintf("model %q has no k1 coefficient", in.Model)))
	}
	if in.Model != PinholeRadialK3ModelType && (in.RadialK2 != 0 || in.RadialK3 != 0) {
		errs = multierr.Append(errs, NewInvalidIntrinsicsError(fmt.Sprintf("model %q has no k2/k3 coefficients", in.Model)))
	}
	switch {
	case in.Model == PinholeRigModelType && in.SubPose == nil:
		errs = multierr.Append(errs, NewInvalidIntrinsicsError("rig camera is missing its sub_pose"))
	case in.Model != PinholeRigModelType && in.SubPose != nil:
		errs = multierr.Append(errs, NewInvalidIntrinsicsError(fmt.Sprintf("model %q does not take a sub_pose", in.Model)))
	}
	return errs
}

// Block packs the intrinsics into the parameter block layout of their model.
func (in *Intrinsics) Block() ([]float64, error) {
	n, err := in.Model.IntrinsicsSize()
	if err != nil {
		return nil, err
	}
	block := make([]float64, n)
	block[OffsetFocalLength] = in.Focal
	block[OffsetPrincipalPointX] = in.Ppx
	block[OffsetPrincipalPointY] = in.Ppy
	switch in.Model { //nolint:exhaustive
	case PinholeRadialK1ModelType:
		block[OffsetDistortionK1] = in.RadialK1
	case PinholeRadialK3ModelType:
		block[OffsetDistortionK1] = in.RadialK1
		block[OffsetDistortionK2] = in.RadialK2
		block[OffsetDistortionK3] = in.RadialK3
	case PinholeRigModelType:
		sub := Pose{}
		if in.SubPose != nil {
			sub = *in.SubPose
		}
		copy(block[OffsetSubPoseRotation:], sub.Block())
	}
	return block, nil
}

// NewIntrinsicsFromBlock reads intrinsics of the given model from a parameter block.
func NewIntrinsicsFromBlock(model ModelType, block []float64) (*Intrinsics, error) {
	n, err := model.IntrinsicsSize()
	if err != nil {
		return nil, err
	}
	if len(block) != n {
		return nil, errors.Errorf("%q intrinsics block has %d values, expected %d", model, len(block), n)
	}
	in := &Intrinsics{
		Model: model,
		Focal: block[OffsetFocalLength],
		Ppx:   block[OffsetPrincipalPointX],
		Ppy:   block[OffsetPrincipalPointY],
	}
	switch model { //nolint:exhaustive
	case PinholeRadialK1ModelType:
		in.RadialK1 = block[OffsetDistortionK1]
	case PinholeRadialK3ModelType:
		in.RadialK1 = block[OffsetDistortionK1]
		in.RadialK2 = block[OffsetDistortionK2]
		in.RadialK3 = block[OffsetDistortionK3]
	case PinholeRigModelType:
		sub := poseAt(block, OffsetSubPoseRotation, OffsetSubPoseTranslation)
		in.SubPose = &sub
	}
	return in, nil
}

// NewIntrinsicsFromJSONFile reads and validates intrinsics from a JSON file.
func NewIntrinsicsFromJSONFile(jsonPath string) (*Intrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &Intrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

// NewIntrinsicsFromAttributes decodes and validates intrinsics from a loosely typed attribute map,
// as found in component configuration.
func NewIntrinsicsFromAttributes(attrs map[string]interface{}) (*Intrinsics, error) {
	intrinsics := &Intrinsics{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           intrinsics,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.DecodeHookFuncType(vectorHook),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "error decoding intrinsics attributes")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

var vectorType = reflect.TypeOf(r3.Vector{})

// vectorHook lets a vector be written either as {"x":..,"y":..,"z":..} or as a three element list.
func vectorHook(_, to reflect.Type, data interface{}) (interface{}, error) {
	if to != vectorType {
		return data, nil
	}
	list := reflect.ValueOf(data)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return data, nil
	}
	if list.Len() != 3 {
		return nil, errors.Errorf("expected 3 values for a vector, got %d", list.Len())
	}
	return map[string]interface{}{
		"x": list.Index(0).Interface(),
		"y": list.Index(1).Interface(),
		"z": list.Index(2).Interface(),
	}, nil
}
