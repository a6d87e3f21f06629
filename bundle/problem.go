package bundle

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/reprojection/camera"
)

// Block is one observation: camera Intrinsics[Intrinsics] at pose Poses[Pose] saw Points[Point]
// at pixel Observed.
type Block struct {
	Model      camera.ModelType
	Observed   r2.Point
	Intrinsics int
	Pose       int
	Point      int
}

// Problem holds the parameter blocks and the residual blocks that reference them by index.
type Problem struct {
	Intrinsics [][]float64
	Poses      [][]float64
	Points     [][]float64
	Blocks     []Block

	models []camera.ModelType
}

// AddCamera validates a camera configuration and appends its parameter block. It returns the
// index to reference it by.
func (p *Problem) AddCamera(in *camera.Intrinsics) (int, error) {
	if err := in.CheckValid(); err != nil {
		return 0, err
	}
	block, err := in.Block()
	if err != nil {
		return 0, err
	}
	p.Intrinsics = append(p.Intrinsics, block)
	for len(p.models) < len(p.Intrinsics)-1 {
		p.models = append(p.models, "")
	}
	p.models = append(p.models, in.Model)
	return len(p.Intrinsics) - 1, nil
}

// AddPose appends an extrinsics block and returns its index.
func (p *Problem) AddPose(pose camera.Pose) int {
	p.Poses = append(p.Poses, pose.Block())
	return len(p.Poses) - 1
}

// AddPoint appends a point block and returns its index.
func (p *Problem) AddPoint(pt r3.Vector) int {
	p.Points = append(p.Points, []float64{pt.X, pt.Y, pt.Z})
	return len(p.Points) - 1
}

// AddObservation appends a residual block for a camera added with AddCamera, using that camera's
// model.
func (p *Problem) AddObservation(cam, pose, point int, observed r2.Point) error {
	if cam < 0 || cam >= len(p.models) || p.models[cam] == "" {
		return errors.Errorf("camera %d was not added with AddCamera", cam)
	}
	b := Block{Model: p.models[cam], Observed: observed, Intrinsics: cam, Pose: pose, Point: point}
	if err := p.checkIndexes(b); err != nil {
		return err
	}
	p.Blocks = append(p.Blocks, b)
	return nil
}

func (p *Problem) checkIndexes(b Block) error {
	for _, ref := range []struct {
		name  string
		index int
		count int
	}{
		{"intrinsics", b.Intrinsics, len(p.Intrinsics)},
		{"pose", b.Pose, len(p.Poses)},
		{"point", b.Point, len(p.Points)},
	} {
		if ref.index < 0 || ref.index >= ref.count {
			return errors.Errorf("%s index %d out of range [0, %d)", ref.name, ref.index, ref.count)
		}
	}
	return nil
}
