package isi

import (
	"fmt"
	"os"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"

	mousepose "github.com/Kim-Neuroscience-Lab/ISI/mouse_pose"
)

// DownsamplePointCloud downsamples a point cloud to approximately the target
// number of points by keeping every k-th point.
func DownsamplePointCloud(logger logging.Logger, cloud pointcloud.PointCloud, targetPoints int) pointcloud.PointCloud {
	if targetPoints <= 0 || cloud.Size() <= targetPoints {
		return cloud
	}
	logger.Infof("Point cloud has %d points, downsampling to ~%d...", cloud.Size(), targetPoints)

	downsampled := pointcloud.NewBasicEmpty()
	step := cloud.Size() / targetPoints
	if step < 1 {
		step = 1
	}
	i := 0
	cloud.Iterate(0, 0, func(p r3.Vector, d pointcloud.Data) bool {
		if i%step == 0 {
			if err := downsampled.Set(p, d); err != nil {
				logger.Warnf("Failed to add point: %v", err)
			}
		}
		i++
		return true
	})

	logger.Infof("Downsampled to %d points", downsampled.Size())
	return downsampled
}

// TransformCloud applies a homogeneous transform to every point of a cloud,
// producing the canonical-frame cloud.
func TransformCloud(cloud pointcloud.PointCloud, m *mat.Dense) (pointcloud.PointCloud, error) {
	out := pointcloud.NewBasicPointCloud(cloud.Size())
	var applyErr error
	cloud.Iterate(0, 0, func(pt r3.Vector, d pointcloud.Data) bool {
		transformed, err := mousepose.ApplyToPoint(m, pt)
		if err != nil {
			applyErr = err
			return false
		}
		if err := out.Set(transformed, d); err != nil {
			applyErr = err
			return false
		}
		return true
	})
	if applyErr != nil {
		return nil, applyErr
	}
	return out, nil
}

// SavePointCloudToPCD writes a point cloud to a PCD file in binary format.
func SavePointCloudToPCD(cloud pointcloud.PointCloud, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if err := pointcloud.ToPCD(cloud, file, pointcloud.PCDBinary); err != nil {
		return fmt.Errorf("write PCD: %w", err)
	}

	return nil
}
