package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	isi "github.com/Kim-Neuroscience-Lab/ISI"
	mousepose "github.com/Kim-Neuroscience-Lab/ISI/mouse_pose"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"
)

func main() {
	pcdPath := flag.String("pcd", "", "path to the scanned model PCD file")
	noseTailAxis := flag.String("axis", string(mousepose.AxisY), "canonical axis for the nose-tail direction: x, y, or z")
	earAxis := flag.String("ear-axis", string(mousepose.AxisX), "canonical axis for the ear direction: x, y, or z")
	scale := flag.Float64("scale", 8.0, "uniform scale factor for the canonical frame")
	tolerance := flag.Float64("tolerance", 0.5, "alignment tolerance in degrees, in (0, 5]")
	downsample := flag.Int("downsample", 0, "downsample the cloud to ~N points before detection (0 = off)")
	outPath := flag.String("out", "", "write the canonical-frame cloud to this PCD path (optional)")
	flag.Parse()

	logger := logging.NewLogger("isi-align")

	if *pcdPath == "" {
		logger.Fatal("-pcd flag is required")
	}

	params := mousepose.GeometryParameters{
		ScaleFactor:           *scale,
		AlignmentToleranceDeg: *tolerance,
		NoseTailAxis:          mousepose.Axis(*noseTailAxis),
		EarAxis:               mousepose.Axis(*earAxis),
	}
	if err := params.Validate(); err != nil {
		logger.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cloud, err := pointcloud.NewFromFile(*pcdPath, "")
	if err != nil {
		logger.Fatalf("load PCD: %v", err)
	}
	logger.Infof("Loaded %d points from %s", cloud.Size(), *pcdPath)

	if *downsample > 0 {
		cloud = isi.DownsamplePointCloud(logger, cloud, *downsample)
	}

	pipeline := isi.NewPipeline(logger, nil)
	report, err := pipeline.Align(ctx, cloud, params)
	if err != nil {
		logger.Fatal(err)
	}

	if *outPath != "" {
		canonical, err := isi.TransformCloud(cloud, report.Transform)
		if err != nil {
			logger.Fatalf("transform cloud: %v", err)
		}
		if err := isi.SavePointCloudToPCD(canonical, *outPath); err != nil {
			logger.Fatalf("save canonical cloud: %v", err)
		}
		logger.Infof("Wrote canonical-frame cloud (%d points) to %s", canonical.Size(), *outPath)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal(err)
	}
	fmt.Println(string(out))
}
