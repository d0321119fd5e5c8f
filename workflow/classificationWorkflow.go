package workflow

import (
	"context"

	"github.com/fra-atlas/asset_backend/models/reports"
)

// ClassificationWorkflow derives classification tables from the detection results.
type ClassificationWorkflow struct {
	detections *DetectionWorkflow
	bucket     string
}

func NewClassificationWorkflow(detections *DetectionWorkflow, exportBucket string) *ClassificationWorkflow {
	return &ClassificationWorkflow{detections: detections, bucket: exportBucket}
}

// Report falls back to the sample tables until a record has been analysed.
func (w *ClassificationWorkflow) Report() reports.ClassificationReport {
	loc, results, at, ok := w.detections.Snapshot()
	if !ok {
		return reports.SampleClassification()
	}
	return reports.BuildClassification(results, loc, at)
}

// Export renders the current report. When an export bucket is configured the
// file is also uploaded and its URI returned; upload failures are logged only.
func (w *ClassificationWorkflow) Export(ctx context.Context, format reports.ExportFormat) (*reports.ExportFile, string, error) {
	file, err := reports.ExportClassification(ctx, w.Report(), format)
	if err != nil {
		return nil, "", err
	}
	uri, err := reports.UploadExport(ctx, w.bucket, file)
	if err != nil {
		return file, "", nil
	}
	return file, uri, nil
}
