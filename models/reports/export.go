package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("fra-atlas/reports")

var ErrUnsupportedExportFormat = errors.New("unsupported export format")

type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"

	overviewSheet = "Overview"
	detailsSheet  = "Details"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatXLSX, ExportFormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedExportFormat, s)
}

type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

type classificationDocument struct {
	Overview []OverviewRow `json:"overview"`
	Details  []DetailRow   `json:"details"`
}

// ExportClassification renders the classification report in the given format.
// The pdf format is a JSON document under a .pdf name.
func ExportClassification(ctx context.Context, report ClassificationReport, format ExportFormat) (*ExportFile, error) {
	_, span := tracer.Start(ctx, "reports.ExportClassification")
	defer span.End()
	span.SetAttributes(attribute.String("export.format", string(format)))

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatJSON, ExportFormatPDF:
		data, err = json.MarshalIndent(classificationDocument{Overview: report.Overview, Details: report.Details}, "", "  ")
		contentType = contentTypeJSON
		if format == ExportFormatPDF {
			contentType = contentTypePDF
		}
	case ExportFormatCSV:
		data, err = csvutil.Marshal(report.Details)
		contentType = contentTypeCSV
	case ExportFormatXLSX:
		data, err = classificationWorkbook(report)
		contentType = contentTypeXLSX
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedExportFormat, format)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &ExportFile{
		FileName:    "asset-classification-report." + string(format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func classificationWorkbook(report ClassificationReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", overviewSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(detailsSheet); err != nil {
		return nil, err
	}

	if err := setRow(f, overviewSheet, 1, "Category", "Area", "Percentage"); err != nil {
		return nil, err
	}
	for i, o := range report.Overview {
		if err := setRow(f, overviewSheet, i+2, o.Category, o.Area, o.Percentage); err != nil {
			return nil, err
		}
	}

	if err := setRow(f, detailsSheet, 1, "ID", "Type", "Subtype", "Area", "Confidence", "Confidence Label", "Coordinates", "Last Updated"); err != nil {
		return nil, err
	}
	for i, d := range report.Details {
		if err := setRow(f, detailsSheet, i+2, d.ID, d.Type, d.Subtype, d.Area, d.Confidence, string(d.ConfidenceLabel), d.Coordinates, d.LastUpdated); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(overviewSheet, "A", "C", 22)
	_ = f.SetColWidth(detailsSheet, "B", "H", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DownloadDocument is the detailed report handed out as a JSON attachment.
type DownloadDocument struct {
	Title            string   `json:"title"`
	GeneratedAt      string   `json:"generatedAt"`
	Location         any      `json:"location"`
	Summary          Totals   `json:"summary"`
	DetailedAnalysis Analysis `json:"detailedAnalysis"`
	Recommendations  []string `json:"recommendations"`
	RawData          any      `json:"rawData"`
}

func ReportDownload(report SummaryReport, now time.Time) (*ExportFile, error) {
	doc := DownloadDocument{
		Title:            "Asset Mapping Detailed Report",
		GeneratedAt:      now.UTC().Format(time.RFC3339Nano),
		Location:         report.Location,
		Summary:          report.Totals,
		DetailedAnalysis: report.Analysis,
		Recommendations:  report.Recommendations,
		RawData:          report.Assets,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return &ExportFile{
		FileName:    fmt.Sprintf("asset-mapping-report-%s-%s.json", report.Location.Village, now.UTC().Format("2006-01-02")),
		ContentType: contentTypeJSON,
		Data:        bytes.TrimRight(buf.Bytes(), "\n"),
	}, nil
}

// UploadExport stores an export under exports/ in bucket and returns its gs:// URI.
func UploadExport(ctx context.Context, bucket string, file *ExportFile) (string, error) {
	if bucket == "" {
		return "", nil
	}
	object := path.Join("exports", utils.GenerateUniqueFilename()+"-"+file.FileName)
	uri, err := utils.UploadBytesToGCS(ctx, bucket, object, file.Data, file.ContentType)
	if err != nil {
		config.LogError(config.GetLogger(), "Reports", "UploadExport", bucket, file.FileName, err)
		return "", err
	}
	return uri, nil
}
