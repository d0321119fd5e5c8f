package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/models/reports"
)

// StatsWorkflow keeps the stats panel and the summary report of the latest
// published record.
type StatsWorkflow struct {
	*consumer
	now func() time.Time

	mu        sync.RWMutex
	latestSeq uint64
	location  models.LocationKey
	panel     reports.StatsPanel
	report    *reports.SummaryReport
	loading   bool
}

func NewStatsWorkflow(bus *broadcast.Bus, delay time.Duration, now func() time.Time) *StatsWorkflow {
	if now == nil {
		now = time.Now
	}
	w := &StatsWorkflow{
		consumer: newConsumer("stats", delay),
		now:      now,
		panel:    reports.DefaultStatsPanel(),
	}
	w.subscribe(bus, w.handle)
	return w
}

func NewStatsWorkflowFromEnv(bus *broadcast.Bus) *StatsWorkflow {
	return NewStatsWorkflow(bus, config.StatsProcessingDelay(), nil)
}

// A reset only moves the location; panel and report keep their last values.
func (w *StatsWorkflow) handle(ctx context.Context, evt broadcast.AssetDataUpdated) {
	w.mu.Lock()
	w.latestSeq = evt.Seq
	w.location = evt.Location()
	w.loading = !evt.IsReset()
	w.mu.Unlock()
	if evt.IsReset() {
		return
	}

	rec := *evt.Data
	loc := evt.Location()
	w.later(func() {
		now := w.now()
		panel := reports.BuildStatsPanel(rec, now)
		report := reports.Aggregate(rec, loc, now)

		w.mu.Lock()
		defer w.mu.Unlock()
		if evt.Seq != w.latestSeq {
			w.stale(ctx, evt.Seq, w.latestSeq)
			return
		}
		w.panel = panel
		w.report = &report
		w.loading = false
	})
}

func (w *StatsWorkflow) Location() models.LocationKey {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.location
}

func (w *StatsWorkflow) Loading() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loading
}

func (w *StatsWorkflow) Panel() reports.StatsPanel {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.panel
}

// Report returns the summary of the latest record, or the sample report when
// nothing has been processed yet.
func (w *StatsWorkflow) Report() reports.SummaryReport {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.report == nil {
		return reports.DefaultSummaryReport(w.now())
	}
	return *w.report
}

// DownloadReport renders Report as the downloadable JSON document.
func (w *StatsWorkflow) DownloadReport() (*reports.ExportFile, error) {
	return reports.ReportDownload(w.Report(), w.now())
}
