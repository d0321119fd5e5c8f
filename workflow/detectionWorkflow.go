package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/fra-atlas/asset_backend/assetgen"
	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/models/reports"
)

// DetectionWorkflow turns published records into detection results.
type DetectionWorkflow struct {
	*consumer
	rng assetgen.RandSource
	now func() time.Time

	mu         sync.RWMutex
	latestSeq  uint64
	location   models.LocationKey
	results    []reports.DetectionResult
	detectedAt time.Time
	detectedIn models.LocationKey
	detected   bool
	analyzing  bool
}

func NewDetectionWorkflow(bus *broadcast.Bus, rng assetgen.RandSource, delay time.Duration, now func() time.Time) *DetectionWorkflow {
	if rng == nil {
		rng = assetgen.NewDefaultSource()
	}
	if now == nil {
		now = time.Now
	}
	w := &DetectionWorkflow{
		consumer: newConsumer("detection", delay),
		rng:      rng,
		now:      now,
		results:  reports.DefaultDetectionResults(),
	}
	w.subscribe(bus, w.handle)
	return w
}

func NewDetectionWorkflowFromEnv(bus *broadcast.Bus, rng assetgen.RandSource) *DetectionWorkflow {
	return NewDetectionWorkflow(bus, rng, config.DetectionProcessingDelay(), nil)
}

// Every event restarts the analysis; only events with data replace the results.
func (w *DetectionWorkflow) handle(ctx context.Context, evt broadcast.AssetDataUpdated) {
	w.mu.Lock()
	w.latestSeq = evt.Seq
	w.location = evt.Location()
	w.analyzing = true
	loc := evt.Location()
	w.mu.Unlock()

	var rec *models.AssetRecord
	if !evt.IsReset() {
		r := *evt.Data
		rec = &r
	}
	w.later(func() {
		var results []reports.DetectionResult
		if rec != nil {
			results = reports.DetectAssets(*rec, w.rng)
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if evt.Seq != w.latestSeq {
			w.stale(ctx, evt.Seq, w.latestSeq)
			return
		}
		if rec != nil {
			w.results = results
			w.detected = true
			w.detectedAt = w.now()
			w.detectedIn = loc
		}
		w.analyzing = false
	})
}

func (w *DetectionWorkflow) Analyzing() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.analyzing
}

func (w *DetectionWorkflow) Location() models.LocationKey {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.location
}

func (w *DetectionWorkflow) Results() []reports.DetectionResult {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]reports.DetectionResult(nil), w.results...)
}

// Snapshot returns the results computed from published data and the location
// they were computed for. ok is false while only the defaults are available.
func (w *DetectionWorkflow) Snapshot() (loc models.LocationKey, results []reports.DetectionResult, at time.Time, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.detected {
		return w.location, nil, time.Time{}, false
	}
	return w.detectedIn, append([]reports.DetectionResult(nil), w.results...), w.detectedAt, true
}
