package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fra-atlas/asset_backend/assetgen"
	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("fra-atlas/workflow")

type FetchPolicy string

const (
	// PolicyLatestWins cancels the previous fetch and applies only the newest pick.
	PolicyLatestWins FetchPolicy = "latest-wins"
	// PolicyFirstWins refuses new picks while a fetch is in flight.
	PolicyFirstWins FetchPolicy = "first-wins"
	// PolicyApplyAll applies every response in completion order.
	PolicyApplyAll FetchPolicy = "apply-all"
)

const fetchJitter = 800 * time.Millisecond

var (
	ErrFetchInFlight       = errors.New("an asset fetch is already in flight")
	ErrSelectionIncomplete = errors.New("state and district must be selected before a village")
	ErrSelectorClosed      = errors.New("selector is closed")
)

func ParseFetchPolicy(s string) FetchPolicy {
	switch p := FetchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyLatestWins, PolicyFirstWins, PolicyApplyAll:
		return p
	}
	return PolicyLatestWins
}

type SelectorConfig struct {
	Policy FetchPolicy
	// Latency is the base simulated fetch delay; up to 800ms of jitter is added.
	// Zero disables the delay and the jitter.
	Latency time.Duration
	Now     func() time.Time
}

// SelectorConfigFromEnv reads ASSET_FETCH_POLICY and ASSET_FETCH_LATENCY_MS.
func SelectorConfigFromEnv() SelectorConfig {
	return SelectorConfig{
		Policy:  ParseFetchPolicy(config.FetchPolicy()),
		Latency: config.FetchLatency(),
	}
}

// Selection is the selector's view: the picked location and the record applied
// for it, if any.
type Selection struct {
	Location  models.LocationKey  `json:"location"`
	Record    *models.AssetRecord `json:"record,omitempty"`
	RequestID uint64              `json:"requestId"`
	Fallback  bool                `json:"fallback"`
	Loading   bool                `json:"loading"`
}

// Selector coordinates state/district/village picks with asynchronous asset
// fetches and publishes the results on the bus.
type Selector struct {
	gen     *assetgen.Generator
	bus     *broadcast.Bus
	policy  FetchPolicy
	latency time.Duration
	now     func() time.Time
	logger  *logrus.Logger

	// publishMu orders publications so a stale fetch cannot land after a reset.
	publishMu sync.Mutex

	mu       sync.Mutex
	location models.LocationKey
	record   *models.AssetRecord
	applied  uint64
	fallback bool
	nextID   uint64
	inFlight map[uint64]context.CancelFunc
	closed   bool

	wg sync.WaitGroup
}

func NewSelector(gen *assetgen.Generator, bus *broadcast.Bus, cfg SelectorConfig) *Selector {
	if cfg.Policy == "" {
		cfg.Policy = PolicyLatestWins
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Selector{
		gen:      gen,
		bus:      bus,
		policy:   cfg.Policy,
		latency:  cfg.Latency,
		now:      cfg.Now,
		logger:   config.GetLogger(),
		inFlight: make(map[uint64]context.CancelFunc),
	}
}

func (s *Selector) Policy() FetchPolicy { return s.policy }

// Current returns a copy of the selection and its applied record.
func (s *Selector) Current() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := Selection{
		Location:  s.location,
		RequestID: s.applied,
		Fallback:  s.fallback,
		Loading:   len(s.inFlight) > 0,
	}
	if s.record != nil {
		rec := s.record.Clone()
		sel.Record = &rec
	}
	return sel
}

// SelectState clears the district, the village and the record, then publishes a reset.
func (s *Selector) SelectState(ctx context.Context, state string) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSelectorClosed
	}
	s.location = models.LocationKey{State: strings.TrimSpace(state)}
	loc := s.location
	s.resetLocked()
	s.mu.Unlock()

	s.bus.Publish(ctx, loc, nil)
	return nil
}

// SelectDistrict clears the village and the record, then publishes a reset.
func (s *Selector) SelectDistrict(ctx context.Context, district string) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSelectorClosed
	}
	s.location.District = strings.TrimSpace(district)
	s.location.Village = ""
	loc := s.location
	s.resetLocked()
	s.mu.Unlock()

	s.bus.Publish(ctx, loc, nil)
	return nil
}

// resetLocked drops the applied record. Under latest-wins it also cancels
// fetches started for the previous selection.
func (s *Selector) resetLocked() {
	s.record = nil
	s.fallback = false
	if s.policy == PolicyLatestWins {
		s.nextID++
		s.cancelAllLocked()
	}
}

func (s *Selector) cancelAllLocked() {
	for id, cancel := range s.inFlight {
		cancel()
		delete(s.inFlight, id)
	}
}

// SelectVillage records the pick and starts a fetch for it. An empty village
// only clears the record. The returned id identifies the fetch.
func (s *Selector) SelectVillage(ctx context.Context, village string) (uint64, error) {
	village = strings.TrimSpace(village)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSelectorClosed
	}
	if village == "" {
		s.location.Village = ""
		s.record = nil
		s.fallback = false
		s.mu.Unlock()
		return 0, nil
	}
	if s.location.State == "" || s.location.District == "" {
		s.mu.Unlock()
		return 0, ErrSelectionIncomplete
	}
	if s.policy == PolicyFirstWins && len(s.inFlight) > 0 {
		s.mu.Unlock()
		return 0, ErrFetchInFlight
	}
	s.location.Village = village
	loc := s.location
	id := s.startLocked(ctx, loc, loc)
	s.mu.Unlock()
	return id, nil
}

// LoadDistrictData fetches data for the selected district, using the district
// name as the village name. The selected village is left empty.
func (s *Selector) LoadDistrictData(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSelectorClosed
	}
	if s.location.District == "" {
		s.mu.Unlock()
		return 0, ErrSelectionIncomplete
	}
	if s.policy == PolicyFirstWins && len(s.inFlight) > 0 {
		s.mu.Unlock()
		return 0, ErrFetchInFlight
	}
	s.location.Village = ""
	loc := models.LocationKey{State: s.location.State, District: s.location.District, Village: s.location.District}
	id := s.startLocked(ctx, loc, s.location)
	s.mu.Unlock()
	return id, nil
}

// startLocked fetches loc. The result is stored only while the selection is
// still selected.
func (s *Selector) startLocked(ctx context.Context, loc, selected models.LocationKey) uint64 {
	if s.policy == PolicyLatestWins {
		s.cancelAllLocked()
	}
	s.nextID++
	id := s.nextID

	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	fctx = utils.SetRequestIdInContext(fctx, id)
	s.inFlight[id] = cancel

	s.wg.Add(1)
	go s.fetch(fctx, id, loc, selected)
	return id
}

func (s *Selector) finish(id uint64) {
	s.mu.Lock()
	if cancel, ok := s.inFlight[id]; ok {
		cancel()
		delete(s.inFlight, id)
	}
	s.mu.Unlock()
}

func (s *Selector) delay() time.Duration {
	if s.latency <= 0 {
		return 0
	}
	return s.latency + time.Duration(s.gen.Rand().Float64()*float64(fetchJitter))
}

func (s *Selector) fetch(ctx context.Context, id uint64, loc, selected models.LocationKey) {
	defer s.wg.Done()
	defer s.finish(id)

	ctx, span := tracer.Start(ctx, "workflow.Selector.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("request.id", int64(id)),
		attribute.String("village", loc.Village),
	)

	fields := logrus.Fields{"request_id": id, "location": loc.String(), "policy": s.policy}

	if d := s.delay(); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			s.logger.WithFields(fields).Debug("asset fetch cancelled")
			return
		case <-t.C:
		}
	}

	rec, err := s.gen.Generate(ctx, loc.State, loc.District, loc.Village)
	if err != nil {
		config.LogError(s.logger, "workflow", "Selector.fetch", "asset generation failed, using synthesized fallback", fields, err)
		span.RecordError(err)
		fallback := assetgen.Synthesize(s.gen.Rand(), loc.State)
		s.apply(id, selected, &fallback, true)
		return
	}

	live := assetgen.ApplyLiveVariation(rec, s.gen.Rand(), s.now())

	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if ctx.Err() != nil {
		s.logger.WithFields(fields).Debug("dropping cancelled asset fetch")
		return
	}
	// apply-all publishes every response, including ones for a selection that has moved on.
	if !s.apply(id, selected, &live, false) && s.policy != PolicyApplyAll {
		s.logger.WithFields(fields).Debug("dropping stale asset fetch")
		return
	}
	s.bus.Publish(ctx, loc, &live)
}

// apply stores rec as the current record unless the fetch is stale: a newer
// request exists under latest-wins, or the selection has changed since the fetch
// started.
func (s *Selector) apply(id uint64, selected models.LocationKey, rec *models.AssetRecord, fallback bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == PolicyLatestWins && id != s.nextID {
		return false
	}
	if s.location != selected {
		return false
	}
	s.record = rec
	s.applied = id
	s.fallback = fallback
	return true
}

// Wait blocks until every started fetch has finished.
func (s *Selector) Wait() { s.wg.Wait() }

// Close cancels in-flight fetches and waits for them.
func (s *Selector) Close() {
	s.mu.Lock()
	s.closed = true
	s.cancelAllLocked()
	s.mu.Unlock()
	s.wg.Wait()
}
