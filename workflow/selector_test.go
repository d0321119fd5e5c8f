package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fra-atlas/asset_backend/assetgen"
	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/utils"
)

// No DB, redis or Pub/Sub: every path below runs on the in-process bus.

type fixedSource struct{ f float64 }

func (s fixedSource) Float64() float64 { return s.f }
func (s fixedSource) Intn(n int) int   { return 0 }

type recorder struct {
	mu     sync.Mutex
	events []broadcast.AssetDataUpdated
}

func (r *recorder) handle(_ context.Context, evt broadcast.AssetDataUpdated) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) snapshot() []broadcast.AssetDataUpdated {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcast.AssetDataUpdated(nil), r.events...)
}

func (r *recorder) data() []broadcast.AssetDataUpdated {
	var out []broadcast.AssetDataUpdated
	for _, e := range r.snapshot() {
		if !e.IsReset() {
			out = append(out, e)
		}
	}
	return out
}

func newTestSelector(t *testing.T, catalog *assetgen.Catalog, policy FetchPolicy, latency time.Duration) (*Selector, *recorder) {
	t.Helper()
	bus := broadcast.NewBus()
	rec := &recorder{}
	bus.Subscribe("recorder", rec.handle)
	gen := assetgen.NewGenerator(catalog, fixedSource{})
	s := NewSelector(gen, bus, SelectorConfig{Policy: policy, Latency: latency})
	t.Cleanup(s.Close)
	return s, rec
}

func pickDistrict(t *testing.T, s *Selector, state, district string) {
	t.Helper()
	ctx := context.Background()
	if err := s.SelectState(ctx, state); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectDistrict(ctx, district); err != nil {
		t.Fatal(err)
	}
}

func TestSelectorResetEvents(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyLatestWins, 0)
	pickDistrict(t, s, "Jharkhand", "East Singhbhum")

	events := rec.snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	want := []models.LocationKey{
		{State: "Jharkhand"},
		{State: "Jharkhand", District: "East Singhbhum"},
	}
	for i, e := range events {
		if !e.IsReset() || e.Location() != want[i] {
			t.Errorf("event %d = %+v reset=%v", i, e.Location(), e.IsReset())
		}
	}
	if events[1].Seq <= events[0].Seq {
		t.Fatalf("seq not increasing: %d, %d", events[0].Seq, events[1].Seq)
	}
}

func TestSelectorVillageFetchPublishes(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyLatestWins, 0)
	pickDistrict(t, s, "Jharkhand", "East Singhbhum")

	id, err := s.SelectVillage(context.Background(), "Jamshedpur")
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	data := rec.data()
	if len(data) != 1 {
		t.Fatalf("got %d data events, want 1", len(data))
	}
	evt := data[0]
	if evt.Village != "Jamshedpur" || evt.Data.DataSource != assetgen.LiveDataSource || evt.Data.Water.Sources != 12 {
		t.Fatalf("event = %+v", evt)
	}

	cur := s.Current()
	if cur.RequestID != id || cur.Record == nil || cur.Fallback || cur.Loading {
		t.Fatalf("current = %+v", cur)
	}
	if cur.Location != (models.LocationKey{State: "Jharkhand", District: "East Singhbhum", Village: "Jamshedpur"}) {
		t.Fatalf("location = %+v", cur.Location)
	}
}

func TestSelectorVillageNeedsDistrict(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyLatestWins, 0)
	if err := s.SelectState(context.Background(), "Odisha"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SelectVillage(context.Background(), "Angul"); !errors.Is(err, ErrSelectionIncomplete) {
		t.Fatalf("err = %v", err)
	}
	if id, err := s.SelectVillage(context.Background(), "  "); err != nil || id != 0 {
		t.Fatalf("empty village: id=%d err=%v", id, err)
	}
	if n := len(rec.data()); n != 0 {
		t.Fatalf("published %d data events", n)
	}
}

func TestSelectorLatestWinsCancelsPrevious(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyLatestWins, 40*time.Millisecond)
	pickDistrict(t, s, "Jharkhand", "East Singhbhum")
	ctx := context.Background()

	if _, err := s.SelectVillage(ctx, "Jamshedpur"); err != nil {
		t.Fatal(err)
	}
	second, err := s.SelectVillage(ctx, "Ghatshila")
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	data := rec.data()
	if len(data) != 1 || data[0].Village != "Ghatshila" {
		t.Fatalf("data events = %+v", data)
	}
	if cur := s.Current(); cur.RequestID != second || cur.Location.Village != "Ghatshila" {
		t.Fatalf("current = %+v", cur)
	}
}

func TestSelectorResetCancelsFetch(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyLatestWins, 40*time.Millisecond)
	pickDistrict(t, s, "Jharkhand", "East Singhbhum")
	ctx := context.Background()

	if _, err := s.SelectVillage(ctx, "Jamshedpur"); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectDistrict(ctx, "Ranchi"); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	if n := len(rec.data()); n != 0 {
		t.Fatalf("stale fetch published %d events", n)
	}
	if cur := s.Current(); cur.Record != nil {
		t.Fatalf("record = %+v", cur.Record)
	}
}

func TestSelectorFirstWinsRefuses(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyFirstWins, 40*time.Millisecond)
	pickDistrict(t, s, "Jharkhand", "East Singhbhum")
	ctx := context.Background()

	if _, err := s.SelectVillage(ctx, "Jamshedpur"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SelectVillage(ctx, "Ghatshila"); !errors.Is(err, ErrFetchInFlight) {
		t.Fatalf("err = %v, want ErrFetchInFlight", err)
	}
	s.Wait()

	data := rec.data()
	if len(data) != 1 || data[0].Village != "Jamshedpur" {
		t.Fatalf("data events = %+v", data)
	}
	if _, err := s.SelectVillage(ctx, "Ghatshila"); err != nil {
		t.Fatalf("after completion: %v", err)
	}
}

func TestSelectorResetDiscardsFetchForOldSelection(t *testing.T) {
	tests := []struct {
		policy    FetchPolicy
		published int
	}{
		{PolicyFirstWins, 0},
		{PolicyApplyAll, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			s, rec := newTestSelector(t, nil, tt.policy, 40*time.Millisecond)
			pickDistrict(t, s, "Jharkhand", "East Singhbhum")
			ctx := context.Background()

			if _, err := s.SelectVillage(ctx, "Jamshedpur"); err != nil {
				t.Fatal(err)
			}
			if err := s.SelectState(ctx, "Odisha"); err != nil {
				t.Fatal(err)
			}
			s.Wait()

			cur := s.Current()
			if cur.Location != (models.LocationKey{State: "Odisha"}) || cur.Record != nil {
				t.Fatalf("current = %+v", cur)
			}
			if n := len(rec.data()); n != tt.published {
				t.Fatalf("published %d data events, want %d", n, tt.published)
			}
		})
	}
}

func TestSelectorEventCarriesRequestID(t *testing.T) {
	s, _ := newTestSelector(t, nil, PolicyLatestWins, 0)
	var (
		mu  sync.Mutex
		got uint64
	)
	s.bus.Subscribe("request-ids", func(ctx context.Context, evt broadcast.AssetDataUpdated) {
		if evt.IsReset() {
			return
		}
		id, _ := utils.GetRequestIdFromContext(ctx)
		mu.Lock()
		got = id
		mu.Unlock()
	})
	pickDistrict(t, s, "Jharkhand", "East Singhbhum")

	id, err := s.SelectVillage(context.Background(), "Jamshedpur")
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got != id || id == 0 {
		t.Fatalf("event request id = %d, want %d", got, id)
	}
}

func TestSelectorApplyAllPublishesEveryResponse(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyApplyAll, 20*time.Millisecond)
	pickDistrict(t, s, "Jharkhand", "East Singhbhum")
	ctx := context.Background()

	for _, v := range []string{"Jamshedpur", "Ghatshila", "Potka"} {
		if _, err := s.SelectVillage(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
	s.Wait()
	if n := len(rec.data()); n != 3 {
		t.Fatalf("got %d data events, want 3", n)
	}
}

func TestSelectorGenerationFailureUsesFallback(t *testing.T) {
	broken := assetgen.NewCatalog(assetgen.CatalogEntry{
		State: "Odisha", District: "Angul", Village: "Broken",
		Record: models.AssetRecord{Forest: models.ForestAssets{Quality: "Bogus"}},
	})
	s, rec := newTestSelector(t, broken, PolicyLatestWins, 0)
	pickDistrict(t, s, "Odisha", "Angul")

	if _, err := s.SelectVillage(context.Background(), "Broken"); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	if n := len(rec.data()); n != 0 {
		t.Fatalf("fallback was published (%d events)", n)
	}
	cur := s.Current()
	if cur.Record == nil || !cur.Fallback {
		t.Fatalf("current = %+v", cur)
	}
	if err := cur.Record.Validate(); err != nil {
		t.Fatalf("fallback invalid: %v", err)
	}
}

func TestSelectorLoadDistrictData(t *testing.T) {
	s, rec := newTestSelector(t, nil, PolicyLatestWins, 0)
	ctx := context.Background()
	if _, err := s.LoadDistrictData(ctx); !errors.Is(err, ErrSelectionIncomplete) {
		t.Fatalf("err = %v", err)
	}
	pickDistrict(t, s, "Jharkhand", "Ranchi")
	if _, err := s.LoadDistrictData(ctx); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	data := rec.data()
	if len(data) != 1 || data[0].Village != "Ranchi" || data[0].Data.Water.Sources != 15 {
		t.Fatalf("data events = %+v", data)
	}
	if cur := s.Current(); cur.Location.Village != "" || cur.Record == nil {
		t.Fatalf("current = %+v", cur)
	}
}

func TestSelectorClosed(t *testing.T) {
	s, _ := newTestSelector(t, nil, PolicyLatestWins, 0)
	s.Close()
	if err := s.SelectState(context.Background(), "Odisha"); !errors.Is(err, ErrSelectorClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseFetchPolicy(t *testing.T) {
	tests := map[string]FetchPolicy{
		"":             PolicyLatestWins,
		"first-wins":   PolicyFirstWins,
		" APPLY-ALL ":  PolicyApplyAll,
		"latest-wins":  PolicyLatestWins,
		"unknown-mode": PolicyLatestWins,
	}
	for in, want := range tests {
		if got := ParseFetchPolicy(in); got != want {
			t.Errorf("ParseFetchPolicy(%q) = %s, want %s", in, got, want)
		}
	}
}
