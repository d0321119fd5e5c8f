package assetsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fra-atlas/asset_backend/assetgen"
	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jamshedpur(t *testing.T) (models.LocationKey, models.AssetRecord) {
	t.Helper()
	e, ok := assetgen.BuiltinCatalog().Lookup("Jamshedpur")
	if !ok {
		t.Fatal("Jamshedpur not curated")
	}
	return models.LocationKey{State: e.State, District: e.District, Village: e.Village}, e.Record
}

type sent struct {
	mu   sync.Mutex
	msgs []config.AssetUpdateMessage
}

func (s *sent) publish(_ context.Context, msg config.AssetUpdateMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return "server-id", nil
}

func TestPublisherForwardsLocalEventsOnly(t *testing.T) {
	bus := broadcast.NewBus()
	out := &sent{}
	p := NewPublisher(bus, out.publish)

	loc, rec := jamshedpur(t)
	local := bus.Publish(context.Background(), loc, &rec)
	bus.Publish(context.Background(), models.LocationKey{State: "Odisha"}, nil)
	bus.PublishEvent(context.Background(), broadcast.AssetDataUpdated{
		ID:     "remote-1",
		Origin: "another-instance",
		State:  "Tripura",
	})
	p.Close()

	if len(out.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(out.msgs))
	}
	first := out.msgs[0]
	if first.EventId != local.ID || first.Origin != bus.Origin() || first.Village != "Jamshedpur" {
		t.Fatalf("first message = %+v", first)
	}
	if string(out.msgs[1].Data) != "null" {
		t.Fatalf("reset data = %s", out.msgs[1].Data)
	}
}

func TestPublisherLogsFailures(t *testing.T) {
	bus := broadcast.NewBus()
	calls := 0
	p := NewPublisher(bus, func(context.Context, config.AssetUpdateMessage) (string, error) {
		calls++
		return "", errors.New("unavailable")
	})
	bus.Publish(context.Background(), models.LocationKey{State: "Odisha"}, nil)
	p.Close()
	p.Close()
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestPublisherIgnoresEventsAfterClose(t *testing.T) {
	bus := broadcast.NewBus()
	out := &sent{}
	p := NewPublisher(bus, out.publish)
	p.Close()

	loc, rec := jamshedpur(t)
	// A publish that took its subscriber snapshot before Close still reaches handle.
	p.handle(context.Background(), broadcast.AssetDataUpdated{
		ID: "late", Origin: bus.Origin(), State: loc.State, District: loc.District, Village: loc.Village, Data: &rec,
	})
	if len(out.msgs) != 0 {
		t.Fatalf("published %d messages after close", len(out.msgs))
	}
}

func TestDecodeEventRejectsBadRecords(t *testing.T) {
	valid := config.AssetUpdateMessage{EventId: "e1", Origin: "o1", Data: json.RawMessage("null")}
	if evt, err := DecodeEvent(valid); err != nil || !evt.IsReset() {
		t.Fatalf("reset: %+v %v", evt, err)
	}

	tests := []struct {
		name string
		msg  config.AssetUpdateMessage
	}{
		{"missing id", config.AssetUpdateMessage{Origin: "o1"}},
		{"unknown enum", config.AssetUpdateMessage{EventId: "e1", Origin: "o1", Data: json.RawMessage(`{"forest":{"quality":"Jungle"}}`)}},
		{"fails validation", config.AssetUpdateMessage{EventId: "e1", Origin: "o1", Data: json.RawMessage(`{"forest":{"areaHectares":-5}}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeEvent(tt.msg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func pushBody(t *testing.T, msg config.AssetUpdateMessage) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	var env PubSubPushEnvelope
	env.Message.Data = data
	env.Message.ID = "msg-1"
	env.Subscription = "projects/p/subscriptions/asset-updates-push"
	body, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestPubSubPushHandler(t *testing.T) {
	t.Setenv("ENABLE_ASSET_PUBSUB_PUSH_ENDPOINT", "true")
	loc, rec := jamshedpur(t)
	remote := broadcast.AssetDataUpdated{
		ID: "evt-remote", Origin: "instance-b",
		State: loc.State, District: loc.District, Village: loc.Village,
		Data: &rec, PublishedAt: time.Date(2024, 11, 15, 8, 0, 0, 0, time.UTC),
	}
	remoteMsg, err := EncodeEvent(remote)
	if err != nil {
		t.Fatal(err)
	}

	bus := broadcast.NewBus()
	ownMsg := remoteMsg
	ownMsg.Origin = bus.Origin()

	tests := []struct {
		name     string
		body     []byte
		relayed  bool
		wantCode int
	}{
		{"remote update is relayed", pushBody(t, remoteMsg), true, http.StatusNoContent},
		{"own echo is ignored", pushBody(t, ownMsg), false, http.StatusNoContent},
		{"malformed envelope is acked", []byte("{not json"), false, http.StatusNoContent},
		{"invalid payload is acked", pushBody(t, config.AssetUpdateMessage{Origin: "instance-b"}), false, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []broadcast.AssetDataUpdated
			unsubscribe := bus.Subscribe("test", func(_ context.Context, evt broadcast.AssetDataUpdated) {
				got = append(got, evt)
			})
			defer unsubscribe()

			r := gin.New()
			r.POST("/pubsub/asset-updates", PubSubPushHandler(bus))
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/pubsub/asset-updates", bytes.NewReader(tt.body))
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d", w.Code)
			}
			if tt.relayed != (len(got) == 1) {
				t.Fatalf("relayed %d events", len(got))
			}
			if tt.relayed {
				evt := got[0]
				if evt.ID != "evt-remote" || evt.Origin != "instance-b" || evt.Seq == 0 || evt.Data.Forest.AreaHectares != 1250 {
					t.Fatalf("relayed event = %+v", evt)
				}
				if !evt.PublishedAt.Equal(remote.PublishedAt) {
					t.Fatalf("published at = %s", evt.PublishedAt)
				}
			}
		})
	}
}

func TestPubSubPushHandlerDisabled(t *testing.T) {
	t.Setenv("ENABLE_ASSET_PUBSUB_PUSH_ENDPOINT", "false")
	bus := broadcast.NewBus()
	relayed := 0
	bus.Subscribe("test", func(context.Context, broadcast.AssetDataUpdated) { relayed++ })

	r := gin.New()
	r.POST("/pubsub/asset-updates", PubSubPushHandler(bus))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pubsub/asset-updates", bytes.NewReader([]byte("{}"))))
	if w.Code != http.StatusNoContent || relayed != 0 {
		t.Fatalf("status %d, relayed %d", w.Code, relayed)
	}
}

func TestMirrorWithoutRedis(t *testing.T) {
	bus := broadcast.NewBus()
	m := NewMirror(bus, time.Minute)
	defer m.Close()

	loc, rec := jamshedpur(t)
	bus.Publish(context.Background(), loc, &rec)

	if _, found, err := GetCachedRecord(loc); found || err != nil {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if keys, err := CachedKeys(); err != nil || keys == nil || len(keys) != 0 {
		t.Fatalf("keys=%v err=%v", keys, err)
	}
	if err := EvictCachedRecord(loc); err != nil {
		t.Fatalf("evict without redis: %v", err)
	}
}
