package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fra-atlas/asset_backend/assetgen"
	"github.com/fra-atlas/asset_backend/assetsync"
	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/models/reports"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/fra-atlas/asset_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const sseBuffer = 16

type stateResponse struct {
	State   string           `json:"state"`
	Factors assetgen.Factors `json:"factors"`
}

type selectionRequest struct {
	State    string `json:"state" binding:"required"`
	District string `json:"district"`
	Village  string `json:"village"`
}

type satelliteRequest struct {
	State    string `json:"state" binding:"required"`
	District string `json:"district" binding:"required"`
}

type exportRequest struct {
	Format string `json:"format" binding:"required"`
}

type scheduleRequest struct {
	Frequency string `json:"frequency" binding:"required"`
}

// assetEvent is the SSE form of an assetDataUpdated event.
type assetEvent struct {
	ID          string               `json:"id"`
	Seq         uint64               `json:"seq"`
	State       string               `json:"state"`
	District    string               `json:"district"`
	Village     string               `json:"village"`
	Data        *models.AssetDisplay `json:"data"`
	PublishedAt time.Time            `json:"publishedAt"`
}

func displayOf(rec *models.AssetRecord) *models.AssetDisplay {
	if rec == nil {
		return nil
	}
	d := rec.Display()
	return &d
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
}

func selectionError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, workflow.ErrFetchInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrSelectionIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrSelectorClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func attachment(c *gin.Context, f *reports.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.FileName))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

func statesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		states := assetgen.SupportedStates()
		out := make([]stateResponse, 0, len(states))
		for _, s := range states {
			out = append(out, stateResponse{State: s, Factors: assetgen.StateFactors(s)})
		}
		c.JSON(http.StatusOK, gin.H{"states": out})
	}
}

func districtsHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := c.Query("state")
		c.JSON(http.StatusOK, gin.H{
			"state":     state,
			"districts": assetgen.LoadStateDistricts(a.districtsDir, state),
		})
	}
}

func villagesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		district := c.Query("district")
		c.JSON(http.StatusOK, gin.H{
			"district": district,
			"villages": assetgen.VillagesForDistrict(district),
		})
	}
}

// moveTo applies the state and district part of a pick. Each change publishes a reset.
func moveTo(ctx context.Context, s *workflow.Selector, state, district string) error {
	cur := s.Current().Location
	if state != cur.State {
		if err := s.SelectState(ctx, state); err != nil {
			return err
		}
		cur = s.Current().Location
	}
	if district != cur.District {
		return s.SelectDistrict(ctx, district)
	}
	return nil
}

func selectionHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req selectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		loc := models.LocationKey{State: req.State, District: req.District, Village: req.Village}.Normalize()
		ctx := c.Request.Context()

		if err := moveTo(ctx, a.selector, loc.State, loc.District); err != nil {
			selectionError(c, err)
			return
		}
		var requestID uint64
		if loc.Village != "" || a.selector.Current().Location.Village != "" {
			id, err := a.selector.SelectVillage(ctx, loc.Village)
			if err != nil {
				selectionError(c, err)
				return
			}
			requestID = id
		}

		status := http.StatusOK
		if requestID != 0 {
			status = http.StatusAccepted
		}
		c.JSON(status, gin.H{
			"requestId": requestID,
			"location":  a.selector.Current().Location,
			"policy":    a.selector.Policy(),
		})
	}
}

func satelliteHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req satelliteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		loc := models.LocationKey{State: req.State, District: req.District}.Normalize()
		ctx := c.Request.Context()
		if err := moveTo(ctx, a.selector, loc.State, loc.District); err != nil {
			selectionError(c, err)
			return
		}
		id, err := a.selector.LoadDistrictData(ctx)
		if err != nil {
			selectionError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"requestId": id, "location": a.selector.Current().Location})
	}
}

// assetsHandler generates, varies and publishes a record in one request. A
// failed generation answers with a synthesized record that is not published.
func assetsHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loc models.LocationKey
		if err := c.ShouldBindQuery(&loc); err != nil {
			badRequest(c, err)
			return
		}
		loc = loc.Normalize()
		if err := loc.Validate(); err != nil {
			badRequest(c, err)
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "GET /api/asset-mapping/assets")
		defer span.End()
		span.SetAttributes(attribute.String("village", loc.Village))

		rec, err := a.generator.Generate(ctx, loc.State, loc.District, loc.Village)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "assetsHandler", "asset generation failed, using synthesized fallback", loc, err)
			fallback := assetgen.Synthesize(a.generator.Rand(), loc.State)
			c.JSON(http.StatusOK, gin.H{"location": loc, "data": fallback.Display(), "record": fallback, "fallback": true})
			return
		}

		live := assetgen.ApplyLiveVariation(rec, a.generator.Rand(), a.now())
		evt := a.bus.Publish(ctx, loc, &live)
		c.JSON(http.StatusOK, gin.H{
			"eventId":  evt.ID,
			"location": loc,
			"data":     live.Display(),
			"record":   live,
			"fallback": false,
		})
	}
}

func cachedAssetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loc models.LocationKey
		if err := c.ShouldBindQuery(&loc); err != nil {
			badRequest(c, err)
			return
		}
		loc = loc.Normalize()
		if err := loc.Validate(); err != nil {
			badRequest(c, err)
			return
		}
		entry, found, err := assetsync.GetCachedRecord(loc)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": utils.ErrorRecordNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"eventId":     entry.EventID,
			"location":    entry.Location,
			"data":        entry.Record.Display(),
			"record":      entry.Record,
			"publishedAt": entry.PublishedAt,
		})
	}
}

func evictCachedAssetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loc models.LocationKey
		if err := c.ShouldBindQuery(&loc); err != nil {
			badRequest(c, err)
			return
		}
		loc = loc.Normalize()
		if err := loc.Validate(); err != nil {
			badRequest(c, err)
			return
		}
		if err := assetsync.EvictCachedRecord(loc); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func cachedKeysHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		keys, err := assetsync.CachedKeys()
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"keys": keys})
	}
}

func currentHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		sel := a.selector.Current()
		c.JSON(http.StatusOK, gin.H{
			"location":  sel.Location,
			"requestId": sel.RequestID,
			"loading":   sel.Loading,
			"fallback":  sel.Fallback,
			"data":      displayOf(sel.Record),
		})
	}
}

func statsHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"location": a.stats.Location(),
			"loading":  a.stats.Loading(),
			"stats":    a.stats.Panel(),
		})
	}
}

func reportHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, a.stats.Report())
	}
}

func reportDownloadHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := a.stats.DownloadReport()
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		attachment(c, f)
	}
}

func detectionsHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := a.detections.Results()
		c.JSON(http.StatusOK, gin.H{
			"location":          a.detections.Location(),
			"analyzing":         a.detections.Analyzing(),
			"results":           results,
			"averageConfidence": reports.AverageConfidence(results),
		})
	}
}

func classificationHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, a.classification.Report())
	}
}

func exportHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req exportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		format, err := reports.ParseExportFormat(req.Format)
		if err != nil {
			badRequest(c, err)
			return
		}
		f, uri, err := a.classification.Export(c.Request.Context(), format)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if uri != "" {
			c.Header("X-Export-Uri", uri)
		}
		attachment(c, f)
	}
}

func scheduleHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		message, err := workflow.ScheduleUpdate(c.Request.Context(), a.selector.Current().Location, req.Frequency)
		if err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}

func schedulesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		schedules, err := workflow.ScheduledUpdates()
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"schedules": schedules})
	}
}

// eventsHandler streams bus events as server-sent events until the client goes
// away. A client that falls more than sseBuffer events behind loses events.
func eventsHandler(a *application) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())

		events := make(chan broadcast.AssetDataUpdated, sseBuffer)
		unsubscribe := a.bus.Subscribe("sse:"+cid, func(_ context.Context, evt broadcast.AssetDataUpdated) {
			select {
			case events <- evt:
			default:
				logger.WithFields(logrus.Fields{"correlation_id": cid, "seq": evt.Seq}).Warn("sse client too slow; dropping event")
			}
		})
		defer unsubscribe()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-events:
				c.SSEvent(broadcast.EventAssetDataUpdated, assetEvent{
					ID:          evt.ID,
					Seq:         evt.Seq,
					State:       evt.State,
					District:    evt.District,
					Village:     evt.Village,
					Data:        displayOf(evt.Data),
					PublishedAt: evt.PublishedAt,
				})
				c.Writer.Flush()
			}
		}
	}
}
