package assetsync

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PubSubPushHandler re-publishes asset updates from other instances on the
// local bus. Every outcome is acknowledged with 204: malformed messages would
// only be redelivered.
func PubSubPushHandler(bus *broadcast.Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if !config.PubSubPushEndpointEnabled() {
			c.Status(http.StatusNoContent)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "assetsync", "PubSubPushHandler", "Read body", nil, err)
			c.Status(http.StatusNoContent)
			return
		}

		// byte slice unmarshalling handles base64 decoding.
		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			config.LogError(logger, "assetsync", "PubSubPushHandler", "Unmarshal body", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		var msg config.AssetUpdateMessage
		if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil {
			config.LogError(logger, "assetsync", "PubSubPushHandler", "Unmarshal pubsub message", envelope.Message.ID, err)
			c.Status(http.StatusNoContent)
			return
		}
		if msg.Origin == bus.Origin() {
			c.Status(http.StatusNoContent)
			return
		}

		evt, err := DecodeEvent(msg)
		if err != nil {
			config.LogError(logger, "assetsync", "PubSubPushHandler", "Invalid asset update", msg.EventId, err)
			c.Status(http.StatusNoContent)
			return
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), envelope.Message.ID)
		relayed := bus.PublishEvent(ctx, evt)
		logger.WithFields(logrus.Fields{
			"event_id":   relayed.ID,
			"message_id": envelope.Message.ID,
			"origin":     relayed.Origin,
			"seq":        relayed.Seq,
		}).Info("relayed remote asset update")
		c.Status(http.StatusNoContent)
	}
}
