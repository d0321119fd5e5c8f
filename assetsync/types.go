package assetsync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/models"
)

var errMissingEventFields = errors.New("event_id and origin are required")

type PubSubPushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		ID         string            `json:"messageId"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// EncodeEvent converts a bus event to its Pub/Sub wire form.
func EncodeEvent(evt broadcast.AssetDataUpdated) (config.AssetUpdateMessage, error) {
	msg := config.AssetUpdateMessage{
		EventId:     evt.ID,
		Origin:      evt.Origin,
		State:       evt.State,
		District:    evt.District,
		Village:     evt.Village,
		PublishedAt: evt.PublishedAt,
		Data:        json.RawMessage("null"),
	}
	if evt.Data != nil {
		data, err := json.Marshal(evt.Data)
		if err != nil {
			return msg, err
		}
		msg.Data = data
	}
	return msg, nil
}

// DecodeEvent is the inverse of EncodeEvent. The record must pass validation;
// a null record is a reset. Seq is left for the local bus to assign.
func DecodeEvent(msg config.AssetUpdateMessage) (broadcast.AssetDataUpdated, error) {
	if msg.EventId == "" || msg.Origin == "" {
		return broadcast.AssetDataUpdated{}, errMissingEventFields
	}
	evt := broadcast.AssetDataUpdated{
		ID:          msg.EventId,
		Origin:      msg.Origin,
		State:       msg.State,
		District:    msg.District,
		Village:     msg.Village,
		PublishedAt: msg.PublishedAt,
	}
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return evt, nil
	}
	var rec models.AssetRecord
	if err := json.Unmarshal(msg.Data, &rec); err != nil {
		return evt, fmt.Errorf("decode asset record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return evt, fmt.Errorf("invalid asset record: %w", err)
	}
	evt.Data = &rec
	return evt, nil
}
