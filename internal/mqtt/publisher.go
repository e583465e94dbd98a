package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/errors"
	"github.com/caqueta-electoral/divipola/internal/logger"
)

// CaptureMessage is the payload published for a confirmed table capture.
type CaptureMessage struct {
	TableID        uint      `json:"table_id"`
	TableNumber    int       `json:"table_number"`
	PollingPlaceID uint      `json:"polling_place_id"`
	MunicipalityID uint      `json:"municipality_id"`
	ValidVotes     int64     `json:"valid_votes"`
	BlankVotes     int64     `json:"blank_votes"`
	NullVotes      int64     `json:"null_votes"`
	TotalVotes     int64     `json:"total_votes"`
	Observations   string    `json:"observations,omitempty"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// CapturePublisher implements capture.Publisher over an MQTT Client.
type CapturePublisher struct {
	client Client
	prefix string
	log    logger.Logger
}

// NewCapturePublisher publishes captures under the topic prefix.
func NewCapturePublisher(client Client, prefix string, log logger.Logger) *CapturePublisher {
	if log == nil {
		log = logger.Global().Module("mqtt")
	}
	return &CapturePublisher{client: client, prefix: prefix, log: log}
}

// CaptureTopic is the topic of one table's capture, e.g.
// "divipola/polling-places/12/tables/340/capture".
func CaptureTopic(prefix string, pollingPlaceID, tableID uint) string {
	return fmt.Sprintf("%s/polling-places/%d/tables/%d/capture", strings.TrimRight(prefix, "/"), pollingPlaceID, tableID)
}

// PublishCapture publishes the capture of a table.
func (p *CapturePublisher) PublishCapture(ctx context.Context, table *entities.Table, captured *entities.Capture) error {
	msg := CaptureMessage{
		TableID:        table.ID,
		TableNumber:    table.Number,
		PollingPlaceID: table.PollingPlaceID,
		MunicipalityID: table.MunicipalityID,
		ValidVotes:     captured.ValidVotes,
		BlankVotes:     captured.BlankVotes,
		NullVotes:      captured.NullVotes,
		TotalVotes:     captured.TotalVotes(),
		Observations:   captured.Observations,
		ConfirmedAt:    captured.ConfirmedAt.UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryGeneric).
			Context("operation", "encode-capture").
			Context("table_id", table.ID).
			Build()
	}

	topic := CaptureTopic(p.prefix, table.PollingPlaceID, table.ID)
	if err := p.client.Publish(ctx, topic, payload); err != nil {
		return err
	}

	p.log.Info("capture published", logger.String("topic", topic))
	return nil
}
