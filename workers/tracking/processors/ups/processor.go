package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"io"
	"net/http"
	"parcel-status-relay/config"
	"parcel-status-relay/workers/tracking/models"
	"parcel-status-relay/workers/tracking/processors"
)

// TrackingProcessor reads the status from the carrier's JSON tracking API.
type TrackingProcessor struct {
	config *config.TrackingConfig
	client *http.Client
	logger *zap.Logger
}

func NewTrackingProcessor(logger *zap.Logger, cfg *config.TrackingConfig) *TrackingProcessor {
	return &TrackingProcessor{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("adapter", config.AdapterStructuredAPI)),
	}
}

func (p *TrackingProcessor) Name() string {
	return config.AdapterStructuredAPI
}

func (p *TrackingProcessor) Process(ctx context.Context) models.StatusRecord {
	carrier := p.config.Carrier

	details, statusCode, err := p.getTrackingDetails(ctx)
	if err != nil {
		p.logger.Warn("Failed to fetch tracking status",
			zap.String("tracking_number", p.config.Number),
			zap.Bool("timeout", processors.IsTimeout(err)),
			zap.Error(err),
		)
		return processors.TransportFailure(carrier, err)
	}

	if statusCode != http.StatusOK {
		p.logger.Warn("Unexpected tracking status code",
			zap.String("tracking_number", p.config.Number),
			zap.Int("status_code", statusCode),
		)
		return processors.UnexpectedStatus(carrier, statusCode)
	}

	if len(details.TrackDetails) == 0 {
		return models.NewNoData()
	}

	track := details.TrackDetails[0]

	var event *models.LastEvent
	if len(track.ShipmentProgressActivities) > 0 {
		// Activities are listed most recent first
		latest := track.ShipmentProgressActivities[0]
		event = &models.LastEvent{
			Description: latest.ActivityScan,
			Location:    latest.Location,
			Date:        latest.Date,
			Time:        latest.Time,
		}
	}

	return models.NewSuccess(carrier, track.PackageStatus, event, p.config.Link)
}

func (p *TrackingProcessor) getTrackingDetails(ctx context.Context) (*StatusResponse, int, error) {
	payload, err := json.Marshal(StatusRequest{
		Locale:         "en_US",
		TrackingNumber: []string{p.config.Number},
		Requester:      "st/trackdetails",
	})
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("transId", uuid.New().String())
	for name, value := range p.config.Headers {
		req.Header.Set(name, value)
	}
	for name, value := range p.config.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var apiResponse StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return &apiResponse, resp.StatusCode, nil
}
