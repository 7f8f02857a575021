package tracking

import (
	"fmt"
	"go.uber.org/zap"
	"parcel-status-relay/config"
	"parcel-status-relay/workers/tracking/processors"
	"parcel-status-relay/workers/tracking/processors/scrape"
	"parcel-status-relay/workers/tracking/processors/ups"
)

func NewProcessor(logger *zap.Logger, cfg *config.TrackingConfig) (processors.CarrierTrackingProcessor, error) {
	switch cfg.Adapter {
	case config.AdapterStructuredAPI:
		return ups.NewTrackingProcessor(logger, cfg), nil
	case config.AdapterMarkupScrape:
		return scrape.NewTrackingProcessor(logger, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownAdapter, cfg.Adapter)
	}
}
