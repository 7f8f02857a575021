package processors

import (
	"context"
	"parcel-status-relay/workers/tracking/models"
)

// CarrierTrackingProcessor fetches the current status of the tracked parcel.
// Failures are reported as records, never as errors.
type CarrierTrackingProcessor interface {
	Name() string
	Process(ctx context.Context) models.StatusRecord
}
