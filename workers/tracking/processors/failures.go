package processors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"parcel-status-relay/workers/tracking/models"
)

func TimedOut(carrier string) models.StatusRecord {
	return models.NewTransientError(fmt.Sprintf("⚠️ %s API request timed out. Please try again later.", carrier))
}

func FetchFailed(carrier string) models.StatusRecord {
	return models.NewTransientError(fmt.Sprintf("⚠️ Failed to fetch %s tracking status.", carrier))
}

func UnexpectedStatus(carrier string, code int) models.StatusRecord {
	return models.NewHardError(fmt.Sprintf("⚠️ Error: %s API returned status %d", carrier, code))
}

// TransportFailure maps a failed round trip to a transient error record,
// keeping timeouts distinguishable from everything else.
func TransportFailure(carrier string, err error) models.StatusRecord {
	if IsTimeout(err) {
		return TimedOut(carrier)
	}
	return FetchFailed(carrier)
}

func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
