package scrape

import (
	"context"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"net/http"
	"parcel-status-relay/config"
	"parcel-status-relay/workers/tracking/models"
	"parcel-status-relay/workers/tracking/processors"
	"strings"
)

// TrackingProcessor reads the status line from the carrier's public tracking page.
type TrackingProcessor struct {
	config *config.TrackingConfig
	logger *zap.Logger
}

func NewTrackingProcessor(logger *zap.Logger, cfg *config.TrackingConfig) *TrackingProcessor {
	return &TrackingProcessor{
		config: cfg,
		logger: logger.With(zap.String("adapter", config.AdapterMarkupScrape)),
	}
}

func (p *TrackingProcessor) Name() string {
	return config.AdapterMarkupScrape
}

func (p *TrackingProcessor) Process(ctx context.Context) models.StatusRecord {
	carrier := p.config.Carrier
	status := ""
	statusCode := 0

	c := colly.NewCollector()
	c.Context = ctx
	c.SetRequestTimeout(p.config.Timeout)

	c.OnRequest(func(r *colly.Request) {
		for name, value := range p.config.Headers {
			r.Headers.Set(name, value)
		}
		if cookie := cookieHeader(p.config.Cookies); cookie != "" {
			r.Headers.Set("Cookie", cookie)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	c.OnHTML(p.config.Selector, func(e *colly.HTMLElement) {
		if status == "" {
			status = strings.TrimSpace(e.Text)
		}
	})

	if err := c.Visit(p.config.Endpoint); err != nil {
		if statusCode != 0 && statusCode != http.StatusOK {
			p.logger.Warn("Unexpected tracking page status code",
				zap.String("tracking_number", p.config.Number),
				zap.Int("status_code", statusCode),
			)
			return processors.UnexpectedStatus(carrier, statusCode)
		}

		p.logger.Warn("Failed to fetch tracking page",
			zap.String("tracking_number", p.config.Number),
			zap.Bool("timeout", processors.IsTimeout(err)),
			zap.Error(err),
		)
		return processors.TransportFailure(carrier, err)
	}

	if statusCode != http.StatusOK {
		return processors.UnexpectedStatus(carrier, statusCode)
	}

	if status == "" {
		p.logger.Debug("Status element not found on tracking page",
			zap.String("tracking_number", p.config.Number),
			zap.String("selector", p.config.Selector),
		)
		return models.NewAbsent()
	}

	return models.NewScraped(carrier, status, p.config.Link)
}

func cookieHeader(cookies map[string]string) string {
	parts := make([]string, 0, len(cookies))
	for name, value := range cookies {
		parts = append(parts, (&http.Cookie{Name: name, Value: value}).String())
	}
	return strings.Join(parts, "; ")
}
