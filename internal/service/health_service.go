package service

import (
	"context"
	"errors"
	"time"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/dto"

	"github.com/rs/zerolog/log"
)

const healthProbeTimeout = 3 * time.Second

var errProbePanic = errors.New("health probe panicked")

// Pinger performs a trivial round trip against a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports database connectivity. It never returns an error:
// a failed probe is downgraded to an unhealthy status.
type HealthService struct {
	db      Pinger
	service string
	version string
}

func NewHealthService(db Pinger, service, version string) *HealthService {
	return &HealthService{db: db, service: service, version: version}
}

func (h *HealthService) Check(ctx context.Context) dto.HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   dto.HealthStatusHealthy,
		Service:  h.service,
		Version:  h.version,
		Database: dto.DatabaseConnected,
	}
	if err := h.probe(ctx); err != nil {
		log.Warn().Err(err).Msg("health probe failed")
		resp.Status = dto.HealthStatusUnhealthy
		resp.Database = dto.DatabaseDisconnected
	}
	return resp
}

// probe turns a panicking driver into a plain failure as well.
func (h *HealthService) probe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errProbePanic
		}
	}()
	return h.db.Ping(ctx)
}
