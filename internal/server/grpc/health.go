package grpc

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name probes may pass in HealthCheckRequest.Service.
// The empty name checks the server as a whole and answers the same way.
const ServiceName = "sessionkeeper"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function, e.g. a Redis PING, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthService reports SERVING only while every dependency answers a ping.
type HealthService struct {
	healthpb.UnimplementedHealthServer
	deps   map[string]Pinger
	logger logging.Logger
}

func NewHealthService(l logging.Logger, deps map[string]Pinger) *HealthService {
	return &HealthService{deps: deps, logger: l.With("module", "health")}
}

func (h *HealthService) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}

	for name, dep := range h.deps {
		if err := dep.PingContext(ctx); err != nil {
			h.logger.Warn(ctx, "dependency is down", "dependency", name, "error", err)
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}

	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
