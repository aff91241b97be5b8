// Package health reports service readiness over the standard gRPC health protocol.
//
// A background loop pings the database and flips the overall status between
// SERVING and NOT_SERVING; the same check backs the HTTP /healthz endpoint.
package health

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Service is the name reported next to the overall ("") status.
const Service = "recipen.api.v1"

// Pinger is satisfied by the postgres pool wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NopPinger is always healthy. Used with the in-memory store.
type NopPinger struct{}

// Ping implements Pinger.
func (NopPinger) Ping(context.Context) error { return nil }

// Checker owns the gRPC health server and keeps it in sync with the database.
type Checker struct {
	hs       *health.Server
	db       Pinger
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	lastErr error
}

// NewChecker constructs a Checker. The status starts as NOT_SERVING until the first ping.
func NewChecker(db Pinger, interval time.Duration, log *zap.Logger) *Checker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	c := &Checker{
		hs:       health.NewServer(),
		db:       db,
		interval: interval,
		timeout:  2 * time.Second,
		log:      log,
		lastErr:  errors.New("not checked yet"),
	}
	c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Server exposes the underlying health server for registration.
func (c *Checker) Server() *health.Server { return c.hs }

func (c *Checker) set(st healthpb.HealthCheckResponse_ServingStatus) {
	c.hs.SetServingStatus("", st)
	c.hs.SetServingStatus(Service, st)
}

// Check pings once and updates the published status.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.db.Ping(ctx)

	c.mu.Lock()
	changed := (err == nil) != (c.lastErr == nil)
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	} else {
		c.set(healthpb.HealthCheckResponse_SERVING)
	}
	if changed {
		if err != nil {
			c.log.Warn("health: not serving", zap.Error(err))
		} else {
			c.log.Info("health: serving")
		}
	}
	return err
}

// Ready reports the last observed state without touching the database.
func (c *Checker) Ready(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Run checks immediately and then every interval until ctx is done,
// after which every service is reported NOT_SERVING for good.
func (c *Checker) Run(ctx context.Context) {
	_ = c.Check(ctx)
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.hs.Shutdown()
			return
		case <-t.C:
			_ = c.Check(ctx)
		}
	}
}

// NewGRPCServer builds the probe server with the recover and logging interceptors.
func NewGRPCServer(c *Checker, log *zap.Logger, dev bool) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoverUnary(log),
			LoggingUnary(log),
		),
	)
	healthpb.RegisterHealthServer(s, c.Server())
	if dev {
		reflection.Register(s)
	}
	return s
}

// Serve listens on addr until ctx is done, then stops gracefully (forcefully after 5s).
func Serve(ctx context.Context, addr string, s *grpc.Server, log *zap.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("health listening", zap.String("addr", addr))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
		return nil
	case err := <-errCh:
		return err
	}
}
