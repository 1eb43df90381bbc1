package daemonserver

import (
	"time"

	"modelmarket/go-backend/internal/adapters/rpc"
	"modelmarket/go-backend/internal/bootstrap/daemonconfig"
	"modelmarket/go-backend/internal/composition/daemonservice"
	"modelmarket/go-backend/internal/platform/ratelimiter"
)

const rpcLimiterIdleTTL = 10 * time.Minute

// NewRPCServerWithOptions wires daemon service and RPC transport.
func NewRPCServerWithOptions(rpcAddr, configPath, dataDir string) (*rpc.Server, error) {
	cfg, err := daemonconfig.LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}
	svc, err := daemonservice.NewServiceForDaemon(cfg, dataDir)
	if err != nil {
		return nil, err
	}
	registry := svc.Metrics()
	return rpc.NewServerWithService(svc, rpc.Options{
		Addr: rpcAddr,
		RateLimit: ratelimiter.Config{
			RPS:     cfg.RPC.RateLimitRPS,
			Burst:   cfg.RPC.RateLimitBurst,
			IdleTTL: rpcLimiterIdleTTL,
		},
		MaxBodyBytes: cfg.RPC.MaxBodyBytes,
		Metrics:      registry.Handler(),
		Observer:     registry,
		Logger:       svc.Logger(),
	}), nil
}
