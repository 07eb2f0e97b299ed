package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcHandler "github.com/anthanhphan/go-distributed-id-generator/internal/idservice/adapter/inbound/grpc"
	httpHandler "github.com/anthanhphan/go-distributed-id-generator/internal/idservice/adapter/inbound/http"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/config"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/domain"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/port"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/service"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/gossip"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/hostid"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/idgen"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/metrics"
	"github.com/anthanhphan/gosdk/logger"
)

const healthRefreshInterval = 5 * time.Second

type App struct {
	cfg         *config.Config
	httpServer  *httpHandler.Server
	grpcServer  *grpc.Server
	health      *health.Server
	membership  port.MembershipPort
	redisClient *redis.Client
	service     port.IDService
	bgStop      context.CancelFunc
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	// 3. Resolve origin/process identifiers
	resolver := &hostid.Resolver{
		OriginID:           cfg.Generator.OriginID,
		ProcessID:          cfg.Generator.ProcessID,
		AllowIntrospection: cfg.Generator.AllowIntrospection,
	}
	identity, err := resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve node identity: %w", err)
	}

	// 4. Clock
	var clock idgen.Clock = &idgen.SystemClock{}
	var redisClient *redis.Client
	if cfg.Generator.Clock == config.ClockRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clock = idgen.NewRedisClock(redisClient)
	}

	// 5. Snowflake generator
	genCfg := cfg.GeneratorSettings()
	genCfg.OriginID = identity.OriginID
	genCfg.ProcessID = identity.ProcessID
	genCfg.Clock = clock
	gen, err := idgen.New(genCfg)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, fmt.Errorf("failed to init snowflake: %w", err)
	}
	idgen.SetDefault(gen)

	if gen.OriginID() != identity.OriginID || gen.ProcessID() != identity.ProcessID {
		logger.Warnw("Node identifiers truncated to field width",
			"origin_id", identity.OriginID, "origin_id_used", gen.OriginID(),
			"process_id", identity.ProcessID, "process_id_used", gen.ProcessID())
	}

	nodeName := nodeNameFor(cfg)
	node := domain.NodeInfo{
		Name:          nodeName,
		OriginID:      gen.OriginID(),
		OriginSource:  string(identity.OriginSource),
		ProcessID:     gen.ProcessID(),
		ProcessSource: string(identity.ProcessSource),
		EpochMS:       gen.Epoch(),
		Clock:         cfg.Generator.Clock,
		Policy:        string(genCfg.RegressionPolicy),
	}

	// 6. Gossip
	var membership *gossip.Membership
	var conflicts service.ConflictSource
	if cfg.Gossip.Enabled {
		membership, err = gossip.NewMembership(gossip.Config{
			NodeName:  nodeName,
			BindAddr:  cfg.Gossip.BindAddr,
			BindPort:  cfg.Gossip.Port,
			GRPCPort:  cfg.Server.GRPCPort,
			OriginID:  gen.OriginID(),
			ProcessID: gen.ProcessID(),
		})
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, fmt.Errorf("failed to init gossip: %w", err)
		}
		conflicts = membership
	}

	// 7. Service and transports
	idService := service.NewIDService(gen, node, cfg.Generator.MaxBatch, conflicts)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	idService.SetMetrics(metrics.NewPrometheus(registry, gen.OriginID(), gen.ProcessID()))

	grpcServer := grpc.NewServer()
	grpcHandler.RegisterIDServiceServer(grpcServer, grpcHandler.NewServer(idService))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	a := &App{
		cfg:         cfg,
		grpcServer:  grpcServer,
		health:      healthServer,
		redisClient: redisClient,
		service:     idService,
	}
	if cfg.Server.HTTPAddr != "" {
		a.httpServer = httpHandler.NewServer(cfg, idService)
		a.httpServer.MountMetrics(registry)
	}
	if membership != nil {
		a.membership = membership
	}

	logger.Infow("Snowflake generator ready",
		"node", node.Name,
		"origin_id", node.OriginID,
		"origin_source", node.OriginSource,
		"process_id", node.ProcessID,
		"process_source", node.ProcessSource,
		"epoch_ms", node.EpochMS,
		"clock", node.Clock,
		"policy", node.Policy)

	return a, nil
}

func (a *App) Run() error {
	// Start Gossip
	if a.membership != nil {
		a.joinCluster()
	}

	serverErrCh := make(chan error, 2)

	// Start gRPC
	if a.cfg.Server.GRPCPort > 0 {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
		if err != nil {
			a.release()
			return fmt.Errorf("failed to listen on port %d: %w", a.cfg.Server.GRPCPort, err)
		}
		logger.Infow("ID gRPC server starting", "port", a.cfg.Server.GRPCPort)
		go func() {
			if err := a.grpcServer.Serve(listener); err != nil {
				serverErrCh <- fmt.Errorf("gRPC server failed: %w", err)
			}
		}()
	}

	// Start HTTP
	if a.httpServer != nil {
		logger.Infow("ID HTTP server starting", "addr", a.cfg.Server.HTTPAddr)
		go func() {
			if err := a.httpServer.Start(); err != nil {
				serverErrCh <- fmt.Errorf("http server failed: %w", err)
			}
		}()
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.bgStop = cancel
	go a.watchHealth(bgCtx, healthRefreshInterval)

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		// Ignore expected stop errors.
		errMsg := err.Error()
		if !strings.Contains(errMsg, "use of closed network connection") && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = err
			logger.Errorw("ID server exited unexpectedly", "error", errMsg)
		}
	}

	logger.Info("Shutting down ID services")
	a.bgStop()
	a.health.Shutdown()
	if a.httpServer != nil {
		ctx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.httpServer.Stop(ctx); err != nil {
			logger.Errorw("HTTP shutdown error", "error", err.Error())
			if runErr == nil {
				runErr = err
			}
		}
		cancelStop()
	}
	a.grpcServer.GracefulStop()
	a.release()

	return runErr
}

func (a *App) joinCluster() {
	seeds := make([]string, 0, len(a.cfg.Gossip.Seeds))
	for _, seed := range a.cfg.Gossip.Seeds {
		if seed != "" {
			seeds = append(seeds, seed)
		}
	}
	if len(seeds) == 0 {
		return
	}

	var joinErr error
	for i := 0; i < 5; i++ {
		joinErr = a.membership.Join(seeds)
		if joinErr == nil {
			return
		}
		logger.Warnw("Failed to join cluster, retrying...", "attempt", i+1, "error", joinErr.Error())
		time.Sleep(2 * time.Second)
	}
	logger.Errorw("Failed to join cluster after retries", "error", joinErr.Error())
}

// watchHealth mirrors the service health into the gRPC health service.
func (a *App) watchHealth(ctx context.Context, interval time.Duration) {
	a.refreshHealth()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refreshHealth()
		}
	}
}

func (a *App) refreshHealth() {
	status := healthpb.HealthCheckResponse_SERVING
	if a.service.Health().Status != domain.HealthOK {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	a.health.SetServingStatus("", status)
	a.health.SetServingStatus(grpcHandler.ServiceName, status)
}

func (a *App) release() {
	if a.membership != nil {
		if err := a.membership.Leave(); err != nil {
			logger.Warnw("Gossip leave failed", "error", err.Error())
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Warnw("Redis close failed", "error", err.Error())
		}
	}
	idgen.SetDefault(nil)
}

func nodeNameFor(cfg *config.Config) string {
	if cfg.Gossip.NodeName != "" {
		return cfg.Gossip.NodeName
	}
	host, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", host, cfg.Server.GRPCPort)
}
