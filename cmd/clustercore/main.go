// Command clustercore runs the cluster event-replication and
// remote-command core: it loads configuration, restores the previous
// state snapshot, brings up the peer-link transport and HTTP object-config
// surface, and starts the repository beacon, then serves until signaled
// to shut down.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/icinga-cluster/clustercore/internal/beacon"
	"github.com/icinga-cluster/clustercore/internal/config"
	"github.com/icinga-cluster/clustercore/internal/configscript"
	"github.com/icinga-cluster/clustercore/internal/domain"
	"github.com/icinga-cluster/clustercore/internal/httpapi"
	"github.com/icinga-cluster/clustercore/internal/metrics"
	"github.com/icinga-cluster/clustercore/internal/object"
	"github.com/icinga-cluster/clustercore/internal/objectconfig"
	"github.com/icinga-cluster/clustercore/internal/peerlink"
	"github.com/icinga-cluster/clustercore/internal/registry"
	"github.com/icinga-cluster/clustercore/internal/remotecmd"
	"github.com/icinga-cluster/clustercore/internal/replication/inbound"
	"github.com/icinga-cluster/clustercore/internal/replication/outbound"
	sigbus "github.com/icinga-cluster/clustercore/internal/signal"
	"github.com/icinga-cluster/clustercore/internal/snapshot"
	"github.com/icinga-cluster/clustercore/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "clustercore: load config:", err)
		os.Exit(1)
	}

	log := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("clustercore exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	metricsReg := metrics.NewRegistry()
	bus := sigbus.NewBus(log)
	reg := registry.New(bus, metricsReg)

	if err := domain.RegisterTypes(reg); err != nil {
		return fmt.Errorf("register domain types: %w", err)
	}

	zones := domain.NewZoneTable()
	endpoints := domain.NewEndpointTable()

	localZone := domain.NewZone(cfg.Cluster.ZoneName, nil)
	zones.Add(localZone)
	selfEndpoint := domain.NewEndpoint(cfg.Cluster.EndpointName, localZone)
	endpoints.Add(selfEndpoint)

	// Restore prior state before anything starts mutating objects.
	restorer := snapshot.NewRestorer(reg, cfg.Cluster.Concurrency, log, snapshot.NewMetrics(metricsReg))
	if err := restorer.RestoreObjects(cfg.Snapshot.Path, object.ClassConfig|object.ClassState); err != nil {
		log.Warn("state snapshot restore failed, starting empty", "error", err)
	}

	// The relay and the remote-command runner depend on the peer link, and
	// the peer link depends on the dispatcher, which in turn depends on the
	// relay and runner. Break the cycle by
	// constructing the relay and runner with no peer/sender, wiring the
	// dispatcher and link, then patching the relay and runner afterward.
	relay := outbound.NewRelay(reg, nil, log, outbound.NewMetrics(metricsReg))
	relay.SetLocalZone(cfg.Cluster.ZoneName)

	limiter := rate.NewLimiter(rate.Limit(10), 20)
	runner := remotecmd.NewRunner(remotecmd.Config{
		Registry:       reg,
		Executor:       newLoggingExecutor(log),
		SelfEndpoint:   cfg.Cluster.EndpointName,
		AcceptCommands: cfg.RemoteCommand.AcceptCommands,
		Limiter:        limiter,
		Logger:         log,
		Metrics:        remotecmd.NewMetrics(metricsReg),
	})

	dispatcher := inbound.NewDispatcher(inbound.Config{
		Registry:  reg,
		Zones:     zones,
		Endpoints: endpoints,
		LocalZone: localZone,
		Relay:     relay,
		Runner:    runner,
		StateDir:  cfg.Cluster.StateDir,
		Product:   "clustercore",
		Logger:    log,
		Metrics:   inbound.NewMetrics(metricsReg),
	})

	link := peerlink.New(peerlink.Config{
		Registry:   reg,
		Zones:      zones,
		Endpoints:  endpoints,
		LocalZone:  localZone,
		Dispatcher: dispatcher,
		Logger:     log,
		Metrics:    peerlink.NewMetrics(metricsReg),
	})
	relay.SetPeerListener(link)
	runner.SetSender(link)
	relay.Start(bus)

	// Object-config service, backed by the in-process stand-in for
	// the declarative grammar's compiler/evaluator.
	engine := configscript.NewEngine(reg, bus, domainFactories())
	objSvc := objectconfig.NewService(reg, engine, engine, engine,
		cfg.ObjectConfig.ModuleDir, cfg.ObjectConfig.StageName, log, objectconfig.NewMetrics(metricsReg))

	// Repository beacon.
	rep := beacon.New(beacon.Config{
		Registry: reg,
		Relay:    relay,
		Self:     selfEndpoint,
		Zone:     localZone,
		Interval: cfg.Beacon.Interval,
		Logger:   log,
		Metrics:  beacon.NewMetrics(metricsReg),
	})
	rep.Start()
	defer rep.Stop()

	// HTTP surface and peer-link websocket endpoint.
	router := mux.NewRouter()
	httpapi.NewHandlers(objSvc, typePlurals(), log).Register(router)
	router.Handle("/cluster/listener", link)
	router.Use(logger.LoggingMiddleware(log))
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			log.Info("metrics server listening", "addr", addr)
			if err := http.ListenAndServe(addr, metricsMux); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	httpServer := &http.Server{Addr: cfg.PeerLink.ListenAddr, Handler: router}
	go func() {
		log.Info("cluster listener starting", "addr", cfg.PeerLink.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("cluster listener failed", "error", err)
		}
	}()

	// Periodic state dump on a fixed ticker; unlike the beacon, no dump is
	// taken at startup.
	dumper := snapshot.NewDumper(reg, log, snapshot.NewMetrics(metricsReg))
	dumpDone := make(chan struct{})
	go runDumpLoop(ctx, dumper, cfg.Snapshot.Path, cfg.Snapshot.DumpInterval, log, dumpDone)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	reg.StopObjects(object.NoopLifecycle{})
	<-dumpDone
	if err := dumper.DumpObjects(cfg.Snapshot.Path, object.ClassConfig|object.ClassState); err != nil {
		log.Error("final state dump failed", "error", err)
	}
	return nil
}

// runDumpLoop dumps the state snapshot on cfg.Snapshot.DumpInterval until
// ctx is done, then closes done.
func runDumpLoop(ctx context.Context, dumper *snapshot.Dumper, path string, interval time.Duration, log *slog.Logger, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dumper.DumpObjects(path, object.ClassConfig|object.ClassState); err != nil {
				log.Warn("periodic state dump failed", "error", err)
			}
		}
	}
}
