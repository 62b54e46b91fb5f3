// Command server is the thin entrypoint: parse flags, build the shard
// cluster, and start the RESP2 listener and the admin HTTP listener
// side by side, the way the teacher's cmd/server/main.go wires its own
// RedisServer plus signal-driven graceful shutdown (spec.md §6).
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/shardkv/shardkv/internal/adminhttp"
	"github.com/shardkv/shardkv/internal/aof"
	"github.com/shardkv/shardkv/internal/cluster"
	"github.com/shardkv/shardkv/internal/connfrontend"
	"github.com/shardkv/shardkv/internal/logging"
	"github.com/shardkv/shardkv/internal/metrics"
)

func defaultShardCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	return n
}

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "address for the RESP2 listener")
	adminAddr := flag.String("admin-addr", "127.0.0.1:6380", "address for the admin HTTP listener")
	shards := flag.Int("shards", defaultShardCount(), "number of shards (defaults to max(1, min(16, NumCPU)))")
	dataDir := flag.String("data-dir", "./data", "directory holding shard_<i>.aof files")
	aofEnabled := flag.Bool("aof", true, "enable append-only-file durability")
	syncPolicy := flag.String("aof-sync", "everysec", "AOF sync policy: always, everysec, no")
	maxConns := flag.Int("max-connections", 10000, "maximum concurrent client connections")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "grace period for draining connections on shutdown")
	flag.Parse()

	logger := logging.New()

	policy, err := parseSyncPolicy(*syncPolicy)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	if *aofEnabled {
		if err := os.MkdirAll(*dataDir, 0755); err != nil {
			logger.Errorf("create data dir %s: %v", *dataDir, err)
			os.Exit(1)
		}
	}

	mx := metrics.New()

	manager, err := cluster.New(*shards, *aofEnabled, *dataDir, policy, logger.Warnf, mx)
	if err != nil {
		logger.Errorf("start cluster: %v", err)
		os.Exit(1)
	}
	logger.Infof("cluster started with %d shard(s), aof=%v, sync=%s", manager.NumShards(), *aofEnabled, policy)

	frontend := connfrontend.New(connfrontend.Config{
		Addr:           *addr,
		MaxConnections: *maxConns,
		ReadBufferSize: 4096,
		Warnf:          logger.Warnf,
		Infof:          logger.Infof,
	}, manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := frontend.Start(ctx); err != nil {
		logger.Errorf("start resp2 listener: %v", err)
		os.Exit(1)
	}

	admin := adminhttp.New(manager, mx, logger.Warnf)
	adminServer := &http.Server{Addr: *adminAddr, Handler: admin}
	go func() {
		logger.Infof("admin http listening on %s", *adminAddr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("admin http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Infof("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer shutdownCancel()
	_ = adminServer.Shutdown(shutdownCtx)

	frontend.Shutdown(*shutdownTimeout)
	manager.Shutdown()
	logger.Infof("shutdown complete")
}

func parseSyncPolicy(s string) (aof.SyncPolicy, error) {
	switch s {
	case "always":
		return aof.SyncAlways, nil
	case "everysec", "everysecond":
		return aof.SyncEverySecond, nil
	case "no":
		return aof.SyncNo, nil
	default:
		return aof.SyncEverySecond, errUnknownSyncPolicy(s)
	}
}

type errUnknownSyncPolicy string

func (e errUnknownSyncPolicy) Error() string {
	return "unknown aof-sync policy: " + string(e)
}
