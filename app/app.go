package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hangman/api"
	"hangman/bus"
	"hangman/common/cache"
	"hangman/common/config"
	"hangman/common/database"
	"hangman/common/http"
	"hangman/common/log"
	"hangman/mail"
	"hangman/room"
	"hangman/ws"
)

const snapshotCacheBudget = 64 << 20

const monitorInterval = 10 * time.Second

// Run wires the node together and blocks until a stop signal: store by
// configured driver, snapshot cache, websocket gateway, optional bus relay,
// command processor, HTTP surface, monitor.
func Run(ctx context.Context) error {
	var (
		store    room.Store
		mongoMgr *database.MongoManager
		redisMgr *database.RedisManager
	)
	switch config.Conf.DatabaseConf.Driver {
	case "redis":
		redisMgr = database.NewRedis(config.Conf.DatabaseConf.RedisConf)
		store = room.NewRedisStore(redisMgr)
	default:
		mongoMgr = database.NewMongo(config.Conf.DatabaseConf.MongoConf)
		store = room.NewMongoStore(mongoMgr)
	}

	snapshots, err := cache.NewGeneralCache(snapshotCacheBudget, 5*time.Minute)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	manager := ws.NewManager()

	var emitter room.Emitter = manager
	var relay *bus.Relay
	if config.Conf.NatsConf.URL != "" {
		relay, err = bus.NewRelay(config.Conf.NatsConf.URL)
		if err != nil {
			log.Warn("bus relay disabled: %v", err)
		} else {
			emitter = bus.NewTee(manager, relay)
		}
	}

	registry := room.NewRegistry(store)
	grace := time.Duration(config.Conf.RoundGrace()) * time.Millisecond
	processor := room.NewProcessor(registry, emitter, snapshots, grace)
	manager.SetDispatcher(processor)

	monitor := room.NewMonitor(processor, monitorInterval)
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	go monitor.Start(monitorCtx)

	wsServer := ws.NewServer(manager)
	go func() {
		if err := wsServer.Start(fmt.Sprintf(":%d", config.Conf.WsPort)); err != nil {
			log.Fatal("websocket server failed: %v", err)
		}
	}()

	httpServer := http.NewHttpServer(
		http.WithPort(config.Conf.HttpPort),
		http.WithMode(config.Conf.LogConf.Level),
	)
	api.RegisterRoutes(httpServer, &api.Handlers{
		Registry:  registry,
		Snapshots: snapshots,
		Mailer:    mail.NewMailer(config.Conf.MailConf),
		Monitor:   monitor,
	})
	go func() {
		log.Info("http server listening on :%d", config.Conf.HttpPort)
		if err := httpServer.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatal("http server failed: %v", err)
		}
	}()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cancelMonitor()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown failed: %v", err)
		}
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("websocket server shutdown failed: %v", err)
		}
		processor.Close()
		if relay != nil {
			relay.Close()
		}
		if mongoMgr != nil {
			_ = mongoMgr.Close()
		}
		if redisMgr != nil {
			_ = redisMgr.Close()
		}
		log.Info("node stopped cleanly")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	select {
	case <-ctx.Done():
		stop()
		return nil
	case s := <-c:
		log.Info("received signal %v, stopping", s)
		stop()
		return nil
	}
}
