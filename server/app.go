package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mikronet/config"
	"mikronet/internal/db"
	"mikronet/internal/devices"
	"mikronet/internal/health"
	"mikronet/internal/logs"
	"mikronet/internal/middleware"
	"mikronet/internal/subscribers"
	"mikronet/internal/syncsvc"
	"mikronet/internal/wanmon"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db        *gorm.DB
	scheduler *wanmon.Scheduler

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	// 1) Logging
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	// 2) Database
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d
	if err := db.Migrate(a.db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	// 3) Router + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)

	a.RegisterWebUI("/ui/")

	// 4) Health routes
	health.RegisterRoutesWithDB(a.Router, a.db)

	// 5) Domain wiring
	devRepo := devices.NewRepo(a.db)
	subRepo := subscribers.NewRepo(a.db)
	engine := syncsvc.NewEngine(devRepo, subRepo, a.cfg.Mikrotik)

	devices.NewHTTP(devRepo, engine).RegisterRoutes(a.Router)
	subscribers.NewHTTP(subRepo, devRepo, engine).RegisterRoutes(a.Router)
	syncsvc.NewHTTP(engine).RegisterRoutes(a.Router)

	// 6) WAN monitoring
	wanRepo := wanmon.NewRepo(a.db)
	if err := wanRepo.SeedDefaults(); err != nil {
		logs.Logger.Warnf("wan monitor seed: %v", err)
	}
	pinger := wanmon.NewPinger(a.cfg.WanMonitor.PingTimeout)
	wanmon.NewHTTP(wanRepo, pinger, a.cfg.WanMonitor.HistoryLimit).RegisterRoutes(a.Router)
	a.scheduler = wanmon.NewScheduler(wanRepo, pinger,
		a.cfg.WanMonitor.SweepInterval, a.cfg.WanMonitor.HistoryLimit)

	a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; a.cancel() }()

	go a.scheduler.Run(a.ctx)

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.httpServer.Shutdown(ctx)
	return nil
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
