package main // Entry point package

import (
    "context"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/ambilet/seat-inventory/internal/cache"
    "github.com/ambilet/seat-inventory/internal/config"
    "github.com/ambilet/seat-inventory/internal/database"
    "github.com/ambilet/seat-inventory/internal/handler"
    "github.com/ambilet/seat-inventory/internal/inventory"
    "github.com/ambilet/seat-inventory/internal/queue"
    "github.com/ambilet/seat-inventory/internal/repository"
    "github.com/ambilet/seat-inventory/internal/router"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments use the environment
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database open failed: %v", err)
    }
    defer db.Close()

    // The Redis fast path is fully optional: with caching disabled or
    // the server unreachable the service runs ledger-only.
    var seatCache *cache.SeatHoldCache
    rdb := config.NewRedisClient()
    if cfg.SeatCacheEnabled && rdb != nil {
        seatCache = cache.New(rdb, cfg.SeatCachePrefix)
        log.Println("seat cache enabled")
    } else {
        seatCache = cache.New(nil, cfg.SeatCachePrefix)
        log.Println("seat cache disabled; running ledger-only")
    }

    invRepo := repository.NewSeatInventoryRepo(db)
    ledgerRepo := repository.NewHoldLedgerRepo(db)

    svc := inventory.NewService(invRepo, ledgerRepo, seatCache, queue.NewPublisher(), nil, inventory.Config{
        HoldTTL:           cfg.HoldTTL,
        MaxHeldPerSession: cfg.MaxHeldPerSession,
        ReaperBatchLimit:  cfg.ReaperBatchLimit,
    })

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    go inventory.NewReaper(svc, cfg.ReaperInterval).Run(ctx)
    go func() {
        if err := queue.StartSalesConsumer(); err != nil {
            log.Printf("sales consumer exited: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Deps{
        Seating:  handler.NewSeatingHandler(svc),
        Sessions: &handler.SessionHandler{Secret: cfg.SessionSecret, TTL: cfg.SessionTTL},
        Redis:    rdb,
        RateCfg:  config.LoadRateLimitConfig(),
        Secret:   cfg.SessionSecret,
    })

    addr := ":" + cfg.Port
    go func() {
        log.Printf("listening on %s (env=%s)", addr, cfg.Env)
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server start failed: %v", err)
        }
    }()

    <-ctx.Done()
    log.Println("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("server shutdown: %v", err)
    }
}
