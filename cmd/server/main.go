package main

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/riopesca/booking-api/internal/config"
    "github.com/riopesca/booking-api/internal/database"
    "github.com/riopesca/booking-api/internal/handler"
    "github.com/riopesca/booking-api/internal/queue"
    "github.com/riopesca/booking-api/internal/reconciliation"
    "github.com/riopesca/booking-api/internal/repository"
    "github.com/riopesca/booking-api/internal/router"
    queue_publisher "github.com/riopesca/booking-api/internal/service"
    "github.com/riopesca/booking-api/internal/wise"
)

func main() {
    // .env is a development convenience; in production the variables come
    // from the environment directly.
    if err := godotenv.Load(); err != nil {
        log.Printf("no .env file loaded: %v", err)
    }

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }
    defer db.Close()
    if err := database.Migrate(db); err != nil {
        log.Fatalf("migrate database: %v", err)
    }

    rdb := config.NewRedisClient() // nil when Redis is unreachable

    reservations := repository.NewReservationRepo(db)
    payments := repository.NewPaymentRepo(db)
    unreconciled := repository.NewUnreconciledRepo(db)
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)

    publish := func(ctx context.Context, evt queue.PaymentReconciledEvent) {
        // Best-effort: a broker outage must never fail a webhook.
        if err := queue_publisher.PublishPaymentReconciled(ctx, evt); err != nil {
            log.Printf("[main] publish payment.reconciled failed: %v", err)
        }
    }

    store := reconciliation.NewSQLStore(db, reservations, payments, unreconciled)
    engine := reconciliation.NewEngine(store, cfg.WiseWebhookSecret, publish)

    var wiseClient *wise.Client
    if cfg.WiseAPIKey != "" && cfg.WiseProfileID != "" {
        wiseClient = wise.NewClient(cfg.WiseAPIURL, cfg.WiseAPIKey, cfg.WiseProfileID)
    } else {
        log.Printf("[main] wise api not configured; proxy endpoints disabled")
    }

    go func() {
        if err := queue.StartPaymentConsumer(); err != nil {
            log.Printf("[main] payment consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Handlers{
        Auth:         handler.NewAuthHandler(cfg, users, tokens),
        Reservations: handler.NewReservationHandler(reservations),
        Payments:     handler.NewPaymentHandler(payments, reservations, unreconciled, engine, wiseClient),
        Webhook:      handler.NewWebhookHandler(engine),
        Wise:         handler.NewWiseHandler(wiseClient),
    }, cfg, rdb)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
