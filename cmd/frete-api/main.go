// README: Entry point; loads config, wires providers and stores, starts the
// HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frete/internal/config"
	"frete/internal/fuel"
	"frete/internal/geo"
	httptransport "frete/internal/http"
	"frete/internal/infra"
	"frete/internal/modules/budget"
	"frete/internal/modules/car"
	"frete/internal/modules/client"
	"frete/internal/modules/driver"
	"frete/internal/notify"
	"frete/internal/ratecache"
)

func main() {
	log := infra.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("postgres init: %v", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	rateCache := ratecache.New(ratecache.NewRedisBackend(redisClient))

	google, err := geo.NewGoogleClient(cfg.Provider.GoogleMapsKey)
	if err != nil {
		log.Fatalf("google maps init: %v", err)
	}
	distanceResolver := geo.NewResolver(google, google, rateCache, cfg.Provider.CacheTTL, cfg.Provider.Timeout)

	fuelClient := fuel.NewHTTPClient(cfg.Provider.FuelAPIURL, log)
	fuelResolver := fuel.NewResolver(fuelClient, rateCache, cfg.Provider.CacheTTL, cfg.Provider.Timeout)

	mailer := infra.NewMailer(cfg.SMTP)
	notifier := notify.NewEmailSender(mailer, cfg.SMTP)

	budgetSvc := budget.NewService(
		budget.NewPGStore(dbPool),
		driver.NewStore(dbPool),
		car.NewStore(dbPool),
		client.NewStore(dbPool),
		distanceResolver,
		fuelResolver,
		notifier,
		log,
	)

	handler := httptransport.NewServer(budgetSvc, log)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
