package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bookhub/bookhub/internal/cart"
	"github.com/bookhub/bookhub/internal/catalog"
	"github.com/bookhub/bookhub/internal/config"
	"github.com/bookhub/bookhub/internal/events"
	"github.com/bookhub/bookhub/internal/order"
	"github.com/bookhub/bookhub/internal/store"
	"github.com/bookhub/bookhub/internal/user"
	"github.com/bookhub/bookhub/internal/web"
)

const shutdownGrace = 5 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

// auditEvent mirrors every domain event into the server log.
func auditEvent(routingKey string, body []byte) error {
	log.Info().Str("rk", routingKey).RawJSON("payload", body).Msg("event")
	return nil
}

func serve() error {
	cfg := config.Load()

	db, err := store.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	var pub *events.Rabbit
	if cfg.RabbitURL != "" {
		pub, err = events.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
		must(err)
		defer pub.Close()
		must(pub.ConsumeTopic("bookhub.audit", []string{"order.*", "user.*"}, auditEvent))
	}
	// keep the publisher interfaces nil when events are disabled
	var userPub user.EventPublisher
	var orderPub order.EventPublisher
	if pub != nil {
		userPub, orderPub = pub, pub
	}

	catalogSvc := catalog.NewService(catalog.NewSQLiteRepo(db))
	userSvc := user.NewService(user.NewRepository(db), userPub)
	cartSvc := cart.NewService(cart.NewSQLiteRepo(db), catalogSvc)
	orderSvc := order.NewService(cartSvc, order.NewRepository(db),
		order.NewFakeProvider(cfg.PaymentSuccess), catalogSvc, orderPub)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: web.NewServer(catalogSvc, userSvc, cartSvc, orderSvc,
			user.NewSessions()).Handler(),
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Warn().Msg("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
