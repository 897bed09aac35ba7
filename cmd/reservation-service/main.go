package main

import (
	"context"
	"encoding/json"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Fery-Iris/web-simdik-sub001/internal/config"
	"github.com/Fery-Iris/web-simdik-sub001/internal/httpapi"
	"github.com/Fery-Iris/web-simdik-sub001/internal/hub"
	"github.com/Fery-Iris/web-simdik-sub001/internal/store"
	"github.com/Fery-Iris/web-simdik-sub001/internal/store/postgres"
	"github.com/Fery-Iris/web-simdik-sub001/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type eventEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("reservation-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("load timezone %q: %v", cfg.Timezone, err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	st := postgres.NewStore(pool, postgres.Options{
		SlotCapacity:         cfg.SlotCapacity,
		CapacityFailOpen:     cfg.CapacityFailOpen,
		WaitPerActiveMinutes: cfg.WaitPerActive,
		Estimator:            buildEstimator(cfg),
	})

	clock := func() time.Time { return time.Now().In(location) }
	handler := httpapi.NewHandler(st, httpapi.Options{Clock: clock})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	h := hub.New()

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/realtime/", displayHandler(h))
	mux.Handle("/", handler.Routes())

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "reservation-service")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("reservation-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	pollCtx, stopPollers := context.WithCancel(context.Background())
	go pollOutbox(pollCtx, st, h, cfg)
	if cfg.StaleCancelEnabled {
		go cancelStale(pollCtx, st, clock, cfg)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopPollers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildEstimator(cfg config.Config) store.WaitEstimator {
	if cfg.WaitEstimator == "depth" {
		return store.DepthEstimator{PerReservation: time.Duration(cfg.WaitPerActive) * time.Minute}
	}
	return store.FlatEstimator{Lead: cfg.EstimatedLead}
}

// displayHandler serves the waiting-room display over sockjs. Clients may
// send a subscribe message to narrow events to one service.
func displayHandler(h *hub.Hub) http.Handler {
	return sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				h.UpdateSubscription(client, hub.Subscription{})
			} else {
				h.UpdateSubscription(client, hub.Subscription{Service: parsed.Service})
			}
		}
	})
}

// pollOutbox tails outbox_events and pushes them to connected displays.
// The offset starts at process start, displays only care about live
// changes and reload the full state over REST on connect.
func pollOutbox(ctx context.Context, st store.ReservationStore, h *hub.Hub, cfg config.Config) {
	interval := cfg.DisplayPollInterval
	if interval <= 0 {
		interval = time.Second
	}
	cursor := store.OutboxCursor{LastEventTime: time.Now().UTC()}
	var running int32

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			continue
		}
		pollCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		events, err := st.ListOutboxEvents(pollCtx, cursor, cfg.DisplayBatchSize)
		cancel()
		if err != nil {
			log.Printf("outbox poll error: %v", err)
		} else {
			for _, event := range events {
				cursor.LastEventTime = event.CreatedAt
				cursor.LastEventID = event.EventID
				env := eventEnvelope{Type: event.Type, Payload: event.Payload, CreatedAt: event.CreatedAt}
				payload, _ := json.Marshal(env)
				h.Broadcast(payload, hub.Subscription{Service: event.ServiceCode})
			}
		}
		atomic.StoreInt32(&running, 0)
	}
}

// cancelStale sweeps waiting reservations whose date has passed.
func cancelStale(ctx context.Context, st store.ReservationStore, clock func() time.Time, cfg config.Config) {
	interval := cfg.StaleScanInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		scanCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		cancelled, err := st.CancelStaleReservations(scanCtx, clock(), cfg.StaleBatchSize)
		cancel()
		if err != nil {
			log.Printf("stale sweep error: %v", err)
		} else if cancelled > 0 {
			log.Printf("cancelled %d stale reservations", cancelled)
		}
	}
}
