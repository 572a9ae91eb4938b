// Package metrics exposes engine activity to prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/finspan/finspan-server-go/internal/game"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "finspan"

// Collector implements game.Observer.
type Collector struct {
	actions       *prometheus.CounterVec
	actionLatency *prometheus.HistogramVec
	weeks         prometheus.Counter
	gamesFinished prometheus.Counter
	players       prometheus.Histogram
	activeMatches prometheus.Gauge
	peers         prometheus.Gauge
}

var _ game.Observer = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg. A nil reg
// uses the default registerer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions submitted, by kind and result",
		}, []string{"kind", "result"}),
		actionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Time spent validating and applying an action",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"kind"}),
		weeks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weeks_completed_total",
			Help:      "Weeks closed across all matches",
		}),
		gamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Matches that reached end_game",
		}),
		players: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finished_game_players",
			Help:      "Player count of finished matches",
			Buckets:   prometheus.LinearBuckets(2, 1, 5),
		}),
		activeMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Matches currently hosted",
		}),
		peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_peers",
			Help:      "Open peer connections",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.actions, c.actionLatency, c.weeks, c.gamesFinished, c.players, c.activeMatches, c.peers,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ActionApplied(kind string, result string, elapsed time.Duration) {
	c.actions.WithLabelValues(kind, result).Inc()
	c.actionLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (c *Collector) WeekEnded(int) {
	c.weeks.Inc()
}

func (c *Collector) GameEnded(players int) {
	c.gamesFinished.Inc()
	c.players.Observe(float64(players))
}

// SetActiveMatches records the number of hosted matches.
func (c *Collector) SetActiveMatches(n int) {
	c.activeMatches.Set(float64(n))
}

// SetPeers records the number of connected peers.
func (c *Collector) SetPeers(n int) {
	c.peers.Set(float64(n))
}

// TrackManager keeps the active match gauge in line with m. It chains to
// next, which may be nil.
func (c *Collector) TrackManager(m *game.Manager, next game.NotificationHandler) {
	m.SetNotificationHandler(func(n game.GameNotification) {
		switch n.Type {
		case game.NotificationGameCreated, game.NotificationGameRemoved:
			c.SetActiveMatches(m.Count())
		}
		if next != nil {
			next(n)
		}
	})
}

// Serve exposes gatherer on addr at path until ctx is done.
func Serve(ctx context.Context, addr, path string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting metrics server", zap.String("address", addr), zap.String("path", path))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
