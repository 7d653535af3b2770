package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/parkagent/api/agent"
	"github.com/kilianp07/parkagent/config"
	"github.com/kilianp07/parkagent/core/audit"
	corecatalog "github.com/kilianp07/parkagent/core/catalog"
	"github.com/kilianp07/parkagent/core/decision"
	coremetrics "github.com/kilianp07/parkagent/core/metrics"
	"github.com/kilianp07/parkagent/core/model"
	coremon "github.com/kilianp07/parkagent/core/monitoring"
	"github.com/kilianp07/parkagent/core/payment"
	"github.com/kilianp07/parkagent/core/reservation"
	infracatalog "github.com/kilianp07/parkagent/infra/catalog"
	"github.com/kilianp07/parkagent/infra/logger"
	"github.com/kilianp07/parkagent/infra/metrics"
	"github.com/kilianp07/parkagent/infra/monitoring"
	"github.com/kilianp07/parkagent/infra/mqtt"
	_ "github.com/kilianp07/parkagent/infra/payment"
	"github.com/kilianp07/parkagent/internal/eventbus"
)

// Service wires the decision engine to the catalog, payment rail, audit
// store and event outputs.
type Service struct {
	cfg     *config.Config
	engine  *decision.Engine
	catalog corecatalog.Repository
	payer   payment.Payer
	store   audit.Store
	sink    coremetrics.MetricsSink
	bus     *eventbus.Bus[coremetrics.Event]
	log     logger.Logger
	now     func() time.Time
	newID   func() string

	watcher   *infracatalog.Watcher
	publisher *mqtt.Publisher
	cancel    context.CancelFunc
	workers   []<-chan struct{}
}

var _ reservation.Agent = (*Service)(nil)

// Option overrides a component that New would otherwise build from config.
type Option func(*Service)

// WithCatalog uses repo instead of the configured catalog file.
func WithCatalog(repo corecatalog.Repository) Option {
	return func(s *Service) { s.catalog = repo }
}

// WithPayer uses p instead of the configured payer.
func WithPayer(p payment.Payer) Option {
	return func(s *Service) { s.payer = p }
}

// WithAuditStore uses st instead of opening the configured store.
func WithAuditStore(st audit.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithMetricsSink uses sink instead of the configured sinks.
func WithMetricsSink(sink coremetrics.MetricsSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	s := &Service{
		cfg:   cfg,
		log:   logger.New("service"),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	if s.engine, err = decision.NewEngine(cfg.Engine); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if s.payer == nil {
		if s.payer, err = payment.NewPayer(cfg.Payment.Payer); err != nil {
			return nil, fmt.Errorf("payer: %w", err)
		}
	}
	if s.sink == nil {
		if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if s.store == nil {
		if s.store, err = audit.Open(cfg.Audit); err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
	}
	if s.catalog == nil {
		if err := s.openCatalog(); err != nil {
			_ = s.store.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.bus = eventbus.New[coremetrics.Event](64)
	s.workers = append(s.workers, metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics")))
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		s.publisher = pub
		s.workers = append(s.workers, pub.Forward(ctx, s.bus))
	}
	return s, nil
}

func (s *Service) openCatalog() error {
	cc := s.cfg.Catalog
	cc.SetDefaults()
	if !cc.Watch {
		s.catalog = infracatalog.NewFileRepository(cc.Path)
		return nil
	}
	repo := corecatalog.NewMemoryRepository(nil)
	w, err := infracatalog.NewWatcher(cc.Path, repo, cc.Debounce, logger.New("catalog"))
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	w.OnReload(func(_ int, err error) {
		if err != nil {
			coremon.CaptureException(err, map[string]string{"module": "catalog"})
		}
	})
	w.Start()
	s.watcher = w
	s.catalog = repo
	return nil
}

// StaticOptions returns the configured limits for urgency.
func (s *Service) StaticOptions(u model.Urgency) decision.StaticOptions {
	return s.engine.StaticOptions(u)
}

// Decide runs the static decision. Nil providers means the catalog.
func (s *Service) Decide(ctx context.Context, providers []model.Provider, opts decision.StaticOptions) (reservation.Outcome, error) {
	providers, err := s.providers(ctx, providers)
	if err != nil {
		return reservation.Outcome{}, err
	}
	start := s.now()
	res := s.engine.Decide(providers, opts)
	rec := s.newRecord(decision.ModeStatic, opts.Urgency, nil, providers, res)
	s.finish(ctx, rec, start)
	return reservation.Outcome{DecisionID: rec.ID, Result: res}, nil
}

// Plan runs the scenario decision. Nil providers means the catalog.
func (s *Service) Plan(ctx context.Context, sc model.Scenario, providers []model.Provider) (reservation.Outcome, error) {
	providers, err := s.providers(ctx, providers)
	if err != nil {
		return reservation.Outcome{}, err
	}
	start := s.now()
	res := s.engine.DecideWithScenario(sc, providers)
	rec := s.newRecord(decision.ModeScenario, sc.Urgency, &sc, providers, res)
	s.finish(ctx, rec, start)
	return reservation.Outcome{DecisionID: rec.ID, Result: res}, nil
}

// Reserve runs the static decision over the catalog with the configured
// limits and pays the selected provider. A failed decision pays nothing.
func (s *Service) Reserve(ctx context.Context, urgency model.Urgency) (reservation.Reservation, error) {
	providers, err := s.providers(ctx, nil)
	if err != nil {
		return reservation.Reservation{}, err
	}
	opts := s.engine.StaticOptions(urgency)
	start := s.now()
	res := s.engine.Decide(providers, opts)
	rec := s.newRecord(decision.ModeStatic, urgency, nil, providers, res)
	out := reservation.Reservation{DecisionID: rec.ID, Result: res}
	if !res.OK {
		s.finish(ctx, rec, start)
		return out, nil
	}

	receipt, err := s.pay(ctx, rec.ID, res.Decision, opts.MaxSingleTxBudget)
	if err != nil {
		s.finish(ctx, rec, start)
		return out, err
	}
	rec.TxHash = receipt.TxHash
	s.finish(ctx, rec, start)

	out.Receipt = &receipt
	if s.cfg.Payment.ExplorerURL != "" {
		out.ExplorerURL = s.cfg.Payment.ExplorerURL + receipt.TxHash
	}
	return out, nil
}

// Decisions queries the audit trail.
func (s *Service) Decisions(ctx context.Context, q audit.Query) ([]audit.Record, error) {
	records, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("audit query: %w", err)
	}
	return records, nil
}

func (s *Service) pay(ctx context.Context, decisionID string, d *decision.Decision, budget float64) (payment.Receipt, error) {
	amount := s.cfg.Payment.FixedAmount
	if amount <= 0 {
		amount = d.EstimatedCost
	}
	if amount > budget {
		return payment.Receipt{}, fmt.Errorf("pay %g to %s: %w", amount, d.ID, reservation.ErrOverBudget)
	}
	if s.cfg.Payment.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Payment.Timeout)
		defer cancel()
	}

	start := s.now()
	receipt, err := s.payer.Pay(ctx, payment.Request{To: d.Address, Amount: amount, Reference: decisionID})
	ev := coremetrics.PaymentEvent{
		DecisionID: decisionID,
		ProviderID: d.ID,
		To:         d.Address,
		Amount:     amount,
		TxHash:     receipt.TxHash,
		Latency:    s.now().Sub(start),
		Time:       start,
	}
	if err != nil {
		ev.Error = err.Error()
		s.bus.Publish(ev)
		coremon.CaptureException(err, map[string]string{"module": "payment", "provider_id": d.ID})
		return payment.Receipt{}, fmt.Errorf("payment: %w", err)
	}
	s.bus.Publish(ev)
	s.log.Infow("payment sent", map[string]any{"decision_id": decisionID, "provider_id": d.ID, "amount": amount, "tx_hash": receipt.TxHash})
	return receipt, nil
}

func (s *Service) providers(ctx context.Context, given []model.Provider) ([]model.Provider, error) {
	if given != nil {
		return given, nil
	}
	providers, err := s.catalog.Providers(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return providers, nil
}

func (s *Service) newRecord(mode decision.Mode, u model.Urgency, sc *model.Scenario, providers []model.Provider, res decision.Result) audit.Record {
	return audit.Record{
		ID:        s.newID(),
		Mode:      mode,
		Urgency:   model.ParseUrgency(string(u)),
		Scenario:  sc,
		Providers: len(providers),
		Result:    res,
	}
}

// finish audits, publishes and logs a decision. Failures here never fail
// the caller.
func (s *Service) finish(ctx context.Context, rec audit.Record, start time.Time) {
	rec.Timestamp = start
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("audit append %s: %v", rec.ID, err)
		coremon.CaptureException(err, map[string]string{"module": "audit", "decision_id": rec.ID})
	}

	ev := coremetrics.DecisionEvent{
		DecisionID: rec.ID,
		Mode:       string(rec.Mode),
		Urgency:    rec.Urgency.String(),
		OK:         rec.Result.OK,
		Reason:     rec.Result.Reason,
		Candidates: rec.Providers,
		Feasible:   rec.Result.Feasible,
		Duration:   s.now().Sub(start),
		Time:       start,
	}
	if d := rec.Result.Decision; d != nil {
		ev.ProviderID = d.ID
		ev.Score = d.Score
		ev.EstimatedCost = d.EstimatedCost
	}
	s.bus.Publish(ev)

	fields := map[string]any{
		"decision_id": rec.ID,
		"mode":        rec.Mode,
		"urgency":     rec.Urgency,
		"ok":          rec.Result.OK,
	}
	if ev.ProviderID != "" {
		fields["provider_id"] = ev.ProviderID
	} else {
		fields["reason"] = ev.Reason
	}
	s.log.Infow("decision", fields)
	s.log.Debugw("decision thoughts", map[string]any{"decision_id": rec.ID, "thoughts": rec.Result.Thoughts})
}

// Handler returns the HTTP API for this service.
func (s *Service) Handler() http.Handler {
	h := s.cfg.HTTP
	return agent.NewRouter(s, agent.Options{
		AuthToken: h.AuthToken,
		RateLimit: h.RateLimit,
		Burst:     h.Burst,
		Metrics:   h.Metrics(),
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger.New("api"),
	})
}

// Run serves the HTTP API until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTP.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.HTTP.ReadTimeout,
		WriteTimeout: s.cfg.HTTP.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("agent service listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Close stops background workers and releases resources held by the service.
func (s *Service) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	for _, done := range s.workers {
		<-done
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	coremon.Flush(2 * time.Second)
	return s.store.Close()
}
