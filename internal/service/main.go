package service

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oif-solver/solver-svc/internal/config"
	"github.com/oif-solver/solver-svc/internal/data"
	"github.com/oif-solver/solver-svc/internal/data/jsonfile"
	"github.com/oif-solver/solver-svc/internal/data/mem"
	"github.com/oif-solver/solver-svc/internal/encoding"
	"github.com/oif-solver/solver-svc/internal/execution"
	"github.com/oif-solver/solver-svc/internal/solver"
	"gitlab.com/distributed_lab/ape"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
)

type service struct {
	log       *logan.Entry
	cfg       config.Config
	orders    data.Orders
	store     *jsonfile.Store
	engine    execution.Engine
	lifecycle *solver.Lifecycle

	heightsMu sync.RWMutex
	heights   map[execution.ChainRole]uint64
}

func (s *service) run() error {
	s.log.WithField("transport", s.engine.TransportType()).Info("service started")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go s.waitForShutdown(ctx, stop)

	s.probeConnectivity(ctx)

	if mon := s.cfg.Monitoring(); mon.Enabled {
		go running.WithBackOff(ctx, s.log, "order-monitor",
			s.monitorPass, mon.CheckInterval, mon.CheckInterval, time.Minute)
	}

	ape.Serve(ctx, s.router(), s.cfg, ape.ServeOpts{})

	s.flush()
	return nil
}

func newService(cfg config.Config) *service {
	log := cfg.Log()
	orders, store := newOrders(cfg)

	engine, err := newEngine(log, cfg)
	if err != nil {
		panic(errors.Wrap(err, "failed to build execution engine"))
	}

	chains := cfg.Chains()
	solverCfg := cfg.Solver()
	encoder := encoding.NewNative()

	fill := solver.NewFillOrchestrator(log, encoder, engine,
		chains.Contracts.CoinFiller, chains.Destination.ChainID.Uint64(), solverCfg.FillGas)
	finalize := solver.NewFinalizationOrchestrator(log, encoder, engine,
		chains.Contracts.SettlerCompact, solverCfg.FinalizeGas)

	return &service{
		log:       log,
		cfg:       cfg,
		orders:    orders,
		store:     store,
		engine:    engine,
		lifecycle: solver.NewLifecycle(log, orders, fill, finalize),
	}
}

func newOrders(cfg config.Config) (data.Orders, *jsonfile.Store) {
	pers := cfg.Persistence()
	if !pers.Enabled {
		return mem.NewOrders(), nil
	}

	store := jsonfile.New(pers.DataFile)
	snapshot, err := store.Load()
	if err != nil {
		panic(errors.Wrap(err, "failed to load orders snapshot"))
	}
	return mem.NewOrdersFrom(snapshot), store
}

// newEngine registers every configured transport and builds the preferred
// one: the relayer when enabled, the local signer otherwise.
func newEngine(log *logan.Entry, cfg config.Config) (execution.Engine, error) {
	factory := execution.NewFactory(log)

	if solverCfg := cfg.Solver(); solverCfg.Key != nil {
		factory.Register(execution.TransportDirect, func() (execution.Engine, error) {
			return execution.NewDirect(log, solverCfg.Key, cfg.Chains().Clients()), nil
		})
	}
	if rl := cfg.Relayer(); rl.Enabled {
		factory.Register(execution.TransportRelayer, func() (execution.Engine, error) {
			relayers := map[execution.ChainRole]string{
				execution.ChainOrigin:      rl.OriginRelayer,
				execution.ChainDestination: rl.DestinationRelayer,
			}
			return execution.NewRelayer(log, rl.Client, relayers, rl.Wallet, rl.UseAsync, rl.RequestTimeout), nil
		})
	}

	return factory.CreateForUseCase(execution.UseCaseProduction)
}

// probeConnectivity reports chain reachability. Failures are logged, not
// fatal: endpoints may come up after the service does.
func (s *service) probeConnectivity(ctx context.Context) {
	direct, ok := s.engine.(*execution.DirectEngine)
	if !ok {
		return
	}

	heights, err := direct.VerifyConnectivity(ctx)
	if err != nil {
		s.log.WithError(err).Warn("chain connectivity probe failed")
		return
	}
	for role, height := range heights {
		s.log.WithFields(logan.F{"chain": role, "block": height}).Debug("chain reachable")
	}

	s.heightsMu.Lock()
	s.heights = heights
	s.heightsMu.Unlock()
}

// chainHeights snapshots the last successful connectivity probe.
func (s *service) chainHeights() map[string]uint64 {
	s.heightsMu.RLock()
	defer s.heightsMu.RUnlock()

	res := make(map[string]uint64, len(s.heights))
	for role, height := range s.heights {
		res[string(role)] = height
	}
	return res
}

func (s *service) waitForShutdown(ctx context.Context, stop context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		s.log.WithField("signal", sig.String()).Info("shutting down")
		stop()
	case <-ctx.Done():
	}
}

// flush snapshots the queue so a restart resumes where it stopped.
func (s *service) flush() {
	if s.store == nil {
		return
	}

	orders, err := s.orders.All()
	if err != nil {
		s.log.WithError(err).Error("failed to read orders for snapshot")
		return
	}
	if err = s.store.Save(orders); err != nil {
		s.log.WithError(err).Error("failed to save orders snapshot")
		return
	}
	s.log.WithField("count", len(orders)).Info("orders snapshot saved")
}

func Run(cfg config.Config) {
	if err := newService(cfg).run(); err != nil {
		panic(err)
	}
}
