package execution

import (
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var ErrNoTransport = errors.New("no execution transport is available")

// UseCase hints what the caller optimizes for; the factory turns it into a
// transport recommendation.
type UseCase string

const (
	UseCaseLatencyCritical UseCase = "latency-critical"
	UseCaseCrossChain      UseCase = "cross-chain"
	UseCaseGasOptimized    UseCase = "gas-optimized"
	UseCaseDevelopment     UseCase = "development"
	UseCaseProduction      UseCase = "production"
)

// recommendations prefers the direct transport where latency matters and the
// relayer where managed gas handling matters.
var recommendations = map[UseCase]TransportType{
	UseCaseLatencyCritical: TransportDirect,
	UseCaseDevelopment:     TransportDirect,
	UseCaseCrossChain:      TransportRelayer,
	UseCaseGasOptimized:    TransportRelayer,
	UseCaseProduction:      TransportRelayer,
}

// Factory builds execution engines. A transport is available when its
// builder is registered: direct requires a configured signer key, relayer
// requires an enabled relayer section.
type Factory struct {
	log      *logan.Entry
	builders map[TransportType]func() (Engine, error)
}

func NewFactory(log *logan.Entry) *Factory {
	return &Factory{
		log:      log,
		builders: make(map[TransportType]func() (Engine, error)),
	}
}

func (f *Factory) Register(t TransportType, build func() (Engine, error)) {
	f.builders[t] = build
}

func (f *Factory) IsAvailable(t TransportType) bool {
	_, ok := f.builders[t]
	return ok
}

func (f *Factory) Available() []TransportType {
	var res []TransportType
	for _, t := range []TransportType{TransportDirect, TransportRelayer} {
		if f.IsAvailable(t) {
			res = append(res, t)
		}
	}
	return res
}

func (f *Factory) Create(t TransportType) (Engine, error) {
	build, ok := f.builders[t]
	if !ok {
		return nil, errors.From(ErrNoTransport, logan.F{"transport": t})
	}
	return build()
}

// Recommend picks a transport for the use case, falling back to whatever is
// available when the preferred one is not configured.
func (f *Factory) Recommend(u UseCase) TransportType {
	preferred, ok := recommendations[u]
	if !ok {
		preferred = TransportDirect
	}
	if f.IsAvailable(preferred) {
		return preferred
	}
	for _, t := range f.Available() {
		return t
	}
	return preferred
}

// CreateWithFallback builds the preferred transport and, on construction
// failure, walks every other available transport before giving up.
func (f *Factory) CreateWithFallback(preferred TransportType) (Engine, error) {
	engine, err := f.Create(preferred)
	if err == nil {
		return engine, nil
	}
	f.log.WithError(err).WithField("transport", preferred).
		Warn("preferred transport failed to construct, trying fallbacks")

	for _, t := range f.Available() {
		if t == preferred {
			continue
		}
		engine, ferr := f.Create(t)
		if ferr == nil {
			f.log.WithField("transport", t).Info("fell back to alternate transport")
			return engine, nil
		}
		f.log.WithError(ferr).WithField("transport", t).Warn("fallback transport failed to construct")
	}
	return nil, errors.Wrap(err, "all execution transports failed")
}

// CreateForUseCase resolves the recommendation and builds it with fallback.
func (f *Factory) CreateForUseCase(u UseCase) (Engine, error) {
	return f.CreateWithFallback(f.Recommend(u))
}
