package config

import (
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
)

type Config interface {
	comfig.Logger
	comfig.Listenerer

	Chains() Chains
	Solver() Solver
	Relayer() Relayer
	Monitoring() Monitoring
	Persistence() Persistence
}

type config struct {
	comfig.Logger
	comfig.Listenerer
	getter kv.Getter

	chainsOnce      comfig.Once
	solverOnce      comfig.Once
	relayerOnce     comfig.Once
	monitoringOnce  comfig.Once
	persistenceOnce comfig.Once
}

func New(getter kv.Getter) Config {
	return &config{
		getter:     getter,
		Logger:     comfig.NewLogger(getter, comfig.LoggerOpts{}),
		Listenerer: comfig.NewListenerer(getter),
	}
}
