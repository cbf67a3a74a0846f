package config

import (
	"math"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/oif-solver/solver-svc/internal/execution"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const maxChainID int64 = math.MaxUint64/2 - 36

// Chain is one dialed chain endpoint.
type Chain struct {
	Client  *ethclient.Client
	ChainID *big.Int
}

// Contracts holds the deployed contract addresses the solver talks to.
type Contracts struct {
	TheCompact     common.Address
	SettlerCompact common.Address
	CoinFiller     common.Address
}

type Chains struct {
	Origin      Chain
	Destination Chain
	Contracts   Contracts
}

// Clients returns the chain clients keyed by execution role.
func (c Chains) Clients() map[execution.ChainRole]execution.ChainClient {
	return map[execution.ChainRole]execution.ChainClient{
		execution.ChainOrigin:      {Client: c.Origin.Client, ChainID: c.Origin.ChainID},
		execution.ChainDestination: {Client: c.Destination.Client, ChainID: c.Destination.ChainID},
	}
}

func (c *config) Chains() Chains {
	return c.chainsOnce.Do(func() interface{} {
		var cfg struct {
			OriginRPC          string         `fig:"origin_rpc,required"`
			OriginChainID      int64          `fig:"origin_chain_id,required"`
			DestinationRPC     string         `fig:"destination_rpc,required"`
			DestinationChainID int64          `fig:"destination_chain_id,required"`
			TheCompact         common.Address `fig:"the_compact,required"`
			SettlerCompact     common.Address `fig:"settler_compact,required"`
			CoinFiller         common.Address `fig:"coin_filler,required"`
		}

		err := figure.Out(&cfg).
			With(figure.EthereumHooks).
			From(kv.MustGetStringMap(c.getter, "chains")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out chains"))
		}

		if v := os.Getenv("ORIGIN_RPC_URL"); v != "" {
			cfg.OriginRPC = v
		}
		if v := os.Getenv("DESTINATION_RPC_URL"); v != "" {
			cfg.DestinationRPC = v
		}

		return Chains{
			Origin:      dialChain(cfg.OriginRPC, cfg.OriginChainID),
			Destination: dialChain(cfg.DestinationRPC, cfg.DestinationChainID),
			Contracts: Contracts{
				TheCompact:     cfg.TheCompact,
				SettlerCompact: cfg.SettlerCompact,
				CoinFiller:     cfg.CoinFiller,
			},
		}
	}).(Chains)
}

func dialChain(rpc string, chainID int64) Chain {
	if chainID > maxChainID || chainID <= 0 {
		panic("chain_id value out of range due to EIP 2294")
	}
	cli, err := ethclient.Dial(rpc)
	if err != nil {
		panic(errors.Wrap(err, "failed to connect to RPC provider"))
	}
	return Chain{Client: cli, ChainID: big.NewInt(chainID)}
}
