package config

import (
	"crypto/ecdsa"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oif-solver/solver-svc/internal/execution"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Gas defaults mirror the pinned submission parameters of the reference
// deployments.
const (
	defaultFillGasLimit     = 360000
	defaultFinalizeGasLimit = 650000
)

var (
	defaultFillGasPrice     = big.NewInt(50_000_000_000)
	defaultFinalizeGasPrice = big.NewInt(1_178_761_408)
)

type Solver struct {
	// Key is nil when no signing key is configured; the direct transport is
	// unavailable then.
	Key               *ecdsa.PrivateKey
	Address           common.Address
	AutoFinalize      bool
	FinalizationDelay time.Duration
	FillGas           execution.GasParams
	FinalizeGas       execution.GasParams
}

func (c *config) Solver() Solver {
	return c.solverOnce.Do(func() interface{} {
		var cfg struct {
			PrivateKey        string        `fig:"private_key"`
			AutoFinalize      bool          `fig:"auto_finalize"`
			FinalizationDelay time.Duration `fig:"finalization_delay"`
			FillGasLimit      uint64        `fig:"fill_gas_limit"`
			FillGasPrice      int64         `fig:"fill_gas_price"`
			FinalizeGasLimit  uint64        `fig:"finalize_gas_limit"`
			FinalizeGasPrice  int64         `fig:"finalize_gas_price"`
		}

		err := figure.Out(&cfg).
			From(kv.MustGetStringMap(c.getter, "solver")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out solver"))
		}

		if v := os.Getenv("SOLVER_PRIVATE_KEY"); v != "" {
			cfg.PrivateKey = v
		}

		s := Solver{
			AutoFinalize:      cfg.AutoFinalize,
			FinalizationDelay: cfg.FinalizationDelay,
			FillGas: execution.GasParams{
				GasLimit: cfg.FillGasLimit,
				GasPrice: defaultFillGasPrice,
			},
			FinalizeGas: execution.GasParams{
				GasLimit: cfg.FinalizeGasLimit,
				GasPrice: defaultFinalizeGasPrice,
			},
		}
		if s.FillGas.GasLimit == 0 {
			s.FillGas.GasLimit = defaultFillGasLimit
		}
		if s.FinalizeGas.GasLimit == 0 {
			s.FinalizeGas.GasLimit = defaultFinalizeGasLimit
		}
		if cfg.FillGasPrice > 0 {
			s.FillGas.GasPrice = big.NewInt(cfg.FillGasPrice)
		}
		if cfg.FinalizeGasPrice > 0 {
			s.FinalizeGas.GasPrice = big.NewInt(cfg.FinalizeGasPrice)
		}

		if cfg.PrivateKey != "" {
			key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
			if err != nil {
				panic(errors.Wrap(err, "invalid solver private key"))
			}
			s.Key = key
			s.Address = crypto.PubkeyToAddress(key.PublicKey)
		}
		return s
	}).(Solver)
}
