package config

import (
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Persistence struct {
	Enabled  bool
	DataFile string
}

func (c *config) Persistence() Persistence {
	return c.persistenceOnce.Do(func() interface{} {
		raw, err := c.getter.GetStringMap("persistence")
		if err != nil || len(raw) == 0 {
			return Persistence{Enabled: false}
		}

		var cfg struct {
			Enabled  bool   `fig:"enabled"`
			DataFile string `fig:"data_file"`
		}
		if err = figure.Out(&cfg).From(raw).Please(); err != nil {
			panic(errors.Wrap(err, "failed to figure out persistence"))
		}

		if cfg.Enabled && cfg.DataFile == "" {
			panic(errors.New("persistence is enabled but data_file is not set"))
		}
		return Persistence{Enabled: cfg.Enabled, DataFile: cfg.DataFile}
	}).(Persistence)
}
