package config

import (
	"time"

	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	defaultCheckInterval = 5 * time.Second
	defaultOrderPause    = 100 * time.Millisecond
)

type Monitoring struct {
	Enabled       bool
	CheckInterval time.Duration
	// OrderPause is the sleep between two orders of the same pass, keeping
	// nonce pressure off the RPC endpoints.
	OrderPause time.Duration
}

func (c *config) Monitoring() Monitoring {
	return c.monitoringOnce.Do(func() interface{} {
		raw, err := c.getter.GetStringMap("monitoring")
		if err != nil || len(raw) == 0 {
			return Monitoring{
				Enabled:       true,
				CheckInterval: defaultCheckInterval,
				OrderPause:    defaultOrderPause,
			}
		}

		var cfg struct {
			Disabled      bool          `fig:"disabled"`
			CheckInterval time.Duration `fig:"check_interval"`
			OrderPause    time.Duration `fig:"order_pause"`
		}
		if err = figure.Out(&cfg).From(raw).Please(); err != nil {
			panic(errors.Wrap(err, "failed to figure out monitoring"))
		}

		m := Monitoring{
			Enabled:       !cfg.Disabled,
			CheckInterval: cfg.CheckInterval,
			OrderPause:    cfg.OrderPause,
		}
		if m.CheckInterval == 0 {
			m.CheckInterval = defaultCheckInterval
		}
		if m.OrderPause == 0 {
			m.OrderPause = defaultOrderPause
		}
		return m
	}).(Monitoring)
}
