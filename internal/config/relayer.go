package config

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/distributed_lab/figure/v3"
	jsonapi "gitlab.com/distributed_lab/json-api-connector"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/tokend/connectors/signed"
)

const defaultRelayerTimeout = 30 * time.Second

type Relayer struct {
	Enabled bool
	Client  *jsonapi.Connector
	// relayer ids per chain role
	OriginRelayer      string
	DestinationRelayer string
	Wallet             common.Address
	UseAsync           bool
	RequestTimeout     time.Duration
}

// bearerTransport injects the relayer API key into every request.
type bearerTransport struct {
	key  string
	next http.RoundTripper
}

func (t bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.key != "" {
		req.Header.Set("Authorization", "Bearer "+t.key)
	}
	return t.next.RoundTrip(req)
}

func (c *config) Relayer() Relayer {
	return c.relayerOnce.Do(func() interface{} {
		raw, err := c.getter.GetStringMap("relayer")
		if err != nil || len(raw) == 0 {
			return Relayer{Enabled: false}
		}

		var cfg struct {
			Enabled            bool          `fig:"enabled"`
			Endpoint           *url.URL      `fig:"endpoint,required"`
			APIKey             string        `fig:"api_key"`
			OriginRelayer      string        `fig:"origin_relayer,required"`
			DestinationRelayer string        `fig:"destination_relayer,required"`
			Wallet             string        `fig:"wallet,required"`
			UseAsync           bool          `fig:"use_async"`
			RequestTimeout     time.Duration `fig:"request_timeout"`
		}

		err = figure.Out(&cfg).
			From(raw).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out relayer"))
		}
		if !cfg.Enabled {
			return Relayer{Enabled: false}
		}

		if v := os.Getenv("RELAYER_API_KEY"); v != "" {
			cfg.APIKey = v
		}
		if !common.IsHexAddress(cfg.Wallet) {
			panic(errors.Errorf("invalid relayer wallet address %q", cfg.Wallet))
		}
		if cfg.RequestTimeout == 0 {
			cfg.RequestTimeout = defaultRelayerTimeout
		}

		cli := &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: bearerTransport{key: cfg.APIKey, next: http.DefaultTransport},
		}
		return Relayer{
			Enabled:            true,
			Client:             jsonapi.NewConnector(signed.NewClient(cli, cfg.Endpoint)),
			OriginRelayer:      cfg.OriginRelayer,
			DestinationRelayer: cfg.DestinationRelayer,
			Wallet:             common.HexToAddress(cfg.Wallet),
			UseAsync:           cfg.UseAsync,
			RequestTimeout:     cfg.RequestTimeout,
		}
	}).(Relayer)
}
