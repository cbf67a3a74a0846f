package execution

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	defaultConfirmTimeout = 2 * time.Minute
	receiptPollPeriod     = time.Second
)

// ChainClient binds one chain role to a dialed RPC client.
type ChainClient struct {
	Client  *ethclient.Client
	ChainID *big.Int
}

// DirectEngine signs transactions locally and talks to chain RPC endpoints
// itself. SendTransaction blocks until the transaction is mined.
type DirectEngine struct {
	log    *logan.Entry
	key    *ecdsa.PrivateKey
	wallet common.Address
	chains map[ChainRole]ChainClient
}

func NewDirect(log *logan.Entry, key *ecdsa.PrivateKey, chains map[ChainRole]ChainClient) *DirectEngine {
	return &DirectEngine{
		log:    log.WithField("transport", TransportDirect),
		key:    key,
		wallet: crypto.PubkeyToAddress(key.PublicKey),
		chains: chains,
	}
}

func (e *DirectEngine) TransportType() TransportType {
	return TransportDirect
}

func (e *DirectEngine) WalletAddress() common.Address {
	return e.wallet
}

func (e *DirectEngine) chain(role ChainRole) (ChainClient, error) {
	c, ok := e.chains[role]
	if !ok {
		return ChainClient{}, errors.From(ErrUnknownChainRole, logan.F{"role": role})
	}
	return c, nil
}

func (e *DirectEngine) SendTransaction(ctx context.Context, role ChainRole, to common.Address, callData []byte, gas GasParams, execCtx Context) (Response, error) {
	chain, err := e.chain(role)
	if err != nil {
		return Response{}, err
	}

	timeout := execCtx.Timeout
	if timeout == 0 {
		timeout = defaultConfirmTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := e.log.WithFields(logan.F{"chain_role": role, "to": to.Hex()})

	// diagnostic preflight; a failure here is logged with the revert data
	// but never gates the submission
	if out, err := e.staticCall(ctx, chain, to, callData); err != nil {
		log.WithError(err).WithField("revert_data", hexutil.Encode(out)).
			Warn("preflight static call failed, submitting anyway")
	}

	nonce, err := chain.Client.PendingNonceAt(ctx, e.wallet)
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to get pending nonce")
	}

	gasPrice := gas.GasPrice
	if gasPrice == nil {
		if gasPrice, err = chain.Client.SuggestGasPrice(ctx); err != nil {
			return Response{}, errors.Wrap(err, "failed to suggest gas price")
		}
	}

	gasLimit := gas.GasLimit
	if gasLimit == 0 {
		gasLimit, err = chain.Client.EstimateGas(ctx, ethereum.CallMsg{
			From:     e.wallet,
			To:       &to,
			Data:     callData,
			GasPrice: gasPrice,
		})
		if err != nil {
			return Response{}, errors.Wrap(err, "failed to estimate gas")
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     callData,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chain.ChainID), e.key)
	if err != nil {
		return Response{}, errors.Wrap(err, "failed to sign transaction")
	}

	if err = chain.Client.SendTransaction(ctx, signed); err != nil {
		return Response{}, errors.Wrap(err, "failed to broadcast transaction")
	}
	log = log.WithField("tx_hash", signed.Hash().Hex())
	log.Info("transaction broadcast, waiting for receipt")

	receipt, err := e.waitMined(ctx, chain, signed.Hash())
	if err != nil {
		return Response{}, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return Response{}, errors.From(ErrReverted, logan.F{"tx_hash": signed.Hash().Hex()})
	}

	log.WithField("block", receipt.BlockNumber).Info("transaction confirmed")
	return Response{TxHash: signed.Hash().Hex()}, nil
}

func (e *DirectEngine) waitMined(ctx context.Context, chain ChainClient, hash common.Hash) (*types.Receipt, error) {
	t := time.NewTicker(receiptPollPeriod)
	defer t.Stop()

	for {
		receipt, err := chain.Client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if err != ethereum.NotFound {
			e.log.WithError(err).Debug("receipt poll failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, errors.From(ErrTimeout, logan.F{"tx_hash": hash.Hex()})
		case <-t.C:
		}
	}
}

func (e *DirectEngine) StaticCall(ctx context.Context, role ChainRole, to common.Address, callData []byte) ([]byte, error) {
	chain, err := e.chain(role)
	if err != nil {
		return nil, err
	}
	return e.staticCall(ctx, chain, to, callData)
}

func (e *DirectEngine) staticCall(ctx context.Context, chain ChainClient, to common.Address, callData []byte) ([]byte, error) {
	out, err := chain.Client.CallContract(ctx, ethereum.CallMsg{
		From: e.wallet,
		To:   &to,
		Data: callData,
	}, nil)
	return out, errors.Wrap(err, "static call failed")
}

func (e *DirectEngine) EstimateGas(ctx context.Context, role ChainRole, to common.Address, callData []byte) (uint64, error) {
	chain, err := e.chain(role)
	if err != nil {
		return 0, err
	}
	gas, err := chain.Client.EstimateGas(ctx, ethereum.CallMsg{
		From: e.wallet,
		To:   &to,
		Data: callData,
	})
	return gas, errors.Wrap(err, "failed to estimate gas")
}

// CheckAsyncStatus is not applicable: direct submissions confirm in-line.
func (e *DirectEngine) CheckAsyncStatus(context.Context, string) (AsyncStatus, error) {
	return "", ErrUnsupported
}

func (e *DirectEngine) TransactionHash(context.Context, string) (string, error) {
	return "", ErrUnsupported
}

// VerifyConnectivity probes every configured chain and returns per-role
// block heights. Used by the health endpoint and the monitor's probe.
func (e *DirectEngine) VerifyConnectivity(ctx context.Context) (map[ChainRole]uint64, error) {
	heights := make(map[ChainRole]uint64, len(e.chains))
	for role, chain := range e.chains {
		n, err := chain.Client.BlockNumber(ctx)
		if err != nil {
			return heights, errors.Wrap(err, "chain is unreachable", logan.F{"chain_role": role})
		}
		heights[role] = n
	}
	return heights, nil
}
