package payment

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pragyanetra/console/internal/config"
	"github.com/pragyanetra/console/internal/logging"
	"github.com/pragyanetra/console/internal/monitoring"
	"github.com/pragyanetra/console/internal/wallet"
)

// Gate errors
var (
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrSignerUnavailable = errors.New("no signer available: wallet session not connected")
	ErrTxRejected        = errors.New("user rejected the transaction")
	ErrTxReverted        = errors.New("transaction reverted on chain")
	ErrProviderComm      = errors.New("wallet provider communication failed")
	ErrUnknownIntent     = errors.New("unknown payment intent")
	ErrMissingContract   = errors.New("stake contract address not configured")
	ErrMissingRecipient  = errors.New("transfer recipient not configured")
)

// stakeSelector is the 4-byte selector of the contract's payable
// stake(uint256) method.
var stakeSelector = [4]byte{0xa6, 0x94, 0xfc, 0x3a}

// IntentKind distinguishes the two supported payment intents.
type IntentKind string

const (
	IntentStake    IntentKind = "stake"
	IntentTransfer IntentKind = "transfer"
)

// Intent describes what a payment is for. The gate turns it into exactly one
// transaction.
type Intent struct {
	Kind      IntentKind
	SlotCount int    // stake: number of course slots paid for
	Recipient string // transfer: destination address
}

// StakeForCourseSlots builds the course-creation staking intent.
func StakeForCourseSlots(count int) Intent {
	return Intent{Kind: IntentStake, SlotCount: count}
}

// DirectTransfer builds a plain value transfer intent.
func DirectTransfer(recipient string) Intent {
	return Intent{Kind: IntentTransfer, Recipient: recipient}
}

// Receipt is a confirmed payment.
type Receipt struct {
	TxHash      string   `json:"tx_hash"`
	BlockNumber *big.Int `json:"block_number"`
}

// Gate submits value-bearing transactions through a connected wallet session
// and waits for single-confirmation finality. A success here means value has
// irreversibly moved; callers own the consequences of anything that fails
// after that.
type Gate struct {
	session      *wallet.Session
	contract     string
	pollInterval time.Duration
	log          zerolog.Logger
}

// NewGate creates a payment gate bound to a wallet session.
func NewGate(session *wallet.Session, cfg *config.PaymentConfig) *Gate {
	interval := cfg.ConfirmInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Gate{
		session:      session,
		contract:     cfg.ContractAddress,
		pollInterval: interval,
		log:          logging.NewLogger("payment"),
	}
}

// Pay submits exactly one transaction for the intent and blocks until the
// network confirms it. The returned receipt is final to one confirmation.
func (g *Gate) Pay(ctx context.Context, intent Intent, amount decimal.Decimal) (*Receipt, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	signer := g.session.Signer()
	if signer == nil {
		return nil, ErrSignerUnavailable
	}

	tx, err := g.buildTx(intent, amount)
	if err != nil {
		return nil, err
	}

	g.log.Info().
		Str("intent", string(intent.Kind)).
		Str("amount_flow", amount.String()).
		Str("to", tx.To).
		Msg("Submitting transaction")

	hash, err := signer.SendTransaction(ctx, tx)
	if err != nil {
		monitoring.RecordPayment(string(intent.Kind), "rejected")
		var rpcErr *wallet.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == wallet.CodeUserRejected {
			return nil, ErrTxRejected
		}
		// Submission never reached the wallet or the answer was lost; no
		// transaction hash exists, so nothing moved.
		return nil, fmt.Errorf("%w: %v", ErrProviderComm, err)
	}

	receipt, err := g.waitMined(ctx, signer, hash)
	if err != nil {
		monitoring.RecordPayment(string(intent.Kind), "unknown")
		// The transaction was submitted; whether it lands is now unknowable
		// from here. This is the ambiguous outcome the caller must surface.
		return nil, fmt.Errorf("%w: transaction %s submitted but confirmation failed: %v", ErrProviderComm, hash, err)
	}

	if !receipt.Succeeded() {
		monitoring.RecordPayment(string(intent.Kind), "reverted")
		g.log.Error().Str("tx_hash", hash).Msg("Transaction reverted")
		return nil, fmt.Errorf("%w: %s", ErrTxReverted, hash)
	}

	monitoring.RecordPayment(string(intent.Kind), "confirmed")
	logging.LogPayment(signer.Address(), hash, string(intent.Kind), "confirmed", amount.String())

	return &Receipt{TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber}, nil
}

func (g *Gate) buildTx(intent Intent, amount decimal.Decimal) (wallet.TxRequest, error) {
	wei := ToWei(amount)

	switch intent.Kind {
	case IntentStake:
		if g.contract == "" {
			return wallet.TxRequest{}, ErrMissingContract
		}
		return wallet.TxRequest{
			To:    g.contract,
			Value: wei,
			Data:  stakeCalldata(intent.SlotCount),
		}, nil
	case IntentTransfer:
		if intent.Recipient == "" {
			return wallet.TxRequest{}, ErrMissingRecipient
		}
		return wallet.TxRequest{
			To:    intent.Recipient,
			Value: wei,
		}, nil
	default:
		return wallet.TxRequest{}, ErrUnknownIntent
	}
}

// waitMined polls for the receipt until the transaction is mined or the
// context ends. No timeout of our own: confirmation waits are bounded only
// by the network's liveness.
func (g *Gate) waitMined(ctx context.Context, signer *wallet.Signer, txHash string) (*wallet.TxReceipt, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := signer.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ToWei converts a whole-unit decimal amount to wei (18 decimals).
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(18).BigInt()
}

// stakeCalldata encodes stake(uint256) with the slot count as its argument.
func stakeCalldata(count int) []byte {
	data := make([]byte, 4+32)
	copy(data, stakeSelector[:])
	binary.BigEndian.PutUint64(data[4+24:], uint64(count))
	return data
}
