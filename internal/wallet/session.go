package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pragyanetra/console/internal/logging"
)

// Session errors
var (
	ErrNoProvider       = errors.New("no wallet provider capability available")
	ErrUserRejected     = errors.New("user rejected the account request")
	ErrRequestPending   = errors.New("a wallet request is already pending")
	ErrSwitchRejected   = errors.New("user rejected the network switch")
	ErrChainAddRejected = errors.New("wallet refused to add the required network")
	ErrNoAccounts       = errors.New("wallet granted no accounts")
)

// State is the session's connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateNetworkMismatch
	StateSwitching
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateNetworkMismatch:
		return "network_mismatch"
	case StateSwitching:
		return "switching"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Session owns the wallet connection state: whether a signing key is bound,
// and whether it is bound on the required chain. All transitions happen
// inside Connect; nothing mutates the state from outside.
//
// Invariant: the account address and the signer capability are both set when
// the state is Connected and both absent otherwise.
type Session struct {
	provider Provider
	chain    Chain
	log      zerolog.Logger

	mu      sync.Mutex
	state   State
	account string
	signer  *Signer
}

// NewSession creates a session over the given provider capability. A nil
// provider models the no-wallet-installed case; Connect then fails with
// ErrNoProvider.
func NewSession(provider Provider, chain Chain) *Session {
	return &Session{
		provider: provider,
		chain:    chain,
		log:      logging.NewLogger("wallet"),
		state:    StateDisconnected,
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Account returns the bound address, or "" when not connected.
func (s *Session) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// Signer returns the signing capability, or nil when not connected.
func (s *Session) Signer() *Signer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signer
}

// Connect runs the full session protocol: account binding, chain check, and
// if needed the switch (and add-chain) negotiation. It is the only entry
// point and is safe to call repeatedly; while already connected it returns
// the existing binding without issuing another account request.
//
// Every return with a Connected state is on the required chain at the moment
// of the transition. The wallet may still change chains out-of-band later.
func (s *Session) Connect(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConnected {
		return s.account, nil
	}

	if s.provider == nil {
		s.log.Error().Msg("No EVM wallet capability detected")
		return "", ErrNoProvider
	}

	s.state = StateConnecting
	s.log.Info().Msg("Requesting accounts")

	raw, err := s.provider.Request(ctx, "eth_requestAccounts", nil)
	if err != nil {
		s.state = StateDisconnected
		return "", mapAccountErr(err)
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		s.state = StateDisconnected
		return "", fmt.Errorf("failed to decode accounts: %w", err)
	}
	if len(accounts) == 0 {
		s.state = StateDisconnected
		return "", ErrNoAccounts
	}
	account := accounts[0]

	chainHex, err := s.activeChain(ctx)
	if err != nil {
		s.state = StateDisconnected
		return "", err
	}

	if !s.chain.Matches(chainHex) {
		s.log.Warn().
			Str("active", chainHex).
			Str("required", s.chain.HexID).
			Msg("Wrong network, negotiating switch")
		s.state = StateNetworkMismatch
		if err := s.switchChain(ctx); err != nil {
			s.state = StateDisconnected
			return "", err
		}
	}

	s.state = StateConnected
	s.account = account
	s.signer = &Signer{provider: s.provider, address: account}
	s.log.Info().Str("address", account).Msg("Wallet connected")
	return account, nil
}

// Disconnect drops the binding. The wallet itself keeps whatever state it
// has; this only resets the session.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
	s.account = ""
	s.signer = nil
}

func (s *Session) activeChain(ctx context.Context) (string, error) {
	raw, err := s.provider.Request(ctx, "eth_chainId", nil)
	if err != nil {
		return "", fmt.Errorf("failed to read active chain: %w", err)
	}
	var hexID string
	if err := json.Unmarshal(raw, &hexID); err != nil {
		return "", fmt.Errorf("failed to decode chain id: %w", err)
	}
	return hexID, nil
}

// switchChain asks the wallet to move to the required chain, adding the
// chain descriptor first when the wallet does not know it (code 4902).
func (s *Session) switchChain(ctx context.Context) error {
	s.state = StateSwitching

	_, err := s.provider.Request(ctx, "wallet_switchEthereumChain", []any{s.chain.switchParams()})
	if err == nil {
		s.log.Info().Str("chain", s.chain.Name).Msg("Switched network")
		return nil
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return fmt.Errorf("network switch failed: %w", err)
	}

	switch rpcErr.Code {
	case CodeUnrecognizedChain:
		s.log.Info().Str("chain", s.chain.Name).Msg("Chain unknown to wallet, adding")
		if _, err := s.provider.Request(ctx, "wallet_addEthereumChain", []any{s.chain.addParams()}); err != nil {
			return fmt.Errorf("%w: %v", ErrChainAddRejected, err)
		}
		if _, err := s.provider.Request(ctx, "wallet_switchEthereumChain", []any{s.chain.switchParams()}); err != nil {
			return fmt.Errorf("%w: %v", ErrSwitchRejected, err)
		}
		s.log.Info().Str("chain", s.chain.Name).Msg("Added and switched network")
		return nil
	case CodeUserRejected:
		return ErrSwitchRejected
	default:
		return fmt.Errorf("network switch failed: %w", rpcErr)
	}
}

func mapAccountErr(err error) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case CodeUserRejected:
			return ErrUserRejected
		case CodeRequestPending:
			return ErrRequestPending
		}
	}
	return fmt.Errorf("wallet connection failed: %w", err)
}
