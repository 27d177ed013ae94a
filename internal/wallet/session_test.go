package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

var testChain = Chain{
	HexID:          "0x221",
	Name:           "Flow EVM Testnet",
	CurrencyName:   "FLOW",
	CurrencySymbol: "FLOW",
	Decimals:       18,
	RPCURL:         "https://testnet.evm.nodes.onflow.org",
	ExplorerURL:    "https://evm-testnet.flowscan.io/",
}

// scriptedProvider answers each method from a handler and records the order
// of every request it receives.
type scriptedProvider struct {
	handle func(method string, params any) (json.RawMessage, error)
	calls  []string
	params []any
}

func (p *scriptedProvider) Request(_ context.Context, method string, params any) (json.RawMessage, error) {
	p.calls = append(p.calls, method)
	p.params = append(p.params, params)
	return p.handle(method, params)
}

func happyHandler(account, chainHex string) func(string, any) (json.RawMessage, error) {
	return func(method string, _ any) (json.RawMessage, error) {
		switch method {
		case "eth_requestAccounts":
			return json.RawMessage(`["` + account + `"]`), nil
		case "eth_chainId":
			return json.RawMessage(`"` + chainHex + `"`), nil
		default:
			return json.RawMessage(`null`), nil
		}
	}
}

func TestConnect_CorrectChain(t *testing.T) {
	provider := &scriptedProvider{handle: happyHandler("0xabc123", "0x221")}
	session := NewSession(provider, testChain)

	account, err := session.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if account != "0xabc123" {
		t.Errorf("Connect() account = %s, want 0xabc123", account)
	}
	if session.State() != StateConnected {
		t.Errorf("State() = %v, want connected", session.State())
	}
	if session.Signer() == nil {
		t.Error("Signer() = nil after successful connect")
	}

	for _, call := range provider.calls {
		if call == "wallet_switchEthereumChain" {
			t.Error("Connect() negotiated a switch while already on the required chain")
		}
	}
}

func TestConnect_PaddedChainID(t *testing.T) {
	// Wallets disagree on zero padding; 0x0221 is still chain 545.
	provider := &scriptedProvider{handle: happyHandler("0xabc", "0x0221")}
	session := NewSession(provider, testChain)

	if _, err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if session.State() != StateConnected {
		t.Errorf("State() = %v, want connected", session.State())
	}
}

func TestConnect_Idempotent(t *testing.T) {
	provider := &scriptedProvider{handle: happyHandler("0xabc123", "0x221")}
	session := NewSession(provider, testChain)

	first, err := session.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	requests := len(provider.calls)

	second, err := session.Connect(context.Background())
	if err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if second != first {
		t.Errorf("second Connect() account = %s, want %s", second, first)
	}
	if len(provider.calls) != requests {
		t.Errorf("second Connect() issued %d extra wallet requests", len(provider.calls)-requests)
	}
}

func TestConnect_NoProvider(t *testing.T) {
	session := NewSession(nil, testChain)

	_, err := session.Connect(context.Background())
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Connect() error = %v, want ErrNoProvider", err)
	}
	if session.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", session.State())
	}
}

func TestConnect_UserRejected(t *testing.T) {
	provider := &scriptedProvider{handle: func(method string, _ any) (json.RawMessage, error) {
		if method == "eth_requestAccounts" {
			return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
		}
		return json.RawMessage(`null`), nil
	}}
	session := NewSession(provider, testChain)

	_, err := session.Connect(context.Background())
	if !errors.Is(err, ErrUserRejected) {
		t.Errorf("Connect() error = %v, want ErrUserRejected", err)
	}
	if session.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", session.State())
	}
	if session.Signer() != nil {
		t.Error("Signer() set after failed connect")
	}
}

func TestConnect_RequestPending(t *testing.T) {
	provider := &scriptedProvider{handle: func(method string, _ any) (json.RawMessage, error) {
		if method == "eth_requestAccounts" {
			return nil, &RPCError{Code: CodeRequestPending, Message: "Request already pending."}
		}
		return json.RawMessage(`null`), nil
	}}
	session := NewSession(provider, testChain)

	_, err := session.Connect(context.Background())
	if !errors.Is(err, ErrRequestPending) {
		t.Errorf("Connect() error = %v, want ErrRequestPending", err)
	}
}

func TestConnect_NoAccounts(t *testing.T) {
	provider := &scriptedProvider{handle: func(method string, _ any) (json.RawMessage, error) {
		if method == "eth_requestAccounts" {
			return json.RawMessage(`[]`), nil
		}
		return json.RawMessage(`null`), nil
	}}
	session := NewSession(provider, testChain)

	_, err := session.Connect(context.Background())
	if !errors.Is(err, ErrNoAccounts) {
		t.Errorf("Connect() error = %v, want ErrNoAccounts", err)
	}
}

func TestConnect_SwitchChain(t *testing.T) {
	provider := &scriptedProvider{handle: func(method string, _ any) (json.RawMessage, error) {
		switch method {
		case "eth_requestAccounts":
			return json.RawMessage(`["0xabc"]`), nil
		case "eth_chainId":
			return json.RawMessage(`"0x1"`), nil
		case "wallet_switchEthereumChain":
			return json.RawMessage(`null`), nil
		}
		return json.RawMessage(`null`), nil
	}}
	session := NewSession(provider, testChain)

	if _, err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if session.State() != StateConnected {
		t.Errorf("State() = %v, want connected", session.State())
	}

	switched := false
	for _, call := range provider.calls {
		if call == "wallet_switchEthereumChain" {
			switched = true
		}
	}
	if !switched {
		t.Error("Connect() never asked the wallet to switch networks")
	}
}

func TestConnect_AddsUnknownChain(t *testing.T) {
	switchAttempts := 0
	provider := &scriptedProvider{}
	provider.handle = func(method string, _ any) (json.RawMessage, error) {
		switch method {
		case "eth_requestAccounts":
			return json.RawMessage(`["0xabc"]`), nil
		case "eth_chainId":
			return json.RawMessage(`"0x1"`), nil
		case "wallet_switchEthereumChain":
			switchAttempts++
			if switchAttempts == 1 {
				return nil, &RPCError{Code: CodeUnrecognizedChain, Message: "Unrecognized chain ID."}
			}
			return json.RawMessage(`null`), nil
		case "wallet_addEthereumChain":
			return json.RawMessage(`null`), nil
		}
		return json.RawMessage(`null`), nil
	}
	session := NewSession(provider, testChain)

	if _, err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if session.State() != StateConnected {
		t.Errorf("State() = %v, want connected", session.State())
	}
	if switchAttempts != 2 {
		t.Errorf("wallet_switchEthereumChain attempted %d times, want 2", switchAttempts)
	}

	// The add-chain request must carry the full descriptor.
	var descriptor *addChainParams
	for i, call := range provider.calls {
		if call == "wallet_addEthereumChain" {
			list, ok := provider.params[i].([]any)
			if !ok || len(list) != 1 {
				t.Fatal("wallet_addEthereumChain params are not a single-element list")
			}
			p, ok := list[0].(addChainParams)
			if !ok {
				t.Fatalf("wallet_addEthereumChain param type = %T", list[0])
			}
			descriptor = &p
		}
	}
	if descriptor == nil {
		t.Fatal("wallet_addEthereumChain was never called")
	}
	if descriptor.ChainID != "0x221" {
		t.Errorf("descriptor chainId = %s, want 0x221", descriptor.ChainID)
	}
	if descriptor.ChainName != "Flow EVM Testnet" {
		t.Errorf("descriptor chainName = %s, want Flow EVM Testnet", descriptor.ChainName)
	}
	if descriptor.NativeCurrency.Symbol != "FLOW" || descriptor.NativeCurrency.Decimals != 18 {
		t.Errorf("descriptor currency = %+v, want FLOW/18", descriptor.NativeCurrency)
	}
	if len(descriptor.RPCURLs) != 1 || descriptor.RPCURLs[0] == "" {
		t.Errorf("descriptor rpcUrls = %v, want one endpoint", descriptor.RPCURLs)
	}
	if len(descriptor.ExplorerURLs) != 1 || descriptor.ExplorerURLs[0] == "" {
		t.Errorf("descriptor blockExplorerUrls = %v, want one endpoint", descriptor.ExplorerURLs)
	}
}

func TestConnect_SwitchRejected(t *testing.T) {
	provider := &scriptedProvider{handle: func(method string, _ any) (json.RawMessage, error) {
		switch method {
		case "eth_requestAccounts":
			return json.RawMessage(`["0xabc"]`), nil
		case "eth_chainId":
			return json.RawMessage(`"0x1"`), nil
		case "wallet_switchEthereumChain":
			return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
		}
		return json.RawMessage(`null`), nil
	}}
	session := NewSession(provider, testChain)

	_, err := session.Connect(context.Background())
	if !errors.Is(err, ErrSwitchRejected) {
		t.Errorf("Connect() error = %v, want ErrSwitchRejected", err)
	}
	if session.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", session.State())
	}
}

func TestConnect_AddChainRejected(t *testing.T) {
	provider := &scriptedProvider{handle: func(method string, _ any) (json.RawMessage, error) {
		switch method {
		case "eth_requestAccounts":
			return json.RawMessage(`["0xabc"]`), nil
		case "eth_chainId":
			return json.RawMessage(`"0x1"`), nil
		case "wallet_switchEthereumChain":
			return nil, &RPCError{Code: CodeUnrecognizedChain, Message: "Unrecognized chain ID."}
		case "wallet_addEthereumChain":
			return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
		}
		return json.RawMessage(`null`), nil
	}}
	session := NewSession(provider, testChain)

	_, err := session.Connect(context.Background())
	if !errors.Is(err, ErrChainAddRejected) {
		t.Errorf("Connect() error = %v, want ErrChainAddRejected", err)
	}
}

func TestDisconnect(t *testing.T) {
	provider := &scriptedProvider{handle: happyHandler("0xabc", "0x221")}
	session := NewSession(provider, testChain)

	if _, err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	session.Disconnect()

	if session.State() != StateDisconnected {
		t.Errorf("State() = %v, want disconnected", session.State())
	}
	if session.Account() != "" {
		t.Errorf("Account() = %s, want empty", session.Account())
	}
	if session.Signer() != nil {
		t.Error("Signer() still set after Disconnect()")
	}
}
