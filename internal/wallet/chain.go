package wallet

import (
	"math/big"
	"strings"

	"github.com/pragyanetra/console/internal/config"
)

// Chain is the descriptor of the single network the console accepts.
type Chain struct {
	HexID          string
	Name           string
	CurrencyName   string
	CurrencySymbol string
	Decimals       int
	RPCURL         string
	ExplorerURL    string
}

// ChainFromConfig builds the descriptor from configuration.
func ChainFromConfig(cfg *config.ChainConfig) Chain {
	return Chain{
		HexID:          cfg.HexID,
		Name:           cfg.Name,
		CurrencyName:   cfg.CurrencyName,
		CurrencySymbol: cfg.CurrencySymbol,
		Decimals:       cfg.Decimals,
		RPCURL:         cfg.RPCURL,
		ExplorerURL:    cfg.ExplorerURL,
	}
}

// switchParams is the wallet_switchEthereumChain parameter object.
type switchParams struct {
	ChainID string `json:"chainId"`
}

// addChainParams is the full wallet_addEthereumChain descriptor.
type addChainParams struct {
	ChainID        string         `json:"chainId"`
	ChainName      string         `json:"chainName"`
	NativeCurrency nativeCurrency `json:"nativeCurrency"`
	RPCURLs        []string       `json:"rpcUrls"`
	ExplorerURLs   []string       `json:"blockExplorerUrls"`
}

type nativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

func (c Chain) switchParams() switchParams {
	return switchParams{ChainID: c.HexID}
}

func (c Chain) addParams() addChainParams {
	return addChainParams{
		ChainID:   c.HexID,
		ChainName: c.Name,
		NativeCurrency: nativeCurrency{
			Name:     c.CurrencyName,
			Symbol:   c.CurrencySymbol,
			Decimals: c.Decimals,
		},
		RPCURLs:      []string{c.RPCURL},
		ExplorerURLs: []string{c.ExplorerURL},
	}
}

// Matches reports whether a wallet-reported hex chain id is this chain.
// Wallets disagree on zero padding and casing, so compare numerically.
func (c Chain) Matches(hexID string) bool {
	want, ok1 := parseHexQuantity(c.HexID)
	got, ok2 := parseHexQuantity(hexID)
	if !ok1 || !ok2 {
		return strings.EqualFold(c.HexID, hexID)
	}
	return want.Cmp(got) == 0
}

func parseHexQuantity(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, 16)
	return n, ok
}
