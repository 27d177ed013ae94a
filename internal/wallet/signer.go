package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

// TxRequest describes one transaction for the wallet to sign and submit.
type TxRequest struct {
	To    string
	Value *big.Int
	Data  []byte
}

// TxReceipt is the mined-transaction receipt.
type TxReceipt struct {
	TxHash      string
	BlockNumber *big.Int
	Status      uint64
}

// Succeeded reports whether the transaction executed without reverting.
func (r *TxReceipt) Succeeded() bool {
	return r.Status == 1
}

// Signer is the opaque signing capability bound by a connected session. It
// exists iff the session is Connected; holders can submit transactions from
// the bound address and nothing else.
type Signer struct {
	provider Provider
	address  string
}

// Address returns the bound signing address.
func (s *Signer) Address() string {
	return s.address
}

// SendTransaction submits one transaction through the wallet provider and
// returns its hash. The wallet prompts the user; a refusal surfaces as an
// RPCError with code 4001.
func (s *Signer) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	param := map[string]string{
		"from": s.address,
		"to":   tx.To,
	}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		param["value"] = hexQuantity(tx.Value)
	}
	if len(tx.Data) > 0 {
		param["data"] = "0x" + hex.EncodeToString(tx.Data)
	}

	raw, err := s.provider.Request(ctx, "eth_sendTransaction", []any{param})
	if err != nil {
		return "", err
	}

	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", fmt.Errorf("failed to decode transaction hash: %w", err)
	}
	return hash, nil
}

// TransactionReceipt fetches the receipt for a submitted transaction.
// It returns (nil, nil) while the transaction is not yet mined.
func (s *Signer) TransactionReceipt(ctx context.Context, txHash string) (*TxReceipt, error) {
	raw, err := s.provider.Request(ctx, "eth_getTransactionReceipt", []any{txHash})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var wire struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     string `json:"blockNumber"`
		Status          string `json:"status"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}

	receipt := &TxReceipt{TxHash: wire.TransactionHash}
	if n, ok := parseHexQuantity(wire.BlockNumber); ok {
		receipt.BlockNumber = n
	}
	if n, ok := parseHexQuantity(wire.Status); ok {
		receipt.Status = n.Uint64()
	}
	return receipt, nil
}

func hexQuantity(n *big.Int) string {
	return "0x" + n.Text(16)
}
