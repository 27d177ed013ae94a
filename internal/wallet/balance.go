package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Balance queries the node for an address's balance at the latest block and
// returns it as a whole-unit decimal string, floored. Fractional FLOW is
// never displayed.
func Balance(ctx context.Context, node Provider, address string) (string, error) {
	raw, err := node.Request(ctx, "eth_getBalance", []any{address, "latest"})
	if err != nil {
		return "", fmt.Errorf("balance query failed: %w", err)
	}

	var hexWei string
	if err := json.Unmarshal(raw, &hexWei); err != nil {
		return "", fmt.Errorf("failed to decode balance: %w", err)
	}

	wei, ok := parseHexQuantity(hexWei)
	if !ok {
		return "", fmt.Errorf("malformed balance quantity %q", hexWei)
	}

	whole := decimal.NewFromBigInt(wei, -18).Floor()
	return whole.String(), nil
}
