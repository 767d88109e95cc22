package price

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"net/http"

	"github.com/vietddude/oracle-updater/internal/infra/rpc"
)

// DefaultCoinGeckoURL is the public API base.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko reads spot prices from the simple/price endpoint.
type CoinGecko struct {
	client rpc.RPCClient
}

func NewCoinGecko(client rpc.RPCClient) *CoinGecko {
	return &CoinGecko{client: client}
}

// GetBTCUSDExchangeRate returns the current BTC price in USD.
func (c *CoinGecko) GetBTCUSDExchangeRate(ctx context.Context) (float64, error) {
	op := rpc.NewRESTOperation("simple/price", http.MethodGet, map[string]string{
		"ids":           "bitcoin",
		"vs_currencies": "usd",
	})
	result, err := c.client.Execute(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("failed to get btc price: %w", err)
	}

	data, ok := result.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("invalid price response")
	}
	coin, ok := data["bitcoin"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("price response missing bitcoin")
	}
	usd, ok := coin["usd"].(float64)
	if !ok || usd <= 0 || math.IsInf(usd, 0) {
		return 0, fmt.Errorf("invalid bitcoin usd price %v", coin["usd"])
	}
	return usd, nil
}

// ToFixedPoint returns round(price * 10^decimals), rounding half away from zero.
func ToFixedPoint(price float64, decimals uint8) (*big.Int, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fmt.Errorf("invalid price %v", price)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f := new(big.Float).SetPrec(256).SetFloat64(price)
	f.Mul(f, new(big.Float).SetPrec(256).SetInt(scale))

	half := big.NewFloat(0.5)
	if f.Sign() < 0 {
		f.Sub(f, half)
	} else {
		f.Add(f, half)
	}
	// Int truncates toward zero
	out, _ := f.Int(nil)
	return out, nil
}
