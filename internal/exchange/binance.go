// Package exchange adapter for Binance USDT-margined perpetual futures.
package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amirphl/spike-trader/internal/candle"
	"github.com/amirphl/spike-trader/internal/utils"
)

const (
	binanceLiveURL    = "https://fapi.binance.com"
	binanceTestnetURL = "https://testnet.binancefuture.com"

	binanceRecvWindow = 5000 // ms
)

type BinanceFutures struct {
	apiKey    string
	apiSecret string
	baseURL   string
	hc        *http.Client
}

// NewBinanceFutures builds the futures adapter. With testnet set, all calls
// go to the Binance futures testnet. An empty API key is fine for the
// public endpoints (instruments, klines, prices, server time).
func NewBinanceFutures(apiKey, apiSecret string, testnet bool) *BinanceFutures {
	baseURL := binanceLiveURL
	if testnet {
		baseURL = binanceTestnetURL
	}
	return &BinanceFutures{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		hc:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BinanceFutures) Name() string { return "binance-futures" }

// retry wraps a function with retry logic for transient errors, using
// exponential backoff and error logging.
func retry(attempts int, delay time.Duration, fn func() error) error {
	backoff := delay
	for i := 1; i <= attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		utils.GetLogger().Printf("Exchange | Binance retry attempt %d/%d failed: %v. Backing off for %v", i, attempts, err, backoff)
		time.Sleep(backoff)
		if backoff < time.Minute {
			backoff *= 2
		}
	}
	return errors.New("all retry attempts failed")
}

// apiError is the error envelope Binance returns on non-2xx responses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e apiError) Error() string {
	return fmt.Sprintf("binance error %d: %s", e.Code, e.Msg)
}

func (b *BinanceFutures) do(ctx context.Context, method, path string, params url.Values, signed bool, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", strconv.Itoa(binanceRecvWindow))
	}

	query := params.Encode()
	if signed {
		// The signature covers the query string exactly as sent and must
		// itself be the last parameter.
		mac := hmac.New(sha256.New, []byte(b.apiSecret))
		mac.Write([]byte(query))
		query += "&signature=" + hex.EncodeToString(mac.Sum(nil))
	}

	u := b.baseURL + path
	if query != "" {
		u += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	if b.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", b.apiKey)
	}

	resp, err := b.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Msg != "" {
			return apiErr
		}
		return fmt.Errorf("binance %s %s: status %d: %s", method, path, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (b *BinanceFutures) FetchInstruments(ctx context.Context) ([]Instrument, error) {
	var info struct {
		Symbols []struct {
			Symbol       string `json:"symbol"`
			ContractType string `json:"contractType"`
			QuoteAsset   string `json:"quoteAsset"`
			Status       string `json:"status"`
			Filters      []struct {
				FilterType string `json:"filterType"`
				StepSize   string `json:"stepSize"`
			} `json:"filters"`
		} `json:"symbols"`
	}

	if err := b.do(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false, &info); err != nil {
		return nil, fmt.Errorf("fetching exchange info: %w", err)
	}

	var instruments []Instrument
	for _, s := range info.Symbols {
		if s.ContractType != "PERPETUAL" || s.QuoteAsset != "USDT" || s.Status != "TRADING" {
			continue
		}
		inst := Instrument{Symbol: s.Symbol}
		for _, f := range s.Filters {
			if f.FilterType == "LOT_SIZE" {
				inst.StepSize, _ = strconv.ParseFloat(f.StepSize, 64)
				break
			}
		}
		instruments = append(instruments, inst)
	}
	return instruments, nil
}

func (b *BinanceFutures) FetchLatestCandles(ctx context.Context, symbol, interval string, count int) ([]candle.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(count))

	var rows [][]any
	err := retry(3, 2*time.Second, func() error {
		rows = nil
		if fetchErr := b.do(ctx, http.MethodGet, "/fapi/v1/klines", params, false, &rows); fetchErr != nil {
			return fmt.Errorf("fetching klines: %w", fetchErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FetchLatestCandles %s failed: %w", symbol, err)
	}

	candles := make([]candle.Candle, 0, len(rows))
	for _, row := range rows {
		c, convErr := klineRowToCandle(row, symbol, interval)
		if convErr != nil {
			return nil, fmt.Errorf("parsing kline for %s: %w", symbol, convErr)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// klineRowToCandle parses one row of the klines response:
// [openTime, open, high, low, close, volume, ...], times as numbers,
// prices and volume as strings.
func klineRowToCandle(row []any, symbol, interval string) (candle.Candle, error) {
	if len(row) < 6 {
		return candle.Candle{}, errors.New("kline row too short")
	}

	openTimeMs, ok := row[0].(float64)
	if !ok {
		return candle.Candle{}, errors.New("kline open time is not a number")
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return candle.Candle{}, fmt.Errorf("kline field %d is not a string", i)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return candle.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		fields[i-1] = v
	}

	return candle.Candle{
		OpenTime: time.UnixMilli(int64(openTimeMs)).UTC(),
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
		Symbol:   symbol,
		Interval: interval,
	}, nil
}

func (b *BinanceFutures) FetchBalance(ctx context.Context, asset string) (float64, error) {
	var balances []struct {
		Asset            string `json:"asset"`
		Balance          string `json:"balance"`
		AvailableBalance string `json:"availableBalance"`
	}

	if err := b.do(ctx, http.MethodGet, "/fapi/v2/balance", nil, true, &balances); err != nil {
		return 0, fmt.Errorf("fetching balance: %w", err)
	}

	for _, entry := range balances {
		if entry.Asset != asset {
			continue
		}
		raw := entry.AvailableBalance
		if raw == "" {
			raw = entry.Balance
		}
		available, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s balance %q: %w", asset, raw, err)
		}
		return available, nil
	}
	return 0, fmt.Errorf("no %s balance entry", asset)
}

func (b *BinanceFutures) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := b.do(ctx, http.MethodGet, "/fapi/v1/ticker/price", params, false, &ticker); err != nil {
		return 0, fmt.Errorf("fetching ticker: %w", err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ticker price %q: %w", ticker.Price, err)
	}
	return price, nil
}

func (b *BinanceFutures) SetMarginType(ctx context.Context, symbol, marginType string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("marginType", marginType)

	err := b.do(ctx, http.MethodPost, "/fapi/v1/marginType", params, true, nil)

	// -4046: margin type already set; not a real failure.
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.Code == -4046 {
		return nil
	}
	return err
}

func (b *BinanceFutures) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))
	return b.do(ctx, http.MethodPost, "/fapi/v1/leverage", params, true, nil)
}

func (b *BinanceFutures) SubmitOrder(ctx context.Context, req OrderRequest) (Order, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", strings.ToUpper(req.Side))
	params.Set("type", strings.ToUpper(req.Type))
	params.Set("quantity", strconv.FormatFloat(req.Quantity, 'f', -1, 64))
	params.Set("newClientOrderId", uuid.NewString())
	if req.Type == "limit" {
		params.Set("price", strconv.FormatFloat(req.Price, 'f', -1, 64))
		params.Set("timeInForce", req.TimeInForce)
	}
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}

	var resp struct {
		OrderID       int64  `json:"orderId"`
		ClientOrderID string `json:"clientOrderId"`
		Status        string `json:"status"`
		AvgPrice      string `json:"avgPrice"`
		ExecutedQty   string `json:"executedQty"`
		OrigQty       string `json:"origQty"`
		Price         string `json:"price"`
		UpdateTime    int64  `json:"updateTime"`
	}
	if err := b.do(ctx, http.MethodPost, "/fapi/v1/order", params, true, &resp); err != nil {
		return Order{}, err
	}

	avgPrice, _ := strconv.ParseFloat(resp.AvgPrice, 64)
	executedQty, _ := strconv.ParseFloat(resp.ExecutedQty, 64)
	price, _ := strconv.ParseFloat(resp.Price, 64)

	return Order{
		OrderID:   resp.ClientOrderID,
		Status:    strings.ToUpper(resp.Status),
		FilledQty: executedQty,
		AvgPrice:  avgPrice,
		Timestamp: time.UnixMilli(resp.UpdateTime).UTC(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Price:     price,
		Quantity:  req.Quantity,
	}, nil
}

func (b *BinanceFutures) ServerTime(ctx context.Context) (time.Time, error) {
	var resp struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := b.do(ctx, http.MethodGet, "/fapi/v1/time", nil, false, &resp); err != nil {
		return time.Time{}, fmt.Errorf("fetching server time: %w", err)
	}
	return time.UnixMilli(resp.ServerTime).UTC(), nil
}
