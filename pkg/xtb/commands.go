package xtb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devnone21/xtb-trade/internal/model"
)

// Trade transaction command constants (gateway wire values).
const (
	CmdBuy  = 0
	CmdSell = 1

	TransOpen  = 0
	TransClose = 2
)

// ChartData is the getChartRangeRequest result: the symbol's decimal scale
// plus the raw delta-encoded bars.
type ChartData struct {
	Digits    int              `json:"digits"`
	RateInfos []model.RateInfo `json:"rateInfos"`
}

// GetChartRange fetches raw chart bars. period is the timeframe in minutes;
// start/end are Unix seconds; a negative ticks value requests that many bars
// back from start.
func (c *Client) GetChartRange(ctx context.Context, symbol string, period int, start, end int64, ticks int) (*ChartData, error) {
	res, err := c.sendCommand(ctx, "getChartRangeRequest", map[string]interface{}{
		"info": map[string]interface{}{
			"symbol": symbol,
			"period": period,
			"start":  start * 1000,
			"end":    end * 1000,
			"ticks":  ticks,
		},
	})
	if err != nil {
		return nil, err
	}
	var data ChartData
	if err := json.Unmarshal(res.ReturnData, &data); err != nil {
		return nil, fmt.Errorf("xtb: decode chart data: %w", err)
	}
	return &data, nil
}

// TradingDay is one day's trading window in seconds-of-day.
type TradingDay struct {
	Day   int   `json:"day"` // ISO weekday, 1=Monday
	FromT int64 `json:"fromT"`
	ToT   int64 `json:"toT"`
}

// TradingHours is the getTradingHours result for one symbol.
type TradingHours struct {
	Symbol  string       `json:"symbol"`
	Trading []TradingDay `json:"trading"`
	Quotes  []TradingDay `json:"quotes"`
}

// GetTradingHours fetches per-symbol trading windows. The gateway reports
// window bounds in milliseconds; they are normalized to seconds here.
func (c *Client) GetTradingHours(ctx context.Context, symbols []string) ([]TradingHours, error) {
	res, err := c.sendCommand(ctx, "getTradingHours", map[string]interface{}{
		"symbols": symbols,
	})
	if err != nil {
		return nil, err
	}
	var hours []TradingHours
	if err := json.Unmarshal(res.ReturnData, &hours); err != nil {
		return nil, fmt.Errorf("xtb: decode trading hours: %w", err)
	}
	for i := range hours {
		for j := range hours[i].Trading {
			hours[i].Trading[j].FromT /= 1000
			hours[i].Trading[j].ToT /= 1000
		}
		for j := range hours[i].Quotes {
			hours[i].Quotes[j].FromT /= 1000
			hours[i].Quotes[j].ToT /= 1000
		}
	}
	return hours, nil
}

// GetMarketStatus reports, per symbol, whether the market is open right now
// based on the symbol's trading windows for today's weekday.
func (c *Client) GetMarketStatus(ctx context.Context, symbols []string) (map[string]bool, error) {
	hours, err := c.GetTradingHours(ctx, symbols)
	if err != nil {
		return nil, err
	}
	return marketStatusAt(hours, time.Now()), nil
}

// marketStatusAt derives open/closed flags from trading windows at a given
// instant. Split out for tests.
func marketStatusAt(hours []TradingHours, now time.Time) map[string]bool {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // ISO Sunday
	}
	secOfDay := int64(now.Hour()*3600 + now.Minute()*60 + now.Second())

	status := make(map[string]bool, len(hours))
	for _, h := range hours {
		open := false
		for _, day := range h.Trading {
			if day.Day != weekday {
				continue
			}
			if day.FromT <= secOfDay && secOfDay <= day.ToT {
				open = true
			}
			break
		}
		status[h.Symbol] = open
	}
	return status
}

// SymbolInfo is the subset of getSymbol's result the bot uses.
type SymbolInfo struct {
	Symbol    string  `json:"symbol"`
	Ask       float64 `json:"ask"`
	Bid       float64 `json:"bid"`
	Precision int     `json:"precision"`
}

// GetSymbol fetches the current quote for a symbol.
func (c *Client) GetSymbol(ctx context.Context, symbol string) (*SymbolInfo, error) {
	res, err := c.sendCommand(ctx, "getSymbol", map[string]interface{}{
		"symbol": symbol,
	})
	if err != nil {
		return nil, err
	}
	var info SymbolInfo
	if err := json.Unmarshal(res.ReturnData, &info); err != nil {
		return nil, fmt.Errorf("xtb: decode symbol: %w", err)
	}
	return &info, nil
}

// TradeRequest describes one tradeTransaction command.
type TradeRequest struct {
	Symbol     string
	Cmd        int // CmdBuy or CmdSell
	Type       int // TransOpen or TransClose
	Volume     float64
	Price      float64
	TakeProfit float64
	StopLoss   float64
	Order      int64 // existing order id, for TransClose
}

// tradeResult is the tradeTransaction return payload.
type tradeResult struct {
	Order int64 `json:"order"`
}

// TradeTransaction issues a trade command and returns the gateway's order
// id. A rejection surfaces as *CommandError and must be treated as a no-op
// by the caller.
func (c *Client) TradeTransaction(ctx context.Context, req TradeRequest) (int64, error) {
	info := map[string]interface{}{
		"cmd":    req.Cmd,
		"symbol": req.Symbol,
		"type":   req.Type,
		"volume": req.Volume,
		"price":  req.Price,
		"tp":     req.TakeProfit,
		"sl":     req.StopLoss,
	}
	if req.Order != 0 {
		info["order"] = req.Order
	}
	res, err := c.sendCommand(ctx, "tradeTransaction", map[string]interface{}{
		"tradeTransInfo": info,
	})
	if err != nil {
		return 0, err
	}
	var out tradeResult
	if err := json.Unmarshal(res.ReturnData, &out); err != nil {
		return 0, fmt.Errorf("xtb: decode trade result: %w", err)
	}
	return out.Order, nil
}

// Trade request statuses reported by tradeTransactionStatus.
const (
	StatusError    = 0
	StatusPending  = 1
	StatusAccepted = 3
	StatusRejected = 4
)

// TradeStatus is the tradeTransactionStatus result for one order.
type TradeStatus struct {
	Order         int64   `json:"order"`
	RequestStatus int     `json:"requestStatus"`
	Message       string  `json:"message"`
	Ask           float64 `json:"ask"`
	Bid           float64 `json:"bid"`
}

// TradeTransactionStatus asks the gateway what became of a trade command.
func (c *Client) TradeTransactionStatus(ctx context.Context, order int64) (*TradeStatus, error) {
	res, err := c.sendCommand(ctx, "tradeTransactionStatus", map[string]interface{}{
		"order": order,
	})
	if err != nil {
		return nil, err
	}
	var st TradeStatus
	if err := json.Unmarshal(res.ReturnData, &st); err != nil {
		return nil, fmt.Errorf("xtb: decode trade status: %w", err)
	}
	return &st, nil
}

// OpenTrade opens a market order in the given direction, pricing off the
// current ask (BUY) or bid (SELL), then confirms the command was not
// rejected asynchronously. A rejection surfaces as *CommandError.
func (c *Client) OpenTrade(ctx context.Context, symbol string, dir model.Direction, volume, tpRate, slRate float64) (int64, error) {
	info, err := c.GetSymbol(ctx, symbol)
	if err != nil {
		return 0, err
	}
	price := info.Ask
	cmd := CmdBuy
	if dir == model.DirSell {
		price = info.Bid
		cmd = CmdSell
	}
	order, err := c.TradeTransaction(ctx, TradeRequest{
		Symbol:     symbol,
		Cmd:        cmd,
		Type:       TransOpen,
		Volume:     volume,
		Price:      price,
		TakeProfit: price + float64(dir)*tpRate,
		StopLoss:   price - float64(dir)*slRate,
	})
	if err != nil {
		return 0, err
	}
	st, err := c.TradeTransactionStatus(ctx, order)
	if err != nil {
		return 0, err
	}
	if st.RequestStatus == StatusRejected || st.RequestStatus == StatusError {
		return 0, &CommandError{Command: "tradeTransaction", Code: "REJECTED", Description: st.Message}
	}
	return order, nil
}

// TradeSnapshot is one open-trade record from getTrades, kept as a flat
// map so snapshots can round-trip through the cache unchanged.
type TradeSnapshot map[string]interface{}

// GetTrades fetches the account's trade records. openedOnly restricts the
// result to currently open trades.
func (c *Client) GetTrades(ctx context.Context, openedOnly bool) ([]TradeSnapshot, error) {
	res, err := c.sendCommand(ctx, "getTrades", map[string]interface{}{
		"openedOnly": openedOnly,
	})
	if err != nil {
		return nil, err
	}
	var trades []TradeSnapshot
	if err := json.Unmarshal(res.ReturnData, &trades); err != nil {
		return nil, fmt.Errorf("xtb: decode trades: %w", err)
	}
	return trades, nil
}
