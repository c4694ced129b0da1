package xtb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// fakeSocket replays scripted responses and records the frames written.
type fakeSocket struct {
	written   [][]byte
	responses [][]byte
	closed    bool
}

func (f *fakeSocket) WriteMessage(_ int, data []byte) error {
	f.written = append(f.written, data)
	return nil
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	if len(f.responses) == 0 {
		return 0, nil, io.EOF
	}
	res := f.responses[0]
	f.responses = f.responses[1:]
	return 1, res, nil
}

func (f *fakeSocket) Close() error {
	f.closed = true
	return nil
}

func newTestClient(sock *fakeSocket) *Client {
	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.conn = sock
	return c
}

func TestSendCommand_Framing(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{[]byte(`{"status":true,"returnData":{}}`)}}
	c := newTestClient(sock)

	if _, err := c.sendCommand(context.Background(), "getSymbol", map[string]interface{}{"symbol": "EURUSD"}); err != nil {
		t.Fatal(err)
	}

	var frame map[string]interface{}
	if err := json.Unmarshal(sock.written[0], &frame); err != nil {
		t.Fatal(err)
	}
	if frame["command"] != "getSymbol" {
		t.Errorf("expected command getSymbol, got %v", frame["command"])
	}
	args := frame["arguments"].(map[string]interface{})
	if args["symbol"] != "EURUSD" {
		t.Errorf("expected symbol argument, got %v", args)
	}
}

func TestSendCommand_OmitsEmptyArguments(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{[]byte(`{"status":true}`)}}
	c := newTestClient(sock)

	if _, err := c.sendCommand(context.Background(), "logout", nil); err != nil {
		t.Fatal(err)
	}
	var frame map[string]interface{}
	json.Unmarshal(sock.written[0], &frame)
	if _, ok := frame["arguments"]; ok {
		t.Error("expected arguments to be omitted for nil args")
	}
}

func TestSendCommand_Rejection(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{
		[]byte(`{"status":false,"errorCode":"BE4","errorDescr":"market is closed"}`),
	}}
	c := newTestClient(sock)

	_, err := c.sendCommand(context.Background(), "tradeTransaction", nil)
	if err == nil {
		t.Fatal("expected rejection error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %T", err)
	}
	if ce.Code != "BE4" || ce.Description != "market is closed" {
		t.Errorf("unexpected error fields: %+v", ce)
	}
	if !IsCommandError(err) {
		t.Error("IsCommandError should report true")
	}
}

func TestSendCommand_ObserverSeesOutcome(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{
		[]byte(`{"status":true}`),
		[]byte(`{"status":false,"errorCode":"BE4","errorDescr":"bad"}`),
	}}
	c := newTestClient(sock)

	type seen struct {
		command string
		failed  bool
	}
	var calls []seen
	c.OnCommand = func(command string, d time.Duration, err error) {
		calls = append(calls, seen{command, err != nil})
	}

	c.sendCommand(context.Background(), "ping", nil)
	c.sendCommand(context.Background(), "getSymbol", nil)

	if len(calls) != 2 {
		t.Fatalf("observer fired %d times, want 2", len(calls))
	}
	if calls[0].failed || calls[0].command != "ping" {
		t.Errorf("first call = %+v, want ping ok", calls[0])
	}
	if !calls[1].failed {
		t.Error("second call should report the rejection")
	}
}

func TestSendCommand_NotConnected(t *testing.T) {
	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := c.sendCommand(context.Background(), "ping", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestSendCommand_RateFloor(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{
		[]byte(`{"status":true}`),
		[]byte(`{"status":true}`),
	}}
	c := newTestClient(sock)

	ctx := context.Background()
	c.sendCommand(ctx, "ping", nil)
	start := time.Now()
	c.sendCommand(ctx, "ping", nil)

	if elapsed := time.Since(start); elapsed < MinRequestInterval {
		t.Errorf("second command ran after %v, expected at least %v", elapsed, MinRequestInterval)
	}
}

func TestGetChartRange_Decode(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{
		[]byte(`{"status":true,"returnData":{"digits":5,"rateInfos":[
			{"ctm":1700000000000,"open":112345,"close":15,"high":30,"low":-20,"vol":42}
		]}}`),
	}}
	c := newTestClient(sock)

	data, err := c.GetChartRange(context.Background(), "EURUSD", 30, 1700000000, 1700000000, -10000)
	if err != nil {
		t.Fatal(err)
	}
	if data.Digits != 5 {
		t.Errorf("expected digits 5, got %d", data.Digits)
	}
	if len(data.RateInfos) != 1 || data.RateInfos[0].Ctm != 1700000000000 {
		t.Errorf("unexpected rate infos: %+v", data.RateInfos)
	}

	// start/end go out in milliseconds
	var frame struct {
		Arguments struct {
			Info map[string]interface{} `json:"info"`
		} `json:"arguments"`
	}
	json.Unmarshal(sock.written[0], &frame)
	if frame.Arguments.Info["start"].(float64) != 1700000000000 {
		t.Errorf("expected start in ms, got %v", frame.Arguments.Info["start"])
	}
}

func TestMarketStatusAt(t *testing.T) {
	// 2023-11-15 is a Wednesday (ISO weekday 3)
	wedNoon := time.Date(2023, 11, 15, 12, 0, 0, 0, time.UTC)
	hours := []TradingHours{
		{
			Symbol: "GOLD",
			Trading: []TradingDay{
				{Day: 3, FromT: 8 * 3600, ToT: 20 * 3600},
			},
		},
		{
			Symbol: "EURUSD",
			Trading: []TradingDay{
				{Day: 3, FromT: 13 * 3600, ToT: 20 * 3600},
			},
		},
		{
			Symbol:  "BITCOIN",
			Trading: []TradingDay{{Day: 6, FromT: 0, ToT: 86399}},
		},
	}

	status := marketStatusAt(hours, wedNoon)
	if !status["GOLD"] {
		t.Error("GOLD should be open at Wednesday noon")
	}
	if status["EURUSD"] {
		t.Error("EURUSD should be closed before 13:00")
	}
	if status["BITCOIN"] {
		t.Error("BITCOIN has no Wednesday window, should be closed")
	}
}

func TestOpenTrade_PricesOffQuoteSide(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{
		[]byte(`{"status":true,"returnData":{"symbol":"GOLD","ask":2001.5,"bid":2001.0}}`),
		[]byte(`{"status":true,"returnData":{"order":777}}`),
		[]byte(`{"status":true,"returnData":{"order":777,"requestStatus":3}}`),
	}}
	c := newTestClient(sock)

	order, err := c.OpenTrade(context.Background(), "GOLD", -1, 0.5, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if order != 777 {
		t.Errorf("expected order 777, got %d", order)
	}

	var frame struct {
		Arguments struct {
			Info map[string]interface{} `json:"tradeTransInfo"`
		} `json:"arguments"`
	}
	json.Unmarshal(sock.written[1], &frame)
	info := frame.Arguments.Info
	if info["cmd"].(float64) != CmdSell {
		t.Errorf("expected SELL cmd, got %v", info["cmd"])
	}
	if info["price"].(float64) != 2001.0 {
		t.Errorf("SELL should price off bid, got %v", info["price"])
	}
	// SELL: tp below, sl above
	if info["tp"].(float64) != 1996.0 || info["sl"].(float64) != 2004.0 {
		t.Errorf("unexpected levels: tp=%v sl=%v", info["tp"], info["sl"])
	}
}

func TestOpenTrade_RejectedAtConfirmation(t *testing.T) {
	sock := &fakeSocket{responses: [][]byte{
		[]byte(`{"status":true,"returnData":{"symbol":"GOLD","ask":2001.5,"bid":2001.0}}`),
		[]byte(`{"status":true,"returnData":{"order":778}}`),
		[]byte(`{"status":true,"returnData":{"order":778,"requestStatus":4,"message":"Invalid volume"}}`),
	}}
	c := newTestClient(sock)

	order, err := c.OpenTrade(context.Background(), "GOLD", 1, 0.5, 5, 3)
	if order != 0 {
		t.Errorf("rejected order should return 0, got %d", order)
	}
	if !IsCommandError(err) {
		t.Fatalf("expected command error, got %v", err)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Description != "Invalid volume" {
		t.Errorf("expected rejection message carried over, got %v", err)
	}
}
