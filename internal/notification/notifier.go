// Package notification delivers trading alerts (trade opened, trade
// closed, gateway failures) to external channels such as Telegram or
// HTTP webhooks.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devnone21/xtb-trade/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// TradeOpened builds an alert for a freshly opened position.
func TradeOpened(profile string, t model.Trade) Alert {
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("%s opened %s %s", profile, t.Direction, t.Symbol),
		Message: fmt.Sprintf("order %d: %.2f lots @ %.5f (tp %.5f, sl %.5f)",
			t.OrderID, t.Volume, t.OpenPrice, t.TakeProfit, t.StopLoss),
	}
}

// TradeClosed builds an alert for a settled position. Losing trades
// are reported at WARNING so channel rules can highlight them.
func TradeClosed(profile string, t model.Trade) Alert {
	level := AlertInfo
	if t.Profit < 0 {
		level = AlertWarning
	}
	return Alert{
		Level: level,
		Title: fmt.Sprintf("%s closed %s %s (%s)", profile, t.Direction, t.Symbol, t.Reason),
		Message: fmt.Sprintf("order %d: %.5f -> %.5f, profit %.2f",
			t.OrderID, t.OpenPrice, t.ClosePrice, t.Profit),
	}
}

// GatewayDown builds a critical alert for broker connectivity loss.
func GatewayDown(profile string, err error) Alert {
	return Alert{
		Level:   AlertCritical,
		Title:   fmt.Sprintf("%s gateway failure", profile),
		Message: err.Error(),
	}
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	slog.Info("alert",
		slog.String("level", string(alert.Level)),
		slog.String("title", alert.Title),
		slog.String("message", alert.Message))
	return nil
}

// Fanout delivers each alert to every backend, collecting the first
// error. A failing channel never blocks the others.
type Fanout struct {
	backends []Notifier
}

// NewFanout creates a notifier that broadcasts to all given backends.
func NewFanout(backends ...Notifier) *Fanout {
	return &Fanout{backends: backends}
}

func (f *Fanout) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, b := range f.backends {
		if err := b.Send(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
