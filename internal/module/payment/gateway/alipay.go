package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/alipay"
)

// AlipayConfig holds Alipay configuration. Keys are PEM encoded.
// ReturnBaseURL is the return-endpoint prefix; the order code is
// appended per session.
type AlipayConfig struct {
	AppID           string
	PrivateKey      string
	AlipayPublicKey string
	IsProd          bool
	NotifyURL       string
	ReturnBaseURL   string
}

// AlipayProvider implements Provider for Alipay page pay.
type AlipayProvider struct {
	client *alipay.Client
	config *AlipayConfig
}

// NewAlipayProvider creates a new Alipay provider.
func NewAlipayProvider(config *AlipayConfig) (*AlipayProvider, error) {
	client, err := alipay.NewClient(config.AppID, config.PrivateKey, config.IsProd)
	if err != nil {
		return nil, fmt.Errorf("create alipay client: %w", err)
	}
	client.AutoVerifySign([]byte(config.AlipayPublicKey))

	return &AlipayProvider{client: client, config: config}, nil
}

// Name returns the provider name.
func (p *AlipayProvider) Name() string {
	return "alipay"
}

// OpenSession creates a PC page-pay order. The order code is the
// out_trade_no, Alipay echoes it on every notification.
func (p *AlipayProvider) OpenSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", req.OrderCode)
	bm.Set("total_amount", centsToYuan(req.Amount))
	bm.Set("subject", req.Subject)
	bm.Set("product_code", "FAST_INSTANT_TRADE_PAY")
	bm.Set("notify_url", p.config.NotifyURL)
	bm.Set("return_url", fmt.Sprintf("%s/%s", p.config.ReturnBaseURL, req.OrderCode))
	if req.Description != "" {
		bm.Set("body", req.Description)
	}
	if !req.ExpiresAt.IsZero() {
		bm.Set("time_expire", req.ExpiresAt.Format("2006-01-02 15:04:05"))
	}

	payURL, err := p.client.TradePagePay(ctx, bm)
	if err != nil {
		return nil, fmt.Errorf("create page pay: %w: %v", ErrUnavailable, err)
	}

	return &Session{PaymentURL: payURL}, nil
}

// ParseNotify parses and signature-verifies the async notification.
func (p *AlipayProvider) ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notify, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	bm, err := alipay.ParseNotifyToBodyMap(req)
	if err != nil {
		return nil, fmt.Errorf("parse notify: %w", err)
	}

	ok, err := alipay.VerifySign(p.config.AlipayPublicKey, bm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	notify := &Notify{
		OrderCode:   bm.Get("out_trade_no"),
		ProviderRef: bm.Get("trade_no"),
		Amount:      yuanToCents(bm.Get("total_amount")),
		Status:      mapAlipayTradeStatus(bm.Get("trade_status")),
		Ack:         "success",
	}
	if gmtPayment := bm.Get("gmt_payment"); gmtPayment != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", gmtPayment); err == nil {
			notify.PaidAt = t
		}
	}
	return notify, nil
}

// QueryPayment queries the trade state from Alipay.
func (p *AlipayProvider) QueryPayment(ctx context.Context, orderCode, providerRef string) (*Notify, error) {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", orderCode)

	resp, err := p.client.TradeQuery(ctx, bm)
	if err != nil {
		return nil, fmt.Errorf("query trade: %w: %v", ErrUnavailable, err)
	}
	if resp.Response.Code != "10000" {
		if resp.Response.SubCode == "ACQ.TRADE_NOT_EXIST" {
			// Buyer never reached the cashier, the trade is still open.
			return &Notify{OrderCode: orderCode, Status: StatusPending}, nil
		}
		return nil, fmt.Errorf("query trade: %w: %s %s", ErrRejected, resp.Response.Code, resp.Response.Msg)
	}

	notify := &Notify{
		OrderCode:   resp.Response.OutTradeNo,
		ProviderRef: resp.Response.TradeNo,
		Amount:      yuanToCents(resp.Response.TotalAmount),
		Status:      mapAlipayTradeStatus(resp.Response.TradeStatus),
	}
	if resp.Response.SendPayDate != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", resp.Response.SendPayDate); err == nil {
			notify.PaidAt = t
		}
	}
	return notify, nil
}

// CloseSession closes an unpaid trade.
func (p *AlipayProvider) CloseSession(ctx context.Context, orderCode, providerRef string) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", orderCode)

	resp, err := p.client.TradeClose(ctx, bm)
	if err != nil {
		return fmt.Errorf("close trade: %w: %v", ErrUnavailable, err)
	}
	if resp.Response.Code != "10000" && resp.Response.SubCode != "ACQ.TRADE_NOT_EXIST" {
		return fmt.Errorf("close trade: %w: %s %s", ErrRejected, resp.Response.Code, resp.Response.Msg)
	}
	return nil
}

func mapAlipayTradeStatus(status string) Status {
	switch status {
	case "TRADE_SUCCESS", "TRADE_FINISHED":
		return StatusSucceeded
	case "TRADE_CLOSED":
		return StatusClosed
	default:
		return StatusPending
	}
}

func centsToYuan(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

func yuanToCents(amount string) int64 {
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return int64(f*100 + 0.5)
}
