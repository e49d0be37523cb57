package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name       string
	openErr    error
	queryErr   error
	session    *Session
	notify     *Notify
	openCalls  int
	queryCalls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) OpenSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	f.openCalls++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.session, nil
}

func (f *fakeProvider) ParseNotify(ctx context.Context, body []byte, headers http.Header) (*Notify, error) {
	return f.notify, nil
}

func (f *fakeProvider) QueryPayment(ctx context.Context, orderCode, providerRef string) (*Notify, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.notify, nil
}

func (f *fakeProvider) CloseSession(ctx context.Context, orderCode, providerRef string) error {
	return nil
}

func TestWithBreaker_PassThrough(t *testing.T) {
	inner := &fakeProvider{
		name:    "fake",
		session: &Session{ProviderRef: "ref-1", PaymentURL: "https://pay.example/s"},
	}
	p := WithBreaker(inner, zap.NewNop())

	s, err := p.OpenSession(context.Background(), &SessionRequest{OrderCode: "PAY-1", Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, "ref-1", s.ProviderRef)
	assert.Equal(t, "fake", p.Name())
}

func TestWithBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeProvider{name: "fake", openErr: ErrUnavailable}
	p := WithBreaker(inner, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := p.OpenSession(context.Background(), &SessionRequest{OrderCode: "PAY-1"})
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	calls := inner.openCalls

	// Circuit is open now, the provider is no longer called.
	_, err := p.OpenSession(context.Background(), &SessionRequest{OrderCode: "PAY-1"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, calls, inner.openCalls)
}

func TestWithBreaker_RejectionsDoNotTrip(t *testing.T) {
	inner := &fakeProvider{name: "fake", openErr: ErrRejected}
	p := WithBreaker(inner, zap.NewNop())

	for i := 0; i < 10; i++ {
		_, err := p.OpenSession(context.Background(), &SessionRequest{OrderCode: "PAY-1"})
		assert.ErrorIs(t, err, ErrRejected)
	}
	assert.Equal(t, 10, inner.openCalls)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeProvider{name: "stripe"})
	r.Register(&fakeProvider{name: "alipay"})

	p, err := r.Get("stripe")
	require.NoError(t, err)
	assert.Equal(t, "stripe", p.Name())

	_, err = r.Get("wechat")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	assert.Equal(t, []string{"alipay", "stripe"}, r.Names())
}
