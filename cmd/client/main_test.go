package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/xchange/internal/exchange"
	"github.com/mbeoliero/xchange/sdk"
)

type MockExchangeAPI struct {
	mock.Mock
}

func (m *MockExchangeAPI) GetMyExchanges(ctx context.Context) (*sdk.ExchangeList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.ExchangeList), args.Error(1)
}

func (m *MockExchangeAPI) AcceptExchange(ctx context.Context, exchangeId string) (*sdk.AcceptExchangeResponse, error) {
	args := m.Called(ctx, exchangeId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.AcceptExchangeResponse), args.Error(1)
}

func (m *MockExchangeAPI) RejectExchange(ctx context.Context, exchangeId string) error {
	return m.Called(ctx, exchangeId).Error(0)
}

func TestExportInvoices(t *testing.T) {
	api := new(MockExchangeAPI)
	api.On("GetMyExchanges", mock.Anything).Return(&sdk.ExchangeList{Exchanges: []*sdk.ExchangeRequest{
		{Id: "e1", Status: "accepted", InvoiceToken: "INV-7F3A", Seller: &sdk.User{Id: "u1"}},
		{Id: "e2", Status: "pending", Seller: &sdk.User{Id: "u1"}},
		{Id: "e3", Status: "accepted", Seller: &sdk.User{Id: "u1"}},
	}}, nil)
	requests := exchange.NewRequestList(api, func() string { return "u1" })
	dir := t.TempDir()

	exportInvoices(context.Background(), requests, dir)

	png, err := os.ReadFile(filepath.Join(dir, "invoice-e1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only accepted requests with a token get an invoice")
}

func TestExportInvoicesSignedOut(t *testing.T) {
	assert.NotPanics(t, func() { exportInvoices(context.Background(), nil, t.TempDir()) })

	api := new(MockExchangeAPI)
	dir := t.TempDir()
	exportInvoices(context.Background(), exchange.NewRequestList(api, func() string { return "" }), dir)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
	api.AssertNotCalled(t, "GetMyExchanges", mock.Anything)
}
