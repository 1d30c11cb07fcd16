package exchange_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mbeoliero/xchange/sdk"
)

// MockAPI is a mock implementation of the exchange endpoints
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) StartExchange(ctx context.Context, req *sdk.StartExchangeRequest) (*sdk.ExchangeRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.ExchangeRequest), args.Error(1)
}

func (m *MockAPI) GetMyExchanges(ctx context.Context) (*sdk.ExchangeList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.ExchangeList), args.Error(1)
}

func (m *MockAPI) AcceptExchange(ctx context.Context, exchangeId string) (*sdk.AcceptExchangeResponse, error) {
	args := m.Called(ctx, exchangeId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sdk.AcceptExchangeResponse), args.Error(1)
}

func (m *MockAPI) RejectExchange(ctx context.Context, exchangeId string) error {
	args := m.Called(ctx, exchangeId)
	return args.Error(0)
}
