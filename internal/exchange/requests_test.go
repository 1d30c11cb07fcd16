package exchange_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/xchange/internal/exchange"
	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

func inbox(statusE1 string, token string) *sdk.ExchangeList {
	return &sdk.ExchangeList{Exchanges: []*sdk.ExchangeRequest{
		{Id: "e1", Status: statusE1, InvoiceToken: token, Seller: &sdk.User{Id: "u1"}, Buyer: &sdk.User{Id: "b1", Name: "Rafi"}},
		{Id: "e2", Status: "pending", Seller: &sdk.User{Id: "u1"}, Buyer: &sdk.User{Id: "b2"}},
		{Id: "e3", Status: "pending", Seller: &sdk.User{Id: "s9", Name: "Nadia"}, Buyer: &sdk.User{Id: "u1"}},
		{Id: "e4", Status: "accepted", Seller: &sdk.User{Id: "u1"}, Buyer: &sdk.User{Id: "b3"}},
	}}
}

func TestRequestList_Load(t *testing.T) {
	api := new(MockAPI)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("pending", ""), nil)

	l := exchange.NewRequestList(api, userIs("u1"))
	require.NoError(t, l.Load(context.Background()))
	assert.Len(t, l.Requests(), 4)
	assert.Equal(t, 2, l.PendingForMe())
	assert.Equal(t, sdk.ExchangeCounts{Pending: 3, Accepted: 1}, l.Counts())

	e1, _ := l.Get("e1")
	e3, _ := l.Get("e3")
	assert.True(t, l.CanAnswer(e1))
	assert.False(t, l.CanAnswer(e3))

	who, label := l.Counterpart(e1)
	assert.Equal(t, "Rafi", who.Name)
	assert.Equal(t, "Interested Buyer", label)
	who, label = l.Counterpart(e3)
	assert.Equal(t, "Nadia", who.Name)
	assert.Equal(t, "Item Seller", label)
}

func TestRequestList_LoadSignedOut(t *testing.T) {
	api := new(MockAPI)
	l := exchange.NewRequestList(api, userIs(""))
	assert.ErrorIs(t, l.Load(context.Background()), errcode.ErrLoginRequired)
	api.AssertNotCalled(t, "GetMyExchanges", mock.Anything)
}

func TestRequestList_AcceptShowsToken(t *testing.T) {
	api := new(MockAPI)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("pending", ""), nil).Once()
	api.On("AcceptExchange", mock.Anything, "e1").Return(&sdk.AcceptExchangeResponse{
		Message:      "Exchange accepted",
		InvoiceToken: "INV-7F3A-20261017",
	}, nil)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("accepted", "INV-7F3A-20261017"), nil).Once()

	changed := 0
	l := exchange.NewRequestList(api, userIs("u1"), exchange.WithOnChange(func() { changed++ }))
	require.NoError(t, l.Load(context.Background()))

	token, err := l.Accept(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "INV-7F3A-20261017", token)

	e1, ok := l.Get("e1")
	require.True(t, ok)
	assert.Equal(t, "accepted", e1.Status)
	assert.Equal(t, "INV-7F3A-20261017", e1.InvoiceToken)
	assert.Equal(t, 1, changed)
	api.AssertNumberOfCalls(t, "GetMyExchanges", 2)

	png, err := l.InvoiceQR("e1", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestRequestList_InvoiceQRNeedsAcceptedToken(t *testing.T) {
	api := new(MockAPI)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("pending", ""), nil)

	l := exchange.NewRequestList(api, userIs("u1"))
	require.NoError(t, l.Load(context.Background()))

	_, err := l.InvoiceQR("e1", 128)
	assert.ErrorIs(t, err, errcode.ErrInvalidTransition)
	_, err = l.InvoiceQR("e4", 128)
	assert.ErrorIs(t, err, errcode.ErrInvalidTransition, "accepted without a token")
	_, err = l.InvoiceQR("missing", 128)
	assert.ErrorIs(t, err, exchange.ErrRequestNotFound)
}

func TestRequestList_AcceptKeepsLocalStateWhenRefreshFails(t *testing.T) {
	api := new(MockAPI)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("pending", ""), nil).Once()
	api.On("AcceptExchange", mock.Anything, "e1").Return(&sdk.AcceptExchangeResponse{InvoiceToken: "INV-1"}, nil)
	api.On("GetMyExchanges", mock.Anything).Return(nil, sdk.NewError(http.StatusBadGateway, "")).Once()

	l := exchange.NewRequestList(api, userIs("u1"))
	require.NoError(t, l.Load(context.Background()))
	_, err := l.Accept(context.Background(), "e1")
	require.NoError(t, err)

	e1, _ := l.Get("e1")
	assert.Equal(t, "accepted", e1.Status)
	assert.Equal(t, "INV-1", e1.InvoiceToken)
}

func TestRequestList_Reject(t *testing.T) {
	api := new(MockAPI)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("pending", ""), nil)
	api.On("RejectExchange", mock.Anything, "e2").Return(nil)

	l := exchange.NewRequestList(api, userIs("u1"))
	require.NoError(t, l.Load(context.Background()))
	require.NoError(t, l.Reject(context.Background(), "e2"))
	api.AssertCalled(t, "RejectExchange", mock.Anything, "e2")
	api.AssertNumberOfCalls(t, "GetMyExchanges", 2)
}

func TestRequestList_AnswerGuards(t *testing.T) {
	api := new(MockAPI)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("pending", ""), nil)
	l := exchange.NewRequestList(api, userIs("u1"))
	require.NoError(t, l.Load(context.Background()))

	_, err := l.Accept(context.Background(), "missing")
	assert.ErrorIs(t, err, exchange.ErrRequestNotFound)
	_, err = l.Accept(context.Background(), "e3")
	assert.ErrorIs(t, err, exchange.ErrNotSeller)
	assert.ErrorIs(t, l.Reject(context.Background(), "e4"), errcode.ErrInvalidTransition)

	api.AssertNotCalled(t, "AcceptExchange", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "RejectExchange", mock.Anything, mock.Anything)
}

func TestRequestList_AcceptFailure(t *testing.T) {
	api := new(MockAPI)
	api.On("GetMyExchanges", mock.Anything).Return(inbox("pending", ""), nil)
	api.On("AcceptExchange", mock.Anything, "e1").Return(nil, sdk.NewError(http.StatusNotFound, "Exchange not found"))

	l := exchange.NewRequestList(api, userIs("u1"))
	require.NoError(t, l.Load(context.Background()))
	_, err := l.Accept(context.Background(), "e1")
	assert.Equal(t, "Exchange not found", errcode.UserMessage(err))

	e1, _ := l.Get("e1")
	assert.Equal(t, "pending", e1.Status)
	api.AssertNumberOfCalls(t, "GetMyExchanges", 1)
}

func userIs(id string) func() string {
	return func() string { return id }
}
