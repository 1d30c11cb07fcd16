package exchange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/xchange/internal/exchange"
	"github.com/mbeoliero/xchange/pkg/errcode"
)

var fixedNow = time.Date(2026, 10, 16, 22, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestBooths(t *testing.T) {
	all := exchange.Booths()
	require.Len(t, all, 4)
	assert.Equal(t, "Mirpur-2 Xchange Booth", all[0].Name)

	b, err := exchange.BoothById(4)
	require.NoError(t, err)
	assert.Equal(t, "Gulshan Xchange Booth", b.Name)
	assert.Equal(t, "10:00 AM - 9:00 PM", b.Hours)

	// callers get copies
	b.Coordinates[0] = 0
	again, _ := exchange.BoothById(4)
	assert.Equal(t, 90.4160, again.Coordinates[0])

	_, err = exchange.BoothById(9)
	assert.ErrorIs(t, err, errcode.ErrUnknownBooth)
}

func TestNewWindow(t *testing.T) {
	w, err := exchange.NewWindow("9:00", "20:00")
	require.NoError(t, err)
	assert.Equal(t, exchange.DefaultWindow, w)

	_, err = exchange.NewWindow("20:00", "09:00")
	assert.Error(t, err)
	_, err = exchange.NewWindow("noon", "20:00")
	assert.Error(t, err)
}

func TestSelection_Date(t *testing.T) {
	s := exchange.NewSelection(exchange.DefaultWindow, clock)
	assert.Equal(t, "2026-10-17", s.MinDate())

	assert.ErrorIs(t, s.SetDate("2026-10-16"), errcode.ErrDateTooEarly)
	assert.ErrorIs(t, s.SetDate("2025-12-31"), errcode.ErrDateTooEarly)
	assert.ErrorIs(t, s.SetDate("17/10/2026"), errcode.ErrInvalidParam)
	assert.Equal(t, "", s.Date)

	require.NoError(t, s.SetDate("2026-10-17"))
	require.NoError(t, s.SetDate("2027-01-05"))
	assert.Equal(t, "2027-01-05", s.Date)
}

func TestSelection_Time(t *testing.T) {
	s := exchange.NewSelection(exchange.DefaultWindow, clock)

	for _, bad := range []string{"08:59", "20:01", "23:00"} {
		assert.ErrorIs(t, s.SetTime(bad), errcode.ErrTimeOutOfWindow, bad)
	}
	assert.ErrorIs(t, s.SetTime("2pm"), errcode.ErrInvalidParam)

	for _, ok := range []string{"09:00", "14:30", "20:00"} {
		assert.NoError(t, s.SetTime(ok), ok)
	}
	require.NoError(t, s.SetTime("9:05"))
	assert.Equal(t, "09:05", s.Time)
}

func TestSelection_CanSubmit(t *testing.T) {
	s := exchange.NewSelection(exchange.DefaultWindow, clock)
	assert.False(t, s.CanSubmit())
	assert.ErrorIs(t, s.Validate(), errcode.ErrBoothRequired)

	require.NoError(t, s.SelectBooth(2))
	assert.False(t, s.CanSubmit())
	require.NoError(t, s.SetDate("2026-10-18"))
	assert.False(t, s.CanSubmit())
	require.NoError(t, s.SetTime("14:30"))
	assert.True(t, s.CanSubmit())
	assert.NoError(t, s.Validate())
	assert.Equal(t, "2026-10-18T14:30", s.MeetingTime())

	s.Reset()
	assert.False(t, s.CanSubmit())
}

func TestSelection_StaleDate(t *testing.T) {
	now := fixedNow
	s := exchange.NewSelection(exchange.DefaultWindow, func() time.Time { return now })
	require.NoError(t, s.SelectBooth(1))
	require.NoError(t, s.SetDate("2026-10-17"))
	require.NoError(t, s.SetTime("10:00"))

	now = now.Add(24 * time.Hour)
	assert.ErrorIs(t, s.Validate(), errcode.ErrDateTooEarly)
}

func TestRenderInvoiceQR(t *testing.T) {
	png, err := exchange.RenderInvoiceQR("INV-7F3A", 0)
	require.NoError(t, err)
	require.True(t, len(png) > 8)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = exchange.RenderInvoiceQR("", 128)
	assert.Error(t, err)
}
