package exchange

import (
	"fmt"
	"time"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/errcode"
	"github.com/mbeoliero/xchange/sdk"
)

// Window is the daily span in which meetings can be booked, as "15:04" clock strings
type Window struct {
	Open  string
	Close string
}

// DefaultWindow matches the booth opening hours
var DefaultWindow = Window{Open: "09:00", Close: "20:00"}

// NewWindow validates and normalizes the opening and closing times
func NewWindow(openTime, closeTime string) (Window, error) {
	o, err := time.Parse(constant.ClockLayout, openTime)
	if err != nil {
		return Window{}, fmt.Errorf("invalid open time %q: %w", openTime, err)
	}
	c, err := time.Parse(constant.ClockLayout, closeTime)
	if err != nil {
		return Window{}, fmt.Errorf("invalid close time %q: %w", closeTime, err)
	}
	if !c.After(o) {
		return Window{}, fmt.Errorf("close time %s must be after open time %s", closeTime, openTime)
	}
	return Window{Open: o.Format(constant.ClockLayout), Close: c.Format(constant.ClockLayout)}, nil
}

// Contains reports whether clock lies in the window, both ends included
func (w Window) Contains(clock string) bool {
	return clock >= w.Open && clock <= w.Close
}

// MinDate is the earliest bookable date: the day after now
func MinDate(now time.Time) string {
	return now.AddDate(0, 0, 1).Format(constant.DateLayout)
}

// Selection is the booth, date and time a buyer is picking
type Selection struct {
	window Window
	now    func() time.Time

	Booth *sdk.Booth
	Date  string
	Time  string
}

func NewSelection(window Window, now func() time.Time) *Selection {
	if now == nil {
		now = time.Now
	}
	return &Selection{window: window, now: now}
}

// Window returns the bookable time window
func (s *Selection) Window() Window {
	return s.window
}

// MinDate is the earliest date the picker offers
func (s *Selection) MinDate() string {
	return MinDate(s.now())
}

// SelectBooth picks a booth from the catalog
func (s *Selection) SelectBooth(id int) error {
	b, err := BoothById(id)
	if err != nil {
		return err
	}
	s.Booth = b
	return nil
}

// SetDate picks the meeting date, "2006-01-02". Dates before tomorrow are refused.
func (s *Selection) SetDate(date string) error {
	d, err := time.Parse(constant.DateLayout, date)
	if err != nil {
		return errcode.ErrInvalidParam.WithMsg("meeting date is invalid")
	}
	normalized := d.Format(constant.DateLayout)
	if normalized < s.MinDate() {
		return errcode.ErrDateTooEarly
	}
	s.Date = normalized
	return nil
}

// SetTime picks the meeting time, "15:04", inside the window
func (s *Selection) SetTime(clock string) error {
	t, err := time.Parse(constant.ClockLayout, clock)
	if err != nil {
		return errcode.ErrInvalidParam.WithMsg("meeting time is invalid")
	}
	normalized := t.Format(constant.ClockLayout)
	if !s.window.Contains(normalized) {
		return errcode.ErrTimeOutOfWindow
	}
	s.Time = normalized
	return nil
}

// CanSubmit reports whether booth, date and time are all chosen
func (s *Selection) CanSubmit() bool {
	return s.Booth != nil && s.Date != "" && s.Time != ""
}

// MeetingTime joins date and time the way the backend expects, "2006-01-02T15:04"
func (s *Selection) MeetingTime() string {
	return s.Date + "T" + s.Time
}

// Validate re-checks the selection right before submitting; the date may have gone stale since it was picked
func (s *Selection) Validate() error {
	if !s.CanSubmit() {
		return errcode.ErrBoothRequired
	}
	if s.Date < s.MinDate() {
		return errcode.ErrDateTooEarly
	}
	if !s.window.Contains(s.Time) {
		return errcode.ErrTimeOutOfWindow
	}
	return nil
}

// Reset clears every choice
func (s *Selection) Reset() {
	s.Booth = nil
	s.Date = ""
	s.Time = ""
}
