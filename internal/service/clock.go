package service

import "time"

const dateLayout = "2006-01-02"

// Clock decides what "today" is for day-boundary logic.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Today returns the current date as YYYY-MM-DD.
func (c Clock) Today() string {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return c.now().In(loc).Format(dateLayout)
}
