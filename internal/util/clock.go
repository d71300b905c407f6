package util

import (
	"sync"
	"time"
)

// Clock 是可注入的时间源
type Clock interface {
	Now() time.Time
}

// SystemClock 返回指定时区下的当前时间
type SystemClock struct {
	Location *time.Location
}

func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return &SystemClock{Location: loc}
}

func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// FixedClock 用于测试，可手动推进
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
