package util

import "time"

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// JourneyDays 一期旅程固定为 48 天
const JourneyDays = 48

// StartOfDay 返回 t 所在时区当天零点
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDate 把时间归一到日粒度的键
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseDate 在给定时区解析 YYYY-MM-DD
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// DaysBetween 按日历日计算 from 到 to 相差的天数，不受夏令时影响
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// AddDays 在日历上偏移 n 天
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
