package service

import "time"

// Clock 时间源
// 注入 Service 以替代直接读取系统时钟，测试中使用固定时间
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回系统时钟
func SystemClock() Clock { return systemClock{} }

// Today 返回 now 所在日期（当天零点，保留时区）
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// DaysBetween 返回 from 到 to 的日历天数差
// 只比较各自时区下的日期分量，两端时区不同（如数据库日期列为 UTC
// 零点、调度器传入本地时间）也不会因小时差截断出错
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
