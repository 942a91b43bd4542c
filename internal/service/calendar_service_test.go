package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// ── 测试辅助 ──

func setupTestCalendarService() (CalendarService, *testRepos) {
	repo, mocks := newTestRepository()
	clock := &fixedClock{now: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	svc := NewCalendarService(repo, clock, zap.NewNop())
	return svc, mocks
}

func seedCalendarAudit(mocks *testRepos, id string, recurrence model.RecurrenceType, nextRun time.Time, createdBy string) *model.ScheduledAudit {
	audit := &model.ScheduledAudit{
		ScheduledAuditID: id,
		Name:             "日历盘点-" + id,
		AuditType:        "full",
		RecurrenceType:   recurrence,
		StartDate:        time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		NextRunDate:      &nextRun,
		ScopeType:        model.ScopeAll,
		Status:           model.AuditStatusActive,
	}
	audit.CreatedBy = &createdBy
	mocks.audits.audits[id] = audit
	return audit
}

// ── BuildUpcomingFeed 测试 ──

func TestCalendarService_Feed_ProjectsRecurrence(t *testing.T) {
	svc, mocks := setupTestCalendarService()
	seedCalendarAudit(mocks, "audit-001", model.RecurrenceMonthly, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), "manager-001")

	feed, err := svc.BuildUpcomingFeed(context.Background(), "admin-001", model.RoleAdmin, 90)
	if err != nil {
		t.Fatalf("BuildUpcomingFeed 应成功: %v", err)
	}

	if !strings.Contains(feed, "BEGIN:VCALENDAR") || !strings.Contains(feed, "END:VCALENDAR") {
		t.Fatal("输出应为合法 iCalendar")
	}
	// 90 天窗口内的月度场次：3-15、4-15、5-15
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 3 {
		t.Errorf("期望 3 个事件，实际 %d\n%s", got, feed)
	}
	if !strings.Contains(feed, "日历盘点-audit-001") {
		t.Error("事件摘要应含定义名称")
	}
}

func TestCalendarService_Feed_OnceSingleEvent(t *testing.T) {
	svc, mocks := setupTestCalendarService()
	seedCalendarAudit(mocks, "audit-001", model.RecurrenceOnce, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), "manager-001")

	feed, err := svc.BuildUpcomingFeed(context.Background(), "admin-001", model.RoleAdmin, 90)
	if err != nil {
		t.Fatalf("BuildUpcomingFeed 应成功: %v", err)
	}
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("一次性盘点期望 1 个事件，实际 %d", got)
	}
}

func TestCalendarService_Feed_RespectsEndDate(t *testing.T) {
	svc, mocks := setupTestCalendarService()
	audit := seedCalendarAudit(mocks, "audit-001", model.RecurrenceWeekly, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), "manager-001")
	audit.EndDate = datePtr(2026, 3, 20)

	feed, err := svc.BuildUpcomingFeed(context.Background(), "admin-001", model.RoleAdmin, 90)
	if err != nil {
		t.Fatalf("BuildUpcomingFeed 应成功: %v", err)
	}
	// end_date 之后的场次截断：3-12、3-19
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("期望 2 个事件，实际 %d", got)
	}
}

func TestCalendarService_Feed_VisibilityForRegularUser(t *testing.T) {
	svc, mocks := setupTestCalendarService()
	seedCalendarAudit(mocks, "audit-001", model.RecurrenceOnce, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), "manager-001")
	mine := seedCalendarAudit(mocks, "audit-002", model.RecurrenceOnce, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), "manager-001")
	mine.AuditorIDs = model.StringArray{"auditor-001"}

	feed, err := svc.BuildUpcomingFeed(context.Background(), "auditor-001", model.RoleUser, 90)
	if err != nil {
		t.Fatalf("BuildUpcomingFeed 应成功: %v", err)
	}
	// 普通用户只看到被指派的定义
	if got := strings.Count(feed, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("期望 1 个事件，实际 %d", got)
	}
	if !strings.Contains(feed, "日历盘点-audit-002") {
		t.Error("应包含被指派的定义")
	}
}
