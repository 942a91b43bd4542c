package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/repository"
)

// ── 固定时钟 ──

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

// ── Mock ScheduledAuditRepository ──

type mockScheduledAuditRepo struct {
	audits    map[string]*model.ScheduledAudit
	updateErr error
}

func newMockScheduledAuditRepo() *mockScheduledAuditRepo {
	return &mockScheduledAuditRepo{audits: make(map[string]*model.ScheduledAudit)}
}

func (m *mockScheduledAuditRepo) Create(_ context.Context, audit *model.ScheduledAudit) error {
	if audit.ScheduledAuditID == "" {
		audit.ScheduledAuditID = fmt.Sprintf("audit-%03d", len(m.audits)+1)
	}
	m.audits[audit.ScheduledAuditID] = audit
	return nil
}

func (m *mockScheduledAuditRepo) GetByID(_ context.Context, id string) (*model.ScheduledAudit, error) {
	if a, ok := m.audits[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduledAuditRepo) List(_ context.Context, filter repository.ScheduledAuditListFilter) ([]model.ScheduledAudit, int64, error) {
	var result []model.ScheduledAudit
	for _, a := range m.audits {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.AuditType != "" && a.AuditType != filter.AuditType {
			continue
		}
		if filter.VisibleTo != nil {
			creator := a.CreatedBy != nil && *a.CreatedBy == *filter.VisibleTo
			if !creator && !a.AuditorIDs.Contains(*filter.VisibleTo) {
				continue
			}
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAuditID < result[j].ScheduledAuditID
	})
	return result, int64(len(result)), nil
}

func (m *mockScheduledAuditRepo) Update(_ context.Context, audit *model.ScheduledAudit) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.audits[audit.ScheduledAuditID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.audits[audit.ScheduledAuditID] = audit
	return nil
}

func (m *mockScheduledAuditRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.audits, id)
	return nil
}

func (m *mockScheduledAuditRepo) ListDue(_ context.Context, today time.Time) ([]model.ScheduledAudit, error) {
	var result []model.ScheduledAudit
	for _, a := range m.audits {
		if a.Status != model.AuditStatusActive || a.NextRunDate == nil {
			continue
		}
		if a.NextRunDate.After(today) {
			continue
		}
		if a.EndDate != nil && a.NextRunDate.After(*a.EndDate) {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAuditID < result[j].ScheduledAuditID
	})
	return result, nil
}

func (m *mockScheduledAuditRepo) ListReminderCandidates(_ context.Context) ([]model.ScheduledAudit, error) {
	var result []model.ScheduledAudit
	for _, a := range m.audits {
		if a.Status != model.AuditStatusActive || !a.Reminder.Enabled || a.NextRunDate == nil {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAuditID < result[j].ScheduledAuditID
	})
	return result, nil
}

// ── Mock AuditRunRepository ──

type mockAuditRunRepo struct {
	mu   sync.Mutex
	runs map[string]*model.AuditRun
}

func newMockAuditRunRepo() *mockAuditRunRepo {
	return &mockAuditRunRepo{runs: make(map[string]*model.AuditRun)}
}

func (m *mockAuditRunRepo) Create(_ context.Context, run *model.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.AuditRunID == "" {
		run.AuditRunID = fmt.Sprintf("run-%03d", len(m.runs)+1)
	}
	run.CreatedAt = time.Now()
	m.runs[run.AuditRunID] = run
	return nil
}

func (m *mockAuditRunRepo) GetByID(_ context.Context, id string) (*model.AuditRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAuditRunRepo) ListByAudit(_ context.Context, scheduledAuditID string, filter repository.AuditRunListFilter) ([]model.AuditRun, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AuditRun
	for _, r := range m.runs {
		if r.ScheduledAuditID != scheduledAuditID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AuditRunID < result[j].AuditRunID
	})
	return result, int64(len(result)), nil
}

func (m *mockAuditRunRepo) Update(_ context.Context, run *model.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.AuditRunID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *run
	m.runs[run.AuditRunID] = &cp
	return nil
}

func (m *mockAuditRunRepo) CountOpen(_ context.Context, scheduledAuditID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.runs {
		if r.ScheduledAuditID != scheduledAuditID {
			continue
		}
		if r.Status == model.RunStatusPending || r.Status == model.RunStatusInProgress {
			n++
		}
	}
	return n, nil
}

// ── Mock AssetRepository ──

type mockAssetRepo struct {
	assets map[string]*model.Asset
	stamps map[string]repository.AuditStamp // assetID → 最近一次回写
}

func newMockAssetRepo() *mockAssetRepo {
	return &mockAssetRepo{
		assets: make(map[string]*model.Asset),
		stamps: make(map[string]repository.AuditStamp),
	}
}

func (m *mockAssetRepo) QueryIDs(_ context.Context, filter repository.AssetFilter) ([]string, error) {
	excluded := make(map[string]bool, len(filter.ExcludeStatuses))
	for _, s := range filter.ExcludeStatuses {
		excluded[s] = true
	}

	var matched []*model.Asset
	for _, a := range m.assets {
		if excluded[a.Status] {
			continue
		}
		if filter.Department != nil && a.Department != *filter.Department {
			continue
		}
		if filter.Location != nil && a.Location != *filter.Location {
			continue
		}
		if filter.Category != nil && a.Category != *filter.Category {
			continue
		}
		if filter.Condition != nil && a.Condition != *filter.Condition {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].AssetTag < matched[j].AssetTag })

	ids := make([]string, 0, len(matched))
	for _, a := range matched {
		ids = append(ids, a.AssetID)
	}
	return ids, nil
}

func (m *mockAssetRepo) ListByIDs(_ context.Context, ids []string) ([]model.Asset, error) {
	var result []model.Asset
	for _, id := range ids {
		if a, ok := m.assets[id]; ok {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssetTag < result[j].AssetTag })
	return result, nil
}

func (m *mockAssetRepo) UpdateAuditStamp(_ context.Context, assetID string, stamp repository.AuditStamp) error {
	a, ok := m.assets[assetID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.LastAuditDate = &stamp.LastAuditDate
	a.LastAuditedBy = &stamp.LastAuditedBy
	if stamp.Condition != nil {
		a.Condition = *stamp.Condition
	}
	m.stamps[assetID] = stamp
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Resolve(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) BatchCreate(_ context.Context, notifications []model.Notification) error {
	m.notifications = append(m.notifications, notifications...)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	entries []model.AuditLog
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Append(_ context.Context, entry *model.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

// ── Mock ReminderLogRepository ──

type mockReminderLogRepo struct {
	mu      sync.Mutex
	entries map[string]bool // "auditID:2006-01-02" → 已写入
	failErr error
}

func newMockReminderLogRepo() *mockReminderLogRepo {
	return &mockReminderLogRepo{entries: make(map[string]bool)}
}

func (m *mockReminderLogRepo) TryInsert(_ context.Context, scheduledAuditID string, dueDate time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return false, m.failErr
	}
	key := scheduledAuditID + ":" + dueDate.Format("2006-01-02")
	if m.entries[key] {
		return false, nil
	}
	m.entries[key] = true
	return true, nil
}

// ── 记录型 Mailer ──

type fakeMailer struct {
	batches [][]string // 每次调用的收件人
	failErr error
}

func (f *fakeMailer) SendBatch(_ context.Context, recipients []string, _, _ string) error {
	if f.failErr != nil {
		return f.failErr
	}
	if len(recipients) == 0 {
		return nil
	}
	f.batches = append(f.batches, recipients)
	return nil
}

// ── Redis 提醒标记假实现 ──

type fakeMarker struct {
	mu     sync.Mutex
	marked map[string]bool
	errOut error
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{marked: make(map[string]bool)}
}

func (f *fakeMarker) MarkReminderSent(_ context.Context, scheduledAuditID string, dueDate time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errOut != nil {
		return false, f.errOut
	}
	key := scheduledAuditID + ":" + dueDate.Format("2006-01-02")
	if f.marked[key] {
		return false, nil
	}
	f.marked[key] = true
	return true, nil
}

// ── 组装辅助 ──

type testRepos struct {
	audits        *mockScheduledAuditRepo
	runs          *mockAuditRunRepo
	assets        *mockAssetRepo
	users         *mockUserRepo
	notifications *mockNotificationRepo
	auditLogs     *mockAuditLogRepo
	reminderLogs  *mockReminderLogRepo
}

func newTestRepository() (*repository.Repository, *testRepos) {
	mocks := &testRepos{
		audits:        newMockScheduledAuditRepo(),
		runs:          newMockAuditRunRepo(),
		assets:        newMockAssetRepo(),
		users:         newMockUserRepo(),
		notifications: newMockNotificationRepo(),
		auditLogs:     newMockAuditLogRepo(),
		reminderLogs:  newMockReminderLogRepo(),
	}
	repo := &repository.Repository{
		ScheduledAudit: mocks.audits,
		AuditRun:       mocks.runs,
		Asset:          mocks.assets,
		User:           mocks.users,
		Notification:   mocks.notifications,
		AuditLog:       mocks.auditLogs,
		ReminderLog:    mocks.reminderLogs,
	}
	return repo, mocks
}

func strPtr(s string) *string { return &s }

func datePtr(y int, mo time.Month, d int) *time.Time {
	t := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	return &t
}
