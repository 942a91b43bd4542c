package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/dto"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/service"
	pkgerrors "github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/pkg/errors"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ScheduledAuditService ──

type mockScheduledAuditService struct {
	createResult *dto.ScheduledAuditResponse
	createErr    error
	getResult    *dto.ScheduledAuditResponse
	getErr       error
	listResult   []dto.ScheduledAuditResponse
	listTotal    int64
	listErr      error
	updateResult *dto.ScheduledAuditResponse
	updateErr    error
	deleteErr    error
}

func (m *mockScheduledAuditService) Create(_ context.Context, _ *dto.CreateScheduledAuditRequest, _ string) (*dto.ScheduledAuditResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockScheduledAuditService) GetByID(_ context.Context, _, _, _ string) (*dto.ScheduledAuditResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockScheduledAuditService) List(_ context.Context, _ *dto.ListScheduledAuditsRequest, _, _ string) ([]dto.ScheduledAuditResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockScheduledAuditService) Update(_ context.Context, _ string, _ *dto.UpdateScheduledAuditRequest, _, _ string) (*dto.ScheduledAuditResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockScheduledAuditService) Delete(_ context.Context, _, _, _ string) error {
	return m.deleteErr
}

// ── Mock AuditRunService ──

type mockAuditRunService struct {
	triggerResult  *dto.AuditRunResponse
	triggerErr     error
	progressResult *dto.ProgressResponse
	progressErr    error
	getResult      *dto.AuditRunResponse
	getErr         error
	listResult     []dto.AuditRunResponse
	listTotal      int64
	listErr        error
}

func (m *mockAuditRunService) TriggerRun(_ context.Context, _ string) (*dto.AuditRunResponse, error) {
	return m.triggerResult, m.triggerErr
}
func (m *mockAuditRunService) RecordProgress(_ context.Context, _, _ string, _ *dto.RecordProgressRequest) (*dto.ProgressResponse, error) {
	return m.progressResult, m.progressErr
}
func (m *mockAuditRunService) GetRun(_ context.Context, _ string) (*dto.AuditRunResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockAuditRunService) ListRuns(_ context.Context, _ string, _ *dto.ListRunsRequest) ([]dto.AuditRunResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}

// ── Mock ReminderService ──

type mockReminderService struct {
	report   *dto.SweepReport
	err      error
	gotToday time.Time
}

func (m *mockReminderService) RunDailySweep(_ context.Context, today time.Time) (*dto.SweepReport, error) {
	m.gotToday = today
	return m.report, m.err
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

// ── 测试辅助 ──

// injectAuth 模拟 JWT 中间件注入的用户信息
func injectAuth(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

func performRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	return &resp
}

// ═══════════════════════════════════════════════════════════
// ScheduledAuditHandler 测试
// ═══════════════════════════════════════════════════════════

func TestScheduledAuditHandler_Create_Success(t *testing.T) {
	svc := &mockScheduledAuditService{
		createResult: &dto.ScheduledAuditResponse{ID: "audit-001", Name: "IT部门月度盘点", Status: "active"},
	}
	h := NewScheduledAuditHandler(svc)

	r := gin.New()
	r.POST("/scheduled-audits", injectAuth("admin-001", "admin"), h.Create)

	w := performRequest(r, http.MethodPost, "/scheduled-audits", map[string]interface{}{
		"name":            "IT部门月度盘点",
		"recurrence_type": "monthly",
		"start_date":      "2026-01-15",
		"scope_type":      "department",
		"scope_value":     "IT",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d: %s", w.Code, w.Body.String())
	}
}

func TestScheduledAuditHandler_Create_BindingFailure(t *testing.T) {
	h := NewScheduledAuditHandler(&mockScheduledAuditService{})

	r := gin.New()
	r.POST("/scheduled-audits", injectAuth("admin-001", "admin"), h.Create)

	// recurrence_type 不在枚举内
	w := performRequest(r, http.MethodPost, "/scheduled-audits", map[string]interface{}{
		"name":            "无效周期",
		"recurrence_type": "biweekly",
		"start_date":      "2026-01-15",
		"scope_type":      "all",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际 %d", w.Code)
	}
	if resp := decodeResponse(t, w); resp.Code != 21001 {
		t.Errorf("期望业务码 21001，实际 %d", resp.Code)
	}
}

func TestScheduledAuditHandler_Get_NotFound(t *testing.T) {
	svc := &mockScheduledAuditService{getErr: service.ErrScheduledAuditNotFound}
	h := NewScheduledAuditHandler(svc)

	r := gin.New()
	r.GET("/scheduled-audits/:id", injectAuth("user-001", "user"), h.Get)

	w := performRequest(r, http.MethodGet, "/scheduled-audits/audit-999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("期望 404，实际 %d", w.Code)
	}
}

func TestScheduledAuditHandler_Update_Forbidden(t *testing.T) {
	svc := &mockScheduledAuditService{updateErr: service.ErrForbidden}
	h := NewScheduledAuditHandler(svc)

	r := gin.New()
	r.PUT("/scheduled-audits/:id", injectAuth("user-001", "user"), h.Update)

	w := performRequest(r, http.MethodPut, "/scheduled-audits/audit-001", map[string]interface{}{
		"name": "改名尝试",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("期望 403，实际 %d", w.Code)
	}
}

func TestScheduledAuditHandler_Update_OptimisticLockConflict(t *testing.T) {
	svc := &mockScheduledAuditService{updateErr: pkgerrors.ErrOptimisticLock}
	h := NewScheduledAuditHandler(svc)

	r := gin.New()
	r.PUT("/scheduled-audits/:id", injectAuth("manager-001", "manager"), h.Update)

	w := performRequest(r, http.MethodPut, "/scheduled-audits/audit-001", map[string]interface{}{
		"name": "并发改名",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409，实际 %d", w.Code)
	}
	if resp := decodeResponse(t, w); resp.Code != 21106 {
		t.Errorf("期望业务码 21106，实际 %d", resp.Code)
	}
}

func TestScheduledAuditHandler_Get_Unauthenticated(t *testing.T) {
	h := NewScheduledAuditHandler(&mockScheduledAuditService{})

	r := gin.New()
	// 未注入用户信息
	r.GET("/scheduled-audits/:id", h.Get)

	w := performRequest(r, http.MethodGet, "/scheduled-audits/audit-001", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("期望 401，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuditRunHandler 测试
// ═══════════════════════════════════════════════════════════

func TestAuditRunHandler_Trigger_Success(t *testing.T) {
	svc := &mockAuditRunService{
		triggerResult: &dto.AuditRunResponse{ID: "run-001", Status: "pending", TotalAssets: 3},
	}
	h := NewAuditRunHandler(svc)

	r := gin.New()
	r.POST("/scheduled-audits/:id/trigger", injectAuth("admin-001", "admin"), h.Trigger)

	w := performRequest(r, http.MethodPost, "/scheduled-audits/audit-001/trigger", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("期望 201，实际 %d: %s", w.Code, w.Body.String())
	}
}

func TestAuditRunHandler_Trigger_StillOpenConflict(t *testing.T) {
	svc := &mockAuditRunService{triggerErr: service.ErrRunStillOpen}
	h := NewAuditRunHandler(svc)

	r := gin.New()
	r.POST("/scheduled-audits/:id/trigger", injectAuth("admin-001", "admin"), h.Trigger)

	w := performRequest(r, http.MethodPost, "/scheduled-audits/audit-001/trigger", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409，实际 %d", w.Code)
	}
	if resp := decodeResponse(t, w); resp.Code != 22103 {
		t.Errorf("期望业务码 22103，实际 %d", resp.Code)
	}
}

func TestAuditRunHandler_RecordProgress_Success(t *testing.T) {
	svc := &mockAuditRunService{
		progressResult: &dto.ProgressResponse{CompletionPercentage: 100, IsComplete: true},
	}
	h := NewAuditRunHandler(svc)

	r := gin.New()
	r.POST("/audit-runs/:id/progress", injectAuth("auditor-001", "user"), h.RecordProgress)

	w := performRequest(r, http.MethodPost, "/audit-runs/run-001/progress", map[string]interface{}{
		"asset_id": "7b8a1f3e-0f24-4a7c-9d5e-1c2b3a4d5e6f",
		"outcome":  "found",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
}

func TestAuditRunHandler_RecordProgress_InvalidOutcome(t *testing.T) {
	h := NewAuditRunHandler(&mockAuditRunService{})

	r := gin.New()
	r.POST("/audit-runs/:id/progress", injectAuth("auditor-001", "user"), h.RecordProgress)

	w := performRequest(r, http.MethodPost, "/audit-runs/run-001/progress", map[string]interface{}{
		"asset_id": "7b8a1f3e-0f24-4a7c-9d5e-1c2b3a4d5e6f",
		"outcome":  "vanished",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际 %d", w.Code)
	}
}

func TestAuditRunHandler_RecordProgress_NotAssigned(t *testing.T) {
	svc := &mockAuditRunService{progressErr: service.ErrAuditorNotAssigned}
	h := NewAuditRunHandler(svc)

	r := gin.New()
	r.POST("/audit-runs/:id/progress", injectAuth("stranger", "user"), h.RecordProgress)

	w := performRequest(r, http.MethodPost, "/audit-runs/run-001/progress", map[string]interface{}{
		"asset_id": "7b8a1f3e-0f24-4a7c-9d5e-1c2b3a4d5e6f",
		"outcome":  "found",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("期望 403，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ReminderHandler 测试
// ═══════════════════════════════════════════════════════════

func TestReminderHandler_RunSweep_UsesInjectedClock(t *testing.T) {
	svc := &mockReminderService{report: &dto.SweepReport{Sent: 2}}
	fixed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	h := NewReminderHandler(svc, &stubClock{now: fixed})

	r := gin.New()
	r.POST("/internal/reminder-sweep", injectAuth("admin-001", "admin"), h.RunSweep)

	w := performRequest(r, http.MethodPost, "/internal/reminder-sweep", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	// 扫描基准时间取注入时钟，而非系统时钟
	if !svc.gotToday.Equal(fixed) {
		t.Errorf("期望扫描基准时间 %v，实际 %v", fixed, svc.gotToday)
	}
}
