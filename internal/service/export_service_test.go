package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *testRepos) {
	repo, mocks := newTestRepository()
	svc := NewExportService(repo, zap.NewNop())
	return svc, mocks
}

// ── ExportRunResults 测试 ──

func TestExportService_ExportRunResults_NotFound(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportRunResults(context.Background(), "nonexistent-run")
	if !errors.Is(err, ErrExportRunNotFound) {
		t.Errorf("期望 ErrExportRunNotFound，实际: %v", err)
	}
}

func TestExportService_ExportRunResults_Success(t *testing.T) {
	svc, mocks := setupTestExportService()

	mocks.assets.assets["asset-001"] = &model.Asset{
		AssetID: "asset-001", AssetTag: "IT-001", Name: "笔记本电脑",
		Department: "IT", Status: model.AssetStatusInUse,
	}
	mocks.assets.assets["asset-002"] = &model.Asset{
		AssetID: "asset-002", AssetTag: "IT-002", Name: "显示器",
		Department: "IT", Status: model.AssetStatusInUse,
	}
	mocks.users.users["auditor-001"] = &model.User{
		UserID: "auditor-001", Name: "张三", Email: "auditor@example.com",
	}

	creator := "manager-001"
	audit := &model.ScheduledAudit{
		ScheduledAuditID: "audit-001",
		Name:             "IT部门月度盘点",
		RecurrenceType:   model.RecurrenceMonthly,
		ScopeType:        model.ScopeAll,
		Status:           model.AuditStatusActive,
	}
	audit.CreatedBy = &creator
	mocks.audits.audits["audit-001"] = audit

	mocks.runs.runs["run-001"] = &model.AuditRun{
		AuditRunID:       "run-001",
		ScheduledAuditID: "audit-001",
		RunDate:          time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC),
		Status:           model.RunStatusInProgress,
		AssetsToAudit:    model.StringArray{"asset-001", "asset-002"},
		TotalAssets:      2,
		Observations: model.ObservationMap{
			"asset-001": {
				AssetID:   "asset-001",
				AuditedAt: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
				AuditedBy: "auditor-001",
				Outcome:   model.OutcomeFound,
				Condition: "good",
			},
		},
		FoundCount:           1,
		CompletionPercentage: 50,
	}

	buf, filename, err := svc.ExportRunResults(context.Background(), "run-001")
	if err != nil {
		t.Fatalf("ExportRunResults 应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾: %s", filename)
	}
	if !strings.Contains(filename, "IT部门月度盘点") {
		t.Errorf("文件名应含定义名称: %s", filename)
	}

	// 回读 Excel 校验内容
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出内容应为合法 xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	hasSummary, hasDetail := false, false
	for _, s := range sheets {
		if s == "汇总" {
			hasSummary = true
		}
		if s == "明细" {
			hasDetail = true
		}
	}
	if !hasSummary || !hasDetail {
		t.Fatalf("期望 汇总/明细 两个 Sheet，实际 %v", sheets)
	}

	// 明细第一行数据：asset-001 已盘点，盘点人解析为姓名
	rows, err := f.GetRows("明细")
	if err != nil {
		t.Fatalf("读取明细失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行明细，实际 %d 行", len(rows))
	}
	if rows[1][0] != "IT-001" || rows[1][5] != "在账" || rows[1][7] != "张三" {
		t.Errorf("明细首行不符: %v", rows[1])
	}
	// asset-002 未盘点
	if rows[2][0] != "IT-002" || rows[2][5] != "未盘点" {
		t.Errorf("明细次行不符: %v", rows[2])
	}
}

func TestExportService_ExportRunResults_DeletedDefinitionStillExports(t *testing.T) {
	svc, mocks := setupTestExportService()

	// 定义已删除，仅剩历史运行
	mocks.runs.runs["run-001"] = &model.AuditRun{
		AuditRunID:       "run-001",
		ScheduledAuditID: "audit-gone",
		RunDate:          time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC),
		Status:           model.RunStatusCompleted,
		AssetsToAudit:    model.StringArray{},
		Observations:     model.ObservationMap{},
	}

	buf, _, err := svc.ExportRunResults(context.Background(), "run-001")
	if err != nil {
		t.Fatalf("历史运行导出应成功: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("导出内容不应为空")
	}
}
