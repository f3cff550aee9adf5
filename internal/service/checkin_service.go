package service

import (
	"context"
	"fmt"
	"sync"
	"wichty-checkin/internal/cache"
	"wichty-checkin/internal/connectivity"
	"wichty-checkin/internal/model"
	"wichty-checkin/internal/queue"
	"wichty-checkin/internal/repository"
	apperrors "wichty-checkin/pkg/app_errors"
	"wichty-checkin/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckinService interface {
	// 下載活動票券快照，整批覆蓋本地資料
	DownloadSnapshot(ctx context.Context, eventID uuid.UUID, lang string) (*model.DownloadResult, error)
	// 離線驗票，純本地路徑
	CheckIn(code string) (*model.CheckinReceipt, error)
	// 把待同步紀錄回放到遠端，可手動呼叫，也會在轉為上線時自動觸發
	Sync(ctx context.Context) (*model.SyncSummary, error)
	// 清除活動的本地離線資料
	Clear(eventID uuid.UUID) error
	Status() model.OfflineStatus
	// 寫入稽核紀錄，由 notice worker 呼叫
	RecordNotice(ctx context.Context, notice *model.CheckinNotice) error
	// 啟動連線狀態訂閱，離線轉上線時自動跑一輪同步
	StartAutoSync(ctx context.Context)
}

type CheckinServiceImpl struct {
	cache        cache.OfflineEventCache
	ticketRepo   repository.TicketRepository
	logRepo      repository.CheckinLogRepository
	noticeQueue  queue.NoticeQueue
	connectivity connectivity.Source

	// 手動與自動同步可能同時發生，一次只跑一輪
	syncMu sync.Mutex
}

func NewCheckinService(
	offlineCache cache.OfflineEventCache,
	ticketRepo repository.TicketRepository,
	logRepo repository.CheckinLogRepository,
	noticeQueue queue.NoticeQueue,
	source connectivity.Source,
) CheckinService {
	return &CheckinServiceImpl{
		cache:        offlineCache,
		ticketRepo:   ticketRepo,
		logRepo:      logRepo,
		noticeQueue:  noticeQueue,
		connectivity: source,
	}
}

func (s *CheckinServiceImpl) DownloadSnapshot(ctx context.Context, eventID uuid.UUID, lang string) (*model.DownloadResult, error) {
	if eventID == uuid.Nil {
		return nil, apperrors.ErrInvalidInput
	}

	rows, err := s.ticketRepo.FetchByEvent(ctx, eventID)
	if err != nil {
		// 抓取失敗整個放棄，舊快照原封不動
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSnapshotDownloadFailed, err)
	}

	count, err := s.cache.ReplaceSnapshot(eventID, rows, lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSnapshotDownloadFailed, err)
	}

	status := s.cache.Status()
	result := &model.DownloadResult{Count: count}
	if status.LastDownloadAt != nil {
		result.DownloadedAt = *status.LastDownloadAt
	}

	logger.WithComponent("service").Info("snapshot downloaded",
		zap.String("event_id", eventID.String()), zap.Int("count", count))

	return result, nil
}

func (s *CheckinServiceImpl) CheckIn(code string) (*model.CheckinReceipt, error) {
	receipt, err := s.cache.CheckIn(code)
	if err != nil {
		return nil, err
	}

	notice := &model.CheckinNotice{
		TicketID:     receipt.TicketID,
		EventID:      receipt.EventID,
		Code:         receipt.Code,
		HolderName:   receipt.HolderName,
		CategoryName: receipt.CategoryName,
		CheckedInAt:  receipt.CheckedInAt,
		Source:       "offline",
	}

	// 旁路通知不能拖慢驗票，丟到背景送，失敗只記 log
	go func() {
		if err := s.noticeQueue.PublishNotice(context.Background(), notice); err != nil {
			logger.WithComponent("service").Warn("publish checkin notice failed",
				zap.String("code", notice.Code), zap.Error(err))
		}
	}()

	return receipt, nil
}

func (s *CheckinServiceImpl) Sync(ctx context.Context) (*model.SyncSummary, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	// 這一輪只處理開始時抓到的紀錄，之後新增的留給下一輪
	records := s.cache.UnsyncedCheckins()
	if len(records) == 0 {
		return &model.SyncSummary{}, nil
	}

	log := logger.WithComponent("service")
	confirmed := 0

	for _, record := range records {
		applied, err := s.ticketRepo.CheckInIfValid(ctx, record.TicketID, record.CheckedInAt)
		if err != nil {
			// 單筆失敗不影響其他紀錄的回放
			log.Warn("sync item failed",
				zap.String("ticket_id", record.TicketID.String()),
				zap.String("code", record.Code),
				zap.Error(err))
			continue
		}
		if !applied {
			// 遠端已被別台裝置驗過或票已取消，條件不成立就不覆蓋
			log.Info("sync item skipped, remote ticket no longer valid",
				zap.String("ticket_id", record.TicketID.String()),
				zap.String("code", record.Code))
			continue
		}
		confirmed++
	}

	// 嘗試過的紀錄一律標記已同步，成功與否都不再重送
	// 條件更新已經擋住重複寫入，重試只會製造對帳噪音
	if err := s.cache.MarkSynced(records); err != nil {
		// 遠端寫入已經完成，標記失敗只記 log；紀錄留在待同步清單，
		// 下一輪重放只會得到 no-match
		log.Warn("mark synced failed, records stay pending", zap.Error(err))
	}

	log.Info("sync pass finished",
		zap.Int("attempted", len(records)), zap.Int("confirmed", confirmed))

	return &model.SyncSummary{Attempted: len(records), Confirmed: confirmed}, nil
}

func (s *CheckinServiceImpl) Clear(eventID uuid.UUID) error {
	if eventID == uuid.Nil {
		return apperrors.ErrInvalidInput
	}
	return s.cache.Clear(eventID)
}

func (s *CheckinServiceImpl) Status() model.OfflineStatus {
	status := s.cache.Status()
	status.Online = s.connectivity.Online()
	return status
}

func (s *CheckinServiceImpl) RecordNotice(ctx context.Context, notice *model.CheckinNotice) error {
	return s.logRepo.Insert(ctx, notice)
}

func (s *CheckinServiceImpl) StartAutoSync(ctx context.Context) {
	go func() {
		changes := s.connectivity.Changes()
		for {
			select {
			case <-ctx.Done():
				return
			case online, ok := <-changes:
				if !ok {
					return
				}
				if !online {
					continue
				}
				// 離線轉上線的邊緣，回放待同步紀錄
				summary, err := s.Sync(ctx)
				if err != nil {
					logger.WithComponent("service").Error("auto sync failed", zap.Error(err))
					continue
				}
				if summary.Confirmed > 0 {
					logger.WithComponent("service").Info("auto sync confirmed checkins",
						zap.Int("confirmed", summary.Confirmed))
				}
			}
		}
	}()
}
