package worker

import (
	"context"
	"wichty-checkin/internal/queue"
	"wichty-checkin/internal/service"
)

type NoticeWorker interface {
	// 訂閱驗票通知隊列
	Start(ctx context.Context) error
}

type NoticeWorkerImpl struct {
	service service.CheckinService
	queue   queue.NoticeQueue
}

func NewNoticeWorker(service service.CheckinService, queue queue.NoticeQueue) NoticeWorker {
	return &NoticeWorkerImpl{
		service: service,
		queue:   queue,
	}
}

func (w *NoticeWorkerImpl) Start(ctx context.Context) error {
	msgs, _ := w.queue.SubscribeNotices(ctx)

	go func() {
		for msg := range msgs {
			// 把通知落成稽核紀錄，驗票主流程不等這一步
			err := w.service.RecordNotice(ctx, msg.Data)

			if err != nil {
				// 資料庫暫時連不上就重試
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
