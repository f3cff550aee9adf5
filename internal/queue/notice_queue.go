package queue

import (
	"context"
	"wichty-checkin/internal/model"
	"wichty-checkin/pkg/logger"

	"go.uber.org/zap"
)

type Delivery struct {
	Data *model.CheckinNotice
	Ack  func()
	Nack func(requeue bool)
}

// NoticeQueue 驗票通知的旁路隊列
// 驗票主流程只負責丟進來，稽核寫入由 worker 在背景消化
type NoticeQueue interface {
	// 發送驗票通知到隊列
	PublishNotice(ctx context.Context, notice *model.CheckinNotice) error
	// 訂閱驗票通知
	SubscribeNotices(ctx context.Context) (<-chan Delivery, error)
}

type NoticeQueueImpl struct {
	// 使用 Go channel 的記憶體版隊列
	ch chan *model.CheckinNotice
}

func NewNoticeQueue(bufferSize int) NoticeQueue {
	return &NoticeQueueImpl{
		ch: make(chan *model.CheckinNotice, bufferSize),
	}
}

func (q *NoticeQueueImpl) PublishNotice(ctx context.Context, notice *model.CheckinNotice) error {
	q.ch <- notice
	return nil
}

func (q *NoticeQueueImpl) SubscribeNotices(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case notice, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: notice,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						// 重回隊列不能卡住投遞路徑，滿了就丟掉並記 log
						select {
						case q.ch <- notice:
						default:
							logger.WithComponent("mq").Warn("requeue dropped, queue full",
								zap.String("code", notice.Code))
						}
					},
				}
			}
		}
	}()

	return out, nil
}
