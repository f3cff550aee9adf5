package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus 票券狀態類型
type TicketStatus string

const (
	TicketStatusValid     TicketStatus = "valid"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusValid, TicketStatusUsed, TicketStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	transitions := map[TicketStatus][]TicketStatus{
		TicketStatusValid:     {TicketStatusUsed, TicketStatusCancelled},
		TicketStatusUsed:      {}, // 已入場為終態
		TicketStatusCancelled: {}, // 已取消為終態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// EventTicketRow 遠端資料庫查詢結果：票券 join 參加者姓名與票種名稱
type EventTicketRow struct {
	TicketID     uuid.UUID    `db:"id"`
	Code         string       `db:"code"`
	Status       TicketStatus `db:"status"`
	CheckedInAt  *time.Time   `db:"checked_in_at"`
	HolderName   *string      `db:"holder_name"`
	CategoryName *string      `db:"category_name"`
}

// OfflineTicket 下載到本地的票券快照，重新下載時整批覆蓋
type OfflineTicket struct {
	TicketID     uuid.UUID    `json:"ticket_id"`
	EventID      uuid.UUID    `json:"event_id"`
	Code         string       `json:"code"`
	Status       TicketStatus `json:"status"`
	CheckedInAt  *time.Time   `json:"checked_in_at,omitempty"`
	HolderName   string       `json:"holder_name"`
	CategoryName string       `json:"category_name"`
}
