package model

import (
	"time"

	"github.com/google/uuid"
)

// LocalCheckin 離線驗票時記下的待同步紀錄
// CheckedInAt 是裝置上驗票當下的時間，同步時寫回遠端的就是這個值
type LocalCheckin struct {
	TicketID     uuid.UUID `json:"ticket_id"`
	Code         string    `json:"code"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	HolderName   string    `json:"holder_name"`
	CategoryName string    `json:"category_name"`
	Synced       bool      `json:"synced"`
}

// CheckinNotice 驗票完成後發到通知隊列的訊息，由 worker 寫入稽核紀錄
type CheckinNotice struct {
	TicketID     uuid.UUID `json:"ticket_id"`
	EventID      uuid.UUID `json:"event_id"`
	Code         string    `json:"code"`
	HolderName   string    `json:"holder_name"`
	CategoryName string    `json:"category_name"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	Source       string    `json:"source"` // offline / online
}

// CheckinRequest 驗票請求
type CheckinRequest struct {
	Code string `json:"code" binding:"required"`
}

// CheckinReceipt 驗票成功的回執，給操作者確認持票人身份
type CheckinReceipt struct {
	TicketID     uuid.UUID `json:"ticket_id"`
	EventID      uuid.UUID `json:"event_id"`
	Code         string    `json:"code"`
	HolderName   string    `json:"holder_name"`
	CategoryName string    `json:"category_name"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

// SyncSummary 一輪同步的結果
type SyncSummary struct {
	Attempted int `json:"attempted"`
	Confirmed int `json:"confirmed"`
}

// OfflineStatus 離線快照的可觀察狀態
type OfflineStatus struct {
	Online          bool       `json:"online"`
	HasSnapshot     bool       `json:"has_snapshot"`
	EventID         *uuid.UUID `json:"event_id,omitempty"`
	TicketCount     int        `json:"ticket_count"`
	PendingUnsynced int        `json:"pending_unsynced"`
	LastDownloadAt  *time.Time `json:"last_download_at,omitempty"`
}

// DownloadResult 快照下載結果
type DownloadResult struct {
	Count        int       `json:"count"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
