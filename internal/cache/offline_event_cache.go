package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"wichty-checkin/internal/model"
	"wichty-checkin/internal/store"
	apperrors "wichty-checkin/pkg/app_errors"

	"github.com/google/uuid"
)

// OfflineEventCache 管理單一活動的本地票券快照與待同步驗票紀錄
// 驗票走純本地路徑，完全不碰網路；快照與紀錄都透過 KeyValueStore 落地
type OfflineEventCache interface {
	// 還原：行程重啟後載回指定活動的快照與待同步紀錄
	Load(eventID uuid.UUID) error
	// 還原上次使用中的活動，行程啟動時呼叫；沒有紀錄時為 no-op
	LoadActive() error
	// 覆蓋：整批替換活動的票券快照，尚未同步的驗票紀錄跨下載保留
	ReplaceSnapshot(eventID uuid.UUID, rows []model.EventTicketRow, lang string) (int, error)
	// 驗票：對本地快照做狀態檢查並記下待同步紀錄，無任何網路呼叫
	CheckIn(code string) (*model.CheckinReceipt, error)
	// 取出尚未同步的紀錄，依寫入順序排列
	UnsyncedCheckins() []model.LocalCheckin
	// 把嘗試過同步的紀錄標記為已同步並落地
	MarkSynced(records []model.LocalCheckin) error
	// 清掉活動的本地快照、待同步紀錄與下載時間，不碰遠端
	Clear(eventID uuid.UUID) error
	Status() model.OfflineStatus
}

// 查無姓名或票種時的顯示字串，依下載語言挑選
var displayFallbacks = map[string]struct {
	Holder   string
	Category string
}{
	"en": {Holder: "Guest", Category: "Standard"},
	"de": {Holder: "Gast", Category: "Standard"},
	"fr": {Holder: "Invité", Category: "Standard"},
}

type OfflineEventCacheImpl struct {
	store store.KeyValueStore

	mu             sync.RWMutex
	eventID        uuid.UUID
	hasSnapshot    bool
	tickets        []*model.OfflineTicket
	byCode         map[string]*model.OfflineTicket // key 為小寫票碼
	checkins       []model.LocalCheckin
	pendingByCode  map[string]struct{}
	lastDownloadAt *time.Time
}

func NewOfflineEventCache(kv store.KeyValueStore) OfflineEventCache {
	return &OfflineEventCacheImpl{
		store:         kv,
		byCode:        make(map[string]*model.OfflineTicket),
		pendingByCode: make(map[string]struct{}),
	}
}

// 最後下載的活動，重啟時據此還原
const activeEventKey = "offline:active_event"

// 每個活動自己的三個 key，活動之間互不讀寫
func ticketsKey(eventID uuid.UUID) string {
	return fmt.Sprintf("offline:%s:tickets", eventID)
}

func checkinsKey(eventID uuid.UUID) string {
	return fmt.Sprintf("offline:%s:checkins", eventID)
}

func downloadedAtKey(eventID uuid.UUID) string {
	return fmt.Sprintf("offline:%s:downloaded_at", eventID)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func fallbackFor(lang string) struct {
	Holder   string
	Category string
} {
	// "de-AT" 之類的 tag 只取語言部分
	if idx := strings.IndexAny(lang, "-_"); idx > 0 {
		lang = lang[:idx]
	}
	if fb, ok := displayFallbacks[strings.ToLower(lang)]; ok {
		return fb
	}
	return displayFallbacks["en"]
}

func (c *OfflineEventCacheImpl) Load(eventID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loadLocked(eventID)
}

func (c *OfflineEventCacheImpl) LoadActive() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok, err := c.store.Get(activeEventKey)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	eventID, err := uuid.Parse(string(raw))
	if err != nil {
		return err
	}
	return c.loadLocked(eventID)
}

func (c *OfflineEventCacheImpl) loadLocked(eventID uuid.UUID) error {
	raw, ok, err := c.store.Get(ticketsKey(eventID))
	if err != nil {
		return err
	}

	c.resetLocked()
	c.eventID = eventID

	if !ok {
		return nil
	}

	var tickets []*model.OfflineTicket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return err
	}

	var checkins []model.LocalCheckin
	rawCheckins, ok, err := c.store.Get(checkinsKey(eventID))
	if err != nil {
		return err
	}
	if ok {
		if err := json.Unmarshal(rawCheckins, &checkins); err != nil {
			return err
		}
	}

	rawAt, ok, err := c.store.Get(downloadedAtKey(eventID))
	if err != nil {
		return err
	}
	if ok {
		at, err := time.Parse(time.RFC3339, string(rawAt))
		if err != nil {
			return err
		}
		c.lastDownloadAt = &at
	}

	c.hasSnapshot = true
	c.tickets = tickets
	c.checkins = checkins
	c.rebuildIndexLocked()

	return nil
}

func (c *OfflineEventCacheImpl) ReplaceSnapshot(eventID uuid.UUID, rows []model.EventTicketRow, lang string) (int, error) {
	fb := fallbackFor(lang)

	tickets := make([]*model.OfflineTicket, 0, len(rows))
	for _, row := range rows {
		holder := fb.Holder
		if row.HolderName != nil && *row.HolderName != "" {
			holder = *row.HolderName
		}
		category := fb.Category
		if row.CategoryName != nil && *row.CategoryName != "" {
			category = *row.CategoryName
		}

		tickets = append(tickets, &model.OfflineTicket{
			TicketID:     row.TicketID,
			EventID:      eventID,
			Code:         row.Code,
			Status:       row.Status,
			CheckedInAt:  row.CheckedInAt,
			HolderName:   holder,
			CategoryName: category,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()

	// 尚未同步的紀錄跨下載保留，只有明確的清除操作才會移除它們
	carried := make([]model.LocalCheckin, 0)
	if c.hasSnapshot && c.eventID == eventID {
		for _, record := range c.checkins {
			if !record.Synced {
				carried = append(carried, record)
			}
		}
	}

	// 保留紀錄對應的票在新快照裡標回 used，快照狀態與待同步紀錄才一致
	if len(carried) > 0 {
		index := make(map[string]*model.OfflineTicket, len(tickets))
		for _, ticket := range tickets {
			index[normalizeCode(ticket.Code)] = ticket
		}
		for _, record := range carried {
			if ticket, ok := index[normalizeCode(record.Code)]; ok {
				at := record.CheckedInAt
				ticket.Status = model.TicketStatusUsed
				ticket.CheckedInAt = &at
			}
		}
	}

	// 先落地再改記憶體狀態，寫入失敗時舊快照原封不動
	if err := c.persistSnapshot(eventID, tickets, carried, now); err != nil {
		return 0, err
	}

	c.eventID = eventID
	c.hasSnapshot = true
	c.tickets = tickets
	c.checkins = carried
	c.lastDownloadAt = &now
	c.rebuildIndexLocked()

	return len(tickets), nil
}

func (c *OfflineEventCacheImpl) CheckIn(code string) (*model.CheckinReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasSnapshot {
		return nil, apperrors.ErrNoSnapshot
	}

	norm := normalizeCode(code)
	ticket, ok := c.byCode[norm]
	if !ok {
		// 快照裡沒有不代表遠端沒有，這是離線操作的限制
		return nil, apperrors.ErrTicketNotFoundOffline
	}

	if _, pending := c.pendingByCode[norm]; pending || ticket.Status == model.TicketStatusUsed {
		return nil, apperrors.ErrTicketAlreadyUsed
	}

	if ticket.Status == model.TicketStatusCancelled {
		return nil, apperrors.ErrTicketCancelled
	}

	now := time.Now().UTC()
	record := model.LocalCheckin{
		TicketID:     ticket.TicketID,
		Code:         ticket.Code,
		CheckedInAt:  now,
		HolderName:   ticket.HolderName,
		CategoryName: ticket.CategoryName,
		Synced:       false,
	}

	prevStatus := ticket.Status
	prevCheckedInAt := ticket.CheckedInAt

	c.checkins = append(c.checkins, record)
	c.pendingByCode[norm] = struct{}{}
	ticket.Status = model.TicketStatusUsed
	ticket.CheckedInAt = &now

	if err := c.persistStateLocked(); err != nil {
		// 落地失敗就把記憶體狀態還原，維持快照與紀錄的一致性
		c.checkins = c.checkins[:len(c.checkins)-1]
		delete(c.pendingByCode, norm)
		ticket.Status = prevStatus
		ticket.CheckedInAt = prevCheckedInAt
		return nil, err
	}

	return &model.CheckinReceipt{
		TicketID:     ticket.TicketID,
		EventID:      ticket.EventID,
		Code:         ticket.Code,
		HolderName:   ticket.HolderName,
		CategoryName: ticket.CategoryName,
		CheckedInAt:  now,
	}, nil
}

func (c *OfflineEventCacheImpl) UnsyncedCheckins() []model.LocalCheckin {
	c.mu.RLock()
	defer c.mu.RUnlock()

	unsynced := make([]model.LocalCheckin, 0)
	for _, record := range c.checkins {
		if !record.Synced {
			unsynced = append(unsynced, record)
		}
	}
	return unsynced
}

func (c *OfflineEventCacheImpl) MarkSynced(records []model.LocalCheckin) error {
	if len(records) == 0 {
		return nil
	}

	attempted := make(map[uuid.UUID]struct{}, len(records))
	for _, record := range records {
		attempted[record.TicketID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.checkins {
		if _, ok := attempted[c.checkins[i].TicketID]; ok {
			c.checkins[i].Synced = true
		}
	}

	return c.persistStateLocked()
}

func (c *OfflineEventCacheImpl) Clear(eventID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(ticketsKey(eventID)); err != nil {
		return err
	}
	if err := c.store.Delete(checkinsKey(eventID)); err != nil {
		return err
	}
	if err := c.store.Delete(downloadedAtKey(eventID)); err != nil {
		return err
	}

	// 還原標記指向這個活動時一併移除
	raw, ok, err := c.store.Get(activeEventKey)
	if err != nil {
		return err
	}
	if ok && string(raw) == eventID.String() {
		if err := c.store.Delete(activeEventKey); err != nil {
			return err
		}
	}

	if c.eventID == eventID {
		c.resetLocked()
	}

	return nil
}

func (c *OfflineEventCacheImpl) Status() model.OfflineStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := model.OfflineStatus{
		HasSnapshot: c.hasSnapshot,
		TicketCount: len(c.tickets),
	}

	if c.hasSnapshot {
		eventID := c.eventID
		status.EventID = &eventID
	}
	if c.lastDownloadAt != nil {
		at := *c.lastDownloadAt
		status.LastDownloadAt = &at
	}
	for _, record := range c.checkins {
		if !record.Synced {
			status.PendingUnsynced++
		}
	}

	return status
}

// persistSnapshot 落地整份快照與紀錄，caller 持有鎖
func (c *OfflineEventCacheImpl) persistSnapshot(eventID uuid.UUID, tickets []*model.OfflineTicket, checkins []model.LocalCheckin, downloadedAt time.Time) error {
	rawTickets, err := json.Marshal(tickets)
	if err != nil {
		return err
	}
	rawCheckins, err := json.Marshal(checkins)
	if err != nil {
		return err
	}

	if err := c.store.Set(ticketsKey(eventID), rawTickets); err != nil {
		return err
	}
	if err := c.store.Set(checkinsKey(eventID), rawCheckins); err != nil {
		return err
	}
	if err := c.store.Set(downloadedAtKey(eventID), []byte(downloadedAt.Format(time.RFC3339))); err != nil {
		return err
	}
	return c.store.Set(activeEventKey, []byte(eventID.String()))
}

// persistStateLocked 落地目前的票券與紀錄，caller 持有鎖
func (c *OfflineEventCacheImpl) persistStateLocked() error {
	rawTickets, err := json.Marshal(c.tickets)
	if err != nil {
		return err
	}
	rawCheckins, err := json.Marshal(c.checkins)
	if err != nil {
		return err
	}

	if err := c.store.Set(ticketsKey(c.eventID), rawTickets); err != nil {
		return err
	}
	return c.store.Set(checkinsKey(c.eventID), rawCheckins)
}

func (c *OfflineEventCacheImpl) rebuildIndexLocked() {
	c.byCode = make(map[string]*model.OfflineTicket, len(c.tickets))
	c.pendingByCode = make(map[string]struct{})

	for _, ticket := range c.tickets {
		c.byCode[normalizeCode(ticket.Code)] = ticket
	}
	for _, record := range c.checkins {
		c.pendingByCode[normalizeCode(record.Code)] = struct{}{}
	}
}

func (c *OfflineEventCacheImpl) resetLocked() {
	c.eventID = uuid.Nil
	c.hasSnapshot = false
	c.tickets = nil
	c.checkins = nil
	c.byCode = make(map[string]*model.OfflineTicket)
	c.pendingByCode = make(map[string]struct{})
	c.lastDownloadAt = nil
}
