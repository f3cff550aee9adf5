package store

// KeyValueStore 本地持久化的鍵值存取邊界
// 離線快照與待同步紀錄都透過它落地，方便在測試注入記憶體實作
type KeyValueStore interface {
	// 讀取 key 的值，第二個回傳值表示 key 是否存在
	Get(key string) ([]byte, bool, error)
	// 寫入或覆蓋 key 的值
	Set(key string, value []byte) error
	// 刪除 key，key 不存在不算錯誤
	Delete(key string) error
	Close() error
}
