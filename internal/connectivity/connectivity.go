package connectivity

import (
	"context"
	"sync"
	"time"
	"wichty-checkin/pkg/logger"

	"go.uber.org/zap"
)

// Source 對外的連線狀態訊號
// Changes 只送出狀態轉換（true = 離線轉上線），訂閱者靠它做邊緣觸發的同步
type Source interface {
	Online() bool
	Changes() <-chan bool
}

// ManualSource 手動切換的連線狀態，測試與強制離線模式用
type ManualSource struct {
	mu     sync.Mutex
	online bool
	ch     chan bool
}

func NewManualSource(online bool) *ManualSource {
	return &ManualSource{
		online: online,
		ch:     make(chan bool, 16),
	}
}

func (s *ManualSource) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *ManualSource) Changes() <-chan bool {
	return s.ch
}

// SetOnline 切換狀態，只有真的轉換時才送出事件
func (s *ManualSource) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.online == online {
		return
	}
	s.online = online

	sendLatest(s.ch, online)
}

// sendLatest 送出轉換事件；通道滿時丟棄最舊的事件，最新的轉換不能遺失
func sendLatest(ch chan bool, online bool) {
	select {
	case ch <- online:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- online:
	default:
	}
}

// Pinger 連線探測的對象，pgxpool.Pool 直接符合
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingMonitor 定時探測遠端資料庫，偵測離線與上線的轉換
type PingMonitor struct {
	pinger   Pinger
	interval time.Duration

	mu     sync.Mutex
	online bool
	ch     chan bool
}

func NewPingMonitor(pinger Pinger, interval time.Duration) *PingMonitor {
	return &PingMonitor{
		pinger:   pinger,
		interval: interval,
		online:   true, // 啟動時樂觀假設在線，第一輪探測會修正
		ch:       make(chan bool, 16),
	}
}

func (m *PingMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *PingMonitor) Changes() <-chan bool {
	return m.ch
}

// Start 啟動探測迴圈，ctx 結束時停止
func (m *PingMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe(ctx)
			}
		}
	}()
}

func (m *PingMonitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	online := m.pinger.Ping(probeCtx) == nil

	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if !changed {
		return
	}

	logger.WithComponent("connectivity").Info("connectivity changed", zap.Bool("online", online))

	sendLatest(m.ch, online)
}
