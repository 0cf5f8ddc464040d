package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MonthlyStats represents audit statistics for a specific month
type MonthlyStats struct {
	Audits       int            `json:"audits"`
	BySource     map[string]int `json:"by_source"`
	ByConfidence map[string]int `json:"by_confidence"`
	Demotions    int            `json:"demotions"`
	BrandedCaps  int            `json:"branded_caps"`
	Degraded     int            `json:"degraded"`
	APICalls     int            `json:"api_calls"`
	APICredits   float64        `json:"api_credits"`
	PageHits     int            `json:"page_hits"`
	PageMisses   int            `json:"page_misses"`
	LastUpdated  time.Time      `json:"last_updated"`
}

// Audit is what the controller reports about one finished audit.
type Audit struct {
	DataSource string
	Confidence string
	Demoted    bool
	Capped     bool
	Degraded   bool
	APICalls   int
	APICredits float64
}

func (m MonthlyStats) clone() MonthlyStats {
	out := m
	out.BySource = make(map[string]int, len(m.BySource))
	for k, v := range m.BySource {
		out.BySource[k] = v
	}
	out.ByConfidence = make(map[string]int, len(m.ByConfidence))
	for k, v := range m.ByConfidence {
		out.ByConfidence[k] = v
	}
	return out
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, eris.Wrap(err, "failed to create data directory")
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "failed to load stats")
	}

	go s.backgroundWriter()

	return s, nil
}

// load reads statistics from file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes statistics to file
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return eris.Wrap(err, "failed to marshal stats")
	}

	// Write to temporary file first
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return eris.Wrap(err, "failed to write temporary file")
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return eris.Wrap(err, "failed to rename temporary file")
	}

	return nil
}

func (s *Storage) saveAndLog() {
	if err := s.save(); err != nil {
		zap.L().Error("stats: save failed", zap.String("path", s.filePath), zap.Error(err))
	}
}

// backgroundWriter handles periodic writes to disk until Shutdown
func (s *Storage) backgroundWriter() {
	defer close(s.stopped)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.saveAndLog()
		case <-ticker.C:
			s.saveAndLog()
		case <-s.done:
			return
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// month returns the bucket for the current month. Caller holds the write lock.
func (s *Storage) month() *MonthlyStats {
	key := s.currentMonth()
	m, ok := s.stats[key]
	if !ok {
		m = &MonthlyStats{}
		s.stats[key] = m
	}
	if m.BySource == nil {
		m.BySource = make(map[string]int)
	}
	if m.ByConfidence == nil {
		m.ByConfidence = make(map[string]int)
	}
	return m
}

// touch stamps the bucket and requests a write if enough time has passed.
// Caller holds the write lock.
func (s *Storage) touch(m *MonthlyStats) {
	now := s.now()
	m.LastUpdated = now
	if now.Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = now
	}
}

// RecordAudit adds one finished audit to the current month
func (s *Storage) RecordAudit(a Audit) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	m.Audits++
	if a.DataSource != "" {
		m.BySource[a.DataSource]++
	}
	if a.Confidence != "" {
		m.ByConfidence[a.Confidence]++
	}
	if a.Demoted {
		m.Demotions++
	}
	if a.Capped {
		m.BrandedCaps++
	}
	if a.Degraded {
		m.Degraded++
	}
	m.APICalls += a.APICalls
	m.APICredits += a.APICredits
	s.touch(m)
}

// RecordPageCache increments the page cache counters
func (s *Storage) RecordPageCache(hits, misses int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.month()
	m.PageHits += hits
	m.PageMisses += misses
	s.touch(m)
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(s.currentMonth())
	return stats
}

// Cleanup removes statistics older than the given number of months, counting
// the current month.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	oldest := s.now().AddDate(0, -(retainMonths - 1), 0)
	cutoff := time.Date(oldest.Year(), oldest.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")

	s.mutex.Lock()
	var removed []string
	for key := range s.stats {
		if key < cutoff {
			delete(s.stats, key)
			removed = append(removed, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
	zap.L().Debug("stats: cleanup", zap.String("cutoff", cutoff), zap.Strings("removed", removed))
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return stats.clone(), true
	}
	return MonthlyStats{BySource: map[string]int{}, ByConfidence: map[string]int{}}, false
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Flush writes the statistics to disk synchronously
func (s *Storage) Flush() error {
	return s.save()
}

// Shutdown stops the background writer and performs a final save
func (s *Storage) Shutdown() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() { close(s.done) })
	<-s.stopped
	return s.save()
}
