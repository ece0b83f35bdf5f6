package reminder

import "sync"

// AuditState holds the last dispatch record. Last write wins.
type AuditState struct {
	mu   sync.RWMutex
	last AuditRecord
}

func NewAuditState() *AuditState { return &AuditState{} }

func (s *AuditState) Record(r AuditRecord) {
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
}

func (s *AuditState) Last() AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
