package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lyrion-studio/lyrion-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotStored = errors.New("no document stored under key")

// Storage is a string-keyed store of opaque JSON blobs, the server-side
// counterpart of the browser's localStorage.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

type MemoryStorage struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.docs[key]
	if !ok {
		return nil, ErrNotStored
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStorage) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

// DBStorage keeps one guest session's documents in the session_documents table.
type DBStorage struct {
	db        *gorm.DB
	sessionID string
}

func NewDBStorage(db *gorm.DB, sessionID string) *DBStorage {
	return &DBStorage{db: db, sessionID: sessionID}
}

func (s *DBStorage) Get(key string) ([]byte, error) {
	var doc models.SessionDocument
	err := s.db.Where("session_id = ? AND doc_key = ?", s.sessionID, key).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotStored
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return []byte(doc.Body), nil
}

func (s *DBStorage) Set(key string, value []byte) error {
	doc := models.SessionDocument{
		SessionID: s.sessionID,
		Key:       key,
		Body:      string(value),
		UpdatedAt: time.Now(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&doc).Error
}

func (s *DBStorage) Remove(key string) error {
	return s.db.Where("session_id = ? AND doc_key = ?", s.sessionID, key).
		Delete(&models.SessionDocument{}).Error
}
