package transcript

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is a listed session summary.
type Entry struct {
	SessionID string
	Command   string
	Reason    string
	Started   time.Time
	Ended     time.Time
	Exchanges int
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Store{db: db}, nil
}

// BeginSession records the start of a run and returns its session ID.
func (s *Store) BeginSession(command string) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("transcript store is not initialized")
	}
	sessionID := uuid.NewString()
	row := SessionRecord{
		SessionID: sessionID,
		Command:   strings.TrimSpace(command),
		StartedAt: time.Now().UTC().Unix(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return "", err
	}
	return sessionID, nil
}

// RecordExchange appends one prompt/response pair to a session.
func (s *Store) RecordExchange(sessionID string, seq int, prompt, response string) error {
	if s == nil || s.db == nil {
		return errors.New("transcript store is not initialized")
	}
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session id is required")
	}
	row := ExchangeRecord{
		SessionID: sessionID,
		Seq:       seq,
		Prompt:    prompt,
		Response:  response,
		SentAt:    time.Now().UTC().Unix(),
	}
	return s.db.Create(&row).Error
}

// EndSession stamps the terminal reason and end time.
func (s *Store) EndSession(sessionID, reason string) error {
	if s == nil || s.db == nil {
		return errors.New("transcript store is not initialized")
	}
	return s.db.Model(&SessionRecord{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{
			"reason":   strings.TrimSpace(reason),
			"ended_at": time.Now().UTC().Unix(),
		}).Error
}

// List returns the most recent sessions, newest first.
func (s *Store) List(limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("transcript store is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	rows := make([]SessionRecord, 0, limit)
	if err := s.db.Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		var count int64
		if err := s.db.Model(&ExchangeRecord{}).
			Where("session_id = ?", row.SessionID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			SessionID: row.SessionID,
			Command:   row.Command,
			Reason:    row.Reason,
			Started:   time.Unix(row.StartedAt, 0).UTC(),
			Ended:     time.Unix(row.EndedAt, 0).UTC(),
			Exchanges: int(count),
		})
	}
	return entries, nil
}

// Exchanges returns a session's prompt/response pairs in send order.
func (s *Store) Exchanges(sessionID string) ([]ExchangeRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("transcript store is not initialized")
	}
	var rows []ExchangeRecord
	err := s.db.Where("session_id = ?", sessionID).Order("seq ASC").Find(&rows).Error
	return rows, err
}
