package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/queless/trinity-canteen-api/models"
	"gorm.io/gorm"
)

// TokenService issues queue token numbers and manages numbering sessions.
// The counter lives in a single database row; token numbers restart at 1
// whenever the admin resets the counter under a fresh session id.
type TokenService struct {
	db *gorm.DB
}

// NewTokenService creates a token service backed by the given database
func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{db: db}
}

// IssueNext returns the next token number together with the session id it
// belongs to, and advances the stored counter. A missing counter row is
// treated as {lastTokenNumber: 0, sessionId: "default"} and created on the
// spot. The read and the increment run inside one transaction so that the
// row lock on the counter serializes concurrent submissions; the increment
// itself is a standalone atomic UPDATE against the row.
func (s *TokenService) IssueNext() (int, string, error) {
	var tokenNumber int
	var sessionID string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		counter := models.SessionCounter{
			ID:        models.SessionCounterID,
			SessionID: models.DefaultSessionID,
		}
		if err := tx.Where(models.SessionCounter{ID: models.SessionCounterID}).
			FirstOrCreate(&counter).Error; err != nil {
			return fmt.Errorf("failed to load session counter: %w", err)
		}

		tokenNumber = counter.LastTokenNumber + 1
		sessionID = counter.SessionID

		if err := tx.Model(&models.SessionCounter{}).
			Where("id = ?", models.SessionCounterID).
			Update("last_token_number", gorm.Expr("last_token_number + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to increment token counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}

	return tokenNumber, sessionID, nil
}

// Reset starts a fresh numbering session: the counter is overwritten to zero
// under a new session id derived from the current time. Orders issued under
// earlier sessions keep their old session id and are filtered out of the
// admin's default view. Returns the new session id.
func (s *TokenService) Reset() (string, error) {
	// Nanosecond resolution so back-to-back resets still get distinct ids.
	newSessionID := strconv.FormatInt(time.Now().UnixNano(), 10)

	counter := models.SessionCounter{
		ID:              models.SessionCounterID,
		LastTokenNumber: 0,
		SessionID:       newSessionID,
	}
	if err := s.db.Save(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to reset session counter: %w", err)
	}

	return newSessionID, nil
}

// CurrentSession returns the active session id, or "default" when the
// counter row has never been written.
func (s *TokenService) CurrentSession() (string, error) {
	var counter models.SessionCounter
	err := s.db.First(&counter, models.SessionCounterID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.DefaultSessionID, nil
		}
		return "", fmt.Errorf("failed to load session counter: %w", err)
	}
	return counter.SessionID, nil
}
