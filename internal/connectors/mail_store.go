package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"pricelist/internal"
	"pricelist/internal/storage"
)

type MailStoreService struct {
	db         *storage.DB
	rawMailDir string
}

func NewMailStoreService(db *storage.DB, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

// Store writes the raw message to disk (content-addressed, so refetches
// dedupe) and registers it for processing.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.MailRow, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.MailRow{}, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.MailRow{}, err
		}
	}

	// A message already processed keeps its status; refetching must not
	// queue it again.
	if existing, err := s.db.GetMailByProviderMessageID(msg.Provider, msg.MessageID); err != nil {
		return internal.MailRow{}, err
	} else if existing != nil && existing.Status != "fetched" {
		return *existing, nil
	}

	return s.db.UpsertMail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
}
