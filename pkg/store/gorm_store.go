package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"chatwire/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &MessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "bio", "profile_pic", "password_hash", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsersExcept returns all users other than id, oldest first.
func (s *GormStore) ListUsersExcept(id string) ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Where("id <> ?", id).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// CreateMessage inserts a new message row.
func (s *GormStore) CreateMessage(msg domain.Message) error {
	model, err := messageToModel(msg)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// GetMessage retrieves one message.
func (s *GormStore) GetMessage(id string) (domain.Message, bool, error) {
	var model MessageModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, err
	}
	return messageFromModel(model), true, nil
}

// FetchConversation returns both directions of the pair history in creation
// order. The seen flip for peer->viewer messages runs in the same
// transaction as the select, so the response never shows stale seen state.
func (s *GormStore) FetchConversation(viewerID, peerID string) ([]domain.Message, error) {
	var models []MessageModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&MessageModel{}).
			Where("sender_id = ? AND receiver_id = ? AND seen = ?", peerID, viewerID, false).
			Update("seen", true).Error; err != nil {
			return err
		}
		return tx.
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				viewerID, peerID, peerID, viewerID).
			Order("created_at ASC").
			Find(&models).Error
	})
	if err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	return msgs, nil
}

// MarkMessageSeen flips one unseen message addressed to receiverID. The
// guards live in the WHERE clause so the update is a single atomic statement.
func (s *GormStore) MarkMessageSeen(messageID, receiverID string) (bool, error) {
	res := s.db.Model(&MessageModel{}).
		Where("id = ? AND receiver_id = ? AND seen = ?", messageID, receiverID, false).
		Update("seen", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountUnseen groups unseen messages for receiverID by sender.
func (s *GormStore) CountUnseen(receiverID string) (map[string]int, error) {
	var rows []struct {
		SenderID string
		Total    int
	}
	if err := s.db.Model(&MessageModel{}).
		Select("sender_id, COUNT(*) AS total").
		Where("receiver_id = ? AND seen = ?", receiverID, false).
		Group("sender_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Total
	}
	return counts, nil
}

// ToggleReaction locks the message row, flips the (userID, emoji) entry and
// writes the updated list back in one transaction.
func (s *GormStore) ToggleReaction(messageID, userID, emoji string) ([]domain.Reaction, bool, error) {
	var updated []domain.Reaction
	found := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var model MessageModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		msg := messageFromModel(model)
		updated = domain.ToggleReaction(msg.Reactions, userID, emoji)
		raw, err := json.Marshal(updated)
		if err != nil {
			return err
		}
		return tx.Model(&MessageModel{}).
			Where("id = ?", messageID).
			Update("reactions", datatypes.JSON(raw)).Error
	})
	if err != nil {
		return nil, false, err
	}
	return updated, found, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Bio:          u.Bio,
		ProfilePic:   u.ProfilePic,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		FullName:     m.FullName,
		Bio:          m.Bio,
		ProfilePic:   m.ProfilePic,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) (MessageModel, error) {
	reactions := msg.Reactions
	if reactions == nil {
		reactions = []domain.Reaction{}
	}
	raw, err := json.Marshal(reactions)
	if err != nil {
		return MessageModel{}, err
	}
	return MessageModel{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		Image:      msg.Image,
		Seen:       msg.Seen,
		Reactions:  datatypes.JSON(raw),
		CreatedAt:  msg.CreatedAt,
	}, nil
}

func messageFromModel(m MessageModel) domain.Message {
	reactions := []domain.Reaction{}
	if len(m.Reactions) > 0 {
		_ = json.Unmarshal(m.Reactions, &reactions)
	}
	return domain.Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		Image:      m.Image,
		Seen:       m.Seen,
		Reactions:  reactions,
		CreatedAt:  m.CreatedAt,
	}
}
