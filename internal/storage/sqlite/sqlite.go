package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkeye/VoiceRelay/internal/storage"
)

const defaultLimit = 200

var _ storage.Store = (*Store)(nil)

// Store is a GORM-backed SQLite implementation of storage.Store.
type Store struct {
	db *gorm.DB
}

type userModel struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	Email     string `gorm:"uniqueIndex"`
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userModel) TableName() string { return "users" }

type messageModel struct {
	ID         uint   `gorm:"primaryKey"`
	Sender     string `gorm:"index:idx_pair,priority:1"`
	Receiver   string `gorm:"index:idx_pair,priority:2"`
	RoomKey    string `gorm:"index"`
	SenderName string
	Content    string
	CreatedAt  time.Time `gorm:"index"`
}

func (messageModel) TableName() string { return "messages" }

// NewStore opens a SQLite database at the provided path.
func NewStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies schema updates.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&userModel{}, &messageModel{})
}

// CreateUser stores a new user record.
func (s *Store) CreateUser(ctx context.Context, user *storage.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&userModel{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrConflict
	}
	model := userModel{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return storage.ErrConflict
		}
		return err
	}
	return nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) findUser(ctx context.Context, query string, arg string) (*storage.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &storage.User{
		ID:        model.ID,
		Username:  model.Username,
		Email:     model.Email,
		Password:  model.Password,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

func (s *Store) SaveMessage(ctx context.Context, msg *storage.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	model := messageModel{
		Sender:     msg.Sender,
		Receiver:   msg.Receiver,
		RoomKey:    msg.RoomKey,
		SenderName: msg.SenderName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	msg.ID = model.ID
	return nil
}

// Conversation returns the direct messages between a and b, oldest first.
func (s *Store) Conversation(ctx context.Context, a, b string, limit int) ([]storage.Message, error) {
	q := s.db.WithContext(ctx).
		Where("(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)", a, b, b, a)
	return s.history(q, limit)
}

// RoomHistory returns the messages posted to roomKey, oldest first.
func (s *Store) RoomHistory(ctx context.Context, roomKey string, limit int) ([]storage.Message, error) {
	return s.history(s.db.WithContext(ctx).Where("room_key = ?", roomKey), limit)
}

func (s *Store) history(q *gorm.DB, limit int) ([]storage.Message, error) {
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	var models []messageModel
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]storage.Message, len(models))
	for i, m := range models {
		out[len(models)-1-i] = storage.Message{
			ID:         m.ID,
			Sender:     m.Sender,
			SenderName: m.SenderName,
			Receiver:   m.Receiver,
			RoomKey:    m.RoomKey,
			Content:    m.Content,
			CreatedAt:  m.CreatedAt,
		}
	}
	return out, nil
}
