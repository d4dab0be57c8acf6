package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatwire/pkg/auth"
	"chatwire/pkg/domain"
	"chatwire/pkg/storage"
	"chatwire/pkg/store"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const defaultUploadTimeout = 15 * time.Second

// Delivery pushes live events to connected participants. Implementations
// are best-effort; the app never depends on a push having landed.
type Delivery interface {
	DeliverNewMessage(domain.Message)
	DeliverReactionUpdate(update domain.ReactionUpdate, senderID, receiverID string)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	JWTSecret     string
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	UploadTimeout time.Duration

	Store    store.Store
	Sessions store.SessionStore
	Uploader storage.ImageUploader
	Delivery Delivery
}

// App is the core application service wiring storage, sessions, uploads and
// live delivery together.
type App struct {
	store         store.Store
	sessions      store.SessionStore
	uploader      storage.ImageUploader
	delivery      Delivery
	uploadTimeout time.Duration
}

// New constructs the application. Store and Sessions default to Postgres
// and JWT+Redis when not injected.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		var revoker store.TokenRevoker
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
		var err error
		sessionStore, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker)
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
	}

	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}

	return &App{
		store:         dataStore,
		sessions:      sessionStore,
		uploader:      cfg.Uploader,
		delivery:      cfg.Delivery,
		uploadTimeout: uploadTimeout,
	}, nil
}

// SignUp registers a new user and issues a session token.
func (a *App) SignUp(fullName, email, password, bio string) (domain.User, string, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(strings.ToLower(email))
	bio = strings.TrimSpace(bio)
	if fullName == "" || email == "" || password == "" || bio == "" {
		return domain.User{}, "", ErrAllFieldsRequired
	}
	if !emailRe.MatchString(email) {
		return domain.User{}, "", ErrInvalidEmail
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		Bio:          bio,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", ErrAllFieldsRequired
	}
	if !emailRe.MatchString(email) {
		return domain.User{}, "", ErrInvalidEmail
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Logout invalidates the session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// UpdateProfile applies the provided profile fields. A profilePic data-URL
// is uploaded to object storage before the user row changes.
func (a *App) UpdateProfile(ctx context.Context, user domain.User, fullName, bio, profilePic string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	bio = strings.TrimSpace(bio)
	if fullName == "" && bio == "" && profilePic == "" {
		return domain.User{}, ErrNoProfileFields
	}
	if profilePic != "" {
		url, err := a.uploadImage(ctx, "profile-pictures", profilePic)
		if err != nil {
			return domain.User{}, err
		}
		user.ProfilePic = url
	}
	if fullName != "" {
		user.FullName = fullName
	}
	if bio != "" {
		user.Bio = bio
	}
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ListContacts returns every other user together with the per-sender unseen
// message counts for the viewer. Counts are derived from the message rows on
// each call, never tracked separately.
func (a *App) ListContacts(viewer domain.User) ([]domain.User, map[string]int, error) {
	users, err := a.store.ListUsersExcept(viewer.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}
	unseen, err := a.store.CountUnseen(viewer.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("count unseen: %w", err)
	}
	return users, unseen, nil
}

// GetConversation returns the viewer's history with peerID in creation
// order. Opening the conversation marks everything unseen from the peer as
// seen; the store does both in one transaction.
func (a *App) GetConversation(viewer domain.User, peerID string) ([]domain.Message, error) {
	if _, ok, err := a.store.GetUserByID(peerID); err != nil {
		return nil, fmt.Errorf("fetch peer: %w", err)
	} else if !ok {
		return nil, ErrReceiverNotFound
	}
	msgs, err := a.store.FetchConversation(viewer.ID, peerID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}
	return msgs, nil
}

// SendMessage stores a message and pushes it to the receiver when online.
// An image is uploaded and verified before the row is created, so a failed
// upload leaves no partial message behind.
func (a *App) SendMessage(ctx context.Context, sender domain.User, receiverID, text, image string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if _, ok, err := a.store.GetUserByID(receiverID); err != nil {
		return domain.Message{}, fmt.Errorf("fetch receiver: %w", err)
	} else if !ok {
		return domain.Message{}, ErrReceiverNotFound
	}

	imageURL := ""
	if image != "" {
		url, err := a.uploadImage(ctx, "messages", image)
		if err != nil {
			return domain.Message{}, err
		}
		imageURL = url
	}

	msg := domain.Message{
		ID:         uuid.NewString(),
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      imageURL,
		Seen:       false,
		Reactions:  []domain.Reaction{},
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.store.CreateMessage(msg); err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	if a.delivery != nil {
		a.delivery.DeliverNewMessage(msg)
	}
	return msg, nil
}

// MarkMessageSeen flips a single message to seen. Only the receiver of a
// still-unseen message may do this; everything else reports failure without
// any state change.
func (a *App) MarkMessageSeen(viewer domain.User, messageID string) error {
	ok, err := a.store.MarkMessageSeen(messageID, viewer.ID)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	if !ok {
		return ErrMessageNotSeen
	}
	return nil
}

// ReactToMessage toggles the (viewer, emoji) reaction on a message and
// pushes the updated list to both participants.
func (a *App) ReactToMessage(viewer domain.User, messageID, emoji string) ([]domain.Reaction, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, ErrEmojiRequired
	}
	msg, ok, err := a.store.GetMessage(messageID)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	if !ok {
		return nil, ErrMessageNotFound
	}
	if !msg.IsParticipant(viewer.ID) {
		return nil, ErrNotParticipant
	}
	reactions, found, err := a.store.ToggleReaction(messageID, viewer.ID, emoji)
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}
	if !found {
		return nil, ErrMessageNotFound
	}
	if a.delivery != nil {
		update := domain.ReactionUpdate{MessageID: messageID, Reactions: reactions}
		a.delivery.DeliverReactionUpdate(update, msg.SenderID, msg.ReceiverID)
	}
	return reactions, nil
}

func (a *App) uploadImage(ctx context.Context, folder, dataURL string) (string, error) {
	if a.uploader == nil {
		return "", ErrImageUpload
	}
	ctx, cancel := context.WithTimeout(ctx, a.uploadTimeout)
	defer cancel()
	url, err := a.uploader.UploadImage(ctx, folder, dataURL)
	if err != nil {
		slog.Warn("image upload failed", "folder", folder, "err", err)
		return "", ErrImageUpload
	}
	return url, nil
}
