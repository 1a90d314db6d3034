package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"retwis/models"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/argon2"
)

// UserService - регистрация, аутентификация и токены.
// Все состояние живет в Redis: user-id:<id> (hash), name-to-id:<name>,
// token-for-user:<id>, user-for-token:<token>, список all-users.
type UserService struct {
	counters *CounterService
}

func NewUserService() *UserService {
	return &UserService{counters: NewCounterService()}
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(hash) == parts[1]
}

// Register создает пользователя и сразу выдает токен.
// Проверка занятости имени - check-then-act без блокировки: две
// одновременные регистрации одного имени могут обе пройти.
func (us *UserService) Register(ctx context.Context, name, password string) (uid, token string, err error) {
	taken, err := us.IsUserValid(ctx, name)
	if err != nil {
		return "", "", err
	}
	if taken {
		return "", "", ErrNameTaken
	}

	uid, err = us.counters.NextUserID(ctx)
	if err != nil {
		return "", "", err
	}

	passHash, err := hashPassword(password)
	if err != nil {
		return "", "", err
	}

	err = RedisClient.HSet(ctx, keyUser(uid), map[string]interface{}{
		models.UserFieldName: name,
		models.UserFieldPass: passHash,
	}).Err()
	if err != nil {
		return "", "", fmt.Errorf("failed to save user: %w", err)
	}

	if err = RedisClient.Set(ctx, keyNameToID(name), uid, 0).Err(); err != nil {
		return "", "", fmt.Errorf("failed to save name mapping: %w", err)
	}

	if err = RedisClient.LPush(ctx, KeyAllUsers, name).Err(); err != nil {
		return "", "", fmt.Errorf("failed to register user in global list: %w", err)
	}

	token, err = us.AddAuth(ctx, name)
	if err != nil {
		return "", "", err
	}
	return uid, token, nil
}

// Auth сверяет пароль. Неизвестное имя и неверный пароль для
// вызывающего неразличимы - оба дают false
func (us *UserService) Auth(ctx context.Context, name, password string) (bool, error) {
	uid, err := us.FindUID(ctx, name)
	if err != nil {
		return false, err
	}
	if uid == "" {
		return false, nil
	}

	stored, err := RedisClient.HGet(ctx, keyUser(uid), models.UserFieldPass).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read credentials: %w", err)
	}
	return verifyPassword(stored, password), nil
}

// AddAuth выдает новый токен. Прямой маппинг token-for-user
// перезаписывается; прежний ключ user-for-token не удаляется,
// так что старый токен резолвится до явного Logout
func (us *UserService) AddAuth(ctx context.Context, name string) (string, error) {
	uid, err := us.FindUID(ctx, name)
	if err != nil {
		return "", err
	}
	if uid == "" {
		return "", ErrUnknownUser
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	if err := RedisClient.Set(ctx, keyTokenForUser(uid), token, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	if err := RedisClient.Set(ctx, keyUserForToken(token), uid, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to save token mapping: %w", err)
	}
	return token, nil
}

// RevokeAuth удаляет текущий токен пользователя в обе стороны
func (us *UserService) RevokeAuth(ctx context.Context, name string) error {
	uid, err := us.FindUID(ctx, name)
	if err != nil {
		return err
	}
	if uid == "" {
		return ErrUnknownUser
	}

	token, err := RedisClient.Get(ctx, keyTokenForUser(uid)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}
	return RedisClient.Del(ctx, keyTokenForUser(uid), keyUserForToken(token)).Err()
}

// NameForToken возвращает имя владельца токена, пустую строку если
// любой из двух переходов (token->uid, uid->name) не находит ключа
func (us *UserService) NameForToken(ctx context.Context, token string) (string, error) {
	uid, err := RedisClient.Get(ctx, keyUserForToken(token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}
	return us.FindName(ctx, uid)
}

// FindUID возвращает id по имени, пустую строку если имя неизвестно
func (us *UserService) FindUID(ctx context.Context, name string) (string, error) {
	uid, err := RedisClient.Get(ctx, keyNameToID(name)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve name %q: %w", name, err)
	}
	return uid, nil
}

// FindName возвращает имя по id, пустую строку если id неизвестен
func (us *UserService) FindName(ctx context.Context, uid string) (string, error) {
	if uid == "" {
		return "", nil
	}
	name, err := RedisClient.HGet(ctx, keyUser(uid), models.UserFieldName).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve uid %s: %w", uid, err)
	}
	return name, nil
}

// IsUserValid проверяет, существует ли пользователь с таким именем
func (us *UserService) IsUserValid(ctx context.Context, name string) (bool, error) {
	n, err := RedisClient.Exists(ctx, keyNameToID(name)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return n > 0, nil
}
