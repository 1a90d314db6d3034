package services

import (
	"context"
	"fmt"
	"time"
)

const (
	// DERIVED_SET_TTL - время жизни материализованных пересечений.
	// Ключ не удаляется явно, накопление одноразовых ключей
	// ограничивается только истечением TTL.
	DERIVED_SET_TTL = 5 * time.Second
)

// GraphService - граф подписок. Ребро хранится избыточно в двух
// множествах (following-of подписчика и followers-of адресата),
// оба обновляются парой одиночных команд без транзакции: обрыв
// между ними оставляет несимметричное ребро, это принятый пробел
// консистентности, он не чинится автоматически.
type GraphService struct {
	timeline *TimelineService
}

func NewGraphService() *GraphService {
	return &GraphService{timeline: NewTimelineService()}
}

// Follow добавляет подписку uid -> targetUID
func (gs *GraphService) Follow(ctx context.Context, uid, targetUID string) error {
	if err := RedisClient.SAdd(ctx, keyFollowing(uid), targetUID).Err(); err != nil {
		return fmt.Errorf("failed to add following edge: %w", err)
	}
	if err := RedisClient.SAdd(ctx, keyFollowers(targetUID), uid).Err(); err != nil {
		return fmt.Errorf("failed to add followers edge: %w", err)
	}
	return nil
}

// StopFollowing убирает подписку uid -> targetUID
func (gs *GraphService) StopFollowing(ctx context.Context, uid, targetUID string) error {
	if err := RedisClient.SRem(ctx, keyFollowing(uid), targetUID).Err(); err != nil {
		return fmt.Errorf("failed to remove following edge: %w", err)
	}
	if err := RedisClient.SRem(ctx, keyFollowers(targetUID), uid).Err(); err != nil {
		return fmt.Errorf("failed to remove followers edge: %w", err)
	}
	return nil
}

func (gs *GraphService) IsFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	ok, err := RedisClient.SIsMember(ctx, keyFollowing(uid), targetUID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check following: %w", err)
	}
	return ok, nil
}

// FollowerUIDs возвращает id подписчиков (для фан-аута)
func (gs *GraphService) FollowerUIDs(ctx context.Context, uid string) ([]string, error) {
	uids, err := RedisClient.SMembers(ctx, keyFollowers(uid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read followers: %w", err)
	}
	return uids, nil
}

// GetFollowers возвращает имена подписчиков
func (gs *GraphService) GetFollowers(ctx context.Context, uid string) ([]string, error) {
	return gs.timeline.UIDsToNames(ctx, keyFollowers(uid))
}

// GetFollowing возвращает имена, на кого подписан пользователь
func (gs *GraphService) GetFollowing(ctx context.Context, uid string) ([]string, error) {
	return gs.timeline.UIDsToNames(ctx, keyFollowing(uid))
}

// AlsoFollowed: на кого из подписок targetUID подписан и uid.
// Пересечение материализуется под производным ключом с коротким
// TTL, чтобы резолв имен прошел одним батч-джойном
func (gs *GraphService) AlsoFollowed(ctx context.Context, uid, targetUID string) ([]string, error) {
	return gs.intersect(ctx, keyAlsoFollowed(uid, targetUID),
		keyFollowing(uid), keyFollowers(targetUID))
}

// CommonFollowers: общие подписки uid и targetUID
func (gs *GraphService) CommonFollowers(ctx context.Context, uid, targetUID string) ([]string, error) {
	return gs.intersect(ctx, keyCommonFollowers(uid, targetUID),
		keyFollowing(uid), keyFollowing(targetUID))
}

func (gs *GraphService) intersect(ctx context.Context, destKey, key1, key2 string) ([]string, error) {
	if err := RedisClient.SInterStore(ctx, destKey, key1, key2).Err(); err != nil {
		return nil, fmt.Errorf("failed to intersect %s and %s: %w", key1, key2, err)
	}
	if err := RedisClient.Expire(ctx, destKey, DERIVED_SET_TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to expire derived set: %w", err)
	}
	return gs.timeline.UIDsToNames(ctx, destKey)
}
