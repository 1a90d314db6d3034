package services

import (
	"context"
	"fmt"
	"strconv"
)

// CounterService выдает уникальные id через атомарный INCR.
// Значения строго возрастают и не переиспользуются; пропуски
// (после неудачных вызовов) допустимы, ретраев нет.
type CounterService struct{}

func NewCounterService() *CounterService {
	return &CounterService{}
}

// NextUserID возвращает следующий id пользователя
func (cs *CounterService) NextUserID(ctx context.Context) (string, error) {
	return cs.next(ctx, KeyUserIDCounter)
}

// NextPostID возвращает следующий id поста
func (cs *CounterService) NextPostID(ctx context.Context) (string, error) {
	return cs.next(ctx, KeyPostIDCounter)
}

func (cs *CounterService) next(ctx context.Context, key string) (string, error) {
	id, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return strconv.FormatInt(id, 10), nil
}
