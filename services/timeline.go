package services

import (
	"context"
	"fmt"

	"retwis/models"

	"github.com/go-redis/redis/v8"
)

// TimelineService - постраничное чтение списков pid'ов с джойном.
// Весь срез списка разворачивается в готовые к показу записи за один
// серверный запрос: SORT <ключ> BY nosort GET # GET post:*->поле ...
// LIMIT begin count, то есть стор сам дергает поля hash'а по каждому
// id из списка вместо пер-идшного round trip'а.
type TimelineService struct {
	users *UserService
}

func NewTimelineService() *TimelineService {
	return &TimelineService{users: NewUserService()}
}

// GetPosts возвращает срез собственных постов пользователя
func (ts *TimelineService) GetPosts(ctx context.Context, uid string, r models.Range) ([]models.WebPost, error) {
	return ts.convertPidsToPosts(ctx, keyPosts(uid), r)
}

// GetTimeline возвращает срез домашней ленты пользователя
func (ts *TimelineService) GetTimeline(ctx context.Context, uid string, r models.Range) ([]models.WebPost, error) {
	return ts.convertPidsToPosts(ctx, keyTimeline(uid), r)
}

// GetMentions возвращает срез постов, упоминающих пользователя
func (ts *TimelineService) GetMentions(ctx context.Context, uid string, r models.Range) ([]models.WebPost, error) {
	return ts.convertPidsToPosts(ctx, keyMentions(uid), r)
}

// GetGlobalTimeline возвращает срез глобальной ленты
func (ts *TimelineService) GetGlobalTimeline(ctx context.Context, r models.Range) ([]models.WebPost, error) {
	return ts.convertPidsToPosts(ctx, KeyGlobalTimeline, r)
}

// GetPost возвращает один пост в виде одноэлементного среза выдачи
func (ts *TimelineService) GetPost(ctx context.Context, pid string) ([]models.WebPost, error) {
	hash, err := RedisClient.HGetAll(ctx, keyPost(pid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read post %s: %w", pid, err)
	}
	if len(hash) == 0 {
		return []models.WebPost{}, nil
	}
	post := models.PostFromHash(hash)
	webPost, err := ts.convertPost(ctx, pid, post)
	if err != nil {
		return nil, err
	}
	return []models.WebPost{webPost}, nil
}

// NewUsers возвращает срез последних зарегистрированных имен
func (ts *TimelineService) NewUsers(ctx context.Context, r models.Range) ([]string, error) {
	names, err := RedisClient.LRange(ctx, KeyAllUsers, r.Begin, r.End).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user list: %w", err)
	}
	return names, nil
}

// HasMorePosts: остались ли посты за правой границей диапазона
func (ts *TimelineService) HasMorePosts(ctx context.Context, uid string, r models.Range) (bool, error) {
	return ts.hasMore(ctx, keyPosts(uid), r)
}

func (ts *TimelineService) HasMoreTimeline(ctx context.Context, uid string, r models.Range) (bool, error) {
	return ts.hasMore(ctx, keyTimeline(uid), r)
}

func (ts *TimelineService) HasMoreMentions(ctx context.Context, uid string, r models.Range) (bool, error) {
	return ts.hasMore(ctx, keyMentions(uid), r)
}

func (ts *TimelineService) HasMoreGlobalTimeline(ctx context.Context, r models.Range) (bool, error) {
	return ts.hasMore(ctx, KeyGlobalTimeline, r)
}

func (ts *TimelineService) hasMore(ctx context.Context, key string, r models.Range) (bool, error) {
	length, err := RedisClient.LLen(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to measure list %s: %w", key, err)
	}
	return length > r.End+1, nil
}

// UIDsToNames разворачивает список/множество uid'ов в имена тем же
// батч-джойном: SORT <ключ> BY nosort GET user-id:*->name
func (ts *TimelineService) UIDsToNames(ctx context.Context, key string) ([]string, error) {
	raw, err := RedisClient.SortInterfaces(ctx, key, &redis.Sort{
		By:  "nosort",
		Get: []string{userNamePattern()},
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve names for %s: %w", key, err)
	}

	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if name, ok := v.(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// convertPidsToPosts выполняет батч-джойн по срезу списка pid'ов
func (ts *TimelineService) convertPidsToPosts(ctx context.Context, key string, r models.Range) ([]models.WebPost, error) {
	get := make([]string, 0, 1+len(models.PostFields))
	get = append(get, "#")
	for _, field := range models.PostFields {
		get = append(get, postFieldPattern(field))
	}

	raw, err := RedisClient.SortInterfaces(ctx, key, &redis.Sort{
		By:     "nosort",
		Get:    get,
		Offset: r.Begin,
		Count:  r.Count(),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to join posts for %s: %w", key, err)
	}

	tupleLen := 1 + len(models.PostFields)
	posts := make([]models.WebPost, 0, len(raw)/tupleLen)

	for i := 0; i+tupleLen <= len(raw); i += tupleLen {
		pid := asString(raw[i])
		values := make([]string, len(models.PostFields))
		for j := range models.PostFields {
			values[j] = asString(raw[i+1+j])
		}

		webPost, err := ts.convertPost(ctx, pid, models.PostFromTuple(values))
		if err != nil {
			return nil, err
		}
		posts = append(posts, webPost)
	}
	return posts, nil
}

// convertPost дорезолвливает имена (автор, адресат ответа) и
// проставляет ссылки на упомянутых пользователей. Разметка
// пересчитывается на каждом чтении и отражает текущее
// существование упомянутых, а не существование на момент поста.
func (ts *TimelineService) convertPost(ctx context.Context, pid string, post models.Post) (models.WebPost, error) {
	name, err := ts.users.FindName(ctx, post.AuthorID)
	if err != nil {
		return models.WebPost{}, err
	}
	replyTo, err := ts.users.FindName(ctx, post.ReplyUserID)
	if err != nil {
		return models.WebPost{}, err
	}

	content := replaceMentions(post.Content, func(mention string) bool {
		ok, err := ts.users.IsUserValid(ctx, mention)
		return err == nil && ok
	})

	return models.WebPost{
		PID:         pid,
		AuthorID:    post.AuthorID,
		Name:        name,
		Content:     content,
		ReplyPostID: post.ReplyPostID,
		ReplyTo:     replyTo,
		Timestamp:   post.Timestamp,
	}, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
