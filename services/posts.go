package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"retwis/config"
	"retwis/models"
)

// PostService - запись постов и фан-аут. Один Publish порождает
// до N+3 вставок в списки (свои посты, своя лента, глобальная
// лента, ленты N подписчиков, mention-списки). Никакая пара этих
// вставок не атомарна между собой; атомарен только каждый LPush.
type PostService struct {
	users    *UserService
	graph    *GraphService
	counters *CounterService
}

func NewPostService() *PostService {
	return &PostService{
		users:    NewUserService(),
		graph:    NewGraphService(),
		counters: NewCounterService(),
	}
}

// Publish создает пост от имени authorName и раскладывает его id
// по всем производным спискам. replyToName/replyPID опциональны;
// несуществующий адресат ответа не ошибка, поле остается пустым
func (ps *PostService) Publish(ctx context.Context, authorName, content, replyToName, replyPID string) (string, error) {
	started := time.Now()

	uid, err := ps.users.FindUID(ctx, authorName)
	if err != nil {
		return "", err
	}
	if uid == "" {
		return "", ErrUnknownUser
	}

	post := models.Post{
		AuthorID:  uid,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}

	if replyToName != "" {
		replyUID, err := ps.users.FindUID(ctx, replyToName)
		if err != nil {
			return "", err
		}
		post.ReplyUserID = replyUID
		post.ReplyPostID = replyPID
	}

	pid, err := ps.createPost(ctx, &post)
	if err != nil {
		return "", err
	}

	// Списки автора и глобальная лента
	if err := RedisClient.LPush(ctx, keyPosts(uid), pid).Err(); err != nil {
		return "", fmt.Errorf("failed to push to author posts: %w", err)
	}
	if err := RedisClient.LPush(ctx, keyTimeline(uid), pid).Err(); err != nil {
		return "", fmt.Errorf("failed to push to author timeline: %w", err)
	}
	if err := RedisClient.LPush(ctx, KeyGlobalTimeline, pid).Err(); err != nil {
		return "", fmt.Errorf("failed to push to global timeline: %w", err)
	}

	// Доставка подписчикам: либо в очередь, либо синхронно в запросе
	if fanoutAsync() && QueueServiceInstance != nil {
		if err := QueueServiceInstance.EnqueueFanout(ctx, pid, uid, authorName, post); err != nil {
			log.Printf("fanout enqueue failed, delivering inline: %v", err)
			ps.deliverToFollowers(ctx, pid, uid, authorName, post)
		}
	} else {
		ps.deliverToFollowers(ctx, pid, uid, authorName, post)
	}

	ps.handleMentions(ctx, pid, post.Content)

	observePublish(time.Since(started))
	return pid, nil
}

// createPost выдает pid и пишет запись поста. Чистая запись hash'а,
// без фан-аута
func (ps *PostService) createPost(ctx context.Context, post *models.Post) (string, error) {
	pid, err := ps.counters.NextPostID(ctx)
	if err != nil {
		return "", err
	}
	if err := RedisClient.HSet(ctx, keyPost(pid), post.ToHash()).Err(); err != nil {
		return "", fmt.Errorf("failed to save post: %w", err)
	}
	return pid, nil
}

// deliverToFollowers кладет pid в голову ленты каждого текущего
// подписчика. Доставка best-effort: сбой на одном подписчике
// логируется и не откатывает уже доставленное, остальные
// подписчики все равно обрабатываются
func (ps *PostService) deliverToFollowers(ctx context.Context, pid, authorUID, authorName string, post models.Post) {
	followers, err := ps.graph.FollowerUIDs(ctx, authorUID)
	if err != nil {
		log.Printf("fanout: failed to list followers of %s: %v", authorUID, err)
		return
	}

	for _, follower := range followers {
		if err := RedisClient.LPush(ctx, keyTimeline(follower), pid).Err(); err != nil {
			log.Printf("fanout: failed to deliver post %s to %s: %v", pid, follower, err)
			continue
		}
		observeFanoutPush()
		ps.notifyFollower(ctx, follower, pid, authorUID, authorName, post)
	}
}

// notifyFollower публикует событие ленты в RabbitMQ; при недоступном
// брокере шлет напрямую в WebSocket подписчика
func (ps *PostService) notifyFollower(ctx context.Context, followerUID, pid, authorUID, authorName string, post models.Post) {
	event := FeedEvent{
		UserID:     followerUID,
		PostID:     pid,
		AuthorID:   authorUID,
		AuthorName: authorName,
		Content:    post.Content,
		CreatedAt:  time.Unix(post.Timestamp, 0),
	}
	if err := PublishFeedEvent(ctx, event); err != nil {
		sendDirectFeedEvent(event)
	}
}

// handleMentions пополняет mention-списки упомянутых. Неразрешимые
// @имена молча пропускаются
func (ps *PostService) handleMentions(ctx context.Context, pid, content string) {
	for _, mention := range FindMentions(content) {
		uid, err := ps.users.FindUID(ctx, mention)
		if err != nil {
			log.Printf("mentions: failed to resolve %q: %v", mention, err)
			continue
		}
		if uid == "" {
			continue
		}
		if err := RedisClient.LPush(ctx, keyMentions(uid), pid).Err(); err != nil {
			log.Printf("mentions: failed to push post %s for %s: %v", pid, uid, err)
		}
	}
}

// IsPostValid проверяет существование поста
func (ps *PostService) IsPostValid(ctx context.Context, pid string) (bool, error) {
	n, err := RedisClient.Exists(ctx, keyPost(pid)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return n > 0, nil
}

func fanoutAsync() bool {
	return config.AppConfig != nil && config.AppConfig.Fanout.Async
}
