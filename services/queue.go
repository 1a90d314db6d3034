package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"retwis/config"
	"retwis/models"

	"github.com/go-redis/redis/v8"
)

const (
	FANOUT_QUEUE       = "fanout-queue"
	QUEUE_WORKER_COUNT = 5
)

// FanoutTask - задача доставки поста в ленты подписчиков
type FanoutTask struct {
	PID        string      `json:"pid"`
	AuthorUID  string      `json:"author_uid"`
	AuthorName string      `json:"author_name"`
	Post       models.Post `json:"post"`
}

// QueueService выносит O(N)-доставку подписчикам из запроса в
// фоновые воркеры. Порядок доставки между лентами разных
// подписчиков не гарантируется; внутри одной ленты порядок
// вставок в голову сохраняется
type QueueService struct {
	postService *PostService
}

func NewQueueService() *QueueService {
	return &QueueService{
		postService: NewPostService(),
	}
}

// EnqueueFanout кладет задачу в хвост очереди
func (qs *QueueService) EnqueueFanout(ctx context.Context, pid, authorUID, authorName string, post models.Post) error {
	task := FanoutTask{PID: pid, AuthorUID: authorUID, AuthorName: authorName, Post: post}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal fanout task: %w", err)
	}
	if err := RedisClient.RPush(ctx, FANOUT_QUEUE, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue fanout task: %w", err)
	}
	if depth, err := RedisClient.LLen(ctx, FANOUT_QUEUE).Result(); err == nil {
		fanoutQueueDepth.Set(float64(depth))
	}
	return nil
}

// StartWorkers запускает воркеры обработки очереди
func (qs *QueueService) StartWorkers(ctx context.Context) {
	workers := QUEUE_WORKER_COUNT
	if config.AppConfig != nil && config.AppConfig.Fanout.Workers > 0 {
		workers = config.AppConfig.Fanout.Workers
	}
	for i := 0; i < workers; i++ {
		go qs.worker(ctx, i)
	}
}

// worker обрабатывает задачи из очереди
func (qs *QueueService) worker(ctx context.Context, workerID int) {
	log.Printf("Fanout worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Fanout worker %d stopping", workerID)
			return
		default:
			// Блокирующее чтение с таймаутом
			result, err := RedisClient.BLPop(ctx, 5*time.Second, FANOUT_QUEUE).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				log.Printf("Worker %d error getting task: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if len(result) < 2 {
				continue
			}

			var task FanoutTask
			if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
				log.Printf("Worker %d error unmarshaling task: %v", workerID, err)
				continue
			}

			qs.postService.deliverToFollowers(ctx, task.PID, task.AuthorUID, task.AuthorName, task.Post)

			if depth, err := RedisClient.LLen(ctx, FANOUT_QUEUE).Result(); err == nil {
				fanoutQueueDepth.Set(float64(depth))
			}
		}
	}
}
