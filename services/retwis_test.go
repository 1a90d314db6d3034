package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"retwis/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis подключается к локальному Redis (БД 15) и чистит ее.
// Без живого Redis интеграционные тесты скипаются
func setupTestRedis(t *testing.T) context.Context {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis is not available at %s: %v", addr, err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	RedisClient = client
	t.Cleanup(func() { _ = client.Close() })
	return ctx
}

func TestNextIDsDistinctAndIncreasing(t *testing.T) {
	ctx := setupTestRedis(t)
	cs := NewCounterService()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	ids := make(chan string, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev := int64(0)
			for i := 0; i < perWorker; i++ {
				id, err := cs.NextPostID(ctx)
				assert.NoError(t, err)
				n, _ := strconv.ParseInt(id, 10, 64)
				// Внутри одного вызывающего значения строго растут
				assert.Greater(t, n, prev)
				prev = n
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %s issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestUserAndPostCountersIndependent(t *testing.T) {
	ctx := setupTestRedis(t)
	cs := NewCounterService()

	uid, err := cs.NextUserID(ctx)
	require.NoError(t, err)
	pid, err := cs.NextPostID(ctx)
	require.NoError(t, err)

	assert.Equal(t, "1", uid)
	assert.Equal(t, "1", pid)
}

func TestRegisterAndAuth(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()

	uid, token, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, uid)
	assert.NotEmpty(t, token)

	ok, err := us.Auth(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = us.Auth(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	// Неизвестный пользователь: тоже просто false
	ok, err = us.Auth(ctx, "bob", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterNameTaken(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()

	_, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, _, err = us.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestRegisterAppendsToGlobalUserList(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ts := NewTimelineService()

	_, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	_, _, err = us.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	names, err := ts.NewUsers(ctx, models.Range{Begin: 0, End: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, names)
}

func TestTokenLifecycle(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()

	_, firstToken, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	name, err := us.NameForToken(ctx, firstToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	// Повторный логин перезаписывает прямой маппинг, но старый
	// токен остается резолвимым (обратный ключ не удаляется)
	secondToken, err := us.AddAuth(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, firstToken, secondToken)

	name, err = us.NameForToken(ctx, secondToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	name, err = us.NameForToken(ctx, firstToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	// Logout отзывает текущий токен
	require.NoError(t, us.RevokeAuth(ctx, "alice"))
	name, err = us.NameForToken(ctx, secondToken)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestPublishAppearsInAllAuthorLists(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	ts := NewTimelineService()

	uid, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	pid, err := ps.Publish(ctx, "alice", "hello world", "", "")
	require.NoError(t, err)

	head := models.Range{Begin: 0, End: 0}
	for _, read := range []func() ([]models.WebPost, error){
		func() ([]models.WebPost, error) { return ts.GetPosts(ctx, uid, head) },
		func() ([]models.WebPost, error) { return ts.GetTimeline(ctx, uid, head) },
		func() ([]models.WebPost, error) { return ts.GetGlobalTimeline(ctx, head) },
	} {
		posts, err := read()
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, pid, posts[0].PID)
		assert.Equal(t, "alice", posts[0].Name)
		assert.Equal(t, "hello world", posts[0].Content)
	}
}

func TestPublishUnknownAuthor(t *testing.T) {
	ctx := setupTestRedis(t)
	ps := NewPostService()

	_, err := ps.Publish(ctx, "nobody", "hi", "", "")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestFanoutToFollowerTimeline(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	gs := NewGraphService()
	ts := NewTimelineService()

	aliceUID, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	bobUID, _, err := us.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	require.NoError(t, gs.Follow(ctx, aliceUID, bobUID))

	pid, err := ps.Publish(ctx, "bob", "hi", "", "")
	require.NoError(t, err)

	timeline, err := ts.GetTimeline(ctx, aliceUID, models.Range{Begin: 0, End: 0})
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, pid, timeline[0].PID)
	assert.Equal(t, "bob", timeline[0].Name)
}

func TestFanoutSkipsNonFollowers(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	ts := NewTimelineService()

	_, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	bobUID, _, err := us.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	_, err = ps.Publish(ctx, "alice", "hi", "", "")
	require.NoError(t, err)

	timeline, err := ts.GetTimeline(ctx, bobUID, models.Range{Begin: 0, End: 9})
	require.NoError(t, err)
	assert.Empty(t, timeline)
}

func TestMentionListsOnlyResolvableUsers(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	ts := NewTimelineService()

	_, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	bobUID, _, err := us.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	pid, err := ps.Publish(ctx, "alice", "hi @bob and @ghost", "", "")
	require.NoError(t, err)

	mentions, err := ts.GetMentions(ctx, bobUID, models.Range{Begin: 0, End: 0})
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, pid, mentions[0].PID)

	// Для ghost mention-список не создается: единственный
	// mention-список в сторе - у bob
	keys, err := RedisClient.Keys(ctx, "mentions-of:*").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{keyMentions(bobUID)}, keys)
}

func TestMentionLinkRewrite(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	ts := NewTimelineService()

	aliceUID, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	_, _, err = us.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	_, err = ps.Publish(ctx, "alice", "hi @bob and @ghost", "", "")
	require.NoError(t, err)

	posts, err := ts.GetPosts(ctx, aliceUID, models.Range{Begin: 0, End: 0})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, `hi <a href="!bob">@bob</a> and @ghost`, posts[0].Content)
}

func TestReplyResolution(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	ts := NewTimelineService()

	_, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	_, _, err = us.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	origPID, err := ps.Publish(ctx, "bob", "original", "", "")
	require.NoError(t, err)

	replyPID, err := ps.Publish(ctx, "alice", "reply", "bob", origPID)
	require.NoError(t, err)

	posts, err := ts.GetPost(ctx, replyPID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "bob", posts[0].ReplyTo)
	assert.Equal(t, origPID, posts[0].ReplyPostID)

	// Несуществующий адресат ответа не ошибка, поле остается пустым
	pid, err := ps.Publish(ctx, "alice", "reply", "ghost", origPID)
	require.NoError(t, err)
	posts, err = ts.GetPost(ctx, pid)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Empty(t, posts[0].ReplyTo)
}

func TestTimelineOrderNewestFirst(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	ts := NewTimelineService()

	uid, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	var pids []string
	for i := 0; i < 5; i++ {
		pid, err := ps.Publish(ctx, "alice", fmt.Sprintf("post %d", i), "", "")
		require.NoError(t, err)
		pids = append(pids, pid)
	}

	posts, err := ts.GetPosts(ctx, uid, models.Range{Begin: 0, End: 4})
	require.NoError(t, err)
	require.Len(t, posts, 5)
	for i, post := range posts {
		assert.Equal(t, pids[len(pids)-1-i], post.PID)
	}

	// Пагинация: вторая страница по 2
	page2, err := ts.GetPosts(ctx, uid, models.Range{Begin: 2, End: 3})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, pids[2], page2[0].PID)
	assert.Equal(t, pids[1], page2[1].PID)
}

func TestHasMoreBoundary(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	ts := NewTimelineService()

	uid, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := ps.Publish(ctx, "alice", "post", "", "")
		require.NoError(t, err)
	}

	// length == end+1 - ровно на границе, продолжения нет
	hasMore, err := ts.HasMorePosts(ctx, uid, models.Range{Begin: 0, End: 2})
	require.NoError(t, err)
	assert.False(t, hasMore)

	hasMore, err = ts.HasMorePosts(ctx, uid, models.Range{Begin: 0, End: 1})
	require.NoError(t, err)
	assert.True(t, hasMore)

	hasMore, err = ts.HasMorePosts(ctx, uid, models.Range{Begin: 0, End: 5})
	require.NoError(t, err)
	assert.False(t, hasMore)
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	gs := NewGraphService()

	aUID, _, err := us.Register(ctx, "a", "pw")
	require.NoError(t, err)
	bUID, _, err := us.Register(ctx, "b", "pw")
	require.NoError(t, err)

	require.NoError(t, gs.Follow(ctx, aUID, bUID))

	following, err := gs.IsFollowing(ctx, aUID, bUID)
	require.NoError(t, err)
	assert.True(t, following)

	followers, err := gs.GetFollowers(ctx, bUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, followers)

	require.NoError(t, gs.StopFollowing(ctx, aUID, bUID))

	following, err = gs.IsFollowing(ctx, aUID, bUID)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err = gs.GetFollowers(ctx, bUID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestIntersections(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	gs := NewGraphService()

	uids := make(map[string]string)
	for _, name := range []string{"me", "target", "x", "y", "z"} {
		uid, _, err := us.Register(ctx, name, "pw")
		require.NoError(t, err)
		uids[name] = uid
	}

	// me подписан на x, y, z; на target подписаны x и y
	for _, name := range []string{"x", "y", "z"} {
		require.NoError(t, gs.Follow(ctx, uids["me"], uids[name]))
	}
	require.NoError(t, gs.Follow(ctx, uids["x"], uids["target"]))
	require.NoError(t, gs.Follow(ctx, uids["y"], uids["target"]))

	names, err := gs.AlsoFollowed(ctx, uids["me"], uids["target"])
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, names)

	// target тоже подписан на x: общая подписка me и target - x
	require.NoError(t, gs.Follow(ctx, uids["target"], uids["x"]))
	names, err = gs.CommonFollowers(ctx, uids["me"], uids["target"])
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x"}, names)

	// Производный ключ живет считанные секунды
	ttl, err := RedisClient.TTL(ctx, keyAlsoFollowed(uids["me"], uids["target"])).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, DERIVED_SET_TTL)
}

func TestIsPostValid(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()

	_, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	pid, err := ps.Publish(ctx, "alice", "hi", "", "")
	require.NoError(t, err)

	ok, err := ps.IsPostValid(ctx, pid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ps.IsPostValid(ctx, "999999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAsyncFanoutQueue(t *testing.T) {
	ctx := setupTestRedis(t)
	us := NewUserService()
	ps := NewPostService()
	gs := NewGraphService()
	qs := NewQueueService()

	aliceUID, _, err := us.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	bobUID, _, err := us.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	require.NoError(t, gs.Follow(ctx, aliceUID, bobUID))

	post := models.Post{AuthorID: bobUID, Content: "queued", Timestamp: time.Now().Unix()}
	pid, err := ps.createPost(ctx, &post)
	require.NoError(t, err)

	require.NoError(t, qs.EnqueueFanout(ctx, pid, bobUID, "bob", post))

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go qs.worker(workerCtx, 0)

	// Доставка асинхронная: ждем появления поста в ленте подписчика
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		head, err := RedisClient.LRange(ctx, keyTimeline(aliceUID), 0, 0).Result()
		require.NoError(t, err)
		if len(head) == 1 && head[0] == pid {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("post %s never reached follower timeline", pid)
}
