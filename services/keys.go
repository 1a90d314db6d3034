package services

import "fmt"

// Схема ключей Redis. Один логический объект - один ключ,
// все имена собираются только здесь.
const (
	KeyGlobalTimeline = "global-timeline" // list: все pid, свежие в голове
	KeyAllUsers       = "all-users"       // list: имена пользователей, свежие в голове
	KeyUserIDCounter  = "counter:user-id" // атомарный счетчик uid
	KeyPostIDCounter  = "counter:post-id" // атомарный счетчик pid
)

func keyUser(uid string) string {
	return "user-id:" + uid
}

func keyNameToID(name string) string {
	return "name-to-id:" + name
}

func keyTokenForUser(uid string) string {
	return "token-for-user:" + uid
}

func keyUserForToken(token string) string {
	return "user-for-token:" + token
}

func keyPost(pid string) string {
	return "post:" + pid
}

func keyPosts(uid string) string {
	return "posts-of:" + uid
}

func keyTimeline(uid string) string {
	return "timeline-of:" + uid
}

func keyMentions(uid string) string {
	return "mentions-of:" + uid
}

func keyFollowing(uid string) string {
	return "following-of:" + uid
}

func keyFollowers(uid string) string {
	return "followers-of:" + uid
}

func keyAlsoFollowed(uid, targetUID string) string {
	return fmt.Sprintf("derived:also-followed:%s:%s", uid, targetUID)
}

func keyCommonFollowers(uid, targetUID string) string {
	return fmt.Sprintf("derived:common-followers:%s:%s", uid, targetUID)
}

// Шаблоны для серверного батч-джойна (SORT ... GET шаблон->поле)
func postFieldPattern(field string) string {
	return "post:*->" + field
}

func userNamePattern() string {
	return "user-id:*->name"
}
