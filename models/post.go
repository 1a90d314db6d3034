package models

import "strconv"

// Post - запись поста, как она хранится в Redis (hash post:<id>).
// После создания пост неизменяем.
type Post struct {
	AuthorID    string `json:"author_id"`
	Content     string `json:"content"`
	ReplyPostID string `json:"reply_post_id,omitempty"`
	ReplyUserID string `json:"reply_user_id,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// PostFields - фиксированный порядок полей hash'а поста.
// Единый источник правды для записи (HSet), чтения (HGetAll) и
// батч-джойна (SORT ... GET post:*->поле): порядок GET-ов обязан
// совпадать с порядком полей здесь.
var PostFields = []string{"authorId", "content", "replyPostId", "replyUserId", "timestamp"}

// ToHash сериализует пост в map для HSet, симметрично PostFromHash
func (p *Post) ToHash() map[string]interface{} {
	return map[string]interface{}{
		"authorId":    p.AuthorID,
		"content":     p.Content,
		"replyPostId": p.ReplyPostID,
		"replyUserId": p.ReplyUserID,
		"timestamp":   strconv.FormatInt(p.Timestamp, 10),
	}
}

// PostFromHash десериализует пост из результата HGetAll
func PostFromHash(hash map[string]string) Post {
	ts, _ := strconv.ParseInt(hash["timestamp"], 10, 64)
	return Post{
		AuthorID:    hash["authorId"],
		Content:     hash["content"],
		ReplyPostID: hash["replyPostId"],
		ReplyUserID: hash["replyUserId"],
		Timestamp:   ts,
	}
}

// PostFromTuple собирает пост из плоского кортежа значений в порядке PostFields
// (ответ SORT ... GET). Отсутствующие поля приходят пустыми строками.
func PostFromTuple(values []string) Post {
	ts, _ := strconv.ParseInt(values[4], 10, 64)
	return Post{
		AuthorID:    values[0],
		Content:     values[1],
		ReplyPostID: values[2],
		ReplyUserID: values[3],
		Timestamp:   ts,
	}
}

// WebPost - пост, подготовленный к выдаче: id, имена вместо uid'ов,
// контент с проставленными ссылками на упомянутых пользователей
type WebPost struct {
	PID         string `json:"pid"`
	AuthorID    string `json:"author_id"`
	Name        string `json:"name"`
	Content     string `json:"content"`
	ReplyPostID string `json:"reply_post_id,omitempty"`
	ReplyTo     string `json:"reply_to,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}
