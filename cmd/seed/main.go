package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// Генератор тестовых данных: регистрирует пользователей через API,
// строит случайный граф подписок и публикует посты с упоминаниями.

type registerRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

type seededUser struct {
	Name  string
	Token string
}

func main() {
	var baseURL string
	var users, follows, posts int
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "API base URL")
	flag.IntVar(&users, "users", 50, "number of users to register")
	flag.IntVar(&follows, "follows", 200, "number of follow edges")
	flag.IntVar(&posts, "posts", 300, "number of posts")
	flag.Parse()

	seeded := make([]seededUser, 0, users)

	for i := 0; i < users; i++ {
		name := fmt.Sprintf("%s_%s", strings.ToLower(gofakeit.FirstName()), gofakeit.Numerify("####"))
		req := registerRequest{
			Name:     name,
			Password: gofakeit.Password(true, false, true, true, false, 10),
		}

		var resp registerResponse
		if err := postJSON(baseURL+"/api/v1/auth/register", "", req, &resp); err != nil {
			log.Printf("register %s failed: %v", name, err)
			continue
		}
		seeded = append(seeded, seededUser{Name: resp.Name, Token: resp.Token})
	}
	log.Printf("registered %d users", len(seeded))

	if len(seeded) < 2 {
		log.Fatal("not enough users to seed follows and posts")
	}

	for i := 0; i < follows; i++ {
		follower := seeded[rand.Intn(len(seeded))]
		target := seeded[rand.Intn(len(seeded))]
		if follower.Name == target.Name {
			continue
		}
		body := map[string]string{"name": target.Name}
		if err := postJSON(baseURL+"/api/v1/follow", follower.Token, body, nil); err != nil {
			log.Printf("follow %s -> %s failed: %v", follower.Name, target.Name, err)
		}
	}
	log.Printf("created follow edges")

	for i := 0; i < posts; i++ {
		author := seeded[rand.Intn(len(seeded))]
		content := gofakeit.Sentence(8)
		// Каждый третий пост упоминает случайного пользователя
		if i%3 == 0 {
			content = fmt.Sprintf("@%s %s", seeded[rand.Intn(len(seeded))].Name, content)
		}
		body := map[string]string{"content": content}
		if err := postJSON(baseURL+"/api/v1/posts", author.Token, body, nil); err != nil {
			log.Printf("post by %s failed: %v", author.Name, err)
		}
	}
	log.Printf("published posts, done")
}

func postJSON(url, token string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
