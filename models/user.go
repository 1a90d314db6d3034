package models

// User - пользователь, хранится как hash user-id:<id>.
// Имя и id неизменяемы, name <-> id - биекция (name-to-id:<name>).
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"-"`
}

// Поля hash'а пользователя
const (
	UserFieldName = "name"
	UserFieldPass = "pass"
)
