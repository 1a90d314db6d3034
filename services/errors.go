package services

import "errors"

var (
	// ErrUnknownUser - имя или id не имеет отображения в сторе
	ErrUnknownUser = errors.New("unknown user")
	// ErrNameTaken - имя уже занято. Проверка check-then-act,
	// без транзакционной гарантии на стороне стора.
	ErrNameTaken = errors.New("name already taken")
)
