package services

import "regexp"

// Единое правило разбора упоминаний: "@" плюс словесные символы.
// Используется и при фан-ауте (какие mention-списки пополнить),
// и при чтении (какие токены превратить в ссылки) - правила
// обязаны совпадать, иначе списки разойдутся с разметкой.
var mentionRegex = regexp.MustCompile(`@\w+`)

// FindMentions возвращает имена, упомянутые в тексте, в порядке
// первого вхождения; дубликаты сохраняются
func FindMentions(content string) []string {
	matches := mentionRegex.FindAllString(content, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, m[1:])
	}
	return mentions
}

// replaceMentions заменяет каждое @имя существующего пользователя
// ссылкой; упоминания несуществующих остаются простым текстом.
// Существование проверяется на момент чтения, не на момент поста.
func replaceMentions(content string, isValid func(name string) bool) string {
	return mentionRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := match[1:]
		if !isValid(name) {
			return match
		}
		return `<a href="!` + name + `">` + match + `</a>`
	})
}
