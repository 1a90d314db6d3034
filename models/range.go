package models

// DefaultPageSize - размер страницы по умолчанию для лент
const DefaultPageSize = 10

// Range - запрашиваемый срез списка, индексы включительно,
// 0 - голова списка (самая свежая запись)
type Range struct {
	Begin int64 `json:"begin"`
	End   int64 `json:"end"`
}

// RangeForPage возвращает диапазон для страницы page (нумерация с 1)
func RangeForPage(page int64, size int64) Range {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return Range{Begin: (page - 1) * size, End: page*size - 1}
}

// Count - количество элементов в диапазоне (для LIMIT батч-джойна)
func (r Range) Count() int64 {
	return r.End - r.Begin + 1
}
