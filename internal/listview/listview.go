// Package listview строит детерминированные представления коллекций:
// фильтрация композицией предикатов, устойчивая сортировка и
// постраничная выборка. Исходная коллекция не изменяется.
package listview

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Predicate описывает один активный фильтр. nil-предикат пропускается.
type Predicate[T any] func(T) bool

// Filter возвращает элементы, удовлетворяющие всем предикатам.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		ok := true
		for _, pred := range preds {
			if pred == nil {
				continue
			}
			if !pred(item) {
				ok = false
				break
			}
		}
		if ok {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SortStable возвращает копию коллекции, устойчиво отсортированную по cmp.
// Равные по ключу элементы сохраняют исходный взаимный порядок,
// в том числе при сортировке по убыванию.
func SortStable[T any](items []T, cmp func(a, b T) int, desc bool) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		c := cmp(sorted[i], sorted[j])
		if desc {
			return c > 0
		}
		return c < 0
	})

	return sorted
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.French)
)

// CompareNames сравнивает имена с учётом французских правил сортировки.
func CompareNames(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// Page содержит одну страницу представления и параметры разбивки.
type Page[T any] struct {
	Items        []T
	TotalItems   int
	TotalPages   int
	CurrentPage  int
	ItemsPerPage int
}

// Paginate возвращает страницу currentPage (нумерация с единицы).
// Страница вне диапазона [1, totalPages] приводится к ближайшей допустимой.
// Для пустой коллекции totalPages равно нулю, а страница — первой.
func Paginate[T any](items []T, currentPage, itemsPerPage int) Page[T] {
	if itemsPerPage < 1 {
		itemsPerPage = 1
	}

	total := len(items)
	totalPages := (total + itemsPerPage - 1) / itemsPerPage

	if currentPage < 1 {
		currentPage = 1
	}
	if totalPages > 0 && currentPage > totalPages {
		currentPage = totalPages
	}
	if totalPages == 0 {
		currentPage = 1
	}

	start := (currentPage - 1) * itemsPerPage
	end := start + itemsPerPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:        items[start:end],
		TotalItems:   total,
		TotalPages:   totalPages,
		CurrentPage:  currentPage,
		ItemsPerPage: itemsPerPage,
	}
}

// State хранит параметры постраничного представления между запросами.
// Смена фильтра или размера страницы возвращает представление на первую страницу.
type State struct {
	CurrentPage  int
	ItemsPerPage int
}

// NewState создаёт состояние с указанным размером страницы и первой страницей.
func NewState(itemsPerPage int) *State {
	if itemsPerPage < 1 {
		itemsPerPage = 1
	}
	return &State{CurrentPage: 1, ItemsPerPage: itemsPerPage}
}

// SetPage устанавливает текущую страницу. Приведение к допустимому
// диапазону выполняется в Paginate по фактическому размеру коллекции.
func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.CurrentPage = page
}

// SetItemsPerPage меняет размер страницы и сбрасывает представление на первую.
func (s *State) SetItemsPerPage(n int) {
	if n < 1 {
		n = 1
	}
	s.ItemsPerPage = n
	s.CurrentPage = 1
}

// FiltersChanged сбрасывает представление на первую страницу после смены фильтров.
func (s *State) FiltersChanged() {
	s.CurrentPage = 1
}
