package purchases

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Spok95/site-materials/internal/apperr"
)

// Log журнал закупок в порядке добавления.
type Log struct {
	records []Purchase
}

// NewLog оборачивает прочитанные записи и проставляет позиционные id.
func NewLog(records []Purchase) *Log {
	l := &Log{records: slices.Clone(records)}
	l.renumber()
	return l
}

func (l *Log) renumber() {
	for i := range l.records {
		l.records[i].ID = i
	}
}

func (l *Log) Len() int { return len(l.records) }

// Records копия записей в порядке журнала.
func (l *Log) Records() []Purchase { return slices.Clone(l.records) }

func (l *Log) Get(id int) (Purchase, error) {
	if id < 0 || id >= len(l.records) {
		return Purchase{}, apperr.NotFound("purchase", id)
	}
	return l.records[id], nil
}

// Append добавляет запись в конец и возвращает её с присвоенным id.
func (l *Log) Append(p Purchase) Purchase {
	p.ID = len(l.records)
	l.records = append(l.records, p)
	return p
}

// Delete удаляет запись; id всех последующих записей уменьшаются на единицу.
// Перенумерацию расхода делает вызывающий (usage.Log.DeleteForPurchase).
func (l *Log) Delete(id int) (Purchase, error) {
	p, err := l.Get(id)
	if err != nil {
		return Purchase{}, err
	}
	l.records = slices.Delete(l.records, id, id+1)
	l.renumber()
	return p, nil
}

// List фильтрует и сортирует записи. Сортировка устойчивая: при равенстве
// сохраняется порядок журнала. Неизвестное поле оставляет порядок журнала.
func (l *Log) List(f Filter, s Sort) []Purchase {
	out := make([]Purchase, 0, len(l.records))
	for _, p := range l.records {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	compare, ok := comparators[normalizeField(s.Field)]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b Purchase) int {
		if s.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out
}

// Sites различные объекты в порядке первого появления.
func (l *Log) Sites() []string {
	return distinct(l.records, func(p Purchase) string { return p.SiteName })
}

// MaterialTypes различные типы материалов в порядке первого появления.
func (l *Log) MaterialTypes() []string {
	return distinct(l.records, func(p Purchase) string { return p.MaterialType })
}

// Match — подстрока без учёта регистра по объекту и типу, даты включительно.
func (f Filter) Match(p Purchase) bool {
	if f.Site != "" && !containsFold(p.SiteName, f.Site) {
		return false
	}
	if f.MaterialType != "" && !containsFold(p.MaterialType, f.MaterialType) {
		return false
	}
	if !f.DateFrom.IsZero() && p.Date.Before(f.DateFrom.Time) {
		return false
	}
	if !f.DateTo.IsZero() && p.Date.After(f.DateTo.Time) {
		return false
	}
	return true
}

// ParseSort понимает и "site_name", и "Site_Name"; порядок по возрастанию только для "asc".
func ParseSort(field, order string) Sort {
	if strings.TrimSpace(field) == "" {
		field = DefaultSort.Field
	}
	return Sort{
		Field: normalizeField(field),
		Desc:  !strings.EqualFold(strings.TrimSpace(order), "asc"),
	}
}

func normalizeField(f string) string {
	return strings.ToLower(strings.TrimSpace(f))
}

var comparators = map[string]func(a, b Purchase) int{
	FieldID:           func(a, b Purchase) int { return cmp.Compare(a.ID, b.ID) },
	FieldDate:         func(a, b Purchase) int { return a.Date.Compare(b.Date) },
	FieldSiteName:     func(a, b Purchase) int { return strings.Compare(a.SiteName, b.SiteName) },
	FieldMaterialType: func(a, b Purchase) int { return strings.Compare(a.MaterialType, b.MaterialType) },
	FieldMaterialName: func(a, b Purchase) int { return strings.Compare(a.MaterialName, b.MaterialName) },
	FieldQuantity:     func(a, b Purchase) int { return a.Quantity.Cmp(b.Quantity) },
	FieldUnit:         func(a, b Purchase) int { return strings.Compare(a.Unit, b.Unit) },
	FieldUnitCost:     func(a, b Purchase) int { return a.UnitCost.Cmp(b.UnitCost) },
	FieldTotalCost:    func(a, b Purchase) int { return a.TotalCost.Cmp(b.TotalCost) },
	FieldSupplier:     func(a, b Purchase) int { return strings.Compare(a.Supplier, b.Supplier) },
	FieldNotes:        func(a, b Purchase) int { return strings.Compare(a.Notes, b.Notes) },
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func distinct(records []Purchase, key func(Purchase) string) []string {
	seen := make(map[string]struct{}, len(records))
	out := []string{}
	for _, p := range records {
		k := key(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
