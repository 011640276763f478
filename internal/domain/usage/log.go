package usage

import (
	"slices"

	"github.com/Spok95/site-materials/internal/apperr"
)

// Log журнал расхода в порядке добавления.
type Log struct {
	records []Record
}

func NewLog(records []Record) *Log {
	return &Log{records: slices.Clone(records)}
}

func (l *Log) Len() int { return len(l.records) }

func (l *Log) Records() []Record { return slices.Clone(l.records) }

// Append добавляет расход с material_id как есть.
func (l *Log) Append(r Record) {
	l.records = append(l.records, r)
}

// Delete удаляет одну запись расхода по её позиции в журнале.
func (l *Log) Delete(index int) (Record, error) {
	if index < 0 || index >= len(l.records) {
		return Record{}, apperr.NotFound("usage record", index)
	}
	r := l.records[index]
	l.records = slices.Delete(l.records, index, index+1)
	return r, nil
}

// DeleteForPurchase вызывается при удалении закупки deletedID: записи на неё
// удаляются, ссылки на более поздние закупки сдвигаются на единицу вниз.
// Возвращает число удалённых записей.
func (l *Log) DeleteForPurchase(deletedID int) int {
	kept := l.records[:0]
	removed := 0
	for _, r := range l.records {
		switch {
		case r.MaterialID == deletedID:
			removed++
			continue
		case r.MaterialID > deletedID:
			r.MaterialID--
		}
		kept = append(kept, r)
	}
	clear(l.records[len(kept):])
	l.records = kept
	return removed
}

// ForMaterial записи по закупке в порядке журнала.
func (l *Log) ForMaterial(materialID int) []Record {
	var out []Record
	for _, r := range l.records {
		if r.MaterialID == materialID {
			out = append(out, r)
		}
	}
	return out
}

// Orphans позиции записей, которые ссылаются на несуществующую закупку.
func (l *Log) Orphans(purchaseCount int) []int {
	var out []int
	for i, r := range l.records {
		if r.MaterialID < 0 || r.MaterialID >= purchaseCount {
			out = append(out, i)
		}
	}
	return out
}

// DropOrphans удаляет записи из Orphans и возвращает их количество.
func (l *Log) DropOrphans(purchaseCount int) int {
	before := len(l.records)
	l.records = slices.DeleteFunc(l.records, func(r Record) bool {
		return r.MaterialID < 0 || r.MaterialID >= purchaseCount
	})
	return before - len(l.records)
}
