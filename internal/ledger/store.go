package ledger

import (
	"context"
	"fmt"

	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
)

// Store хранит два журнала целиком: каждая операция читает журнал полностью
// и полностью же его перезаписывает.
type Store interface {
	LoadPurchases(ctx context.Context) ([]purchases.Purchase, error)
	LoadUsage(ctx context.Context) ([]usage.Record, error)
	SavePurchases(ctx context.Context, ps []purchases.Purchase) error
	SaveUsage(ctx context.Context, us []usage.Record) error
	// SaveAll сохраняет оба журнала одной операцией: либо оба, либо ни один.
	SaveAll(ctx context.Context, ps []purchases.Purchase, us []usage.Record) error
	Close() error
}

// ReadPolicy что делать с журналом, который не удалось прочитать.
type ReadPolicy string

const (
	// ReadLenient нечитаемый журнал считается пустым (с предупреждением в логе и метрикой).
	ReadLenient ReadPolicy = "lenient"
	// ReadStrict ошибка чтения возвращается вызывающему как StorageError.
	ReadStrict ReadPolicy = "strict"
)

func ParseReadPolicy(s string) (ReadPolicy, error) {
	switch ReadPolicy(s) {
	case "", ReadLenient:
		return ReadLenient, nil
	case ReadStrict:
		return ReadStrict, nil
	default:
		return "", fmt.Errorf("unknown read policy %q (want lenient or strict)", s)
	}
}
