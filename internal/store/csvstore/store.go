// Package csvstore хранит журналы закупок и расхода в двух CSV-файлах.
//
// Каждая запись файла идёт через временный файл и rename. SaveAll пишет оба
// временных файла, затем метку фиксации, и только после этого переименовывает их;
// Recover при открытии доводит зафиксированную пару до конца или выбрасывает
// незафиксированную. Если переименование сорвалось уже после метки, каждая
// следующая загрузка сначала повторяет его, так что расходящиеся журналы не читаются.
package csvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/ledger"
)

const (
	DefaultPurchasesFile = "construction_materials.csv"
	DefaultUsageFile     = "material_usage.csv"

	tmpSuffix  = ".tmp"
	commitFile = ".commit"
)

type Store struct {
	dir           string
	purchasesPath string
	usagePath     string
	log           *slog.Logger
}

var _ ledger.Store = (*Store)(nil)

// Open готовит каталог, восстанавливает прерванную запись и создаёт
// пустые файлы с заголовками, если их ещё нет.
func Open(dir, purchasesFile, usageFile string, log *slog.Logger) (*Store, error) {
	if purchasesFile == "" {
		purchasesFile = DefaultPurchasesFile
	}
	if usageFile == "" {
		usageFile = DefaultUsageFile
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:           dir,
		purchasesPath: filepath.Join(dir, purchasesFile),
		usagePath:     filepath.Join(dir, usageFile),
		log:           log,
	}
	if err := s.Recover(); err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init создаёт файлы только с заголовком, если файлов нет.
func (s *Store) Init() error {
	if _, err := os.Stat(s.purchasesPath); errors.Is(err, fs.ErrNotExist) {
		if err := s.writeAtomic(s.purchasesPath, func(w io.Writer) error { return WritePurchases(w, nil) }); err != nil {
			return err
		}
		s.log.Info("purchases log initialized", "path", s.purchasesPath)
	}
	if _, err := os.Stat(s.usagePath); errors.Is(err, fs.ErrNotExist) {
		if err := s.writeAtomic(s.usagePath, func(w io.Writer) error { return WriteUsage(w, nil) }); err != nil {
			return err
		}
		s.log.Info("usage log initialized", "path", s.usagePath)
	}
	return nil
}

func (s *Store) PurchasesPath() string { return s.purchasesPath }

func (s *Store) UsagePath() string { return s.usagePath }

func (s *Store) LoadPurchases(_ context.Context) ([]purchases.Purchase, error) {
	if err := s.finishCommit(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.purchasesPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open purchases log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadPurchases(f)
}

func (s *Store) LoadUsage(_ context.Context) ([]usage.Record, error) {
	if err := s.finishCommit(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.usagePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open usage log: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadUsage(f)
}

func (s *Store) SavePurchases(_ context.Context, ps []purchases.Purchase) error {
	return s.writeAtomic(s.purchasesPath, func(w io.Writer) error { return WritePurchases(w, ps) })
}

func (s *Store) SaveUsage(_ context.Context, us []usage.Record) error {
	return s.writeAtomic(s.usagePath, func(w io.Writer) error { return WriteUsage(w, us) })
}

// SaveAll записывает оба журнала как одно целое.
func (s *Store) SaveAll(_ context.Context, ps []purchases.Purchase, us []usage.Record) error {
	if err := s.writeTemp(s.purchasesPath, func(w io.Writer) error { return WritePurchases(w, ps) }); err != nil {
		return err
	}
	if err := s.writeTemp(s.usagePath, func(w io.Writer) error { return WriteUsage(w, us) }); err != nil {
		_ = os.Remove(s.purchasesPath + tmpSuffix)
		return err
	}
	if err := s.writeCommitMarker(); err != nil {
		s.discardTemps()
		return err
	}
	return s.rollForward()
}

// Recover вызывается при открытии: метка есть — доводим переименование,
// метки нет — временные файлы остались от незавершённой записи и удаляются.
func (s *Store) Recover() error {
	_, err := os.Stat(s.commitPath())
	switch {
	case err == nil:
		s.log.Warn("interrupted commit found, rolling forward", "dir", s.dir)
		return s.rollForward()
	case errors.Is(err, fs.ErrNotExist):
		s.discardTemps()
		return nil
	default:
		return fmt.Errorf("stat commit marker: %w", err)
	}
}

// finishCommit повторяет переименование, если метка фиксации осталась
// от SaveAll, который не смог его закончить.
func (s *Store) finishCommit() error {
	_, err := os.Stat(s.commitPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat commit marker: %w", err)
	}
	s.log.Warn("pending commit found before load, rolling forward", "dir", s.dir)
	return s.rollForward()
}

func (s *Store) Close() error { return nil }

func (s *Store) commitPath() string { return filepath.Join(s.dir, commitFile) }

func (s *Store) rollForward() error {
	for _, path := range []string{s.purchasesPath, s.usagePath} {
		err := os.Rename(path+tmpSuffix, path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
		}
	}
	if err := os.Remove(s.commitPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove commit marker: %w", err)
	}
	return syncDir(s.dir)
}

func (s *Store) discardTemps() {
	for _, path := range []string{s.purchasesPath, s.usagePath} {
		if err := os.Remove(path + tmpSuffix); err == nil {
			s.log.Warn("discarded uncommitted log write", "path", path+tmpSuffix)
		}
	}
}

func (s *Store) writeCommitMarker() error {
	f, err := os.Create(s.commitPath())
	if err != nil {
		return fmt.Errorf("create commit marker: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync commit marker: %w", err)
	}
	return f.Close()
}

func (s *Store) writeAtomic(path string, write func(io.Writer) error) error {
	if err := s.writeTemp(path, write); err != nil {
		return err
	}
	if err := os.Rename(path+tmpSuffix, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return syncDir(s.dir)
}

func (s *Store) writeTemp(path string, write func(io.Writer) error) error {
	f, err := os.Create(path + tmpSuffix)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path)+tmpSuffix, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path + tmpSuffix)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer func() { _ = d.Close() }()
	_ = d.Sync()
	return nil
}
