// Package ledger единственное место, которое трогает оба журнала.
//
// Все изменяющие операции идут под одной блокировкой процесса на весь цикл
// чтение → изменение → запись; чтения берут блокировку на чтение.
// Несколько процессов над одними файлами не поддерживаются.
package ledger

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/infra/metrics"
)

type Options struct {
	ReadPolicy  ReadPolicy
	DropOrphans bool
}

type Service struct {
	mu     sync.RWMutex
	store  Store
	log    *slog.Logger
	m      *metrics.Metrics
	policy ReadPolicy
	drop   bool
}

func New(store Store, log *slog.Logger, m *metrics.Metrics, opts Options) *Service {
	policy := opts.ReadPolicy
	if policy == "" {
		policy = ReadLenient
	}
	return &Service{
		store:  store,
		log:    log,
		m:      m,
		policy: policy,
		drop:   opts.DropOrphans,
	}
}

// ---------- закупки ----------

func (s *Service) AddPurchase(ctx context.Context, in purchases.Input) (purchases.Purchase, error) {
	p, err := purchases.New(in)
	if err != nil {
		return purchases.Purchase{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ps, err := s.loadPurchases(ctx)
	if err != nil {
		return purchases.Purchase{}, err
	}
	l := purchases.NewLog(ps)
	p = l.Append(p)
	if err := s.savePurchases(ctx, l.Records()); err != nil {
		return purchases.Purchase{}, err
	}

	s.m.PurchasesAdded.Inc()
	s.log.Info("purchase added", "id", p.ID, "site", p.SiteName, "material", p.MaterialName, "total", p.TotalCost.String())
	return p, nil
}

// DeletePurchase удаляет закупку вместе с её расходом и сдвигает ссылки
// остального расхода. Оба журнала сохраняются одним SaveAll.
func (s *Service) DeletePurchase(ctx context.Context, id int) (Deleted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, us, err := s.loadBoth(ctx)
	if err != nil {
		return Deleted{}, err
	}
	pl, ul := purchases.NewLog(ps), usage.NewLog(us)

	p, err := pl.Delete(id)
	if err != nil {
		return Deleted{}, err
	}
	removed := ul.DeleteForPurchase(id)

	if err := s.store.SaveAll(ctx, pl.Records(), ul.Records()); err != nil {
		s.m.StorageErrors.WithLabelValues("save_all").Inc()
		return Deleted{}, apperr.Storage("save logs", err)
	}

	s.m.PurchasesDeleted.Inc()
	s.log.Info("purchase deleted", "id", id, "usage_removed", removed)
	return Deleted{Purchase: p, UsageRemoved: removed}, nil
}

func (s *Service) ListPurchases(ctx context.Context, f purchases.Filter, sort purchases.Sort) (PurchaseListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, err := s.loadPurchases(ctx)
	if err != nil {
		return PurchaseListing{}, err
	}
	l := purchases.NewLog(ps)
	records := l.List(f, sort)
	return PurchaseListing{
		Records:       records,
		Sites:         l.Sites(),
		MaterialTypes: l.MaterialTypes(),
		TotalCost:     purchases.SumTotal(records),
		Count:         len(records),
	}, nil
}

func (s *Service) Purchase(ctx context.Context, id int) (purchases.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, err := s.loadPurchases(ctx)
	if err != nil {
		return purchases.Purchase{}, err
	}
	return purchases.NewLog(ps).Get(id)
}

// ---------- расход ----------

// AddUsage добавляет расход, если он не больше текущего остатка закупки.
// Пустые объект, название и единица берутся из закупки.
func (s *Service) AddUsage(ctx context.Context, r usage.Record) (UsageEntry, error) {
	if err := r.Validate(); err != nil {
		s.m.UsageRejected.WithLabelValues("invalid").Inc()
		return UsageEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ps, us, err := s.loadBoth(ctx)
	if err != nil {
		return UsageEntry{}, err
	}
	pl, ul := purchases.NewLog(ps), usage.NewLog(us)

	p, err := pl.Get(r.MaterialID)
	if err != nil {
		s.m.UsageRejected.WithLabelValues("unknown_material").Inc()
		return UsageEntry{}, err
	}
	remaining := p.Quantity.Sub(usage.Sum(ul.ForMaterial(r.MaterialID)))
	if r.UsedQuantity.GreaterThan(remaining) {
		s.m.UsageRejected.WithLabelValues("exceeds_remaining").Inc()
		return UsageEntry{}, apperr.Validation("used_quantity",
			"used quantity %s exceeds remaining quantity %s", r.UsedQuantity.String(), remaining.String())
	}

	if strings.TrimSpace(r.SiteName) == "" {
		r.SiteName = p.SiteName
	}
	if strings.TrimSpace(r.MaterialName) == "" {
		r.MaterialName = p.MaterialName
	}
	if strings.TrimSpace(r.Unit) == "" {
		r.Unit = p.Unit
	}

	ul.Append(r)
	if err := s.saveUsage(ctx, ul.Records()); err != nil {
		return UsageEntry{}, err
	}

	s.m.UsageAdded.Inc()
	s.log.Info("usage added", "material_id", r.MaterialID, "quantity", r.UsedQuantity.String(), "remaining", remaining.Sub(r.UsedQuantity).String())
	return UsageEntry{Index: ul.Len() - 1, Record: r}, nil
}

func (s *Service) DeleteUsage(ctx context.Context, index int) (usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, err := s.loadUsage(ctx)
	if err != nil {
		return usage.Record{}, err
	}
	ul := usage.NewLog(us)
	r, err := ul.Delete(index)
	if err != nil {
		return usage.Record{}, err
	}
	if err := s.saveUsage(ctx, ul.Records()); err != nil {
		return usage.Record{}, err
	}

	s.m.UsageDeleted.Inc()
	s.log.Info("usage deleted", "index", index, "material_id", r.MaterialID)
	return r, nil
}

// ListUsage расход в порядке журнала; при materialID < 0 весь журнал.
func (s *Service) ListUsage(ctx context.Context, materialID int) ([]UsageEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	us, err := s.loadUsage(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UsageEntry, 0, len(us))
	for i, r := range us {
		if materialID >= 0 && r.MaterialID != materialID {
			continue
		}
		out = append(out, UsageEntry{Index: i, Record: r})
	}
	return out, nil
}

// ---------- остатки ----------

func (s *Service) Remaining(ctx context.Context, f inventory.RowFilter) (InventoryView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, us, err := s.loadBoth(ctx)
	if err != nil {
		return InventoryView{}, err
	}
	all := inventory.ComputeRemaining(ps, us)
	rows := inventory.FilterRows(all, f)
	return InventoryView{
		Rows:      rows,
		Summary:   inventory.Summarize(rows),
		Sites:     purchases.NewLog(ps).Sites(),
		Materials: distinctMaterials(all),
		Filter:    f,
	}, nil
}

// History расход по закупке: накопленные суммы по возрастанию даты,
// выдача от последней записи к первой.
func (s *Service) History(ctx context.Context, id int) (HistoryView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, us, err := s.loadBoth(ctx)
	if err != nil {
		return HistoryView{}, err
	}
	p, err := purchases.NewLog(ps).Get(id)
	if err != nil {
		return HistoryView{}, err
	}
	rows := inventory.ComputeRemaining(ps, us)
	entries := inventory.History(p, us)
	return HistoryView{
		Material: rows[id],
		Entries:  inventory.LatestFirst(entries),
	}, nil
}

// ---------- сводки ----------

func (s *Service) Dashboard(ctx context.Context) (analytics.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, err := s.loadPurchases(ctx)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	return analytics.BuildDashboard(purchases.NewLog(ps).Records()), nil
}

// Analytics сводка и данные графиков. Для пустого журнала Summary = nil.
func (s *Service) Analytics(ctx context.Context) (AnalyticsView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, us, err := s.loadBoth(ctx)
	if err != nil {
		return AnalyticsView{}, err
	}
	ps = purchases.NewLog(ps).Records()
	view := AnalyticsView{Charts: analytics.BuildCharts(ps, inventory.ComputeRemaining(ps, us))}
	if sum, ok := analytics.Summarize(ps); ok {
		view.Summary = &sum
	}
	return view, nil
}

// Snapshot согласованный срез обоих журналов для выгрузок.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, us, err := s.loadBoth(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	ps = purchases.NewLog(ps).Records()
	return Snapshot{
		Purchases: ps,
		Usage:     us,
		Remaining: inventory.ComputeRemaining(ps, us),
	}, nil
}

// Reconcile ищет расход, ссылающийся на несуществующие закупки (след сбоя
// между записями двух журналов или ручной правки файлов). При DropOrphans
// такие записи удаляются.
//
// Журналы читаются строго при любой политике: пустой из-за ошибки чтения
// журнал закупок сделал бы сиротами весь расход.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, err := s.store.LoadPurchases(ctx)
	if err != nil {
		s.m.StorageErrors.WithLabelValues("load_purchases").Inc()
		return ReconcileReport{}, apperr.Storage("load purchases", err)
	}
	us, err := s.store.LoadUsage(ctx)
	if err != nil {
		s.m.StorageErrors.WithLabelValues("load_usage").Inc()
		return ReconcileReport{}, apperr.Storage("load usage", err)
	}
	ul := usage.NewLog(us)
	report := ReconcileReport{Orphans: ul.Orphans(len(ps))}
	if len(report.Orphans) == 0 {
		return report, nil
	}

	s.log.Warn("usage records reference missing purchases", "count", len(report.Orphans), "indexes", report.Orphans)
	if !s.drop {
		return report, nil
	}
	report.Dropped = ul.DropOrphans(len(ps))
	if err := s.saveUsage(ctx, ul.Records()); err != nil {
		return ReconcileReport{}, err
	}
	s.log.Info("orphaned usage records dropped", "count", report.Dropped)
	return report, nil
}

// ---------- хранилище ----------

func (s *Service) loadBoth(ctx context.Context) ([]purchases.Purchase, []usage.Record, error) {
	ps, err := s.loadPurchases(ctx)
	if err != nil {
		return nil, nil, err
	}
	us, err := s.loadUsage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ps, us, nil
}

func (s *Service) loadPurchases(ctx context.Context) ([]purchases.Purchase, error) {
	ps, err := s.store.LoadPurchases(ctx)
	if err != nil {
		return nil, s.readFailed("purchases", err)
	}
	return ps, nil
}

func (s *Service) loadUsage(ctx context.Context) ([]usage.Record, error) {
	us, err := s.store.LoadUsage(ctx)
	if err != nil {
		return nil, s.readFailed("usage", err)
	}
	return us, nil
}

// readFailed при мягкой политике журнал считается пустым. Это маскирует
// порчу файла, поэтому каждый случай пишется в лог и в метрику.
func (s *Service) readFailed(name string, err error) error {
	if s.policy == ReadStrict {
		s.m.StorageErrors.WithLabelValues("load_" + name).Inc()
		return apperr.Storage("load "+name, err)
	}
	s.m.ReadFallbacks.WithLabelValues(name).Inc()
	s.log.Warn("log unreadable, treating as empty", "log", name, "err", err)
	return nil
}

func (s *Service) savePurchases(ctx context.Context, ps []purchases.Purchase) error {
	if err := s.store.SavePurchases(ctx, ps); err != nil {
		s.m.StorageErrors.WithLabelValues("save_purchases").Inc()
		return apperr.Storage("save purchases", err)
	}
	return nil
}

func (s *Service) saveUsage(ctx context.Context, us []usage.Record) error {
	if err := s.store.SaveUsage(ctx, us); err != nil {
		s.m.StorageErrors.WithLabelValues("save_usage").Inc()
		return apperr.Storage("save usage", err)
	}
	return nil
}

func distinctMaterials(rows []inventory.Row) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range rows {
		if _, ok := seen[r.MaterialName]; ok {
			continue
		}
		seen[r.MaterialName] = struct{}{}
		out = append(out, r.MaterialName)
	}
	return out
}
