package csvstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, "", "", discard())
	require.NoError(t, err)
	return s, dir
}

func samplePurchase() purchases.Purchase {
	return purchases.Purchase{
		Date:         values.MustDate("2024-01-01"),
		SiteName:     "Tower A",
		MaterialType: "Cement",
		MaterialName: "Portland, 50kg",
		Quantity:     decimal.NewFromInt(100),
		Unit:         "bags",
		UnitCost:     decimal.RequireFromString("10.5"),
		TotalCost:    decimal.RequireFromString("1050"),
		Supplier:     "ACME \"Build\"",
	}
}

func sampleUsage() usage.Record {
	return usage.Record{
		UsageDate:    values.MustDate("2024-01-05"),
		MaterialID:   0,
		SiteName:     "Tower A",
		MaterialName: "Portland, 50kg",
		UsedQuantity: decimal.NewFromInt(30),
		Unit:         "bags",
		UsagePurpose: "Foundation",
	}
}

func TestOpenCreatesHeaderOnlyFiles(t *testing.T) {
	s, _ := openTemp(t)

	raw, err := os.ReadFile(s.PurchasesPath())
	require.NoError(t, err)
	assert.Equal(t, strings.Join(PurchaseHeader, ",")+"\n", string(raw))

	raw, err = os.ReadFile(s.UsagePath())
	require.NoError(t, err)
	assert.Equal(t, strings.Join(UsageHeader, ",")+"\n", string(raw))

	ps, err := s.LoadPurchases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	require.NoError(t, s.SaveAll(ctx, []purchases.Purchase{samplePurchase()}, []usage.Record{sampleUsage()}))

	ps, err := s.LoadPurchases(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, 0, ps[0].ID)
	assert.Equal(t, "Portland, 50kg", ps[0].MaterialName)
	assert.Equal(t, "ACME \"Build\"", ps[0].Supplier)
	assert.True(t, ps[0].TotalCost.Equal(decimal.NewFromInt(1050)))

	us, err := s.LoadUsage(ctx)
	require.NoError(t, err)
	require.Len(t, us, 1)
	assert.Equal(t, "Foundation", us[0].UsagePurpose)
	assert.True(t, us[0].UsedQuantity.Equal(decimal.NewFromInt(30)))

	_, err = os.Stat(filepath.Join(filepath.Dir(s.PurchasesPath()), commitFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRecoverRollsForwardCommittedPair(t *testing.T) {
	ctx := context.Background()
	s, dir := openTemp(t)

	// Имитируем сбой между меткой фиксации и переименованием.
	require.NoError(t, s.writeTemp(s.purchasesPath, func(w io.Writer) error {
		return WritePurchases(w, []purchases.Purchase{samplePurchase()})
	}))
	require.NoError(t, s.writeTemp(s.usagePath, func(w io.Writer) error {
		return WriteUsage(w, []usage.Record{sampleUsage()})
	}))
	require.NoError(t, s.writeCommitMarker())

	reopened, err := Open(dir, "", "", discard())
	require.NoError(t, err)

	ps, err := reopened.LoadPurchases(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 1)
	us, err := reopened.LoadUsage(ctx)
	require.NoError(t, err)
	assert.Len(t, us, 1)
}

func TestLoadFinishesPendingCommit(t *testing.T) {
	ctx := context.Background()
	s, dir := openTemp(t)

	// Метка записана, переименование не дошло до конца: открытия заново нет.
	require.NoError(t, s.writeTemp(s.purchasesPath, func(w io.Writer) error {
		return WritePurchases(w, []purchases.Purchase{samplePurchase()})
	}))
	require.NoError(t, s.writeTemp(s.usagePath, func(w io.Writer) error {
		return WriteUsage(w, []usage.Record{sampleUsage()})
	}))
	require.NoError(t, s.writeCommitMarker())
	require.NoError(t, os.Rename(s.purchasesPath+tmpSuffix, s.purchasesPath))

	us, err := s.LoadUsage(ctx)
	require.NoError(t, err)
	assert.Len(t, us, 1)
	ps, err := s.LoadPurchases(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 1)

	_, err = os.Stat(filepath.Join(dir, commitFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.usagePath + tmpSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestRecoverDiscardsUncommittedPair(t *testing.T) {
	ctx := context.Background()
	s, dir := openTemp(t)

	require.NoError(t, s.writeTemp(s.purchasesPath, func(w io.Writer) error {
		return WritePurchases(w, []purchases.Purchase{samplePurchase()})
	}))

	reopened, err := Open(dir, "", "", discard())
	require.NoError(t, err)

	ps, err := reopened.LoadPurchases(ctx)
	require.NoError(t, err)
	assert.Empty(t, ps)
	_, err = os.Stat(s.purchasesPath + tmpSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestReadRejectsBadHeader(t *testing.T) {
	_, err := ReadPurchases(strings.NewReader("Date,Site\n2024-01-01,A\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header mismatch")
}

func TestReadAcceptsBOMAndFloatIDs(t *testing.T) {
	in := "\ufeff" + strings.Join(UsageHeader, ",") + "\n2024-01-05,3.0,A,Sand,2,t,,,\n"
	us, err := ReadUsage(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, us, 1)
	assert.Equal(t, 3, us[0].MaterialID)
}

func TestReadComputesMissingTotal(t *testing.T) {
	in := strings.Join(PurchaseHeader, ",") + "\n2024-01-01,A,Sand,River sand,4,t,2.5,,,\n"
	ps, err := ReadPurchases(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "10", ps[0].TotalCost.String())
}

func TestReadReportsRow(t *testing.T) {
	in := strings.Join(PurchaseHeader, ",") + "\nnot-a-date,A,Sand,River sand,4,t,2.5,,,\n"
	_, err := ReadPurchases(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
