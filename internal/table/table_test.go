package table

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"retail-eda/internal/models"
	"retail-eda/internal/synth"
)

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{
			OrderID:         1001,
			TransactionTime: time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC),
			ProductCategory: models.Electronics,
			Region:          models.CityA,
			PaymentMethod:   models.EWallet,
			IsMember:        false,
			ItemCount:       2,
			Rating:          4,
			TotalAmount:     3_000_000,
		},
		{
			OrderID:         1002,
			TransactionTime: time.Date(2024, 11, 30, 7, 0, 0, 0, time.UTC),
			ProductCategory: models.Health,
			Region:          models.OtherRegion,
			PaymentMethod:   models.CashOnDelivery,
			IsMember:        true,
			ItemCount:       3,
			Rating:          1,
			TotalAmount:     405_000,
		},
	}
}

func TestSchema_ColumnOrder(t *testing.T) {
	require.Equal(t, len(models.Columns), Schema.NumFields())
	for i, name := range models.Columns {
		require.Equal(t, name, Schema.Field(i).Name)
	}
}

func TestBuild(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	txs := sampleTransactions()
	rec := Build(mem, txs)
	defer rec.Release()

	require.EqualValues(t, 2, rec.NumRows())
	require.EqualValues(t, len(models.Columns), rec.NumCols())

	totals := rec.Column(colTotalAmount).(*array.Int64)
	require.Equal(t, int64(3_000_000), totals.Value(0))
	require.Equal(t, int64(405_000), totals.Value(1))

	categories := rec.Column(colProductCategory).(*array.String)
	require.Equal(t, "Health", categories.Value(1))

	members := rec.Column(colIsMember).(*array.Boolean)
	require.True(t, members.Value(1))

	times := rec.Column(colTransactionTime).(*array.Timestamp)
	require.Equal(t, txs[1].TransactionTime, timeAt(times, 1))
}

func TestBuild_Empty(t *testing.T) {
	rec := Build(memory.NewGoAllocator(), nil)
	defer rec.Release()

	require.Zero(t, rec.NumRows())
	require.EqualValues(t, len(models.Columns), rec.NumCols())
}

func TestWritePreview(t *testing.T) {
	rec := Build(memory.NewGoAllocator(), sampleTransactions())
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, rec, 1))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, models.Columns, strings.Fields(lines[0]))
	require.Contains(t, lines[1], "1001")
	require.Contains(t, lines[1], "2024-03-09 14:00:00")
	require.Contains(t, lines[1], "E-Wallet")
	require.Contains(t, lines[1], "3000000")
}

func TestWritePreview_MoreRowsThanTable(t *testing.T) {
	txs, err := synth.Generate(synth.NewRand(5), 3)
	require.NoError(t, err)

	rec := Build(memory.NewGoAllocator(), txs)
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, rec, 5))
	require.Equal(t, 4, strings.Count(buf.String(), "\n"))
}

func TestWritePreview_EmptyTable(t *testing.T) {
	rec := Build(memory.NewGoAllocator(), nil)
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, rec, 5))
	require.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
