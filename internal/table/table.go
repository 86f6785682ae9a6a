// Package table assembles transactions into a columnar Arrow record with a
// fixed column order.
package table

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"retail-eda/internal/models"
)

const (
	colOrderID = iota
	colTransactionTime
	colProductCategory
	colRegion
	colPaymentMethod
	colIsMember
	colItemCount
	colRating
	colTotalAmount
)

// Schema defines the transaction table. Field order matches models.Columns.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "order_id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "transaction_time", Type: arrow.FixedWidthTypes.Timestamp_s},
	{Name: "product_category", Type: arrow.BinaryTypes.String},
	{Name: "region", Type: arrow.BinaryTypes.String},
	{Name: "payment_method", Type: arrow.BinaryTypes.String},
	{Name: "is_member", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "item_count", Type: arrow.PrimitiveTypes.Int64},
	{Name: "rating", Type: arrow.PrimitiveTypes.Int64},
	{Name: "total_amount", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// Build copies txs into a new record. The caller owns the record and must
// Release it.
func Build(mem memory.Allocator, txs []models.Transaction) arrow.Record {
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	orderIDs := b.Field(colOrderID).(*array.Int64Builder)
	times := b.Field(colTransactionTime).(*array.TimestampBuilder)
	categories := b.Field(colProductCategory).(*array.StringBuilder)
	regions := b.Field(colRegion).(*array.StringBuilder)
	payments := b.Field(colPaymentMethod).(*array.StringBuilder)
	members := b.Field(colIsMember).(*array.BooleanBuilder)
	items := b.Field(colItemCount).(*array.Int64Builder)
	ratings := b.Field(colRating).(*array.Int64Builder)
	totals := b.Field(colTotalAmount).(*array.Int64Builder)

	for _, tx := range txs {
		orderIDs.Append(tx.OrderID)
		times.Append(arrow.Timestamp(tx.TransactionTime.Unix()))
		categories.Append(string(tx.ProductCategory))
		regions.Append(string(tx.Region))
		payments.Append(string(tx.PaymentMethod))
		members.Append(tx.IsMember)
		items.Append(int64(tx.ItemCount))
		ratings.Append(int64(tx.Rating))
		totals.Append(tx.TotalAmount)
	}

	return b.NewRecord()
}
