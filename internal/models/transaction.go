package models

import "time"

type Category string

const (
	Electronics Category = "Electronics"
	Fashion     Category = "Fashion"
	Household   Category = "Household"
	Health      Category = "Health"
	Sports      Category = "Sports"
)

// Categories lists every product category in display order.
var Categories = []Category{Electronics, Fashion, Household, Health, Sports}

type Region string

const (
	CityA       Region = "City A"
	CityB       Region = "City B"
	CityC       Region = "City C"
	CityD       Region = "City D"
	OtherRegion Region = "Other"
)

var Regions = []Region{CityA, CityB, CityC, CityD, OtherRegion}

type PaymentMethod string

const (
	CreditCard     PaymentMethod = "Credit Card"
	BankTransfer   PaymentMethod = "Bank Transfer"
	EWallet        PaymentMethod = "E-Wallet"
	CashOnDelivery PaymentMethod = "Cash on Delivery"
)

var PaymentMethods = []PaymentMethod{CreditCard, BankTransfer, EWallet, CashOnDelivery}

// Columns is the fixed column order of the transaction table.
var Columns = []string{
	"order_id",
	"transaction_time",
	"product_category",
	"region",
	"payment_method",
	"is_member",
	"item_count",
	"rating",
	"total_amount",
}

// Transaction is one synthesized order. Variation is the price multiplier
// the total was derived from; it is kept so the derivation can be replayed
// but is not part of the table columns.
type Transaction struct {
	OrderID         int64         `json:"order_id"`
	TransactionTime time.Time     `json:"transaction_time"`
	ProductCategory Category      `json:"product_category"`
	Region          Region        `json:"region"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	IsMember        bool          `json:"is_member"`
	ItemCount       int           `json:"item_count"`
	Rating          int           `json:"rating"`
	TotalAmount     int64         `json:"total_amount"`
	Variation       float64       `json:"-"`
}

// MemberLabel is the group name used for the member/non-member comparisons.
func (t Transaction) MemberLabel() string {
	if t.IsMember {
		return MemberGroup
	}
	return NonMemberGroup
}

const (
	NonMemberGroup = "Non-Member"
	MemberGroup    = "Member"
)
