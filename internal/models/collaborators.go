package models

import "time"

// Collaborator tables owned by the wider platform. The shipping service only
// does field-level reads against them; their schemas are not redesigned here.

// PaymentStatus mirrors the order service's payment status enum.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Order is a customer order, possibly spanning multiple merchants.
type Order struct {
	OrderID        string        `json:"order_id" gorm:"primaryKey;type:varchar(50)"`
	UserID         *int64        `json:"user_id"`
	OrderDate      time.Time     `json:"order_date" gorm:"not null"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	ShippingAmount float64       `json:"shipping_amount" gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount    float64       `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Currency       string        `json:"currency" gorm:"type:varchar(3);not null;default:'INR'"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;references:OrderID"`
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsPaid reports whether the order was prepaid; unpaid orders ship COD.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OrderItem is one purchased line of an order, attributed to a merchant.
type OrderItem struct {
	OrderItemID           int64   `json:"order_item_id" gorm:"primaryKey;autoIncrement"`
	OrderID               string  `json:"order_id" gorm:"type:varchar(50);not null;index"`
	ProductID             int64   `json:"product_id"`
	MerchantID            int64   `json:"merchant_id" gorm:"index"`
	ProductNameAtPurchase string  `json:"product_name_at_purchase" gorm:"type:varchar(255);not null"`
	SKUAtPurchase         string  `json:"sku_at_purchase" gorm:"type:varchar(100)"`
	Quantity              int     `json:"quantity" gorm:"not null"`
	UnitPriceInclusiveGST float64 `json:"unit_price_inclusive_gst" gorm:"type:decimal(10,2);not null"`
	DiscountPerUnit       float64 `json:"discount_amount_per_unit_applied" gorm:"type:decimal(10,2);default:0"`
	GSTAmountPerUnit      float64 `json:"gst_amount_per_unit" gorm:"type:decimal(12,2);default:0"`
}

// ProductShipping carries a product's recorded shipping dimensions. Zero
// values mean "not recorded" and fall back to packaging defaults.
type ProductShipping struct {
	ProductID int64   `json:"product_id" gorm:"primaryKey"`
	WeightKg  float64 `json:"weight_kg" gorm:"type:decimal(10,3)"`
	LengthCm  float64 `json:"length_cm" gorm:"type:decimal(10,2)"`
	WidthCm   float64 `json:"width_cm" gorm:"type:decimal(10,2)"`
	HeightCm  float64 `json:"height_cm" gorm:"type:decimal(10,2)"`
}

// User owns orders; billing contact details come from here when the delivery
// address has none.
type User struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string `json:"last_name" gorm:"type:varchar(100)"`
	Email     string `json:"email" gorm:"type:varchar(255)"`
	Phone     string `json:"phone" gorm:"type:varchar(50)"`
}

// UserAddress is a saved pickup or delivery address.
type UserAddress struct {
	AddressID     int64  `json:"address_id" gorm:"primaryKey;autoIncrement"`
	UserID        int64  `json:"user_id" gorm:"index"`
	ContactName   string `json:"contact_name" gorm:"type:varchar(255)"`
	ContactPhone  string `json:"contact_phone" gorm:"type:varchar(50)"`
	AddressLine1  string `json:"address_line1" gorm:"type:varchar(255)"`
	AddressLine2  string `json:"address_line2" gorm:"type:varchar(255)"`
	City          string `json:"city" gorm:"type:varchar(100)"`
	StateProvince string `json:"state_province" gorm:"type:varchar(100)"`
	PostalCode    string `json:"postal_code" gorm:"type:varchar(20)"`
	CountryCode   string `json:"country_code" gorm:"type:varchar(2)"`
}

// MerchantProfile is a merchant's business registration. The resolved
// ShipRocket pickup location is cached here once registered.
type MerchantProfile struct {
	ID                int64  `json:"id" gorm:"primaryKey"`
	BusinessName      string `json:"business_name" gorm:"type:varchar(255);not null"`
	BusinessEmail     string `json:"business_email" gorm:"type:varchar(255)"`
	BusinessPhone     string `json:"business_phone" gorm:"type:varchar(50)"`
	BusinessAddress   string `json:"business_address" gorm:"type:varchar(500)"`
	ContactPersonName string `json:"contact_person_name" gorm:"type:varchar(255)"`
	City              string `json:"city" gorm:"type:varchar(100)"`
	StateProvince     string `json:"state_province" gorm:"type:varchar(100)"`
	CountryCode       string `json:"country_code" gorm:"type:varchar(2)"`
	PostalCode        string `json:"postal_code" gorm:"type:varchar(20)"`

	ShiprocketPickupLocationID   *int64 `json:"shiprocket_pickup_location_id"`
	ShiprocketPickupLocationName string `json:"shiprocket_pickup_location_name" gorm:"type:varchar(255)"`
}

// Shop is a storefront that ships from a shared pickup location.
type Shop struct {
	ShopID int64  `json:"shop_id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"type:varchar(255);not null"`

	ShiprocketPickupLocationID   *int64 `json:"shiprocket_pickup_location_id"`
	ShiprocketPickupLocationName string `json:"shiprocket_pickup_location_name" gorm:"type:varchar(255)"`
}

// ShopOrder is an order placed against a shop.
type ShopOrder struct {
	OrderID        string        `json:"order_id" gorm:"primaryKey;type:varchar(50)"`
	ShopID         int64         `json:"shop_id" gorm:"index"`
	UserID         *int64        `json:"user_id"`
	OrderDate      time.Time     `json:"order_date" gorm:"not null"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	ShippingAmount float64       `json:"shipping_amount" gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount    float64       `json:"total_amount" gorm:"type:decimal(12,2);not null"`

	Items []ShopOrderItem `json:"items" gorm:"foreignKey:OrderID;references:OrderID"`
	User  *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsPaid reports whether the shop order was prepaid.
func (o *ShopOrder) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// ShopOrderItem is one purchased line of a shop order.
type ShopOrderItem struct {
	OrderItemID           int64   `json:"order_item_id" gorm:"primaryKey;autoIncrement"`
	OrderID               string  `json:"order_id" gorm:"type:varchar(50);not null;index"`
	ProductID             int64   `json:"product_id"`
	ProductNameAtPurchase string  `json:"product_name_at_purchase" gorm:"type:varchar(255);not null"`
	SKUAtPurchase         string  `json:"sku_at_purchase" gorm:"type:varchar(100)"`
	Quantity              int     `json:"quantity" gorm:"not null"`
	UnitPriceInclusiveGST float64 `json:"unit_price_inclusive_gst" gorm:"type:decimal(10,2);not null"`
	DiscountPerUnit       float64 `json:"discount_amount_per_unit_applied" gorm:"type:decimal(10,2);default:0"`
	GSTAmountPerUnit      float64 `json:"gst_amount_per_unit" gorm:"type:decimal(12,2);default:0"`
}
