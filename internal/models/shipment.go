package models

import (
	"time"
)

// ShipmentStatus represents the lifecycle status of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPendingPickup     ShipmentStatus = "pending_pickup"
	ShipmentStatusLabelCreated      ShipmentStatus = "label_created"
	ShipmentStatusInTransit         ShipmentStatus = "in_transit"
	ShipmentStatusOutForDelivery    ShipmentStatus = "out_for_delivery"
	ShipmentStatusDelivered         ShipmentStatus = "delivered"
	ShipmentStatusDeliveryAttempted ShipmentStatus = "delivery_attempted"
	ShipmentStatusException         ShipmentStatus = "exception"
	ShipmentStatusReturnToSender    ShipmentStatus = "return_to_sender"
	ShipmentStatusCancelled         ShipmentStatus = "cancelled"
)

// Shipment is the local record of a per-merchant shipment for an order.
// One shipment exists per (order, merchant) pair, enforced by a composite
// unique index so concurrent creates resolve to an upsert.
type Shipment struct {
	ShipmentID int64  `json:"shipment_id" gorm:"primaryKey;autoIncrement"`
	OrderID    string `json:"order_id" gorm:"type:varchar(50);not null;uniqueIndex:idx_shipments_order_merchant"`
	MerchantID int64  `json:"merchant_id" gorm:"not null;uniqueIndex:idx_shipments_order_merchant"`

	CarrierName    string         `json:"carrier_name" gorm:"type:varchar(100)"`
	CourierID      *int           `json:"courier_id"`
	TrackingNumber string         `json:"tracking_number" gorm:"type:varchar(100);index"`
	ShipmentStatus ShipmentStatus `json:"shipment_status" gorm:"type:varchar(50);not null;default:'pending_pickup'"`

	// Remote identifiers, populated only after the corresponding ShipRocket
	// call reports success.
	ShiprocketOrderID    *int64  `json:"shiprocket_order_id" gorm:"index"`
	ShiprocketShipmentID *int64  `json:"shiprocket_shipment_id" gorm:"index"`
	AWBCode              *string `json:"awb_code" gorm:"type:varchar(50);index"`

	PickupGenerated   bool       `json:"pickup_generated" gorm:"not null;default:false"`
	PickupGeneratedAt *time.Time `json:"pickup_generated_at"`
	ShippedDate       *time.Time `json:"shipped_date"`

	PickupAddressID   *int64 `json:"pickup_address_id"`
	DeliveryAddressID *int64 `json:"delivery_address_id"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Serialize returns the JSON-like shape surfaced to upstream handlers.
func (s *Shipment) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"shipment_id":            s.ShipmentID,
		"order_id":               s.OrderID,
		"merchant_id":            s.MerchantID,
		"carrier_name":           s.CarrierName,
		"courier_id":             s.CourierID,
		"tracking_number":        s.TrackingNumber,
		"shipment_status":        string(s.ShipmentStatus),
		"shiprocket_order_id":    s.ShiprocketOrderID,
		"shiprocket_shipment_id": s.ShiprocketShipmentID,
		"awb_code":               s.AWBCode,
		"pickup_generated":       s.PickupGenerated,
		"pickup_generated_at":    formatTime(s.PickupGeneratedAt),
		"shipped_date":           formatTime(s.ShippedDate),
		"pickup_address_id":      s.PickupAddressID,
		"delivery_address_id":    s.DeliveryAddressID,
		"created_at":             s.CreatedAt.Format(time.RFC3339),
		"updated_at":             s.UpdatedAt.Format(time.RFC3339),
	}
}

// ShopShipment is the shipment record for shop orders, keyed
// (shop_order_id, shop_id) the same way Shipment is keyed per merchant.
type ShopShipment struct {
	ShipmentID  int64  `json:"shipment_id" gorm:"primaryKey;autoIncrement"`
	ShopOrderID string `json:"shop_order_id" gorm:"type:varchar(50);not null;uniqueIndex:idx_shop_shipments_order_shop"`
	ShopID      int64  `json:"shop_id" gorm:"not null;uniqueIndex:idx_shop_shipments_order_shop"`

	CarrierName    string         `json:"carrier_name" gorm:"type:varchar(100)"`
	CourierID      *int           `json:"courier_id"`
	TrackingNumber string         `json:"tracking_number" gorm:"type:varchar(100);index"`
	ShipmentStatus ShipmentStatus `json:"shipment_status" gorm:"type:varchar(50);not null;default:'pending_pickup'"`

	ShiprocketOrderID    *int64  `json:"shiprocket_order_id" gorm:"index"`
	ShiprocketShipmentID *int64  `json:"shiprocket_shipment_id" gorm:"index"`
	AWBCode              *string `json:"awb_code" gorm:"type:varchar(50);index"`

	PickupGenerated   bool       `json:"pickup_generated" gorm:"not null;default:false"`
	PickupGeneratedAt *time.Time `json:"pickup_generated_at"`
	ShippedDate       *time.Time `json:"shipped_date"`

	DeliveryAddressID *int64 `json:"delivery_address_id"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Serialize returns the JSON-like shape surfaced to upstream handlers.
func (s *ShopShipment) Serialize() map[string]interface{} {
	return map[string]interface{}{
		"shipment_id":            s.ShipmentID,
		"shop_order_id":          s.ShopOrderID,
		"shop_id":                s.ShopID,
		"carrier_name":           s.CarrierName,
		"courier_id":             s.CourierID,
		"tracking_number":        s.TrackingNumber,
		"shipment_status":        string(s.ShipmentStatus),
		"shiprocket_order_id":    s.ShiprocketOrderID,
		"shiprocket_shipment_id": s.ShiprocketShipmentID,
		"awb_code":               s.AWBCode,
		"pickup_generated":       s.PickupGenerated,
		"pickup_generated_at":    formatTime(s.PickupGeneratedAt),
		"shipped_date":           formatTime(s.ShippedDate),
		"delivery_address_id":    s.DeliveryAddressID,
		"created_at":             s.CreatedAt.Format(time.RFC3339),
		"updated_at":             s.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
