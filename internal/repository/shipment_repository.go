package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aoin-shipping-service/internal/models"
)

// RemoteRefs are the ShipRocket identifiers recorded once the remote chain
// completes.
type RemoteRefs struct {
	OrderID     int64
	ShipmentID  int64
	AWBCode     string
	CourierName string
	ShippedAt   time.Time
	PickupAt    time.Time
}

// ShipmentRepository handles database operations for shipment records.
type ShipmentRepository interface {
	UpsertPendingPickup(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	MarkLabelCreated(ctx context.Context, shipmentID int64, refs RemoteRefs) error
	GetByID(ctx context.Context, shipmentID int64) (*models.Shipment, error)
	GetByOrderAndMerchant(ctx context.Context, orderID string, merchantID int64) (*models.Shipment, error)
	UpsertShopPendingPickup(ctx context.Context, shipment *models.ShopShipment) (*models.ShopShipment, error)
	MarkShopLabelCreated(ctx context.Context, shipmentID int64, refs RemoteRefs) error
	GetShopByID(ctx context.Context, shipmentID int64) (*models.ShopShipment, error)
}

type shipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository creates a new shipment repository.
func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

// UpsertPendingPickup inserts or updates the shipment record for an
// (order, merchant) pair in one atomic statement. Remote identifiers are
// never touched here, so retrying a create does not clobber a completed
// remote chain.
func (r *shipmentRepository) UpsertPendingPickup(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "merchant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"carrier_name", "courier_id", "shipment_status",
			"pickup_address_id", "delivery_address_id", "updated_at",
		}),
	}).Create(shipment).Error
	if err != nil {
		return nil, err
	}

	// The conflict path does not report the surviving row's id; re-read.
	return r.GetByOrderAndMerchant(ctx, shipment.OrderID, shipment.MerchantID)
}

// MarkLabelCreated records the remote identifiers and stamps the shipment as
// label_created with shipped/pickup timestamps.
func (r *shipmentRepository) MarkLabelCreated(ctx context.Context, shipmentID int64, refs RemoteRefs) error {
	return r.db.WithContext(ctx).Model(&models.Shipment{}).
		Where("shipment_id = ?", shipmentID).
		Updates(map[string]interface{}{
			"shiprocket_order_id":    refs.OrderID,
			"shiprocket_shipment_id": refs.ShipmentID,
			"awb_code":               refs.AWBCode,
			"tracking_number":        refs.AWBCode,
			"carrier_name":           refs.CourierName,
			"shipment_status":        models.ShipmentStatusLabelCreated,
			"shipped_date":           refs.ShippedAt,
			"pickup_generated":       true,
			"pickup_generated_at":    refs.PickupAt,
			"updated_at":             time.Now().UTC(),
		}).Error
}

// GetByID retrieves a shipment record.
func (r *shipmentRepository) GetByID(ctx context.Context, shipmentID int64) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).Where("shipment_id = ?", shipmentID).First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "shipment", Key: formatInt(shipmentID)}
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// GetByOrderAndMerchant retrieves the shipment record for an
// (order, merchant) pair.
func (r *shipmentRepository) GetByOrderAndMerchant(ctx context.Context, orderID string, merchantID int64) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND merchant_id = ?", orderID, merchantID).
		First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "shipment", Key: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// GetShopByID retrieves a shop shipment record.
func (r *shipmentRepository) GetShopByID(ctx context.Context, shipmentID int64) (*models.ShopShipment, error) {
	var shipment models.ShopShipment
	err := r.db.WithContext(ctx).Where("shipment_id = ?", shipmentID).First(&shipment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "shop shipment", Key: formatInt(shipmentID)}
	}
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

// UpsertShopPendingPickup is the shop-order counterpart of
// UpsertPendingPickup, keyed (shop_order_id, shop_id).
func (r *shipmentRepository) UpsertShopPendingPickup(ctx context.Context, shipment *models.ShopShipment) (*models.ShopShipment, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shop_order_id"}, {Name: "shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"carrier_name", "courier_id", "shipment_status",
			"delivery_address_id", "updated_at",
		}),
	}).Create(shipment).Error
	if err != nil {
		return nil, err
	}

	var saved models.ShopShipment
	err = r.db.WithContext(ctx).
		Where("shop_order_id = ? AND shop_id = ?", shipment.ShopOrderID, shipment.ShopID).
		First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// MarkShopLabelCreated records remote identifiers for a shop shipment.
func (r *shipmentRepository) MarkShopLabelCreated(ctx context.Context, shipmentID int64, refs RemoteRefs) error {
	return r.db.WithContext(ctx).Model(&models.ShopShipment{}).
		Where("shipment_id = ?", shipmentID).
		Updates(map[string]interface{}{
			"shiprocket_order_id":    refs.OrderID,
			"shiprocket_shipment_id": refs.ShipmentID,
			"awb_code":               refs.AWBCode,
			"tracking_number":        refs.AWBCode,
			"carrier_name":           refs.CourierName,
			"shipment_status":        models.ShipmentStatusLabelCreated,
			"shipped_date":           refs.ShippedAt,
			"pickup_generated":       true,
			"pickup_generated_at":    refs.PickupAt,
			"updated_at":             time.Now().UTC(),
		}).Error
}
