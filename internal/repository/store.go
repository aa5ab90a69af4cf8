package repository

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"aoin-shipping-service/internal/models"
)

// OrderRepository reads customer orders and their line items.
type OrderRepository interface {
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	GetShopOrderByID(ctx context.Context, orderID string) (*models.ShopOrder, error)
}

// MerchantRepository reads merchant profiles and caches resolved pickup
// location names on them.
type MerchantRepository interface {
	GetByID(ctx context.Context, merchantID int64) (*models.MerchantProfile, error)
	SavePickupLocation(ctx context.Context, merchantID int64, name string, locationID *int64) error
}

// AddressRepository reads saved user addresses.
type AddressRepository interface {
	GetByID(ctx context.Context, addressID int64) (*models.UserAddress, error)
}

// ProductRepository reads recorded product shipping dimensions.
type ProductRepository interface {
	GetShipping(ctx context.Context, productID int64) (*models.ProductShipping, error)
}

// ShopRepository reads shops and caches their resolved pickup location.
type ShopRepository interface {
	GetByID(ctx context.Context, shopID int64) (*models.Shop, error)
	SavePickupLocation(ctx context.Context, shopID int64, name string, locationID *int64) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("User").
		Where("order_id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "order", Key: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetShopOrderByID(ctx context.Context, orderID string) (*models.ShopOrder, error) {
	var order models.ShopOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("User").
		Where("order_id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "shop order", Key: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type merchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository.
func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) GetByID(ctx context.Context, merchantID int64) (*models.MerchantProfile, error) {
	var merchant models.MerchantProfile
	err := r.db.WithContext(ctx).Where("id = ?", merchantID).First(&merchant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "merchant", Key: formatInt(merchantID)}
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) SavePickupLocation(ctx context.Context, merchantID int64, name string, locationID *int64) error {
	updates := map[string]interface{}{
		"shiprocket_pickup_location_name": name,
	}
	if locationID != nil {
		updates["shiprocket_pickup_location_id"] = *locationID
	}
	return r.db.WithContext(ctx).Model(&models.MerchantProfile{}).
		Where("id = ?", merchantID).
		Updates(updates).Error
}

type addressRepository struct {
	db *gorm.DB
}

// NewAddressRepository creates a new address repository.
func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) GetByID(ctx context.Context, addressID int64) (*models.UserAddress, error) {
	var address models.UserAddress
	err := r.db.WithContext(ctx).Where("address_id = ?", addressID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "address", Key: formatInt(addressID)}
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// GetShipping returns nil without error when the product has no recorded
// shipping dimensions; callers fall back to packaging defaults.
func (r *productRepository) GetShipping(ctx context.Context, productID int64) (*models.ProductShipping, error) {
	var shipping models.ProductShipping
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&shipping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shipping, nil
}

type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates a new shop repository.
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) GetByID(ctx context.Context, shopID int64) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "shop", Key: formatInt(shopID)}
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) SavePickupLocation(ctx context.Context, shopID int64, name string, locationID *int64) error {
	updates := map[string]interface{}{
		"shiprocket_pickup_location_name": name,
	}
	if locationID != nil {
		updates["shiprocket_pickup_location_id"] = *locationID
	}
	return r.db.WithContext(ctx).Model(&models.Shop{}).
		Where("shop_id = ?", shopID).
		Updates(updates).Error
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
