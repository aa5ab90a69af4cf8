package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aoin-shipping-service/internal/carrier"
	"aoin-shipping-service/internal/events"
	"aoin-shipping-service/internal/models"
	"aoin-shipping-service/internal/repository"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateOrder(ctx context.Context, order *carrier.OrderRequest) (*carrier.OrderResponse, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.OrderResponse), args.Error(1)
}

func (m *mockGateway) AssignAWB(ctx context.Context, shipmentID int64, courierID int) (*carrier.AWBResponse, error) {
	args := m.Called(ctx, shipmentID, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.AWBResponse), args.Error(1)
}

func (m *mockGateway) GeneratePickup(ctx context.Context, shipmentID int64) (*carrier.PickupResponse, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.PickupResponse), args.Error(1)
}

func (m *mockGateway) TrackByAWB(ctx context.Context, awbCode string) (json.RawMessage, error) {
	args := m.Called(ctx, awbCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockGateway) TrackByOrderID(ctx context.Context, orderID string, channelID int) (json.RawMessage, error) {
	args := m.Called(ctx, orderID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockGateway) ListPickupLocations(ctx context.Context) ([]carrier.PickupLocation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]carrier.PickupLocation), args.Error(1)
}

type mockProber struct{ mock.Mock }

func (m *mockProber) Check(ctx context.Context, pickupPincode, deliveryPincode string, weightKg, codAmount float64) (*carrier.ServiceabilityResult, error) {
	args := m.Called(ctx, pickupPincode, deliveryPincode, weightKg, codAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.ServiceabilityResult), args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) ResolveMerchant(ctx context.Context, merchantID int64) string {
	return m.Called(ctx, merchantID).String(0)
}

func (m *mockResolver) ResolveShop(ctx context.Context, shopID int64) string {
	return m.Called(ctx, shopID).String(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	return m.Called(ctx, subject, payload).Error(0)
}

type mockShipmentRepo struct{ mock.Mock }

func (m *mockShipmentRepo) UpsertPendingPickup(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	args := m.Called(ctx, shipment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shipment), args.Error(1)
}

func (m *mockShipmentRepo) MarkLabelCreated(ctx context.Context, shipmentID int64, refs repository.RemoteRefs) error {
	return m.Called(ctx, shipmentID, refs).Error(0)
}

func (m *mockShipmentRepo) GetByID(ctx context.Context, shipmentID int64) (*models.Shipment, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shipment), args.Error(1)
}

func (m *mockShipmentRepo) GetByOrderAndMerchant(ctx context.Context, orderID string, merchantID int64) (*models.Shipment, error) {
	args := m.Called(ctx, orderID, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shipment), args.Error(1)
}

func (m *mockShipmentRepo) UpsertShopPendingPickup(ctx context.Context, shipment *models.ShopShipment) (*models.ShopShipment, error) {
	args := m.Called(ctx, shipment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShopShipment), args.Error(1)
}

func (m *mockShipmentRepo) MarkShopLabelCreated(ctx context.Context, shipmentID int64, refs repository.RemoteRefs) error {
	return m.Called(ctx, shipmentID, refs).Error(0)
}

func (m *mockShipmentRepo) GetShopByID(ctx context.Context, shipmentID int64) (*models.ShopShipment, error) {
	args := m.Called(ctx, shipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShopShipment), args.Error(1)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) GetShopOrderByID(ctx context.Context, orderID string) (*models.ShopOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShopOrder), args.Error(1)
}

type mockMerchantRepo struct{ mock.Mock }

func (m *mockMerchantRepo) GetByID(ctx context.Context, merchantID int64) (*models.MerchantProfile, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MerchantProfile), args.Error(1)
}

func (m *mockMerchantRepo) SavePickupLocation(ctx context.Context, merchantID int64, name string, locationID *int64) error {
	return m.Called(ctx, merchantID, name, locationID).Error(0)
}

type mockAddressRepo struct{ mock.Mock }

func (m *mockAddressRepo) GetByID(ctx context.Context, addressID int64) (*models.UserAddress, error) {
	args := m.Called(ctx, addressID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAddress), args.Error(1)
}

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) GetShipping(ctx context.Context, productID int64) (*models.ProductShipping, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductShipping), args.Error(1)
}

type fixture struct {
	gateway   *mockGateway
	prober    *mockProber
	resolver  *mockResolver
	shipments *mockShipmentRepo
	orders    *mockOrderRepo
	merchants *mockMerchantRepo
	addresses *mockAddressRepo
	products  *mockProductRepo
	publisher *mockPublisher
	orch      *ShippingOrchestrator
}

func newFixture() *fixture {
	f := &fixture{
		gateway:   &mockGateway{},
		prober:    &mockProber{},
		resolver:  &mockResolver{},
		shipments: &mockShipmentRepo{},
		orders:    &mockOrderRepo{},
		merchants: &mockMerchantRepo{},
		addresses: &mockAddressRepo{},
		products:  &mockProductRepo{},
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	f.orch = NewShippingOrchestrator(
		f.gateway, f.prober, f.resolver,
		f.shipments, f.orders, f.merchants, f.addresses, f.products,
		nil, logger,
	)
	return f
}

// newPublishingFixture wires a mock event publisher instead of the nil one.
func newPublishingFixture() *fixture {
	f := newFixture()
	f.publisher = &mockPublisher{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	f.orch = NewShippingOrchestrator(
		f.gateway, f.prober, f.resolver,
		f.shipments, f.orders, f.merchants, f.addresses, f.products,
		f.publisher, logger,
	)
	return f
}

func testOrder() *models.Order {
	return &models.Order{
		OrderID:       "ORD-1001",
		OrderDate:     time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   2400,
		Items: []models.OrderItem{
			{OrderID: "ORD-1001", ProductID: 101, MerchantID: 7, ProductNameAtPurchase: "Ceramic Mug", SKUAtPurchase: "MUG-1", Quantity: 2, UnitPriceInclusiveGST: 700},
			{OrderID: "ORD-1001", ProductID: 102, MerchantID: 7, ProductNameAtPurchase: "Tea Pot", SKUAtPurchase: "POT-1", Quantity: 1, UnitPriceInclusiveGST: 1000},
		},
		User: &models.User{ID: 5, Email: "buyer@example.com", Phone: "9876543210"},
	}
}

func testMerchant() *models.MerchantProfile {
	return &models.MerchantProfile{
		ID:           7,
		BusinessName: "Acme Crafts",
		PostalCode:   "110001",
	}
}

func testDelivery() *models.UserAddress {
	return &models.UserAddress{
		AddressID:     33,
		ContactName:   "R Sharma",
		ContactPhone:  "9876543210",
		AddressLine1:  "14 MG Road",
		City:          "Bengaluru",
		StateProvince: "Karnataka",
		PostalCode:    "560001",
		CountryCode:   "IN",
	}
}

func testCouriers() *carrier.ServiceabilityResult {
	return &carrier.ServiceabilityResult{
		Couriers: []carrier.CourierCandidate{
			{CourierCompanyID: 10, CourierName: "Slowpost", Rate: "80", Rating: "4.0"},
			{CourierCompanyID: 24, CourierName: "Bluedart", Rate: "95", Rating: "4.6"},
		},
	}
}

func pendingShipment() *models.Shipment {
	courierID := 24
	return &models.Shipment{
		ShipmentID:     555,
		OrderID:        "ORD-1001",
		MerchantID:     7,
		CarrierName:    "Bluedart",
		CourierID:      &courierID,
		ShipmentStatus: models.ShipmentStatusPendingPickup,
	}
}

func testShopOrder() *models.ShopOrder {
	return &models.ShopOrder{
		OrderID:       "SO-2001",
		ShopID:        3,
		OrderDate:     time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   1200,
		Items: []models.ShopOrderItem{
			{OrderID: "SO-2001", ProductID: 201, ProductNameAtPurchase: "Scented Candle", SKUAtPurchase: "CAN-1", Quantity: 2, UnitPriceInclusiveGST: 600},
		},
		User: &models.User{ID: 6, Email: "shopper@example.com", Phone: "9123456780"},
	}
}

func pendingShopShipment() *models.ShopShipment {
	courierID := 24
	return &models.ShopShipment{
		ShipmentID:     777,
		ShopOrderID:    "SO-2001",
		ShopID:         3,
		CarrierName:    "Bluedart",
		CourierID:      &courierID,
		ShipmentStatus: models.ShipmentStatusPendingPickup,
	}
}

func TestCreateShipmentFullChain(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(testOrder(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	// 2 x 0.5kg + 1 x 0.5kg default weights; unpaid order ships COD.
	f.prober.On("Check", mock.Anything, "110001", "560001", 1.5, float64(2400)).Return(testCouriers(), nil)
	f.shipments.On("UpsertPendingPickup", mock.Anything, mock.Anything).Return(pendingShipment(), nil)
	f.resolver.On("ResolveMerchant", mock.Anything, int64(7)).Return("Merchant_7_Acme_Crafts")

	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&carrier.OrderResponse{
		Status: 200,
		Data: struct {
			OrderID    int64 `json:"order_id"`
			ShipmentID int64 `json:"shipment_id"`
		}{OrderID: 9001, ShipmentID: 9002},
	}, nil)
	f.gateway.On("AssignAWB", mock.Anything, int64(9002), 24).Return(&carrier.AWBResponse{
		Status: 200,
		Data: struct {
			AWBCode     string `json:"awb_code"`
			CourierName string `json:"courier_name"`
		}{AWBCode: "AWB123", CourierName: "Bluedart Surface"},
	}, nil)
	f.gateway.On("GeneratePickup", mock.Anything, int64(9002)).Return(&carrier.PickupResponse{Status: 200}, nil)
	var recordedRefs repository.RemoteRefs
	f.shipments.On("MarkLabelCreated", mock.Anything, int64(555), mock.Anything).
		Run(func(args mock.Arguments) { recordedRefs = args.Get(2).(repository.RemoteRefs) }).
		Return(nil)
	f.shipments.On("GetByID", mock.Anything, int64(555)).Return(pendingShipment(), nil)

	result, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:           "ORD-1001",
		MerchantID:        7,
		DeliveryAddressID: 33,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotNil(t, result.ShiprocketOrderID)
	assert.Equal(t, int64(9001), *result.ShiprocketOrderID)
	require.NotNil(t, result.AWBCode)
	assert.Equal(t, "AWB123", *result.AWBCode)
	assert.Equal(t, "Bluedart Surface", result.CourierName)
	require.Len(t, result.Steps, 5)
	assert.Equal(t, "resolve_pickup_location", result.Steps[0].Step)
	for _, step := range result.Steps {
		assert.True(t, step.OK, step.Step)
	}

	assert.Equal(t, "AWB123", recordedRefs.AWBCode)
	assert.Equal(t, int64(9001), recordedRefs.OrderID)
	assert.Equal(t, "Bluedart Surface", recordedRefs.CourierName)
}

func TestCreateShipmentRemoteFailureStillSucceeds(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(testOrder(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	f.prober.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(testCouriers(), nil)
	f.shipments.On("UpsertPendingPickup", mock.Anything, mock.Anything).Return(pendingShipment(), nil)
	f.resolver.On("ResolveMerchant", mock.Anything, int64(7)).Return("Merchant_7_Acme_Crafts")
	f.shipments.On("GetByID", mock.Anything, int64(555)).Return(pendingShipment(), nil)

	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, &carrier.APIError{Status: 500, Body: "upstream down"})

	result, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:           "ORD-1001",
		MerchantID:        7,
		DeliveryAddressID: 33,
	})
	require.NoError(t, err, "a carrier failure after the local record must not fail the call")

	assert.True(t, result.Success)
	assert.Equal(t, "Shipment created; carrier label pending", result.Message)
	assert.Nil(t, result.ShiprocketOrderID)
	assert.Nil(t, result.AWBCode)
	assert.Equal(t, "pending_pickup", result.Shipment["shipment_status"])

	require.Len(t, result.Steps, 2)
	assert.True(t, result.Steps[0].OK, "pickup resolution is always usable")
	assert.False(t, result.Steps[1].OK)
	assert.Equal(t, "create_order", result.Steps[1].Step)

	f.gateway.AssertNotCalled(t, "AssignAWB", mock.Anything, mock.Anything, mock.Anything)
	f.shipments.AssertNotCalled(t, "MarkLabelCreated", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateShipmentCapsCOD(t *testing.T) {
	f := newFixture()

	order := testOrder()
	order.TotalAmount = 75000

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(order, nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	f.prober.On("Check", mock.Anything, "110001", "560001", 1.5, float64(50000)).Return(&carrier.ServiceabilityResult{Couriers: []carrier.CourierCandidate{}}, nil)

	_, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:           "ORD-1001",
		MerchantID:        7,
		DeliveryAddressID: 33,
	})

	var noService *NoServiceError
	assert.ErrorAs(t, err, &noService)
	f.prober.AssertExpectations(t)
}

func TestCreateShipmentPrepaidHasNoCOD(t *testing.T) {
	f := newFixture()

	order := testOrder()
	order.PaymentStatus = models.PaymentStatusPaid

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(order, nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	f.prober.On("Check", mock.Anything, "110001", "560001", 1.5, float64(0)).Return(&carrier.ServiceabilityResult{Couriers: []carrier.CourierCandidate{}}, nil)

	_, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:           "ORD-1001",
		MerchantID:        7,
		DeliveryAddressID: 33,
	})

	assert.Error(t, err)
	f.prober.AssertExpectations(t)
}

func TestCreateShipmentUsesRecordedDims(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(testOrder(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, int64(101)).Return(&models.ProductShipping{ProductID: 101, WeightKg: 1.2, LengthCm: 20, WidthCm: 15, HeightCm: 8}, nil)
	f.products.On("GetShipping", mock.Anything, int64(102)).Return(nil, nil)
	// 2 x 1.2kg recorded + 1 x 0.5kg default.
	f.prober.On("Check", mock.Anything, "110001", "560001", 2.9, float64(2400)).Return(&carrier.ServiceabilityResult{Couriers: []carrier.CourierCandidate{}}, nil)

	_, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:           "ORD-1001",
		MerchantID:        7,
		DeliveryAddressID: 33,
	})

	assert.Error(t, err)
	f.prober.AssertExpectations(t)
}

func TestCreateShipmentHonorsPreferredCourier(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(testOrder(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	f.prober.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(testCouriers(), nil)
	f.resolver.On("ResolveMerchant", mock.Anything, int64(7)).Return("Merchant_7_Acme_Crafts")
	f.shipments.On("UpsertPendingPickup", mock.Anything, mock.Anything).Return(pendingShipment(), nil)
	f.shipments.On("GetByID", mock.Anything, int64(555)).Return(pendingShipment(), nil)
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, &carrier.APIError{Status: 500})

	result, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:            "ORD-1001",
		MerchantID:         7,
		DeliveryAddressID:  33,
		PreferredCourierID: 10,
	})
	require.NoError(t, err)

	// 10 is lower rated but explicitly requested.
	assert.Equal(t, 10, result.CourierID)
	assert.Equal(t, "Slowpost", result.CourierName)
}

func TestCreateShipmentNoItemsForMerchant(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(testOrder(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(99)).Return(&models.MerchantProfile{ID: 99, BusinessName: "Other"}, nil)

	_, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:           "ORD-1001",
		MerchantID:        99,
		DeliveryAddressID: 33,
	})

	var validationErr *carrier.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	f.shipments.AssertNotCalled(t, "UpsertPendingPickup", mock.Anything, mock.Anything)
}

func TestCreateShipmentsForOrderIsolatesMerchantFailures(t *testing.T) {
	f := newFixture()

	order := testOrder()
	order.Items = append(order.Items, models.OrderItem{
		OrderID: "ORD-1001", ProductID: 300, MerchantID: 9,
		ProductNameAtPurchase: "Lamp", Quantity: 1, UnitPriceInclusiveGST: 400,
	})

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(order, nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(9)).Return(nil, &repository.NotFoundError{Resource: "merchant", Key: "9"})
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	f.prober.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(testCouriers(), nil)
	f.resolver.On("ResolveMerchant", mock.Anything, int64(7)).Return("Merchant_7_Acme_Crafts")
	f.shipments.On("UpsertPendingPickup", mock.Anything, mock.Anything).Return(pendingShipment(), nil)
	f.shipments.On("GetByID", mock.Anything, int64(555)).Return(pendingShipment(), nil)
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, &carrier.APIError{Status: 502})

	bulk, err := f.orch.CreateShipmentsForOrder(context.Background(), "ORD-1001", 33, 0)
	require.NoError(t, err)

	assert.True(t, bulk.Success, "one shipped merchant makes the bulk call a success")
	assert.Equal(t, 2, bulk.TotalMerchants)
	assert.Equal(t, 1, bulk.Created)
	assert.Equal(t, 1, bulk.Failed)
	require.Contains(t, bulk.Merchants, int64(7))
	require.Contains(t, bulk.Merchants, int64(9))
	assert.True(t, bulk.Merchants[7].Success)
	assert.False(t, bulk.Merchants[9].Success)
	assert.NotEmpty(t, bulk.Merchants[9].Error)
}

func TestCreateShipmentsForOrderAllMerchantsFailing(t *testing.T) {
	f := newFixture()

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(testOrder(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(nil, &repository.NotFoundError{Resource: "merchant", Key: "7"})

	bulk, err := f.orch.CreateShipmentsForOrder(context.Background(), "ORD-1001", 33, 0)
	require.NoError(t, err)

	assert.False(t, bulk.Success)
	assert.Equal(t, 1, bulk.TotalMerchants)
	assert.Equal(t, 0, bulk.Created)
	assert.Equal(t, 1, bulk.Failed)
}

func TestCreateShipmentPublishesLifecycleEvents(t *testing.T) {
	f := newPublishingFixture()

	f.orders.On("GetByID", mock.Anything, "ORD-1001").Return(testOrder(), nil)
	f.merchants.On("GetByID", mock.Anything, int64(7)).Return(testMerchant(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	f.prober.On("Check", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(testCouriers(), nil)
	f.shipments.On("UpsertPendingPickup", mock.Anything, mock.Anything).Return(pendingShipment(), nil)
	f.resolver.On("ResolveMerchant", mock.Anything, int64(7)).Return("Merchant_7_Acme_Crafts")
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&carrier.OrderResponse{
		Status: 200,
		Data: struct {
			OrderID    int64 `json:"order_id"`
			ShipmentID int64 `json:"shipment_id"`
		}{OrderID: 9001, ShipmentID: 9002},
	}, nil)
	f.gateway.On("AssignAWB", mock.Anything, int64(9002), 24).Return(&carrier.AWBResponse{
		Status: 200,
		Data: struct {
			AWBCode     string `json:"awb_code"`
			CourierName string `json:"courier_name"`
		}{AWBCode: "AWB123"},
	}, nil)
	f.gateway.On("GeneratePickup", mock.Anything, int64(9002)).Return(&carrier.PickupResponse{Status: 200}, nil)
	f.shipments.On("MarkLabelCreated", mock.Anything, int64(555), mock.Anything).Return(nil)
	f.shipments.On("GetByID", mock.Anything, int64(555)).Return(pendingShipment(), nil)

	var subjects []string
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { subjects = append(subjects, args.String(1)) }).
		Return(nil)

	_, err := f.orch.CreateShipmentForMerchant(context.Background(), CreateShipmentParams{
		OrderID:           "ORD-1001",
		MerchantID:        7,
		DeliveryAddressID: 33,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		events.SubjectShipmentCreated,
		events.SubjectPickupScheduled,
		events.SubjectLabelCreated,
	}, subjects)
}

func TestCreateShopShipmentFullChain(t *testing.T) {
	f := newFixture()

	f.orders.On("GetShopOrderByID", mock.Anything, "SO-2001").Return(testShopOrder(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.resolver.On("ResolveShop", mock.Anything, int64(3)).Return("Aoin")
	f.gateway.On("ListPickupLocations", mock.Anything).Return([]carrier.PickupLocation{
		{ID: 4242, Name: "Aoin", PinCode: "122001"},
	}, nil)
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	// 2 x 0.5kg default weight; unpaid shop order ships COD from the
	// registered location's pincode.
	f.prober.On("Check", mock.Anything, "122001", "560001", 1.0, float64(1200)).Return(testCouriers(), nil)
	f.shipments.On("UpsertShopPendingPickup", mock.Anything, mock.Anything).Return(pendingShopShipment(), nil)

	var sentOrder *carrier.OrderRequest
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sentOrder = args.Get(1).(*carrier.OrderRequest) }).
		Return(&carrier.OrderResponse{
			Status: 200,
			Data: struct {
				OrderID    int64 `json:"order_id"`
				ShipmentID int64 `json:"shipment_id"`
			}{OrderID: 9101, ShipmentID: 9102},
		}, nil)
	f.gateway.On("AssignAWB", mock.Anything, int64(9102), 24).Return(&carrier.AWBResponse{
		Status: 200,
		Data: struct {
			AWBCode     string `json:"awb_code"`
			CourierName string `json:"courier_name"`
		}{AWBCode: "AWB777"},
	}, nil)
	f.gateway.On("GeneratePickup", mock.Anything, int64(9102)).Return(&carrier.PickupResponse{Status: 200}, nil)
	f.shipments.On("MarkShopLabelCreated", mock.Anything, int64(777), mock.Anything).Return(nil)
	f.shipments.On("GetShopByID", mock.Anything, int64(777)).Return(pendingShopShipment(), nil)

	result, err := f.orch.CreateShipmentForShop(context.Background(), ShopShipmentParams{
		OrderID:           "SO-2001",
		ShopID:            3,
		DeliveryAddressID: 33,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(3), result.ShopID)
	require.NotNil(t, result.AWBCode)
	assert.Equal(t, "AWB777", *result.AWBCode)
	require.Len(t, result.Steps, 5)
	for _, step := range result.Steps {
		assert.True(t, step.OK, step.Step)
	}

	require.NotNil(t, sentOrder)
	assert.Equal(t, "SHOP_SO-2001", sentOrder.OrderID)
	assert.Equal(t, "Aoin", sentOrder.PickupLocation)
	assert.Equal(t, "COD", sentOrder.PaymentMethod)

	f.prober.AssertExpectations(t)
	f.shipments.AssertNotCalled(t, "MarkLabelCreated", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateShopShipmentPincodeFallback(t *testing.T) {
	f := newFixture()

	f.orders.On("GetShopOrderByID", mock.Anything, "SO-2001").Return(testShopOrder(), nil)
	f.addresses.On("GetByID", mock.Anything, int64(33)).Return(testDelivery(), nil)
	f.resolver.On("ResolveShop", mock.Anything, int64(3)).Return("Aoin")
	f.gateway.On("ListPickupLocations", mock.Anything).Return(nil, &carrier.APIError{Status: 500})
	f.products.On("GetShipping", mock.Anything, mock.Anything).Return(nil, nil)
	f.prober.On("Check", mock.Anything, "110001", "560001", 1.0, float64(1200)).Return(&carrier.ServiceabilityResult{Couriers: []carrier.CourierCandidate{}}, nil)

	_, err := f.orch.CreateShipmentForShop(context.Background(), ShopShipmentParams{
		OrderID:           "SO-2001",
		ShopID:            3,
		DeliveryAddressID: 33,
	})

	var noService *NoServiceError
	assert.ErrorAs(t, err, &noService)
	f.prober.AssertExpectations(t)
	f.shipments.AssertNotCalled(t, "UpsertShopPendingPickup", mock.Anything, mock.Anything)
}

func TestCreateShopShipmentRejectsMismatchedShop(t *testing.T) {
	f := newFixture()

	f.orders.On("GetShopOrderByID", mock.Anything, "SO-2001").Return(testShopOrder(), nil)

	_, err := f.orch.CreateShipmentForShop(context.Background(), ShopShipmentParams{
		OrderID:           "SO-2001",
		ShopID:            4,
		DeliveryAddressID: 33,
	})

	var validationErr *carrier.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	f.shipments.AssertNotCalled(t, "UpsertShopPendingPickup", mock.Anything, mock.Anything)
}

func TestGetTrackingForShipmentWithoutRemoteOrder(t *testing.T) {
	f := newFixture()

	f.shipments.On("GetByID", mock.Anything, int64(555)).Return(pendingShipment(), nil)

	_, err := f.orch.GetTrackingForShipment(context.Background(), 555)

	var validationErr *carrier.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	f.gateway.AssertNotCalled(t, "TrackByOrderID", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetTrackingForShipmentTracksByRemoteOrderID(t *testing.T) {
	f := newFixture()

	shipment := pendingShipment()
	remoteOrderID := int64(9001)
	shipment.ShiprocketOrderID = &remoteOrderID
	f.shipments.On("GetByID", mock.Anything, int64(555)).Return(shipment, nil)
	f.gateway.On("TrackByOrderID", mock.Anything, "9001", 0).Return(json.RawMessage(`{"tracking_data":{}}`), nil)

	raw, err := f.orch.GetTrackingForShipment(context.Background(), 555)
	require.NoError(t, err)

	assert.JSONEq(t, `{"tracking_data":{}}`, string(raw))
	f.gateway.AssertExpectations(t)
}
