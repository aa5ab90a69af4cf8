package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"aoin-shipping-service/internal/carrier"
	"aoin-shipping-service/internal/events"
	"aoin-shipping-service/internal/models"
	"aoin-shipping-service/internal/repository"
)

const (
	// ShipRocket rejects COD above this amount.
	maxCODAmount = 50000

	// Packaging defaults applied when a product has no recorded dimensions.
	defaultItemWeightKg = 0.5
	defaultItemDimCm    = 10

	// Pincode used for shop serviceability when the resolved pickup location
	// does not report one.
	fallbackShopPincode = "110001"
)

// ServiceabilityChecker probes courier availability for a lane.
type ServiceabilityChecker interface {
	Check(ctx context.Context, pickupPincode, deliveryPincode string, weightKg, codAmount float64) (*carrier.ServiceabilityResult, error)
}

// CarrierGateway is the slice of the ShipRocket client the orchestrator uses.
type CarrierGateway interface {
	CreateOrder(ctx context.Context, order *carrier.OrderRequest) (*carrier.OrderResponse, error)
	AssignAWB(ctx context.Context, shipmentID int64, courierID int) (*carrier.AWBResponse, error)
	GeneratePickup(ctx context.Context, shipmentID int64) (*carrier.PickupResponse, error)
	TrackByAWB(ctx context.Context, awbCode string) (json.RawMessage, error)
	TrackByOrderID(ctx context.Context, orderID string, channelID int) (json.RawMessage, error)
	ListPickupLocations(ctx context.Context) ([]carrier.PickupLocation, error)
}

// LocationResolver resolves pickup location names for merchants and shops.
type LocationResolver interface {
	ResolveMerchant(ctx context.Context, merchantID int64) string
	ResolveShop(ctx context.Context, shopID int64) string
}

// EventPublisher publishes shipment lifecycle events. Publishing is always
// best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

// StepResult records the outcome of one remote provisioning step.
type StepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ShipmentResult is the outcome of a shipment creation. Success reflects the
// local record only: remote identifiers stay nil when the carrier chain did
// not complete, and the caller retries label creation later.
type ShipmentResult struct {
	Success              bool                          `json:"success"`
	Message              string                        `json:"message"`
	OrderID              string                        `json:"order_id"`
	MerchantID           int64                         `json:"merchant_id,omitempty"`
	ShopID               int64                         `json:"shop_id,omitempty"`
	ShiprocketOrderID    *int64                        `json:"shiprocket_order_id"`
	ShiprocketShipmentID *int64                        `json:"shiprocket_shipment_id"`
	AWBCode              *string                       `json:"awb_code"`
	CourierID            int                           `json:"courier_id"`
	CourierName          string                        `json:"courier_name"`
	Courier              *carrier.CourierCandidate     `json:"courier,omitempty"`
	Serviceability       *carrier.ServiceabilityResult `json:"serviceability,omitempty"`
	Shipment             map[string]interface{}        `json:"shipment"`
	Steps                []StepResult                  `json:"steps"`
}

// MerchantOutcome is one merchant's slot in a bulk shipment result.
type MerchantOutcome struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Result  *ShipmentResult `json:"result,omitempty"`
}

// BulkShipmentResult reports per-merchant outcomes for a whole order.
// Success means at least one merchant shipped; individual failures stay
// visible in Merchants.
type BulkShipmentResult struct {
	Success        bool                       `json:"success"`
	OrderID        string                     `json:"order_id"`
	TotalMerchants int                        `json:"total_merchants"`
	Created        int                        `json:"created"`
	Failed         int                        `json:"failed"`
	Merchants      map[int64]*MerchantOutcome `json:"merchants"`
}

// CreateShipmentParams are the inputs for a per-merchant shipment.
type CreateShipmentParams struct {
	OrderID            string
	MerchantID         int64
	PickupAddressID    *int64
	DeliveryAddressID  int64
	PreferredCourierID int
}

// ShopShipmentParams are the inputs for a shop order shipment.
type ShopShipmentParams struct {
	OrderID            string
	ShopID             int64
	DeliveryAddressID  int64
	PreferredCourierID int
}

// ShippingOrchestrator drives shipment creation end to end: entity
// resolution, serviceability, courier selection, the local record, and the
// best-effort remote chain against ShipRocket.
type ShippingOrchestrator struct {
	carrier   CarrierGateway
	prober    ServiceabilityChecker
	resolver  LocationResolver
	shipments repository.ShipmentRepository
	orders    repository.OrderRepository
	merchants repository.MerchantRepository
	addresses repository.AddressRepository
	products  repository.ProductRepository
	events    EventPublisher
	logger    *logrus.Entry
}

// NewShippingOrchestrator creates the orchestrator. publisher may be nil when
// eventing is disabled.
func NewShippingOrchestrator(
	gateway CarrierGateway,
	prober ServiceabilityChecker,
	resolver LocationResolver,
	shipments repository.ShipmentRepository,
	orders repository.OrderRepository,
	merchants repository.MerchantRepository,
	addresses repository.AddressRepository,
	products repository.ProductRepository,
	publisher EventPublisher,
	logger *logrus.Logger,
) *ShippingOrchestrator {
	return &ShippingOrchestrator{
		carrier:   gateway,
		prober:    prober,
		resolver:  resolver,
		shipments: shipments,
		orders:    orders,
		merchants: merchants,
		addresses: addresses,
		products:  products,
		events:    publisher,
		logger:    logger.WithField("component", "shipping.orchestrator"),
	}
}

// packageSpec is the aggregated parcel for one shipment.
type packageSpec struct {
	WeightKg  float64
	LengthCm  float64
	BreadthCm float64
	HeightCm  float64
}

type itemLine struct {
	productID int64
	quantity  int
}

// aggregatePackage sums item weights and takes the max of each dimension,
// falling back to packaging defaults per item when a product has no recorded
// shipping data.
func (o *ShippingOrchestrator) aggregatePackage(ctx context.Context, lines []itemLine) packageSpec {
	pkg := packageSpec{}
	for _, line := range lines {
		weight := defaultItemWeightKg
		length, breadth, height := float64(defaultItemDimCm), float64(defaultItemDimCm), float64(defaultItemDimCm)

		shipping, err := o.products.GetShipping(ctx, line.productID)
		if err != nil {
			o.logger.Warnf("Failed to load shipping data for product %d: %v", line.productID, err)
		} else if shipping != nil {
			if shipping.WeightKg > 0 {
				weight = shipping.WeightKg
			}
			if shipping.LengthCm > 0 {
				length = shipping.LengthCm
			}
			if shipping.WidthCm > 0 {
				breadth = shipping.WidthCm
			}
			if shipping.HeightCm > 0 {
				height = shipping.HeightCm
			}
		}

		qty := line.quantity
		if qty < 1 {
			qty = 1
		}
		pkg.WeightKg += weight * float64(qty)
		if length > pkg.LengthCm {
			pkg.LengthCm = length
		}
		if breadth > pkg.BreadthCm {
			pkg.BreadthCm = breadth
		}
		if height > pkg.HeightCm {
			pkg.HeightCm = height
		}
	}

	if pkg.WeightKg <= 0 {
		pkg.WeightKg = defaultItemWeightKg
	}
	if pkg.LengthCm <= 0 {
		pkg.LengthCm = defaultItemDimCm
	}
	if pkg.BreadthCm <= 0 {
		pkg.BreadthCm = defaultItemDimCm
	}
	if pkg.HeightCm <= 0 {
		pkg.HeightCm = defaultItemDimCm
	}
	return pkg
}

// codAmountFor returns the collect-on-delivery amount for an order total.
// Prepaid orders ship with no COD; COD is capped at the carrier maximum.
func codAmountFor(paid bool, total float64) float64 {
	if paid {
		return 0
	}
	if total > maxCODAmount {
		return maxCODAmount
	}
	return total
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDim(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func (o *ShippingOrchestrator) publish(ctx context.Context, subject string, payload interface{}) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, subject, payload); err != nil {
		o.logger.Warnf("Failed to publish %s event: %v", subject, err)
	}
}

// CreateShipmentForMerchant creates the shipment for one merchant's slice of
// an order. The local record is mandatory; everything against ShipRocket
// afterwards is best-effort and reported through Steps.
func (o *ShippingOrchestrator) CreateShipmentForMerchant(ctx context.Context, params CreateShipmentParams) (*ShipmentResult, error) {
	log := o.logger.WithFields(logrus.Fields{
		"order_id":    params.OrderID,
		"merchant_id": params.MerchantID,
	})

	order, err := o.orders.GetByID(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}
	merchant, err := o.merchants.GetByID(ctx, params.MerchantID)
	if err != nil {
		return nil, err
	}

	var merchantItems []models.OrderItem
	for _, item := range order.Items {
		if item.MerchantID == params.MerchantID {
			merchantItems = append(merchantItems, item)
		}
	}
	if len(merchantItems) == 0 {
		return nil, &carrier.ValidationError{Field: "merchant_id", Reason: "order has no items for this merchant"}
	}

	delivery, err := o.addresses.GetByID(ctx, params.DeliveryAddressID)
	if err != nil {
		return nil, err
	}

	pickupPincode := merchant.PostalCode
	if params.PickupAddressID != nil {
		pickup, err := o.addresses.GetByID(ctx, *params.PickupAddressID)
		if err != nil {
			return nil, err
		}
		pickupPincode = pickup.PostalCode
	}

	lines := make([]itemLine, 0, len(merchantItems))
	subTotal := 0.0
	for _, item := range merchantItems {
		lines = append(lines, itemLine{productID: item.ProductID, quantity: item.Quantity})
		subTotal += item.UnitPriceInclusiveGST * float64(item.Quantity)
	}
	pkg := o.aggregatePackage(ctx, lines)
	codAmount := codAmountFor(order.IsPaid(), order.TotalAmount)

	serviceability, err := o.prober.Check(ctx, pickupPincode, delivery.PostalCode, pkg.WeightKg, codAmount)
	if err != nil {
		return nil, err
	}
	courier, ok := carrier.SelectCourier(serviceability.Couriers, params.PreferredCourierID)
	if !ok {
		return nil, &NoServiceError{PickupPincode: pickupPincode, DeliveryPincode: delivery.PostalCode}
	}
	log.Infof("Selected courier %s (%d) at rate %s", courier.CourierName, courier.CourierCompanyID, courier.Rate)

	courierID := courier.CourierCompanyID
	deliveryAddressID := params.DeliveryAddressID
	shipment, err := o.shipments.UpsertPendingPickup(ctx, &models.Shipment{
		OrderID:           params.OrderID,
		MerchantID:        params.MerchantID,
		CarrierName:       courier.CourierName,
		CourierID:         &courierID,
		ShipmentStatus:    models.ShipmentStatusPendingPickup,
		PickupAddressID:   params.PickupAddressID,
		DeliveryAddressID: &deliveryAddressID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record shipment: %w", err)
	}
	o.publish(ctx, events.SubjectShipmentCreated, shipment.Serialize())

	result := &ShipmentResult{
		Success:        true,
		Message:        "Shipment created",
		OrderID:        params.OrderID,
		MerchantID:     params.MerchantID,
		CourierID:      courier.CourierCompanyID,
		CourierName:    courier.CourierName,
		Courier:        &courier,
		Serviceability: serviceability,
	}

	pickupLocation := o.resolver.ResolveMerchant(ctx, params.MerchantID)
	// Resolution is best-effort and always yields a usable name.
	result.Steps = append(result.Steps, StepResult{Step: "resolve_pickup_location", OK: true})
	orderReq := o.buildOrderRequest(order, merchant, delivery, merchantItems, pickupLocation, pkg, subTotal)

	o.runRemoteChain(ctx, log, result, orderReq, courier.CourierCompanyID, courier.CourierName, shipment.ShipmentID, false)

	// Re-read so the serialized record reflects whatever the chain persisted.
	if fresh, err := o.shipments.GetByID(ctx, shipment.ShipmentID); err == nil {
		shipment = fresh
	}
	result.Shipment = shipment.Serialize()
	return result, nil
}

// runRemoteChain performs the best-effort ShipRocket chain: create the remote
// order, assign an AWB, schedule pickup, then persist the remote identifiers.
// The first failing step stops the chain; the local record stays
// pending_pickup for a later retry.
func (o *ShippingOrchestrator) runRemoteChain(
	ctx context.Context,
	log *logrus.Entry,
	result *ShipmentResult,
	orderReq *carrier.OrderRequest,
	courierID int,
	courierName string,
	localShipmentID int64,
	shop bool,
) {
	var (
		orderResp *carrier.OrderResponse
		awbResp   *carrier.AWBResponse
	)

	runStep := func(name string, fn func() error) bool {
		if err := fn(); err != nil {
			log.Warnf("Remote step %s failed: %v", name, err)
			result.Steps = append(result.Steps, StepResult{Step: name, OK: false, Error: err.Error()})
			result.Message = "Shipment created; carrier label pending"
			return false
		}
		result.Steps = append(result.Steps, StepResult{Step: name, OK: true})
		return true
	}

	ok := runStep("create_order", func() error {
		var err error
		orderResp, err = o.carrier.CreateOrder(ctx, orderReq)
		return err
	})
	if ok {
		remoteOrderID := orderResp.Data.OrderID
		remoteShipmentID := orderResp.Data.ShipmentID
		result.ShiprocketOrderID = &remoteOrderID
		result.ShiprocketShipmentID = &remoteShipmentID

		ok = runStep("assign_awb", func() error {
			var err error
			awbResp, err = o.carrier.AssignAWB(ctx, orderResp.Data.ShipmentID, courierID)
			return err
		})
	}
	if ok {
		awb := awbResp.Data.AWBCode
		result.AWBCode = &awb
		if awbResp.Data.CourierName != "" {
			result.CourierName = awbResp.Data.CourierName
		}

		ok = runStep("generate_pickup", func() error {
			if _, err := o.carrier.GeneratePickup(ctx, orderResp.Data.ShipmentID); err != nil {
				return err
			}
			o.publish(ctx, events.SubjectPickupScheduled, map[string]interface{}{
				"shipment_id":            localShipmentID,
				"shiprocket_shipment_id": orderResp.Data.ShipmentID,
			})
			return nil
		})
	}
	if ok {
		runStep("record_remote_refs", func() error {
			now := time.Now().UTC()
			name := courierName
			if awbResp.Data.CourierName != "" {
				name = awbResp.Data.CourierName
			}
			refs := repository.RemoteRefs{
				OrderID:     orderResp.Data.OrderID,
				ShipmentID:  orderResp.Data.ShipmentID,
				AWBCode:     awbResp.Data.AWBCode,
				CourierName: name,
				ShippedAt:   now,
				PickupAt:    now,
			}
			var err error
			if shop {
				err = o.shipments.MarkShopLabelCreated(ctx, localShipmentID, refs)
			} else {
				err = o.shipments.MarkLabelCreated(ctx, localShipmentID, refs)
			}
			if err == nil {
				o.publish(ctx, events.SubjectLabelCreated, map[string]interface{}{
					"shipment_id": localShipmentID,
					"awb_code":    refs.AWBCode,
					"courier":     refs.CourierName,
				})
			}
			return err
		})
	}
}

// buildOrderRequest assembles the ShipRocket adhoc order payload for one
// merchant's slice of a marketplace order.
func (o *ShippingOrchestrator) buildOrderRequest(
	order *models.Order,
	merchant *models.MerchantProfile,
	delivery *models.UserAddress,
	items []models.OrderItem,
	pickupLocation string,
	pkg packageSpec,
	subTotal float64,
) *carrier.OrderRequest {
	orderItems := make([]carrier.OrderItem, 0, len(items))
	for _, item := range items {
		discount := ""
		if item.DiscountPerUnit > 0 {
			discount = formatAmount(item.DiscountPerUnit)
		}
		tax := ""
		if item.GSTAmountPerUnit > 0 {
			tax = formatAmount(item.GSTAmountPerUnit)
		}
		orderItems = append(orderItems, carrier.OrderItem{
			Name:         item.ProductNameAtPurchase,
			SKU:          item.SKUAtPurchase,
			Units:        strconv.Itoa(item.Quantity),
			SellingPrice: formatAmount(item.UnitPriceInclusiveGST),
			Discount:     discount,
			Tax:          tax,
		})
	}

	email := ""
	phone := delivery.ContactPhone
	if order.User != nil {
		email = order.User.Email
		if phone == "" {
			phone = order.User.Phone
		}
	}

	paymentMethod := "COD"
	if order.IsPaid() {
		paymentMethod = "Prepaid"
	}

	return &carrier.OrderRequest{
		OrderID:             fmt.Sprintf("%s_%d", order.OrderID, merchant.ID),
		OrderDate:           order.OrderDate.Format("2006-01-02 15:04"),
		PickupLocation:      pickupLocation,
		CompanyName:         merchant.BusinessName,
		BillingCustomerName: delivery.ContactName,
		BillingAddress:      delivery.AddressLine1,
		BillingAddress2:     delivery.AddressLine2,
		BillingCity:         delivery.City,
		BillingPincode:      delivery.PostalCode,
		BillingState:        delivery.StateProvince,
		BillingCountry:      delivery.CountryCode,
		BillingEmail:        email,
		BillingPhone:        carrier.FormatPhone(phone),
		ShippingIsBilling:   "true",
		OrderItems:          orderItems,
		PaymentMethod:       paymentMethod,
		ShippingCharges:     "0",
		SubTotal:            formatAmount(subTotal),
		Length:              formatDim(pkg.LengthCm),
		Breadth:             formatDim(pkg.BreadthCm),
		Height:              formatDim(pkg.HeightCm),
		Weight:              formatDim(pkg.WeightKg),
	}
}

// CreateShipmentsForOrder creates shipments for every merchant on an order.
// Each merchant is isolated: one merchant failing does not stop the rest.
func (o *ShippingOrchestrator) CreateShipmentsForOrder(ctx context.Context, orderID string, deliveryAddressID int64, preferredCourierID int) (*BulkShipmentResult, error) {
	order, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, &carrier.ValidationError{Field: "order_id", Reason: "order has no items"}
	}

	merchantIDs := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, item := range order.Items {
		if !seen[item.MerchantID] {
			seen[item.MerchantID] = true
			merchantIDs = append(merchantIDs, item.MerchantID)
		}
	}
	sort.Slice(merchantIDs, func(i, j int) bool { return merchantIDs[i] < merchantIDs[j] })

	bulk := &BulkShipmentResult{
		OrderID:        orderID,
		TotalMerchants: len(merchantIDs),
		Merchants:      make(map[int64]*MerchantOutcome, len(merchantIDs)),
	}
	for _, merchantID := range merchantIDs {
		result, err := o.CreateShipmentForMerchant(ctx, CreateShipmentParams{
			OrderID:            orderID,
			MerchantID:         merchantID,
			DeliveryAddressID:  deliveryAddressID,
			PreferredCourierID: preferredCourierID,
		})
		if err != nil {
			o.logger.WithFields(logrus.Fields{
				"order_id":    orderID,
				"merchant_id": merchantID,
			}).Errorf("Failed to create shipment: %v", err)
			bulk.Merchants[merchantID] = &MerchantOutcome{Success: false, Error: err.Error()}
			bulk.Failed++
			continue
		}
		bulk.Merchants[merchantID] = &MerchantOutcome{Success: true, Result: result}
		bulk.Created++
	}
	bulk.Success = bulk.Created > 0
	return bulk, nil
}

// CreateShipmentForShop creates the shipment for a shop order. Shop orders
// ship from a shared account pickup location instead of a merchant one.
func (o *ShippingOrchestrator) CreateShipmentForShop(ctx context.Context, params ShopShipmentParams) (*ShipmentResult, error) {
	log := o.logger.WithFields(logrus.Fields{
		"order_id": params.OrderID,
		"shop_id":  params.ShopID,
	})

	order, err := o.orders.GetShopOrderByID(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}
	if order.ShopID != params.ShopID {
		return nil, &carrier.ValidationError{Field: "shop_id", Reason: "order does not belong to this shop"}
	}
	if len(order.Items) == 0 {
		return nil, &carrier.ValidationError{Field: "order_id", Reason: "order has no items"}
	}

	delivery, err := o.addresses.GetByID(ctx, params.DeliveryAddressID)
	if err != nil {
		return nil, err
	}

	pickupLocation := o.resolver.ResolveShop(ctx, params.ShopID)
	pickupPincode := o.pickupPincodeFor(ctx, pickupLocation)

	lines := make([]itemLine, 0, len(order.Items))
	subTotal := 0.0
	for _, item := range order.Items {
		lines = append(lines, itemLine{productID: item.ProductID, quantity: item.Quantity})
		subTotal += item.UnitPriceInclusiveGST * float64(item.Quantity)
	}
	pkg := o.aggregatePackage(ctx, lines)
	codAmount := codAmountFor(order.IsPaid(), order.TotalAmount)

	serviceability, err := o.prober.Check(ctx, pickupPincode, delivery.PostalCode, pkg.WeightKg, codAmount)
	if err != nil {
		return nil, err
	}
	courier, ok := carrier.SelectCourier(serviceability.Couriers, params.PreferredCourierID)
	if !ok {
		return nil, &NoServiceError{PickupPincode: pickupPincode, DeliveryPincode: delivery.PostalCode}
	}
	log.Infof("Selected courier %s (%d) at rate %s", courier.CourierName, courier.CourierCompanyID, courier.Rate)

	courierID := courier.CourierCompanyID
	deliveryAddressID := params.DeliveryAddressID
	shipment, err := o.shipments.UpsertShopPendingPickup(ctx, &models.ShopShipment{
		ShopOrderID:       params.OrderID,
		ShopID:            params.ShopID,
		CarrierName:       courier.CourierName,
		CourierID:         &courierID,
		ShipmentStatus:    models.ShipmentStatusPendingPickup,
		DeliveryAddressID: &deliveryAddressID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record shipment: %w", err)
	}
	o.publish(ctx, events.SubjectShipmentCreated, shipment.Serialize())

	result := &ShipmentResult{
		Success:        true,
		Message:        "Shipment created",
		OrderID:        params.OrderID,
		ShopID:         params.ShopID,
		CourierID:      courier.CourierCompanyID,
		CourierName:    courier.CourierName,
		Courier:        &courier,
		Serviceability: serviceability,
	}

	result.Steps = append(result.Steps, StepResult{Step: "resolve_pickup_location", OK: true})
	orderReq := o.buildShopOrderRequest(order, delivery, pickupLocation, pkg, subTotal)
	o.runRemoteChain(ctx, log, result, orderReq, courier.CourierCompanyID, courier.CourierName, shipment.ShipmentID, true)

	if fresh, err := o.shipments.GetShopByID(ctx, shipment.ShipmentID); err == nil {
		shipment = fresh
	}
	result.Shipment = shipment.Serialize()
	return result, nil
}

// pickupPincodeFor looks up the pincode of a registered pickup location by
// name, falling back to the account default when the lookup fails.
func (o *ShippingOrchestrator) pickupPincodeFor(ctx context.Context, pickupLocation string) string {
	locations, err := o.carrier.ListPickupLocations(ctx)
	if err != nil {
		o.logger.Warnf("Failed to list pickup locations for pincode lookup: %v", err)
		return fallbackShopPincode
	}
	for _, loc := range locations {
		if loc.Name == pickupLocation && loc.PinCode != "" {
			return loc.PinCode
		}
	}
	return fallbackShopPincode
}

func (o *ShippingOrchestrator) buildShopOrderRequest(
	order *models.ShopOrder,
	delivery *models.UserAddress,
	pickupLocation string,
	pkg packageSpec,
	subTotal float64,
) *carrier.OrderRequest {
	orderItems := make([]carrier.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		discount := ""
		if item.DiscountPerUnit > 0 {
			discount = formatAmount(item.DiscountPerUnit)
		}
		tax := ""
		if item.GSTAmountPerUnit > 0 {
			tax = formatAmount(item.GSTAmountPerUnit)
		}
		orderItems = append(orderItems, carrier.OrderItem{
			Name:         item.ProductNameAtPurchase,
			SKU:          item.SKUAtPurchase,
			Units:        strconv.Itoa(item.Quantity),
			SellingPrice: formatAmount(item.UnitPriceInclusiveGST),
			Discount:     discount,
			Tax:          tax,
		})
	}

	email := ""
	phone := delivery.ContactPhone
	if order.User != nil {
		email = order.User.Email
		if phone == "" {
			phone = order.User.Phone
		}
	}

	paymentMethod := "COD"
	if order.IsPaid() {
		paymentMethod = "Prepaid"
	}

	return &carrier.OrderRequest{
		OrderID:             fmt.Sprintf("SHOP_%s", order.OrderID),
		OrderDate:           order.OrderDate.Format("2006-01-02 15:04"),
		PickupLocation:      pickupLocation,
		BillingCustomerName: delivery.ContactName,
		BillingAddress:      delivery.AddressLine1,
		BillingAddress2:     delivery.AddressLine2,
		BillingCity:         delivery.City,
		BillingPincode:      delivery.PostalCode,
		BillingState:        delivery.StateProvince,
		BillingCountry:      delivery.CountryCode,
		BillingEmail:        email,
		BillingPhone:        carrier.FormatPhone(phone),
		ShippingIsBilling:   "true",
		OrderItems:          orderItems,
		PaymentMethod:       paymentMethod,
		ShippingCharges:     "0",
		SubTotal:            formatAmount(subTotal),
		Length:              formatDim(pkg.LengthCm),
		Breadth:             formatDim(pkg.BreadthCm),
		Height:              formatDim(pkg.HeightCm),
		Weight:              formatDim(pkg.WeightKg),
	}
}

// GetTracking fetches raw tracking data for an AWB code.
func (o *ShippingOrchestrator) GetTracking(ctx context.Context, awbCode string) (json.RawMessage, error) {
	if awbCode == "" {
		return nil, &carrier.ValidationError{Field: "awb_code", Reason: "must not be empty"}
	}
	return o.carrier.TrackByAWB(ctx, awbCode)
}

// GetTrackingByOrderID fetches raw tracking data by store order id.
func (o *ShippingOrchestrator) GetTrackingByOrderID(ctx context.Context, orderID string) (json.RawMessage, error) {
	if orderID == "" {
		return nil, &carrier.ValidationError{Field: "order_id", Reason: "must not be empty"}
	}
	return o.carrier.TrackByOrderID(ctx, orderID, 0)
}

// GetTrackingForShipment fetches tracking for a local shipment record, using
// the carrier order id recorded when the remote chain completed.
func (o *ShippingOrchestrator) GetTrackingForShipment(ctx context.Context, shipmentID int64) (json.RawMessage, error) {
	shipment, err := o.shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShiprocketOrderID == nil || *shipment.ShiprocketOrderID == 0 {
		return nil, &carrier.ValidationError{Field: "shipment_id", Reason: "shipment has no carrier order yet"}
	}
	return o.carrier.TrackByOrderID(ctx, strconv.FormatInt(*shipment.ShiprocketOrderID, 10), 0)
}
