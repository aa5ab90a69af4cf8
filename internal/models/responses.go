package models

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse is the envelope for successful requests.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message,omitempty"`
}

// ServiceabilityRequest is the body of POST /api/shiprocket/serviceability.
type ServiceabilityRequest struct {
	PickupPincode   string  `json:"pickup_pincode" binding:"required"`
	DeliveryPincode string  `json:"delivery_pincode" binding:"required"`
	Weight          float64 `json:"weight" binding:"required"`
	COD             bool    `json:"cod"`
	CODAmount       float64 `json:"cod_amount"`
}

// CreateShipmentRequest is the body of POST /api/shiprocket/orders.
type CreateShipmentRequest struct {
	OrderID           string `json:"order_id" binding:"required"`
	MerchantID        int64  `json:"merchant_id" binding:"required"`
	PickupAddressID   *int64 `json:"pickup_address_id"`
	DeliveryAddressID int64  `json:"delivery_address_id" binding:"required"`
	CourierID         int    `json:"courier_id"`
}

// BulkCreateShipmentRequest is the body of POST /api/shiprocket/orders/bulk.
type BulkCreateShipmentRequest struct {
	OrderID           string `json:"order_id" binding:"required"`
	DeliveryAddressID int64  `json:"delivery_address_id" binding:"required"`
	CourierID         int    `json:"courier_id"`
}

// CreateShopShipmentRequest is the body of POST /api/shiprocket/shop-orders.
type CreateShopShipmentRequest struct {
	ShopOrderID       string `json:"shop_order_id" binding:"required"`
	ShopID            int64  `json:"shop_id" binding:"required"`
	DeliveryAddressID int64  `json:"delivery_address_id" binding:"required"`
	CourierID         int    `json:"courier_id"`
}

// AddPickupLocationRequest is the body of POST /api/shiprocket/pickup-locations.
type AddPickupLocationRequest struct {
	PickupLocation string `json:"pickup_location" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	Address        string `json:"address" binding:"required"`
	Address2       string `json:"address_2"`
	City           string `json:"city" binding:"required"`
	State          string `json:"state" binding:"required"`
	Country        string `json:"country" binding:"required"`
	PinCode        string `json:"pin_code" binding:"required"`
}
