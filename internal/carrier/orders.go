package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// OrderItem is one line of a ShipRocket order payload. ShipRocket expects
// numeric fields as strings here.
type OrderItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Units        string `json:"units"`
	SellingPrice string `json:"selling_price"`
	Discount     string `json:"discount"`
	Tax          string `json:"tax"`
	HSN          string `json:"hsn"`
}

// OrderRequest is the payload for orders/create/adhoc. Billing fields double
// as shipping fields via shipping_is_billing.
type OrderRequest struct {
	OrderID               string      `json:"order_id"`
	OrderDate             string      `json:"order_date"`
	PickupLocation        string      `json:"pickup_location"`
	Comment               string      `json:"comment"`
	ResellerName          string      `json:"reseller_name"`
	CompanyName           string      `json:"company_name"`
	BillingCustomerName   string      `json:"billing_customer_name"`
	BillingLastName       string      `json:"billing_last_name"`
	BillingAddress        string      `json:"billing_address"`
	BillingAddress2       string      `json:"billing_address_2"`
	BillingCity           string      `json:"billing_city"`
	BillingPincode        string      `json:"billing_pincode"`
	BillingState          string      `json:"billing_state"`
	BillingCountry        string      `json:"billing_country"`
	BillingEmail          string      `json:"billing_email"`
	BillingPhone          int64       `json:"billing_phone"`
	BillingAlternatePhone string      `json:"billing_alternate_phone"`
	ShippingIsBilling     string      `json:"shipping_is_billing"`
	OrderItems            []OrderItem `json:"order_items"`
	PaymentMethod         string      `json:"payment_method"`
	ShippingCharges       string      `json:"shipping_charges"`
	SubTotal              string      `json:"sub_total"`
	Length                string      `json:"length"`
	Breadth               string      `json:"breadth"`
	Height                string      `json:"height"`
	Weight                string      `json:"weight"`
}

// OrderResponse is the result of orders/create/adhoc.
type OrderResponse struct {
	Status int `json:"status"`
	Data   struct {
		OrderID    int64 `json:"order_id"`
		ShipmentID int64 `json:"shipment_id"`
	} `json:"data"`
	Message string `json:"message"`
}

// AWBResponse is the result of courier/assign/awb.
type AWBResponse struct {
	Status int `json:"status"`
	Data   struct {
		AWBCode     string `json:"awb_code"`
		CourierName string `json:"courier_name"`
	} `json:"data"`
	Message string `json:"message"`
}

// PickupResponse is the result of courier/generate/pickup.
type PickupResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// CreateOrder registers an adhoc order with ShipRocket.
func (c *Client) CreateOrder(ctx context.Context, order *OrderRequest) (*OrderResponse, error) {
	raw, err := c.Request(ctx, http.MethodPost, "orders/create/adhoc", order, nil)
	if err != nil {
		return nil, err
	}

	var resp OrderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	// ShipRocket reports the outcome in the body, not just the HTTP status.
	if resp.Status != 200 {
		return nil, &APIError{Status: resp.Status, Body: resp.Message}
	}
	return &resp, nil
}

// AssignAWB assigns a waybill to a remote shipment using the given courier.
func (c *Client) AssignAWB(ctx context.Context, shipmentID int64, courierID int) (*AWBResponse, error) {
	payload := map[string]interface{}{
		"shipment_id": shipmentID,
		"courier_id":  courierID,
	}
	raw, err := c.Request(ctx, http.MethodPost, "courier/assign/awb", payload, nil)
	if err != nil {
		return nil, err
	}

	var resp AWBResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode AWB response: %w", err)
	}
	if resp.Status != 200 {
		return nil, &APIError{Status: resp.Status, Body: resp.Message}
	}
	return &resp, nil
}

// GeneratePickup schedules carrier pickup for a remote shipment.
func (c *Client) GeneratePickup(ctx context.Context, shipmentID int64) (*PickupResponse, error) {
	payload := map[string]interface{}{
		"shipment_id": shipmentID,
	}
	raw, err := c.Request(ctx, http.MethodPost, "courier/generate/pickup", payload, nil)
	if err != nil {
		return nil, err
	}

	var resp PickupResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode pickup response: %w", err)
	}
	if resp.Status != 200 {
		return nil, &APIError{Status: resp.Status, Body: resp.Message}
	}
	return &resp, nil
}

// TrackByAWB fetches tracking details for a waybill.
func (c *Client) TrackByAWB(ctx context.Context, awbCode string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("awb", awbCode)
	return c.Request(ctx, http.MethodGet, "courier/track/shipment/", nil, params)
}

// TrackByOrderID fetches tracking details by store order id. channelID is
// optional; 0 omits it.
func (c *Client) TrackByOrderID(ctx context.Context, orderID string, channelID int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("order_id", orderID)
	if channelID != 0 {
		params.Set("channel_id", strconv.Itoa(channelID))
	}
	return c.Request(ctx, http.MethodGet, "courier/track", nil, params)
}
