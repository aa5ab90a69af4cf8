package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PickupLocation is a named address registered with ShipRocket from which it
// collects packages.
type PickupLocation struct {
	ID          int64  `json:"id"`
	Name        string `json:"pickup_location"`
	AddressType string `json:"address_type"`
	IsPrimary   bool   `json:"is_primary"`
	ContactName string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Address2    string `json:"address_2"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	PinCode     string `json:"pin_code"`
}

// AddPickupRequest is the payload for settings/company/addpickup.
type AddPickupRequest struct {
	PickupLocation string `json:"pickup_location"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          int64  `json:"phone"`
	Address        string `json:"address"`
	Address2       string `json:"address_2"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	PinCode        string `json:"pin_code"`
}

// AddPickupResponse is the result of settings/company/addpickup.
type AddPickupResponse struct {
	Status int `json:"status"`
	Data   struct {
		PickupLocationID int64 `json:"pickup_location_id"`
	} `json:"data"`
	Message string `json:"message"`
}

// AddPickupLocation registers a pickup location with ShipRocket.
func (c *Client) AddPickupLocation(ctx context.Context, req *AddPickupRequest) (*AddPickupResponse, error) {
	raw, err := c.Request(ctx, http.MethodPost, "settings/company/addpickup", req, nil)
	if err != nil {
		return nil, err
	}

	var resp AddPickupResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode addpickup response: %w", err)
	}
	if resp.Status != 200 {
		return nil, &APIError{Status: resp.Status, Body: resp.Message}
	}
	return &resp, nil
}

// ListPickupLocations fetches all pickup locations registered with the
// ShipRocket account.
func (c *Client) ListPickupLocations(ctx context.Context) ([]PickupLocation, error) {
	raw, err := c.Request(ctx, http.MethodGet, "settings/company/pickup", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			ShippingAddress []PickupLocation `json:"shipping_address"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode pickup locations response: %w", err)
	}
	return resp.Data.ShippingAddress, nil
}
