package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"aoin-shipping-service/internal/carrier"
	"aoin-shipping-service/internal/repository"
)

// fallbackShopPickup is the account-level pickup location shop orders ship
// from when nothing better can be resolved.
const fallbackShopPickup = "Aoin"

// PickupResolver resolves the ShipRocket pickup location name for a merchant
// or shop. Resolution is best-effort: a usable name always comes back so the
// order chain can proceed with it.
type PickupResolver struct {
	client    *carrier.Client
	merchants repository.MerchantRepository
	shops     repository.ShopRepository
	logger    *logrus.Entry
}

// NewPickupResolver creates a pickup location resolver.
func NewPickupResolver(
	client *carrier.Client,
	merchants repository.MerchantRepository,
	shops repository.ShopRepository,
	logger *logrus.Logger,
) *PickupResolver {
	return &PickupResolver{
		client:    client,
		merchants: merchants,
		shops:     shops,
		logger:    logger.WithField("component", "pickup.resolver"),
	}
}

// merchantPickupName derives the deterministic pickup location name
// registered for a merchant.
func merchantPickupName(merchantID int64, businessName string) string {
	return fmt.Sprintf("Merchant_%d_%s", merchantID, strings.ReplaceAll(businessName, " ", "_"))
}

// ResolveMerchant returns the merchant's pickup location name, registering
// it with ShipRocket on first use. Registration failure is non-fatal: the
// derived name is returned anyway so the order chain can proceed.
func (r *PickupResolver) ResolveMerchant(ctx context.Context, merchantID int64) string {
	log := r.logger.WithField("merchant_id", merchantID)

	merchant, err := r.merchants.GetByID(ctx, merchantID)
	if err != nil {
		log.Warnf("Failed to load merchant for pickup resolution: %v", err)
		return fmt.Sprintf("Merchant_%d", merchantID)
	}

	if merchant.ShiprocketPickupLocationName != "" {
		log.Debugf("Using cached pickup location %q", merchant.ShiprocketPickupLocationName)
		return merchant.ShiprocketPickupLocationName
	}

	name := merchantPickupName(merchantID, merchant.BusinessName)

	contactName := merchant.ContactPersonName
	if contactName == "" {
		contactName = merchant.BusinessName
	}

	resp, err := r.client.AddPickupLocation(ctx, &carrier.AddPickupRequest{
		PickupLocation: name,
		Name:           contactName,
		Email:          merchant.BusinessEmail,
		Phone:          carrier.FormatPhone(merchant.BusinessPhone),
		Address:        merchant.BusinessAddress,
		City:           merchant.City,
		State:          merchant.StateProvince,
		Country:        merchant.CountryCode,
		PinCode:        merchant.PostalCode,
	})
	if err != nil {
		// ShipRocket keeps deactivated locations around; reuse them.
		if strings.Contains(err.Error(), "already exists and is inactive") {
			log.Infof("Pickup location %q already exists but is inactive, using it anyway", name)
			if saveErr := r.merchants.SavePickupLocation(ctx, merchantID, name, nil); saveErr != nil {
				log.Warnf("Failed to cache pickup location name: %v", saveErr)
			}
			return name
		}
		log.Warnf("Failed to register pickup location %q: %v", name, err)
		return name
	}

	var locationID *int64
	if resp.Data.PickupLocationID != 0 {
		id := resp.Data.PickupLocationID
		locationID = &id
	}
	if saveErr := r.merchants.SavePickupLocation(ctx, merchantID, name, locationID); saveErr != nil {
		log.Warnf("Failed to cache pickup location name: %v", saveErr)
	}

	log.Infof("Registered pickup location %q", name)
	return name
}

// ResolveShop returns the pickup location shop orders ship from. Shops share
// the account's registered locations: a location literally named "Aoin" wins,
// then the primary-flagged one, then the first available, then the literal
// fallback.
func (r *PickupResolver) ResolveShop(ctx context.Context, shopID int64) string {
	log := r.logger.WithField("shop_id", shopID)

	shop, err := r.shops.GetByID(ctx, shopID)
	if err != nil {
		log.Warnf("Failed to load shop for pickup resolution: %v", err)
		return fallbackShopPickup
	}

	locations, err := r.client.ListPickupLocations(ctx)
	if err != nil {
		log.Warnf("Failed to list pickup locations: %v", err)
		return fallbackShopPickup
	}
	if len(locations) == 0 {
		log.Warn("No pickup locations registered with ShipRocket")
		return fallbackShopPickup
	}

	var chosen *carrier.PickupLocation
	for i := range locations {
		loc := &locations[i]
		if strings.EqualFold(loc.Name, fallbackShopPickup) {
			chosen = loc
			break
		}
		if chosen == nil && (loc.AddressType == "Primary" || loc.IsPrimary || strings.EqualFold(loc.Name, "primary")) {
			chosen = loc
		}
	}
	if chosen == nil {
		chosen = &locations[0]
	}

	name := chosen.Name
	if name == "" {
		return fallbackShopPickup
	}

	var locationID *int64
	if chosen.ID != 0 {
		id := chosen.ID
		locationID = &id
	}
	if saveErr := r.shops.SavePickupLocation(ctx, shop.ShopID, name, locationID); saveErr != nil {
		log.Warnf("Failed to cache shop pickup location: %v", saveErr)
	}

	log.Infof("Resolved shop pickup location %q", name)
	return name
}
