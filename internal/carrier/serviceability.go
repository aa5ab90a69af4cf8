package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxWeightKg            = 50
	serviceabilityCacheTTL = 5 * time.Minute
)

// Number tolerates ShipRocket fields that come back as either a JSON number
// or a quoted string ("4.3", "3-5").
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*n = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*n = Number(str)
		return nil
	}
	*n = Number(s)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(n), 64); err == nil {
		return []byte(n), nil
	}
	return json.Marshal(string(n))
}

// Float parses the value, returning fallback when it is missing or
// non-numeric.
func (n Number) Float(fallback float64) float64 {
	v, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return fallback
	}
	return v
}

// CourierCandidate is a carrier-supplied courier option for a route. It is a
// per-request value and never persisted.
type CourierCandidate struct {
	CourierCompanyID      int    `json:"courier_company_id"`
	CourierName           string `json:"courier_name"`
	Rate                  Number `json:"rate"`
	Rating                Number `json:"rating"`
	EstimatedDeliveryDays Number `json:"estimated_delivery_days"`
	FreightCharge         Number `json:"freight_charge"`
	CODCharges            Number `json:"cod_charges"`
}

// RateValue returns the candidate's price, +Inf when missing or non-numeric
// so such candidates sort last.
func (c CourierCandidate) RateValue() float64 {
	return c.Rate.Float(math.Inf(1))
}

// RatingValue returns the candidate's rating, 0 when missing or non-numeric.
func (c CourierCandidate) RatingValue() float64 {
	return c.Rating.Float(0)
}

// ServiceabilityResult is what a serviceability probe produces. Couriers is
// empty, never nil, when the route is unserviceable; Message carries the
// failure reason when the probe itself failed.
type ServiceabilityResult struct {
	Couriers []CourierCandidate `json:"available_courier_companies"`
	Message  string             `json:"message,omitempty"`
}

// codEncoding builds the serviceability query parameters for one of the COD
// parameter encodings the ShipRocket API has accepted over time.
type codEncoding struct {
	name  string
	build func(pickup, delivery string, weightKg, codAmount float64) url.Values
}

func baseParams(pickup, delivery string, weightKg float64) url.Values {
	params := url.Values{}
	params.Set("pickup_postcode", pickup)
	params.Set("delivery_postcode", delivery)
	params.Set("weight", strconv.FormatFloat(math.Round(weightKg*100)/100, 'f', -1, 64))
	return params
}

// codEncodings are tried in order, stopping at the first non-error response.
// The first (cod absent) only applies to prepaid requests.
var codEncodings = []codEncoding{
	{
		name: "prepaid-no-cod",
		build: func(pickup, delivery string, weightKg, _ float64) url.Values {
			return baseParams(pickup, delivery, weightKg)
		},
	},
	{
		name: "cod-int",
		build: func(pickup, delivery string, weightKg, codAmount float64) url.Values {
			params := baseParams(pickup, delivery, weightKg)
			if codAmount > 0 {
				params.Set("cod", "1")
				params.Set("cod_amount", strconv.Itoa(int(codAmount)))
			} else {
				params.Set("cod", "0")
			}
			return params
		},
	},
	{
		name: "cod-string",
		build: func(pickup, delivery string, weightKg, codAmount float64) url.Values {
			params := baseParams(pickup, delivery, weightKg)
			if codAmount > 0 {
				params.Set("cod", "true")
				params.Set("cod_amount", strconv.Itoa(int(codAmount)))
			} else {
				params.Set("cod", "false")
			}
			return params
		},
	},
}

// Prober queries courier serviceability for a pickup/delivery pincode pair.
// Responses are cached in Redis for a short window when a client is provided.
type Prober struct {
	client *Client
	redis  *redis.Client
}

// NewProber creates a serviceability prober. redisClient may be nil, in which
// case response caching is disabled.
func NewProber(client *Client, redisClient *redis.Client) *Prober {
	return &Prober{client: client, redis: redisClient}
}

// serviceabilityCacheKey keys cached probes by the full query, including the
// COD amount: cod_charges in the response depend on it.
func serviceabilityCacheKey(pickup, delivery string, weightKg, codAmount float64) string {
	return fmt.Sprintf("serviceability:%s:%s:%.2f:%.2f", pickup, delivery, weightKg, codAmount)
}

func validatePincode(field, pincode string) error {
	if len(pincode) != 6 {
		return &ValidationError{Field: field, Reason: "pincode must be 6 characters"}
	}
	return nil
}

// Check queries available couriers for the route. Input validation failures
// surface as ValidationError without any network call. Carrier-side failures
// never surface as errors: the result carries an empty courier list and the
// failure reason.
func (p *Prober) Check(ctx context.Context, pickupPincode, deliveryPincode string, weightKg, codAmount float64) (*ServiceabilityResult, error) {
	if err := validatePincode("pickup_pincode", pickupPincode); err != nil {
		return nil, err
	}
	if err := validatePincode("delivery_pincode", deliveryPincode); err != nil {
		return nil, err
	}
	if weightKg <= 0 || weightKg > maxWeightKg {
		return nil, &ValidationError{Field: "weight", Reason: fmt.Sprintf("must be in (0, %d] kg", maxWeightKg)}
	}

	cacheKey := serviceabilityCacheKey(pickupPincode, deliveryPincode, weightKg, codAmount)
	if p.redis != nil {
		if cached, err := p.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var result ServiceabilityResult
			if json.Unmarshal(cached, &result) == nil {
				return &result, nil
			}
		}
	}

	var lastErr error
	for _, encoding := range codEncodings {
		if encoding.name == "prepaid-no-cod" && codAmount > 0 {
			continue
		}
		params := encoding.build(pickupPincode, deliveryPincode, weightKg, codAmount)
		raw, err := p.client.Request(ctx, http.MethodGet, "courier/serviceability/", nil, params)
		if err != nil {
			p.client.logger.WithField("encoding", encoding.name).Warnf("Serviceability attempt failed: %v", err)
			lastErr = err
			continue
		}

		result := decodeServiceability(raw)
		if p.redis != nil && len(result.Couriers) > 0 {
			if encoded, err := json.Marshal(result); err == nil {
				p.redis.Set(ctx, cacheKey, encoded, serviceabilityCacheTTL)
			}
		}
		return result, nil
	}

	return &ServiceabilityResult{
		Couriers: []CourierCandidate{},
		Message:  fmt.Sprintf("serviceability check failed: %v", lastErr),
	}, nil
}

func decodeServiceability(raw json.RawMessage) *ServiceabilityResult {
	var resp struct {
		Data struct {
			AvailableCourierCompanies []CourierCandidate `json:"available_courier_companies"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return &ServiceabilityResult{
			Couriers: []CourierCandidate{},
			Message:  fmt.Sprintf("failed to decode serviceability response: %v", err),
		}
	}

	couriers := resp.Data.AvailableCourierCompanies
	if couriers == nil {
		couriers = []CourierCandidate{}
	}
	return &ServiceabilityResult{Couriers: couriers, Message: resp.Message}
}

// SelectCourier picks a courier from the candidate list. A preferred courier
// id is honored when present in the list; otherwise candidates are ordered by
// rating descending with price ascending as the tie-break.
func SelectCourier(candidates []CourierCandidate, preferredID int) (CourierCandidate, bool) {
	if len(candidates) == 0 {
		return CourierCandidate{}, false
	}

	if preferredID != 0 {
		for _, c := range candidates {
			if c.CourierCompanyID == preferredID {
				return c, true
			}
		}
	}

	sorted := make([]CourierCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].RatingValue(), sorted[j].RatingValue()
		if ri != rj {
			return ri > rj
		}
		return sorted[i].RateValue() < sorted[j].RateValue()
	})

	return sorted[0], true
}
