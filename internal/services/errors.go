package services

import "fmt"

// NoServiceError means no courier serves the pickup/delivery pincode pair
// under the requested parameters.
type NoServiceError struct {
	PickupPincode   string
	DeliveryPincode string
}

func (e *NoServiceError) Error() string {
	return fmt.Sprintf("no courier service available from %s to %s", e.PickupPincode, e.DeliveryPincode)
}
