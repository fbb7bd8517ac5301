package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category tags which attribute payload a Vehicle carries.
type Category string

const (
	CategoryCar   Category = "car"
	CategoryBike  Category = "bike"
	CategoryTruck Category = "truck"
)

// ParseCategory accepts a category name in any letter case.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryCar, CategoryBike, CategoryTruck:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown vehicle category %q", ErrInvalidInput, s)
	}
}

// Label is the display form of the category ("Car", "Bike", "Truck").
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// CarAttributes are descriptive only.
type CarAttributes struct {
	Doors        int    `json:"doors"`
	Seats        int    `json:"seats"`
	Transmission string `json:"transmission"`
}

// BikeAttributes are descriptive only.
type BikeAttributes struct {
	Type    string `json:"type"`
	HasGear bool   `json:"has_gear"`
}

// TruckAttributes are descriptive only.
type TruckAttributes struct {
	CapacityTons float64 `json:"capacity_tons"`
	Axles        int     `json:"axles"`
}

// Vehicle is a registry entry: the vehicle itself plus the rentals it
// currently holds. Exactly one of Car, Bike, Truck is set, matching Category.
//
// Availability is always derived from the held rentals; there is no busy flag.
type Vehicle struct {
	ID        string           `json:"id"`
	Category  Category         `json:"category"`
	Make      string           `json:"make"`
	Model     string           `json:"model"`
	Year      int              `json:"year"`
	DailyRate float64          `json:"daily_rate"`
	Car       *CarAttributes   `json:"car,omitempty"`
	Bike      *BikeAttributes  `json:"bike,omitempty"`
	Truck     *TruckAttributes `json:"truck,omitempty"`

	active []*Rental
}

// Validate checks the identifier, rate and that the payload matches Category.
func (v *Vehicle) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("%w: vehicle id is required", ErrInvalidInput)
	}
	if v.DailyRate < 0 {
		return fmt.Errorf("%w: daily rate must not be negative", ErrInvalidInput)
	}
	var ok bool
	switch v.Category {
	case CategoryCar:
		ok = v.Car != nil && v.Bike == nil && v.Truck == nil
	case CategoryBike:
		ok = v.Bike != nil && v.Car == nil && v.Truck == nil
	case CategoryTruck:
		ok = v.Truck != nil && v.Car == nil && v.Bike == nil
	default:
		return fmt.Errorf("%w: unknown vehicle category %q", ErrInvalidInput, v.Category)
	}
	if !ok {
		return fmt.Errorf("%w: %s vehicle needs exactly the %s attributes", ErrInvalidInput, v.Category, v.Category)
	}
	return nil
}

// IsAvailable reports whether no Reserved rental held by v overlaps iv.
func (v *Vehicle) IsAvailable(iv DateInterval) bool {
	for _, r := range v.active {
		if r.Status == RentalStatusReserved && r.Interval.Overlaps(iv) {
			return false
		}
	}
	return true
}

// AttachRental adds r to the held rentals. The caller must have checked
// IsAvailable under the same lock.
func (v *Vehicle) AttachRental(r *Rental) {
	v.active = append(v.active, r)
}

// DetachRental removes the rental with the given id. Unknown ids are ignored.
func (v *Vehicle) DetachRental(rentalID string) {
	kept := v.active[:0]
	for _, r := range v.active {
		if r.ID != rentalID {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(v.active); i++ {
		v.active[i] = nil
	}
	v.active = kept
}

// ActiveRentals returns copies of the held rentals.
func (v *Vehicle) ActiveRentals() []Rental {
	out := make([]Rental, 0, len(v.active))
	for _, r := range v.active {
		out = append(out, r.Clone())
	}
	return out
}

// ActiveRentalIDs returns the ids of the held rentals in attach order.
func (v *Vehicle) ActiveRentalIDs() []string {
	ids := make([]string, 0, len(v.active))
	for _, r := range v.active {
		ids = append(ids, r.ID)
	}
	return ids
}

// Clone returns a deep copy that shares no mutable state with v.
func (v *Vehicle) Clone() Vehicle {
	c := *v
	if v.Car != nil {
		car := *v.Car
		c.Car = &car
	}
	if v.Bike != nil {
		bike := *v.Bike
		c.Bike = &bike
	}
	if v.Truck != nil {
		truck := *v.Truck
		c.Truck = &truck
	}
	c.active = make([]*Rental, 0, len(v.active))
	for _, r := range v.active {
		rc := r.Clone()
		c.active = append(c.active, &rc)
	}
	return c
}

// MarshalJSON adds the held rental ids as "active_rentals".
func (v Vehicle) MarshalJSON() ([]byte, error) {
	type plain Vehicle
	return json.Marshal(struct {
		plain
		ActiveRentals []string `json:"active_rentals"`
	}{plain(v), v.ActiveRentalIDs()})
}

func (v Vehicle) String() string {
	base := fmt.Sprintf("%s: %s %s (%d) - $%.2f/day", v.Category.Label(), v.Make, v.Model, v.Year, v.DailyRate)
	switch {
	case v.Car != nil:
		return fmt.Sprintf("%s | %d-seater | %s Transmission", base, v.Car.Seats, v.Car.Transmission)
	case v.Bike != nil:
		gear := "No"
		if v.Bike.HasGear {
			gear = "Yes"
		}
		return fmt.Sprintf("%s | Type: %s | Gear: %s", base, v.Bike.Type, gear)
	case v.Truck != nil:
		return fmt.Sprintf("%s | Capacity: %g tons | Axles: %d", base, v.Truck.CapacityTons, v.Truck.Axles)
	}
	return base
}
