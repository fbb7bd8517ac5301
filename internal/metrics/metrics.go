// Package metrics records rental registry activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives engine outcomes from the service layer.
type Recorder interface {
	VehicleRegistered(category string)
	RentalCreated(category string)
	RentalReturned()
	RentalRejected(reason string)
	SetActiveRentals(n int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) VehicleRegistered(string) {}
func (NopRecorder) RentalCreated(string)     {}
func (NopRecorder) RentalReturned()          {}
func (NopRecorder) RentalRejected(string)    {}
func (NopRecorder) SetActiveRentals(int)     {}

// PromRecorder exports registry counters to Prometheus.
type PromRecorder struct {
	vehicles   *prometheus.CounterVec
	created    *prometheus.CounterVec
	returned   prometheus.Counter
	rejections *prometheus.CounterVec
	active     prometheus.Gauge
}

// NewPromRecorder registers the collectors on reg. A nil registerer defaults
// to the global Prometheus registerer.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	vehicles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_registry_vehicles_registered_total",
		Help: "Vehicles registered, by category",
	}, []string{"category"})
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_registry_rentals_created_total",
		Help: "Rentals created, by vehicle category",
	}, []string{"category"})
	returned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rental_registry_rentals_returned_total",
		Help: "Rentals completed by a vehicle return",
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_registry_rental_rejections_total",
		Help: "Rental requests refused, by reason",
	}, []string{"reason"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rental_registry_active_rentals",
		Help: "Rentals currently in the Reserved state",
	})

	var err error
	if vehicles, err = register(reg, vehicles); err != nil {
		return nil, err
	}
	if created, err = register(reg, created); err != nil {
		return nil, err
	}
	if returned, err = register(reg, returned); err != nil {
		return nil, err
	}
	if rejections, err = register(reg, rejections); err != nil {
		return nil, err
	}
	if active, err = register(reg, active); err != nil {
		return nil, err
	}
	return &PromRecorder{
		vehicles:   vehicles,
		created:    created,
		returned:   returned,
		rejections: rejections,
		active:     active,
	}, nil
}

// register reuses an already registered collector of the same shape.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) VehicleRegistered(category string) {
	r.vehicles.WithLabelValues(category).Inc()
}

func (r *PromRecorder) RentalCreated(category string) {
	r.created.WithLabelValues(category).Inc()
}

func (r *PromRecorder) RentalReturned() {
	r.returned.Inc()
}

func (r *PromRecorder) RentalRejected(reason string) {
	r.rejections.WithLabelValues(reason).Inc()
}

func (r *PromRecorder) SetActiveRentals(n int) {
	r.active.Set(float64(n))
}
