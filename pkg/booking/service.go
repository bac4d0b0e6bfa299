package booking

import "fmt"

// Service identifies an entry in the service catalog. Each service has a
// fixed duration and a fixed price in cents.
type Service string

const (
	ServiceConsultation Service = "consultation"
	ServiceMaintenance  Service = "maintenance"
	ServicePlanting     Service = "planting"
	ServiceLandscaping  Service = "landscaping"
)

// Services returns the full catalog in menu order.
func Services() []Service {
	return []Service{ServiceConsultation, ServiceMaintenance, ServicePlanting, ServiceLandscaping}
}

// Valid reports whether s names a catalog entry.
func (s Service) Valid() bool {
	switch s {
	case ServiceConsultation, ServiceMaintenance, ServicePlanting, ServiceLandscaping:
		return true
	default:
		return false
	}
}

// DurationMinutes returns how long an appointment for s occupies the
// calendar. Unknown services report zero.
func (s Service) DurationMinutes() int {
	switch s {
	case ServiceConsultation:
		return 15
	case ServiceMaintenance:
		return 30
	case ServicePlanting:
		return 45
	case ServiceLandscaping:
		return 60
	default:
		return 0
	}
}

// PriceCents returns the price charged for s, in cents. Unknown services
// report zero.
func (s Service) PriceCents() int64 {
	switch s {
	case ServiceConsultation:
		return 5000
	case ServiceMaintenance:
		return 7500
	case ServicePlanting:
		return 15000
	case ServiceLandscaping:
		return 20000
	default:
		return 0
	}
}

// ParseService validates a service name from external input.
func ParseService(s string) (Service, error) {
	svc := Service(s)
	if !svc.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownService, s)
	}
	return svc, nil
}
