package delivery

import (
	"context"
	"errors"
	"math"

	"github.com/pesansayur/storefront/internal/domain"
)

var (
	ErrRouteNotFound = errors.New("no route found")
	ErrNoAddress     = errors.New("no address for location")
)

// DistanceStrategy measures the delivery distance in kilometres, rounded to
// one decimal.
type DistanceStrategy interface {
	Distance(ctx context.Context, from, to domain.Point) (float64, error)
}

// AddressStrategy turns a coordinate into a display address.
type AddressStrategy interface {
	Address(ctx context.Context, p domain.Point) (string, error)
}

const earthRadiusKm = 6371

// Haversine is the great-circle distance. It never fails.
type Haversine struct{}

func (Haversine) Distance(_ context.Context, from, to domain.Point) (float64, error) {
	return HaversineKm(from, to), nil
}

func HaversineKm(from, to domain.Point) float64 {
	dLat := radians(to.Lat - from.Lat)
	dLng := radians(to.Lng - from.Lng)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(from.Lat))*math.Cos(radians(to.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return roundKm(earthRadiusKm * c)
}

// CoordinateLabel formats the coordinate itself. It never fails.
type CoordinateLabel struct{}

func (CoordinateLabel) Address(_ context.Context, p domain.Point) (string, error) {
	return p.String(), nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
