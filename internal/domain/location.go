package domain

import "fmt"

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lng)
}

// MapLink points a map application at p.
func (p Point) MapLink() string {
	return fmt.Sprintf("https://maps.google.com/?q=%v,%v", p.Lat, p.Lng)
}

// DeliveryLocation is the result of resolving a picked map point. DistanceKm stays
// nil until resolution completes.
type DeliveryLocation struct {
	Point
	Address    string   `json:"address"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Eligible   bool     `json:"eligible"`
}

func (l *DeliveryLocation) Resolved() bool {
	return l != nil && l.DistanceKm != nil
}

// Valid reports whether p is a coordinate on the globe.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
