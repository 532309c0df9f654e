package domain

const (
	DefaultRatePerKm         int64   = 3000
	DefaultFreeShippingAbove int64   = 100000
	DefaultMaxRadiusKm       float64 = 10
)

type Store struct {
	ID                string  `json:"id"`
	Name              string  `json:"nama"`
	Address           string  `json:"alamat"`
	Lat               float64 `json:"lat"`
	Lng               float64 `json:"lng"`
	Phone             string  `json:"telepon"`
	WhatsApp          string  `json:"whatsapp"`
	OpeningHours      string  `json:"jam_buka"`
	RatePerKm         int64   `json:"tarif_per_km"`
	MinOrder          int64   `json:"min_order"`
	MaxRadiusKm       float64 `json:"max_jarak_km"`
	FreeShippingAbove int64   `json:"gratis_ongkir_diatas"`
	Active            bool    `json:"aktif"`
}

func (s Store) Origin() Point {
	return Point{Lat: s.Lat, Lng: s.Lng}
}

// WithDefaults fills unset tariff fields with the storefront defaults.
func (s Store) WithDefaults() Store {
	if s.RatePerKm <= 0 {
		s.RatePerKm = DefaultRatePerKm
	}
	if s.FreeShippingAbove <= 0 {
		s.FreeShippingAbove = DefaultFreeShippingAbove
	}
	if s.MaxRadiusKm <= 0 {
		s.MaxRadiusKm = DefaultMaxRadiusKm
	}
	return s
}

type VariationOption struct {
	Label     string `json:"label"`
	Surcharge int64  `json:"tambahan"`
}

type Variation struct {
	Name    string            `json:"nama"`
	Options []VariationOption `json:"opsi"`
}

type Product struct {
	ID            string      `json:"id"`
	CategoryID    string      `json:"kategori_id"`
	Name          string      `json:"nama"`
	Slug          string      `json:"slug"`
	Price         int64       `json:"harga"`
	DiscountPrice *int64      `json:"harga_diskon"`
	Photo         string      `json:"foto_utama"`
	Stock         int         `json:"stok"`
	Unit          string      `json:"satuan"`
	Active        bool        `json:"aktif"`
	MinQty        int         `json:"min_qty"`
	Variations    []Variation `json:"variasi"`
}

// SellingPrice is the discount price when one is set, the list price otherwise.
func (p Product) SellingPrice() int64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 {
		return *p.DiscountPrice
	}
	return p.Price
}

// Option finds a variation option by its label across all variations.
func (p Product) Option(label string) (VariationOption, bool) {
	for _, v := range p.Variations {
		for _, o := range v.Options {
			if o.Label == label {
				return o, true
			}
		}
	}
	return VariationOption{}, false
}
