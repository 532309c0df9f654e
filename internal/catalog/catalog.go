package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pesansayur/storefront/internal/coupon"
	"github.com/pesansayur/storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductInactive = errors.New("product not available")
	ErrUnknownVariant  = errors.New("unknown product variant")
	ErrNoStore         = errors.New("no active store")
)

const (
	ProductsFile = "products.json"
	StoresFile   = "stores.json"
	CouponsFile  = "coupons.json"
)

// Files are the snapshot files written by the prebuild step.
var Files = []string{
	ProductsFile,
	"categories.json",
	StoresFile,
	"payments.json",
	"sliders.json",
	CouponsFile,
}

// Snapshot is the read-only catalog loaded once at startup.
type Snapshot struct {
	products   []domain.Product
	byID       map[string]int
	stores     []domain.Store
	coupons    []coupon.Record
	couponsErr error
}

// Load reads the snapshot from dir. Products and stores are required. A
// missing or broken coupons file only disables coupons.
func Load(dir string) (*Snapshot, error) {
	s := &Snapshot{byID: make(map[string]int)}

	if err := readJSON(filepath.Join(dir, ProductsFile), &s.products); err != nil {
		return nil, err
	}
	for i, p := range s.products {
		s.byID[p.ID] = i
	}

	if err := readJSON(filepath.Join(dir, StoresFile), &s.stores); err != nil {
		return nil, err
	}

	if err := readJSON(filepath.Join(dir, CouponsFile), &s.coupons); err != nil {
		s.couponsErr = err
	}
	return s, nil
}

// New builds a snapshot from values already in memory.
func New(products []domain.Product, stores []domain.Store, coupons []coupon.Record) *Snapshot {
	s := &Snapshot{products: products, stores: stores, coupons: coupons, byID: make(map[string]int)}
	for i, p := range products {
		s.byID[p.ID] = i
	}
	return s
}

func (s *Snapshot) Products() []domain.Product {
	return s.products
}

func (s *Snapshot) Product(id string) (domain.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return s.products[i], true
}

// Store returns the first active store with tariff defaults applied.
func (s *Snapshot) Store() (domain.Store, error) {
	for _, st := range s.stores {
		if st.Active {
			return st.WithDefaults(), nil
		}
	}
	return domain.Store{}, ErrNoStore
}

func (s *Snapshot) Coupons() ([]coupon.Record, error) {
	if s.couponsErr != nil {
		return nil, s.couponsErr
	}
	return s.coupons, nil
}

// LineItem prices a cart line from the catalog: the discount price when set,
// plus the surcharge of the chosen variant option.
func (s *Snapshot) LineItem(productID string, quantity int, variant, note string) (domain.CartItem, error) {
	p, ok := s.Product(productID)
	if !ok {
		return domain.CartItem{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if !p.Active {
		return domain.CartItem{}, fmt.Errorf("%w: %s", ErrProductInactive, p.Name)
	}

	variant = strings.TrimSpace(variant)
	var surcharge int64
	if variant != "" {
		opt, ok := p.Option(variant)
		if !ok {
			return domain.CartItem{}, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
		}
		surcharge = opt.Surcharge
	}

	item := domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.SellingPrice(),
		Photo:     p.Photo,
		Quantity:  quantity,
		Variant:   variant,
		Surcharge: surcharge,
		Note:      strings.TrimSpace(note),
	}
	item.Recompute()
	return item, nil
}

// ReadRaw returns every snapshot file present in dir, keyed by its name
// without extension.
func ReadRaw(dir string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(Files))
	for _, name := range Files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("read %s: invalid json", name)
		}
		out[strings.TrimSuffix(name, ".json")] = data
	}
	return out, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
