package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed data/products.json data/orders.json data/departments.json
var dataFS embed.FS

const (
	// GeneralTopic is the guaranteed fallback support topic.
	GeneralTopic = "general"
)

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	InStock     bool    `json:"in_stock"`
	RestockDate string  `json:"restock_date,omitempty"`
}

// ProductSummary is the trimmed record returned by catalog searches.
type ProductSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	InStock  bool    `json:"in_stock"`
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		Currency: p.Currency,
		InStock:  p.InStock,
	}
}

type Order struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	Carrier           string   `json:"carrier,omitempty"`
	TrackingNumber    string   `json:"tracking_number,omitempty"`
	EstimatedDelivery string   `json:"estimated_delivery,omitempty"`
	Items             []string `json:"items,omitempty"`
}

type SupportDepartment struct {
	Department string `json:"department"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Hours      string `json:"hours"`
}

// Catalog holds the three static mappings, loaded once before first use.
// Products keep their file order so search results are deterministic.
type Catalog struct {
	products     []Product
	productIndex map[string]int
	orders       map[string]Order
	departments  map[string]SupportDepartment
}

func Load() (*Catalog, error) {
	return load(dataFS)
}

func load(fsys fs.FS) (*Catalog, error) {
	var products []Product
	if err := decodeFile(fsys, "data/products.json", &products); err != nil {
		return nil, err
	}

	var orders []Order
	if err := decodeFile(fsys, "data/orders.json", &orders); err != nil {
		return nil, err
	}

	var departments map[string]SupportDepartment
	if err := decodeFile(fsys, "data/departments.json", &departments); err != nil {
		return nil, err
	}

	c := &Catalog{
		products:     products,
		productIndex: make(map[string]int, len(products)),
		orders:       make(map[string]Order, len(orders)),
		departments:  make(map[string]SupportDepartment, len(departments)),
	}

	for i, p := range products {
		key := normalizeKey(p.ID)
		if key == "" {
			return nil, fmt.Errorf("product at index %d has empty id", i)
		}
		if _, dup := c.productIndex[key]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		c.productIndex[key] = i
	}

	for i, o := range orders {
		key := normalizeKey(o.ID)
		if key == "" {
			return nil, fmt.Errorf("order at index %d has empty id", i)
		}
		if _, dup := c.orders[key]; dup {
			return nil, fmt.Errorf("duplicate order id %q", o.ID)
		}
		c.orders[key] = o
	}

	for topic, dept := range departments {
		c.departments[strings.ToLower(strings.TrimSpace(topic))] = dept
	}
	if _, ok := c.departments[GeneralTopic]; !ok {
		return nil, errors.New("departments data must include the general fallback")
	}

	return c, nil
}

func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Products returns all products in catalog (file) order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks up a product by id, case-insensitively.
func (c *Catalog) Product(id string) (Product, bool) {
	i, ok := c.productIndex[normalizeKey(id)]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Order looks up an order by id, case-insensitively.
func (c *Catalog) Order(id string) (Order, bool) {
	o, ok := c.orders[normalizeKey(id)]
	return o, ok
}

// Department maps a support topic to its department, falling back to the
// general department when the topic is unrecognized.
func (c *Catalog) Department(topic string) SupportDepartment {
	if dept, ok := c.departments[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return dept
	}
	return c.departments[GeneralTopic]
}

func decodeFile(fsys fs.FS, path string, out any) error {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read catalog data %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func normalizeKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
