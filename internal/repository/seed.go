package repository

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/chandruydv805026/my-web/internal/entity"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Price   string      `yaml:"price"`
	Unit    entity.Unit `yaml:"unit"`
	Image   string      `yaml:"img"`
	InStock *bool       `yaml:"in_stock"`
}

// LoadSeedProducts reads a YAML catalog file.
func LoadSeedProducts(path string) ([]entity.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeedProducts(data)
}

// ParseSeedProducts decodes and validates a YAML catalog document.
func ParseSeedProducts(data []byte) ([]entity.Product, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	products := make([]entity.Product, 0, len(f.Products))
	seen := make(map[string]bool, len(f.Products))
	for _, sp := range f.Products {
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s: invalid price %q: %w", sp.ID, sp.Price, err)
		}
		p := entity.Product{
			ID:      sp.ID,
			Name:    sp.Name,
			Price:   price,
			Unit:    sp.Unit,
			Image:   sp.Image,
			InStock: sp.InStock == nil || *sp.InStock,
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("product %s listed twice", p.ID)
		}
		seen[p.ID] = true
		products = append(products, p)
	}
	return products, nil
}

// DefaultProducts is the built-in catalog used when no seed file is configured.
func DefaultProducts() []entity.Product {
	item := func(id, name, price string, unit entity.Unit) entity.Product {
		return entity.Product{
			ID:      id,
			Name:    name,
			Price:   decimal.RequireFromString(price),
			Unit:    unit,
			Image:   "/images/" + id + ".jpg",
			InStock: true,
		}
	}
	return []entity.Product{
		item("aloo", "Aloo (Potato)", "30", entity.UnitKg),
		item("tomato", "Tomato", "40", entity.UnitKg),
		item("pyaz", "Pyaz (Onion)", "35", entity.UnitKg),
		item("bhindi", "Bhindi (Lady Finger)", "60", entity.UnitKg),
		item("gobhi", "Phool Gobhi (Cauliflower)", "25", entity.UnitPiece),
		item("palak", "Palak (Spinach)", "20", entity.UnitPiece),
		item("adrak", "Adrak (Ginger)", "120", entity.UnitKg),
		item("hari-mirch", "Hari Mirch (Green Chilli)", "80", entity.UnitKg),
		item("nimbu", "Nimbu (Lemon)", "5", entity.UnitPiece),
		item("dhaniya", "Dhaniya (Coriander)", "10", entity.UnitPiece),
	}
}
