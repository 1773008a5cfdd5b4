package entity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the selling unit of a product.
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitPiece Unit = "pc"
)

func (u Unit) Valid() bool {
	return u == UnitKg || u == UnitPiece
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Product represents a catalog entry. Its price is the source of truth for carts.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Unit      Unit            `json:"unit"`
	Image     string          `json:"img"`
	InStock   bool            `json:"in_stock"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate checks the fields an admin is allowed to set.
func (p *Product) Validate() error {
	if !slugPattern.MatchString(p.ID) {
		return fmt.Errorf("product id %q must be a lowercase slug", p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product price cannot be negative")
	}
	if !p.Unit.Valid() {
		return fmt.Errorf("product unit must be %q or %q", UnitKg, UnitPiece)
	}
	return nil
}

// User is a registered customer.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	Pincode      string    `json:"pincode"`
	Area         string    `json:"area"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Banner is a promotional image shown on the storefront.
type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"img"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PushSubscription is a browser web-push endpoint registered by a user.
type PushSubscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}
