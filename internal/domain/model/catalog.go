package model

import (
	"fmt"
	"math"
	"strconv"
)

// MinorUnitFactor converts backend amounts (cents, kopecks) to major units.
const MinorUnitFactor = 100

// Price is an amount in minor currency units.
type Price struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	IncludesTax bool   `json:"includes_tax"`
}

func (p Price) Major() float64 { return float64(p.Amount) / MinorUnitFactor }

func (p Price) String() string {
	s := strconv.FormatFloat(p.Major(), 'f', 2, 64)
	if p.Currency == "" {
		return s
	}
	return s + " " + p.Currency
}

// PriceFromMajor converts a major-unit price such as 450 or 12.5 to minor units.
func PriceFromMajor(v float64, currency string) Price {
	return Price{Amount: int64(math.Round(v * MinorUnitFactor)), Currency: currency, IncludesTax: true}
}

type Product struct {
	ID          string
	Name        string
	Description string
	Slug        string
	SKU         string
	Price       Price
	MainImageID string
}

func (p *Product) HasImage() bool { return p != nil && p.MainImageID != "" }

// Cart is the backend-held cart. DisplayTotal is the backend-formatted total
// and is rendered as is.
type Cart struct {
	ID           string
	Name         string
	DisplayTotal string
}

type CartItem struct {
	ID        string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice Price
}

// LinePrice is the unit price in major units, as shown to the user.
func (i CartItem) LinePrice() string { return i.UnitPrice.String() }

type Customer struct {
	ID    string
	Name  string
	Email string
}

type File struct {
	ID   string
	Name string
	Link string
}

func CartName(cartID string) string { return fmt.Sprintf("My cart (%s)", cartID) }
