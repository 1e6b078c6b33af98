// Package donation holds the product donation aggregate and its repository contract.
package donation

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sharehub/backend/internal/domain/shared"
)

// DefaultQuantity is used when a donation is created without a usable quantity.
const DefaultQuantity = 1

// MaxQuantity is the largest quantity the records table can hold (a 32-bit integer column).
const MaxQuantity = math.MaxInt32

// ErrDonationNotFound is returned when an identifier does not resolve to a record.
var ErrDonationNotFound = shared.NewDomainError(shared.CodeNotFound, "Donation not found")

// Donation is a product offered by a donor together with the donor's contact details.
type Donation struct {
	ID            uuid.UUID
	FullName      string
	Email         string
	Phone         string
	Address       string
	Category      string
	ProductName   string
	Description   string
	Quality       string
	Quantity      int
	ImageRef      *string // relative reference into the image store, nil when no image was uploaded
	TermsAccepted bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Draft carries the fields supplied at creation time.
type Draft struct {
	FullName      string
	Email         string
	Phone         string
	Address       string
	Category      string
	ProductName   string
	Description   string
	Quality       string
	Quantity      int
	ImageRef      *string
	TermsAccepted bool
}

// NewDonation builds a donation from a draft. The ID is left empty; the
// repository assigns it when the record is first persisted.
func NewDonation(d Draft) (*Donation, error) {
	donation := &Donation{
		FullName:      strings.TrimSpace(d.FullName),
		Email:         strings.TrimSpace(d.Email),
		Phone:         strings.TrimSpace(d.Phone),
		Address:       strings.TrimSpace(d.Address),
		Category:      strings.TrimSpace(d.Category),
		ProductName:   strings.TrimSpace(d.ProductName),
		Description:   strings.TrimSpace(d.Description),
		Quality:       strings.TrimSpace(d.Quality),
		Quantity:      d.Quantity,
		TermsAccepted: d.TermsAccepted,
	}
	if d.ImageRef != nil && *d.ImageRef != "" {
		ref := *d.ImageRef
		donation.ImageRef = &ref
	}
	if !validQuantity(donation.Quantity) {
		donation.Quantity = DefaultQuantity
	}
	if err := donation.validate(); err != nil {
		return nil, err
	}
	return donation, nil
}

func (d *Donation) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", d.FullName},
		{"email", d.Email},
		{"phone", d.Phone},
		{"address", d.Address},
		{"category", d.Category},
		{"productName", d.ProductName},
		{"quality", d.Quality},
	}
	for _, field := range required {
		if field.value == "" {
			return shared.NewValidationError(field.name + " is required")
		}
	}
	if !validQuantity(d.Quantity) {
		return shared.NewValidationError("quantity must be a positive integer")
	}
	return nil
}

// HasImage reports whether an image reference is attached.
func (d *Donation) HasImage() bool {
	return d.ImageRef != nil && *d.ImageRef != ""
}

// Apply mutates the donation with every supplied, non-blank field of the patch.
// Blank strings and out-of-range quantities count as not supplied, so a
// partial update can never erase stored data.
func (d *Donation) Apply(p Patch) {
	applyString(&d.FullName, p.FullName)
	applyString(&d.Email, p.Email)
	applyString(&d.Phone, p.Phone)
	applyString(&d.Address, p.Address)
	applyString(&d.Category, p.Category)
	applyString(&d.ProductName, p.ProductName)
	applyString(&d.Description, p.Description)
	applyString(&d.Quality, p.Quality)

	if qty, ok := p.Quantity.Get(); ok && validQuantity(qty) {
		d.Quantity = qty
	}
	if ref, ok := p.ImageRef.Get(); ok && ref != "" {
		d.ImageRef = &ref
	}
	if terms, ok := p.TermsAccepted.Get(); ok {
		d.TermsAccepted = terms
	}
}

func validQuantity(qty int) bool {
	return qty > 0 && qty <= MaxQuantity
}

func applyString(dst *string, v shared.Optional[string]) {
	value, ok := v.Get()
	if !ok {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*dst = value
}
