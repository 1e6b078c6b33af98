package donation

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sharehub/backend/internal/domain/donation"
	"github.com/sharehub/backend/internal/domain/shared"
)

// CreateDonationRequest carries the submitted form fields for a new donation.
// Quantity and Terms stay raw so that unparseable input can fall back to defaults.
type CreateDonationRequest struct {
	FullName    string `form:"fullName" validate:"required"`
	Email       string `form:"email" validate:"required"`
	Phone       string `form:"phone" validate:"required"`
	Address     string `form:"address" validate:"required"`
	Category    string `form:"category" validate:"required"`
	ProductName string `form:"productName" validate:"required"`
	Description string `form:"description"`
	Quality     string `form:"quality" validate:"required"`
	Quantity    string `form:"quantity"`
	Terms       string `form:"terms"`

	Image *ImageUpload `form:"-" validate:"-"`
}

// normalize trims every text field in place.
func (r *CreateDonationRequest) normalize() {
	for _, f := range []*string{
		&r.FullName, &r.Email, &r.Phone, &r.Address,
		&r.Category, &r.ProductName, &r.Description, &r.Quality,
		&r.Quantity, &r.Terms,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// UpdateDonationRequest carries a partial update. Only fields present in the
// request are set; an unset Optional leaves the stored value untouched.
type UpdateDonationRequest struct {
	FullName    shared.Optional[string]
	Email       shared.Optional[string]
	Phone       shared.Optional[string]
	Address     shared.Optional[string]
	Category    shared.Optional[string]
	ProductName shared.Optional[string]
	Description shared.Optional[string]
	Quality     shared.Optional[string]
	Quantity    shared.Optional[string]
	Terms       shared.Optional[string]

	Image *ImageUpload
}

// toPatch converts the request into a domain patch. A quantity that is not a
// positive integer and an unrecognised terms value are dropped.
func (r UpdateDonationRequest) toPatch() donation.Patch {
	patch := donation.Patch{
		FullName:    r.FullName,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		Category:    r.Category,
		ProductName: r.ProductName,
		Description: r.Description,
		Quality:     r.Quality,
	}
	if raw, ok := r.Quantity.Get(); ok {
		if qty, valid := parseQuantity(raw); valid {
			patch.Quantity = shared.Some(qty)
		}
	}
	if raw, ok := r.Terms.Get(); ok {
		if terms, valid := parseTerms(raw); valid {
			patch.TermsAccepted = shared.Some(terms)
		}
	}
	return patch
}

// DonationResponse is the wire representation of a donation record.
type DonationResponse struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	Category      string    `json:"category"`
	ProductName   string    `json:"productName"`
	Description   string    `json:"description"`
	Quality       string    `json:"quality"`
	Quantity      int       `json:"quantity"`
	DonationImage *string   `json:"donationImage"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Terms         bool      `json:"terms"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToDonationResponse converts a domain donation. imageURL is the resolved
// location of the image and may be empty.
func ToDonationResponse(d *donation.Donation, imageURL string) DonationResponse {
	return DonationResponse{
		ID:            d.ID,
		FullName:      d.FullName,
		Email:         d.Email,
		Phone:         d.Phone,
		Address:       d.Address,
		Category:      d.Category,
		ProductName:   d.ProductName,
		Description:   d.Description,
		Quality:       d.Quality,
		Quantity:      d.Quantity,
		DonationImage: d.ImageRef,
		ImageURL:      imageURL,
		Terms:         d.TermsAccepted,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// DeleteDonationResponse is returned after a successful delete.
type DeleteDonationResponse struct {
	Message string `json:"message"`
}

// parseQuantity accepts base-10 integers in 1..donation.MaxQuantity only.
func parseQuantity(raw string) (int, bool) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty <= 0 || qty > donation.MaxQuantity {
		return 0, false
	}
	return qty, true
}

// parseTerms reads the checkbox style values browsers and clients send.
func parseTerms(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "on", "1", "yes":
		return true, true
	case "false", "off", "0", "no":
		return false, true
	default:
		return false, false
	}
}
