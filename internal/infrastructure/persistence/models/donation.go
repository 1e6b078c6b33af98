package models

import (
	"github.com/sharehub/backend/internal/domain/donation"
)

// DonationModel is the persistence model for the Donation aggregate.
type DonationModel struct {
	BaseModel
	FullName      string  `gorm:"column:full_name;type:varchar(200);not null"`
	Email         string  `gorm:"column:email;type:varchar(320);not null"`
	Phone         string  `gorm:"column:phone;type:varchar(50);not null"`
	Address       string  `gorm:"column:address;type:text;not null"`
	Category      string  `gorm:"column:category;type:varchar(100);not null"`
	ProductName   string  `gorm:"column:product_name;type:varchar(200);not null"`
	Description   string  `gorm:"column:description;type:text"`
	Quality       string  `gorm:"column:quality;type:varchar(100);not null"`
	Quantity      int     `gorm:"column:quantity;type:integer;not null"`
	ImageRef      *string `gorm:"column:image_ref;type:varchar(500)"`
	TermsAccepted bool    `gorm:"column:terms_accepted;not null"`
}

// TableName returns the table name for GORM
func (DonationModel) TableName() string {
	return "donations"
}

// ToDomain converts the persistence model to a domain Donation.
func (m *DonationModel) ToDomain() *donation.Donation {
	return &donation.Donation{
		ID:            m.ID,
		FullName:      m.FullName,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		Category:      m.Category,
		ProductName:   m.ProductName,
		Description:   m.Description,
		Quality:       m.Quality,
		Quantity:      m.Quantity,
		ImageRef:      m.ImageRef,
		TermsAccepted: m.TermsAccepted,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain Donation.
func (m *DonationModel) FromDomain(d *donation.Donation) {
	m.ID = d.ID
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt
	m.FullName = d.FullName
	m.Email = d.Email
	m.Phone = d.Phone
	m.Address = d.Address
	m.Category = d.Category
	m.ProductName = d.ProductName
	m.Description = d.Description
	m.Quality = d.Quality
	m.Quantity = d.Quantity
	m.ImageRef = d.ImageRef
	m.TermsAccepted = d.TermsAccepted
}

// DonationModelFromDomain creates a new persistence model from a domain Donation.
func DonationModelFromDomain(d *donation.Donation) *DonationModel {
	m := &DonationModel{}
	m.FromDomain(d)
	return m
}
