package donation

import "github.com/sharehub/backend/internal/domain/shared"

// Patch lists the fields a partial update supplies. Absent fields keep their
// stored value.
type Patch struct {
	FullName      shared.Optional[string]
	Email         shared.Optional[string]
	Phone         shared.Optional[string]
	Address       shared.Optional[string]
	Category      shared.Optional[string]
	ProductName   shared.Optional[string]
	Description   shared.Optional[string]
	Quality       shared.Optional[string]
	Quantity      shared.Optional[int]
	ImageRef      shared.Optional[string]
	TermsAccepted shared.Optional[bool]
}

// IsEmpty reports whether no field was supplied at all.
func (p Patch) IsEmpty() bool {
	return !p.FullName.IsSet() &&
		!p.Email.IsSet() &&
		!p.Phone.IsSet() &&
		!p.Address.IsSet() &&
		!p.Category.IsSet() &&
		!p.ProductName.IsSet() &&
		!p.Description.IsSet() &&
		!p.Quality.IsSet() &&
		!p.Quantity.IsSet() &&
		!p.ImageRef.IsSet() &&
		!p.TermsAccepted.IsSet()
}
