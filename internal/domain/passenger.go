package domain

type InsuranceTier string

const (
	InsuranceNone  InsuranceTier = "none"
	InsuranceBasic InsuranceTier = "basic"
	InsurancePlus  InsuranceTier = "plus"
)

// Price of the tier per passenger. Unknown tiers cost nothing.
func (t InsuranceTier) Price() Amount {
	switch t {
	case InsurancePlus:
		return 2999
	case InsuranceBasic:
		return 1499
	default:
		return 0
	}
}

// DateOfBirth keeps the three form fields separately so a partially filled
// date can be stored.
type DateOfBirth struct {
	Day   int `json:"day" validate:"min=1,max=31"`
	Month int `json:"month" validate:"min=1,max=12"`
	Year  int `json:"year" validate:"min=1900"`
}

type BookingPassenger struct {
	Title           string        `json:"title,omitempty"`
	GivenName       string        `json:"given_name" validate:"required,notblank"`
	FamilyName      string        `json:"family_name" validate:"required,notblank"`
	Gender          string        `json:"gender" validate:"required,notblank"`
	Nationality     string        `json:"nationality" validate:"required,notblank"`
	DateOfBirth     DateOfBirth   `json:"date_of_birth"`
	PassportNumber  string        `json:"passport_number" validate:"required,notblank"`
	PassportExpiry  string        `json:"passport_expiry,omitempty"`
	TravelInsurance InsuranceTier `json:"travel_insurance"`
}

// BlankPassenger is the passenger every new booking starts with.
func BlankPassenger() BookingPassenger {
	return BookingPassenger{TravelInsurance: InsuranceNone}
}

// PassengerPatch carries the fields of a keyed passenger update; nil fields
// are left unchanged.
type PassengerPatch struct {
	Title           *string        `json:"title,omitempty"`
	GivenName       *string        `json:"given_name,omitempty"`
	FamilyName      *string        `json:"family_name,omitempty"`
	Gender          *string        `json:"gender,omitempty"`
	Nationality     *string        `json:"nationality,omitempty"`
	DateOfBirth     *DateOfBirth   `json:"date_of_birth,omitempty"`
	PassportNumber  *string        `json:"passport_number,omitempty"`
	PassportExpiry  *string        `json:"passport_expiry,omitempty"`
	TravelInsurance *InsuranceTier `json:"travel_insurance,omitempty"`
}

// Apply merges the patch into p.
func (patch PassengerPatch) Apply(p BookingPassenger) BookingPassenger {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.GivenName != nil {
		p.GivenName = *patch.GivenName
	}
	if patch.FamilyName != nil {
		p.FamilyName = *patch.FamilyName
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.Nationality != nil {
		p.Nationality = *patch.Nationality
	}
	if patch.DateOfBirth != nil {
		p.DateOfBirth = *patch.DateOfBirth
	}
	if patch.PassportNumber != nil {
		p.PassportNumber = *patch.PassportNumber
	}
	if patch.PassportExpiry != nil {
		p.PassportExpiry = *patch.PassportExpiry
	}
	if patch.TravelInsurance != nil {
		p.TravelInsurance = *patch.TravelInsurance
	}
	return p
}

// Add-on prices.
const (
	CabinBagPrice    Amount = 2500
	Checked12kgPrice Amount = 3500
	Checked20kgPrice Amount = 5500
)

type BaggageSelection struct {
	CabinBag         bool   `json:"cabin_bag"`
	CabinBagType     string `json:"cabin_bag_type,omitempty"`
	Checked12kg      int    `json:"checked_baggage_12kg"`
	Checked20kg      int    `json:"checked_baggage_20kg"`
	NoCheckedBaggage bool   `json:"no_checked_baggage"`
}

// Normalized clamps quantities and applies the no-checked-baggage flag.
func (b BaggageSelection) Normalized() BaggageSelection {
	if b.Checked12kg < 0 {
		b.Checked12kg = 0
	}
	if b.Checked20kg < 0 {
		b.Checked20kg = 0
	}
	if b.NoCheckedBaggage {
		b.Checked12kg = 0
		b.Checked20kg = 0
	}
	if !b.CabinBag {
		b.CabinBagType = ""
	}
	return b
}

// Price of the selection.
func (b BaggageSelection) Price() Amount {
	n := b.Normalized()
	var total Amount
	if n.CabinBag {
		total += CabinBagPrice
	}
	total += Amount(n.Checked12kg) * Checked12kgPrice
	total += Amount(n.Checked20kg) * Checked20kgPrice
	return total
}

type ContactDetails struct {
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code,omitempty"`
}

type BillingDetails struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
