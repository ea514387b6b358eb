// Package steps gates forward movement through the booking funnel.
package steps

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/session"
)

// Progression implements booking → seats → payment. Moving back to an
// earlier step is navigation and happens outside this type.
type Progression struct {
	validate *validator.Validate
}

func NewProgression() *Progression {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return &Progression{validate: v}
}

// MissingFields lists what blocks booking → seats, as "passengers[i].field"
// entries plus "offer" when no flight is selected.
func (p *Progression) MissingFields(s *session.Store) []string {
	var missing []string
	if !s.HasOffer() {
		missing = append(missing, "offer")
	}
	for i, passenger := range s.Passengers() {
		err := p.validate.Struct(passenger)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			missing = append(missing, fmt.Sprintf("passengers[%d]", i))
			continue
		}
		for _, fe := range verrs {
			missing = append(missing, fmt.Sprintf("passengers[%d].%s", i, fieldName(fe)))
		}
	}
	return missing
}

// CanProceedToSeats reports whether a flight is selected and every passenger
// has names, nationality, gender, a full date of birth and a passport number.
func (p *Progression) CanProceedToSeats(s *session.Store) bool {
	return len(p.MissingFields(s)) == 0
}

// ProceedToSeats moves booking → seats when allowed. A session already on
// seats stays there; one on payment is not moved back. On denial the step is
// left unchanged.
func (p *Progression) ProceedToSeats(s *session.Store) bool {
	switch s.CurrentStep() {
	case domain.StepSeats:
		return true
	case domain.StepPayment:
		return false
	}
	if !p.CanProceedToSeats(s) {
		return false
	}
	s.SetCurrentStep(domain.StepSeats)
	return true
}

// ProceedToPayment moves seats → payment without further checks; legs
// without a seat are accepted as they are. It refuses to skip the seats step.
func (p *Progression) ProceedToPayment(s *session.Store) bool {
	switch s.CurrentStep() {
	case domain.StepSeats:
		s.SetCurrentStep(domain.StepPayment)
		return true
	case domain.StepPayment:
		return true
	default:
		return false
	}
}

func fieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "GivenName":
		return "given_name"
	case "FamilyName":
		return "family_name"
	case "Gender":
		return "gender"
	case "Nationality":
		return "nationality"
	case "PassportNumber":
		return "passport_number"
	case "Day", "Month", "Year":
		return "date_of_birth"
	default:
		return fe.Field()
	}
}
