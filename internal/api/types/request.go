// internal/api/types/request.go
package types

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Amount is a whole number of TCN. It accepts a JSON number or a numeric string and
// rejects fractions and exponent notation.
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		return errors.New("amount is required")
	}
	if strings.ContainsAny(raw, "eE") {
		return errors.New("amount must be a plain whole number")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.New("amount must be a number")
	}
	if !d.IsInteger() {
		return errors.New("amount must be a whole number")
	}
	if d.GreaterThan(maxAmount) || d.LessThan(maxAmount.Neg()) {
		return errors.New("amount is out of range")
	}
	*a = Amount(d.IntPart())
	return nil
}

// RedeemRequest spends TCN on a promotion.
type RedeemRequest struct {
	Amount      Amount `json:"amount" validate:"gt=0"`
	Description string `json:"description" validate:"required,max=200"`
}

// AdjustmentRequest is an admin correction, applied as an offsetting entry.
type AdjustmentRequest struct {
	Amount      Amount `json:"amount" validate:"gt=0"`
	Type        string `json:"type" validate:"required,oneof=credit debit"`
	Description string `json:"description" validate:"required,max=200"`
}

// RegisterProfileRequest is sent after the identity provider confirms a sign-in.
type RegisterProfileRequest struct {
	Method       string `json:"method" validate:"required,oneof=password google phone"`
	Nickname     string `json:"nickname" validate:"max=50"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,max=32"`
	PhotoURL     string `json:"photo_url" validate:"omitempty,url"`
	FirstName    string `json:"first_name" validate:"max=80"`
	LastName     string `json:"last_name" validate:"max=80"`
	Neighborhood string `json:"neighborhood" validate:"max=120"`
}

// Location is a point on the map.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// CreateEventRequest describes a new community event.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=120"`
	Description string    `json:"description" validate:"max=1000"`
	Sport       string    `json:"sport" validate:"omitempty,oneof=running cycling yoga walking other"`
	Date        time.Time `json:"date" validate:"required"`
	Location    Location  `json:"location"`
}
