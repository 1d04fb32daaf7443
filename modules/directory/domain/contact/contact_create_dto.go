package contact

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phonedeck/phonedeck/pkg/constants"
)

type CreateDTO struct {
	Name        string `json:"name" validate:"required,max=200"`
	Phone       string `json:"phone" validate:"required,phone"`
	BloodGroup  string `json:"bloodGroup" validate:"omitempty,max=20"`
	Lobby       string `json:"lobby" validate:"omitempty,max=255"`
	Designation string `json:"designation" validate:"omitempty,max=255"`
}

// fieldNames maps struct fields onto the report-facing names.
var fieldNames = map[string]string{
	"Name":        "name",
	"Phone":       "phone",
	"BloodGroup":  "bloodGroup",
	"Lobby":       "lobby",
	"Designation": "designation",
}

// FieldName resolves a validator struct field to its wire name.
func FieldName(structField string) string {
	if name, ok := fieldNames[structField]; ok {
		return name
	}
	return structField
}

func (d *CreateDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = CoercePhone(d.Phone)
	d.BloodGroup = strings.TrimSpace(d.BloodGroup)
	d.Lobby = strings.TrimSpace(d.Lobby)
	d.Designation = strings.TrimSpace(d.Designation)
}

// Ok normalizes and validates the DTO. On failure it returns the
// validator issues keyed by wire field name.
func (d *CreateDTO) Ok() (validator.ValidationErrors, bool) {
	d.Normalize()
	err := constants.Validate.Struct(d)
	if err == nil {
		return nil, true
	}
	return err.(validator.ValidationErrors), false
}

func (d *CreateDTO) ToEntity() Contact {
	return Contact{
		Name:        d.Name,
		Phone:       d.Phone,
		BloodGroup:  NormalizeBloodGroup(d.BloodGroup),
		Lobby:       optional(d.Lobby),
		Designation: optional(d.Designation),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
