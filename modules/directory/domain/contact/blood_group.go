package contact

import "strings"

// NoData is the sentinel stored when an unrecognized non-empty blood
// group was supplied. Absent values stay null instead.
const NoData = "No Data"

var bloodGroups = map[string]string{
	"A+": "A+", "A-": "A-",
	"B+": "B+", "B-": "B-",
	"AB+": "AB+", "AB-": "AB-",
	"O+": "O+", "O-": "O-",
}

// NormalizeBloodGroup maps any spelling onto one of the 8 canonical
// groups. Empty input yields nil.
func NormalizeBloodGroup(raw string) *string {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if s == "" {
		return nil
	}
	if canonical, ok := bloodGroups[s]; ok {
		return &canonical
	}
	noData := NoData
	return &noData
}
