package model

// UnknownField is substituted for any document field the extractor could
// not recognize, so downstream formatting never deals with absent values.
const UnknownField = "Unknown"

// ExtractedData is the ephemeral result of parsing a passport image.
type ExtractedData struct {
	Name       string
	Surname    string
	PassportID string
	VehicleID  string
}

// NewExtractedData builds an ExtractedData, replacing empty fields with
// the UnknownField sentinel.
func NewExtractedData(name, surname, passportID, vehicleID string) ExtractedData {
	return ExtractedData{
		Name:       orUnknown(name),
		Surname:    orUnknown(surname),
		PassportID: orUnknown(passportID),
		VehicleID:  orUnknown(vehicleID),
	}
}

// UnknownExtractedData is the all-sentinel result used when parsing
// produced nothing usable.
func UnknownExtractedData() ExtractedData {
	return NewExtractedData("", "", "", "")
}

func orUnknown(v string) string {
	if v == "" {
		return UnknownField
	}
	return v
}
