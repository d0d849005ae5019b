package tools

import "strings"

// Variable is a canonical CDS variable name accepted by the ingestion tools.
type Variable string

const (
	TotalPrecipitation Variable = "total_precipitation"
	Temperature        Variable = "temperature"
	MinTemperature     Variable = "min_temperature"
	MaxTemperature     Variable = "max_temperature"
	Glofas             Variable = "glofas"
)

// ForecastVariables lists what the seasonal forecast datasets offer.
var ForecastVariables = []Variable{TotalPrecipitation, Temperature, MinTemperature, MaxTemperature, Glofas}

// HistoricVariables lists what the ERA5 hourly dataset offers.
var HistoricVariables = []Variable{TotalPrecipitation, Temperature}

// VariableFromAlias maps a loosely written alias onto a canonical variable.
// Substring matching keeps the tool forgiving about model-chosen names like
// "precipitation" or "2m temperature".
func VariableFromAlias(alias string, allowed []Variable) (Variable, bool) {
	a := strings.ToLower(strings.TrimSpace(alias))
	for _, v := range allowed {
		if a == string(v) {
			return v, true
		}
	}
	var match Variable
	switch {
	case strings.Contains(a, "prec"):
		match = TotalPrecipitation
	case strings.Contains(a, "min") && strings.Contains(a, "temp"):
		match = MinTemperature
	case strings.Contains(a, "max") && strings.Contains(a, "temp"):
		match = MaxTemperature
	case strings.Contains(a, "temp"):
		match = Temperature
	case strings.Contains(a, "glofas"):
		match = Glofas
	default:
		return "", false
	}
	for _, v := range allowed {
		if match == v {
			return match, true
		}
	}
	return "", false
}

// CDSName is the dataset-level variable identifier.
func (v Variable) CDSName() string {
	switch v {
	case TotalPrecipitation:
		return "total_precipitation"
	case Temperature:
		return "2m_temperature"
	}
	return string(v)
}

// ShortName is the compact identifier used inside the generated scripts.
func (v Variable) ShortName() string {
	switch v {
	case TotalPrecipitation:
		return "tp"
	case Temperature:
		return "t2m"
	}
	return string(v)
}

func variableNames(vars []Variable) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = string(v)
	}
	return out
}
