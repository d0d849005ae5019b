package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariableFromAlias(t *testing.T) {
	cases := []struct {
		alias string
		want  Variable
		ok    bool
	}{
		{"total_precipitation", TotalPrecipitation, true},
		{"precipitation", TotalPrecipitation, true},
		{"Precip", TotalPrecipitation, true},
		{"rainfall precipitation", TotalPrecipitation, true},
		{"temperature", Temperature, true},
		{"2m temperature", Temperature, true},
		{"minimum temperature", MinTemperature, true},
		{"max temp", MaxTemperature, true},
		{"glofas", Glofas, true},
		{"river discharge", "", false},
		{"wind speed", "", false},
	}
	for _, tc := range cases {
		got, ok := VariableFromAlias(tc.alias, ForecastVariables)
		assert.Equal(t, tc.ok, ok, "alias %q", tc.alias)
		if tc.ok {
			assert.Equal(t, tc.want, got, "alias %q", tc.alias)
		}
	}
}

func TestVariableFromAliasRespectsAllowedList(t *testing.T) {
	// glofas is a forecast variable only.
	_, ok := VariableFromAlias("glofas", HistoricVariables)
	assert.False(t, ok)

	v, ok := VariableFromAlias("temperature", HistoricVariables)
	assert.True(t, ok)
	assert.Equal(t, Temperature, v)
}

func TestCDSName(t *testing.T) {
	assert.Equal(t, "total_precipitation", TotalPrecipitation.CDSName())
	assert.Equal(t, "2m_temperature", Temperature.CDSName())
	assert.Equal(t, "glofas", Glofas.CDSName())
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "tp", TotalPrecipitation.ShortName())
	assert.Equal(t, "t2m", Temperature.ShortName())
	assert.Equal(t, "glofas", Glofas.ShortName())
}

func TestNormalizeVariables(t *testing.T) {
	got, err := normalizeVariables([]string{"precipitation"}, ForecastVariables)
	assert.NoError(t, err)
	assert.Equal(t, []string{"total_precipitation"}, got)

	_, err = normalizeVariables(nil, ForecastVariables)
	assert.Error(t, err)

	_, err = normalizeVariables([]string{"wind"}, ForecastVariables)
	assert.Error(t, err)
}
