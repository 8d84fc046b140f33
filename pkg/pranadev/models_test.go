package pranadev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStateFromRawDefaults(t *testing.T) {
	state := StateFromRaw(RawState{}, zap.NewNop())

	assert.Equal(t, 0, state.SupplySpeed)
	assert.Equal(t, 0, state.ExtractSpeed)
	assert.Equal(t, 0, state.BoundedSpeed)
	assert.False(t, state.SupplyOn)
	assert.False(t, state.Bound)
	assert.False(t, state.Auto)
	assert.Equal(t, DefaultBrightness, state.Brightness)
	assert.Nil(t, state.InsideTemp)
	assert.Nil(t, state.OutsideTemp)
	assert.Nil(t, state.Humidity)
	assert.Nil(t, state.CO2)
	assert.Nil(t, state.VOC)
	assert.Nil(t, state.AirPressure)
	assert.Equal(t, "", state.FirmwareVersion)
}

func TestStateFromRawPartialPayload(t *testing.T) {
	raw := RawState{
		"extract": map[string]any{"speed": float64(3), "is_on": true},
		"night":   true,
		"co2":     float64(734),
	}
	state := StateFromRaw(raw, zap.NewNop())

	assert.Equal(t, 3, state.ExtractSpeed)
	assert.True(t, state.ExtractOn)
	assert.True(t, state.Night)
	// untouched controls keep their defaults
	assert.Equal(t, 0, state.SupplySpeed)
	assert.False(t, state.SupplyOn)
	if assert.NotNil(t, state.CO2) {
		assert.Equal(t, 734, *state.CO2)
	}
	assert.Nil(t, state.Humidity)
}

func TestStateFromRawClampsOutOfRange(t *testing.T) {
	raw := RawState{
		"supply":     map[string]any{"speed": float64(9)},
		"extract":    map[string]any{"speed": float64(-1)},
		"brightness": float64(9),
	}
	state := StateFromRaw(raw, zap.NewNop())

	assert.Equal(t, MaxLevel, state.SupplySpeed)
	assert.Equal(t, MinLevel, state.ExtractSpeed)
	assert.Equal(t, MaxLevel, state.Brightness)
}

func TestStateFromRawStepScaleSpeeds(t *testing.T) {
	// older firmware reports speeds as multiples of 10
	raw := RawState{
		"supply":  map[string]any{"speed": float64(40)},
		"bounded": map[string]any{"speed": float64(60)},
	}
	state := StateFromRaw(raw, zap.NewNop())

	assert.Equal(t, 4, state.SupplySpeed)
	assert.Equal(t, 6, state.BoundedSpeed)
}

func TestStateFromRawBrightnessWireLevels(t *testing.T) {
	state := StateFromRaw(RawState{"brightness": float64(32)}, zap.NewNop())
	assert.Equal(t, 6, state.Brightness)

	state = StateFromRaw(RawState{"brightness": float64(8)}, zap.NewNop())
	assert.Equal(t, 4, state.Brightness)
}

func TestStateFromRawTemperatureTenths(t *testing.T) {
	raw := RawState{
		"inside_temperature":  float64(215),
		"outside_temperature": float64(-35),
	}
	state := StateFromRaw(raw, zap.NewNop())

	if assert.NotNil(t, state.InsideTemp) {
		assert.InDelta(t, 21.5, *state.InsideTemp, 0.001)
	}
	if assert.NotNil(t, state.OutsideTemp) {
		assert.InDelta(t, -3.5, *state.OutsideTemp, 0.001)
	}
}

func TestStateEqualAndClone(t *testing.T) {
	a := StateFromRaw(NewTestTransport().raw, zap.NewNop())
	b := a.Clone()

	assert.True(t, a.Equal(b))

	// mutating the clone's sensor must not leak into the original
	*b.InsideTemp = 99
	assert.False(t, a.Equal(b))
	assert.InDelta(t, 21.5, *a.InsideTemp, 0.001)

	b = a.Clone()
	b.Night = true
	assert.False(t, a.Equal(b))
}

func TestSupportsLocalAPI(t *testing.T) {
	assert.True(t, State{FirmwareVersion: "3.1.4"}.SupportsLocalAPI())
	assert.True(t, State{FirmwareVersion: ""}.SupportsLocalAPI())
	assert.True(t, State{FirmwareVersion: "weird"}.SupportsLocalAPI())
	assert.False(t, State{FirmwareVersion: "1.9"}.SupportsLocalAPI())
}
