package pranadev

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateSpeedOutOfRange(t *testing.T) {
	transport := NewTestTransport()

	for _, speed := range []int{-1, 7, 100} {
		_, err := Translate(SetSpeedIntent{Fan: FanExtract, Speed: speed})
		if assert.Error(t, err) {
			ve, ok := AsValidationError(err)
			assert.True(t, ok)
			assert.Equal(t, ValidationOutOfRange, ve.Kind)
		}
	}
	// a rejected intent never reaches the transport
	assert.Equal(t, 0, transport.CommandCalls())
}

func TestTranslateUnknownControl(t *testing.T) {
	_, err := Translate(SetSpeedIntent{Fan: FanType("exhaust"), Speed: 3})
	ve, ok := AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, ValidationUnknownControl, ve.Kind)

	_, err = Translate(SetSwitchIntent{Switch: SwitchType("turbo"), On: true})
	ve, ok = AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, ValidationUnknownControl, ve.Kind)

	_, err = Translate(nil)
	_, ok = AsValidationError(err)
	assert.True(t, ok)
}

func TestTranslateBrightnessOutOfRange(t *testing.T) {
	_, err := Translate(SetBrightnessIntent{Level: 7})
	ve, ok := AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, ValidationOutOfRange, ve.Kind)
}

func TestTranslateSendsAndApplies(t *testing.T) {
	transport := NewTestTransport()

	req, err := Translate(SetSpeedIntent{Fan: FanExtract, Speed: 4})
	assert.NoError(t, err)
	assert.NoError(t, req.Send(transport))

	var state State
	req.Apply(&state)
	assert.Equal(t, 4, state.ExtractSpeed)

	req, err = Translate(SetSwitchIntent{Switch: SwitchNight, On: true})
	assert.NoError(t, err)
	assert.NoError(t, req.Send(transport))
	req.Apply(&state)
	assert.True(t, state.Night)

	req, err = Translate(SetFanPowerIntent{Fan: FanBounded, On: true})
	assert.NoError(t, err)
	assert.NoError(t, req.Send(transport))
	req.Apply(&state)
	assert.True(t, state.BoundedOn)

	req, err = Translate(SetBrightnessIntent{Level: 1})
	assert.NoError(t, err)
	assert.NoError(t, req.Send(transport))
	req.Apply(&state)
	assert.Equal(t, 1, state.Brightness)

	assert.Equal(t, []string{
		"setSpeed extract 4",
		"setSwitch night true",
		"setSpeedIsOn bounded true",
		"setBrightness 1",
	}, transport.Calls())
}

func TestTranslateIdempotentApply(t *testing.T) {
	req, err := Translate(SetSpeedIntent{Fan: FanSupply, Speed: 5})
	assert.NoError(t, err)

	var state State
	req.Apply(&state)
	req.Apply(&state)
	assert.Equal(t, 5, state.SupplySpeed)
}
