package events

import (
	"testing"

	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/stretchr/testify/assert"
)

func testState() pranadev.State {
	inside := 21.5
	humidity := 47.0
	co2 := 612
	return pranadev.State{
		SupplySpeed:  2,
		ExtractSpeed: 2,
		SupplyOn:     true,
		ExtractOn:    true,
		Auto:         true,
		Brightness:   4,

		InsideTemp:      &inside,
		Humidity:        &humidity,
		CO2:             &co2,
		FirmwareVersion: "3.1.4",
	}
}

func TestStateToUpdateEventsFullEmit(t *testing.T) {

	assert := assert.New(t)

	state := testState()
	events := StateToUpdateEvents(nil, &state)

	// 4 input numbers, 10 switches, 3 present sensors, firmware version
	assert.Equal(18, len(events), "event count")

	assert.Contains(events, domain.InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: INPUT_NUMBER_ID_SUPPLY_SPEED},
		Value:                  2,
	})
	assert.Contains(events, domain.SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SWITCH_ID_AUTO},
		Value:                  true,
	})
	assert.Contains(events, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_INSIDE_TEMPERATURE},
		Value:                  21.5,
		Decimals:               1,
	})
	assert.Contains(events, domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_FIRMWARE_VERSION},
		Value:                  "3.1.4",
	})
}

func TestStateToUpdateEventsDiff(t *testing.T) {

	assert := assert.New(t)

	prev := testState()
	next := prev.Clone()
	next.SupplySpeed = 5
	next.Boost = true

	events := StateToUpdateEvents(&prev, &next)

	assert.Equal(2, len(events), "only changed entities emit")
	assert.Contains(events, domain.InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: INPUT_NUMBER_ID_SUPPLY_SPEED},
		Value:                  5,
	})
	assert.Contains(events, domain.SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SWITCH_ID_BOOST},
		Value:                  true,
	})
}

func TestStateToUpdateEventsNoChanges(t *testing.T) {

	assert := assert.New(t)

	prev := testState()
	next := prev.Clone()

	events := StateToUpdateEvents(&prev, &next)

	assert.Equal(0, len(events), "no changes, no events")
}

func TestStateToUpdateEventsAbsentSensorsSkipped(t *testing.T) {

	assert := assert.New(t)

	state := testState()
	state.InsideTemp = nil
	state.Humidity = nil
	state.CO2 = nil
	state.FirmwareVersion = ""

	events := StateToUpdateEvents(nil, &state)

	assert.Equal(14, len(events), "input numbers and switches only")
	for _, ev := range events {
		switch ev.(type) {
		case domain.FloatSensorUpdateEvent, domain.TextSensorUpdateEvent:
			t.Errorf("unexpected sensor event: %+v", ev)
		}
	}
}

func TestStateToUpdateEventsSensorAppears(t *testing.T) {

	assert := assert.New(t)

	prev := testState()
	next := prev.Clone()
	outside := 5.0
	next.OutsideTemp = &outside

	events := StateToUpdateEvents(&prev, &next)

	assert.Equal(1, len(events))
	assert.Contains(events, domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: SENSOR_ID_OUTSIDE_TEMPERATURE},
		Value:                  5.0,
		Decimals:               1,
	})
}
