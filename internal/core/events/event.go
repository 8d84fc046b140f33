package events

import (
	. "github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"
)

// StateToUpdateEvents diffs two snapshots and emits one update event per
// changed entity. A nil prev emits everything, so the first refresh after
// startup publishes the full state.
func StateToUpdateEvents(prev, next *pranadev.State) []any {
	var events []any
	if next == nil {
		return events
	}

	all := prev == nil

	appendSpeed := func(id string, prevValue, nextValue int) {
		if all || prevValue != nextValue {
			events = append(events, InputNumberSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
				Value:                  float64(nextValue),
			})
		}
	}
	appendSwitch := func(id string, prevValue, nextValue bool) {
		if all || prevValue != nextValue {
			events = append(events, SwitchSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
				Value:                  nextValue,
			})
		}
	}
	appendFloat := func(id string, prevValue, nextValue *float64, decimals uint) {
		if nextValue == nil {
			return
		}
		if all || prevValue == nil || *prevValue != *nextValue {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
				Value:                  *nextValue,
				Decimals:               decimals,
			})
		}
	}
	appendInt := func(id string, prevValue, nextValue *int) {
		if nextValue == nil {
			return
		}
		if all || prevValue == nil || *prevValue != *nextValue {
			events = append(events, FloatSensorUpdateEvent{
				SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: id},
				Value:                  float64(*nextValue),
				Decimals:               0,
			})
		}
	}

	var p pranadev.State
	if prev != nil {
		p = *prev
	}

	appendSpeed(INPUT_NUMBER_ID_SUPPLY_SPEED, p.SupplySpeed, next.SupplySpeed)
	appendSpeed(INPUT_NUMBER_ID_EXTRACT_SPEED, p.ExtractSpeed, next.ExtractSpeed)
	appendSpeed(INPUT_NUMBER_ID_BOUNDED_SPEED, p.BoundedSpeed, next.BoundedSpeed)
	appendSpeed(INPUT_NUMBER_ID_BRIGHTNESS, p.Brightness, next.Brightness)

	appendSwitch(SWITCH_ID_SUPPLY_POWER, p.SupplyOn, next.SupplyOn)
	appendSwitch(SWITCH_ID_EXTRACT_POWER, p.ExtractOn, next.ExtractOn)
	appendSwitch(SWITCH_ID_BOUNDED_POWER, p.BoundedOn, next.BoundedOn)
	appendSwitch(SWITCH_ID_BOUND, p.Bound, next.Bound)
	appendSwitch(SWITCH_ID_HEATER, p.Heater, next.Heater)
	appendSwitch(SWITCH_ID_WINTER, p.Winter, next.Winter)
	appendSwitch(SWITCH_ID_AUTO, p.Auto, next.Auto)
	appendSwitch(SWITCH_ID_AUTO_PLUS, p.AutoPlus, next.AutoPlus)
	appendSwitch(SWITCH_ID_NIGHT, p.Night, next.Night)
	appendSwitch(SWITCH_ID_BOOST, p.Boost, next.Boost)

	appendFloat(SENSOR_ID_INSIDE_TEMPERATURE, p.InsideTemp, next.InsideTemp, 1)
	appendFloat(SENSOR_ID_OUTSIDE_TEMPERATURE, p.OutsideTemp, next.OutsideTemp, 1)
	appendFloat(SENSOR_ID_HUMIDITY, p.Humidity, next.Humidity, 0)
	appendFloat(SENSOR_ID_AIR_PRESSURE, p.AirPressure, next.AirPressure, 0)
	appendInt(SENSOR_ID_CO2, p.CO2, next.CO2)
	appendInt(SENSOR_ID_VOC, p.VOC, next.VOC)

	if next.FirmwareVersion != "" && (all || p.FirmwareVersion != next.FirmwareVersion) {
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{Id: SENSOR_ID_FIRMWARE_VERSION},
			Value:                  next.FirmwareVersion,
		})
	}

	return events
}
