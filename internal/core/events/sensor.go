package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	. "github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE        = "bridge"
	SENSOR_ID_INSIDE_TEMPERATURE  = "inside_temperature"
	SENSOR_ID_OUTSIDE_TEMPERATURE = "outside_temperature"
	SENSOR_ID_HUMIDITY            = "humidity"
	SENSOR_ID_CO2                 = "co2"
	SENSOR_ID_VOC                 = "voc"
	SENSOR_ID_AIR_PRESSURE        = "air_pressure"
	SENSOR_ID_FIRMWARE_VERSION    = "firmware_version"

	SWITCH_ID_BOUND         = "bound"
	SWITCH_ID_HEATER        = "heater"
	SWITCH_ID_WINTER        = "winter"
	SWITCH_ID_AUTO          = "auto"
	SWITCH_ID_AUTO_PLUS     = "auto_plus"
	SWITCH_ID_NIGHT         = "night"
	SWITCH_ID_BOOST         = "boost"
	SWITCH_ID_SUPPLY_POWER  = "supply_power"
	SWITCH_ID_EXTRACT_POWER = "extract_power"
	SWITCH_ID_BOUNDED_POWER = "bounded_power"

	INPUT_NUMBER_ID_SUPPLY_SPEED  = "supply_speed"
	INPUT_NUMBER_ID_EXTRACT_SPEED = "extract_speed"
	INPUT_NUMBER_ID_BOUNDED_SPEED = "bounded_speed"
	INPUT_NUMBER_ID_BRIGHTNESS    = "brightness"

	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_TEMPERATURE  = "temperature"
	DEVICE_CLASS_HUMIDITY     = "humidity"
	DEVICE_CLASS_CO2          = "carbon_dioxide"
	DEVICE_CLASS_VOC          = "volatile_organic_compounds_parts"
	DEVICE_CLASS_PRESSURE     = "atmospheric_pressure"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	ENTITY_CLASS_CONFIG       = "config"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
	INPUT_NUMBER_MODE_BOX     = "box"
	INPUT_NUMBER_MODE_SLIDER  = "slider"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("prana_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Prana2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Prana2MQTT %s", md5HashShort(baseTopic)),
	}
}

func PranaDevice(name string, state *pranadev.State) Device {
	return Device{
		Id:           fmt.Sprintf("prana_recuperator_%s", md5HashShort(name)),
		Version:      state.FirmwareVersion,
		Manufacturer: "Prana",
		Model:        "Recuperator",
		Name:         name,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// RecuperatorSensors builds sensor definitions for measurements the device
// actually reported in its first snapshot. Absent sensors get no entity.
func RecuperatorSensors(pranaDevice Device, state *pranadev.State) []GenericSensor {

	var sensors []GenericSensor

	if state.InsideTemp != nil {
		sensors = append(sensors, GenericSensor{
			Device:            pranaDevice,
			Id:                SENSOR_ID_INSIDE_TEMPERATURE,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Inside temperature",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_TEMPERATURE,
			UnitOfMeasurement: "°C",
			UniqueId:          uniqueId(pranaDevice.Id, SENSOR_ID_INSIDE_TEMPERATURE),
		})
	}

	if state.OutsideTemp != nil {
		sensors = append(sensors, GenericSensor{
			Device:            pranaDevice,
			Id:                SENSOR_ID_OUTSIDE_TEMPERATURE,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Outside temperature",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_TEMPERATURE,
			UnitOfMeasurement: "°C",
			UniqueId:          uniqueId(pranaDevice.Id, SENSOR_ID_OUTSIDE_TEMPERATURE),
		})
	}

	if state.Humidity != nil {
		sensors = append(sensors, GenericSensor{
			Device:            pranaDevice,
			Id:                SENSOR_ID_HUMIDITY,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Humidity",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_HUMIDITY,
			UnitOfMeasurement: "%",
			UniqueId:          uniqueId(pranaDevice.Id, SENSOR_ID_HUMIDITY),
		})
	}

	if state.CO2 != nil {
		sensors = append(sensors, GenericSensor{
			Device:            pranaDevice,
			Id:                SENSOR_ID_CO2,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "CO2",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_CO2,
			UnitOfMeasurement: "ppm",
			UniqueId:          uniqueId(pranaDevice.Id, SENSOR_ID_CO2),
		})
	}

	if state.VOC != nil {
		sensors = append(sensors, GenericSensor{
			Device:            pranaDevice,
			Id:                SENSOR_ID_VOC,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "VOC",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_VOC,
			UnitOfMeasurement: "ppb",
			UniqueId:          uniqueId(pranaDevice.Id, SENSOR_ID_VOC),
		})
	}

	if state.AirPressure != nil {
		sensors = append(sensors, GenericSensor{
			Device:            pranaDevice,
			Id:                SENSOR_ID_AIR_PRESSURE,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Air pressure",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_PRESSURE,
			UnitOfMeasurement: "hPa",
			EnabledByDefault:  optionalBool(false),
			UniqueId:          uniqueId(pranaDevice.Id, SENSOR_ID_AIR_PRESSURE),
		})
	}

	if state.FirmwareVersion != "" {
		sensors = append(sensors, GenericSensor{
			Device:         pranaDevice,
			Id:             SENSOR_ID_FIRMWARE_VERSION,
			SensorType:     SENSOR_TYPE_SENSOR,
			Name:           "Firmware version",
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(pranaDevice.Id, SENSOR_ID_FIRMWARE_VERSION),
		})
	}

	return sensors
}

func RecuperatorSwitches(pranaDevice Device) []GenericSwitch {

	defs := []struct {
		id   string
		name string
		icon string
	}{
		{SWITCH_ID_BOUND, "Bound fans", "mdi:link-variant"},
		{SWITCH_ID_HEATER, "Heater", "mdi:radiator"},
		{SWITCH_ID_WINTER, "Winter mode", "mdi:snowflake"},
		{SWITCH_ID_AUTO, "Auto mode", "mdi:fan-auto"},
		{SWITCH_ID_AUTO_PLUS, "Auto+ mode", "mdi:fan-auto"},
		{SWITCH_ID_NIGHT, "Night mode", "mdi:weather-night"},
		{SWITCH_ID_BOOST, "Boost mode", "mdi:weather-windy"},
		{SWITCH_ID_SUPPLY_POWER, "Supply fan", "mdi:fan"},
		{SWITCH_ID_EXTRACT_POWER, "Extract fan", "mdi:fan"},
		{SWITCH_ID_BOUNDED_POWER, "Both fans", "mdi:fan"},
	}

	var switches []GenericSwitch
	for _, def := range defs {
		switches = append(switches, GenericSwitch{
			Device:   pranaDevice,
			Id:       def.id,
			Name:     def.name,
			UniqueId: uniqueId(pranaDevice.Id, def.id),
			Icon:     def.icon,
		})
	}
	return switches
}

func RecuperatorInputNumbers(pranaDevice Device) []GenericInputNumber {

	defs := []struct {
		id   string
		name string
		icon string
	}{
		{INPUT_NUMBER_ID_SUPPLY_SPEED, "Supply fan speed", "mdi:fan-chevron-up"},
		{INPUT_NUMBER_ID_EXTRACT_SPEED, "Extract fan speed", "mdi:fan-chevron-down"},
		{INPUT_NUMBER_ID_BOUNDED_SPEED, "Bound fan speed", "mdi:fan"},
		{INPUT_NUMBER_ID_BRIGHTNESS, "Display brightness", "mdi:brightness-6"},
	}

	var inputNumbers []GenericInputNumber
	for _, def := range defs {
		inputNumbers = append(inputNumbers, GenericInputNumber{
			Device:   pranaDevice,
			Id:       def.id,
			Name:     def.name,
			UniqueId: uniqueId(pranaDevice.Id, def.id),
			Icon:     def.icon,
			Max:      float64(pranadev.MaxLevel),
			Min:      float64(pranadev.MinLevel),
			Step:     1,
			Mode:     INPUT_NUMBER_MODE_SLIDER,
		})
	}
	return inputNumbers
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
