package pranadev

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type FanType string

const (
	FanSupply  FanType = "supply"
	FanExtract FanType = "extract"
	FanBounded FanType = "bounded"
)

type SwitchType string

const (
	SwitchBound    SwitchType = "bound"
	SwitchHeater   SwitchType = "heater"
	SwitchWinter   SwitchType = "winter"
	SwitchAuto     SwitchType = "auto"
	SwitchAutoPlus SwitchType = "auto_plus"
	SwitchNight    SwitchType = "night"
	SwitchBoost    SwitchType = "boost"
)

const (
	// Speeds and brightness are exposed as levels 0..6. The firmware speaks
	// speed in steps of 10 (0..60) on the write path.
	MinLevel  = 0
	MaxLevel  = 6
	SpeedStep = 10

	// Minimum firmware major version that exposes the local HTTP API.
	MinLocalAPIFirmware = 2

	DefaultPort       = 80
	DefaultBrightness = 6
)

// brightnessLevels maps level 0..6 to the raw display value the firmware uses.
var brightnessLevels = [MaxLevel + 1]int{0, 1, 2, 4, 8, 16, 32}

func brightnessToWire(level int) int {
	return brightnessLevels[level]
}

func brightnessFromWire(value int) (int, bool) {
	for level, wire := range brightnessLevels {
		if wire == value {
			return level, true
		}
	}
	return 0, false
}

func ValidFan(fan FanType) bool {
	switch fan {
	case FanSupply, FanExtract, FanBounded:
		return true
	}
	return false
}

func ValidSwitch(sw SwitchType) bool {
	switch sw {
	case SwitchBound, SwitchHeater, SwitchWinter, SwitchAuto, SwitchAutoPlus, SwitchNight, SwitchBoost:
		return true
	}
	return false
}

// DeviceAddress locates a device on the local network.
type DeviceAddress struct {
	Host string
	Port uint
}

func (a DeviceAddress) BaseURL() string {
	port := a.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("http://%s:%d", a.Host, port)
}

func (a DeviceAddress) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// RawState is the decoded /getState payload. Fan sections ("supply",
// "extract", "bounded") nest under their own keys, everything else is flat.
type RawState map[string]any

// State is the typed device snapshot. Sensor fields are nil when the
// firmware does not report them, which is a valid long-lived condition
// distinct from a zero reading.
type State struct {
	SupplySpeed  int
	ExtractSpeed int
	BoundedSpeed int

	SupplyOn  bool
	ExtractOn bool
	BoundedOn bool

	Bound    bool
	Heater   bool
	Winter   bool
	Auto     bool
	AutoPlus bool
	Night    bool
	Boost    bool

	Brightness int

	InsideTemp  *float64
	OutsideTemp *float64
	Humidity    *float64
	AirPressure *float64
	CO2         *int
	VOC         *int

	FirmwareVersion string
}

// SupportsLocalAPI reports whether the firmware is recent enough for the
// local HTTP command set. An unparseable or missing version is treated as
// supported, since the state was fetched over that very API.
func (s State) SupportsLocalAPI() bool {
	major := firmwareMajor(s.FirmwareVersion)
	return major == 0 || major >= MinLocalAPIFirmware
}

func firmwareMajor(version string) int {
	if version == "" {
		return 0
	}
	head, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return major
}

// Clone returns a deep copy. Published snapshots are always clones so no
// consumer holds a reference into coordinator-owned state.
func (s State) Clone() State {
	c := s
	c.InsideTemp = cloneFloat(s.InsideTemp)
	c.OutsideTemp = cloneFloat(s.OutsideTemp)
	c.Humidity = cloneFloat(s.Humidity)
	c.AirPressure = cloneFloat(s.AirPressure)
	c.CO2 = cloneInt(s.CO2)
	c.VOC = cloneInt(s.VOC)
	return c
}

func (s State) Equal(o State) bool {
	return s.SupplySpeed == o.SupplySpeed &&
		s.ExtractSpeed == o.ExtractSpeed &&
		s.BoundedSpeed == o.BoundedSpeed &&
		s.SupplyOn == o.SupplyOn &&
		s.ExtractOn == o.ExtractOn &&
		s.BoundedOn == o.BoundedOn &&
		s.Bound == o.Bound &&
		s.Heater == o.Heater &&
		s.Winter == o.Winter &&
		s.Auto == o.Auto &&
		s.AutoPlus == o.AutoPlus &&
		s.Night == o.Night &&
		s.Boost == o.Boost &&
		s.Brightness == o.Brightness &&
		floatEqual(s.InsideTemp, o.InsideTemp) &&
		floatEqual(s.OutsideTemp, o.OutsideTemp) &&
		floatEqual(s.Humidity, o.Humidity) &&
		floatEqual(s.AirPressure, o.AirPressure) &&
		intEqual(s.CO2, o.CO2) &&
		intEqual(s.VOC, o.VOC) &&
		s.FirmwareVersion == o.FirmwareVersion
}

// StateFromRaw builds a State from a raw mapping. Missing keys get
// documented defaults, out-of-range values are clamped and logged as
// data-quality anomalies. It never fails: firmware variance is expected.
func StateFromRaw(raw RawState, logger *zap.Logger) State {
	if logger == nil {
		logger = zap.NewNop()
	}
	supply := rawSection(raw, "supply")
	extract := rawSection(raw, "extract")
	bounded := rawSection(raw, "bounded")

	state := State{
		SupplySpeed:  normalizeSpeed(rawInt(supply, "speed", 0), "supply.speed", logger),
		ExtractSpeed: normalizeSpeed(rawInt(extract, "speed", 0), "extract.speed", logger),
		BoundedSpeed: normalizeSpeed(rawInt(bounded, "speed", 0), "bounded.speed", logger),
		SupplyOn:     rawBool(supply, "is_on", false),
		ExtractOn:    rawBool(extract, "is_on", false),
		BoundedOn:    rawBool(bounded, "is_on", false),
		Bound:        rawBool(raw, "bound", false),
		Heater:       rawBool(raw, "heater", false),
		Winter:       rawBool(raw, "winter", false),
		Auto:         rawBool(raw, "auto", false),
		AutoPlus:     rawBool(raw, "auto_plus", false),
		Night:        rawBool(raw, "night", false),
		Boost:        rawBool(raw, "boost", false),
		Brightness:   normalizeBrightness(rawInt(raw, "brightness", DefaultBrightness), logger),

		InsideTemp:  rawTemperature(raw, "inside_temperature"),
		OutsideTemp: rawTemperature(raw, "outside_temperature"),
		Humidity:    rawOptFloat(raw, "humidity"),
		AirPressure: rawOptFloat(raw, "air_pressure"),
		CO2:         rawOptInt(raw, "co2"),
		VOC:         rawOptInt(raw, "voc"),

		FirmwareVersion: rawString(raw, "firmware_version"),
	}
	return state
}

// normalizeSpeed accepts both level-scale (0..6) and older step-scale
// (0..60, multiples of 10) speeds. Anything else is clamped into 0..6.
func normalizeSpeed(value int, field string, logger *zap.Logger) int {
	if value > MaxLevel && value%SpeedStep == 0 && value <= MaxLevel*SpeedStep {
		return value / SpeedStep
	}
	return clampLevel(value, field, logger)
}

func normalizeBrightness(value int, logger *zap.Logger) int {
	if value > MaxLevel {
		if level, ok := brightnessFromWire(value); ok {
			return level
		}
	}
	return clampLevel(value, "brightness", logger)
}

func clampLevel(value int, field string, logger *zap.Logger) int {
	if value < MinLevel {
		logger.Warn("device reported out-of-range value, clamping",
			zap.String("field", field), zap.Int("value", value), zap.Int("clamped", MinLevel))
		return MinLevel
	}
	if value > MaxLevel {
		logger.Warn("device reported out-of-range value, clamping",
			zap.String("field", field), zap.Int("value", value), zap.Int("clamped", MaxLevel))
		return MaxLevel
	}
	return value
}

func rawSection(raw RawState, key string) RawState {
	if section, ok := raw[key].(map[string]any); ok {
		return RawState(section)
	}
	return RawState{}
}

func rawInt(raw RawState, key string, def int) int {
	value, ok := rawNumber(raw, key)
	if !ok {
		return def
	}
	return int(value)
}

func rawBool(raw RawState, key string, def bool) bool {
	if value, ok := raw[key].(bool); ok {
		return value
	}
	return def
}

func rawString(raw RawState, key string) string {
	switch value := raw[key].(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return ""
}

// rawTemperature decodes a temperature reported in tenths of a degree.
func rawTemperature(raw RawState, key string) *float64 {
	value, ok := rawNumber(raw, key)
	if !ok {
		return nil
	}
	value /= 10
	return &value
}

func rawOptFloat(raw RawState, key string) *float64 {
	value, ok := rawNumber(raw, key)
	if !ok {
		return nil
	}
	return &value
}

func rawOptInt(raw RawState, key string) *int {
	value, ok := rawNumber(raw, key)
	if !ok {
		return nil
	}
	i := int(value)
	return &i
}

func rawNumber(raw RawState, key string) (float64, bool) {
	switch value := raw[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	}
	return 0, false
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
