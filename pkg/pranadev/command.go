package pranadev

import "fmt"

// CommandIntent is a transient value object: one control plus the desired
// value. Intents are validated by Translate before any network call.
type CommandIntent interface {
	Control() string
}

type SetSpeedIntent struct {
	Fan   FanType
	Speed int
}

func (i SetSpeedIntent) Control() string {
	return fmt.Sprintf("%s_speed", i.Fan)
}

type SetFanPowerIntent struct {
	Fan FanType
	On  bool
}

func (i SetFanPowerIntent) Control() string {
	return fmt.Sprintf("%s_power", i.Fan)
}

type SetSwitchIntent struct {
	Switch SwitchType
	On     bool
}

func (i SetSwitchIntent) Control() string {
	return string(i.Switch)
}

type SetBrightnessIntent struct {
	Level int
}

func (i SetBrightnessIntent) Control() string {
	return "brightness"
}

// TransportRequest describes the transport call an intent maps to, plus the
// optimistic cache mutation to apply once that call succeeds.
type TransportRequest struct {
	Control string
	Send    func(Transport) error
	Apply   func(*State)
}

// Translate validates an intent against its control's domain and maps it to
// a transport request. A failed validation guarantees the transport is never
// invoked with a value the device is known to reject.
func Translate(intent CommandIntent) (*TransportRequest, error) {
	switch cmd := intent.(type) {
	case SetSpeedIntent:
		if !ValidFan(cmd.Fan) {
			return nil, &ValidationError{Kind: ValidationUnknownControl, Control: cmd.Control(), Value: cmd.Fan}
		}
		if cmd.Speed < MinLevel || cmd.Speed > MaxLevel {
			return nil, &ValidationError{Kind: ValidationOutOfRange, Control: cmd.Control(), Value: cmd.Speed}
		}
		return &TransportRequest{
			Control: cmd.Control(),
			Send:    func(t Transport) error { return t.SendSpeed(cmd.Fan, cmd.Speed) },
			Apply:   func(s *State) { setFanSpeed(s, cmd.Fan, cmd.Speed) },
		}, nil
	case SetFanPowerIntent:
		if !ValidFan(cmd.Fan) {
			return nil, &ValidationError{Kind: ValidationUnknownControl, Control: cmd.Control(), Value: cmd.Fan}
		}
		return &TransportRequest{
			Control: cmd.Control(),
			Send:    func(t Transport) error { return t.SendSpeedPower(cmd.Fan, cmd.On) },
			Apply:   func(s *State) { setFanPower(s, cmd.Fan, cmd.On) },
		}, nil
	case SetSwitchIntent:
		if !ValidSwitch(cmd.Switch) {
			return nil, &ValidationError{Kind: ValidationUnknownControl, Control: cmd.Control(), Value: cmd.Switch}
		}
		return &TransportRequest{
			Control: cmd.Control(),
			Send:    func(t Transport) error { return t.SendSwitch(cmd.Switch, cmd.On) },
			Apply:   func(s *State) { setSwitch(s, cmd.Switch, cmd.On) },
		}, nil
	case SetBrightnessIntent:
		if cmd.Level < MinLevel || cmd.Level > MaxLevel {
			return nil, &ValidationError{Kind: ValidationOutOfRange, Control: cmd.Control(), Value: cmd.Level}
		}
		return &TransportRequest{
			Control: cmd.Control(),
			Send:    func(t Transport) error { return t.SendBrightness(cmd.Level) },
			Apply:   func(s *State) { s.Brightness = cmd.Level },
		}, nil
	default:
		return nil, &ValidationError{Kind: ValidationUnknownControl, Control: fmt.Sprintf("%T", intent)}
	}
}

func setFanSpeed(s *State, fan FanType, speed int) {
	switch fan {
	case FanSupply:
		s.SupplySpeed = speed
	case FanExtract:
		s.ExtractSpeed = speed
	case FanBounded:
		s.BoundedSpeed = speed
	}
}

func setFanPower(s *State, fan FanType, on bool) {
	switch fan {
	case FanSupply:
		s.SupplyOn = on
	case FanExtract:
		s.ExtractOn = on
	case FanBounded:
		s.BoundedOn = on
	}
}

func setSwitch(s *State, sw SwitchType, on bool) {
	switch sw {
	case SwitchBound:
		s.Bound = on
	case SwitchHeater:
		s.Heater = on
	case SwitchWinter:
		s.Winter = on
	case SwitchAuto:
		s.Auto = on
	case SwitchAutoPlus:
		s.AutoPlus = on
	case SwitchNight:
		s.Night = on
	case SwitchBoost:
		s.Boost = on
	}
}
