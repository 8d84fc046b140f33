package server

import (
	"net/http"
	"time"

	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const actorRequestTimeout = 10 * time.Second

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/state", s.GetStateHandler)
	e.POST("/refresh", s.RefreshHandler)
	e.POST("/fan/:fan/speed", s.SetFanSpeedHandler)
	e.POST("/fan/:fan/power", s.SetFanPowerHandler)
	e.POST("/switch/:name", s.SetSwitchHandler)
	e.POST("/brightness", s.SetBrightnessHandler)

	return e
}

type stateResponse struct {
	SupplySpeed  int  `json:"supply_speed"`
	ExtractSpeed int  `json:"extract_speed"`
	BoundedSpeed int  `json:"bounded_speed"`
	SupplyOn     bool `json:"supply_on"`
	ExtractOn    bool `json:"extract_on"`
	BoundedOn    bool `json:"bounded_on"`
	Bound        bool `json:"bound"`
	Heater       bool `json:"heater"`
	Winter       bool `json:"winter"`
	Auto         bool `json:"auto"`
	AutoPlus     bool `json:"auto_plus"`
	Night        bool `json:"night"`
	Boost        bool `json:"boost"`
	Brightness   int  `json:"brightness"`

	InsideTemp  *float64 `json:"inside_temperature,omitempty"`
	OutsideTemp *float64 `json:"outside_temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	AirPressure *float64 `json:"air_pressure,omitempty"`
	CO2         *int     `json:"co2,omitempty"`
	VOC         *int     `json:"voc,omitempty"`

	FirmwareVersion string `json:"firmware_version,omitempty"`
	Degraded        bool   `json:"degraded"`
}

type speedRequest struct {
	Speed int `json:"speed"`
}

type powerRequest struct {
	On bool `json:"on"`
}

type brightnessRequest struct {
	Level int `json:"level"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, actorRequestTimeout).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) GetStateHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetCachedStateRequest{}, actorRequestTimeout).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	response, ok := res.(domain.GetCachedStateResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected response"})
	}
	if response.HasResponseError() {
		return errorToHTTP(c, response.GetResponseError())
	}
	return c.JSON(http.StatusOK, stateToResponse(response.State, response.Degraded))
}

func (s *Server) RefreshHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ForceRefreshRequest{}, actorRequestTimeout).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	response, ok := res.(domain.ForceRefreshResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected response"})
	}
	if response.HasResponseError() {
		return errorToHTTP(c, response.GetResponseError())
	}
	return c.JSON(http.StatusOK, stateToResponse(response.State, false))
}

func (s *Server) SetFanSpeedHandler(c echo.Context) error {
	var body speedRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	return s.applyCommand(c, pranadev.SetSpeedIntent{
		Fan:   pranadev.FanType(c.Param("fan")),
		Speed: body.Speed,
	})
}

func (s *Server) SetFanPowerHandler(c echo.Context) error {
	var body powerRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	return s.applyCommand(c, pranadev.SetFanPowerIntent{
		Fan: pranadev.FanType(c.Param("fan")),
		On:  body.On,
	})
}

func (s *Server) SetSwitchHandler(c echo.Context) error {
	var body powerRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	return s.applyCommand(c, pranadev.SetSwitchIntent{
		Switch: pranadev.SwitchType(c.Param("name")),
		On:     body.On,
	})
}

func (s *Server) SetBrightnessHandler(c echo.Context) error {
	var body brightnessRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	return s.applyCommand(c, pranadev.SetBrightnessIntent{
		Level: body.Level,
	})
}

func (s *Server) applyCommand(c echo.Context, intent pranadev.CommandIntent) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ApplyCommandRequest{Intent: intent}, actorRequestTimeout).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	response, ok := res.(domain.ApplyCommandResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected response"})
	}
	if response.HasResponseError() {
		return errorToHTTP(c, response.GetResponseError())
	}
	return c.JSON(http.StatusOK, stateToResponse(response.State, false))
}

func errorToHTTP(c echo.Context, err error) error {
	if _, ok := pranadev.AsValidationError(err); ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if le, ok := domain.AsLifecycleError(err); ok {
		if le.Kind == domain.LifecycleStopped {
			return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
	if _, ok := pranadev.AsTransportError(err); ok {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func stateToResponse(state *pranadev.State, degraded bool) stateResponse {
	if state == nil {
		return stateResponse{Degraded: degraded}
	}
	return stateResponse{
		SupplySpeed:     state.SupplySpeed,
		ExtractSpeed:    state.ExtractSpeed,
		BoundedSpeed:    state.BoundedSpeed,
		SupplyOn:        state.SupplyOn,
		ExtractOn:       state.ExtractOn,
		BoundedOn:       state.BoundedOn,
		Bound:           state.Bound,
		Heater:          state.Heater,
		Winter:          state.Winter,
		Auto:            state.Auto,
		AutoPlus:        state.AutoPlus,
		Night:           state.Night,
		Boost:           state.Boost,
		Brightness:      state.Brightness,
		InsideTemp:      state.InsideTemp,
		OutsideTemp:     state.OutsideTemp,
		Humidity:        state.Humidity,
		AirPressure:     state.AirPressure,
		CO2:             state.CO2,
		VOC:             state.VOC,
		FirmwareVersion: state.FirmwareVersion,
		Degraded:        degraded,
	}
}
