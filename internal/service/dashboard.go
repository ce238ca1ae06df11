package service

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type dashboardServer struct {
	logger  zerolog.Logger
	service *Service
	server  *http.Server
	ln      net.Listener
}

type circuitRequest struct {
	CircuitID *int  `json:"circuitId" binding:"required"`
	On        *bool `json:"on" binding:"required"`
}

type heaterModeRequest struct {
	Body string `json:"body" binding:"required"`
	Mode *int   `json:"mode" binding:"required"`
}

type setpointRequest struct {
	Body string `json:"body" binding:"required"`
	Temp *int   `json:"temp" binding:"required"`
}

type lightsRequest struct {
	Command *int `json:"command" binding:"required"`
}

type controlActionRequest struct {
	Action     string `json:"action" binding:"required"`
	IntervalMS *int64 `json:"interval_ms,omitempty"`
}

func newDashboardServer(listen string, svc *Service, logger zerolog.Logger) (*dashboardServer, error) {
	server := &dashboardServer{logger: logger, service: svc}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(dashboardTemplate)

	router.GET("/", server.handleIndex)
	router.GET("/api/state", server.handleState)
	router.POST("/api/circuit", server.handleCircuit)
	router.POST("/api/heater/mode", server.handleHeaterMode)
	router.POST("/api/heater/setpoint", server.handleSetpoint)
	router.POST("/api/lights", server.handleLights)
	router.POST("/api/control", server.handleControl)
	router.GET("/healthz", server.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: router}
	server.server = srv
	server.ln = ln

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("dashboard server stopped")
		}
	}()

	logger.Info().Str("listen", ln.Addr().String()).Msg("dashboard started")
	return server, nil
}

func (d *dashboardServer) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard", gin.H{})
}

func (d *dashboardServer) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, d.service.View())
}

func (d *dashboardServer) handleCircuit(c *gin.Context) {
	var req circuitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d.service.ToggleCircuit(*req.CircuitID, *req.On)
	c.JSON(http.StatusAccepted, gin.H{"circuitId": *req.CircuitID, "on": *req.On})
}

func (d *dashboardServer) handleHeaterMode(c *gin.Context) {
	var req heaterModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Mode < HeaterModeOff || *req.Mode > HeaterModeNoChange {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown heater mode"})
		return
	}
	if d.service.Store().Current().Body(req.Body) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown body"})
		return
	}
	d.service.SetHeaterMode(req.Body, *req.Mode)
	c.JSON(http.StatusAccepted, gin.H{"body": req.Body, "mode": *req.Mode})
}

func (d *dashboardServer) handleSetpoint(c *gin.Context) {
	var req setpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body := d.service.Store().Current().Body(req.Body)
	if body == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown body"})
		return
	}
	sp := body.Heater.Setpoint
	if sp.Max > 0 && (*req.Temp < sp.Min || *req.Temp > sp.Max) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "setpoint out of range"})
		return
	}
	d.service.SetHeaterSetpoint(req.Body, *req.Temp)
	c.JSON(http.StatusAccepted, gin.H{"body": req.Body, "temp": *req.Temp})
}

func (d *dashboardServer) handleLights(c *gin.Context) {
	var req lightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d.service.SetLights(*req.Command)
	c.JSON(http.StatusAccepted, gin.H{"command": *req.Command})
}

func (d *dashboardServer) handleControl(c *gin.Context) {
	var req controlActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Action {
	case "run":
		d.service.pacer.SetMode(pacerModeRun)
	case "pause":
		d.service.pacer.SetMode(pacerModePause)
	case "step":
		d.service.pacer.Step()
	case "refresh":
		if err := d.service.Refresh(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
	case "interval":
		if req.IntervalMS == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interval_ms required"})
			return
		}
		d.service.pacer.SetInterval(time.Duration(*req.IntervalMS) * time.Millisecond)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	c.JSON(http.StatusOK, d.service.pacer.Status())
}

func (d *dashboardServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stale":       d.service.Store().Stale(time.Now(), d.service.cfg.StaleThreshold()),
		"lastSuccess": d.service.Store().LastSuccess(),
	})
}

func (d *dashboardServer) addr() string {
	if d == nil || d.ln == nil {
		return ""
	}
	return d.ln.Addr().String()
}

func (d *dashboardServer) close() {
	if d == nil || d.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil && err != context.Canceled {
		d.logger.Error().Err(err).Msg("shutdown dashboard")
	}
}
