// Package api contains the API server.
package api //nolint:revive

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bluenviron/avplay/internal/conf"
	"github.com/bluenviron/avplay/internal/defs"
	"github.com/bluenviron/avplay/internal/httpp"
	"github.com/bluenviron/avplay/internal/logger"
)

// API is an API server.
type API struct {
	Version     string
	Started     time.Time
	Address     string
	ReadTimeout conf.Duration
	Player      defs.APIPlayer
	Recorders   defs.APIRecorderManager
	Parent      logger.Writer

	httpServer *httpp.Server
}

// Initialize initializes API.
func (a *API) Initialize() error {
	if a.ReadTimeout == 0 {
		a.ReadTimeout = conf.Duration(10 * time.Second)
	}

	a.httpServer = &httpp.Server{
		Address:     a.Address,
		ReadTimeout: time.Duration(a.ReadTimeout),
		Handler:     a.router(),
		Parent:      a,
	}
	err := a.httpServer.Initialize()
	if err != nil {
		return err
	}

	a.Log(logger.Info, "listener opened on "+a.Address)

	return nil
}

func (a *API) router() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetTrustedProxies(nil) //nolint:errcheck

	group := router.Group("/v1")

	group.GET("/info", a.onInfo)

	group.GET("/player/stats", a.onPlayerStats)

	group.GET("/recorders/list", a.onRecordersList)
	group.GET("/recorders/get/:name", a.onRecordersGet)
	group.POST("/recorders/start/:name", a.onRecordersStart)
	group.POST("/recorders/stop/:name", a.onRecordersStop)
	group.GET("/recorders/frame/:name", a.onRecordersFrame)

	return router
}

// Close closes the API.
func (a *API) Close() {
	a.Log(logger.Info, "listener is closing")
	a.httpServer.Close()
}

// Log implements logger.Writer.
func (a *API) Log(level logger.Level, format string, args ...any) {
	a.Parent.Log(level, "[API] "+format, args...)
}

func (a *API) writeError(ctx *gin.Context, status int, err error) {
	// show error in logs
	a.Log(logger.Error, err.Error())

	// add error to response
	ctx.JSON(status, &defs.APIError{
		Status: "error",
		Error:  err.Error(),
	})
}

func (a *API) writeOK(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, &defs.APIOK{Status: "ok"})
}

func (a *API) onInfo(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, &defs.APIInfo{
		Version: a.Version,
		Started: a.Started,
	})
}

func (a *API) onPlayerStats(ctx *gin.Context) {
	if a.Player == nil {
		a.writeError(ctx, http.StatusNotFound, defs.ErrPlayerNotRunning)
		return
	}

	data, err := a.Player.APIPlayerStats()
	if err != nil {
		if errors.Is(err, defs.ErrPlayerNotRunning) {
			a.writeError(ctx, http.StatusNotFound, err)
		} else {
			a.writeError(ctx, http.StatusInternalServerError, err)
		}
		return
	}

	ctx.JSON(http.StatusOK, data)
}

func (a *API) onRecordersList(ctx *gin.Context) {
	data := a.Recorders.APIRecordersList()

	data.ItemCount = len(data.Items)
	items, pageCount, err := paginate(data.Items, ctx.Query("itemsPerPage"), ctx.Query("page"))
	if err != nil {
		a.writeError(ctx, http.StatusBadRequest, err)
		return
	}
	data.Items = items
	data.PageCount = pageCount

	ctx.JSON(http.StatusOK, data)
}

func (a *API) writeRecorderError(ctx *gin.Context, err error) {
	if errors.Is(err, defs.ErrRecorderNotFound) {
		a.writeError(ctx, http.StatusNotFound, err)
	} else {
		a.writeError(ctx, http.StatusBadRequest, err)
	}
}

func (a *API) onRecordersGet(ctx *gin.Context) {
	data, err := a.Recorders.APIRecordersGet(ctx.Param("name"))
	if err != nil {
		a.writeRecorderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, data)
}

func (a *API) onRecordersStart(ctx *gin.Context) {
	var req defs.APIRecorderStartReq

	// the body is optional
	d := json.NewDecoder(ctx.Request.Body)
	d.DisallowUnknownFields()
	err := d.Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		a.writeError(ctx, http.StatusBadRequest, err)
		return
	}

	data, err := a.Recorders.APIRecordersStart(ctx.Param("name"), &req)
	if err != nil {
		a.writeRecorderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, data)
}

func (a *API) onRecordersStop(ctx *gin.Context) {
	err := a.Recorders.APIRecordersStop(ctx.Param("name"))
	if err != nil {
		a.writeRecorderError(ctx, err)
		return
	}

	a.writeOK(ctx)
}

func (a *API) onRecordersFrame(ctx *gin.Context) {
	ntp, data, err := a.Recorders.APIRecordersFrame(ctx.Param("name"))
	if err != nil {
		a.writeRecorderError(ctx, err)
		return
	}

	if data == nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	ctx.Header("X-Capture-Time", ntp.UTC().Format(time.RFC3339Nano))
	ctx.Data(http.StatusOK, "application/octet-stream", data)
}
