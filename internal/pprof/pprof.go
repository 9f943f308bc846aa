// Package pprof contains a pprof exporter.
package pprof

import (
	"time"

	ginpprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/bluenviron/avplay/internal/conf"
	"github.com/bluenviron/avplay/internal/httpp"
	"github.com/bluenviron/avplay/internal/logger"
)

// PPROF is a pprof exporter.
type PPROF struct {
	Address     string
	ReadTimeout conf.Duration
	Parent      logger.Writer

	httpServer *httpp.Server
}

// Initialize initializes PPROF.
func (pp *PPROF) Initialize() error {
	if pp.ReadTimeout == 0 {
		pp.ReadTimeout = conf.Duration(10 * time.Second)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.SetTrustedProxies(nil) //nolint:errcheck
	ginpprof.Register(router)

	pp.httpServer = &httpp.Server{
		Address:     pp.Address,
		ReadTimeout: time.Duration(pp.ReadTimeout),
		Handler:     router,
		Parent:      pp,
	}
	err := pp.httpServer.Initialize()
	if err != nil {
		return err
	}

	pp.Log(logger.Info, "listener opened on "+pp.Address)

	return nil
}

// Close closes PPROF.
func (pp *PPROF) Close() {
	pp.Log(logger.Info, "listener is closing")
	pp.httpServer.Close()
}

// Log implements logger.Writer.
func (pp *PPROF) Log(level logger.Level, format string, args ...any) {
	pp.Parent.Log(level, "[pprof] "+format, args...)
}
