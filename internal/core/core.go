// Package core contains the main struct of the software.
package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"time"

	"github.com/alecthomas/kong"

	"github.com/bluenviron/avplay/internal/api"
	"github.com/bluenviron/avplay/internal/conf"
	"github.com/bluenviron/avplay/internal/confwatcher"
	"github.com/bluenviron/avplay/internal/externalcmd"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/metrics"
	"github.com/bluenviron/avplay/internal/pprof"
	"github.com/bluenviron/avplay/internal/recorder"
)

var version = "v0.0.0"

var defaultConfPaths = []string{
	"avplay.yml",
	"/usr/local/etc/avplay.yml",
	"/usr/etc/avplay.yml",
	"/etc/avplay/avplay.yml",
}

var cli struct {
	Version  bool   `help:"print version"`
	Confpath string `arg:"" default:""`
}

// Core is an instance of avplay.
type Core struct {
	ctx             context.Context
	ctxCancel       func()
	confPath        string
	conf            *conf.Conf
	logger          *logger.Logger
	externalCmdPool *externalcmd.Pool
	registry        *recorder.Registry
	recorderManager *recorderManager
	player          *playerInstance
	playerMutex     sync.RWMutex
	api             *api.API
	metrics         *metrics.Metrics
	pprof           *pprof.PPROF
	confWatcher     *confwatcher.ConfWatcher

	// out
	done chan struct{}
}

// New allocates a Core.
func New(args []string) (*Core, bool) {
	parser, err := kong.New(&cli,
		kong.Description("avplay "+version),
		kong.UsageOnError(),
		kong.ValueFormatter(func(value *kong.Value) string {
			switch value.Name {
			case "confpath":
				return "path to a config file. The default is avplay.yml."

			default:
				return kong.DefaultHelpValueFormatter(value)
			}
		}))
	if err != nil {
		panic(err)
	}

	_, err = parser.Parse(args)
	parser.FatalIfErrorf(err)

	if cli.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	p := &Core{
		ctx:       ctx,
		ctxCancel: ctxCancel,
		done:      make(chan struct{}),
	}

	p.conf, p.confPath, err = conf.Load(cli.Confpath, defaultConfPaths)
	if err != nil {
		fmt.Printf("ERR: %s\n", err)
		return nil, false
	}

	err = p.createResources(true)
	if err != nil {
		if p.logger != nil {
			p.Log(logger.Error, "%s", err)
		} else {
			fmt.Printf("ERR: %s\n", err)
		}
		p.closeResources(nil)
		return nil, false
	}

	go p.run()

	return p, true
}

// Close closes Core and waits for all goroutines to return.
func (p *Core) Close() {
	p.ctxCancel()
	<-p.done
}

// Wait waits for the Core to exit.
func (p *Core) Wait() {
	<-p.done
}

// Log implements logger.Writer.
func (p *Core) Log(level logger.Level, format string, args ...any) {
	p.logger.Log(level, format, args...)
}

func (p *Core) run() {
	defer close(p.done)

	confChanged := func() chan struct{} {
		if p.confWatcher != nil {
			return p.confWatcher.Watch()
		}
		return make(chan struct{})
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

outer:
	for {
		select {
		case <-confChanged:
			p.Log(logger.Info, "reloading configuration (file changed)")

			newConf, _, err := conf.Load(p.confPath, nil)
			if err != nil {
				p.Log(logger.Error, "%s", err)
				break outer
			}

			err = p.reloadConf(newConf)
			if err != nil {
				p.Log(logger.Error, "%s", err)
				break outer
			}

		case <-p.playerDone():
			p.Log(logger.Info, "playback finished")
			p.setPlayer(nil).close()

			// nothing else can be done without servers or recorders
			if !p.conf.API && !p.conf.Metrics && len(p.conf.Recorders) == 0 {
				break outer
			}

		case <-interrupt:
			p.Log(logger.Info, "shutting down gracefully")
			break outer

		case <-p.ctx.Done():
			break outer
		}
	}

	p.ctxCancel()

	p.closeResources(nil)
}


func (p *Core) createResources(initial bool) error {
	var err error

	if p.logger == nil {
		p.logger = &logger.Logger{
			Level:        logger.Level(p.conf.LogLevel),
			Destinations: p.conf.LogDestinations,
			File:         p.conf.LogFile,
		}
		err = p.logger.Initialize()
		if err != nil {
			p.logger = nil
			return err
		}
	}

	if initial {
		p.Log(logger.Info, "avplay %s", version)

		if p.confPath != "" {
			p.Log(logger.Debug, "configuration loaded from %s", p.confPath)
		} else {
			p.Log(logger.Warn, "configuration file not found, using the default configuration")
		}

		p.externalCmdPool = &externalcmd.Pool{}
		p.externalCmdPool.Initialize()

		p.registry = &recorder.Registry{
			ExternalCmdPool: p.externalCmdPool,
			Parent:          p,
		}
		p.registry.Initialize()

		p.recorderManager = &recorderManager{
			registry: p.registry,
		}
		p.recorderManager.initialize()
	}

	err = p.recorderManager.reload(p.conf.Recorders)
	if err != nil {
		return err
	}

	if p.conf.PPROF && p.pprof == nil {
		i := &pprof.PPROF{
			Address: p.conf.PPROFAddress,
			Parent:  p,
		}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.pprof = i
	}

	if initial {
		err = p.startPlayer()
		if err != nil {
			return err
		}
	}

	if p.conf.Metrics && p.metrics == nil {
		i := &metrics.Metrics{
			Address:   p.conf.MetricsAddress,
			Player:    p,
			Recorders: p.recorderManager,
			Parent:    p,
		}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.metrics = i
	}

	if p.conf.API && p.api == nil {
		i := &api.API{
			Version:   version,
			Started:   time.Now(),
			Address:   p.conf.APIAddress,
			Player:    p,
			Recorders: p.recorderManager,
			Parent:    p,
		}
		err = i.Initialize()
		if err != nil {
			return err
		}
		p.api = i
	}

	if initial && p.confPath != "" {
		cw := &confwatcher.ConfWatcher{FilePath: p.confPath}
		err = cw.Initialize()
		if err != nil {
			return err
		}
		p.confWatcher = cw
	}

	return nil
}

func (p *Core) logConfChanged(newConf *conf.Conf) bool {
	return newConf.LogLevel != p.conf.LogLevel ||
		!reflect.DeepEqual(newConf.LogDestinations, p.conf.LogDestinations) ||
		newConf.LogFile != p.conf.LogFile
}

func (p *Core) playerConfChanged(newConf *conf.Conf) bool {
	return !reflect.DeepEqual(newConf.Player, p.conf.Player) ||
		p.logConfChanged(newConf)
}

func (p *Core) closeResources(newConf *conf.Conf) {
	closeLogger := newConf == nil ||
		p.logConfChanged(newConf)

	closePlayer := newConf == nil ||
		p.playerConfChanged(newConf)

	closeAPI := newConf == nil ||
		newConf.API != p.conf.API ||
		newConf.APIAddress != p.conf.APIAddress ||
		closeLogger

	closeMetrics := newConf == nil ||
		newConf.Metrics != p.conf.Metrics ||
		newConf.MetricsAddress != p.conf.MetricsAddress ||
		closeLogger

	closePPROF := newConf == nil ||
		newConf.PPROF != p.conf.PPROF ||
		newConf.PPROFAddress != p.conf.PPROFAddress ||
		closeLogger

	closeRecorders := newConf == nil ||
		closeLogger

	if newConf == nil && p.confWatcher != nil {
		p.confWatcher.Close()
		p.confWatcher = nil
	}

	if closeAPI && p.api != nil {
		p.api.Close()
		p.api = nil
	}

	if closeMetrics && p.metrics != nil {
		p.metrics.Close()
		p.metrics = nil
	}

	if closePlayer {
		if i := p.setPlayer(nil); i != nil {
			i.close()
		}
	}

	if closePPROF && p.pprof != nil {
		p.pprof.Close()
		p.pprof = nil
	}

	if closeRecorders && p.recorderManager != nil {
		p.recorderManager.close()
	}

	if newConf == nil && p.externalCmdPool != nil {
		if n := p.externalCmdPool.Running(); n != 0 {
			p.Log(logger.Info, "waiting for %d running commands", n)
		}
		p.externalCmdPool.Close()
	}

	if closeLogger && p.logger != nil {
		p.logger.Close()
		p.logger = nil
	}
}

func (p *Core) reloadConf(newConf *conf.Conf) error {
	restartPlayer := p.playerConfChanged(newConf)

	p.closeResources(newConf)
	p.conf = newConf

	err := p.createResources(false)
	if err != nil {
		return err
	}

	// a finished playback is restarted only when its configuration changes
	if restartPlayer {
		return p.startPlayer()
	}

	return nil
}
