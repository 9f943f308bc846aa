package core

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/bluenviron/avplay/internal/conf"
	"github.com/bluenviron/avplay/internal/defs"
	"github.com/bluenviron/avplay/internal/framecache"
	"github.com/bluenviron/avplay/internal/logger"
	"github.com/bluenviron/avplay/internal/recorder"
)

type managedRecorder struct {
	conf conf.Recorder
	rec  *recorder.Recorder
}

func recorderParams(c conf.Recorder) recorder.Params {
	return recorder.Params{
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		FPS:        c.FPS,
		Width:      c.Width,
		Height:     c.Height,
		Command:    c.Command,
		MaxCached:  c.MaxCached,
		Overflow:   framecache.OverflowPolicy(c.Overflow),
	}
}

func applyStartReq(p *recorder.Params, req *defs.APIRecorderStartReq) error {
	if req.SampleRate != 0 {
		p.SampleRate = req.SampleRate
	}
	if req.Channels != 0 {
		p.Channels = req.Channels
	}
	if req.FPS != 0 {
		p.FPS = req.FPS
	}
	if req.Width != 0 {
		p.Width = req.Width
	}
	if req.Height != 0 {
		p.Height = req.Height
	}
	if req.MaxCached != 0 {
		p.MaxCached = req.MaxCached
	}
	if req.Overflow != "" {
		v, err := framecache.ParseOverflowPolicy(req.Overflow)
		if err != nil {
			return err
		}
		p.Overflow = v
	}
	return nil
}

// recorderManager owns the configured recorders.
type recorderManager struct {
	registry *recorder.Registry
	parent   logger.Writer

	mutex     sync.Mutex
	recorders map[string]*managedRecorder
}

func (m *recorderManager) initialize() {
	m.recorders = make(map[string]*managedRecorder)
}

// reload applies a new recorder configuration.
// Recorders whose configuration did not change are left untouched.
func (m *recorderManager) reload(confs []conf.Recorder) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	newConfs := make(map[string]conf.Recorder, len(confs))
	for _, c := range confs {
		newConfs[c.Name] = c
	}

	for name, mr := range m.recorders {
		c, ok := newConfs[name]
		if !ok || !reflect.DeepEqual(c, mr.conf) {
			mr.rec.Stop()
			delete(m.recorders, name)
		}
	}

	for _, c := range confs {
		if _, ok := m.recorders[c.Name]; ok {
			continue
		}

		rec, err := m.registry.New(recorder.Kind(c.Kind), c.Backend, c.Name)
		if err != nil {
			return err
		}

		m.recorders[c.Name] = &managedRecorder{conf: c, rec: rec}

		if c.Autostart {
			err = rec.Start(recorderParams(c))
			if err != nil {
				rec.Log(logger.Error, "%v", err)
			}
		}
	}

	return nil
}

func (m *recorderManager) close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for name, mr := range m.recorders {
		mr.rec.Stop()
		delete(m.recorders, name)
	}
}

func (m *recorderManager) get(name string) (*managedRecorder, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	mr, ok := m.recorders[name]
	if !ok {
		return nil, defs.ErrRecorderNotFound
	}
	return mr, nil
}

func (mr *managedRecorder) toAPI() *defs.APIRecorder {
	stats := mr.rec.Stats()

	ret := &defs.APIRecorder{
		Name:     mr.rec.Name,
		Kind:     string(mr.rec.Kind),
		Backend:  mr.rec.Backend,
		Running:  mr.rec.Running(),
		Cached:   mr.rec.Cached(),
		Produced: stats.Produced,
		Dropped:  stats.Dropped,
		Evicted:  stats.Evicted,
	}

	if s := mr.rec.Session(); s != nil {
		ret.Session = &defs.APIRecorderSession{
			ID:      s.ID,
			Created: s.Created,
		}
	}

	return ret
}

// APIRecordersList implements defs.APIRecorderManager.
func (m *recorderManager) APIRecordersList() *defs.APIRecorderList {
	m.mutex.Lock()
	names := make([]string, 0, len(m.recorders))
	for name := range m.recorders {
		names = append(names, name)
	}
	m.mutex.Unlock()

	sort.Strings(names)

	data := &defs.APIRecorderList{
		Items: []*defs.APIRecorder{},
	}

	for _, name := range names {
		mr, err := m.get(name)
		if err == nil {
			data.Items = append(data.Items, mr.toAPI())
		}
	}

	return data
}

// APIRecordersGet implements defs.APIRecorderManager.
func (m *recorderManager) APIRecordersGet(name string) (*defs.APIRecorder, error) {
	mr, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return mr.toAPI(), nil
}

// APIRecordersStart implements defs.APIRecorderManager.
func (m *recorderManager) APIRecordersStart(name string, req *defs.APIRecorderStartReq) (*defs.APIRecorder, error) {
	mr, err := m.get(name)
	if err != nil {
		return nil, err
	}

	params := recorderParams(mr.conf)

	err = applyStartReq(&params, req)
	if err != nil {
		return nil, err
	}

	err = mr.rec.Start(params)
	if err != nil {
		return nil, fmt.Errorf("unable to start recorder: %w", err)
	}

	return mr.toAPI(), nil
}

// APIRecordersStop implements defs.APIRecorderManager.
func (m *recorderManager) APIRecordersStop(name string) error {
	mr, err := m.get(name)
	if err != nil {
		return err
	}

	mr.rec.Stop()
	return nil
}

// APIRecordersFrame implements defs.APIRecorderManager.
func (m *recorderManager) APIRecordersFrame(name string) (time.Time, []byte, error) {
	mr, err := m.get(name)
	if err != nil {
		return time.Time{}, nil, err
	}

	chunk, ok := mr.rec.Get(false)
	if !ok {
		return time.Time{}, nil, nil
	}

	return chunk.NTP, chunk.Data, nil
}
