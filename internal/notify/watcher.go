package notify

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the marker directory and invokes the sweep callback when
// markers appear. The callback is typically the store's ReindexPending.
type Watcher struct {
	markers  *Markers
	callback func()
	watcher  *fsnotify.Watcher
	done     chan struct{}
	log      zerolog.Logger
}

// NewWatcher builds a watcher over the given markers.
func NewWatcher(markers *Markers, callback func(), log zerolog.Logger) *Watcher {
	return &Watcher{
		markers:  markers,
		callback: callback,
		done:     make(chan struct{}),
		log:      log.With().Str("component", "notify").Logger(),
	}
}

// Start fires the callback once when leftover markers exist (the startup
// sweep), then watches for new ones. Call Stop to clean up.
func (w *Watcher) Start() error {
	if pending, err := w.markers.Pending(); err == nil && len(pending) > 0 {
		w.log.Info().Int("pending", len(pending)).Msg("draining leftover re-index markers")
		w.callback()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.markers.dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.watcher = fw

	go w.loop()
	w.log.Debug().Str("dir", w.markers.dir).Msg("watching for re-index markers")
	return nil
}

// Stop shuts the watcher down and waits for the loop to exit. Safe to call
// when Start failed or was never called; the loop only runs after a
// successful Start.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	_ = w.watcher.Close()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&fsnotify.Create != 0 && strings.HasSuffix(evt.Name, markerSuffix) {
				w.callback()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}
