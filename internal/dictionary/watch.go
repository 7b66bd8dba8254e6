package dictionary

import (
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads a dictionary file from disk whenever it changes and
// hot-swaps the result into the associated Dictionary, so a long-running
// campaign picks up curated dictionary additions without a restart.
type Watcher struct {
	w    *fsnotify.Watcher
	path string
	dict *Dictionary
	errC chan error
	done chan struct{}
}

// Watch loads path once synchronously, then starts watching it for further
// writes. The returned Watcher's Dictionary is ready to hand to
// internal/mutate.Engine immediately; call Close when the campaign ends.
func Watch(path string) (*Watcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dict, err := Load(data)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()

		return nil, err
	}

	watcher := &Watcher{
		w:    w,
		path: path,
		dict: dict,
		errC: make(chan error, 1),
		done: make(chan struct{}),
	}

	go watcher.loop()

	return watcher, nil
}

// Dictionary returns the hot-swappable Dictionary this Watcher keeps fresh.
func (w *Watcher) Dictionary() *Dictionary { return w.dict }

// Errors surfaces reload failures (a malformed edit mid-write, or a file
// that cannot be read when a write or create event arrives); remove and
// rename events do not trigger a reload. The previous good token list
// remains in effect until a reload succeeds.
func (w *Watcher) Errors() <-chan error { return w.errC }

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.reload()
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}

			select {
			case w.errC <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		select {
		case w.errC <- err:
		default:
		}

		return
	}

	next, err := Load(data)
	if err != nil {
		select {
		case w.errC <- err:
		default:
		}

		return
	}

	w.dict.set(next.Tokens())
}

// Close stops the watch goroutine and releases the underlying OS watch.
func (w *Watcher) Close() error {
	close(w.done)

	return w.w.Close()
}
