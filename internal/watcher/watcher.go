package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vaultboard/internal/model"
	"vaultboard/internal/reconcile"
)

// Reconciler is the slice of the sync engine the controller drives.
type Reconciler interface {
	Reconcile(ctx context.Context, board model.Board) (reconcile.Result, error)
}

// Notifier receives board identifiers whose cards changed.
type Notifier interface {
	BoardUpdated(boardID uuid.UUID)
}

// Controller watches board source files and reconciles each settled change
// exactly once. It owns the suppression counter and the pending replay set
// that keep the system from reconciling its own write-backs: writers bracket
// every file mutation with Suppress/Unsuppress, parked changes replay once
// after a fixed delay when the last suppression lifts.
type Controller struct {
	recon       Reconciler
	notify      Notifier
	vaultRoot   string
	debounce    time.Duration
	replayDelay time.Duration
	logger      *log.Logger

	mu          sync.Mutex
	boards      map[string]model.Board // absolute file path -> board
	suppression int
	pending     map[string]struct{}
	debouncers  map[string]*time.Timer
	replayTimer *time.Timer
	pathLocks   map[string]*sync.Mutex
	fw          *fsnotify.Watcher
	generation  int
	running     bool
}

func New(recon Reconciler, notify Notifier, vaultRoot string, debounce, replayDelay time.Duration, logger *log.Logger) *Controller {
	return &Controller{
		recon:       recon,
		notify:      notify,
		vaultRoot:   vaultRoot,
		debounce:    debounce,
		replayDelay: replayDelay,
		logger:      logger,
		boards:      map[string]model.Board{},
		pending:     map[string]struct{}{},
		debouncers:  map[string]*time.Timer{},
		pathLocks:   map[string]*sync.Mutex{},
	}
}

// Start binds the board set and begins monitoring. The parent directories
// are watched rather than the files themselves: editors replace files via
// rename, and a directory watch survives that.
func (c *Controller) Start(boards []model.Board) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return errors.New("watcher already running")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}

	c.boards = make(map[string]model.Board, len(boards))
	dirs := map[string]struct{}{}
	for _, b := range boards {
		abs := reconcile.BoardFilePath(c.vaultRoot, b)
		c.boards[abs] = b
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	c.fw = fw
	c.running = true
	c.generation++
	go c.run(fw, c.generation)

	c.logger.Infof("👀 Watching %d board file(s)", len(c.boards))
	return nil
}

// Stop ceases monitoring and releases the watch handles. No callback fires
// afterward; an in-flight reconcile is allowed to finish and its outcome is
// only logged.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Rebind swaps the watched board set. Parked replays are dropped on purpose:
// the new set may no longer contain the boards they referenced. The
// suppression level survives, since it tracks write-backs that are still in
// flight regardless of which boards exist.
func (c *Controller) Rebind(boards []model.Board) error {
	c.mu.Lock()
	c.stopLocked()
	c.pending = map[string]struct{}{}
	c.mu.Unlock()

	return c.Start(boards)
}

// Suppress marks upcoming file changes as expected. Every writer pairs this
// with exactly one Unsuppress around its write.
func (c *Controller) Suppress() {
	c.mu.Lock()
	c.suppression++
	c.mu.Unlock()
}

// Unsuppress lifts one suppression level, floored at zero. When the last
// level clears and changes were parked, one replay is scheduled after the
// replay delay so any in-flight write can finish flushing. The pending set
// is cleared before scheduling: changes arriving during the delay window
// queue their own work instead of doubling this replay.
func (c *Controller) Unsuppress() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.suppression > 0 {
		c.suppression--
	}
	if c.suppression != 0 || len(c.pending) == 0 {
		return
	}

	paths := make([]string, 0, len(c.pending))
	for p := range c.pending {
		paths = append(paths, p)
	}
	c.pending = map[string]struct{}{}

	gen := c.generation
	c.replayTimer = time.AfterFunc(c.replayDelay, func() {
		c.replay(paths, gen)
	})
}

// OnFileChange handles one settled change for a bound path. While
// suppression is active the path is parked for replay instead.
func (c *Controller) OnFileChange(path string) {
	c.mu.Lock()
	if c.suppression > 0 {
		c.pending[path] = struct{}{}
		c.mu.Unlock()
		return
	}
	board, ok := c.boards[path]
	c.mu.Unlock()

	if !ok {
		c.logger.WithField("path", path).Debug("change on unbound path ignored")
		return
	}
	c.dispatch(path, board)
}

func (c *Controller) run(fw *fsnotify.Watcher, gen int) {
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			c.bump(filepath.Clean(ev.Name), gen)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			c.logger.WithError(err).Warn("fs watcher error")
		}
	}
}

// bump restarts the path's debounce timer. The logical change fires only
// after the file has been quiet for one whole stability window, so a burst
// of raw events (or a half-written file) collapses into a single reconcile.
func (c *Controller) bump(path string, gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || gen != c.generation {
		return
	}
	if _, bound := c.boards[path]; !bound {
		return
	}
	if t, ok := c.debouncers[path]; ok {
		t.Stop()
	}
	c.debouncers[path] = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		delete(c.debouncers, path)
		c.mu.Unlock()

		c.OnFileChange(path)
	})
}

func (c *Controller) replay(paths []string, gen int) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if c.suppression > 0 {
		// A new write-back started during the delay; park the paths again
		// and let its Unsuppress schedule the next replay.
		for _, p := range paths {
			c.pending[p] = struct{}{}
		}
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	for _, path := range paths {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		board, ok := c.boards[path]
		c.mu.Unlock()

		if !ok {
			c.logger.WithField("path", path).Debug("replay skipped, path no longer bound")
			continue
		}
		c.dispatch(path, board)
	}
}

// dispatch reconciles one board, serialized per path so a board's pass
// always completes before its next change is processed. Different boards
// proceed concurrently.
func (c *Controller) dispatch(path string, board model.Board) {
	lock := c.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	res, err := c.recon.Reconcile(context.Background(), board)
	if err != nil {
		c.logger.WithFields(log.Fields{"board": board.Name, "path": path}).
			WithError(err).Error("reconcile failed")
		return
	}
	if res.Changed() {
		c.logger.WithFields(log.Fields{
			"board":   board.Name,
			"added":   res.Added,
			"removed": res.Removed,
			"updated": res.Updated,
		}).Info("board synced")
		c.notify.BoardUpdated(board.ID)
	}
}

func (c *Controller) pathLock(path string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.pathLocks[path]
	if !ok {
		l = &sync.Mutex{}
		c.pathLocks[path] = l
	}
	return l
}

func (c *Controller) stopLocked() {
	// Timers are invalidated even when monitoring never started: a scheduled
	// replay must not outlive a Stop.
	c.generation++
	for path, t := range c.debouncers {
		t.Stop()
		delete(c.debouncers, path)
	}
	if c.replayTimer != nil {
		c.replayTimer.Stop()
		c.replayTimer = nil
	}

	if !c.running {
		return
	}
	c.running = false
	if c.fw != nil {
		c.fw.Close()
		c.fw = nil
	}
	c.logger.Info("🛑 Watcher stopped")
}
