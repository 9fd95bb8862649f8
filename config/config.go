// Package config loads the optional driver-wide defaults file added in
// SPEC_FULL.md §10: the values a Config DSN doesn't specify (compatible,
// loglevel, charset) fall back to whatever this file sets process-wide,
// and a Watcher can push live updates while connections stay open.
package config

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Defaults is the top-level driver-wide defaults document.
type Defaults struct {
	Compatible string `yaml:"compatible"`
	LogLevel   int    `yaml:"loglevel"`
	CharSet    string `yaml:"charset"`
}

func applyDefaults(d *Defaults) {
	if d.Compatible == "" {
		d.Compatible = "1.0"
	}
}

// Load reads and parses a YAML defaults file.
func Load(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading driver defaults file: %w", err)
	}

	d := &Defaults{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parsing driver defaults file: %w", err)
	}
	applyDefaults(d)
	return d, nil
}

// Watcher watches the defaults file for changes and calls back with the
// reloaded Defaults, debounced the same as JeelKantaria-db-bouncer's config
// watcher: editors tend to emit several Write events per save.
type Watcher struct {
	path     string
	callback func(*Defaults)
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	stopCh   chan struct{}
}

// NewWatcher starts watching path in the background.
func NewWatcher(path string, callback func(*Defaults)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating defaults file watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching defaults file: %w", err)
	}

	cw := &Watcher{
		path:     path,
		callback: callback,
		watcher:  w,
		stopCh:   make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

func (cw *Watcher) run() {
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, cw.reload)
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[config] watcher error: %v", err)
		case <-cw.stopCh:
			return
		}
	}
}

func (cw *Watcher) reload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	d, err := Load(cw.path)
	if err != nil {
		log.Printf("[config] hot-reload failed: %v", err)
		return
	}
	log.Printf("[config] driver defaults reloaded from %s", cw.path)
	cw.callback(d)
}

// Stop stops the watcher.
func (cw *Watcher) Stop() error {
	close(cw.stopCh)
	return cw.watcher.Close()
}
