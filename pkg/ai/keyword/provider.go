// FILE: pkg/ai/keyword/provider.go
// PURPOSE: Load external dictionaries, hot-reload on file change, atomic swap

package keyword

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// externalDictionary is the on-disk JSON dictionary format. All sections are
// optional; present sections are merged over the built-in defaults.
type externalDictionary struct {
	Name          string                 `json:"name"`
	Actions       map[string][]string    `json:"actions"`
	Entities      map[string][]string    `json:"entities"`
	Modifiers     map[string][]string    `json:"modifiers"`
	DirectMatches map[string]DirectMatch `json:"directMatches"`
}

// Provider owns the current Dictionary reference. Request processing reads
// through Current() which never blocks; reloads build a complete new
// Dictionary and swap the pointer.
type Provider struct {
	current atomic.Pointer[Dictionary]
	healthy atomic.Bool
	dir     string
	watcher *fsnotify.Watcher
	logger  *log.Logger
}

// NewProvider builds the dictionary from defaults plus the optional external
// dictionary directory. If dir is non-empty and loading fails, the provider
// starts unhealthy and the router fails closed (everything routes Complex).
func NewProvider(dir string, logger *log.Logger) *Provider {
	p := &Provider{dir: dir, logger: logger}

	if err := p.reload(); err != nil {
		p.logger.Printf("[KEYWORDS] Initial dictionary load failed: %v (failing closed)", err)
		p.healthy.Store(false)
		return p
	}
	p.healthy.Store(true)
	return p
}

// Current returns the active dictionary. ok is false when the initial load
// failed and no dictionary is available.
func (p *Provider) Current() (*Dictionary, bool) {
	d := p.current.Load()
	if d == nil || !p.healthy.Load() {
		return nil, false
	}
	return d, true
}

// Healthy reports whether a dictionary is loaded.
func (p *Provider) Healthy() bool {
	return p.healthy.Load()
}

// Reload rebuilds the dictionary from defaults + external files and swaps it
// in. Used by the /optimize {type: keywords} boundary call.
func (p *Provider) Reload() error {
	if err := p.reload(); err != nil {
		return err
	}
	p.healthy.Store(true)
	return nil
}

func (p *Provider) reload() error {
	d := DefaultDictionary()

	if p.dir != "" {
		loaded, err := p.mergeExternal(d)
		if err != nil {
			return err
		}
		p.logger.Printf("[KEYWORDS] Loaded %d external dictionary files, %d direct-match rules total",
			loaded, len(d.DirectMatches))
	}

	d.finalize()
	p.current.Store(d)
	return nil
}

// mergeExternal merges every *.json file in the dictionary directory, in
// filename order so overrides are deterministic.
func (p *Provider) mergeExternal(d *Dictionary) (int, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return 0, fmt.Errorf("read dictionary dir %s: %w", p.dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(p.dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("read dictionary file %s: %w", name, err)
		}
		var ext externalDictionary
		if err := json.Unmarshal(raw, &ext); err != nil {
			return 0, fmt.Errorf("parse dictionary file %s: %w", name, err)
		}
		mergeGroups(d.Actions, ext.Actions)
		mergeGroups(d.Entities, ext.Entities)
		mergeGroups(d.Modifiers, ext.Modifiers)
		for phrase, m := range ext.DirectMatches {
			// Comment entries use a "//" prefix convention
			if strings.HasPrefix(phrase, "//") {
				continue
			}
			if m.Phrase == "" {
				m.Phrase = phrase
			}
			if m.Tokens == 0 {
				m.Tokens = 20
			}
			d.DirectMatches[Normalize(phrase)] = m
		}
	}
	return len(files), nil
}

func mergeGroups(dst, src map[string][]string) {
	for group, terms := range src {
		dst[group] = append(dst[group], terms...)
	}
}

// Watch starts a fsnotify watcher on the dictionary directory and reloads on
// any write/create/remove. No-op when no directory is configured.
func (p *Provider) Watch() error {
	if p.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create dictionary watcher: %w", err)
	}
	if err := watcher.Add(p.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dictionary dir %s: %w", p.dir, err)
	}
	p.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := p.Reload(); err != nil {
					// Keep serving the previous dictionary on a bad reload.
					p.logger.Printf("[KEYWORDS] Hot reload failed, keeping previous dictionary: %v", err)
					continue
				}
				p.logger.Printf("[KEYWORDS] Dictionary reloaded after change: %s", event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.Printf("[KEYWORDS] Watcher error: %v", err)
			}
		}
	}()

	return nil
}

// Close stops the file watcher.
func (p *Provider) Close() error {
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}
