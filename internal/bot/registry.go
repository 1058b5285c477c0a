package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Common errors
var (
	ErrDuplicateCommand = errors.New("command already registered")
	ErrEmptyCommandName = errors.New("command name is empty")
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Command
	commands []Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds cmd under its name and every alias. Names are case-insensitive.
// Nothing is registered if any of the names is taken.
func (r *Registry) Register(cmd Command) error {
	info := cmd.Info()
	names := append([]string{info.Name}, info.Aliases...)

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" {
			return fmt.Errorf("%w: %q", ErrEmptyCommandName, info.Name)
		}
		_, seen := keys[key]
		if _, taken := r.byName[key]; taken || seen {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
		}
		keys[key] = struct{}{}
	}

	for key := range keys {
		r.byName[key] = cmd
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// MustRegister is Register for startup wiring; it panics on conflicts.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a command by name or alias.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[strings.ToLower(name)]
	return cmd, ok
}

// Commands lists registered commands sorted by name.
func (r *Registry) Commands() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
