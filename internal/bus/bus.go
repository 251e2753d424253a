// Package bus implements the command-ownership registry: a map from bus
// command name to the peer id that currently owns it, with conflict
// detection on every mutation.
package bus

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/singnet/dasbus/internal/logging"
)

var log = logging.Scope("bus")

// ErrUnknownCommand is returned when an operation names a command that was
// never registered via Add.
var ErrUnknownCommand = errors.New("bus: unknown command")

// ErrOwnershipConflict is returned when SetOwnership would overwrite an
// existing, different, non-empty owner, rather than panicking.
var ErrOwnershipConflict = errors.New("bus: command already owned by a different peer")

// Registry is the mutable command -> owning-peer map shared by a bus node
// and its discovery loop.
type Registry struct {
	mu    sync.RWMutex
	owner map[string]string
}

// New returns an empty registry with the given commands pre-declared and
// unowned.
func New(commands []string) *Registry {
	r := &Registry{owner: map[string]string{}}
	for _, c := range commands {
		// Add never conflicts on a fresh registry: nothing is owned yet, and
		// a duplicate command name is a no-op, so the error is discarded.
		_ = r.Add(c)
	}
	return r
}

// Add registers command with no owner. Adding an already-registered command
// is a no-op as long as it is still unowned; if it already has a non-empty
// owner, Add reports ErrOwnershipConflict.
func (r *Registry) Add(command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.owner[command]; ok && owner != "" {
		return errors.Wrapf(ErrOwnershipConflict, "command %q", command)
	}
	r.owner[command] = ""
	return nil
}

// SetOwnership assigns peerID as the owner of command. command must already
// be registered (ErrUnknownCommand otherwise); reassigning to the same
// owner is a no-op, reassigning to a different owner when one is already
// set is ErrOwnershipConflict.
func (r *Registry) SetOwnership(command, peerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owner[command]
	if !ok {
		return errors.Wrapf(ErrUnknownCommand, "command %q", command)
	}
	if owner != "" && owner != peerID {
		return errors.Wrapf(ErrOwnershipConflict, "command %q: owned by %q, got %q", command, owner, peerID)
	}
	r.owner[command] = peerID
	log.Debugw("command ownership set", "command", command, "owner", peerID)
	return nil
}

// GetOwnership returns the current owner of command, or ErrUnknownCommand.
func (r *Registry) GetOwnership(command string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owner[command]
	if !ok {
		return "", errors.Wrapf(ErrUnknownCommand, "command %q", command)
	}
	return owner, nil
}

// Contains reports whether command is registered (owned or not).
func (r *Registry) Contains(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owner[command]
	return ok
}

// Commands returns the currently registered command names (test/debug
// hook; order is unspecified).
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.owner))
	for c := range r.owner {
		out = append(out, c)
	}
	return out
}
