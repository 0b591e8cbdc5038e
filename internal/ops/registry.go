/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupContent CommandGroup = "content" // split, reconcile, prune
	GroupIcons   CommandGroup = "icons"   // dedupe, fetch
	GroupSupport CommandGroup = "support" // version
)

// GroupTitles are the help headings for each group, in display order.
var GroupTitles = []struct {
	Group CommandGroup
	Title string
}{
	{GroupContent, "Content Commands:"},
	{GroupIcons, "Icon Commands:"},
	{GroupSupport, "Support Commands:"},
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
	// Destructive commands delete or rewrite site files outside dry-run.
	Destructive bool
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry creates an empty registry. Each root command owns one, so
// tests can build isolated command trees.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// Register adds a command to the registry and tags it with its cobra group.
func (r *Registry) Register(group CommandGroup, cmd *cobra.Command, destructive bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	registration := &CommandRegistration{
		Name:        name,
		Group:       group,
		Command:     cmd,
		Description: cmd.Short,
		Destructive: destructive,
	}
	cmd.GroupID = string(group)

	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)
	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns the commands in a group in registration order
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*CommandRegistration(nil), r.groupIndex[group]...)
}

// DestructiveCommands lists the names of commands that mutate site files, sorted
func (r *Registry) DestructiveCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for name, reg := range r.commands {
		if reg.Destructive {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ListGroups returns all command groups and their command counts
func (r *Registry) ListGroups() map[CommandGroup]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[CommandGroup]int)
	for group, commands := range r.groupIndex {
		result[group] = len(commands)
	}
	return result
}

// AddGroups declares every group on root so cobra renders grouped help.
func AddGroups(root *cobra.Command) {
	for _, g := range GroupTitles {
		root.AddGroup(&cobra.Group{ID: string(g.Group), Title: g.Title})
	}
}
