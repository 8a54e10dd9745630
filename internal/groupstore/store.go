// Package groupstore keeps tab group bookkeeping for hosts that have no
// native tab-group support of their own.
package groupstore

import (
	"fmt"

	"github.com/google/uuid"

	"pkt.systems/tabgrouper/schema"
)

// Store tracks groups and their members in creation order.
// It is not safe for concurrent use; hosts serialize access.
type Store struct {
	order   []schema.GroupID
	groups  map[schema.GroupID]*entry
	members map[schema.TabID]schema.GroupID
	newID   func() schema.GroupID
}

type entry struct {
	group schema.Group
	tabs  []schema.TabID
}

// Option configures a Store.
type Option func(*Store)

// WithIDSource overrides group id allocation.
func WithIDSource(fn func() schema.GroupID) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs an empty Store. Group ids default to random UUIDs.
func New(opts ...Option) *Store {
	s := &Store{
		groups:  make(map[schema.GroupID]*entry),
		members: make(map[schema.TabID]schema.GroupID),
		newID: func() schema.GroupID {
			return schema.GroupID(uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create makes a new group in windowID and moves the tabs into it.
// Callers validate that the tabs exist and live in windowID.
func (s *Store) Create(windowID schema.WindowID, tabIDs []schema.TabID) (schema.GroupID, error) {
	ids, err := schema.NormalizeTabIDs(tabIDs)
	if err != nil {
		return "", err
	}
	id := s.newID()
	for {
		if _, exists := s.groups[id]; !exists {
			break
		}
		id = s.newID()
	}
	s.groups[id] = &entry{group: schema.Group{ID: id, WindowID: windowID, Color: schema.ColorGrey}}
	s.order = append(s.order, id)
	s.assign(id, ids)
	return id, nil
}

// Insert adds a group with a caller-chosen id and properties, moving the
// tabs into it. It fails when the id is taken.
func (s *Store) Insert(group schema.Group, tabIDs []schema.TabID) error {
	if group.ID == "" {
		return schema.ErrInvalidRequest
	}
	if _, exists := s.groups[group.ID]; exists {
		return fmt.Errorf("group %s: %w", group.ID, schema.ErrInvalidRequest)
	}
	ids, err := schema.NormalizeTabIDs(tabIDs)
	if err != nil {
		return err
	}
	if group.Color == "" {
		group.Color = schema.ColorGrey
	}
	color, err := schema.NormalizeColor(string(group.Color))
	if err != nil {
		return err
	}
	group.Color = color
	s.groups[group.ID] = &entry{group: group}
	s.order = append(s.order, group.ID)
	s.assign(group.ID, ids)
	return nil
}

// Add moves the tabs into an existing group.
func (s *Store) Add(groupID schema.GroupID, tabIDs []schema.TabID) error {
	if _, ok := s.groups[groupID]; !ok {
		return schema.ErrGroupNotFound
	}
	ids, err := schema.NormalizeTabIDs(tabIDs)
	if err != nil {
		return err
	}
	s.assign(groupID, ids)
	return nil
}

// Update applies label and color changes to a group.
func (s *Store) Update(groupID schema.GroupID, update schema.GroupUpdate) error {
	e, ok := s.groups[groupID]
	if !ok {
		return schema.ErrGroupNotFound
	}
	if update.Color != nil {
		color, err := schema.NormalizeColor(string(*update.Color))
		if err != nil {
			return err
		}
		e.group.Color = color
	}
	if update.Label != nil {
		e.group.Label = *update.Label
	}
	return nil
}

// Remove takes the tabs out of whatever group holds them. Groups left
// empty are dropped. Unknown or ungrouped tabs are ignored.
func (s *Store) Remove(tabIDs []schema.TabID) {
	for _, tabID := range tabIDs {
		s.detach(tabID)
	}
}

// GroupOf returns the group holding the tab, or "" when ungrouped.
func (s *Store) GroupOf(tabID schema.TabID) schema.GroupID {
	return s.members[tabID]
}

// Group returns a copy of the group.
func (s *Store) Group(groupID schema.GroupID) (schema.Group, bool) {
	e, ok := s.groups[groupID]
	if !ok {
		return schema.Group{}, false
	}
	return e.group, true
}

// Groups returns the groups matching the query in creation order.
func (s *Store) Groups(query schema.GroupQuery) []schema.Group {
	out := make([]schema.Group, 0, len(s.order))
	for _, id := range s.order {
		group := s.groups[id].group
		if query.Matches(group) {
			out = append(out, group)
		}
	}
	return out
}

// Members returns the tab ids of a group in the order they joined.
func (s *Store) Members(groupID schema.GroupID) []schema.TabID {
	e, ok := s.groups[groupID]
	if !ok {
		return nil
	}
	out := make([]schema.TabID, len(e.tabs))
	copy(out, e.tabs)
	return out
}

// Export lists every group with its members in creation order.
func (s *Store) Export() []schema.GroupSnapshot {
	out := make([]schema.GroupSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, schema.GroupSnapshot{Group: s.groups[id].group, Tabs: s.Members(id)})
	}
	return out
}

// Restore inserts exported groups, skipping any whose id is already taken
// or whose member list is empty. It returns how many groups were restored.
func (s *Store) Restore(snapshots []schema.GroupSnapshot) int {
	restored := 0
	for _, snap := range snapshots {
		if err := s.Insert(snap.Group, snap.Tabs); err != nil {
			continue
		}
		restored++
	}
	return restored
}

// Len returns the number of live groups.
func (s *Store) Len() int {
	return len(s.order)
}

func (s *Store) assign(groupID schema.GroupID, tabIDs []schema.TabID) {
	target := s.groups[groupID]
	for _, tabID := range tabIDs {
		if current, ok := s.members[tabID]; ok {
			if current == groupID {
				continue
			}
			s.detach(tabID)
		}
		s.members[tabID] = groupID
		target.tabs = append(target.tabs, tabID)
	}
}

func (s *Store) detach(tabID schema.TabID) {
	groupID, ok := s.members[tabID]
	if !ok {
		return
	}
	delete(s.members, tabID)
	e := s.groups[groupID]
	if e == nil {
		return
	}
	for i, id := range e.tabs {
		if id == tabID {
			e.tabs = append(e.tabs[:i], e.tabs[i+1:]...)
			break
		}
	}
	if len(e.tabs) == 0 {
		s.drop(groupID)
	}
}

func (s *Store) drop(groupID schema.GroupID) {
	delete(s.groups, groupID)
	for i, id := range s.order {
		if id == groupID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
