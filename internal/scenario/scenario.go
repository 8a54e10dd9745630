// Package scenario loads yaml tab sets into an in-memory host and runs the
// grouping engines over them.
package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/core"
	"pkt.systems/tabgrouper/internal/memhost"
	"pkt.systems/tabgrouper/schema"
)

// Scenario is a browser state: tabs plus optional pre-existing groups.
// Tabs reference groups by id; a referenced group that is not declared is
// created unlabeled.
type Scenario struct {
	Tabs   []schema.Tab   `yaml:"tabs"`
	Groups []schema.Group `yaml:"groups,omitempty"`
}

// Report is the outcome of Run.
type Report struct {
	RunID     string                  `yaml:"run,omitempty"`
	Created   []schema.GroupID        `yaml:"created,omitempty"`
	Reused    []schema.GroupID        `yaml:"reused,omitempty"`
	Dissolved []schema.GroupID        `yaml:"dissolved,omitempty"`
	Failed    int                     `yaml:"failed,omitempty"`
	Windows   []schema.WindowSnapshot `yaml:"windows"`
}

// Load reads a scenario file.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	sc, err := Parse(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a yaml scenario. Unknown fields are rejected.
func Parse(data []byte) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, err
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks ids, colors and group membership.
func (s Scenario) Validate() error {
	tabIDs := map[schema.TabID]struct{}{}
	for i, tab := range s.Tabs {
		if tab.ID == "" {
			continue
		}
		if _, dup := tabIDs[tab.ID]; dup {
			return fmt.Errorf("tabs[%d]: duplicate tab id %q", i, tab.ID)
		}
		tabIDs[tab.ID] = struct{}{}
	}
	declared := map[schema.GroupID]schema.Group{}
	for i, group := range s.Groups {
		if group.ID == "" {
			return fmt.Errorf("groups[%d]: id is required", i)
		}
		if _, dup := declared[group.ID]; dup {
			return fmt.Errorf("groups[%d]: duplicate group id %q", i, group.ID)
		}
		if group.Color != "" {
			if _, err := schema.NormalizeColor(string(group.Color)); err != nil {
				return fmt.Errorf("groups[%d]: %w", i, err)
			}
		}
		declared[group.ID] = group
	}
	members := map[schema.GroupID]int{}
	for i, tab := range s.Tabs {
		if tab.GroupID == "" {
			continue
		}
		if group, ok := declared[tab.GroupID]; ok && group.WindowID != tab.WindowID {
			return fmt.Errorf("tabs[%d]: group %q is in window %d, tab is in window %d: %w", i, tab.GroupID, group.WindowID, tab.WindowID, schema.ErrWindowMismatch)
		}
		members[tab.GroupID]++
	}
	for _, group := range s.Groups {
		if members[group.ID] == 0 {
			return fmt.Errorf("group %q has no tabs: %w", group.ID, schema.ErrNoTabs)
		}
	}
	return nil
}

// Seed inserts the scenario into host without emitting events.
func (s Scenario) Seed(host *memhost.Host) error {
	declared := map[schema.GroupID]bool{}
	for _, group := range s.Groups {
		declared[group.ID] = true
	}
	members := map[schema.GroupID][]schema.TabID{}
	for _, tab := range s.Tabs {
		groupID := tab.GroupID
		if declared[groupID] {
			tab.GroupID = ""
		}
		seeded := host.Seed(tab)
		if declared[groupID] {
			members[groupID] = append(members[groupID], seeded.ID)
		}
	}
	for _, group := range s.Groups {
		if err := host.SeedGroup(group, members[group.ID]); err != nil {
			return fmt.Errorf("seed group %s: %w", group.ID, err)
		}
	}
	return nil
}

// Run seeds a fresh memhost, runs a grouping pass followed by an ungrouping
// pass, and reports the resulting state.
func Run(ctx context.Context, s Scenario, colors core.ColorPicker) (Report, error) {
	host := memhost.New()
	if err := s.Seed(host); err != nil {
		return Report{}, err
	}
	engine, err := core.NewEngine(core.EngineDeps{
		Surface: host,
		Colors:  colors,
		Logger:  pslog.Ctx(ctx),
	})
	if err != nil {
		return Report{}, err
	}
	ctx, runID := core.StartRun(ctx, nil)
	grouped, groupErr := engine.GroupTabsByBaseURL(ctx)
	ungrouped, ungroupErr := engine.UngroupIfNecessary(ctx)
	report := Report{
		RunID:     runID,
		Created:   grouped.Created,
		Reused:    grouped.Reused,
		Dissolved: ungrouped.Dissolved,
		Failed:    grouped.Failed + ungrouped.Failed,
		Windows:   host.Snapshot(),
	}
	return report, errors.Join(groupErr, ungroupErr)
}
