package core

import (
	"context"
	"errors"
	"fmt"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/internal/logx"
	"pkt.systems/tabgrouper/schema"
)

// MinGroupSize is the smallest number of tabs that justifies a group.
const MinGroupSize = 2

// Engine groups tabs by domain and dissolves groups that became too small.
// It holds no tab or group state between invocations.
type Engine struct {
	surface TabSurface
	colors  ColorPicker
	logger  pslog.Logger
}

// GroupResult summarizes a GroupTabsByBaseURL invocation.
type GroupResult struct {
	RunID   string
	Created []schema.GroupID
	Reused  []schema.GroupID
	Skipped int
	Failed  int
}

// UngroupResult summarizes an UngroupIfNecessary invocation.
type UngroupResult struct {
	RunID     string
	Inspected int
	Dissolved []schema.GroupID
	Failed    int
}

// NewEngine constructs an engine over the supplied tab surface.
func NewEngine(deps EngineDeps) (*Engine, error) {
	if deps.Surface == nil {
		return nil, errMissingSurface
	}
	if deps.Colors == nil {
		deps.Colors = RandomColor
	}
	return &Engine{
		surface: deps.Surface,
		colors:  deps.Colors,
		logger:  deps.Logger,
	}, nil
}

// GroupTabsByBaseURL ensures every window/domain partition with at least
// MinGroupSize tabs lives in one group labeled with the domain. An existing
// group in the same window with a matching label is reused; otherwise a new
// group is created with a random palette color.
//
// A failure to read the tab snapshot aborts the run. Failures while grouping
// a partition are logged and collected; the remaining partitions still run.
func (e *Engine) GroupTabsByBaseURL(ctx context.Context) (GroupResult, error) {
	ctx, runID := e.runContext(ctx)
	log := logx.Ctx(ctx)
	result := GroupResult{RunID: runID}

	tabs, err := e.surface.QueryTabs(ctx, schema.TabQuery{})
	if err != nil {
		log.Warn("group query tabs failed", "err", err)
		return result, fmt.Errorf("query tabs: %w", err)
	}
	partition := BuildPartition(ctx, tabs)
	log.Debug("group partition built", "tabs", len(tabs), "windows", len(partition))

	var errs []error
	for _, windowID := range partition.Windows() {
		for _, key := range partition.Keys(windowID) {
			tabIDs := partition[windowID][key]
			if len(tabIDs) < MinGroupSize {
				result.Skipped++
				continue
			}
			plog := logx.WithPartition(log, windowID, key)
			groupID, created, err := e.groupPartition(ctx, windowID, key, tabIDs)
			if err != nil {
				plog.Warn("group partition failed", "tabs", len(tabIDs), "err", err)
				result.Failed++
				errs = append(errs, err)
				continue
			}
			if created {
				result.Created = append(result.Created, groupID)
				plog.Info("group created", "group", groupID, "tabs", len(tabIDs))
			} else {
				result.Reused = append(result.Reused, groupID)
				plog.Debug("group reused", "group", groupID, "tabs", len(tabIDs))
			}
		}
	}
	return result, errors.Join(errs...)
}

func (e *Engine) groupPartition(ctx context.Context, windowID schema.WindowID, key schema.GroupingKey, tabIDs []schema.TabID) (schema.GroupID, bool, error) {
	label := string(key)
	existing, err := e.surface.QueryGroups(ctx, schema.GroupQuery{
		WindowID: schema.InWindow(windowID),
		Label:    schema.WithLabel(label),
	})
	if err != nil {
		return "", false, &PartitionError{WindowID: windowID, Key: key, Op: "query groups", Err: err}
	}
	if len(existing) > 0 {
		// Duplicate labels are not prevented; the host's first group wins.
		groupID := existing[0].ID
		if err := e.surface.AddTabsToGroup(ctx, tabIDs, groupID); err != nil {
			return "", false, &PartitionError{WindowID: windowID, Key: key, Op: "add tabs", Err: err}
		}
		return groupID, false, nil
	}
	groupID, err := e.surface.CreateGroup(ctx, tabIDs, windowID)
	if err != nil {
		return "", false, &PartitionError{WindowID: windowID, Key: key, Op: "create group", Err: err}
	}
	color := e.colors()
	if err := e.surface.UpdateGroup(ctx, groupID, schema.GroupUpdate{Label: &label, Color: &color}); err != nil {
		return groupID, true, &PartitionError{WindowID: windowID, Key: key, Op: "update group", Err: err}
	}
	return groupID, true, nil
}

// UngroupIfNecessary dissolves every group with fewer than MinGroupSize
// members by ungrouping whatever members remain. Groups are handled
// independently; a failure on one group does not stop the others.
func (e *Engine) UngroupIfNecessary(ctx context.Context) (UngroupResult, error) {
	ctx, runID := e.runContext(ctx)
	log := logx.Ctx(ctx)
	result := UngroupResult{RunID: runID}

	groups, err := e.surface.QueryGroups(ctx, schema.GroupQuery{})
	if err != nil {
		log.Warn("ungroup query groups failed", "err", err)
		return result, fmt.Errorf("query groups: %w", err)
	}

	var errs []error
	for _, group := range groups {
		result.Inspected++
		glog := logx.WithGroup(log, group)
		members, err := e.surface.QueryTabs(ctx, schema.TabQuery{GroupID: group.ID})
		if err != nil {
			glog.Warn("ungroup query members failed", "err", err)
			result.Failed++
			errs = append(errs, &GroupError{GroupID: group.ID, Op: "query members", Err: err})
			continue
		}
		if len(members) >= MinGroupSize {
			continue
		}
		if err := e.surface.UngroupTabs(ctx, schema.TabIDs(members)); err != nil {
			glog.Warn("ungroup failed", "members", len(members), "err", err)
			result.Failed++
			errs = append(errs, &GroupError{GroupID: group.ID, Op: "ungroup", Err: err})
			continue
		}
		glog.Info("group dissolved", "members", len(members))
		result.Dissolved = append(result.Dissolved, group.ID)
	}
	return result, errors.Join(errs...)
}

// runContext reuses a run already carried by ctx so passes started under
// StartRun log under one id.
func (e *Engine) runContext(ctx context.Context) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if runID := logx.RunID(ctx); runID != "" {
		return ctx, runID
	}
	return StartRun(ctx, e.logger)
}

// StartRun tags ctx and its logger with a fresh run id. A nil logger keeps
// the one already on ctx.
func StartRun(ctx context.Context, logger pslog.Logger) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger != nil {
		ctx = pslog.ContextWithLogger(ctx, logger)
	}
	runID := newRunID()
	return logx.ContextWithRunLogger(ctx, logx.WithRun(ctx, runID), runID), runID
}
