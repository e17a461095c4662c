package engine

import (
	"sort"
	"time"

	"zebracli/internal/domain"
)

// ActivityTotal is the tracked time of one activity, in seconds.
type ActivityTotal struct {
	Activity domain.Activity
	Seconds  int64
}

// ProjectTotal groups activity totals under their project.
type ProjectTotal struct {
	ProjectKey domain.EntityKey
	Seconds    int64
	Activities []ActivityTotal
}

// ByProject sums completed frames per project and activity, largest first.
func ByProject(frames []domain.Frame) []ProjectTotal {
	index := map[domain.EntityKey]int{}
	var out []ProjectTotal
	for _, f := range completed(frames) {
		secs := seconds(f)
		i, ok := index[f.Activity.ProjectKey]
		if !ok {
			i = len(out)
			index[f.Activity.ProjectKey] = i
			out = append(out, ProjectTotal{ProjectKey: f.Activity.ProjectKey})
		}
		p := &out[i]
		p.Seconds += secs
		found := false
		for j := range p.Activities {
			if p.Activities[j].Activity.Key == f.Activity.Key {
				p.Activities[j].Seconds += secs
				found = true
				break
			}
		}
		if !found {
			p.Activities = append(p.Activities, ActivityTotal{Activity: f.Activity, Seconds: secs})
		}
	}
	for i := range out {
		acts := out[i].Activities
		sort.SliceStable(acts, func(a, b int) bool { return acts[a].Seconds > acts[b].Seconds })
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Seconds > out[b].Seconds })
	return out
}

// ByIssueKey splits each frame evenly across its distinct issue keys; the
// leftover seconds go to the first key. Frames without keys count under "".
func ByIssueKey(frames []domain.Frame) map[string]int64 {
	out := map[string]int64{}
	for _, f := range completed(frames) {
		secs := seconds(f)
		keys := f.UniqueIssueKeys()
		if len(keys) == 0 {
			out[""] += secs
			continue
		}
		n := int64(len(keys))
		share := secs / n
		for i, k := range keys {
			out[k] += share
			if i == 0 {
				out[k] += secs % n
			}
		}
	}
	return out
}

// ByDay sums completed frames per start day in loc, keyed YYYY-MM-DD.
func ByDay(frames []domain.Frame, loc *time.Location) map[string]int64 {
	if loc == nil {
		loc = time.UTC
	}
	out := map[string]int64{}
	for _, f := range completed(frames) {
		out[f.StartTime.In(loc).Format(domain.DateLayout)] += seconds(f)
	}
	return out
}

// SortedKeys returns the keys of a total map in ascending order.
func SortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func completed(frames []domain.Frame) []domain.Frame {
	out := make([]domain.Frame, 0, len(frames))
	for _, f := range frames {
		if !f.IsActive() {
			out = append(out, f)
		}
	}
	return out
}

func seconds(f domain.Frame) int64 {
	return int64(f.StopTime.Sub(f.StartTime) / time.Second)
}
