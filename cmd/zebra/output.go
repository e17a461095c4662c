package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"

	"zebracli/internal/domain"
)

const descriptionWidth = 40

var (
	activityStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	timeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// styled applies s only when stdout is a terminal.
func styled(s lipgloss.Style, text string) string {
	if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return s.Render(text)
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	return tw
}

func truncateDescription(s string) string {
	return truncate.StringWithTail(s, descriptionWidth, "…")
}

func activityLabel(a domain.Activity) string {
	if a.Alias != "" {
		return a.Name + " (" + a.Alias + ")"
	}
	return a.Name
}

func roleLabel(r *domain.Role, individual bool) string {
	switch {
	case individual:
		return "individual"
	case r == nil:
		return ""
	case r.Name != "":
		return r.Name
	default:
		return "#" + strconv.Itoa(r.ID)
	}
}

type frameView struct {
	UUID        string     `json:"uuid"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop,omitempty"`
	Project     string     `json:"project"`
	Activity    string     `json:"activity"`
	ActivityKey string     `json:"activity_key"`
	Role        string     `json:"role,omitempty"`
	Individual  bool       `json:"individual"`
	Description string     `json:"description"`
	Seconds     int64      `json:"seconds"`
}

func newFrameView(f domain.Frame, now time.Time, projects map[domain.EntityKey]string) frameView {
	return frameView{
		UUID:        f.UUID.Hex(),
		Start:       f.StartTime,
		Stop:        f.StopTime,
		Project:     projects[f.Activity.ProjectKey],
		Activity:    f.Activity.Name,
		ActivityKey: f.Activity.Key.String(),
		Role:        roleLabel(f.Role, false),
		Individual:  f.IsIndividual,
		Description: f.Description,
		Seconds:     int64(f.Duration(now) / time.Second),
	}
}

func renderFrames(views []frameView, loc *time.Location) {
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Start", "Stop", "Duration", "Project", "Activity", "Role", "Description"})
	for _, v := range views {
		stop := "running"
		if v.Stop != nil {
			stop = v.Stop.In(loc).Format(dateTimeLayout)
		}
		role := v.Role
		if v.Individual {
			role = "individual"
		}
		tw.AppendRow(table.Row{
			v.UUID,
			v.Start.In(loc).Format(dateTimeLayout),
			stop,
			formatDuration(time.Duration(v.Seconds) * time.Second),
			v.Project,
			v.Activity,
			role,
			truncateDescription(v.Description),
		})
	}
	tw.Render()
}

type timesheetView struct {
	UUID        string   `json:"uuid"`
	Date        string   `json:"date"`
	Hours       float64  `json:"hours"`
	Activity    string   `json:"activity"`
	ActivityKey string   `json:"activity_key"`
	ProjectKey  string   `json:"project_key"`
	Role        string   `json:"role,omitempty"`
	Individual  bool     `json:"individual"`
	Description string   `json:"description"`
	ZebraID     *int     `json:"zebra_id,omitempty"`
	Frames      []string `json:"frames"`
	DoNotSync   bool     `json:"do_not_sync"`
}

func newTimesheetView(ts domain.Timesheet) timesheetView {
	frames := make([]string, 0, len(ts.FrameUUIDs))
	for _, id := range ts.FrameUUIDs {
		frames = append(frames, id.Hex())
	}
	return timesheetView{
		UUID:        ts.UUID.Hex(),
		Date:        ts.Date.Format(domain.DateLayout),
		Hours:       ts.Time,
		Activity:    ts.Activity.Name,
		ActivityKey: ts.Activity.Key.String(),
		ProjectKey:  ts.Activity.ProjectKey.String(),
		Role:        roleLabel(ts.Role, false),
		Individual:  ts.IndividualAction,
		Description: ts.Description,
		ZebraID:     ts.ZebraID,
		Frames:      frames,
		DoNotSync:   ts.DoNotSync,
	}
}

func timesheetViews(list []domain.Timesheet) []timesheetView {
	out := make([]timesheetView, 0, len(list))
	for _, ts := range list {
		out = append(out, newTimesheetView(ts))
	}
	return out
}

func renderTimesheets(views []timesheetView) {
	tw := newTable()
	tw.AppendHeader(table.Row{"ID", "Date", "Hours", "Activity", "Role", "Description", "Zebra"})
	var total float64
	for _, v := range views {
		zebraID := "-"
		if v.ZebraID != nil {
			zebraID = strconv.Itoa(*v.ZebraID)
		}
		if v.DoNotSync {
			zebraID += " (no sync)"
		}
		role := v.Role
		if v.Individual {
			role = "individual"
		}
		tw.AppendRow(table.Row{v.UUID, v.Date, fmt.Sprintf("%.2f", v.Hours), v.Activity, role, truncateDescription(v.Description), zebraID})
		total += v.Hours
	}
	tw.AppendFooter(table.Row{"", "Total", fmt.Sprintf("%.2f", total)})
	tw.Render()
}
