package main

import (
	"strconv"
	"time"

	suvclient "github.com/MrEthical07/suvclient"
	"github.com/MrEthical07/suvclient/format"
	"github.com/jedib0t/go-pretty/v6/table"
)

type violationTable struct {
	items []suvclient.Violation
	loc   *time.Location
}

func (violationTable) header() table.Row {
	return table.Row{"ID", "Time", "Dorm", "Student", "Class", "Period", "Reason", "Department", "Inspector", "Photo"}
}

func (t violationTable) rows() []table.Row {
	out := make([]table.Row, 0, len(t.items))
	for _, v := range t.items {
		photo := ""
		if v.HasPhoto() {
			photo = "yes"
		}
		out = append(out, table.Row{
			v.ID,
			format.DateTime(v.CreatedAt, t.loc),
			v.Dorm,
			v.StudentName,
			v.ClassName,
			v.Period,
			v.Reason,
			v.Department,
			v.Inspector,
			photo,
		})
	}
	return out
}

type accountTable struct {
	items []suvclient.Account
	loc   *time.Location
}

func (accountTable) header() table.Row {
	return table.Row{"ID", "Username", "Display name", "Role", "Created"}
}

func (t accountTable) rows() []table.Row {
	out := make([]table.Row, 0, len(t.items))
	for _, a := range t.items {
		out = append(out, table.Row{a.ID, a.Username, a.DisplayName, a.Role, format.Date(a.CreatedAt, t.loc)})
	}
	return out
}

type statsTable struct {
	stats *suvclient.Stats
}

func (statsTable) header() table.Row { return table.Row{"Today", "Total", "Users"} }

func (t statsTable) rows() []table.Row {
	return []table.Row{{t.stats.TodayCount, t.stats.TotalCount, t.stats.UserCount}}
}

type whoami struct {
	ID          int64     `json:"id" yaml:"id"`
	Username    string    `json:"username" yaml:"username"`
	DisplayName string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Role        string    `json:"role" yaml:"role"`
	ExpiresAt   time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

type whoamiTable struct {
	w   whoami
	loc *time.Location
}

func (whoamiTable) header() table.Row {
	return table.Row{"ID", "Username", "Display name", "Role", "Session expires"}
}

func (t whoamiTable) rows() []table.Row {
	expires := ""
	if !t.w.ExpiresAt.IsZero() {
		expires = format.DateTime(t.w.ExpiresAt, t.loc)
	}
	return []table.Row{{strconv.FormatInt(t.w.ID, 10), t.w.Username, t.w.DisplayName, t.w.Role, expires}}
}
