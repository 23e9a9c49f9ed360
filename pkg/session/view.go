package session

import "github.com/aretw0/arvis/pkg/domain"

// Row is one visible result.
type Row struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	BundleID  string `json:"bundleId,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Kind      string `json:"kind"`
	Valid     bool   `json:"valid"`
	Largetype string `json:"largetype,omitempty"`

	item domain.Item
}

// Item returns the engine item behind the row.
func (r Row) Item() domain.Item { return r.item }

// View is a snapshot of the launcher window.
type View struct {
	Input     string `json:"input"`
	Rows      []Row  `json:"rows"`
	Selected  int    `json:"selected"`
	Busy      bool   `json:"busy"`
	Depth     int    `json:"depth"`
	Extension string `json:"extension,omitempty"`
}

func commandRow(cmd *domain.Command, icon string) Row {
	title := cmd.Title
	if title == "" {
		title = cmd.Command
	}
	return Row{
		Title:    title,
		Subtitle: cmd.Subtitle,
		BundleID: cmd.BundleID,
		Icon:     icon,
		Kind:     cmd.Kind().String(),
		Valid:    true,
		item:     cmd,
	}
}

func scriptFilterRow(it domain.ScriptFilterItem) Row {
	row := Row{
		Title:    it.Title,
		Subtitle: it.Subtitle,
		BundleID: it.BundleID,
		Kind:     it.Kind().String(),
		Valid:    it.IsValid(),
	}
	if it.Icon != nil {
		row.Icon = it.Icon.Path
	}
	if it.Text != nil {
		row.Largetype = it.Text.Largetype
	}
	c := it.Clone()
	row.item = &c
	return row
}

func pluginRow(it domain.PluginItem, icon string) Row {
	row := Row{
		Title:    it.Title,
		Subtitle: it.Subtitle,
		BundleID: it.BundleID,
		Icon:     icon,
		Kind:     domain.KindPluginItem.String(),
		Valid:    true,
	}
	if it.Icon != nil {
		row.Icon = it.Icon.Path
	}
	it.Actions = append([]domain.Action(nil), it.Actions...)
	row.item = &it
	return row
}

func (v View) clone() View {
	out := v
	out.Rows = append([]Row(nil), v.Rows...)
	return out
}
