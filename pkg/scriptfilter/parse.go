// Package scriptfilter reads the structured output of script filters.
//
// Two encodings are accepted: a JSON document and an XML dialect. Both are
// normalized to the same domain.ScriptFilterResult so that callers never see
// which one a script used.
package scriptfilter

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/aretw0/arvis/pkg/domain"
)

// Parse decodes stdout of a script filter. Failures are *domain.ParseError
// carrying the raw output.
func Parse(stdout string) (domain.ScriptFilterResult, error) {
	trimmed := strings.TrimSpace(stdout)

	var (
		res domain.ScriptFilterResult
		err error
	)
	if strings.HasPrefix(trimmed, "<") {
		res, err = parseXML([]byte(trimmed))
	} else {
		res, err = parseJSON([]byte(trimmed))
	}
	if err != nil {
		return domain.ScriptFilterResult{}, &domain.ParseError{Raw: stdout, Err: err}
	}
	return res, nil
}

type jsonItem struct {
	domain.ScriptFilterItem
	// Mod is the singular spelling some scripts emit.
	Mod map[string]domain.Mod `json:"mod,omitempty"`
}

type jsonResult struct {
	Items     []jsonItem     `json:"items"`
	Variables map[string]any `json:"variables,omitempty"`
	Rerun     any            `json:"rerun,omitempty"`
}

func parseJSON(data []byte) (domain.ScriptFilterResult, error) {
	var raw jsonResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.ScriptFilterResult{}, err
	}
	return raw.normalize()
}

func (raw jsonResult) normalize() (domain.ScriptFilterResult, error) {
	res := domain.ScriptFilterResult{Items: make([]domain.ScriptFilterItem, 0, len(raw.Items))}
	for _, it := range raw.Items {
		item := it.ScriptFilterItem
		if len(item.Mods) == 0 && len(it.Mod) > 0 {
			item.Mods = it.Mod
		}
		res.Items = append(res.Items, item)
	}

	if len(raw.Variables) > 0 {
		res.Variables = make(map[string]string, len(raw.Variables))
		for k, v := range raw.Variables {
			res.Variables[k] = cast.ToString(v)
		}
	}

	if raw.Rerun != nil {
		rerun, err := cast.ToFloat64E(raw.Rerun)
		if err != nil {
			return domain.ScriptFilterResult{}, fmt.Errorf("invalid rerun %v: %w", raw.Rerun, err)
		}
		res.Rerun = rerun
	}
	return res, nil
}

type xmlText struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlMod struct {
	Key      string  `xml:"key,attr"`
	Valid    string  `xml:"valid,attr"`
	Arg      *string `xml:"arg,attr"`
	Subtitle *string `xml:"subtitle,attr"`
}

type xmlItem struct {
	UID          string    `xml:"uid,attr"`
	Arg          string    `xml:"arg,attr"`
	Valid        string    `xml:"valid,attr"`
	Autocomplete string    `xml:"autocomplete,attr"`
	Type         string    `xml:"type,attr"`
	ArgElem      *string   `xml:"arg"`
	Title        string    `xml:"title"`
	Subtitle     string    `xml:"subtitle"`
	Icon         *string   `xml:"icon"`
	QuicklookURL string    `xml:"quicklookurl"`
	Texts        []xmlText `xml:"text"`
	Mods         []xmlMod  `xml:"mod"`
}

type xmlVariable struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// xmlDocument covers both accepted roots: <output> wrapping <items>, and a bare <items>.
type xmlDocument struct {
	XMLName   xml.Name
	Wrapped   []xmlItem     `xml:"items>item"`
	Bare      []xmlItem     `xml:"item"`
	Variables []xmlVariable `xml:"variables>variable"`
	Rerun     string        `xml:"rerun"`
}

func parseXML(data []byte) (domain.ScriptFilterResult, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return domain.ScriptFilterResult{}, err
	}

	var items []xmlItem
	switch doc.XMLName.Local {
	case "output":
		items = doc.Wrapped
	case "items":
		items = doc.Bare
	default:
		return domain.ScriptFilterResult{}, fmt.Errorf("unexpected root element <%s>", doc.XMLName.Local)
	}

	res := domain.ScriptFilterResult{Items: make([]domain.ScriptFilterItem, 0, len(items))}
	for _, x := range items {
		item, err := x.toItem()
		if err != nil {
			return domain.ScriptFilterResult{}, err
		}
		res.Items = append(res.Items, item)
	}

	if len(doc.Variables) > 0 {
		res.Variables = make(map[string]string, len(doc.Variables))
		for _, v := range doc.Variables {
			res.Variables[v.Name] = v.Value
		}
	}

	if r := strings.TrimSpace(doc.Rerun); r != "" {
		rerun, err := cast.ToFloat64E(r)
		if err != nil {
			return domain.ScriptFilterResult{}, fmt.Errorf("invalid rerun %q: %w", r, err)
		}
		res.Rerun = rerun
	}
	return res, nil
}

func (x xmlItem) toItem() (domain.ScriptFilterItem, error) {
	item := domain.ScriptFilterItem{
		UID:          x.UID,
		Autocomplete: x.Autocomplete,
		Type:         x.Type,
		Title:        strings.TrimSpace(x.Title),
		Subtitle:     strings.TrimSpace(x.Subtitle),
		QuicklookURL: strings.TrimSpace(x.QuicklookURL),
	}

	switch {
	case x.Arg != "":
		item.Arg = x.Arg
	case x.ArgElem != nil:
		item.Arg = strings.TrimSpace(*x.ArgElem)
	}

	valid, err := parseBoolAttr(x.Valid)
	if err != nil {
		return item, err
	}
	item.Valid = valid

	if x.Icon != nil {
		item.Icon = &domain.Icon{Path: strings.TrimSpace(*x.Icon)}
	}

	for _, t := range x.Texts {
		if item.Text == nil {
			item.Text = &domain.ItemText{}
		}
		switch t.Type {
		case "largetype":
			item.Text.Largetype = t.Value
		default:
			item.Text.Copy = t.Value
		}
	}

	for _, m := range x.Mods {
		if m.Key == "" {
			continue
		}
		if item.Mods == nil {
			item.Mods = make(map[string]domain.Mod, len(x.Mods))
		}
		mod := domain.Mod{Subtitle: m.Subtitle}
		if m.Arg != nil {
			mod.Arg = *m.Arg
		}
		if mod.Valid, err = parseBoolAttr(m.Valid); err != nil {
			return item, err
		}
		item.Mods[m.Key] = mod
	}
	return item, nil
}

func parseBoolAttr(s string) (*bool, error) {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "yes":
		v = true
	case "no":
		v = false
	default:
		b, err := cast.ToBoolE(s)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean attribute %q", s)
		}
		v = b
	}
	return &v, nil
}
