package scriptfilter

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/aretw0/arvis/pkg/domain"
)

// ErrorBundleID marks synthetic error rows.
const ErrorBundleID = "error"

// ExtractResults finds script filter documents embedded in arbitrary text, such
// as an error message that quotes a script's stderr. Only JSON objects with an
// "items" member count.
func ExtractResults(text string) []domain.ScriptFilterResult {
	var out []domain.ScriptFilterResult
	for i := 0; i < len(text); {
		start := strings.IndexByte(text[i:], '{')
		if start < 0 {
			break
		}
		start += i

		dec := json.NewDecoder(strings.NewReader(text[start:]))
		var head map[string]json.RawMessage
		if err := dec.Decode(&head); err != nil {
			i = start + 1
			continue
		}
		end := start + int(dec.InputOffset())

		if rawItems, ok := head["items"]; ok && len(rawItems) > 0 && rawItems[0] == '[' {
			if res, err := parseJSON([]byte(text[start:end])); err == nil {
				out = append(out, res)
				i = end
				continue
			}
		}
		i = start + 1
	}
	return out
}

// ExtractItems returns the rows of every document found by ExtractResults.
func ExtractItems(text string) []domain.ScriptFilterItem {
	var items []domain.ScriptFilterItem
	for _, res := range ExtractResults(text) {
		items = append(items, res.Items...)
	}
	return items
}

// ErrorItem builds the synthetic row shown for a failed script filter.
func ErrorItem(err error) domain.ScriptFilterItem {
	msg := err.Error()
	valid := false
	return domain.ScriptFilterItem{
		BundleID: ErrorBundleID,
		Valid:    &valid,
		Title:    errorTitle(err),
		Subtitle: msg,
		Text:     &domain.ItemText{Copy: msg, Largetype: msg},
	}
}

func errorTitle(err error) string {
	var (
		se *domain.ScriptError
		pe *domain.ParseError
	)
	switch {
	case errors.As(err, &pe):
		return "Script format error"
	case domain.IsTimeout(err):
		return "Script timeout"
	case errors.As(err, &se):
		return "Script error"
	default:
		return "Error"
	}
}
