package scriptfilter

import "github.com/aretw0/arvis/pkg/domain"

// ApplyMod returns a copy of item as it looks while mod is held. A row without
// an override for the combination loses its subtitle. The input is not modified.
func ApplyMod(item domain.ScriptFilterItem, mod domain.Modifier) domain.ScriptFilterItem {
	out := item.Clone()
	pressed := mod.Pressed()
	if pressed == domain.ModNormal {
		return out
	}

	override, ok := out.Mods[pressed]
	if !ok {
		out.Subtitle = ""
		return out
	}

	if override.Valid != nil {
		out.Valid = override.Valid
	}
	if override.Arg != nil {
		out.Arg = override.Arg
	}
	if override.Subtitle != nil {
		out.Subtitle = *override.Subtitle
	}
	if override.Icon != nil {
		out.Icon = override.Icon
	}
	if len(override.Variables) > 0 {
		merged := make(map[string]string, len(out.Variables)+len(override.Variables))
		for k, v := range out.Variables {
			merged[k] = v
		}
		for k, v := range override.Variables {
			merged[k] = v
		}
		out.Variables = merged
	}
	return out
}
