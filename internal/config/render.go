package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RenderDefaultTOML renders a TOML config with defaults from GetConfigOptions.
func RenderDefaultTOML() string {
	var b strings.Builder
	b.WriteString("# classkit configuration (TOML)\n")

	opts := GetConfigOptions()
	topLevel := make([]ConfigOption, 0, len(opts))
	sections := make(map[string][]ConfigOption)
	sectionOrder := make([]string, 0)

	for _, o := range opts {
		if !strings.Contains(o.Key, ".") {
			topLevel = append(topLevel, o)
			continue
		}
		parts := strings.SplitN(o.Key, ".", 2)
		section := parts[0]
		if _, ok := sections[section]; !ok {
			sectionOrder = append(sectionOrder, section)
		}
		sections[section] = append(sections[section], ConfigOption{
			Key:     parts[1],
			Default: o.Default,
			Comment: o.Comment,
		})
	}

	for _, o := range topLevel {
		writeTOMLOption(&b, o.Key, o.Default, o.Comment)
	}

	for _, section := range sectionOrder {
		opts := sections[section]
		if len(opts) == 0 {
			continue
		}
		b.WriteString("[" + section + "]\n")
		for _, o := range opts {
			writeTOMLOption(&b, o.Key, o.Default, o.Comment)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// UpdateTOML merges defaults into an existing TOML string and comments out unknown keys.
func UpdateTOML(existing string) (string, bool) {
	lines := strings.Split(existing, "\n")
	opts := GetConfigOptions()

	known := make(map[string]ConfigOption, len(opts))
	mapPrefixes := make(map[string]bool)
	for _, o := range opts {
		known[o.Key] = o
		if _, ok := o.Default.(map[string]any); ok {
			mapPrefixes[o.Key] = true
		}
	}

	existingKeys := make(map[string]bool)
	prefixSeen := make(map[string]bool)
	currentSection := ""
	out := make([]string, 0, len(lines))
	changed := false

	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") || strings.HasPrefix(trim, ";") {
			out = append(out, line)
			continue
		}
		if strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]") {
			currentSection = strings.TrimSpace(trim[1 : len(trim)-1])
			out = append(out, line)
			continue
		}
		key, ok := parseTOMLKey(line)
		if !ok {
			out = append(out, line)
			continue
		}
		fullKey := key
		if currentSection != "" {
			fullKey = currentSection + "." + key
		}
		existingKeys[fullKey] = true
		for prefix := range mapPrefixes {
			if fullKey == prefix || strings.HasPrefix(fullKey, prefix+".") {
				prefixSeen[prefix] = true
			}
		}
		if !isKnownKey(fullKey, known, mapPrefixes) {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+"# OUTDATED: option removed from config schema")
			out = append(out, indent+"# "+strings.TrimLeft(line, " \t"))
			changed = true
			continue
		}
		out = append(out, line)
	}

	missingTop := make([]ConfigOption, 0)
	missingSections := make(map[string][]ConfigOption)
	sectionOrder := make([]string, 0)
	for _, o := range opts {
		if _, ok := o.Default.(map[string]any); ok {
			if prefixSeen[o.Key] {
				continue
			}
		} else if existingKeys[o.Key] {
			continue
		}
		if strings.Contains(o.Key, ".") {
			parts := strings.SplitN(o.Key, ".", 2)
			section := parts[0]
			if _, ok := missingSections[section]; !ok {
				sectionOrder = append(sectionOrder, section)
			}
			missingSections[section] = append(missingSections[section], ConfigOption{
				Key:     parts[1],
				Default: o.Default,
				Comment: o.Comment,
			})
		} else {
			missingTop = append(missingTop, o)
		}
	}

	if len(missingTop) > 0 {
		// top-level keys must precede the first table header
		at := len(out)
		for i, line := range out {
			trim := strings.TrimSpace(line)
			if strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]") {
				at = i
				break
			}
		}
		added := []string{"# Added by config update"}
		for _, o := range missingTop {
			writeTOMLOptionLines(&added, o.Key, o.Default, o.Comment)
		}
		out = append(out[:at], append(added, out[at:]...)...)
		changed = true
	}
	for _, section := range sectionOrder {
		opts := missingSections[section]
		if len(opts) == 0 {
			continue
		}
		added := []string{"# Added by config update"}
		for _, o := range opts {
			writeTOMLOptionLines(&added, o.Key, o.Default, o.Comment)
		}
		if at := sectionHeaderIndex(out, section); at >= 0 {
			// extend the existing table instead of redeclaring it
			out = append(out[:at+1], append(added, out[at+1:]...)...)
		} else {
			out = append(out, "", "["+section+"]")
			out = append(out, added[1:]...)
		}
		changed = true
	}

	return strings.Join(out, "\n"), changed
}

func sectionHeaderIndex(lines []string, section string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == "["+section+"]" {
			return i
		}
	}
	return -1
}

func parseTOMLKey(line string) (string, bool) {
	idx := strings.Index(line, "=")
	if idx == -1 {
		return "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.HasPrefix(key, "[") {
		return "", false
	}
	if strings.HasPrefix(key, "\"") || strings.HasPrefix(key, "'") {
		return "", false
	}
	return key, true
}

func isKnownKey(key string, known map[string]ConfigOption, prefixes map[string]bool) bool {
	if _, ok := known[key]; ok {
		return true
	}
	for prefix := range prefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

func writeTOMLOption(b *strings.Builder, key string, value any, comment string) {
	if comment != "" {
		b.WriteString("# " + comment + "\n")
	}
	b.WriteString(key + " = " + formatTOMLValue(value) + "\n\n")
}

func writeTOMLOptionLines(lines *[]string, key string, value any, comment string) {
	if comment != "" {
		*lines = append(*lines, "# "+comment)
	}
	*lines = append(*lines, key+" = "+formatTOMLValue(value), "")
}

// formatTOMLValue renders the value kinds used by GetConfigOptions.
func formatTOMLValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool, int, int64:
		return fmt.Sprintf("%v", v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s = %q", k, fmt.Sprint(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}
