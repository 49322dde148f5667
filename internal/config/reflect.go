package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ConfigField represents metadata about a config field extracted from struct tags
type ConfigField struct {
	Key      string // e.g., "view.overscan"
	Default  string // default value as string
	Desc     string // description for help text
	Min      int
	Max      int
	HasMin   bool
	HasMax   bool
	Type     string // "string" or "int"
	Category string // e.g., "view", "filter"
}

var (
	fieldCache     []ConfigField
	fieldCacheOnce sync.Once
)

// configFields extracts all config fields from Config using reflection
func configFields() []ConfigField {
	fieldCacheOnce.Do(func() {
		var fields []ConfigField
		extractFields(reflect.TypeOf(Config{}), &fields)

		// Sort by key for consistent ordering
		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})
		fieldCache = fields
	})
	return fieldCache
}

// extractFields recursively extracts config fields from a struct
func extractFields(t reflect.Type, fields *[]ConfigField) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		configKey := field.Tag.Get("config")
		if configKey == "" {
			if field.Type.Kind() == reflect.Struct && field.Tag.Get("toml") != "" {
				extractFields(field.Type, fields)
			}
			continue
		}

		cf := ConfigField{
			Key:      configKey,
			Default:  field.Tag.Get("default"),
			Desc:     field.Tag.Get("desc"),
			Category: strings.Split(configKey, ".")[0],
		}
		if minStr, ok := field.Tag.Lookup("min"); ok {
			cf.Min, _ = strconv.Atoi(minStr)
			cf.HasMin = true
		}
		if maxStr, ok := field.Tag.Lookup("max"); ok {
			cf.Max, _ = strconv.Atoi(maxStr)
			cf.HasMax = true
		}

		switch field.Type.Kind() {
		case reflect.Int:
			cf.Type = "int"
		case reflect.String:
			cf.Type = "string"
		}

		*fields = append(*fields, cf)
	}
}

// findField finds a config field by key
func findField(key string) *ConfigField {
	key = normalizeKey(key)
	for _, f := range configFields() {
		if f.Key == key {
			return &f
		}
	}
	return nil
}

// normalizeKey handles key aliases
func normalizeKey(key string) string {
	aliases := map[string]string{
		"filter.debounce":   "filter.debounce_ms",
		"view.width":        "view.cell_width",
		"infer.sample":      "infer.sample_size",
		"push.database_url": "push.url",
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if normalized, ok := aliases[key]; ok {
		return normalized
	}
	return key
}

// lookup returns the settable field for key inside cfg.
func lookup(cfg *Config, key string) (reflect.Value, bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return reflect.Value{}, false
	}

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	// Find the nested struct by toml tag
	var nested reflect.Value
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == parts[0] {
			nested = v.Field(i)
			break
		}
	}
	if !nested.IsValid() || nested.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	// Find the actual field within the nested struct by config tag
	nt := nested.Type()
	for i := 0; i < nt.NumField(); i++ {
		if nt.Field(i).Tag.Get("config") == key {
			return nested.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// getFieldValue gets a field value from the config using reflection
func getFieldValue(cfg *Config, key string) (string, bool) {
	fv, ok := lookup(cfg, normalizeKey(key))
	if !ok {
		return "", false
	}
	switch fv.Kind() {
	case reflect.String:
		return fv.String(), true
	case reflect.Int:
		return strconv.FormatInt(fv.Int(), 10), true
	}
	return "", false
}

// setFieldValue sets a field value on the config using reflection
func setFieldValue(cfg *Config, key, value string) error {
	key = normalizeKey(key)

	field := findField(key)
	if field == nil {
		return fmt.Errorf("unknown config key: %s", key)
	}

	fv, ok := lookup(cfg, key)
	if !ok {
		return fmt.Errorf("field not found: %s", key)
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
		return nil

	case reflect.Int:
		intVal, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		if err := field.check(intVal); err != nil {
			return err
		}
		fv.SetInt(int64(intVal))
		return nil
	}

	return fmt.Errorf("field not found: %s", key)
}

func (f ConfigField) check(v int) error {
	if f.HasMin && v < f.Min {
		return fmt.Errorf("value %d is below minimum %d", v, f.Min)
	}
	if f.HasMax && v > f.Max {
		return fmt.Errorf("value %d exceeds maximum %d", v, f.Max)
	}
	return nil
}

// applyDefaults sets every field to its default tag.
func applyDefaults(cfg *Config) {
	for _, f := range configFields() {
		if f.Default == "" {
			continue
		}
		_ = setFieldValue(cfg, f.Key, f.Default)
	}
}

// resetInvalid puts integer fields outside their limits back to the default,
// so a hand-edited file cannot configure a zero chunk size or the like.
func resetInvalid(cfg *Config) []string {
	var reset []string
	for _, f := range configFields() {
		if f.Type != "int" {
			continue
		}
		fv, ok := lookup(cfg, f.Key)
		if !ok {
			continue
		}
		if f.check(int(fv.Int())) != nil {
			_ = setFieldValue(cfg, f.Key, f.Default)
			reset = append(reset, f.Key)
		}
	}
	return reset
}

// ListKeys returns all available config keys
func ListKeys() []string {
	fields := configFields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// GetFieldsByCategory returns config fields grouped by category
func GetFieldsByCategory() map[string][]ConfigField {
	result := make(map[string][]ConfigField)
	for _, f := range configFields() {
		result[f.Category] = append(result[f.Category], f)
	}
	return result
}

// GenerateHelpText generates help text for the config options
func GenerateHelpText() string {
	var sb strings.Builder

	byCategory := GetFieldsByCategory()

	categories := []struct {
		key   string
		title string
	}{
		{"view", "Grid"},
		{"parse", "Loading"},
		{"infer", "Type detection"},
		{"filter", "Filtering"},
		{"export", "Export"},
		{"push", "PostgreSQL push"},
	}

	for _, cat := range categories {
		fields, ok := byCategory[cat.key]
		if !ok || len(fields) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("  %s:\n", cat.title))
		for _, f := range fields {
			defaultStr := ""
			if f.Default != "" {
				defaultStr = fmt.Sprintf(" (default: %s)", f.Default)
			}
			sb.WriteString(fmt.Sprintf("    %-30s %s%s\n", f.Key, f.Desc, defaultStr))
		}
		sb.WriteString("\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
