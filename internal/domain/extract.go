package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Payload is a decoded provider JSON object.
type Payload map[string]any

// Lookup walks a dotted path ("building.size.livingSize") through nested
// objects. Explicit JSON nulls count as absent.
func (p Payload) Lookup(path string) (any, bool) {
	var cur any = map[string]any(p)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// ContainerKind selects how the most recent entry of a history container is chosen.
type ContainerKind int

const (
	// KeyedByYear is an object keyed by year; the largest numeric year wins.
	KeyedByYear ContainerKind = iota
	// KeyedByDate is an object keyed by date; the latest parseable date wins.
	KeyedByDate
	// Listed is an array already ordered newest first.
	Listed
)

// Container describes a historical collection holding a field.
type Container struct {
	Path    string
	Kind    ContainerKind
	Aliases []string
	// KeyFallback uses the selected entry's key when no alias matches.
	KeyFallback bool
}

// FieldSpec lists where a canonical field may appear in a provider payload.
// Aliases are tried in order, primary name first, then containers in order.
type FieldSpec struct {
	Name       string
	Aliases    []string
	Containers []Container
}

func resolveField[T any](p Payload, f FieldSpec, conv func(any) (T, bool)) (T, bool) {
	for _, alias := range f.Aliases {
		if v, ok := p.Lookup(alias); ok {
			if out, ok := conv(v); ok {
				return out, true
			}
		}
	}
	for _, c := range f.Containers {
		entry, key, ok := c.latest(p)
		if !ok {
			continue
		}
		for _, alias := range c.Aliases {
			if v, ok := Payload(entry).Lookup(alias); ok {
				if out, ok := conv(v); ok {
					return out, true
				}
			}
		}
		if c.KeyFallback && key != "" {
			if out, ok := conv(key); ok {
				return out, true
			}
		}
	}
	var zero T
	return zero, false
}

// latest returns the most recent entry of the container and its key.
func (c Container) latest(p Payload) (map[string]any, string, bool) {
	raw, ok := p.Lookup(c.Path)
	if !ok {
		return nil, "", false
	}

	if c.Kind == Listed {
		list, ok := raw.([]any)
		if !ok || len(list) == 0 {
			return nil, "", false
		}
		entry, ok := list[0].(map[string]any)
		return entry, "", ok
	}

	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, "", false
	}

	var (
		bestKey   string
		bestValue int64
		found     bool
	)
	for k := range obj {
		var v int64
		switch c.Kind {
		case KeyedByYear:
			year, err := strconv.Atoi(strings.TrimSpace(k))
			if err != nil {
				continue
			}
			v = int64(year)
		case KeyedByDate:
			t, ok := ParseDate(k)
			if !ok {
				continue
			}
			v = t.Unix()
		}
		// Ties go to the lexically larger key so map order never matters.
		if !found || v > bestValue || (v == bestValue && k > bestKey) {
			bestKey, bestValue, found = k, v, true
		}
	}
	if !found {
		return nil, "", false
	}
	entry, ok := obj[bestKey].(map[string]any)
	return entry, bestKey, ok
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
}

// ParseDate parses the date formats seen in provider payloads.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toNumber accepts JSON numbers and numeric strings. Zero and non-finite
// values are absent.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		cleaned := strings.NewReplacer(",", "", "$", "").Replace(strings.TrimSpace(n))
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(v any) (int, bool) {
	f, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

func toText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	}
	return "", false
}

// Extraction pulls typed fields out of a payload and remembers which
// canonical fields could not be found.
type Extraction struct {
	payload Payload
	missing []string
}

// NewExtraction starts an extraction over p.
func NewExtraction(p Payload) *Extraction {
	return &Extraction{payload: p}
}

// Number resolves a numeric field.
func (e *Extraction) Number(f FieldSpec) *float64 {
	v, ok := resolveField(e.payload, f, toNumber)
	if !ok {
		e.missing = append(e.missing, f.Name)
		return nil
	}
	return &v
}

// Int resolves an integral field, rounding fractional values.
func (e *Extraction) Int(f FieldSpec) *int {
	v, ok := resolveField(e.payload, f, toInt)
	if !ok {
		e.missing = append(e.missing, f.Name)
		return nil
	}
	return &v
}

// Text resolves a string field.
func (e *Extraction) Text(f FieldSpec) string {
	v, ok := resolveField(e.payload, f, toText)
	if !ok {
		e.missing = append(e.missing, f.Name)
		return ""
	}
	return v
}

// OptionalNumber resolves an extended numeric field without reporting it
// as missing.
func (e *Extraction) OptionalNumber(f FieldSpec) *float64 {
	v, ok := resolveField(e.payload, f, toNumber)
	if !ok {
		return nil
	}
	return &v
}

// Raw returns the first present value among paths re-encoded as JSON.
// Extended fields are optional and never reported as missing.
func (e *Extraction) Raw(paths ...string) json.RawMessage {
	for _, path := range paths {
		v, ok := e.payload.Lookup(path)
		if !ok {
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		return data
	}
	return nil
}

// Missing returns canonical field names that were not found, in lookup order.
func (e *Extraction) Missing() []string {
	return e.missing
}
