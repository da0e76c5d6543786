package api

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Known wire keys for a function record. Anything else is an error so that
// new metadata fields force a deliberate decision here instead of being
// silently dropped from comparisons.
var functionKeys = map[string]struct{}{
	"name":                {},
	"since":               {},
	"deprecated_since":    {},
	"return_type":         {},
	"parameters":          {},
	"method":              {},
	"fast":                {},
	"async":               {}, // pre-level-1 spelling of fast
	"can_fail":            {},
	"receives_channel_id": {},
}

var eventKeys = map[string]struct{}{
	"name":       {},
	"since":      {},
	"parameters": {},
}

// Decode parses a msgpack metadata dump into a Metadata snapshot.
//
// Decoding is strict per record: every function and event key must be one the
// model understands, name, return_type and parameters are required on
// functions, and since values must be non-negative. Top-level sections other
// than functions, ui_events, ui_options and version (types, error_types, ...)
// are tolerated and ignored, as are release fields beyond the api_* triple
// in the version block. Old archives
// that predate ui_events, ui_options or the version block decode to zero
// values for those sections.
func Decode(data []byte) (*Metadata, error) {
	var root any
	if err := msgpack.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse msgpack: %w", err)
	}
	top, ok := asMap(root)
	if !ok {
		return nil, fmt.Errorf("metadata root is %T, expected a map", root)
	}

	meta := &Metadata{}

	raw, ok := top["functions"]
	if !ok {
		return nil, fmt.Errorf("metadata has no functions section")
	}
	entries, ok := asSlice(raw)
	if !ok {
		return nil, fmt.Errorf("functions section is %T, expected an array", raw)
	}
	meta.Functions = make([]Function, 0, len(entries))
	for i, entry := range entries {
		fn, err := decodeFunction(entry, i)
		if err != nil {
			return nil, err
		}
		meta.Functions = append(meta.Functions, fn)
	}

	if raw, ok := top["ui_events"]; ok {
		entries, ok := asSlice(raw)
		if !ok {
			return nil, fmt.Errorf("ui_events section is %T, expected an array", raw)
		}
		meta.UIEvents = make([]UIEvent, 0, len(entries))
		for i, entry := range entries {
			ev, err := decodeUIEvent(entry, i)
			if err != nil {
				return nil, err
			}
			meta.UIEvents = append(meta.UIEvents, ev)
		}
	}

	if raw, ok := top["ui_options"]; ok {
		entries, ok := asSlice(raw)
		if !ok {
			return nil, fmt.Errorf("ui_options section is %T, expected an array", raw)
		}
		meta.UIOptions = make([]string, 0, len(entries))
		for i, entry := range entries {
			opt, ok := asString(entry)
			if !ok {
				return nil, fmt.Errorf("ui_options[%d] is %T, expected a string", i, entry)
			}
			meta.UIOptions = append(meta.UIOptions, opt)
		}
	}

	if raw, ok := top["version"]; ok {
		version, err := decodeVersion(raw)
		if err != nil {
			return nil, err
		}
		meta.Version = version
	}

	return meta, nil
}

func decodeFunction(v any, index int) (Function, error) {
	record, ok := asMap(v)
	if !ok {
		return Function{}, fmt.Errorf("functions[%d] is %T, expected a map", index, v)
	}

	name, _ := asString(record["name"])
	label := name
	if label == "" {
		label = fmt.Sprintf("functions[%d]", index)
	}

	for key := range record {
		if _, ok := functionKeys[key]; !ok {
			return Function{}, fmt.Errorf("function %s has unknown key %q", label, key)
		}
	}

	fn := Function{Name: name}
	if fn.Name == "" {
		return Function{}, fmt.Errorf("function %s has no name", label)
	}
	if fn.ReturnType, ok = asString(record["return_type"]); !ok {
		return Function{}, fmt.Errorf("function %s has no return_type", label)
	}
	params, ok := record["parameters"]
	if !ok {
		return Function{}, fmt.Errorf("function %s has no parameters", label)
	}
	var err error
	if fn.Parameters, err = decodeParameters(params, label); err != nil {
		return Function{}, err
	}

	if raw, ok := record["since"]; ok {
		since, ok := asInt(raw)
		if !ok {
			return Function{}, fmt.Errorf("function %s has non-integer since (%T)", label, raw)
		}
		if since < 0 {
			return Function{}, fmt.Errorf("function %s has negative since (%d)", label, since)
		}
		fn.Since = since
	}
	if raw, ok := record["deprecated_since"]; ok {
		since, ok := asInt(raw)
		if !ok {
			return Function{}, fmt.Errorf("function %s has non-integer deprecated_since (%T)", label, raw)
		}
		if since < 0 {
			return Function{}, fmt.Errorf("function %s has negative deprecated_since (%d)", label, since)
		}
		fn.DeprecatedSince = &since
	}

	fn.Method = asBool(record["method"])
	fn.Fast = asBool(record["fast"]) || asBool(record["async"])
	fn.CanFail = asBool(record["can_fail"])
	fn.ReceivesChannelID = asBool(record["receives_channel_id"])

	return fn, nil
}

func decodeUIEvent(v any, index int) (UIEvent, error) {
	record, ok := asMap(v)
	if !ok {
		return UIEvent{}, fmt.Errorf("ui_events[%d] is %T, expected a map", index, v)
	}

	name, _ := asString(record["name"])
	label := name
	if label == "" {
		label = fmt.Sprintf("ui_events[%d]", index)
	}

	for key := range record {
		if _, ok := eventKeys[key]; !ok {
			return UIEvent{}, fmt.Errorf("ui event %s has unknown key %q", label, key)
		}
	}

	ev := UIEvent{Name: name}
	if ev.Name == "" {
		return UIEvent{}, fmt.Errorf("ui event %s has no name", label)
	}
	params, ok := record["parameters"]
	if !ok {
		return UIEvent{}, fmt.Errorf("ui event %s has no parameters", label)
	}
	var err error
	if ev.Parameters, err = decodeParameters(params, label); err != nil {
		return UIEvent{}, err
	}
	if raw, ok := record["since"]; ok {
		since, ok := asInt(raw)
		if !ok {
			return UIEvent{}, fmt.Errorf("ui event %s has non-integer since (%T)", label, raw)
		}
		if since < 0 {
			return UIEvent{}, fmt.Errorf("ui event %s has negative since (%d)", label, since)
		}
		ev.Since = since
	}

	return ev, nil
}

// decodeParameters parses the wire form of a parameter list: an array of
// [type, name] pairs.
func decodeParameters(v any, owner string) ([]Parameter, error) {
	entries, ok := asSlice(v)
	if !ok {
		return nil, fmt.Errorf("%s parameters is %T, expected an array", owner, v)
	}
	params := make([]Parameter, 0, len(entries))
	for i, entry := range entries {
		pair, ok := asSlice(entry)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%s parameter %d is not a [type, name] pair", owner, i)
		}
		typ, ok := asString(pair[0])
		if !ok {
			return nil, fmt.Errorf("%s parameter %d has non-string type (%T)", owner, i, pair[0])
		}
		name, ok := asString(pair[1])
		if !ok {
			return nil, fmt.Errorf("%s parameter %d has non-string name (%T)", owner, i, pair[1])
		}
		params = append(params, Parameter{Type: typ, Name: name})
	}
	return params, nil
}

func decodeVersion(v any) (Version, error) {
	record, ok := asMap(v)
	if !ok {
		return Version{}, fmt.Errorf("version section is %T, expected a map", v)
	}
	version := Version{}
	if raw, ok := record["api_level"]; ok {
		level, ok := asInt(raw)
		if !ok {
			return Version{}, fmt.Errorf("version has non-integer api_level (%T)", raw)
		}
		version.APILevel = level
	}
	if raw, ok := record["api_compatible"]; ok {
		level, ok := asInt(raw)
		if !ok {
			return Version{}, fmt.Errorf("version has non-integer api_compatible (%T)", raw)
		}
		version.APICompatible = level
	}
	version.APIPrerelease = asBool(record["api_prerelease"])

	// Release fields ride along for reporting.
	version.Major, _ = asInt(record["major"])
	version.Minor, _ = asInt(record["minor"])
	version.Patch, _ = asInt(record["patch"])
	version.Prerelease = asBool(record["prerelease"])
	version.Build, _ = asString(record["build"])
	return version, nil
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// asString accepts both msgpack str and bin encodings; old dump tools emitted
// raw bytes for what are logically strings.
func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

// asInt converts any integer type the msgpack decoder produces. Sizes vary
// with the encoded width, so every width has to be handled.
func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int8:
		return int(x), true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case uint64:
		return int(x), true
	default:
		return 0, false
	}
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
