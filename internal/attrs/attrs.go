// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package attrs

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/staranto/foundryctl/internal/config"
)

// Attr represents each of the keys to be included in the output. These are
// typically identified by the JSON:API attributes key, thus the name.
type Attr struct {
	// The JSON key to extract from the result JSON object.
	Key string `yaml:"key"`
	// Should this Attr be included in output or is it just intended for
	// filtering and sorting?
	Include bool `yaml:"include"`
	// The key to use in the output. Also the column title when output=text.
	OutputKey string `yaml:"outputKey"`
	// Transformation spec to apply to the output value.
	TransformSpec string `yaml:"transformSpec"`
}

var lengthRe = regexp.MustCompile(`-?\d+`)

// now is replaced in tests.
var now = time.Now

func (a *Attr) Transform(value interface{}) interface{} {

	// Only string values are transformed.
	result, ok := value.(string)
	if !ok {
		return value
	}

	switch {
	case strings.ContainsAny(a.TransformSpec, "hH"):
		// Humanize wins over timezone conversion.
		if t, err := time.Parse(time.RFC3339, result); err == nil {
			result = humanize.RelTime(t, now(), "ago", "from now")
		}
	case strings.ContainsAny(a.TransformSpec, "tT"):
		if tz := Timezone(); tz != "" {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				log.WithError(err).Warnf("unknown timezone %s", tz)
				break
			}
			t, err := time.Parse(time.RFC3339, result)
			if err != nil {
				log.Debugf("failed to parse time: %s", result)
				break
			}
			result = t.In(loc).Format("2006-01-02T15:04:05MST")
		}
	}

	// The last case transformation wins so that an attr spec can override a
	// global one. IOW... --attrs '*::U,name::l' will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Length-based transformation. The last number wins, same as case.
	if a.TransformSpec != "" {
		match := lengthRe.FindAllString(a.TransformSpec, -1)
		if len(match) != 0 {
			l, _ := strconv.Atoi(match[len(match)-1])
			abs := int(math.Abs(float64(l)))
			if len(result) > abs {
				if l < 0 {
					lr := abs/2 - 1
					if lr < 1 {
						lr = 1
					}
					result = result[0:lr] + ".." + result[len(result)-lr:]
				} else {
					result = result[:l]
				}
			}
		}
	}

	return result
}

// Timezone returns the zone used by the t transform: FOUNDRYCTL_TIMEZONE, then
// the config file timezone key, then TZ. Empty means leave times as UTC.
func Timezone() string {
	if tz := os.Getenv("FOUNDRYCTL_TIMEZONE"); tz != "" {
		return tz
	}
	if tz, _ := config.GetString("timezone", ""); tz != "" {
		return tz
	}
	return os.Getenv("TZ")
}

type AttrList []Attr

// Return a string representation of the AttrList. This should match the format
// of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Parse each spec from the --attrs flag and add it to the AttrList.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

	// Each spec is key[:outputKey[:transform]]. The output key defaults to the
	// last segment of the JSON key.
	specs := strings.Split(value, ",")
specloop:
	for _, spec := range specs {
		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")
		if len(fields) > 3 {
			return fmt.Errorf("invalid attr spec: %s", spec)
		}

		attr.Key = strings.TrimSpace(fields[jsonIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "" {
			return fmt.Errorf("empty key in attr spec: %s", spec)
		}

		if attr.Key == "*" {
			attr.Include = false
		}

		if len(fields) == 1 {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			if fields[outputIdx] != "" {
				attr.OutputKey = strings.TrimSpace(fields[outputIdx])
			} else {
				segments := strings.Split(attr.Key, ".")
				attr.OutputKey = segments[len(segments)-1]
			}
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// An attr that's already in the list (a command default or a double
		// entry) just takes the new OutputKey, Include and TransformSpec.
		for i := range *a {
			existing := (*a)[i].Key
			if existing == attr.Key || existing == "attributes."+attr.Key ||
				"."+existing == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		// A leading . works off the root of the resource object. Anything else
		// is relative to its attributes.
		if strings.HasPrefix(attr.Key, ".") {
			attr.Key = attr.Key[1:]
		} else if attr.Key != "*" {
			attr.Key = "attributes." + attr.Key
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec prepends the `*` transform spec to all attrs.
func (alist *AttrList) SetGlobalTransformSpec() error {
	spec := ""

	for a := range *alist {
		if (*alist)[a].Key == "*" {
			spec = (*alist)[a].TransformSpec
			break
		}
	}

	if spec == "" {
		return nil
	}

	for a := range *alist {
		if (*alist)[a].Key == "*" {
			continue
		}
		(*alist)[a].TransformSpec = spec + "," + (*alist)[a].TransformSpec
	}

	return nil
}

func (a *AttrList) Type() string {
	return "list"
}
