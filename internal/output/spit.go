// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/foundryctl/internal/attrs"
	"github.com/staranto/foundryctl/internal/filters"
)

// Spec carries the output pipeline flags.
type Spec struct {
	Output string
	Filter string
	Sort   string
	Local  bool
	Color  bool
	Titles bool
}

// SpecFromCommand reads the common output flags from cmd.
func SpecFromCommand(cmd *cli.Command) Spec {
	return Spec{
		Output: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Local:  cmd.Bool("local"),
		Color:  cmd.Bool("color"),
		Titles: cmd.Bool("titles"),
	}
}

// SliceDiceSpit filters, transforms, sorts and renders raw per the command
// flags. parent is the gjson path of the row array inside raw, "data" for a
// JSON:API document.
func SliceDiceSpit(raw bytes.Buffer,
	al attrs.AttrList,
	cmd *cli.Command,
	parent string,
	w io.Writer) error {
	return Spit(raw, al, SpecFromCommand(cmd), parent, w)
}

// Spit is SliceDiceSpit with the flags already resolved.
func Spit(raw bytes.Buffer, al attrs.AttrList, spec Spec, parent string, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	if spec.Output == "raw" {
		_, err := w.Write(raw.Bytes())
		return err
	}

	doc := gjson.Parse(raw.String())
	if parent != "" {
		doc = doc.Get(parent)
	}

	rows := filters.FilterDataset(doc, al, spec.Filter)

	if spec.Local {
		for a := range al {
			al[a].TransformSpec += "t"
		}
	}

	for _, row := range rows {
		for _, attr := range al {
			if attr.TransformSpec != "" {
				row[attr.OutputKey] = attr.Transform(row[attr.OutputKey])
			}
		}
	}

	SortDataset(rows, spec.Sort)

	switch spec.Output {
	case "json":
		b, err := json.Marshal(visibleRows(rows, al))
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(visibleRows(rows, al))
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case "", "text":
		TableWriter(rows, al, spec, w)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", spec.Output)
	}
}

// visibleRows drops the hidden (!key) attrs, which are only fetched for
// filtering and sorting.
func visibleRows(rows []map[string]interface{}, al attrs.AttrList) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		out := make(map[string]interface{}, len(row))
		for _, attr := range al {
			if attr.Include {
				out[attr.OutputKey] = row[attr.OutputKey]
			}
		}
		result = append(result, out)
	}
	return result
}

// InterfaceToString converts a value to its display form. nil and empty
// strings render as emptyValue, "" by default.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	empty := ""
	if len(emptyValue) > 0 {
		empty = emptyValue[0]
	}

	if value == nil {
		return empty
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return empty
		}
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}

	rv := reflect.ValueOf(value)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.Len() == 0 {
		return empty
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}
