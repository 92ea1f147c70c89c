// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// ParseARM returns the parameters and outputs of an ARM deployment template,
// or the values of an ARM parameters file. Comments and trailing commas are
// allowed. JSON documents that are neither yield no params.
func ParseARM(src []byte) ([]*Param, error) {
	doc := jsonc.ToJSON(src)
	if !gjson.ValidBytes(doc) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(doc)

	schema := strings.ToLower(root.Get("$schema").String())
	switch {
	case strings.Contains(schema, "deploymentparameters"):
		return armParameterValues(root), nil
	case strings.Contains(schema, "deploymenttemplate"):
		return armTemplate(root), nil
	}
	return nil, nil
}

func armTemplate(root gjson.Result) []*Param {
	var params []*Param

	root.Get("parameters").ForEach(func(name, def gjson.Result) bool {
		p := &Param{
			Format:      FormatARM,
			Kind:        KindParameter,
			Name:        name.String(),
			Type:        def.Get("type").String(),
			Description: def.Get("metadata.description").String(),
		}
		if d := def.Get("defaultValue"); d.Exists() {
			p.Default = render(d)
		} else {
			p.Required = true
		}
		t := strings.ToLower(p.Type)
		p.Sensitive = t == "securestring" || t == "secureobject"
		params = append(params, p)
		return true
	})

	root.Get("outputs").ForEach(func(name, def gjson.Result) bool {
		params = append(params, &Param{
			Format:      FormatARM,
			Kind:        KindOutput,
			Name:        name.String(),
			Type:        def.Get("type").String(),
			Default:     render(def.Get("value")),
			Description: def.Get("metadata.description").String(),
		})
		return true
	})

	return params
}

func armParameterValues(root gjson.Result) []*Param {
	var params []*Param
	root.Get("parameters").ForEach(func(name, def gjson.Result) bool {
		p := &Param{Format: FormatARMParameters, Kind: KindValue, Name: name.String()}
		switch {
		case def.Get("value").Exists():
			p.Default = render(def.Get("value"))
		case def.Get("reference").Exists():
			p.Default = "keyvault:" + def.Get("reference.secretName").String()
			p.Sensitive = true
		}
		params = append(params, p)
		return true
	})
	return params
}

func render(v gjson.Result) string {
	if !v.Exists() {
		return ""
	}
	if v.Type == gjson.String {
		return v.String()
	}
	return gjson.Get(v.Raw, "@ugly").Raw
}
