// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

// ParseTerraform returns the variable and output blocks of one .tf file.
func ParseTerraform(src []byte, filename string) ([]*Param, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}

	// Resources, locals and the rest are not of interest.
	content, _, diags := file.Body.PartialContent(rootSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	var params []*Param
	for _, block := range content.Blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			// Nested blocks such as validation are fine; take what parsed.
			attrs = partialAttributes(block.Body)
		}

		p := &Param{Format: FormatTerraform, Name: block.Labels[0]}
		switch block.Type {
		case "variable":
			p.Kind = KindVariable
			p.Type = sourceText(src, attrs["type"])
			if d, ok := attrs["default"]; ok {
				p.Default = renderValue(src, d)
			} else {
				p.Required = true
			}
		case "output":
			p.Kind = KindOutput
			p.Default = sourceText(src, attrs["value"])
		}
		p.Description = stringValue(attrs["description"])
		p.Sensitive = boolValue(attrs["sensitive"])
		params = append(params, p)
	}
	return params, nil
}

func partialAttributes(body hcl.Body) hcl.Attributes {
	sb, ok := body.(*hclsyntax.Body)
	if !ok {
		return hcl.Attributes{}
	}
	attrs := hcl.Attributes{}
	for name, a := range sb.Attributes {
		attrs[name] = a.AsHCLAttribute()
	}
	return attrs
}

func sourceText(src []byte, attr *hcl.Attribute) string {
	if attr == nil {
		return ""
	}
	return strings.TrimSpace(string(attr.Expr.Range().SliceBytes(src)))
}

// renderValue evaluates a literal default to JSON. Defaults that refer to
// anything are shown as written.
func renderValue(src []byte, attr *hcl.Attribute) string {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || !v.IsWhollyKnown() {
		return sourceText(src, attr)
	}
	if v.IsNull() {
		return "null"
	}
	if v.Type() == cty.String {
		return v.AsString()
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return sourceText(src, attr)
	}
	return string(b)
}

func stringValue(attr *hcl.Attribute) string {
	if attr == nil {
		return ""
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

func boolValue(attr *hcl.Attribute) bool {
	if attr == nil {
		return false
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() || v.Type() != cty.Bool {
		return false
	}
	return v.True()
}
