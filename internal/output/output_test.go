// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/foundryctl/internal/attrs"
	"github.com/staranto/foundryctl/internal/config"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("FOUNDRYCTL_CFG", "/nonexistent/foundryctl.yaml")
	t.Setenv("FOUNDRYCTL_TIMEZONE", "")
	t.Setenv("TZ", "")
	config.Config = config.Type{}
}

func TestSortDataset(t *testing.T) {
	testData := []map[string]interface{}{
		{"name": "zebra", "count": 3.0, "model": "gpt-4o"},
		{"name": "Alpha", "count": 10.0, "model": "gpt-4o-mini"},
		{"name": "beta", "count": 2.0, "model": "gpt-4o"},
		{"name": "gamma", "model": "o1"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{"ascending by name ignores case", "name", []string{"Alpha", "beta", "gamma", "zebra"}},
		{"descending by name", "-name", []string{"zebra", "gamma", "beta", "Alpha"}},
		{"case sensitive", "!name", []string{"Alpha", "beta", "gamma", "zebra"}},
		{"numeric not lexical", "count", []string{"gamma", "beta", "zebra", "Alpha"}},
		{"descending numeric puts missing last", "-count", []string{"Alpha", "zebra", "beta", "gamma"}},
		{"multiple keys", "model,-count", []string{"zebra", "beta", "Alpha", "gamma"}},
		{"empty spec keeps order", "", []string{"zebra", "Alpha", "beta", "gamma"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]interface{}, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)

			got := make([]string, 0, len(data))
			for _, row := range data {
				got = append(got, row["name"].(string))
			}
			assert.Equal(t, tt.wantOrder, got)
		})
	}
}

func TestParseSortSpec(t *testing.T) {
	got := parseSortSpec("-!name, count,,-")
	assert.Equal(t, []sortKey{
		{name: "name", descending: true, caseSensitive: true},
		{name: "count"},
	}, got)
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		emptyVal []string
		want     string
	}{
		{"string", "hello", nil, "hello"},
		{"empty string custom", "", []string{"-"}, "-"},
		{"int", 42, nil, "42"},
		{"zero int is a value", 0, []string{"-"}, "0"},
		{"integral float", 120.0, nil, "120"},
		{"fractional float", 0.7, nil, "0.7"},
		{"bool false", false, nil, "false"},
		{"nil custom", nil, []string{"-"}, "-"},
		{"slice", []string{"a", "b"}, nil, `["a","b"]`},
		{"empty slice", []interface{}{}, []string{"-"}, "-"},
		{"map", map[string]int{"x": 1}, nil, `{"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterfaceToString(tt.value, tt.emptyVal...))
		})
	}
}

func TestNewTag(t *testing.T) {
	tests := []struct {
		name string
		h    string
		s    string
		want Tag
	}{
		{"simple attr", "", "attr,name", Tag{Kind: "attr", Name: "name"}},
		{"with holder", "usage", "attr,total", Tag{Kind: "attr", Name: "usage.total"}},
		{"with encoding", "", "attr,created-at,iso8601", Tag{Kind: "attr", Name: "created-at", Encoding: "iso8601"}},
		{"primary ignored", "", "primary,agents", Tag{}},
		{"empty string", "", "", Tag{}},
		{"only kind", "", "attr", Tag{Kind: "attr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTag(tt.h, tt.s))
		})
	}
}

func TestTag_Print(t *testing.T) {
	assert.Equal(t, "name", Tag{Name: "name"}.Print())
	assert.Equal(t, "created-at (iso8601)", Tag{Name: "created-at", Encoding: "iso8601"}.Print())
	assert.Equal(t, "tools", Tag{Name: "tools", Encoding: "omitempty"}.Print())
}

type usage struct {
	Prompt int `jsonapi:"attr,prompt"`
	Total  int `jsonapi:"attr,total"`
}

type schemaRow struct {
	ID        string     `jsonapi:"primary,runs"`
	Status    string     `jsonapi:"attr,status"`
	CreatedAt *time.Time `jsonapi:"attr,created-at,iso8601,omitempty"`
	Usage     *usage     `jsonapi:"attr,usage,omitempty"`
	Ignored   string
}

func TestDumpSchemaWalker(t *testing.T) {
	tags := DumpSchemaWalker("", reflect.TypeOf(schemaRow{}), 0)

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"status", "created-at", "usage", "usage.prompt", "usage.total"}, names)
}

func TestDumpSchema(t *testing.T) {
	var buf bytes.Buffer
	DumpSchema(&buf, "", reflect.TypeOf(&schemaRow{}))

	out := buf.String()
	assert.Contains(t, out, "Schema for schemaRow --")
	assert.Contains(t, out, "\n.id\n")
	assert.Contains(t, out, "created-at (iso8601)")
	assert.Less(t, strings.Index(out, "created-at"), strings.Index(out, "status"))
}

const runsDoc = `{"data":[
  {"type":"runs","id":"run_b","attributes":{"status":"completed","agent-id":"asst_1","created-at":"2024-03-02T10:00:00Z","tokens":120}},
  {"type":"runs","id":"run_a","attributes":{"status":"failed","agent-id":"asst_2","created-at":"2024-03-01T10:00:00Z","tokens":0}},
  {"type":"runs","id":"run_c","attributes":{"status":"completed","agent-id":"asst_1","created-at":"2024-03-03T10:00:00Z","tokens":80}}
]}`

func runAttrs(t *testing.T) attrs.AttrList {
	t.Helper()
	var al attrs.AttrList
	require.NoError(t, al.Set(".id,status,agent-id:agent,!tokens"))
	return al
}

func TestSpit_JSON(t *testing.T) {
	isolateConfig(t)

	var out bytes.Buffer
	err := Spit(*bytes.NewBufferString(runsDoc), runAttrs(t),
		Spec{Output: "json", Filter: "status=completed", Sort: "-tokens"}, "data", &out)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "run_b", rows[0]["id"])
	assert.Equal(t, "run_c", rows[1]["id"])
	assert.Equal(t, "asst_1", rows[0]["agent"])
	assert.NotContains(t, rows[0], "tokens", "hidden attrs are not emitted")
}

func TestSpit_YAML(t *testing.T) {
	isolateConfig(t)

	var out bytes.Buffer
	err := Spit(*bytes.NewBufferString(runsDoc), runAttrs(t),
		Spec{Output: "yaml", Sort: "id"}, "data", &out)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.String(), "- agent: asst_2\n"), out.String())
	assert.Contains(t, out.String(), "id: run_c")
}

func TestSpit_Raw(t *testing.T) {
	var out bytes.Buffer
	err := Spit(*bytes.NewBufferString(runsDoc), runAttrs(t), Spec{Output: "raw"}, "data", &out)
	require.NoError(t, err)
	assert.Equal(t, runsDoc, out.String())
}

func TestSpit_Text(t *testing.T) {
	isolateConfig(t)

	var out bytes.Buffer
	err := Spit(*bytes.NewBufferString(runsDoc), runAttrs(t),
		Spec{Output: "text", Titles: true, Sort: "id"}, "data", &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "id")
	assert.Contains(t, lines[0], "agent")
	assert.NotContains(t, lines[0], "tokens")
	assert.Contains(t, lines[1], "run_a")
	assert.Contains(t, lines[3], "run_c")
}

func TestSpit_UnknownFormat(t *testing.T) {
	isolateConfig(t)

	err := Spit(*bytes.NewBufferString(runsDoc), runAttrs(t), Spec{Output: "xml"}, "data", &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown output format")
}

func TestDumpExamples(t *testing.T) {
	var out bytes.Buffer
	DumpExamples(&out, [][2]string{{"foundryctl aq", "List agents"}})
	assert.Contains(t, out.String(), "foundryctl aq")
	assert.Contains(t, out.String(), "List agents")

	out.Reset()
	DumpExamples(&out, nil)
	assert.Empty(t, out.String())
}

func TestGetColors(t *testing.T) {
	isolateConfig(t)

	header, even, odd := getColors("colors")
	assert.Equal(t, "#f6be00", header)
	assert.Equal(t, "#ffffff", even)
	assert.Equal(t, "#00c8f0", odd)
}

func BenchmarkSortDataset(b *testing.B) {
	testData := []map[string]interface{}{
		{"name": "zebra", "count": 3.0},
		{"name": "alpha", "count": 1.0},
		{"name": "beta", "count": 2.0},
	}

	for i := 0; i < b.N; i++ {
		data := make([]map[string]interface{}, len(testData))
		copy(data, testData)
		SortDataset(data, "-count,name")
	}
}
