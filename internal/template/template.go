// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/foundryctl/internal/hungarian"
)

// Formats.
const (
	FormatTerraform     = "terraform"
	FormatARM           = "arm"
	FormatARMParameters = "arm-parameters"
)

// Kinds.
const (
	KindVariable  = "variable"
	KindOutput    = "output"
	KindParameter = "parameter"
	KindValue     = "value"
)

// Param is one declared input or output.
type Param struct {
	ID          string `jsonapi:"primary,params"`
	File        string `jsonapi:"attr,file"`
	Format      string `jsonapi:"attr,format"`
	Kind        string `jsonapi:"attr,kind"`
	Name        string `jsonapi:"attr,name"`
	Type        string `jsonapi:"attr,type,omitempty"`
	Default     string `jsonapi:"attr,default,omitempty"`
	Description string `jsonapi:"attr,description,omitempty"`
	Required    bool   `jsonapi:"attr,required"`
	Sensitive   bool   `jsonapi:"attr,sensitive"`
	Hungarian   bool   `jsonapi:"attr,hungarian"`
}

func (p *Param) finish(rel string) {
	p.File = rel
	p.ID = fmt.Sprintf("%s#%s.%s", rel, p.Kind, p.Name)
	p.Hungarian = hungarian.IsHungarian(p.Type, p.Name)
}

var skipDirs = map[string]bool{".git": true, ".terraform": true, "node_modules": true}

// Scan walks dir and returns the params of every template found, ordered by
// file then declaration. A file that cannot be parsed is logged and skipped.
func Scan(dir string) ([]*Param, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".tf", ".json", ".jsonc":
			files = append(files, path)
		case ".bicep", ".bicepparam":
			log.Debugf("skipping bicep source %s", path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)

	var params []*Param
	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		src, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).Warnf("unable to read %s", rel)
			continue
		}

		var found []*Param
		if strings.EqualFold(filepath.Ext(path), ".tf") {
			found, err = ParseTerraform(src, rel)
		} else {
			found, err = ParseARM(src)
		}
		if err != nil {
			log.WithError(err).Warnf("unable to parse %s", rel)
			continue
		}

		for _, p := range found {
			p.finish(rel)
		}
		params = append(params, found...)
	}
	return params, nil
}
