package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"mvc-server/internal/component"
)

const componentImport = "mvc-server/internal/component"

var outputTemplate = template.Must(template.New("components").Funcs(template.FuncMap{
	"quote":     strconv.Quote,
	"quoteList": quoteList,
	"roleConst": roleConst,
}).Parse(`// Code generated by mvcgen. DO NOT EDIT.

package {{.Name}}

import (
{{- if .NeedsReflect}}
	"reflect"
{{end}}
	{{quote .ComponentImport}}
)

func init() {
{{- range .Components}}
	component.Register(component.Descriptor{
		Package: {{quote $.Dotted}},
		Name: {{quote .Name}},
		Role: component.{{roleConst .Role}},
{{- if .BeanName}}
		BeanName: {{quote .BeanName}},
{{- end}}
{{- if .Path}}
		Path: {{quote .Path}},
{{- end}}
{{- if .Implements}}
		Implements: []reflect.Type{ {{- range $i, $t := .Implements}}{{if $i}}, {{end}}reflect.TypeFor[{{$t}}](){{end -}} },
{{- end}}
		New: func() any { return &{{.Name}}{} },
{{- if .Routes}}
		Handlers: []component.HandlerMarker{
{{- range .Routes}}
			{Method: {{quote .Method}}, Path: {{quote .Path}}{{if .Params}}, Params: []string{ {{- quoteList .Params -}} }{{end}}},
{{- end}}
		},
{{- end}}
	})
{{- end}}
}
`))

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}

func roleConst(r component.Role) string {
	switch r {
	case component.RoleController:
		return "RoleController"
	case component.RoleService:
		return "RoleService"
	default:
		return "RoleNone"
	}
}

// Render produces the gofmt'ed registration file of pkg.
func Render(pkg Package) ([]byte, error) {
	needsReflect := false
	for _, c := range pkg.Components {
		if len(c.Implements) > 0 {
			needsReflect = true
		}
	}

	var buf bytes.Buffer
	err := outputTemplate.Execute(&buf, struct {
		Package
		NeedsReflect    bool
		ComponentImport string
	}{pkg, needsReflect, componentImport})
	if err != nil {
		return nil, err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", pkg.Dir, err)
	}
	return out, nil
}

// Generate scans dir and writes one registration file per package with
// components. Stale files in packages without components are removed.
func Generate(dir, base string) ([]string, error) {
	pkgs, err := ScanDir(dir, base)
	if err != nil {
		return nil, err
	}
	var written []string
	for _, pkg := range pkgs {
		target := filepath.Join(pkg.Dir, OutputFile)
		if len(pkg.Components) == 0 {
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return written, err
			}
			continue
		}
		src, err := Render(pkg)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(target, src, 0o644); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}
