package generator

// builtinTemplate renders a Model into the generated file. Consumers can
// replace it via Config.Template; the Model layout is the contract.
const builtinTemplate = `// Code generated by {{.Gen.Name}} {{.Gen.Version}}; DO NOT EDIT.

package {{.Package}}
{{- if .Imports}}

import (
{{- range .Imports}}
	{{with .Alias}}{{.}} {{end}}"{{.Path}}"
{{- end}}
)
{{- end}}
{{- range $t := .Targets}}

// {{$t.Partial}} mirrors {{$t.Name}} with every field optional.
type {{$t.Partial}}{{$t.Params}} struct {
{{- range $t.Fields}}
	{{.Name}} {{.Type}}{{with .Tag}} {{.}}{{end}}
{{- end}}
}

// {{$t.Constructor}} lifts a complete {{$t.Name}}, pointing every wrapped
// field at a copy of the source field.
func {{$t.Constructor}}{{$t.Params}}(src {{$t.Name}}{{$t.Args}}) {{$t.Partial}}{{$t.Args}} {
	return {{$t.Partial}}{{$t.Args}}{
{{- range $t.Fields}}
		{{.Name}}: {{if .Wrapped}}&{{end}}src.{{.Name}},
{{- end}}
	}
}

// Merge fills every absent field of p from other, keeping p's value when
// both are present.
func (p {{$t.Partial}}{{$t.Args}}) Merge(other {{$t.Partial}}{{$t.Args}}) {{$t.Partial}}{{$t.Args}} {
{{- range $t.Fields}}
	if p.{{.Name}} == nil {
		p.{{.Name}} = other.{{.Name}}
	}
{{- end}}
	return p
}

// {{$t.ToName}} materializes the complete {{$t.Name}}, failing on the first
// wrapped field that is absent.
func (p {{$t.Partial}}{{$t.Args}}) {{$t.ToName}}() ({{$t.Name}}{{$t.Args}}, error) {
	var dst {{$t.Name}}{{$t.Args}}
{{- range $t.Fields}}
{{- if .Wrapped}}
	if p.{{.Name}} == nil {
		return dst, &MissingFieldError{Type: "{{$t.Name}}", Field: "{{.Name}}"}
	}
	dst.{{.Name}} = *p.{{.Name}}
{{- else}}
	dst.{{.Name}} = p.{{.Name}}
{{- end}}
{{- end}}
	return dst, nil
}

// ApplyTo copies every present field of p onto dst, leaving absent fields
// untouched.
func (p {{$t.Partial}}{{$t.Args}}) ApplyTo(dst *{{$t.Name}}{{$t.Args}}) {
{{- range $t.Fields}}
	if p.{{.Name}} != nil {
		dst.{{.Name}} = {{if .Wrapped}}*{{end}}p.{{.Name}}
	}
{{- end}}
}
{{- if $t.Stringer}}

func (p {{$t.Partial}}{{$t.Args}}) String() string {
	var b strings.Builder
	b.WriteString("{{$t.Partial}}{")
{{- range $i, $f := $t.Fields}}
{{- if $i}}
	b.WriteString(", ")
{{- end}}
	if p.{{$f.Name}} != nil {
		fmt.Fprintf(&b, "{{$f.Name}}: %v", {{if $f.Wrapped}}*{{end}}p.{{$f.Name}})
	} else {
		b.WriteString("{{$f.Name}}: <nil>")
	}
{{- end}}
	b.WriteString("}")
	return b.String()
}
{{- end}}
{{- if $t.Clone}}

// Clone copies p, re-pointing pointer fields one level deep and copying
// slice and map fields.
func (p {{$t.Partial}}{{$t.Args}}) Clone() {{$t.Partial}}{{$t.Args}} {
	c := p
{{- range $t.Fields}}
{{- if eq .CloneOp "pointer"}}
	if p.{{.Name}} != nil {
		v := *p.{{.Name}}
		c.{{.Name}} = &v
	}
{{- else if eq .CloneOp "slice"}}
	c.{{.Name}} = slices.Clone(p.{{.Name}})
{{- else if eq .CloneOp "map"}}
	c.{{.Name}} = maps.Clone(p.{{.Name}})
{{- end}}
{{- end}}
	return c
}
{{- end}}
{{- range $t.Asserts}}

var _ {{.}} = {{$t.Partial}}{}
{{- end}}
{{- end}}
{{- if .MissingError}}

// MissingFieldError reports a wrapped field that was absent when a partial
// value was materialized into its complete type.
type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing field " + e.Type + "." + e.Field
}
{{- end}}
`
