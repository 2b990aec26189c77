package softgl

import (
	"fmt"
	"strings"

	"github.com/go-theft-auto/texquad"
)

// link validates the attached pair and assigns locations to the active
// attributes and uniforms. Declarations that are never referenced are
// inactive and get no location, like a real driver optimizing them out.
func (d *Device) link(p *program) {
	p.linked = false
	p.attribs = nil
	p.uniforms = nil
	p.byLoc = nil

	var vs, fs *shader
	var errs []string
	for _, id := range p.shaders {
		s, ok := d.shaders[id]
		if !ok {
			continue
		}
		if !s.compiled {
			errs = append(errs, fmt.Sprintf("error: %s shader %d is not compiled", s.kind, id))
			continue
		}
		switch s.kind {
		case texquad.VertexShader:
			if vs != nil {
				errs = append(errs, "error: more than one vertex shader attached")
			}
			vs = s
		case texquad.FragmentShader:
			if fs != nil {
				errs = append(errs, "error: more than one fragment shader attached")
			}
			fs = s
		}
	}
	if vs == nil {
		errs = append(errs, "error: no vertex shader attached")
	}
	if fs == nil {
		errs = append(errs, "error: no fragment shader attached")
	}
	if len(errs) > 0 {
		p.log = strings.Join(errs, "\n")
		return
	}

	if vs.unit.version != fs.unit.version {
		errs = append(errs, fmt.Sprintf("error: vertex shader version %d does not match fragment shader version %d",
			vs.unit.version, fs.unit.version))
	}

	outputs := make(map[string]decl)
	for _, o := range vs.unit.outputs(true) {
		outputs[o.name] = o
	}
	for _, in := range fs.unit.inputs(true) {
		out, ok := outputs[in.name]
		if !ok {
			if fs.unit.referenced(in.name) {
				errs = append(errs, fmt.Sprintf("error: fragment shader input `%s' has no matching output in the previous stage", in.name))
			}
			continue
		}
		if out.typ != in.typ {
			errs = append(errs, fmt.Sprintf("error: `%s' declared as type `%s' and `%s'", in.name, out.typ, in.typ))
		}
	}

	uniformTypes := make(map[string]string)
	var uniformOrder []string
	for _, u := range []*unit{vs.unit, fs.unit} {
		for _, ud := range u.uniforms() {
			if typ, ok := uniformTypes[ud.name]; ok {
				if typ != ud.typ {
					errs = append(errs, fmt.Sprintf("error: uniform `%s' declared as type `%s' and `%s'", ud.name, typ, ud.typ))
				}
				continue
			}
			uniformTypes[ud.name] = ud.typ
			uniformOrder = append(uniformOrder, ud.name)
		}
	}

	if len(errs) > 0 {
		p.log = strings.Join(errs, "\n")
		return
	}

	p.attribs = make(map[string]int32)
	used := make(map[int32]bool)
	var implicit []decl
	for _, in := range vs.unit.inputs(false) {
		if !vs.unit.referenced(in.name) {
			continue
		}
		if in.location >= 0 {
			p.attribs[in.name] = int32(in.location)
			used[int32(in.location)] = true
			continue
		}
		implicit = append(implicit, in)
	}
	next := int32(0)
	for _, in := range implicit {
		for used[next] {
			next++
		}
		p.attribs[in.name] = next
		used[next] = true
	}

	p.uniforms = make(map[string]*uniform)
	p.byLoc = make(map[int32]*uniform)
	loc := int32(0)
	for _, name := range uniformOrder {
		if !vs.unit.referenced(name) && !fs.unit.referenced(name) {
			continue
		}
		u := &uniform{name: name, typ: uniformTypes[name], location: loc}
		p.uniforms[name] = u
		p.byLoc[loc] = u
		loc++
	}

	p.log = ""
	p.linked = true
}
