package dbg

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/wdbg/stabs"
)

// Dump renders everything the builder has accumulated as text. The
// output is deterministic: units in decode order, types sorted by
// name.
func (b *Builder) Dump() string {
	var sb strings.Builder
	b.Fprint(&sb)
	return sb.String()
}

func (b *Builder) Fprint(w io.Writer) {
	p := &printer{w: w, seen: make(map[*TypeNode]bool)}
	for _, u := range b.units {
		p.unit(u)
	}
	if len(b.tagged) > 0 {
		fmt.Fprintf(w, "types:\n")
		names := maps.Keys(b.tagged)
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s = %s\n", name, p.typeString(b.tagged[name].To, 0))
		}
	}
	for _, cb := range b.commons {
		fmt.Fprintf(w, "common %s:\n", cb.Name)
		for _, v := range cb.Vars {
			p.variable(v, "  ")
		}
	}
}

type printer struct {
	w    io.Writer
	seen map[*TypeNode]bool
}

func (p *printer) unit(u *Unit) {
	fmt.Fprintf(p.w, "unit %s:\n", u.Name)
	for _, c := range u.Constants {
		if c.IsInt {
			fmt.Fprintf(p.w, "  const %s = %d\n", c.Name, c.Int)
		} else {
			fmt.Fprintf(p.w, "  const %s = %g\n", c.Name, c.Float)
		}
	}
	for _, v := range u.Variables {
		p.variable(v, "  ")
	}
	for _, fn := range u.Functions {
		p.function(fn)
	}
	for _, s := range u.Sources {
		if len(s.Lines) == 0 {
			continue
		}
		fmt.Fprintf(p.w, "  lines %s:", s.Name)
		for _, l := range s.Lines {
			fmt.Fprintf(p.w, " %d:%#x", l.Line, l.Addr)
		}
		fmt.Fprintln(p.w)
	}
}

func (p *printer) function(fn *Function) {
	linkage := "static"
	if fn.Global {
		linkage = "global"
	}
	fmt.Fprintf(p.w, "  func %s %s %s [%#x, %#x)\n",
		linkage, p.typeString(fn.ReturnType, 0), fn.Name, fn.Addr, fn.EndAddr)
	for _, par := range fn.Params {
		fmt.Fprintf(p.w, "    param %s %s %s @ %#x\n",
			paramKindString(par.Kind), p.typeString(par.Type, 0), par.Name, par.Val)
	}
	if fn.Body != nil {
		p.block(fn.Body, "    ")
	}
}

func (p *printer) block(blk *Block, indent string) {
	for _, v := range blk.Vars {
		p.variable(v, indent)
	}
	for _, child := range blk.Children {
		fmt.Fprintf(p.w, "%sblock [%#x, %#x)\n", indent, child.Start, child.End)
		p.block(child, indent+"  ")
	}
}

func (p *printer) variable(v *Variable, indent string) {
	fmt.Fprintf(p.w, "%svar %s %s %s @ %#x\n",
		indent, varKindString(v.Kind), p.typeString(v.Type, 0), v.Name, v.Val)
}

const maxTypeDepth = 8

// typeString prints a type tersely. Aggregates referenced by name
// print as their tag so recursive types terminate.
func (p *printer) typeString(n *TypeNode, depth int) string {
	if n == nil {
		return "<nil>"
	}
	if depth > maxTypeDepth || p.seen[n] {
		return "..."
	}
	p.seen[n] = true
	defer delete(p.seen, n)

	switch n.Kind {
	case stabs.KindVoid:
		return "void"
	case stabs.KindInt:
		if n.Unsigned {
			return fmt.Sprintf("uint%d", n.Size*8)
		}
		return fmt.Sprintf("int%d", n.Size*8)
	case stabs.KindFloat:
		return fmt.Sprintf("float%d", n.Size*8)
	case stabs.KindComplex:
		return fmt.Sprintf("complex%d", n.Size*8)
	case stabs.KindBool:
		return fmt.Sprintf("bool%d", n.Size*8)
	case stabs.KindPointer:
		return "*" + p.typeString(n.To, depth+1)
	case stabs.KindReference:
		return "&" + p.typeString(n.To, depth+1)
	case stabs.KindConst:
		return "const " + p.typeString(n.To, depth+1)
	case stabs.KindVolatile:
		return "volatile " + p.typeString(n.To, depth+1)
	case stabs.KindNamed:
		return n.Name
	case stabs.KindTagged:
		if n.Name != "" {
			return n.Name
		}
		return p.typeString(n.To, depth+1)
	case stabs.KindFunction, stabs.KindMethod:
		var args []string
		for _, a := range n.Args {
			args = append(args, p.typeString(a, depth+1))
		}
		if n.Varargs {
			args = append(args, "...")
		}
		kw := "func"
		if n.Kind == stabs.KindMethod {
			kw = "method"
			if n.Domain != nil {
				kw += " of " + p.typeString(n.Domain, depth+1)
			}
		}
		return fmt.Sprintf("%s(%s) %s", kw, strings.Join(args, ", "), p.typeString(n.Ret, depth+1))
	case stabs.KindRange:
		return fmt.Sprintf("range [%d, %d] of %s", n.Low, n.High, p.typeString(n.Index, depth+1))
	case stabs.KindArray:
		return fmt.Sprintf("[%d:%d]%s", n.Low, n.High, p.typeString(n.To, depth+1))
	case stabs.KindSet:
		return "set of " + p.typeString(n.To, depth+1)
	case stabs.KindOffset:
		return fmt.Sprintf("offset %s::%s", p.typeString(n.Domain, depth+1), p.typeString(n.To, depth+1))
	case stabs.KindEnum:
		var elems []string
		for i, name := range n.EnumNames {
			elems = append(elems, fmt.Sprintf("%s=%d", name, n.EnumValues[i]))
		}
		return "enum {" + strings.Join(elems, ", ") + "}"
	case stabs.KindStruct, stabs.KindUnion, stabs.KindClass, stabs.KindUnionClass:
		kw := "struct"
		switch n.Kind {
		case stabs.KindUnion:
			kw = "union"
		case stabs.KindClass:
			kw = "class"
		case stabs.KindUnionClass:
			kw = "union class"
		}
		var elems []string
		for _, bc := range n.Bases {
			elems = append(elems, ": "+p.typeString(bc.Type, depth+1))
		}
		for _, f := range n.FieldsV {
			if f.Vis == stabs.VisibilityIgnore {
				continue
			}
			elems = append(elems, fmt.Sprintf("%s %s @%d", f.Name, p.typeString(f.Type, depth+1), f.Bitpos))
		}
		for _, m := range n.Methods {
			elems = append(elems, fmt.Sprintf("%s()x%d", m.Name, len(m.Variants)))
		}
		return fmt.Sprintf("%s/%d {%s}", kw, n.Size, strings.Join(elems, "; "))
	}
	if n.slot != nil {
		if r := toNode(n.slot.Type()); r != nil {
			return p.typeString(r, depth+1)
		}
		if n.Name != "" {
			return n.Name
		}
		return "<undefined>"
	}
	return "<unknown>"
}

func varKindString(k stabs.VarKind) string {
	switch k {
	case stabs.VarGlobal:
		return "global"
	case stabs.VarStatic:
		return "static"
	case stabs.VarLocalStatic:
		return "local-static"
	case stabs.VarRegister:
		return "register"
	}
	return "local"
}

func paramKindString(k stabs.ParamKind) string {
	switch k {
	case stabs.ParamReg:
		return "reg"
	case stabs.ParamReference:
		return "ref"
	case stabs.ParamRefReg:
		return "ref-reg"
	}
	return "stack"
}
