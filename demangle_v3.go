package stabs

import (
	"github.com/ianlancetaylor/demangle"
)

// demangleV3Argtypes extracts a stub's argument types from an ABI-v3
// (_Z prefixed) physical name by demangling it to an AST and walking
// the argument list of the resulting function type.
func (d *Decoder) demangleV3Argtypes(physname string) (stubArgs, error) {
	ast, err := demangle.ToAST(physname, d.opts.demangleOpts...)
	if err != nil {
		return stubArgs{}, badMangled(physname)
	}

	typed, ok := ast.(*demangle.Typed)
	if !ok {
		log.Warnf("demangled name %s is not a function", physname)
		return stubArgs{}, badMangled(physname)
	}
	fn, ok := typed.Type.(*demangle.FunctionType)
	if !ok {
		log.Warnf("demangled name %s is not a function", physname)
		return stubArgs{}, badMangled(physname)
	}

	return d.v3Arglist(fn.Args)
}

func (d *Decoder) v3Arglist(args []demangle.AST) (stubArgs, error) {
	var sa stubArgs
	for i, arg := range args {
		if bt, ok := arg.(*demangle.BuiltinType); ok {
			if bt.Name == "..." {
				sa.varargs = true
				continue
			}
			// A lone void means no arguments.
			if bt.Name == "void" && i == 0 && len(args) == 1 {
				break
			}
		}
		t, err := d.v3Arg(arg, nil)
		if err != nil {
			return stubArgs{}, err
		}
		sa.args = append(sa.args, t)
	}
	if sa.args == nil {
		sa.args = []Type{}
	}
	return sa, nil
}

// v3Arg converts one demangled argument AST into a builder type.
// context is the enclosing class when resolving a qualified name, so
// that nested types can be found among its fields first.
func (d *Decoder) v3Arg(arg demangle.AST, context Type) (Type, error) {
	b := d.b

	switch a := arg.(type) {
	case *demangle.Name:
		// Look for a nested type among the context's fields before
		// falling back on the tag namespace.
		if context != nil {
			for _, f := range b.Fields(context) {
				ft := b.FieldType(f)
				if ft != nil && b.TypeName(ft) == a.Name {
					return ft, nil
				}
			}
		}
		return d.findTaggedType(a.Name, KindUnknown)

	case *demangle.Qualified:
		scope, err := d.v3Arg(a.Scope, context)
		if err != nil {
			return nil, err
		}
		return d.v3Arg(a.Name, scope)

	case *demangle.Template:
		// Template instances are recorded under their printed name.
		name := demangle.ASTToString(a)
		return d.findTaggedType(name, KindClass)

	case *demangle.BuiltinType:
		bt, ok := d.v3Builtin(a.Name)
		if !ok {
			log.Warnf("unrecognized demangled builtin type %s", a.Name)
			return nil, badMangled(a.Name)
		}
		switch bt.Kind {
		case KindVoid:
			return b.VoidType(), nil
		case KindBool:
			return b.BoolType(bt.Size), nil
		case KindFloat:
			return b.FloatType(bt.Size), nil
		default:
			return b.IntType(bt.Size, bt.Unsigned), nil
		}

	case *demangle.TypeWithQualifiers:
		t, err := d.v3Arg(a.Base, context)
		if err != nil {
			return nil, err
		}
		quals, ok := a.Qualifiers.(*demangle.Qualifiers)
		if !ok {
			return nil, badMangled(demangle.ASTToString(arg))
		}
		for _, qa := range quals.Qualifiers {
			q, ok := qa.(*demangle.Qualifier)
			if !ok {
				return nil, badMangled(demangle.ASTToString(arg))
			}
			switch q.Name {
			case "const":
				t = b.ConstType(t)
			case "volatile":
				t = b.VolatileType(t)
			case "restrict":
				// No representation; the base type is close enough.
			default:
				log.Warnf("unrecognized type qualifier %s in demangled name", q.Name)
			}
		}
		return t, nil

	case *demangle.PointerType:
		t, err := d.v3Arg(a.Base, context)
		if err != nil {
			return nil, err
		}
		return b.PointerType(t), nil

	case *demangle.ReferenceType:
		t, err := d.v3Arg(a.Base, context)
		if err != nil {
			return nil, err
		}
		return b.ReferenceType(t), nil

	case *demangle.FunctionType:
		var ret Type
		if a.Return == nil {
			ret = b.VoidType()
		} else {
			var err error
			if ret, err = d.v3Arg(a.Return, context); err != nil {
				return nil, err
			}
		}
		sub, err := d.v3Arglist(a.Args)
		if err != nil {
			return nil, err
		}
		return b.FunctionType(ret, sub.args, sub.varargs), nil

	default:
		return nil, badMangled(demangle.ASTToString(arg))
	}
}
