package grapht

// Default sources, in the order they are consulted.
const (
	DefaultQualifierValue          = "qualifier-value"
	DefaultQualifierImplementation = "qualifier-implementation"
	DefaultTypeProvider            = "type-provider"
	DefaultTypeImplementation      = "type-implementation"
	DefaultConcrete                = "concrete"
	DefaultNullable                = "nullable"
)

// defaultDesire applies the first default that fits d when no bind rule
// does. It returns the source that produced the result, or ok == false when
// nothing applies.
func defaultDesire(intro Introspector, d Desire) (result Desire, source string, ok bool, err error) {
	if q := d.Qualifier(); !q.IsZero() {
		qd := intro.QualifierDefaults(q)
		if qd.HasValue {
			vt := qd.ValueType
			if vt == nil {
				vt = LiteralType(qd.Value)
			}
			if vt == nil {
				vt = d.Type()
			}
			result, err = narrowedDesire(intro, d, vt, Instance(qd.Value, vt))
			return result, DefaultQualifierValue, err == nil, err
		}
		if qd.Implementation != nil {
			result, err = implementationDesire(intro, d, qd.Implementation)
			return result, DefaultQualifierImplementation, err == nil, err
		}
	}

	td := intro.TypeDefaults(d.Type())
	if td.Provider != nil {
		provided, found := intro.ProvidedType(td.Provider)
		if !found {
			provided = d.Type()
		}
		result, err = narrowedDesire(intro, d, provided, ProviderClass(td.Provider, provided))
		return result, DefaultTypeProvider, err == nil, err
	}
	if td.Implementation != nil {
		result, err = implementationDesire(intro, d, td.Implementation)
		return result, DefaultTypeImplementation, err == nil, err
	}

	if intro.Concrete(d.Type()) {
		result, err = narrowedDesire(intro, d, d.Type(), Class(d.Type()))
		return result, DefaultConcrete, err == nil, err
	}
	if d.Nullable() {
		result, err = narrowedDesire(intro, d, d.Type(), Null(d.Type()))
		return result, DefaultNullable, err == nil, err
	}
	return Desire{}, "", false, nil
}

// implementationDesire narrows d to impl, attaching a Class satisfaction
// when impl is concrete.
func implementationDesire(intro Introspector, d Desire, impl Type) (Desire, error) {
	var sat Satisfaction
	if intro.Concrete(impl) {
		sat = Class(impl)
	}
	return narrowedDesire(intro, d, impl, sat)
}

// Literal type tokens for default values and parameter bindings.
const (
	BoolType   TypeName = "bool"
	IntType    TypeName = "int"
	FloatType  TypeName = "float64"
	StringType TypeName = "string"
)

// LiteralType returns the type token of a literal default value, or nil
// when v is not a bool, integer, float or string.
func LiteralType(v any) Type {
	switch v.(type) {
	case bool:
		return BoolType
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return IntType
	case float32, float64:
		return FloatType
	case string:
		return StringType
	default:
		return nil
	}
}
