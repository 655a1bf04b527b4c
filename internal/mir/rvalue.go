package mir

// UnOp / BinOp enumerate the scalar operators an Rvalue can apply.
type UnOp int

const (
	UnNeg UnOp = iota
	UnNot
	UnBitNot
)

type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinLogicalAnd
	BinLogicalOr
)

// NumericIntrinsicOp enumerates spec.md §3/§4.6's checked/bit intrinsics.
type NumericIntrinsicOp int

const (
	IntrinsicTryAdd NumericIntrinsicOp = iota
	IntrinsicTrySub
	IntrinsicTryMul
	IntrinsicTryNeg
	IntrinsicLeadingZeroCount
	IntrinsicTrailingZeroCount
	IntrinsicPopCount
	IntrinsicRotateLeft
	IntrinsicRotateRight
	IntrinsicReverseEndianness
	IntrinsicIsPowerOfTwo
)

// AtomicOp enumerates the atomic rvalue operations (spec.md §3).
type AtomicOp int

const (
	AtomicLoad AtomicOp = iota
	AtomicRMWAdd
	AtomicRMWSub
	AtomicRMWAnd
	AtomicRMWOr
	AtomicRMWXor
	AtomicRMWXchg
	AtomicCompareExchange
)

// AggregateKind tags what an Aggregate rvalue constructs.
type AggregateKind int

const (
	AggregateTuple AggregateKind = iota
	AggregateArray
	AggregateStruct
	AggregateEnumVariant
	AggregateUnion
)

// RvalueKind tags the variant of an Rvalue (spec.md §3).
type RvalueKind int

const (
	RvalueUse RvalueKind = iota
	RvalueUnary
	RvalueBinary
	RvalueAggregate
	RvalueAddressOf
	RvalueLen
	RvalueCast
	RvalueStringInterpolate
	RvalueNumericIntrinsic
	RvalueDecimalIntrinsic
	RvalueAtomic
	RvalueStaticLoad
	RvalueStaticRef
	RvalueSpanStackAlloc
)

// Rvalue is the right-hand side of an Assign statement (spec.md §3).
type Rvalue struct {
	Kind RvalueKind
	Type *Ty

	// RvalueUse
	Operand Operand

	// RvalueUnary / RvalueBinary
	UnOp  UnOp
	BinOp BinOp
	LHS   Operand
	RHS   Operand

	// RvalueAggregate
	AggKind     AggregateKind
	Fields      []Operand // positional or tuple/array elements
	FieldNames  []string  // parallel to Fields for struct aggregates, empty otherwise
	VariantName string    // AggregateEnumVariant
	UnionView   int        // AggregateUnion: which view is being constructed

	// RvalueAddressOf
	Place Place

	// RvalueLen
	LenOf Operand

	// RvalueCast
	CastFrom Operand
	CastTo   *Ty

	// RvalueStringInterpolate
	Parts []Operand

	// RvalueNumericIntrinsic / RvalueDecimalIntrinsic
	IntrinsicOp   NumericIntrinsicOp
	IntrinsicArgs []Operand
	IntrinsicWidth int
	IntrinsicSigned bool

	// RvalueAtomic
	AtomicKind    AtomicOp
	AtomicAddr    Operand
	AtomicVal     Operand
	AtomicCompare Operand // AtomicCompareExchange

	// RvalueStaticLoad / RvalueStaticRef
	StaticSymbol string

	// RvalueSpanStackAlloc
	StackAllocLen Operand
}

func UseOf(o Operand) *Rvalue { return &Rvalue{Kind: RvalueUse, Type: o.Const.Type, Operand: o} }
