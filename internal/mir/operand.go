package mir

// BorrowKind tags a loan's access mode (spec.md §3 BorrowOperand).
type BorrowKind int

const (
	BorrowShared BorrowKind = iota
	BorrowUnique
	BorrowRaw
)

// BorrowOperand is a borrow expression: kind, region, and source span
// (spec.md §3).
type BorrowOperand struct {
	Kind   BorrowKind
	Region string // region variable name
	Span   Span
	Place  Place
}

// MmioOperand reads a memory-mapped register (spec.md §3, §6).
type MmioOperand struct {
	Base          uint64
	Offset        uint64
	WidthBits     int
	AddressSpace  uint16
	BigEndian     bool
}

// ConstValue is a literal constant payload.
type ConstValue struct {
	Type  *Ty
	Value any // int64, uint64, float64, bool, string, rune, nil
}

// OperandKind tags the variant of an Operand (spec.md §3).
type OperandKind int

const (
	OperandCopy OperandKind = iota
	OperandMove
	OperandBorrow
	OperandConst
	OperandMmio
	OperandPending
)

// Operand is spec.md §3's Operand sum type.
type Operand struct {
	Kind OperandKind

	Place   Place         // OperandCopy / OperandMove
	Borrow  BorrowOperand // OperandBorrow
	Const   ConstValue    // OperandConst
	Mmio    MmioOperand   // OperandMmio
	Pending string        // OperandPending: diagnostic label for what never got resolved
}

func CopyOf(p Place) Operand  { return Operand{Kind: OperandCopy, Place: p} }
func MoveOf(p Place) Operand  { return Operand{Kind: OperandMove, Place: p} }
func BorrowOf(b BorrowOperand) Operand { return Operand{Kind: OperandBorrow, Borrow: b} }
func ConstOf(c ConstValue) Operand { return Operand{Kind: OperandConst, Const: c} }
func MmioOf(m MmioOperand) Operand { return Operand{Kind: OperandMmio, Mmio: m} }
func PendingOf(label string) Operand { return Operand{Kind: OperandPending, Pending: label} }

// PlaceOf returns the underlying place for Copy/Move/Borrow operands, and
// false otherwise.
func (o Operand) PlaceOf() (Place, bool) {
	switch o.Kind {
	case OperandCopy, OperandMove:
		return o.Place, true
	case OperandBorrow:
		return o.Borrow.Place, true
	default:
		return Place{}, false
	}
}
