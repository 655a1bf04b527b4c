package mir

import (
	"fmt"
	"strings"
)

// Print renders a deterministic textual dump of a Function: block labels,
// statements, and terminators, in the style of malphas-lang's BasicBlock
// labeling (spec.md §12 supplemented feature).
func Print(f *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fn %s {\n", f.Name)
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "%s:\n", blockLabel(blk))
		for _, st := range blk.Statements {
			fmt.Fprintf(&b, "    %s\n", printStatement(st))
		}
		fmt.Fprintf(&b, "    %s\n", printTerminator(blk.Terminator))
	}
	b.WriteString("}\n")
	return b.String()
}

func blockLabel(b *BasicBlock) string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("bb%d", b.ID)
}

func printPlace(p Place) string {
	var b strings.Builder
	fmt.Fprintf(&b, "_%d", p.Local)
	for _, pr := range p.Proj {
		switch pr.Kind {
		case ProjField:
			fmt.Fprintf(&b, ".%d", pr.FieldIndex)
		case ProjFieldNamed:
			fmt.Fprintf(&b, ".%s", pr.FieldName)
		case ProjDeref:
			b.WriteString(".*")
		case ProjIndex:
			fmt.Fprintf(&b, "[_%d]", pr.IndexLocal)
		case ProjConstantIndex:
			if pr.ConstFromEnd {
				fmt.Fprintf(&b, "[-%d:]", pr.ConstOffset)
			} else {
				fmt.Fprintf(&b, "[%d]", pr.ConstOffset)
			}
		case ProjSubslice:
			fmt.Fprintf(&b, "[%d..%d]", pr.SubsliceFrom, pr.SubsliceTo)
		case ProjUnionField:
			fmt.Fprintf(&b, "#%d", pr.UnionFieldIndex)
		case ProjDowncast:
			fmt.Fprintf(&b, "as %s", pr.DowncastVariant)
		}
	}
	return b.String()
}

func printOperand(o Operand) string {
	switch o.Kind {
	case OperandCopy:
		return printPlace(o.Place)
	case OperandMove:
		return "move " + printPlace(o.Place)
	case OperandBorrow:
		kind := map[BorrowKind]string{BorrowShared: "&", BorrowUnique: "&unique ", BorrowRaw: "&raw "}[o.Borrow.Kind]
		return kind + printPlace(o.Borrow.Place)
	case OperandConst:
		return fmt.Sprintf("const %v", o.Const.Value)
	case OperandMmio:
		return fmt.Sprintf("mmio[0x%x+0x%x]", o.Mmio.Base, o.Mmio.Offset)
	case OperandPending:
		return "pending<" + o.Pending + ">"
	}
	return "?"
}

func printStatement(s Statement) string {
	switch s.Kind {
	case StmtAssign:
		return printPlace(s.Place) + " = " + printRvalue(s.Value)
	case StmtStorageLive:
		return fmt.Sprintf("StorageLive(_%d)", s.Local)
	case StmtStorageDead:
		return fmt.Sprintf("StorageDead(_%d)", s.Local)
	case StmtDeferDrop:
		return fmt.Sprintf("DeferDrop(%s)", printPlace(s.DropPlace))
	case StmtDrop:
		return fmt.Sprintf("Drop(%s) -> %s", printPlace(s.DropPlace), fmt.Sprintf("bb%d", s.DropTarget))
	case StmtDeinit:
		return fmt.Sprintf("Deinit(%s)", printPlace(s.DropPlace))
	case StmtMmioStore:
		return fmt.Sprintf("MmioStore(%v, %s)", s.MmioTarget, printOperand(s.MmioValue))
	case StmtExpression:
		return printOperand(s.Expr)
	case StmtAssert:
		return fmt.Sprintf("assert(%s, %q)", printOperand(s.AssertCond), s.AssertMessage)
	}
	return "?"
}

func printRvalue(r *Rvalue) string {
	if r == nil {
		return "<nil>"
	}
	switch r.Kind {
	case RvalueUse:
		return printOperand(r.Operand)
	case RvalueBinary:
		return printOperand(r.LHS) + " <binop> " + printOperand(r.RHS)
	case RvalueUnary:
		return "<unop> " + printOperand(r.LHS)
	case RvalueAggregate:
		parts := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			parts[i] = printOperand(f)
		}
		return "Aggregate(" + strings.Join(parts, ", ") + ")"
	case RvalueAddressOf:
		return "&" + printPlace(r.Place)
	case RvalueLen:
		return "Len(" + printOperand(r.LenOf) + ")"
	case RvalueCast:
		return "Cast(" + printOperand(r.CastFrom) + ")"
	}
	return "<rvalue>"
}

func printTerminator(t Terminator) string {
	switch t.Kind {
	case TermReturn:
		return "return"
	case TermGoto:
		return fmt.Sprintf("goto -> bb%d", t.Goto)
	case TermSwitchInt:
		return fmt.Sprintf("switchInt(%s) -> [otherwise: bb%d]", printOperand(t.SwitchDiscr), t.SwitchOtherwise)
	case TermMatch:
		return fmt.Sprintf("match(%s)", printOperand(t.MatchValue))
	case TermCall:
		dst := "_"
		if t.Call.Destination != nil {
			dst = printPlace(*t.Call.Destination)
		}
		return fmt.Sprintf("%s = call %s(...) -> bb%d", dst, t.Call.FuncSymbol, t.Call.Target)
	case TermThrow:
		return "throw"
	case TermYield:
		return fmt.Sprintf("yield %s -> bb%d", printOperand(t.Yield.Value), t.Yield.Resume)
	case TermAwait:
		return fmt.Sprintf("await %s -> bb%d", printOperand(t.Await.Future), t.Await.Resume)
	case TermPanic:
		return "panic"
	case TermUnreachable:
		return "unreachable"
	}
	return "?"
}
