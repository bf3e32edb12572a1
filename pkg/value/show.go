package value

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Show renders ref in the textual form used by the debug console and by
// exception messages (spec §4.2): symbols print bare, strings are
// double-quoted with control characters escaped, lists and vectors print as
// parenthesized/bracketed sequences, and maps print as an unordered set of
// key/value pairs. It never allocates on the heap.
func Show(a Allocator, ref Ref) string {
	var b strings.Builder
	show(a, ref, &b)
	return b.String()
}

// Dump writes ref's textual form to w (spec §4.2's "dump(stream, v)"). It is
// Show plus an io.Writer sink, used by the host to print an uncaught
// exception's cause chain (spec §7) without building an intermediate string
// first.
func Dump(a Allocator, w io.Writer, ref Ref) error {
	_, err := io.WriteString(w, Show(a, ref))
	return err
}

func show(a Allocator, ref Ref, b *strings.Builder) {
	if ref == NullRef {
		b.WriteString("()")
		return
	}

	switch TypeOf(a, ref) {
	case TypeSymbol:
		b.WriteString(SymbolText(a, ref))

	case TypeString:
		showQuoted(StringText(a, ref), b)

	case TypeNumber:
		b.WriteString(strconv.FormatFloat(NumberValue(a, ref), 'g', -1, 64))

	case TypeBoolean:
		if BooleanValue(a, ref) {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case TypeList:
		b.WriteByte('(')
		for cur, first := ref, true; cur != NullRef; cur = ListTail(a, cur) {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			show(a, ListHead(a, cur), b)
		}
		b.WriteByte(')')

	case TypeVector:
		b.WriteByte('[')
		n := VectorLength(a, ref)
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			show(a, VectorGet(a, ref, i), b)
		}
		b.WriteByte(']')

	case TypeMap:
		b.WriteByte('{')
		first := true
		MapEach(a, ref, func(k, v Ref) {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			show(a, k, b)
			b.WriteByte(' ')
			show(a, v, b)
		})
		b.WriteByte('}')

	case TypeFunction:
		fmt.Fprintf(b, "#<function %#x>", FunctionPointer(a, ref))

	case TypeLibrary:
		fmt.Fprintf(b, "#<library %s>", LibraryName(a, ref))

	case TypeException:
		b.WriteString("#<exception ")
		show(a, ExceptionMessage(a, ref), b)
		if cause := ExceptionCause(a, ref); cause != NullRef {
			b.WriteString(" caused by ")
			show(a, cause, b)
		}
		b.WriteByte('>')

	default:
		panic("value: unknown type tag")
	}
}

// showQuoted writes s as a double-quoted string literal, escaping \n, \t,
// \", \\, and every other rune outside printable ASCII: as \xNN up to 0xff
// (Latin-1 letters included), as \uNNNN above it.
func showQuoted(s string, b *strings.Builder) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			switch {
			case r >= 0x20 && r < 0x7f:
				b.WriteRune(r)
			case r <= 0xff:
				fmt.Fprintf(b, `\x%02x`, r)
			default:
				fmt.Fprintf(b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
}
