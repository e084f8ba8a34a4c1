package config

import "fmt"

// OutputStyle selects the emitter's formatting, per spec.md §4.F.
//
// Hand-rolled rather than generated: the corpus's enum convention (a
// `// ENUM(...)` comment consumed by github.com/abice/go-enum at build time)
// needs a generator pass this workspace cannot run, so the String/Parse
// pair below is written by hand to match what that generator would have
// produced.
type OutputStyle int

const (
	Nested OutputStyle = iota
	Expanded
	Compact
	Compressed
)

func (o OutputStyle) String() string {
	switch o {
	case Nested:
		return "nested"
	case Expanded:
		return "expanded"
	case Compact:
		return "compact"
	case Compressed:
		return "compressed"
	default:
		return fmt.Sprintf("OutputStyle(%d)", int(o))
	}
}

func ParseOutputStyle(s string) (OutputStyle, error) {
	switch s {
	case "nested", "":
		return Nested, nil
	case "expanded":
		return Expanded, nil
	case "compact":
		return Compact, nil
	case "compressed":
		return Compressed, nil
	default:
		return Nested, fmt.Errorf("unsupported output style %q", s)
	}
}

func (o OutputStyle) MarshalYAML() (any, error) { return o.String(), nil }

func (o *OutputStyle) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseOutputStyle(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Linefeed selects the line terminator emitted between output lines.
type Linefeed int

const (
	LF Linefeed = iota
	CRLF
	CR
	LFCR
)

func (l Linefeed) String() string {
	switch l {
	case LF:
		return "\n"
	case CRLF:
		return "\r\n"
	case CR:
		return "\r"
	case LFCR:
		return "\n\r"
	default:
		return "\n"
	}
}

func ParseLinefeed(s string) (Linefeed, error) {
	switch s {
	case "lf", "":
		return LF, nil
	case "crlf":
		return CRLF, nil
	case "cr":
		return CR, nil
	case "lfcr":
		return LFCR, nil
	default:
		return LF, fmt.Errorf("unsupported linefeed %q", s)
	}
}
