package output

import (
	"strings"
	"testing"

	"sasse/config"
	"sasse/cssdoc"
)

func buildSheet(t *testing.T) *cssdoc.Stylesheet {
	t.Helper()
	eval := cssdoc.NewEvaluator(nil)
	if _, err := eval.OnStyleRule(".a", []cssdoc.Declaration{{Property: "color", Value: "red"}}); err != nil {
		t.Fatalf("OnStyleRule: %v", err)
	}
	if err := eval.OnExtend(".b", ".a", false); err != nil {
		t.Fatalf("OnExtend: %v", err)
	}
	sheet, err := eval.OnFinalize()
	if err != nil {
		t.Fatalf("OnFinalize: %v", err)
	}
	return sheet
}

func TestEmitNestedStyle(t *testing.T) {
	opts := config.Default()
	opts.OutputStyle = config.Nested
	css, _, err := New(opts).Emit(buildSheet(t))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	want := ".a, .b {\n  color: red;\n}\n"
	if css != want {
		t.Errorf("Nested output = %q, want %q", css, want)
	}
}

func TestEmitCompressedStyle(t *testing.T) {
	opts := config.Default()
	opts.OutputStyle = config.Compressed
	css, _, err := New(opts).Emit(buildSheet(t))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	want := ".a, .b{color:red;}"
	if css != want {
		t.Errorf("Compressed output = %q, want %q", css, want)
	}
}

func TestEmitCompactStyle(t *testing.T) {
	opts := config.Default()
	opts.OutputStyle = config.Compact
	css, _, err := New(opts).Emit(buildSheet(t))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	want := ".a, .b { color: red;\n}\n"
	if css != want {
		t.Errorf("Compact output = %q, want %q", css, want)
	}
}

func TestEmitCRLFLinefeed(t *testing.T) {
	opts := config.Default()
	opts.OutputStyle = config.Nested
	opts.Linefeed = config.CRLF
	css, _, err := New(opts).Emit(buildSheet(t))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(css, "\r\n") {
		t.Errorf("expected CRLF line endings, got %q", css)
	}
}

func TestEmitSourceComments(t *testing.T) {
	opts := config.Default()
	opts.OutputStyle = config.Nested
	opts.SourceComments = true
	eval := cssdoc.NewEvaluator(nil)
	if _, err := eval.OnStyleRule(".a", []cssdoc.Declaration{{Property: "color", Value: "red"}}); err != nil {
		t.Fatalf("OnStyleRule: %v", err)
	}
	sheet, err := eval.OnFinalize()
	if err != nil {
		t.Fatalf("OnFinalize: %v", err)
	}
	css, _, err := New(opts).Emit(sheet)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(css, "/* line 1, <style rule> */") {
		t.Errorf("expected a source comment, got %q", css)
	}
}

func TestEmitSourceCommentsSkippedWhenCompressed(t *testing.T) {
	opts := config.Default()
	opts.OutputStyle = config.Compressed
	opts.SourceComments = true
	eval := cssdoc.NewEvaluator(nil)
	if _, err := eval.OnStyleRule(".a", nil); err != nil {
		t.Fatalf("OnStyleRule: %v", err)
	}
	sheet, err := eval.OnFinalize()
	if err != nil {
		t.Fatalf("OnFinalize: %v", err)
	}
	css, _, err := New(opts).Emit(sheet)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if strings.Contains(css, "/*") {
		t.Errorf("expected no source comment in compressed output, got %q", css)
	}
}

func TestEmitSourceMap(t *testing.T) {
	opts := config.Default()
	opts.SourceMap.Enable = true
	eval := cssdoc.NewEvaluator(nil)
	if _, err := eval.OnStyleRule(".a", nil); err != nil {
		t.Fatalf("OnStyleRule: %v", err)
	}
	sheet, err := eval.OnFinalize()
	if err != nil {
		t.Fatalf("OnFinalize: %v", err)
	}
	_, srcmap, err := New(opts).Emit(sheet)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(srcmap) == 0 {
		t.Errorf("expected non-empty source map JSON when SourceMap.Enable is set")
	}
}

func TestFormatNumberTrimsTrailingZeros(t *testing.T) {
	if got, want := FormatNumber(1.500000, 5, false), "1.5"; got != want {
		t.Errorf("FormatNumber(1.5) = %q, want %q", got, want)
	}
	if got, want := FormatNumber(2.0, 5, false), "2"; got != want {
		t.Errorf("FormatNumber(2.0) = %q, want %q", got, want)
	}
}

func TestFormatNumberCompressedDropsLeadingZero(t *testing.T) {
	if got, want := FormatNumber(0.5, 5, true), ".5"; got != want {
		t.Errorf("FormatNumber(0.5, compressed) = %q, want %q", got, want)
	}
	if got, want := FormatNumber(-0.5, 5, true), "-.5"; got != want {
		t.Errorf("FormatNumber(-0.5, compressed) = %q, want %q", got, want)
	}
}

func TestShortenColor(t *testing.T) {
	if got, want := ShortenColor("#ffffff", 1), "#fff"; got != want {
		t.Errorf("ShortenColor(#ffffff) = %q, want %q", got, want)
	}
	if got, want := ShortenColor("#ff00ab", 1), "#ff00ab"; got != want {
		t.Errorf("ShortenColor should not shorten mixed channels, got %q, want %q", got, want)
	}
	if got, want := ShortenColor("#000080", 1), "navy"; got != want {
		t.Errorf("ShortenColor(#000080) = %q, want %q", got, want)
	}
	if got, want := ShortenColor("#000000", 0), "transparent"; got != want {
		t.Errorf("ShortenColor(#000000, alpha=0) = %q, want %q", got, want)
	}
	if got, want := ShortenColor("#ff0000", 0.5), "rgba(255, 0, 0, 0.5)"; got != want {
		t.Errorf("ShortenColor(#ff0000, alpha=0.5) = %q, want %q", got, want)
	}
}

func TestFormatNumberNonZeroRoundsToZero(t *testing.T) {
	if got, want := FormatNumber(0.00001, 2, false), "0.0"; got != want {
		t.Errorf("FormatNumber(0.00001, precision=2) = %q, want %q", got, want)
	}
	if got, want := FormatNumber(0, 2, false), "0"; got != want {
		t.Errorf("FormatNumber(0, precision=2) = %q, want %q", got, want)
	}
}

func TestQuoteStringEscapesQuotesAndBackslashes(t *testing.T) {
	if got, want := QuoteString(`he said "hi"`), `"he said \"hi\""`; got != want {
		t.Errorf("QuoteString = %q, want %q", got, want)
	}
	if got, want := QuoteString(`plain`), `"plain"`; got != want {
		t.Errorf("QuoteString(plain) = %q, want %q", got, want)
	}
}
