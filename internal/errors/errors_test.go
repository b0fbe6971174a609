package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "directive error",
			code:    "W101",
			wantMsg: `for-each declaration is missing " in "`,
			wantCat: CategoryDirective,
		},
		{
			name:    "config error",
			code:    "W120",
			wantMsg: "Invalid configuration file",
			wantCat: CategoryConfig,
		},
		{
			name:    "template error",
			code:    "W140",
			wantMsg: "Template not found",
			wantCat: CategoryTemplate,
		},
		{
			name:    "unknown error code",
			code:    "W999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown flag %q", "--x")
	if err.Message != `unknown flag "--x"` {
		t.Errorf("Message = %q, want %q", err.Message, `unknown flag "--x"`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestWeaveError_Error(t *testing.T) {
	err := New("W104").WithElement(`<li if="a" for-each="x in xs">`)
	want := `W104: if and for-each on the same element in <li if="a" for-each="x in xs">`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &WeaveError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestWeaveError_Builders(t *testing.T) {
	err := New("W102").
		WithTemplate("list.html").
		WithSuggestion("name the item").
		WithExample(`<li for-each="item in items">`).
		WithDetail("custom detail")

	if err.Template != "list.html" {
		t.Errorf("Template = %q", err.Template)
	}
	if err.Suggestion != "name the item" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Example != `<li for-each="item in items">` {
		t.Errorf("Example = %q", err.Example)
	}
	if err.Detail != "custom detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestWeaveError_Wrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New("W141").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is did not find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, want it to mention the cause", err.Error())
	}
}

func TestWeaveError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", New("W140").WithTemplate("a.html"))
	if !stderrors.Is(err, New("W140")) {
		t.Error("errors.Is did not match by code")
	}
	if stderrors.Is(err, New("W141")) {
		t.Error("errors.Is matched a different code")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "W141") != nil {
		t.Error("FromError(nil) should return nil")
	}

	original := New("W140")
	if got := FromError(fmt.Errorf("ctx: %w", original), "W141"); got != original {
		t.Error("FromError should return the existing WeaveError")
	}

	wrapped := FromError(fmt.Errorf("plain"), "W141")
	if wrapped.Code != "W141" || wrapped.Wrapped == nil {
		t.Errorf("FromError(plain) = %+v", wrapped)
	}
}

func TestHasCode(t *testing.T) {
	inner := New("W121").Wrap(fmt.Errorf("permission denied"))
	outer := New("W120").Wrap(inner)

	if !HasCode(outer, "W120") || !HasCode(outer, "W121") {
		t.Error("HasCode missed a code in the chain")
	}
	if HasCode(outer, "W122") {
		t.Error("HasCode matched an absent code")
	}
	if HasCode(fmt.Errorf("plain"), "W120") {
		t.Error("HasCode matched a plain error")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("W101").
		WithTemplate("list.html").
		WithElement(`<li for-each="items">`).
		WithSuggestion(`Write "item in items"`).
		WithExample(`<li for-each="item in items">`)
	out := err.Format()

	for _, want := range []string{
		"ERROR W101:",
		"list.html",
		`→ <li for-each="items">`,
		`Hint: Write "item in items"`,
		"Example:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("W105").WithTemplate("a.html").WithElement("<p if>")
	want := "a.html: W105: if declaration has an empty expression in <p if>"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("W140").WithTemplate("missing.html").Wrap(fmt.Errorf("no such key"))

	var decoded map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &decoded); jerr != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", jerr)
	}
	if decoded["code"] != "W140" || decoded["template"] != "missing.html" || decoded["cause"] != "no such key" {
		t.Errorf("FormatJSON() decoded = %v", decoded)
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() returned nothing")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Errorf("GetAllCodes() not sorted at %d: %v", i, codes)
		}
	}
	for _, code := range codes {
		if !strings.HasPrefix(code, "W") {
			t.Errorf("code %q does not start with W", code)
		}
	}
}

func TestGetTemplate(t *testing.T) {
	tmpl, ok := GetTemplate("W106")
	if !ok {
		t.Fatal("GetTemplate(W106) not found")
	}
	if tmpl.Category != CategoryDirective {
		t.Errorf("Category = %q, want %q", tmpl.Category, CategoryDirective)
	}
	if _, ok := GetTemplate("W000"); ok {
		t.Error("GetTemplate(W000) should not be found")
	}
}

func TestRegister(t *testing.T) {
	Register("W900", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	defer delete(registry, "W900")

	if got := New("W900").Message; got != "custom" {
		t.Errorf("Message = %q, want custom", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 10, 0},
		{"short", 10, 1},
		{"one two three four five", 10, 3},
	}
	for _, tt := range tests {
		if got := len(wrapText(tt.text, tt.width)); got != tt.want {
			t.Errorf("wrapText(%q, %d) = %d lines, want %d", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, New("W140"))
	if !strings.Contains(buf.String(), "ERROR W140") {
		t.Errorf("PrintError(WeaveError) = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, fmt.Errorf("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("PrintError(plain) = %q", buf.String())
	}
}
