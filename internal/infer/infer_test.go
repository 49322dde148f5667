package infer

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/imgajeed76/csvview/internal/dataset"
)

func TestClassify_Numeric(t *testing.T) {
	if got := Classify([]string{"1", "2", "3", "4"}); got != Numeric {
		t.Fatalf("got %v, want numeric", got)
	}
}

func TestClassify_BelowNumericThreshold(t *testing.T) {
	if got := Classify([]string{"1", "2", "3", "x"}); got == Numeric {
		t.Fatal("75% numbers must not be numeric")
	}

	// 75% numbers with too many distinct values for a category
	values := make([]string, 0, 24)
	for i := 1; i <= 18; i++ {
		values = append(values, strconv.Itoa(i))
	}
	for i := 1; i <= 6; i++ {
		values = append(values, "x"+strconv.Itoa(i))
	}
	if got := Classify(values); got != Text {
		t.Fatalf("got %v, want text", got)
	}
}

func TestClassify_EmptyValuesIgnored(t *testing.T) {
	if got := Classify([]string{"", "", ""}); got != Text {
		t.Fatalf("all empty: got %v, want text", got)
	}
	if got := Classify([]string{"1", "", "2", "", "3"}); got != Numeric {
		t.Fatalf("got %v, want numeric", got)
	}
}

func TestClassify_Date(t *testing.T) {
	if got := Classify([]string{"2024-01-05", "2024-02-10", "n/a"}); got != Date {
		t.Fatalf("got %v, want date", got)
	}
}

func TestClassify_Boolean(t *testing.T) {
	if got := Classify([]string{"yes", "no", "Yes", "NO", "sim", "Não"}); got != Boolean {
		t.Fatalf("got %v, want boolean", got)
	}
}

func TestClassify_Category(t *testing.T) {
	if got := Classify([]string{"red", "blue", "red", "green"}); got != Category {
		t.Fatalf("got %v, want category", got)
	}
	if got := Classify([]string{"same", "same"}); got != Text {
		t.Fatalf("one distinct value: got %v, want text", got)
	}
}

func TestIsNumber(t *testing.T) {
	yes := []string{"0", "-1", "+2.5", ".5", "5.", "1e5", "1E-3", " 42 ", "0x1F", "Infinity", "-Infinity"}
	no := []string{"", " ", "1.2.3", "12kg", "abc", "--1", "e5"}
	for _, s := range yes {
		if !IsNumber(s) {
			t.Errorf("IsNumber(%q) = false", s)
		}
	}
	for _, s := range no {
		if IsNumber(s) {
			t.Errorf("IsNumber(%q) = true", s)
		}
	}
}

func TestLeadingFloat(t *testing.T) {
	cases := map[string]float64{
		"12.5 kg":  12.5,
		"  -3e2x":  -300,
		"7":        7,
		".25":      0.25,
		"Infinity": math.Inf(1),
	}
	for s, want := range cases {
		if got := LeadingFloat(s); got != want {
			t.Errorf("LeadingFloat(%q) = %v, want %v", s, got, want)
		}
	}
	for _, s := range []string{"", "abc", "n/a", "-"} {
		if got := LeadingFloat(s); !math.IsNaN(got) {
			t.Errorf("LeadingFloat(%q) = %v, want NaN", s, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2024-03-01":           "2024-03-01",
		"2024-03-01T10:30:00Z": "2024-03-01",
		"03/15/2024":           "2024-03-15",
		"3/5/2024":             "2024-03-05",
		"Jan 2, 2006":          "2006-01-02",
		"2024/12/31":           "2024-12-31",
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		if !ok {
			t.Errorf("ParseDate(%q) failed", in)
			continue
		}
		if got.Format("2006-01-02") != want {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got.Format("2006-01-02"), want)
		}
	}
	for _, s := range []string{"", "not a date", "13/45/2024", "1"} {
		if IsDate(s) {
			t.Errorf("IsDate(%q) = true", s)
		}
	}
}

func TestIsBoolean(t *testing.T) {
	for _, s := range []string{"true", "FALSE", "Sim", "NÃO", "yes", "No", "1", "0"} {
		if !IsBoolean(s) {
			t.Errorf("IsBoolean(%q) = false", s)
		}
	}
	if IsBoolean("maybe") {
		t.Error("IsBoolean(maybe) = true")
	}
	if !IsTruthy("Yes") || IsTruthy("não") {
		t.Error("IsTruthy mismatch")
	}
}

func mustParse(t *testing.T, text string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ds
}

func TestInferencer_TypesInHeaderOrder(t *testing.T) {
	ds := mustParse(t, "name,score,when,active,tier\n"+
		"Ana,10,2024-01-01,yes,gold\n"+
		"Bruno,20,2024-02-01,no,silver\n"+
		"Carla,30,2024-03-01,yes,gold\n")
	in := New(ds, DefaultSampleSize)

	got := in.Types()
	want := []ColumnType{Category, Numeric, Date, Boolean, Category}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %s: got %v, want %v", ds.Headers[i], got[i], want[i])
		}
	}
	if in.Type("score") != Numeric {
		t.Fatal("memoized type changed")
	}
}

func TestInferencer_SamplesLeadingRecords(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n1\n2\n")
	for i := 0; i < 30; i++ {
		b.WriteString("word" + strconv.Itoa(i) + "\n")
	}
	ds := mustParse(t, b.String())

	if got := New(ds, 2).Type("v"); got != Numeric {
		t.Fatalf("sample of 2: got %v, want numeric", got)
	}
	if got := New(ds, 0).Type("v"); got != Text {
		t.Fatalf("full scan: got %v, want text", got)
	}
}

func TestInferencer_Profile(t *testing.T) {
	ds := mustParse(t, "price,tier\n3.5,a\n-1,b\n10,a\n,b\n")
	in := New(ds, DefaultSampleSize)

	p := in.Profile("price")
	if p.Type != Numeric {
		t.Fatalf("type = %v", p.Type)
	}
	if p.NonEmpty != 3 || p.Distinct != 3 {
		t.Fatalf("counts = %d/%d, want 3/3", p.NonEmpty, p.Distinct)
	}
	if p.Min != -1 || p.Max != 10 {
		t.Fatalf("range = [%v, %v], want [-1, 10]", p.Min, p.Max)
	}

	tier := in.Profile("tier")
	if tier.Type != Category || len(tier.Categories) != 2 || tier.Categories[0] != "a" {
		t.Fatalf("tier profile = %+v", tier)
	}
	if !math.IsNaN(tier.Min) {
		t.Fatal("non-numeric column should have NaN range")
	}
}

func TestInferencer_ProfileCategoriesAreCopies(t *testing.T) {
	ds := mustParse(t, "tier\na\nb\na\nc\n")
	in := New(ds, DefaultSampleSize)

	first := in.Profile("tier")
	first.Categories[0] = "zzz"

	again := in.Profile("tier")
	if len(again.Categories) != 3 || again.Categories[0] != "a" {
		t.Fatalf("memoized categories changed through a returned profile: %v", again.Categories)
	}
}
