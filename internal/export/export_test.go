package export

import (
	"bytes"
	"context"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/imgajeed76/csvview/internal/dataset"
)

func TestBytes_Format(t *testing.T) {
	ds := &dataset.Dataset{
		Headers: []string{"name", "note"},
		Records: []dataset.Record{
			{"name": "Ana", "note": "x,y"},
			{"name": "Bruno", "note": `say "hi"`},
		},
	}
	got := string(Bytes(ds, nil))
	want := BOM + `"name","note"` + "\n" +
		`"Ana","x,y"` + "\n" +
		`"Bruno","say ""hi"""`
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
	if strings.HasSuffix(got, "\n") {
		t.Fatal("export must not end with a newline")
	}
}

func TestBytes_View(t *testing.T) {
	ds := &dataset.Dataset{
		Headers: []string{"n"},
		Records: []dataset.Record{{"n": "0"}, {"n": "1"}, {"n": "2"}},
	}
	got := string(Bytes(ds, []int{2, 0}))
	want := BOM + `"n"` + "\n" + `"2"` + "\n" + `"0"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got := string(Bytes(ds, []int{})); got != BOM+`"n"` {
		t.Fatalf("empty view: got %q", got)
	}
}

func generated(n int) *dataset.Dataset {
	ds := &dataset.Dataset{Headers: []string{"id", "label", "note"}}
	for i := 0; i < n; i++ {
		ds.Records = append(ds.Records, dataset.Record{
			"id":    strconv.Itoa(i),
			"label": "row " + strconv.Itoa(i),
			"note":  strings.Repeat("q\"", i%4),
		})
	}
	return ds
}

func TestChunked_IdenticalToBytes(t *testing.T) {
	ds := generated(1003)
	view := make([]int, 0, 500)
	for i := 0; i < ds.Len(); i += 2 {
		view = append(view, i)
	}

	for _, v := range [][]int{nil, view, {}} {
		want := Bytes(ds, v)
		for _, cfg := range [][2]int{{1, 1}, {3, 4}, {100, 0}, {0, 2}, {5000, 8}} {
			got, err := Chunked(context.Background(), ds, v, cfg[0], cfg[1])
			if err != nil {
				t.Fatalf("Chunked(%v): %v", cfg, err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("Chunked(%v) differs from Bytes", cfg)
			}
		}
	}
}

func TestChunked_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Chunked(ctx, generated(10), nil, 2, 2); err == nil {
		t.Fatal("expected an error from a cancelled export")
	}
}

func TestRoundTrip(t *testing.T) {
	src := "city\tpopulation\tnote\n" +
		"São Paulo\t12325232\tlargest, by far\n" +
		"Recife\t1653461\t\n" +
		"Natal\t896708\tcoast\n"
	ds, err := dataset.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	view := []int{0, 2}

	again, err := dataset.Parse(string(Bytes(ds, view)))
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if !reflect.DeepEqual(again.Headers, ds.Headers) {
		t.Fatalf("headers = %q, want %q", again.Headers, ds.Headers)
	}
	if again.Len() != len(view) {
		t.Fatalf("expected %d records, got %d", len(view), again.Len())
	}
	for i, idx := range view {
		if !reflect.DeepEqual(again.Records[i], ds.Records[idx]) {
			t.Fatalf("record %d = %v, want %v", i, again.Records[i], ds.Records[idx])
		}
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	if got := FileName(ts); got != "export_2024-03-10.csv" {
		t.Fatalf("got %q", got)
	}
}
