package layout

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDebugJSONIsReadable(t *testing.T) {
	res, err := Build(buildConfig("AB"), BuildOptions{Now: fixedNow})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var buf bytes.Buffer
	if err := EncodeDebugJSON(res, &buf); err != nil {
		t.Fatalf("EncodeDebugJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"kind": "blank"`) {
		t.Fatalf("cell kinds should be written as names")
	}

	var back Result
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(res.Pages, back.Pages); diff != "" {
		t.Fatalf("pages changed after decoding (-want +got):\n%s", diff)
	}

	var k CellKind
	if err := k.UnmarshalText([]byte("dot")); err == nil {
		t.Fatalf("unknown cell kind should fail")
	}
}

func TestWriteDebugJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "layout.json")
	res, err := Build(buildConfig("A"), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("WriteDebugJSON: %v", err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		t.Fatalf("debug file not written: %v", err)
	}
	if err := WriteDebugJSON(nil, path); err != nil {
		t.Fatalf("nil result should be ignored: %v", err)
	}
}
