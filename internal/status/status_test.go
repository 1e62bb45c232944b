package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sm0svx/svxreflector-go/internal/reflector"
)

type fakeCore struct {
	snap reflector.Snapshot
}

func (f *fakeCore) RequestStatus() reflector.Snapshot { return f.snap }

func TestStatusGetReturnsJSON(t *testing.T) {
	core := &fakeCore{snap: reflector.Snapshot{Nodes: map[string]reflector.NodeStatus{
		"SM0SVX": {
			Addr:         "10.0.0.1",
			MajorVer:     2,
			MinorVer:     0,
			TG:           100,
			MonitoredTGs: []uint32{100, 200},
			IsTalker:     true,
		},
	}}}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	Handler(core).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}

	var doc documentJSON
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	node, ok := doc.Nodes["SM0SVX"]
	if !ok {
		t.Fatal("missing SM0SVX node")
	}
	if node.ProtoVer.MajorVer != 2 || node.TG != "100" || !node.IsTalker {
		t.Fatalf("got %+v", node)
	}
}

func TestStatusHeadOmitsBody(t *testing.T) {
	core := &fakeCore{snap: reflector.Snapshot{Nodes: map[string]reflector.NodeStatus{}}}
	req := httptest.NewRequest(http.MethodHead, "/status", nil)
	w := httptest.NewRecorder()
	Handler(core).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body for HEAD, got %d bytes", w.Body.Len())
	}
}

func TestStatusOtherMethodNotImplemented(t *testing.T) {
	core := &fakeCore{}
	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	w := httptest.NewRecorder()
	Handler(core).ServeHTTP(w, req)

	if w.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", w.Code)
	}
}

func TestStatusOtherPathNotFound(t *testing.T) {
	core := &fakeCore{}
	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	w := httptest.NewRecorder()
	Handler(core).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
