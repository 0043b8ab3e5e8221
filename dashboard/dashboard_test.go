package dashboard

import (
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeStats struct {
	cycles, instructions, compiles uint64
	hitRate                        float64
}

func (f *fakeStats) Cycles() uint64              { return f.cycles }
func (f *fakeStats) Instructions() uint64        { return f.instructions }
func (f *fakeStats) Compiles() uint64            { return f.compiles }
func (f *fakeStats) DecodeCacheHitRate() float64 { return f.hitRate }

func TestSampleAccumulatesAndCaps(t *testing.T) {
	fs := &fakeStats{}
	s := New(fs, 3)

	for i := 0; i < 5; i++ {
		fs.cycles = uint64(i + 1)
		fs.instructions = uint64(i + 1)
		fs.hitRate = 0.5
		s.Sample()
	}

	s.mu.Lock()
	n := len(s.labels)
	last := s.ipc[len(s.ipc)-1]
	s.mu.Unlock()

	if n != 3 {
		t.Fatalf("len(labels) = %d, want 3 (capped)", n)
	}
	if last != 1.0 {
		t.Fatalf("ipc = %v, want 1.0", last)
	}
}

func TestHandlerServesDashboard(t *testing.T) {
	fs := &fakeStats{cycles: 100, instructions: 80, hitRate: 0.9}
	s := New(fs, 10)
	s.Sample()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/dashboard")
	if err != nil {
		t.Fatalf("GET /dashboard: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	buf := make([]byte, 4096)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])
	if !strings.Contains(body, "or1kiss engine counters") {
		t.Fatalf("body missing chart title: %q", body)
	}
}
