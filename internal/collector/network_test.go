package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/nhdewitt/sysprobe/internal/protocol"
)

// fakeSource replays queued readings. A nil entry means the read fails.
type fakeSource struct {
	readings []map[string]protocol.NetIOCounters
}

var errRead = errors.New("read failed")

func (f *fakeSource) next() (map[string]protocol.NetIOCounters, error) {
	r := f.readings[0]
	f.readings = f.readings[1:]
	if r == nil {
		return nil, errRead
	}
	return r, nil
}

func (f *fakeSource) ReadAll() (map[string]protocol.NetIOCounters, error) {
	return f.next()
}

func (f *fakeSource) ReadInterface(name string) (map[string]protocol.NetIOCounters, error) {
	all, err := f.next()
	if err != nil {
		return nil, err
	}
	c, ok := all[name]
	if !ok {
		return nil, ErrUnknownInterface
	}
	return map[string]protocol.NetIOCounters{name: c}, nil
}

func recv(n uint64) protocol.NetIOCounters {
	return protocol.NetIOCounters{BytesRecv: n}
}

func reading(kv ...any) map[string]protocol.NetIOCounters {
	m := make(map[string]protocol.NetIOCounters)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1].(protocol.NetIOCounters)
	}
	return m
}

func TestNetIOCollector_FirstPollPassesThrough(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", recv(4294967290)),
	}}
	c := NewNetIOCollector(src, nil)

	if c.Initialized() {
		t.Fatal("Initialized() before first poll")
	}
	got, err := c.PerInterface()
	if err != nil {
		t.Fatal(err)
	}
	if got["eth0"].BytesRecv != 4294967290 {
		t.Errorf("first poll = %d, want raw value", got["eth0"].BytesRecv)
	}
	if !c.Initialized() {
		t.Error("Initialized() = false after first poll")
	}
}

func TestNetIOCollector_Sequences(t *testing.T) {
	tests := []struct {
		name     string
		readings []uint64
		want     []uint64
	}{
		{"monotonic", []uint64{100, 150, 400}, []uint64{100, 150, 400}},
		{"unchanged", []uint64{7, 7, 7}, []uint64{7, 7, 7}},
		{"single wrap", []uint64{4294967290, 5}, []uint64{4294967290, 4294967300}},
		{"wrap then grow", []uint64{4294967290, 5, 25}, []uint64{4294967290, 4294967300, 4294967320}},
		{"double wrap", []uint64{4294967000, 100, 50}, []uint64{4294967000, 4294967395, 4294967295 + 4294967345}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{}
			for _, r := range tt.readings {
				src.readings = append(src.readings, reading("eth0", recv(r)))
			}
			c := NewNetIOCollector(src, nil)

			for i, want := range tt.want {
				got, err := c.PerInterface()
				if err != nil {
					t.Fatalf("poll %d: %v", i, err)
				}
				if got["eth0"].BytesRecv != want {
					t.Errorf("poll %d: BytesRecv = %d, want %d", i, got["eth0"].BytesRecv, want)
				}
			}
		})
	}
}

func TestNetIOCollector_AllFieldsCorrected(t *testing.T) {
	before := protocol.NetIOCounters{
		BytesSent: 4294967295, BytesRecv: 10, PacketsSent: 4294967294, PacketsRecv: 10,
		ErrIn: 1, ErrOut: 4294967295, DropIn: 2, DropOut: 4294967290,
	}
	after := protocol.NetIOCounters{
		BytesSent: 1, BytesRecv: 20, PacketsSent: 0, PacketsRecv: 10,
		ErrIn: 1, ErrOut: 0, DropIn: 3, DropOut: 10,
	}
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", before), reading("eth0", after),
	}}
	c := NewNetIOCollector(src, nil)

	if _, err := c.PerInterface(); err != nil {
		t.Fatal(err)
	}
	got, err := c.PerInterface()
	if err != nil {
		t.Fatal(err)
	}

	want := protocol.NetIOCounters{
		BytesSent:   4294967295 + 1,
		BytesRecv:   20,
		PacketsSent: 4294967294 + 1,
		PacketsRecv: 10,
		ErrIn:       1,
		ErrOut:      4294967295,
		DropIn:      3,
		DropOut:     4294967290 + 5 + 10,
	}
	if got["eth0"] != want {
		t.Errorf("corrected = %+v\nwant        %+v", got["eth0"], want)
	}
}

func TestNetIOCollector_InterfacesComeAndGo(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", recv(4294967290)),
		reading("eth0", recv(10), "wlan0", recv(4294967295)),
		reading("wlan0", recv(3)),
		reading("eth0", recv(1), "wlan0", recv(4)),
	}}
	c := NewNetIOCollector(src, nil)

	if _, err := c.PerInterface(); err != nil {
		t.Fatal(err)
	}

	got, _ := c.PerInterface()
	if got["eth0"].BytesRecv != 4294967305 {
		t.Errorf("eth0 = %d, want corrected 4294967305", got["eth0"].BytesRecv)
	}
	if got["wlan0"].BytesRecv != 4294967295 {
		t.Errorf("new wlan0 = %d, want raw passthrough", got["wlan0"].BytesRecv)
	}

	got, _ = c.PerInterface()
	if _, ok := got["eth0"]; ok {
		t.Error("vanished eth0 still reported")
	}
	if got["wlan0"].BytesRecv != 4294967298 {
		t.Errorf("wlan0 = %d, want 4294967298", got["wlan0"].BytesRecv)
	}

	got, _ = c.PerInterface()
	if got["eth0"].BytesRecv != 1 {
		t.Errorf("returning eth0 = %d, want raw 1", got["eth0"].BytesRecv)
	}
	if got["wlan0"].BytesRecv != 4294967299 {
		t.Errorf("wlan0 = %d, want 4294967299", got["wlan0"].BytesRecv)
	}
}

func TestNetIOCollector_ReadFailureKeepsState(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", recv(4294967290)),
		nil,
		reading("eth0", recv(5)),
	}}
	c := NewNetIOCollector(src, nil)

	if _, err := c.PerInterface(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.PerInterface(); !errors.Is(err, errRead) {
		t.Fatalf("error = %v, want wrapped read failure", err)
	}
	got, err := c.PerInterface()
	if err != nil {
		t.Fatal(err)
	}
	if got["eth0"].BytesRecv != 4294967300 {
		t.Errorf("after failed poll = %d, want 4294967300", got["eth0"].BytesRecv)
	}
}

func TestNetIOCollector_ReturnedMapIsACopy(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", recv(100)), reading("eth0", recv(150)),
	}}
	c := NewNetIOCollector(src, nil)

	first, _ := c.PerInterface()
	first["eth0"] = recv(0)

	got, _ := c.PerInterface()
	if got["eth0"].BytesRecv != 150 {
		t.Errorf("BytesRecv = %d, caller mutation leaked into state", got["eth0"].BytesRecv)
	}
}

func TestNetIOCollector_Total(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", recv(4294967290), "lo", recv(100)),
		reading("eth0", recv(5), "lo", recv(200)),
		nil,
	}}
	c := NewNetIOCollector(src, nil)

	total, err := c.Total()
	if err != nil || total.BytesRecv != 4294967390 {
		t.Errorf("Total() = %d, %v; want 4294967390", total.BytesRecv, err)
	}
	total, err = c.Total()
	if err != nil || total.BytesRecv != 4294967300+200 {
		t.Errorf("Total() = %d, %v; want %d", total.BytesRecv, err, uint64(4294967500))
	}
	if _, err := c.Total(); err == nil {
		t.Error("Total() on failing source error = nil")
	}
}

func TestNetIOCollector_Interface(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", recv(4294967290), "lo", recv(1)),
		reading("eth0", recv(5), "lo", recv(2)),
		reading("eth0", recv(6), "lo", recv(3)),
	}}
	c := NewNetIOCollector(src, nil)

	got, err := c.Interface("eth0")
	if err != nil || got.BytesRecv != 4294967290 {
		t.Fatalf("Interface() = %d, %v", got.BytesRecv, err)
	}
	got, err = c.Interface("eth0")
	if err != nil || got.BytesRecv != 4294967300 {
		t.Errorf("Interface() after wrap = %d, %v; want 4294967300", got.BytesRecv, err)
	}

	// An unknown name fails without touching the baseline.
	if _, err := c.Interface("wlan0"); !errors.Is(err, ErrUnknownInterface) {
		t.Errorf("Interface(wlan0) error = %v, want ErrUnknownInterface", err)
	}
}

func TestNetIOCollector_InterfaceSharesState(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("eth0", recv(10), "lo", recv(4294967295)),
		reading("eth0", recv(20), "lo", recv(1)),
		reading("eth0", recv(30), "lo", recv(2)),
	}}
	c := NewNetIOCollector(src, nil)

	if _, err := c.PerInterface(); err != nil {
		t.Fatal(err)
	}
	// Only eth0 survives in the stored snapshot.
	if _, err := c.Interface("eth0"); err != nil {
		t.Fatal(err)
	}
	got, _ := c.PerInterface()
	if got["lo"].BytesRecv != 2 {
		t.Errorf("lo = %d, want raw passthrough after single-interface poll", got["lo"].BytesRecv)
	}
	if got["eth0"].BytesRecv != 30 {
		t.Errorf("eth0 = %d, want 30", got["eth0"].BytesRecv)
	}
}

func TestNowrap(t *testing.T) {
	tests := []struct {
		prev, cur, corrected uint64
		want                 uint64
		wrapped              bool
	}{
		{100, 150, 100, 150, false},
		{100, 100, 5000, 5000, false},
		{4294967290, 5, 4294967290, 4294967300, true},
		{4294967295, 0, 4294967295, 4294967295, true},
		// 64-bit reset: not a 32-bit wrap, corrected moves backwards.
		{1 << 33, 10, 1 << 33, 4294967305, true},
	}

	for _, tt := range tests {
		got, wrapped := nowrap(tt.prev, tt.cur, tt.corrected)
		if got != tt.want || wrapped != tt.wrapped {
			t.Errorf("nowrap(%d, %d, %d) = %d, %v; want %d, %v",
				tt.prev, tt.cur, tt.corrected, got, wrapped, tt.want, tt.wrapped)
		}
	}
}

func TestFilterInterfaces(t *testing.T) {
	m := reading("lo", recv(1), "eth0", recv(2), "veth12ab", recv(3), "docker0", recv(4))

	got := FilterInterfaces(m, []string{"lo", "veth", "docker"})
	if len(got) != 1 || got["eth0"].BytesRecv != 2 {
		t.Errorf("FilterInterfaces() = %v, want only eth0", got)
	}
	if got := FilterInterfaces(m, nil); len(got) != 4 {
		t.Errorf("FilterInterfaces(nil) kept %d, want 4", len(got))
	}
	if len(m) != 4 {
		t.Error("FilterInterfaces modified its input")
	}
}

func TestMakeNetworkCollector(t *testing.T) {
	src := &fakeSource{readings: []map[string]protocol.NetIOCounters{
		reading("lo", recv(1), "eth1", recv(100), "eth0", recv(4294967295)),
		reading("lo", recv(2), "eth1", recv(160), "eth0", recv(9)),
	}}
	collect := MakeNetworkCollector(NewNetIOCollector(src, nil), t.TempDir(), []string{"lo"})

	metrics, err := collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 2 {
		t.Fatalf("got %d metrics, want 2", len(metrics))
	}
	first := metrics[0].(protocol.NetworkMetric)
	if first.Interface != "eth0" || metrics[1].(protocol.NetworkMetric).Interface != "eth1" {
		t.Error("metrics not sorted by interface name")
	}
	if first.Delta != nil {
		t.Error("first collection carries a delta")
	}

	metrics, err = collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	eth0 := metrics[0].(protocol.NetworkMetric)
	if eth0.Delta == nil || eth0.Delta.BytesRecv != 9 {
		t.Errorf("eth0 delta = %+v, want 9 bytes across the wrap", eth0.Delta)
	}
	eth1 := metrics[1].(protocol.NetworkMetric)
	if eth1.Delta == nil || eth1.Delta.BytesRecv != 60 {
		t.Errorf("eth1 delta = %+v, want 60", eth1.Delta)
	}
}
