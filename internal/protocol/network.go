package protocol

// NetIOCounters holds the cumulative traffic counters of one interface.
type NetIOCounters struct {
	BytesSent   uint64 `json:"bytes_sent" yaml:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv" yaml:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent" yaml:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv" yaml:"packets_recv"`
	ErrIn       uint64 `json:"err_in" yaml:"err_in"`
	ErrOut      uint64 `json:"err_out" yaml:"err_out"`
	DropIn      uint64 `json:"drop_in" yaml:"drop_in"`
	DropOut     uint64 `json:"drop_out" yaml:"drop_out"`
}

// Add returns the component-wise sum of c and o.
func (c NetIOCounters) Add(o NetIOCounters) NetIOCounters {
	return NetIOCounters{
		BytesSent:   c.BytesSent + o.BytesSent,
		BytesRecv:   c.BytesRecv + o.BytesRecv,
		PacketsSent: c.PacketsSent + o.PacketsSent,
		PacketsRecv: c.PacketsRecv + o.PacketsRecv,
		ErrIn:       c.ErrIn + o.ErrIn,
		ErrOut:      c.ErrOut + o.ErrOut,
		DropIn:      c.DropIn + o.DropIn,
		DropOut:     c.DropOut + o.DropOut,
	}
}

// Sub returns the component-wise difference c - o. It is meant for
// displaying deltas between two corrected readings.
func (c NetIOCounters) Sub(o NetIOCounters) NetIOCounters {
	return NetIOCounters{
		BytesSent:   c.BytesSent - o.BytesSent,
		BytesRecv:   c.BytesRecv - o.BytesRecv,
		PacketsSent: c.PacketsSent - o.PacketsSent,
		PacketsRecv: c.PacketsRecv - o.PacketsRecv,
		ErrIn:       c.ErrIn - o.ErrIn,
		ErrOut:      c.ErrOut - o.ErrOut,
		DropIn:      c.DropIn - o.DropIn,
		DropOut:     c.DropOut - o.DropOut,
	}
}

// SumCounters folds every interface in m into one total.
func SumCounters(m map[string]NetIOCounters) NetIOCounters {
	var total NetIOCounters
	for _, c := range m {
		total = total.Add(c)
	}
	return total
}
