package protocol

// TemperatureSensor is a single temperature channel in degrees Celsius.
// Optional values are nil when the platform did not expose them.
type TemperatureSensor struct {
	Unit     string   `json:"unit" yaml:"unit"`
	Label    *string  `json:"label,omitempty" yaml:"label,omitempty"`
	Current  float64  `json:"current" yaml:"current"`
	High     *float64 `json:"high,omitempty" yaml:"high,omitempty"`
	Critical *float64 `json:"critical,omitempty" yaml:"critical,omitempty"`
	Low      *float64 `json:"low,omitempty" yaml:"low,omitempty"`
	SensorID *string  `json:"sensor_id,omitempty" yaml:"sensor_id,omitempty"` // e.g. hwmon0
}

// Name returns the label if present, falling back to the unit.
func (s TemperatureSensor) Name() string {
	if s.Label != nil && *s.Label != "" {
		return *s.Label
	}
	return s.Unit
}
