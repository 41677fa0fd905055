package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DeviceKind identifies a supported wearable or home health device.
type DeviceKind string

// Device kinds the telemetry store accepts.
const (
	DeviceSmartwatch           DeviceKind = "Smartwatch"
	DeviceFitnessBand          DeviceKind = "FitnessBand"
	DeviceBloodPressureMonitor DeviceKind = "BloodPressureMonitor"
	DeviceSmartScale           DeviceKind = "SmartScale"
)

// KnownDeviceKinds returns every supported device kind in display order.
func KnownDeviceKinds() []DeviceKind {
	return []DeviceKind{
		DeviceSmartwatch, DeviceFitnessBand,
		DeviceBloodPressureMonitor, DeviceSmartScale,
	}
}

// IsValid returns true if d is one of the supported device kinds.
func (d DeviceKind) IsValid() bool {
	for _, known := range KnownDeviceKinds() {
		if d == known {
			return true
		}
	}
	return false
}

// ParseDeviceKind matches s against the supported device kinds, ignoring
// case and surrounding whitespace.
func ParseDeviceKind(s string) (DeviceKind, bool) {
	trimmed := strings.TrimSpace(s)
	for _, known := range KnownDeviceKinds() {
		if strings.EqualFold(trimmed, string(known)) {
			return known, true
		}
	}
	return "", false
}

// DeviceSession is one recording pushed by a device. Metrics carry the
// device-specific readings (heart rate and steps for a smartwatch, systolic
// and diastolic pressure for a monitor, and so on); the store does not
// interpret them.
type DeviceSession struct {
	Device     DeviceKind         `json:"device"`
	RecordedAt time.Time          `json:"recorded_at"`
	Metrics    map[string]float64 `json:"metrics"`
}

// MetricsSummary renders the metrics as "name: value" pairs sorted by name,
// for report tables and prompt payloads.
func (s DeviceSession) MetricsSummary() string {
	if len(s.Metrics) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.Metrics))
	for name := range s.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := strconv.FormatFloat(s.Metrics[name], 'f', -1, 64)
		parts = append(parts, fmt.Sprintf("%s: %s", name, value))
	}
	return strings.Join(parts, ", ")
}
