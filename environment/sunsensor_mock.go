package environment

import (
	"context"
	"time"
)

// LuxBehaviorFunc defines the function signature for a single light channel.
// It returns the raw 16-bit channel value or an error.
type LuxBehaviorFunc func(ctx context.Context) (uint16, error)

// MockSunSensor is a mock implementation of the sun sensor that uses behavior
// functions to produce results without requiring any hardware.
type MockSunSensor struct {
	visible  LuxBehaviorFunc
	infrared LuxBehaviorFunc
	initErr  error
}

// NewMockSunSensor creates a new mock sun sensor with the given behavior functions.
// The visible behavior is called by ReadVisibleLux() and Read(), the infrared
// behavior by ReadInfraredLux() and Read().
//
// Example usage:
//
//	// Static values
//	sensor := NewMockSunSensor(
//		func(ctx context.Context) (uint16, error) { return 500, nil },
//		func(ctx context.Context) (uint16, error) { return 120, nil },
//	)
//
//	// Error simulation
//	sensor := NewMockSunSensor(
//		func(ctx context.Context) (uint16, error) { return 0, fmt.Errorf("sensor malfunction") },
//		func(ctx context.Context) (uint16, error) { return 0, nil },
//	)
func NewMockSunSensor(visible, infrared LuxBehaviorFunc) *MockSunSensor {
	return &MockSunSensor{
		visible:  visible,
		infrared: infrared,
	}
}

// FailInitialize makes subsequent Initialize calls return err.
func (m *MockSunSensor) FailInitialize(err error) *MockSunSensor {
	m.initErr = err
	return m
}

func (m *MockSunSensor) Initialize(ctx context.Context) error {
	return m.initErr
}

// ReadVisibleLux returns the visible channel by calling the visible behavior function.
func (m *MockSunSensor) ReadVisibleLux(ctx context.Context) (uint16, error) {
	return m.visible(ctx)
}

// ReadInfraredLux returns the infrared channel by calling the infrared behavior function.
func (m *MockSunSensor) ReadInfraredLux(ctx context.Context) (uint16, error) {
	return m.infrared(ctx)
}

// Read returns both channels by calling both behavior functions.
func (m *MockSunSensor) Read(ctx context.Context) (SunReading, error) {
	vis, err := m.visible(ctx)
	if err != nil {
		return SunReading{}, err
	}
	ir, err := m.infrared(ctx)
	if err != nil {
		return SunReading{}, err
	}
	return SunReading{Visible: vis, Infrared: ir, Time: time.Now()}, nil
}
