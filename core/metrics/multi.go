package metrics

import "errors"

// MultiSink fans events out to several sinks. Recording continues past
// individual sink failures; the joined error is returned at the end.
type MultiSink struct {
	sinks []MetricsSink
}

// NewMultiSink creates a MultiSink from the given sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordFlightEvent(ev FlightEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordFlightEvent(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordTelemetry(ev TelemetryEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if tr, ok := s.(TelemetryRecorder); ok {
			if err := tr.RecordTelemetry(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordScore(ev ScoreEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if sr, ok := s.(ScoreRecorder); ok {
			if err := sr.RecordScore(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordFleetSize(size int) error {
	var errs []error
	for _, s := range m.sinks {
		if fr, ok := s.(FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
