package sink

import "context"

// MemSink is an in-process ResultSink fake for tests that don't want a
// live Redis dependency (mirrors memstore's role for pkg/store).
type MemSink struct {
	Buffers  map[string][]ResultRow
	MultiMaps map[string]map[string][]ResultRow
	Perfs    map[string]QueryPerf
}

// NewMemSink returns an empty MemSink.
func NewMemSink() *MemSink {
	return &MemSink{
		Buffers:   make(map[string][]ResultRow),
		MultiMaps: make(map[string]map[string][]ResultRow),
		Perfs:     make(map[string]QueryPerf),
	}
}

func (s *MemSink) QueryResult(ctx context.Context, handle string, perf QueryPerf, buffer []ResultRow) error {
	s.Perfs[handle] = perf
	s.Buffers[handle] = append(s.Buffers[handle], buffer...)
	return nil
}

func (s *MemSink) QueryResultMultiMap(ctx context.Context, handle string, perf QueryPerf, multiMap map[string][]ResultRow) error {
	s.Perfs[handle] = perf
	if _, ok := s.MultiMaps[handle]; !ok {
		s.MultiMaps[handle] = make(map[string][]ResultRow)
	}
	for k, rows := range multiMap {
		s.MultiMaps[handle][k] = append(s.MultiMaps[handle][k], rows...)
	}
	return nil
}
