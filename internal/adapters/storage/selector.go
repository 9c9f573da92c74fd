package storage

import (
	"log"
	"sync"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

// Capabilities describes what the host platform offers.
type Capabilities struct {
	WidgetBridge bool
}

// Select picks the backend for a set of capabilities.
func Select(caps Capabilities, bridge, embedded domain.StorageBackend) domain.StorageBackend {
	if caps.WidgetBridge && bridge != nil {
		return bridge
	}
	return embedded
}

// Selector probes the platform once per process and caches the chosen backend.
type Selector struct {
	probe    func() Capabilities
	bridge   func() domain.StorageBackend
	embedded func() domain.StorageBackend

	once    sync.Once
	backend domain.StorageBackend
}

func NewSelector(probe func() Capabilities, bridge, embedded func() domain.StorageBackend) *Selector {
	return &Selector{
		probe:    probe,
		bridge:   bridge,
		embedded: embedded,
	}
}

func (s *Selector) Backend() domain.StorageBackend {
	s.once.Do(func() {
		caps := s.probe()

		var bridge domain.StorageBackend
		if caps.WidgetBridge && s.bridge != nil {
			bridge = s.bridge()
		}

		s.backend = Select(caps, bridge, s.embedded())
		log.Printf("[STORAGE] Using %s backend (widget bridge: %t)", s.backend.Name(), caps.WidgetBridge)
	})
	return s.backend
}
