// internal/models/scope.go
package models

import "fmt"

// Scope selects either one hub or every hub.
type Scope struct {
	HubID  int
	Global bool
}

func GlobalScope() Scope {
	return Scope{Global: true}
}

func HubScope(hubID int) Scope {
	return Scope{HubID: hubID}
}

// HubFilter returns the hub id to filter on, or nil for the global scope.
func (s Scope) HubFilter() *int {
	if s.Global {
		return nil
	}
	id := s.HubID
	return &id
}

func (s Scope) String() string {
	if s.Global {
		return "global"
	}
	return fmt.Sprintf("hub:%d", s.HubID)
}
