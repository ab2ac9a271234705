// Package provider queries the hosting provider's dedicated-server
// availability catalog and answers whether a given offer can be ordered
// right now in a given zone.
package provider

import (
	"strings"

	"github.com/serverwatch/availability-watch/internal/domain"
)

// Availability values that mean the offer cannot be ordered.
const (
	AvailabilityUnavailable = "unavailable"
	AvailabilityUnknown     = "unknown"
)

// Catalog is the availability document published by the provider.
type Catalog struct {
	Answer struct {
		Availability []Offer `json:"availability"`
	} `json:"answer"`
}

// Offer is the availability of one server reference across datacenters.
type Offer struct {
	Reference string       `json:"reference"`
	Zones     []Datacenter `json:"zones"`
	MetaZones []Datacenter `json:"metaZones"`
}

// Datacenter is a single (zone, availability) pair. Zone holds a datacenter
// code such as "gra" or "bhs" for Zones, and a region such as "ca" or "fr"
// for MetaZones.
type Datacenter struct {
	Zone         string `json:"zone"`
	Availability string `json:"availability"`
}

// Available reports whether the datacenter currently has stock.
func (d Datacenter) Available() bool {
	switch strings.ToLower(strings.TrimSpace(d.Availability)) {
	case "", AvailabilityUnavailable, AvailabilityUnknown:
		return false
	}
	return true
}

// ZoneOf maps a provider datacenter (or meta zone) code to a watch zone.
func ZoneOf(code string) domain.Zone {
	switch strings.ToLower(code) {
	case "bhs", "ca":
		return domain.ZoneCanada
	}
	return domain.ZoneEurope
}

// IsOfferAvailable reports whether reference has at least one datacenter
// with stock in zone. ZoneAll matches every datacenter. Reference comparison
// ignores case; unknown references are reported unavailable.
func (c *Catalog) IsOfferAvailable(reference string, zone domain.Zone) bool {
	if c == nil {
		return false
	}
	for _, o := range c.Answer.Availability {
		if !strings.EqualFold(o.Reference, reference) {
			continue
		}
		for _, dc := range o.Zones {
			if dc.Available() && (zone == domain.ZoneAll || ZoneOf(dc.Zone) == zone) {
				return true
			}
		}
		for _, mz := range o.MetaZones {
			if mz.Available() && (zone == domain.ZoneAll || ZoneOf(mz.Zone) == zone) {
				return true
			}
		}
	}
	return false
}
