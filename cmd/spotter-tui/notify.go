package main

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/spotting"
)

// proximityAlert raises a desktop notification the first time a flight comes
// within radiusKm of the observer. Each identifier alerts once per session.
type proximityAlert struct {
	radiusKm float64
	notify   func(title, message string) error
	notified map[string]bool
}

func newProximityAlert(radiusKm float64) *proximityAlert {
	beeep.AppName = "Spotty" //nolint:reassign // only way to set the app name
	return &proximityAlert{
		radiusKm: radiusKm,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		notified: make(map[string]bool),
	}
}

// check notifies for newly close flights and returns their callsigns.
func (a *proximityAlert) check(flights []spotting.ResolvedFlight, ref coordinates.Geographic) ([]string, error) {
	var alerted []string
	for _, f := range flights {
		if f.DistanceFrom(ref) > a.radiusKm {
			continue
		}
		if a.notified[f.Identifier] {
			continue
		}
		a.notified[f.Identifier] = true

		msg := fmt.Sprintf("%s %s (%s) at %.1f km", f.Callsign, aircraftType(f), orDash(f.Registration), f.DistanceFrom(ref))
		if r := route(f.Origin, f.Destination); r != "-" {
			msg += "\n" + r
		}
		if err := a.notify("Flight nearby", msg); err != nil {
			return alerted, err
		}
		alerted = append(alerted, f.Callsign)
	}
	return alerted, nil
}
