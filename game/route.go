package game

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beehive/colony"
	"github.com/pthm-cable/beehive/config"
)

// arriveEpsilon is how close the spider must get to count a waypoint reached.
const arriveEpsilon = 1e-3

// routeDriver walks a navigator through a list of waypoints, dwelling at
// each for its configured wait.
type routeDriver struct {
	nav   colony.Navigator
	route []config.Waypoint
	loop  bool

	index   int
	waiting float64
	moving  bool
	done    bool
}

func newRouteDriver(nav colony.Navigator, route []config.Waypoint, loop bool) *routeDriver {
	return &routeDriver{nav: nav, route: route, loop: loop, done: len(route) == 0}
}

func waypointVec(w config.Waypoint) r3.Vec {
	return r3.Vec{X: w.X, Y: w.Y, Z: w.Z}
}

// Update advances the route by dt seconds.
func (d *routeDriver) Update(dt float64) {
	if d.done {
		return
	}
	if !d.moving {
		if d.waiting > 0 {
			d.waiting -= dt
			if d.waiting > 0 {
				return
			}
		}
		d.nav.SetDestination(waypointVec(d.route[d.index]))
		d.moving = true
	}
	if d.nav.RemainingDistance() > arriveEpsilon {
		return
	}

	// Arrived: dwell, then head for the next waypoint
	d.moving = false
	d.waiting = d.route[d.index].Wait
	d.index++
	if d.index >= len(d.route) {
		if !d.loop {
			d.done = true
			d.nav.CancelMovement()
			return
		}
		d.index = 0
	}
}

// Index returns the waypoint currently targeted or next after a dwell.
func (d *routeDriver) Index() int { return d.index }

// Done reports whether a non-looping route has finished.
func (d *routeDriver) Done() bool { return d.done }
