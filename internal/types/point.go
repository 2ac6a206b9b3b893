// README: Geographic coordinate value object used by the address resolver and oracles.
package types

type Point struct {
	Lat float64
	Lng float64
}
