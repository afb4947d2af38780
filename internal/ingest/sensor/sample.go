package sensor

import "github.com/meltforce/ftracker/internal/models"

// SamplePackets returns the three reference packets: a swim, a run and a walk.
func SamplePackets() []models.Packet {
	return []models.Packet{
		{Code: "SWM", Data: []float64{720, 1, 80, 25, 40}},
		{Code: "RUN", Data: []float64{15000, 1, 75}},
		{Code: "WLK", Data: []float64{9000, 1, 75, 180}},
	}
}
