// Package daytime computes sunrise, sunset and day length from a
// timestamp and a geographic position, using the standard sunrise
// equation (Julian-day reduction, solar mean anomaly,
// equation-of-centre, ecliptic longitude, hour-angle).
package daytime

import (
	"math"
	"time"
)

// unixEpochJulian is the Julian day number at the Unix epoch
// (1970-01-01T00:00:00Z).
const unixEpochJulian = 2440587.5

// TimeOfDay enumerates the phases the reactor can react to. Compute's
// own Result only ever distinguishes Day from Night; Dawn and Dusk
// exist so configuration can opt into finer bands around the two
// transitions without the engine allocating them automatically.
type TimeOfDay int

const (
	Night TimeOfDay = iota
	Dawn
	Day
	Dusk
)

func (t TimeOfDay) String() string {
	switch t {
	case Dawn:
		return "Dawn"
	case Day:
		return "Day"
	case Dusk:
		return "Dusk"
	default:
		return "Night"
	}
}

// Result is the sunrise/sunset outcome for one UTC calendar day at a
// fixed position.
type Result struct {
	Sunrise   int64 // unix seconds; zero when Polar
	Sunset    int64
	DayLength time.Duration
	Polar     bool // true when the hour-angle cosine falls outside [-1, +1]
}

// Compute derives sunrise and sunset for the UTC calendar day
// containing ts, at (latitude, longitude) in degrees and elevation in
// meters. When the position is in polar day or polar night, Polar is
// set and Sunrise/Sunset are zero.
func Compute(ts int64, latitude, longitude, elevationMeters float64) Result {
	dayStart := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
	dayJulian := float64(dayStart.Unix())/86400.0 + unixEpochJulian

	n := math.Round(dayJulian - 2451545.0 - longitude/360.0)
	meanSolarNoon := n + longitude/360.0

	meanAnomalyDeg := normalizeDegrees(357.5291 + 0.98560028*meanSolarNoon)
	meanAnomaly := meanAnomalyDeg * math.Pi / 180

	equationOfCenter := 1.9148*math.Sin(meanAnomaly) +
		0.0200*math.Sin(2*meanAnomaly) +
		0.0003*math.Sin(3*meanAnomaly)

	eclipticLongitudeDeg := normalizeDegrees(meanAnomalyDeg + 102.9372 + equationOfCenter + 180)
	eclipticLongitude := eclipticLongitudeDeg * math.Pi / 180

	solarTransit := 2451545.0 + meanSolarNoon +
		0.0053*math.Sin(meanAnomaly) - 0.0069*math.Sin(2*eclipticLongitude)

	declination := math.Asin(math.Sin(eclipticLongitude) * math.Sin(23.4397*math.Pi/180))

	elevationCorrectionDeg := 2.076 * math.Sqrt(math.Max(elevationMeters, 0)) / 60.0
	zenith := (90.833 + elevationCorrectionDeg) * math.Pi / 180

	phi := latitude * math.Pi / 180
	cosHourAngle := (math.Cos(zenith) - math.Sin(phi)*math.Sin(declination)) /
		(math.Cos(phi) * math.Cos(declination))

	if cosHourAngle < -1 || cosHourAngle > 1 {
		return Result{Polar: true}
	}

	hourAngleDeg := math.Acos(cosHourAngle) * 180 / math.Pi
	sunrise := julianToUnix(solarTransit - hourAngleDeg/360)
	sunset := julianToUnix(solarTransit + hourAngleDeg/360)

	return Result{
		Sunrise:   sunrise,
		Sunset:    sunset,
		DayLength: time.Duration(sunset-sunrise) * time.Second,
	}
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func julianToUnix(jd float64) int64 {
	return int64(math.Round((jd - unixEpochJulian) * 86400.0))
}

// GetTimeOfDay reports Day when sunrise <= ts <= sunset, Night
// otherwise; polar day/night always reports Night, matching the
// engine's rule that it never allocates Dawn/Dusk on its own.
func (r Result) GetTimeOfDay(ts int64) TimeOfDay {
	if r.Polar {
		return Night
	}
	if ts >= r.Sunrise && ts <= r.Sunset {
		return Day
	}
	return Night
}

// GetTimeOfDayEnd returns the next transition instant after ts:
// sunrise if ts precedes it, sunset if ts falls within the day, or
// (once ts is past sunset) tomorrow's sunrise computed as
// today's Sunrise + 86400, without a second call to Compute.
func (r Result) GetTimeOfDayEnd(ts int64) int64 {
	if r.Polar {
		return ts + 86400
	}
	switch {
	case ts < r.Sunrise:
		return r.Sunrise
	case ts <= r.Sunset:
		return r.Sunset
	default:
		return r.Sunrise + 86400
	}
}
