package training

const (
	runningCaloriesMeanSpeedMultiplier = 18
	runningCaloriesMeanSpeedShift      = 20

	walkingCaloriesWeightMultiplier = 0.035
	walkingSpeedHeightMultiplier    = 0.029

	swimmingLenStep                  = 1.38
	swimmingCaloriesMeanSpeedShift   = 1.1
	swimmingCaloriesWeightMultiplier = 2
)

// Running uses the base step length.
type Running struct {
	Training
}

// NewRunning builds a running session from steps, hours and kilograms.
func NewRunning(action int, duration, weight float64) (Running, error) {
	t, err := NewTraining(action, duration, weight)
	if err != nil {
		return Running{}, err
	}
	return Running{Training: t}, nil
}

func (r Running) TrainingType() string { return "Running" }

func (r Running) SpentCalories() (float64, error) {
	return (runningCaloriesMeanSpeedMultiplier*r.MeanSpeed() - runningCaloriesMeanSpeedShift) *
		r.weight / mInKm * r.minutes(), nil
}

// SportsWalking adds the walker's height in centimeters.
type SportsWalking struct {
	Training
	height float64
}

// NewSportsWalking builds a walking session; height is in centimeters.
func NewSportsWalking(action int, duration, weight, height float64) (SportsWalking, error) {
	t, err := NewTraining(action, duration, weight)
	if err != nil {
		return SportsWalking{}, err
	}
	if err := positive("height", height); err != nil {
		return SportsWalking{}, err
	}
	return SportsWalking{Training: t, height: height}, nil
}

func (w SportsWalking) TrainingType() string { return "SportsWalking" }

// Height returns the walker's height in centimeters.
func (w SportsWalking) Height() float64 { return w.height }

// SpentCalories floors speed²/height before applying the coefficient.
func (w SportsWalking) SpentCalories() (float64, error) {
	speed := w.MeanSpeed()
	return (walkingCaloriesWeightMultiplier*w.weight +
		floorDiv(speed*speed, w.height)*walkingSpeedHeightMultiplier*w.weight) * w.minutes(), nil
}

// Swimming measures speed from the pool geometry rather than from strokes.
type Swimming struct {
	Training
	lengthPool float64
	countPool  int
}

// NewSwimming builds a swimming session; lengthPool is in meters and
// countPool is the number of completed laps.
func NewSwimming(action int, duration, weight, lengthPool float64, countPool int) (Swimming, error) {
	t, err := NewTraining(action, duration, weight)
	if err != nil {
		return Swimming{}, err
	}
	if err := positive("length_pool", lengthPool); err != nil {
		return Swimming{}, err
	}
	if countPool < 0 {
		return Swimming{}, invalid("count_pool", float64(countPool), "must not be negative")
	}
	return Swimming{Training: t, lengthPool: lengthPool, countPool: countPool}, nil
}

func (s Swimming) TrainingType() string { return "Swimming" }

// LengthPool returns the pool length in meters.
func (s Swimming) LengthPool() float64 { return s.lengthPool }

// CountPool returns the number of laps swum.
func (s Swimming) CountPool() int { return s.countPool }

// Distance is reported from strokes with the swimming stroke length.
func (s Swimming) Distance() float64 {
	return distance(s.action, swimmingLenStep)
}

func (s Swimming) MeanSpeed() float64 {
	if s.duration <= 0 {
		return 0
	}
	return s.lengthPool * float64(s.countPool) / mInKm / s.duration
}

func (s Swimming) SpentCalories() (float64, error) {
	return (s.MeanSpeed() + swimmingCaloriesMeanSpeedShift) *
		swimmingCaloriesWeightMultiplier * s.weight, nil
}
