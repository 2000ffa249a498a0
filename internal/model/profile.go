package model

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"

	GoalLoseWeight     = "Lose Weight"
	GoalMaintainWeight = "Maintain Weight"
	GoalGainMuscle     = "Gain Muscle"
)

// Genders lists the accepted gender values.
var Genders = []string{GenderMale, GenderFemale, GenderOther}

// Goals lists the accepted fitness goals.
var Goals = []string{GoalLoseWeight, GoalMaintainWeight, GoalGainMuscle}

// Profile is the write-once body metrics block of a user.
// A nil field has never been written.
type Profile struct {
	Age    *int     `json:"age"`
	Weight *float64 `json:"weight"`
	Height *float64 `json:"height"`
	Gender *string  `json:"gender"`
	Goal   *string  `json:"goal"`
}

// IsEmpty reports whether no profile field has been written yet.
func (p Profile) IsEmpty() bool {
	return p.Age == nil && p.Weight == nil && p.Height == nil && p.Gender == nil && p.Goal == nil
}

// ProfileRequest represents a profile creation request. Weight is in kg, height in cm.
type ProfileRequest struct {
	Age    int     `json:"age" validate:"required,gt=0,lte=150"`
	Weight float64 `json:"weight" validate:"required,gt=0,lte=1000"`
	Height float64 `json:"height" validate:"required,gt=0,lte=300"`
	Gender string  `json:"gender" validate:"required,gender"`
	Goal   string  `json:"goal" validate:"required,goal"`
}

// ToProfile converts a validated request into a fully populated Profile.
func (r ProfileRequest) ToProfile() Profile {
	age, weight, height, gender, goal := r.Age, r.Weight, r.Height, r.Gender, r.Goal
	return Profile{
		Age:    &age,
		Weight: &weight,
		Height: &height,
		Gender: &gender,
		Goal:   &goal,
	}
}

// ProfileResponse wraps a profile for API responses.
type ProfileResponse struct {
	Profile Profile `json:"profile"`
}
