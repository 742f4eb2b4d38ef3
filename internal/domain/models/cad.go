package models

// MiscCadSettings holds the CAD wide inactivity timeouts, in minutes.
// A nil or non-positive timeout disables that expiry.
type MiscCadSettings struct {
	BaseModel
	CallInactivityTimeout              *int `json:"callInactivityTimeout"`
	IncidentInactivityTimeout          *int `json:"incidentInactivityTimeout"`
	UnitInactivityTimeout              *int `json:"unitInactivityTimeout"`
	ActiveDispatchersInactivityTimeout *int `json:"activeDispatchersInactivityTimeout"`
	ActiveWarrantsInactivityTimeout    *int `json:"activeWarrantsInactivityTimeout"`
}

type Feature string

const (
	FeatureWarrantStatusApproval Feature = "WARRANT_STATUS_APPROVAL"
	FeatureActiveDispatchers     Feature = "ACTIVE_DISPATCHERS"
	FeatureActiveIncidents       Feature = "ACTIVE_INCIDENTS"
	FeatureCalls911              Feature = "CALLS_911"
	FeatureTow                   Feature = "TOW"
	FeatureTaxi                  Feature = "TAXI"
)

// DefaultFeatures is used for features without a stored row
var DefaultFeatures = map[Feature]bool{
	FeatureWarrantStatusApproval: false,
	FeatureActiveDispatchers:     true,
	FeatureActiveIncidents:       true,
	FeatureCalls911:              true,
	FeatureTow:                   true,
	FeatureTaxi:                  true,
}

func (f Feature) Valid() bool {
	_, ok := DefaultFeatures[f]
	return ok
}

type CadFeature struct {
	BaseModel
	Feature   Feature `gorm:"type:varchar(50);uniqueIndex;not null" json:"feature"`
	IsEnabled bool    `json:"isEnabled"`
}
