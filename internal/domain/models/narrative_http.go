package models

// Requests for the narrative and risk HTTP endpoints.

type ProfileRequest struct {
	Type        string `query:"type" json:"type" default:"Balanced"`
	TimeHorizon string `query:"time_horizon" json:"time_horizon" default:"Medium-term"`
	PrimaryGoal string `query:"primary_goal" json:"primary_goal" default:"Growth"`
}

// Profile normalises the request fields; unrecognised values fall back to
// the defaults. The returned slice names the fields that were replaced.
func (p ProfileRequest) Profile() (InvestorProfile, []string) {
	var replaced []string
	t, ok := ParseInvestorType(p.Type)
	if !ok {
		replaced = append(replaced, "type")
	}
	h, ok := ParseTimeHorizon(p.TimeHorizon)
	if !ok {
		replaced = append(replaced, "time_horizon")
	}
	g, ok := ParsePrimaryGoal(p.PrimaryGoal)
	if !ok {
		replaced = append(replaced, "primary_goal")
	}
	return InvestorProfile{Type: t, TimeHorizon: h, PrimaryGoal: g}, replaced
}

type NarrativeRequest struct {
	Symbol          string         `json:"symbol" validate:"required,max=20"`
	InvestorProfile ProfileRequest `json:"investor_profile"`
}

type NarrativeQuery struct {
	Symbol string `param:"symbol" validate:"required,max=20"`
	ProfileRequest
}

type RiskSymbolRequest struct {
	Symbol string `param:"symbol" validate:"required,max=20"`
}
