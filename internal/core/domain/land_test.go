package domain

import "testing"

func TestLandRegistered_FollowUp(t *testing.T) {
	ev := LandRegistered{
		Registration: LandRegistration{ID: "reg-1", UserID: "42", LandID: "17", PolygonID: "poly-17"},
		Token:        "tok",
	}
	got := ev.FollowUp()
	want := LandFollowUp{Token: "tok", UserID: "42", LandID: "17", PolygonID: "poly-17", RegistrationID: "reg-1"}
	if got != want {
		t.Errorf("FollowUp() = %+v, want %+v", got, want)
	}
	if got.Key() != "17" {
		t.Errorf("expected the land id as key, got %q", got.Key())
	}
}

func TestLandFollowUp_KeyFallsBackToRegistration(t *testing.T) {
	a := LandRegistered{Registration: LandRegistration{ID: "reg-1", UserID: "42"}}.FollowUp()
	b := LandRegistered{Registration: LandRegistration{ID: "reg-2", UserID: "43"}}.FollowUp()

	if a.Key() == "" || a.Key() == b.Key() {
		t.Errorf("keys must be distinct and non-empty, got %q and %q", a.Key(), b.Key())
	}
	if a.Key() != "reg-reg-1" {
		t.Errorf("unexpected key %q", a.Key())
	}
}
