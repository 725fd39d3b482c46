package policy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/model"
)

func intPtr(i int) *int { return &i }

func TestWeeklyTarget(t *testing.T) {
	tests := []struct {
		name  string
		chore model.ChoreDefinition
		want  int
	}{
		{"daily", model.ChoreDefinition{Frequency: model.FrequencyDaily, TimesPerDay: 1}, 7},
		{"twice daily", model.ChoreDefinition{Frequency: model.FrequencyTwiceDaily, TimesPerDay: 2}, 14},
		{"weekly", model.ChoreDefinition{Frequency: model.FrequencyWeekly, TimesPerDay: 1}, 1},
		{"flexible with times per week", model.ChoreDefinition{Frequency: model.FrequencyFlexible, TimesPerWeek: intPtr(3)}, 3},
		{"flexible unset defaults to one", model.ChoreDefinition{Frequency: model.FrequencyFlexible}, 1},
		{"specific days counts preferred days", model.ChoreDefinition{Frequency: model.FrequencySpecificDays, PreferredDays: []int{0, 5}}, 2},
		{"ad hoc", model.ChoreDefinition{Frequency: model.FrequencyAdHoc}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeklyTarget(&tt.chore); got != tt.want {
				t.Errorf("WeeklyTarget = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMaxWeeklyAmount(t *testing.T) {
	chore := model.ChoreDefinition{
		Frequency:   model.FrequencyTwiceDaily,
		TimesPerDay: 2,
		Amount:      decimal.RequireFromString("0.25"),
	}
	want := decimal.RequireFromString("3.50")
	if got := MaxWeeklyAmount(&chore); !got.Equal(want) {
		t.Errorf("MaxWeeklyAmount = %s, want %s", got, want)
	}
}

func TestAppliesToUser(t *testing.T) {
	all := model.ChoreDefinition{AppliesToAll: true}
	if !AppliesToUser(&all, 42) {
		t.Error("applies_to_all chore should apply to any user")
	}

	some := model.ChoreDefinition{AssignedUserIDs: []int64{1, 3}}
	if !AppliesToUser(&some, 3) {
		t.Error("user 3 is in the assignee set")
	}
	if AppliesToUser(&some, 2) {
		t.Error("user 2 is not in the assignee set")
	}
}

func TestIsPreferredDay(t *testing.T) {
	specific := model.ChoreDefinition{
		Frequency:     model.FrequencySpecificDays,
		PreferredDays: []int{0, 5},
	}
	if !IsPreferredDay(&specific, 0) || !IsPreferredDay(&specific, 5) {
		t.Error("preferred days should match")
	}
	if IsPreferredDay(&specific, 3) {
		t.Error("thursday is not preferred")
	}

	// Other frequencies never restrict days.
	daily := model.ChoreDefinition{Frequency: model.FrequencyDaily}
	for d := 0; d < 7; d++ {
		if !IsPreferredDay(&daily, d) {
			t.Errorf("daily chore should allow day %d", d)
		}
	}
}

func TestSlots(t *testing.T) {
	twice := model.ChoreDefinition{Frequency: model.FrequencyTwiceDaily, TimesPerDay: 2}
	if got := Slots(&twice); len(got) != 2 || got[0] != model.SlotMorning || got[1] != model.SlotEvening {
		t.Errorf("Slots(twice_daily) = %v, want [1 2]", got)
	}
	daily := model.ChoreDefinition{Frequency: model.FrequencyDaily}
	if got := Slots(&daily); len(got) != 1 || got[0] != model.SlotMorning {
		t.Errorf("Slots(daily) = %v, want [1]", got)
	}
}
