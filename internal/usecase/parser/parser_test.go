package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gobahrain/gobahrain/internal/domain"
)

func TestParseDayPlan_DirectArray(t *testing.T) {
	raw := `[
		{"spot":"Morning Brew","time":"Morning","type":"restaurant","lat":26.21,"lng":50.58,"reason":"Breakfast"},
		{"spot":"Jazz Night","time":"evening","type":"Event","lat":"26.23","lng":"50.59","reason":"Live music"}
	]`

	got, err := ParseDayPlan(raw)
	if err != nil {
		t.Fatalf("ParseDayPlan: %v", err)
	}
	want := []domain.PlanItem{
		{Spot: "Morning Brew", Time: domain.Morning, Type: domain.PlanRestaurant, Lat: 26.21, Lng: 50.58, Reason: "Breakfast"},
		{Spot: "Jazz Night", Time: domain.Evening, Type: domain.PlanEvent, Lat: 26.23, Lng: 50.59, Reason: "Live music"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDayPlan_ProseWrapped(t *testing.T) {
	raw := "Here is your plan [draft]:\n" +
		`[{"spot":"Bahrain Fort","time":"Afternoon","type":"place","lat":26.23,"lng":50.52,"reason":"History [UNESCO]"}]` +
		"\nEnjoy!"

	got, err := ParseDayPlan(raw)
	if err != nil {
		t.Fatalf("ParseDayPlan: %v", err)
	}
	if len(got) != 1 || got[0].Spot != "Bahrain Fort" || got[0].Reason != "History [UNESCO]" {
		t.Errorf("plan = %+v", got)
	}
}

func TestParseDayPlan_Fenced(t *testing.T) {
	raw := "```json\n[{\"spot\":\"Tree of Life\",\"time\":\"Morning\",\"type\":\"place\",\"lat\":25.99,\"lng\":50.58,\"reason\":\"Desert\"}]\n```"

	got, err := ParseDayPlan(raw)
	if err != nil {
		t.Fatalf("ParseDayPlan: %v", err)
	}
	if len(got) != 1 || got[0].Spot != "Tree of Life" {
		t.Errorf("plan = %+v", got)
	}
}

func TestParseDayPlan_DropsInvalidItems(t *testing.T) {
	raw := `[
		{"spot":"Bahrain Fort","time":"Noon","type":"place"},
		{"spot":"","time":"Morning","type":"place"},
		{"spot":"Souq","time":"Morning","type":"market"},
		{"spot":"Bab Al Bahrain","time":"Morning","type":"place"}
	]`

	got, err := ParseDayPlan(raw)
	if err != nil {
		t.Fatalf("ParseDayPlan: %v", err)
	}
	if len(got) != 1 || got[0].Spot != "Bab Al Bahrain" || got[0].Lat != 0 {
		t.Errorf("plan = %+v", got)
	}
}

func TestParseDayPlan_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "   "},
		{"prose only", "Sorry, I cannot plan that today."},
		{"object not array", `{"spot":"Bahrain Fort"}`},
		{"unterminated", `[{"spot":"Bahrain Fort","time":"Morning"`},
		{"nothing valid", `[{"spot":"Bahrain Fort","time":"Night","type":"place"}]`},
		{"empty array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDayPlan(tt.raw); !errors.Is(err, domain.ErrPlanParse) {
				t.Fatalf("expected ErrPlanParse, got %v", err)
			}
		})
	}
}

func TestParseChatReply(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.ChatReply
	}{
		{
			"json object",
			`{"reply":"Try Bahrain Fort at sunset.","actions":[{"type":"show_reviews","place":"Bahrain Fort"}]}`,
			domain.ChatReply{
				Reply:   "Try Bahrain Fort at sunset.",
				Actions: []domain.Action{{Type: domain.ActionShowReviews, Place: "Bahrain Fort"}},
			},
		},
		{
			"no actions field",
			`{"reply":"Hello!"}`,
			domain.ChatReply{Reply: "Hello!", Actions: []domain.Action{}},
		},
		{
			"fenced json",
			"```json\n{\"reply\":\"Karak tea is a must.\",\"actions\":[{\"type\":\"show_posts\",\"query\":\"karak\"}]}\n```",
			domain.ChatReply{
				Reply:   "Karak tea is a must.",
				Actions: []domain.Action{{Type: domain.ActionShowPosts, Query: "karak"}},
			},
		},
		{
			"object in prose",
			`Sure! {"reply":"Visit the souq.","actions":[]} Hope that helps.`,
			domain.ChatReply{Reply: "Visit the souq.", Actions: []domain.Action{}},
		},
		{
			"invalid actions dropped",
			`{"reply":"Ok","actions":[{"type":"show_posts"},{"type":"open_map","query":"x"},{"type":"show_reviews","place":"Tree of Life"}]}`,
			domain.ChatReply{
				Reply:   "Ok",
				Actions: []domain.Action{{Type: domain.ActionShowReviews, Place: "Tree of Life"}},
			},
		},
		{
			"single action object",
			`{"reply":"Ok","actions":{"type":"show_posts","query":"brunch"}}`,
			domain.ChatReply{Reply: "Ok", Actions: []domain.Action{{Type: domain.ActionShowPosts, Query: "brunch"}}},
		},
		{
			"plain text",
			"Bahrain Fort is lovely in the evening.",
			domain.ChatReply{Reply: "Bahrain Fort is lovely in the evening.", Actions: []domain.Action{}},
		},
		{
			"non-string reply",
			`{"reply": 42}`,
			domain.ChatReply{Reply: `{"reply": 42}`, Actions: []domain.Action{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseChatReply(tt.raw)); diff != "" {
				t.Errorf("reply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseChatReply_CapsActions(t *testing.T) {
	got := ParseChatReply(`{"reply":"Ok","actions":[
		{"type":"show_posts","query":"brunch"},
		{"type":"show_reviews","place":"Bahrain Fort"}
	]}`)
	if len(got.Actions) != MaxActions || got.Actions[0].Query != "brunch" {
		t.Errorf("actions = %+v", got.Actions)
	}
}

func TestParse_Dispatch(t *testing.T) {
	res, err := Parse("  hello  ", ShapePlainText)
	if err != nil || res.Text != "hello" {
		t.Errorf("plain text = %+v, %v", res, err)
	}

	res, err = Parse("not json", ShapeChatReply)
	if err != nil || res.Chat.Reply != "not json" {
		t.Errorf("chat = %+v, %v", res, err)
	}

	if _, err = Parse("not json", ShapeDayPlan); !errors.Is(err, domain.ErrPlanParse) {
		t.Errorf("expected ErrPlanParse, got %v", err)
	}

	if _, err = Parse("x", Shape(99)); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestBalanced_SkipsBracketsInStrings(t *testing.T) {
	got := balanced(`x ["a]", "b"] y [1]`, '[', ']')
	want := []string{`["a]", "b"]`, `[1]`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("balanced mismatch (-want +got):\n%s", diff)
	}
}
