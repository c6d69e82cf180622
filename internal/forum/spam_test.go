package forum

import (
	"reflect"
	"strings"
	"testing"
)

func TestDetectSpam(t *testing.T) {
	cases := []struct {
		name       string
		content    string
		wantSpam   bool
		wantConf   int
		wantReason []string
	}{
		{
			name:       "clean",
			content:    "Waiting for the retest of the weekly level before adding size.",
			wantReason: []string{},
		},
		{
			name:       "empty",
			content:    "",
			wantReason: []string{},
		},
		{
			name:       "whitespace_only",
			content:    "   \n\t ",
			wantReason: []string{},
		},
		{
			name:       "shouting_repetition_promo",
			content:    "BUY NOW BUY NOW BUY NOW",
			wantSpam:   true,
			wantConf:   85,
			wantReason: []string{ReasonPromotional, ReasonCaps, ReasonRepetitive},
		},
		{
			name:       "links_over_limit",
			content:    "see https://a.io http://b.io https://c.io https://d.io for charts on each setup today",
			wantConf:   30,
			wantReason: []string{ReasonLinks},
		},
		{
			name:       "three_links_ok",
			content:    "see https://a.io http://b.io https://c.io for charts on each setup today",
			wantReason: []string{},
		},
		{
			name:       "promo_phrases_each_count",
			content:    "Click here for free money and guaranteed profit on every single position you open this week",
			wantSpam:   true,
			wantConf:   60,
			wantReason: []string{ReasonPromotional},
		},
		{
			name:       "confidence_capped",
			content:    "BUY NOW CLICK HERE FREE MONEY GUARANTEED PROFIT LIMITED TIME https://a.io https://a.io https://a.io https://a.io BUY NOW BUY NOW BUY NOW BUY NOW BUY NOW BUY NOW",
			wantSpam:   true,
			wantConf:   100,
			wantReason: []string{ReasonLinks, ReasonPromotional, ReasonCaps, ReasonRepetitive},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectSpam(tc.content)
			if got.IsSpam != tc.wantSpam || got.Confidence != tc.wantConf {
				t.Fatalf("DetectSpam(%q)=%+v, want spam=%v confidence=%d", tc.content, got, tc.wantSpam, tc.wantConf)
			}
			if !reflect.DeepEqual(got.Reasons, tc.wantReason) {
				t.Fatalf("reasons=%v, want %v", got.Reasons, tc.wantReason)
			}
		})
	}
}

func TestDetectSpamDeterministic(t *testing.T) {
	inputs := []string{"", "hello world", "BUY NOW BUY NOW", strings.Repeat("spam ", 40)}
	for _, in := range inputs {
		first := DetectSpam(in)
		for i := 0; i < 5; i++ {
			if again := DetectSpam(in); !reflect.DeepEqual(first, again) {
				t.Fatalf("DetectSpam(%q) not deterministic: %+v vs %+v", in, first, again)
			}
		}
	}
}
