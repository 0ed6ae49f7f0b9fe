package tokenizer

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single word",
			text: "Bordeaux",
			want: []string{"Bordeaux"},
		},
		{
			name: "whitespace separated",
			text: "Margaux Bordeaux red",
			want: []string{"Margaux", "Bordeaux", "red"},
		},
		{
			name: "comma separated",
			text: "Margaux,Bordeaux,red",
			want: []string{"Margaux", "Bordeaux", "red"},
		},
		{
			name: "comma with surrounding whitespace",
			text: "Margaux , Bordeaux",
			want: []string{"Margaux", "Bordeaux"},
		},
		{
			name: "run of mixed separators",
			text: "a,, \t b",
			want: []string{"a", "b"},
		},
		{
			name: "leading whitespace yields empty edge token",
			text: " Margaux",
			want: []string{"", "Margaux"},
		},
		{
			name: "trailing whitespace yields empty edge token",
			text: "Margaux ",
			want: []string{"Margaux", ""},
		},
		{
			name: "empty input yields single empty token",
			text: "",
			want: []string{""},
		},
		{
			name: "case is preserved",
			text: "Bordeaux bordeaux",
			want: []string{"Bordeaux", "bordeaux"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := " Chateau Margaux, Bordeaux  2015 "
	first := Split(text)
	for i := 0; i < 100; i++ {
		if got := Split(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: Split returned %#v, previously %#v", i, got, first)
		}
	}
}
