package common

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"LNS14000000", []string{"LNS14000000"}},
		{" LNS14000000 ,CES0000000001,", []string{"LNS14000000", "CES0000000001"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, SplitList(tt.in)); diff != "" {
			t.Errorf("SplitList(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestHasAny(t *testing.T) {
	if !HasAny("daily threshold reached", "quota", "threshold") {
		t.Errorf("HasAny() missed a substring")
	}
	if HasAny("ok", "threshold") {
		t.Errorf("HasAny() matched an absent substring")
	}
}
