// SPDX-License-Identifier: MIT

package config

import (
	"reflect"
	"testing"
)

func TestParseGPUIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "0", want: []int{0}},
		{in: "2", want: []int{2}},
		{in: "0,1,3", want: []int{0, 1, 3}},
		{in: " 0 , 1 ", want: []int{0, 1}},
		{in: "0..3", want: []int{0, 1, 2, 3}},
		{in: "4-6", want: []int{4, 5, 6}},
		{in: "2..2", want: []int{2}},
		{in: "", wantErr: true},
		{in: "a", wantErr: true},
		{in: "0,0", wantErr: true},
		{in: "3..1", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "0,-2", wantErr: true},
		{in: ",,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGPUIDs(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseGPUIDs(%q) expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGPUIDs(%q) unexpected error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseGPUIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
