package mux

import "testing"

func TestBuildArgsMapsStreamsPerSpec(t *testing.T) {
	args := buildArgs("v.mkv", "a.mkv", "in.mkv", "out.mkv")

	wantPairs := [][2]string{
		{"-map", "0:v:0"},
		{"-map", "1:a:0"},
		{"-map", "2:s?"},
		{"-map", "2:t?"},
		{"-map_chapters", "2"},
		{"-c", "copy"},
	}
	for _, pair := range wantPairs {
		if !containsPair(args, pair[0], pair[1]) {
			t.Fatalf("expected args to contain %v %v, got %v", pair[0], pair[1], args)
		}
	}
	if args[len(args)-1] != "out.mkv" {
		t.Fatalf("expected output path to be last arg, got %v", args)
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
