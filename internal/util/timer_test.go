package util

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestZeroTimer(t *testing.T) {
	var timer Timer
	if timer.ElapsedMs() != 0 {
		t.Fatalf("zero timer should report 0")
	}
}

func TestFieldsAddsElapsed(t *testing.T) {
	in := logrus.Fields{"tool": "deal"}
	out := StartTimer().Fields(in)
	if out["tool"] != "deal" {
		t.Fatalf("missing original field")
	}
	if _, ok := out["elapsed_ms"]; !ok {
		t.Fatalf("missing elapsed_ms")
	}
	if _, ok := in["elapsed_ms"]; ok {
		t.Fatalf("input fields were modified")
	}
}
