package iocontext

import (
	"bytes"
	"context"
	"os"
	"testing"
)

func TestGetIO(t *testing.T) {
	out := &bytes.Buffer{}
	ctx := WithIO(context.Background(), &IO{Out: out, ErrOut: out})

	if got := GetIO(ctx); got.Out != out {
		t.Error("GetIO should return the streams set with WithIO")
	}
}

func TestGetIO_Default(t *testing.T) {
	got := GetIO(context.Background())
	if got.Out != os.Stdout || got.ErrOut != os.Stderr || got.In != os.Stdin {
		t.Error("GetIO should fall back to the process streams")
	}
	if GetIO(WithIO(context.Background(), nil)).Out != os.Stdout {
		t.Error("a nil IO should fall back to the process streams")
	}
}
