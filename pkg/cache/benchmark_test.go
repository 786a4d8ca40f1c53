package cache

import (
	"fmt"
	"testing"

	"github.com/l3aro/microc-analysis/pkg/report"
)

func BenchmarkLRUGet(b *testing.B) {
	c := New(Options[*report.Report]{MaxSize: 10000})
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("key%d", i), &report.Report{Steps: i})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key999")
	}
}

func BenchmarkLRUSetEvicting(b *testing.B) {
	c := New(Options[*report.Report]{MaxSize: 100})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key%d", i), &report.Report{Steps: i})
	}
}

func BenchmarkKey(b *testing.B) {
	src := "int a; read a; while (a > 0) { a := a - 1; } write a;"
	for i := 0; i < b.N; i++ {
		Key(src, "sign-detection", "worklist-round-robin")
	}
}
